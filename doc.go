// Package moodrec 是一个基于情绪的荐书工具包。
//
// 设计要点：
// - Mood-first: 一段文字经情绪分类器得到情绪画像，主导情绪决定主类别与配比表
// - Pipeline-first: 选书逻辑通过 Node 串联（recall.emotion → filter → rerank.allocate）
// - Labels-first: 每本书的 reason 等标签全链路透传，便于解释与观测
//
// 直接使用引擎：
//
//	e, _ := moodrec.NewEngine(
//		engine.WithCorpus(books),
//		engine.WithClassifier(classifier.NewLexiconClassifier()),
//	)
//	res, _ := e.Recommend(ctx, "I can't stop smiling today", 8)
package moodrec

import (
	"github.com/rushteam/moodrec/core"
	"github.com/rushteam/moodrec/engine"
	"github.com/rushteam/moodrec/pipeline"
)

// 轻量 facade：便于用户直接 import "moodrec" 使用核心抽象。
type (
	Engine               = engine.Engine
	Pipeline             = pipeline.Pipeline
	Node                 = pipeline.Node
	Kind                 = pipeline.Kind
	MoodClassifier       = core.MoodClassifier
	RecommendationResult = core.RecommendationResult
)

const (
	KindRecall = pipeline.KindRecall
	KindFilter = pipeline.KindFilter
	KindReRank = pipeline.KindReRank
)

// NewEngine 等同于 engine.New。
func NewEngine(opts ...engine.Option) (*Engine, error) {
	return engine.New(opts...)
}

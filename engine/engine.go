// Package engine 编排一次推荐请求：情绪分类 -> 主类别与配比 -> Pipeline -> 结果封装。
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rushteam/moodrec/classifier"
	"github.com/rushteam/moodrec/core"
	"github.com/rushteam/moodrec/filter"
	"github.com/rushteam/moodrec/metrics"
	"github.com/rushteam/moodrec/pipeline"
	"github.com/rushteam/moodrec/recall"
	"github.com/rushteam/moodrec/rerank"
	"github.com/rushteam/moodrec/taxonomy"
)

const (
	// DefaultConfidenceThreshold 是 IsConfident 的默认阈值。
	DefaultConfidenceThreshold = 0.5
	// MaxBooksLimit 是单次请求推荐数上限。
	MaxBooksLimit = 20
)

// Engine 是推荐引擎。构建后只读，可被多个请求并发使用。
type Engine struct {
	corpus    *core.Corpus
	taxonomy  *taxonomy.Taxonomy
	adapter   *classifier.Adapter
	pipeline  *pipeline.Pipeline
	logger    zerolog.Logger
	threshold float64
	maxBooks  int
}

// Option 配置 Engine。
type Option func(*Engine)

func WithCorpus(c *core.Corpus) Option { return func(e *Engine) { e.corpus = c } }

func WithTaxonomy(t *taxonomy.Taxonomy) Option { return func(e *Engine) { e.taxonomy = t } }

func WithAdapter(a *classifier.Adapter) Option { return func(e *Engine) { e.adapter = a } }

// WithClassifier 使用默认规范化选项包装分类器。
func WithClassifier(c core.MoodClassifier) Option {
	return func(e *Engine) { e.adapter = classifier.NewAdapter(c, classifier.Options{}) }
}

// WithPipeline 替换默认链路（recall.emotion -> filter -> rerank.allocate）。
func WithPipeline(p *pipeline.Pipeline) Option { return func(e *Engine) { e.pipeline = p } }

func WithLogger(l zerolog.Logger) Option { return func(e *Engine) { e.logger = l } }

func WithConfidenceThreshold(v float64) Option { return func(e *Engine) { e.threshold = v } }

// WithDefaultMaxBooks 设置调用方未指定 maxBooks 时的上限。
func WithDefaultMaxBooks(n int) Option { return func(e *Engine) { e.maxBooks = n } }

// DefaultPipeline 返回默认链路：情绪召回 -> 按请求参数 exclude_titles 过滤 -> 配比分配。
func DefaultPipeline() *pipeline.Pipeline {
	return &pipeline.Pipeline{Nodes: []pipeline.Node{
		&recall.EmotionRecall{},
		&filter.FilterNode{Filters: []filter.Filter{filter.NewTitleBlacklist(nil)}},
		&rerank.Allocator{},
	}}
}

// New 创建引擎；分类器必须提供，书库为空时返回空推荐。
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger:    zerolog.Nop(),
		threshold: DefaultConfidenceThreshold,
		maxBooks:  rerank.DefaultMaxBooks,
	}
	for _, o := range opts {
		o(e)
	}
	if e.adapter == nil || e.adapter.Classifier == nil {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "engine requires a mood classifier")
	}
	if e.corpus == nil {
		e.corpus = &core.Corpus{Columns: core.Vocabulary}
	}
	if err := e.corpus.Validate(); err != nil {
		return nil, err
	}
	if e.taxonomy == nil {
		e.taxonomy = taxonomy.Default()
	}
	if e.pipeline == nil {
		e.pipeline = DefaultPipeline()
	}
	e.maxBooks = ClampMaxBooks(e.maxBooks, rerank.DefaultMaxBooks)
	e.logger = e.logger.With().Str("component", "engine").Logger()
	if e.pipeline.Logger == nil {
		pl := e.logger.With().Str("component", "pipeline").Logger()
		e.pipeline.Logger = &pl
	}
	return e, nil
}

// ClampMaxBooks 把 maxBooks 规整到 [1, 20]；<= 0 时取 fallback。
func ClampMaxBooks(maxBooks, fallback int) int {
	if maxBooks <= 0 {
		maxBooks = fallback
	}
	if maxBooks > MaxBooksLimit {
		maxBooks = MaxBooksLimit
	}
	return maxBooks
}

// Corpus 返回引擎使用的书库。
func (e *Engine) Corpus() *core.Corpus { return e.corpus }

// Taxonomy 返回引擎使用的类别体系。
func (e *Engine) Taxonomy() *taxonomy.Taxonomy { return e.taxonomy }

// ClassifierName 返回分类器名称。
func (e *Engine) ClassifierName() string { return e.adapter.Classifier.Name() }

// Request 是一次推荐请求。
type Request struct {
	Text string
	// MaxBooks <= 0 时使用引擎默认值，超过 20 时按 20 处理
	MaxBooks int
	// Params 透传到 RecommendContext.Params，例如 exclude_titles
	Params map[string]any
	// RequestID 为空时自动生成
	RequestID string
}

// Recommend 根据情绪描述返回推荐结果。
//
// 分类器错误原样返回（classifier 模块的 DomainError），不重试；
// 书库为空或没有候选时返回 Count=0 的结果，不是错误。
func (e *Engine) Recommend(ctx context.Context, text string, maxBooks int) (*core.RecommendationResult, error) {
	return e.RecommendRequest(ctx, Request{Text: text, MaxBooks: maxBooks})
}

// RecommendRequest 与 Recommend 相同，额外支持请求参数。
func (e *Engine) RecommendRequest(ctx context.Context, req Request) (*core.RecommendationResult, error) {
	started := time.Now()
	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	log := e.logger.With().Str("request_id", requestID).Logger()

	profile, err := e.adapter.Profile(ctx, req.Text)
	if err != nil {
		metrics.ObserveRequest(metrics.OutcomeClassifierError, started, 0)
		log.Warn().Err(err).Msg("classify failed")
		return nil, err
	}

	rctx := e.buildContext(requestID, req, profile)

	items, err := e.pipeline.Run(ctx, rctx, nil)
	if err != nil {
		metrics.ObserveRequest(metrics.OutcomeError, started, 0)
		log.Error().Err(err).Msg("pipeline failed")
		return nil, fmt.Errorf("recommend: %w", err)
	}

	result := e.buildResult(rctx, items)
	outcome := metrics.OutcomeOK
	if result.Count == 0 {
		outcome = metrics.OutcomeEmpty
	}
	metrics.ObserveRequest(outcome, started, result.Count)

	log.Debug().
		Str("dominant", result.DetectedMood).
		Float64("intensity", result.Intensity).
		Str("main_category", result.MainCategory).
		Int("total", rctx.Total).
		Int("count", result.Count).
		Dur("latency", time.Since(started)).
		Msg("recommend")
	return result, nil
}

func (e *Engine) buildContext(requestID string, req Request, profile core.EmotionProfile) *core.RecommendContext {
	main := e.taxonomy.MainCategory(profile.Dominant())
	maxBooks := ClampMaxBooks(req.MaxBooks, e.maxBooks)
	return &core.RecommendContext{
		RequestID:    requestID,
		Text:         req.Text,
		Profile:      profile,
		MainCategory: main,
		Ratios:       e.taxonomy.RatiosFor(main),
		Categories:   e.taxonomy.CategoryMap(),
		Total:        rerank.TotalSlots(profile.Intensity(), maxBooks),
		MaxBooks:     maxBooks,
		Corpus:       e.corpus,
		Params:       req.Params,
	}
}

func (e *Engine) buildResult(rctx *core.RecommendContext, items []*core.Item) *core.RecommendationResult {
	recs := make([]core.Recommendation, 0, len(items))
	for _, it := range items {
		recs = append(recs, core.Recommendation{
			Title:  it.Title,
			Reason: it.Labels["reason"].Last(),
			Score:  it.Score,
			BookID: it.ID,
		})
	}
	return &core.RecommendationResult{
		DetectedMood:    rctx.Profile.Dominant(),
		Count:           len(recs),
		Recommendations: recs,
		Intensity:       rctx.Profile.Intensity(),
		IsConfident:     rctx.Profile.Intensity() >= e.threshold,
		MainCategory:    rctx.MainCategory,
	}
}

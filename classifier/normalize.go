// Package classifier 把外部情绪分类模型的原始输出规范化为情绪画像，并提供若干分类器实现。
package classifier

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rushteam/moodrec/core"
	"github.com/rushteam/moodrec/metrics"
)

// Options 控制规范化行为。
type Options struct {
	// Vocabulary 为空时使用 core.Vocabulary
	Vocabulary []string
	// RequireAll 为 true 时输出缺少词表中的任一标签即报错；
	// 否则缺失标签按词表顺序补 0，使画像覆盖整个词表
	RequireAll bool
}

// Normalize 校验并排序分类器原始输出。
//
// 按分数降序稳定排序，分数相同保持原始输出中的先后顺序；
// 第一项为主导情绪，其分数为强度。词表外的标签保留。
func Normalize(raw []core.EmotionScore, opts Options) (core.EmotionProfile, error) {
	if len(raw) == 0 {
		return nil, malformedOutput("classifier returned no scores")
	}
	vocab := opts.Vocabulary
	if len(vocab) == 0 {
		vocab = core.Vocabulary
	}

	seen := make(map[string]bool, len(raw))
	profile := make(core.EmotionProfile, 0, len(raw)+len(vocab))
	for i, s := range raw {
		if s.Label == "" {
			return nil, malformedOutput(fmt.Sprintf("score %d has empty label", i))
		}
		if seen[s.Label] {
			return nil, malformedOutput(fmt.Sprintf("duplicate label %q", s.Label))
		}
		if math.IsNaN(s.Score) || math.IsInf(s.Score, 0) || s.Score < 0 || s.Score > 1 {
			return nil, malformedOutput(fmt.Sprintf("label %q has score %v outside [0,1]", s.Label, s.Score))
		}
		seen[s.Label] = true
		profile = append(profile, s)
	}

	for _, l := range vocab {
		if seen[l] {
			continue
		}
		if opts.RequireAll {
			return nil, malformedOutput(fmt.Sprintf("missing label %q", l))
		}
		profile = append(profile, core.EmotionScore{Label: l})
	}

	sort.SliceStable(profile, func(i, j int) bool {
		return profile[i].Score > profile[j].Score
	})
	return profile, nil
}

func malformedOutput(msg string) error {
	return core.NewDomainError(core.ModuleClassifier, core.ErrorCodeMalformedOutput, msg)
}

// Adapter 包装一个 MoodClassifier：每次请求只调用一次模型，然后规范化。
type Adapter struct {
	Classifier core.MoodClassifier
	Options
}

// NewAdapter 创建适配器，opts 可为零值。
func NewAdapter(c core.MoodClassifier, opts Options) *Adapter {
	return &Adapter{Classifier: c, Options: opts}
}

// Profile 对文本分类并返回规范化后的情绪画像。
// 底层错误统一为 classifier 模块的 DomainError，不做重试。
func (a *Adapter) Profile(ctx context.Context, text string) (core.EmotionProfile, error) {
	if a == nil || a.Classifier == nil {
		return nil, core.NewDomainError(core.ModuleClassifier, core.ErrorCodeUnavailable, "no classifier configured")
	}
	name := a.Classifier.Name()
	started := time.Now()

	raw, err := a.Classifier.Classify(ctx, text)
	if err != nil {
		err = asClassifierError(name, err)
		metrics.ObserveClassifier(name, started, core.GetDomainError(err).Code)
		return nil, err
	}
	profile, err := Normalize(raw, a.Options)
	if err != nil {
		metrics.ObserveClassifier(name, started, core.ErrorCodeMalformedOutput)
		return nil, err
	}
	metrics.ObserveClassifier(name, started, "")
	return profile, nil
}

// asClassifierError 保留已有的 classifier 错误，其余包装为 UNAVAILABLE。
func asClassifierError(name string, err error) error {
	if core.IsClassifierError(err) {
		return err
	}
	return core.WrapDomainError(core.ModuleClassifier, core.ErrorCodeUnavailable,
		fmt.Sprintf("classifier %s failed", name), err)
}

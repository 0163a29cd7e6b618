package classifier

import (
	"context"

	"github.com/rushteam/moodrec/core"
)

// Func 把函数适配为 MoodClassifier，便于测试与嵌入调用方自己的模型。
type Func struct {
	ClassifierName string
	Fn             func(ctx context.Context, text string) ([]core.EmotionScore, error)
}

var _ core.MoodClassifier = (*Func)(nil)

// NewFunc 创建函数分类器。
func NewFunc(name string, fn func(ctx context.Context, text string) ([]core.EmotionScore, error)) *Func {
	return &Func{ClassifierName: name, Fn: fn}
}

func (f *Func) Name() string {
	if f.ClassifierName == "" {
		return "func"
	}
	return f.ClassifierName
}

func (f *Func) Classify(ctx context.Context, text string) ([]core.EmotionScore, error) {
	return f.Fn(ctx, text)
}

// Static 返回固定输出的分类器。
func Static(scores ...core.EmotionScore) *Func {
	return NewFunc("static", func(context.Context, string) ([]core.EmotionScore, error) {
		out := make([]core.EmotionScore, len(scores))
		copy(out, scores)
		return out, nil
	})
}

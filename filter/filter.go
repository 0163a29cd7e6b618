// Package filter 在召回与分配之间剔除不应推荐的候选书，例如读者已读过的书。
package filter

import (
	"context"

	"github.com/rushteam/moodrec/core"
)

// Filter 判断一本候选书是否应该被剔除，返回 true 表示剔除。
// 实现需要可并发调用：同一个 Filter 会被多个请求共享。
type Filter interface {
	Name() string
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}

// Func 把函数适配为 Filter，用于一次性的业务规则。
//
//	filter.Func{FilterName: "short_titles", Fn: func(_ context.Context, _ *core.RecommendContext, it *core.Item) (bool, error) {
//		return len(it.Title) < 3, nil
//	}}
type Func struct {
	FilterName string
	Fn         func(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}

var _ Filter = Func{}

func (f Func) Name() string {
	if f.FilterName == "" {
		return "filter.func"
	}
	return f.FilterName
}

func (f Func) ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	if f.Fn == nil {
		return false, nil
	}
	return f.Fn(ctx, rctx, item)
}

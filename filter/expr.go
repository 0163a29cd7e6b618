package filter

import (
	"context"

	"github.com/rushteam/moodrec/core"
	"github.com/rushteam/moodrec/pkg/dsl"
)

// ExprFilter 用 CEL 表达式过滤候选书。
//
// 默认表达式为 true 的书被移除；Keep 为 true 时语义反转，只保留表达式为 true 的书。
//
//	item.features.grief > 0.8 && rctx.main_category == "negative"
type ExprFilter struct {
	expr *dsl.Expr
	Keep bool
}

var _ Filter = (*ExprFilter)(nil)

// NewExprFilter 编译表达式并创建过滤器。
func NewExprFilter(expr string, keep bool) (*ExprFilter, error) {
	e, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{expr: e, Keep: keep}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

// Expr 返回表达式原文。
func (f *ExprFilter) Expr() string {
	return f.expr.String()
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	ok, err := f.expr.Eval(item, rctx)
	if err != nil {
		return false, err
	}
	if f.Keep {
		return !ok, nil
	}
	return ok, nil
}

package rerank

import (
	"context"

	"github.com/rushteam/moodrec/core"
	"github.com/rushteam/moodrec/pipeline"
)

// TopNNode 截断分配结果。
//
// 各类别名额独立取整，名额之和可能超过目标推荐数（例如 total=8 时 5+1+2+1=9）。
// 默认链路不截断；需要严格不超过目标数时在 rerank.allocate 之后追加本节点：
//
//	&rerank.TopNNode{UseTotal: true}
type TopNNode struct {
	// N > 0 时保留前 N 个
	N int
	// UseTotal 为 true 且 N <= 0 时，按 rctx.Total 截断
	UseTotal bool
}

var _ pipeline.Node = (*TopNNode)(nil)

func (n *TopNNode) Name() string        { return "rerank.topn" }
func (n *TopNNode) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := n.N
	if limit <= 0 && n.UseTotal && rctx != nil {
		limit = rctx.Total
	}
	if limit <= 0 || len(items) <= limit {
		return items, nil
	}
	return items[:limit], nil
}

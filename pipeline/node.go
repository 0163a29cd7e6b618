package pipeline

import (
	"context"

	"github.com/rushteam/moodrec/core"
)

// Kind 标记 Node 所处阶段，用于日志与链路描述。
type Kind string

const (
	KindRecall Kind = "recall" // 召回阶段：对全量书库打相似度分
	KindFilter Kind = "filter" // 过滤阶段：剔除不符合约束的候选
	KindReRank Kind = "rerank" // 重排阶段：按类别配比分配名额
)

// Node 是 Pipeline 的最小可扩展单元，输入 items 输出 items。
// Recall 忽略输入并生成候选，Filter 只删不改，ReRank 决定最终顺序与名额。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		items []*core.Item,
	) ([]*core.Item, error)
}

// NodeFunc 把函数适配为 Node，用于测试与临时插入的业务逻辑。
type NodeFunc struct {
	NodeName string
	NodeKind Kind
	Fn       func(ctx context.Context, rctx *core.RecommendContext, items []*core.Item) ([]*core.Item, error)
}

var _ Node = (*NodeFunc)(nil)

func (n *NodeFunc) Name() string { return n.NodeName }

func (n *NodeFunc) Kind() Kind { return n.NodeKind }

func (n *NodeFunc) Process(ctx context.Context, rctx *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	return n.Fn(ctx, rctx, items)
}

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/moodrec/core"
)

// Pipeline 把选书逻辑拆成可组合的 Node 链，按顺序执行。
// 构建后只读，可被多个请求并发使用。
type Pipeline struct {
	Nodes []Node

	// Logger 非空时逐个 Node 记录候选数量与耗时（debug 级别）
	Logger *zerolog.Logger
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("node %s: %w", node.Name(), err)
		}
		started := time.Now()
		in := len(cur)
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", node.Name(), err)
		}
		p.trace(rctx, node, in, len(next), started)
		cur = next
	}
	return cur, nil
}

func (p *Pipeline) trace(rctx *core.RecommendContext, node Node, in, out int, started time.Time) {
	if p.Logger == nil {
		return
	}
	ev := p.Logger.Debug()
	if rctx != nil {
		ev = ev.Str("request_id", rctx.RequestID)
	}
	ev.Str("node", node.Name()).
		Str("kind", string(node.Kind())).
		Int("in", in).
		Int("out", out).
		Dur("took", time.Since(started)).
		Msg("node done")
}

// Describe 返回各 Node 的 "kind:name"，用于启动日志。
func (p *Pipeline) Describe() []string {
	out := make([]string, 0, len(p.Nodes))
	for _, n := range p.Nodes {
		out = append(out, string(n.Kind())+":"+n.Name())
	}
	return out
}

package filter

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rushteam/moodrec/core"
	"github.com/rushteam/moodrec/pipeline"
)

// FilterNode 是过滤 Node，可以组合多个过滤器进行过滤。
// 任何一个过滤器返回 true，该书就会被移除；过滤器出错时保留该书，不中断请求。
type FilterNode struct {
	Filters []Filter

	// Logger 为空时不记录过滤器错误
	Logger *zerolog.Logger
}

var _ pipeline.Node = (*FilterNode)(nil)

func (n *FilterNode) Name() string {
	return "filter"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))
	removed := make(map[string]int, len(n.Filters))

	for _, item := range items {
		if item == nil {
			continue
		}

		reason := ""
		for _, f := range n.Filters {
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				n.logError(rctx, f, item, err)
				continue
			}
			if ok {
				reason = f.Name()
				break
			}
		}

		if reason != "" {
			removed[reason]++
			continue
		}
		out = append(out, item)
	}

	if n.Logger != nil && len(removed) > 0 {
		ev := n.Logger.Debug().Int("kept", len(out))
		if rctx != nil {
			ev = ev.Str("request_id", rctx.RequestID)
		}
		for name, c := range removed {
			ev = ev.Int(name, c)
		}
		ev.Msg("candidates filtered")
	}
	return out, nil
}

func (n *FilterNode) logError(rctx *core.RecommendContext, f Filter, item *core.Item, err error) {
	if n.Logger == nil {
		return
	}
	ev := n.Logger.Warn().Err(err).Str("filter", f.Name()).Int("book_id", item.ID)
	if rctx != nil {
		ev = ev.Str("request_id", rctx.RequestID)
	}
	ev.Msg("filter failed, item kept")
}

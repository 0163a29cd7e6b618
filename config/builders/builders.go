// Package builders 注册内置 Node 的配置构建器，import 即生效。
package builders

import (
	"fmt"

	"github.com/rushteam/moodrec/config"
	"github.com/rushteam/moodrec/filter"
	"github.com/rushteam/moodrec/logging"
	"github.com/rushteam/moodrec/pipeline"
	"github.com/rushteam/moodrec/pkg/conv"
	"github.com/rushteam/moodrec/recall"
	"github.com/rushteam/moodrec/rerank"
)

func init() {
	config.Register("recall.emotion", BuildEmotionRecallNode)
	config.Register("filter", BuildFilterNode)
	config.Register("rerank.allocate", BuildAllocatorNode)
	config.Register("rerank.topn", BuildTopNNode)
}

// BuildEmotionRecallNode 构建情绪召回节点，书库取自请求上下文。
func BuildEmotionRecallNode(map[string]any) (pipeline.Node, error) {
	return &recall.EmotionRecall{}, nil
}

func BuildAllocatorNode(map[string]any) (pipeline.Node, error) {
	return &rerank.Allocator{}, nil
}

// BuildTopNNode 支持 n（固定数量）与 use_total（按目标推荐数截断）。
func BuildTopNNode(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.TopNNode{
		N:        int(conv.ConfigGetInt64(cfg, "n", 0)),
		UseTotal: conv.ConfigGet(cfg, "use_total", false),
	}, nil
}

// BuildFilterNode 构建过滤节点：
//
//	filters:
//	  - type: title_blacklist
//	    titles: [Dune]
//	    param: exclude_titles
//	  - type: expr
//	    expr: 'item.features.grief > 0.8'
//	    keep: false
func BuildFilterNode(cfg map[string]any) (pipeline.Node, error) {
	raw, ok := cfg["filters"].([]any)
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}
	filters := make([]filter.Filter, 0, len(raw))
	for i, fc := range raw {
		m, ok := fc.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("filter %d: expected mapping", i)
		}
		switch t := conv.ConfigGet(m, "type", ""); t {
		case "title_blacklist":
			f := filter.NewTitleBlacklist(conv.ToStringSlice(m["titles"]))
			f.ParamKey = conv.ConfigGet(m, "param", "")
			filters = append(filters, f)
		case "expr":
			expr := conv.ConfigGet(m, "expr", "")
			if expr == "" {
				return nil, fmt.Errorf("filter %d: expr is required", i)
			}
			f, err := filter.NewExprFilter(expr, conv.ConfigGet(m, "keep", false))
			if err != nil {
				return nil, fmt.Errorf("filter %d: %w", i, err)
			}
			filters = append(filters, f)
		default:
			return nil, fmt.Errorf("filter %d: unknown type %q", i, t)
		}
	}
	logger := logging.Component("filter")
	return &filter.FilterNode{Filters: filters, Logger: &logger}, nil
}

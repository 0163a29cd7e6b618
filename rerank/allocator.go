package rerank

import (
	"context"
	"math"
	"sort"

	"github.com/rushteam/moodrec/core"
	"github.com/rushteam/moodrec/pipeline"
	"github.com/rushteam/moodrec/pkg/utils"
)

const (
	// DefaultMaxBooks 是调用方未指定上限时的推荐数上限。
	DefaultMaxBooks = 8
	// MinSlots 是单次请求的最少推荐数。
	MinSlots = 3
	// intensityScale 把主导情绪强度换算为推荐数。
	intensityScale = 12
)

// TotalSlots 按主导情绪强度计算目标推荐数：clamp(round(intensity*12), 3, maxBooks)。
// maxBooks <= 0 时取 DefaultMaxBooks；maxBooks < 3 时上限优先。
func TotalSlots(intensity float64, maxBooks int) int {
	if maxBooks <= 0 {
		maxBooks = DefaultMaxBooks
	}
	n := int(math.RoundToEven(intensity * intensityScale))
	if n < MinSlots {
		n = MinSlots
	}
	if n > maxBooks {
		n = maxBooks
	}
	return n
}

// SlotCount 返回某个类别分到的名额：max(1, round(total*ratio))。
// 权重为 0 的类别也至少占 1 个名额。
func SlotCount(total int, ratio float64) int {
	n := int(math.RoundToEven(float64(total) * ratio))
	if n < 1 {
		return 1
	}
	return n
}

// Allocation 是分配结果中的一项。
type Allocation struct {
	Item     *core.Item
	Category string
	// Rank 是 相似度 × 类别强度，Score 是它保留 4 位小数后的值
	Rank  float64
	Score float64
}

// Strength 返回书在某个类别上的强度：成员情绪原始特征值之和。
func Strength(it *core.Item, members []string) float64 {
	var s float64
	for _, m := range members {
		s += it.Features[m]
	}
	return s
}

// Allocate 按配比表顺序为每个类别挑选候选书。
//
// items 的 Score 为相似度；同一标题全局只出现一次（包括书库中的重复标题）。
// 配比表引用的未知类别直接跳过，不占名额。
// 输出长度 <= 各类别名额之和，候选不足时可能少于 total。
func Allocate(items []*core.Item, ratios core.RatioTable, categories map[string][]string, total int) []Allocation {
	picked := make(map[string]bool, total)
	out := make([]Allocation, 0, total)

	type candidate struct {
		item *core.Item
		rank float64
	}
	cands := make([]candidate, len(items))

	for _, r := range ratios {
		members, ok := categories[r.Category]
		if !ok || len(members) == 0 {
			continue
		}
		slots := SlotCount(total, r.Weight)

		for i, it := range items {
			cands[i] = candidate{item: it, rank: it.Score * Strength(it, members)}
		}
		// 稳定排序：分数相同保持书库行序
		sort.SliceStable(cands, func(i, j int) bool {
			return cands[i].rank > cands[j].rank
		})

		taken := 0
		for _, c := range cands {
			if taken >= slots {
				break
			}
			if picked[c.item.Title] {
				continue
			}
			picked[c.item.Title] = true
			out = append(out, Allocation{
				Item:     c.item,
				Category: r.Category,
				Rank:     c.rank,
				Score:    round4(c.rank),
			})
			taken++
		}
	}
	return out
}

// round4 保留四位小数，半数取偶
func round4(x float64) float64 {
	return math.RoundToEven(x*1e4) / 1e4
}

// Allocator 是按类别配比分配推荐名额的重排节点。
// 读取 rctx.Ratios / rctx.Categories / rctx.Total，输出按分配顺序排列的候选项：
//   - Rank：相似度 × 类别强度
//   - Score：Rank 保留 4 位小数
//   - Label "reason"：产生该推荐的类别
type Allocator struct{}

var _ pipeline.Node = (*Allocator)(nil)

func (n *Allocator) Name() string        { return "rerank.allocate" }
func (n *Allocator) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *Allocator) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 || rctx == nil {
		return []*core.Item{}, nil
	}
	allocs := Allocate(items, rctx.Ratios, rctx.Categories, rctx.Total)
	out := make([]*core.Item, 0, len(allocs))
	for _, a := range allocs {
		a.Item.Rank = a.Rank
		a.Item.Score = a.Score
		a.Item.PutLabel("reason", utils.Label{Value: a.Category, Source: utils.SourceReRank})
		out = append(out, a.Item)
	}
	return out, nil
}

package core

import "github.com/rushteam/moodrec/pkg/utils"

// Item 是推荐链路中的统一承载结构：一本候选书及其分数、特征、标签。
//   - Score：召回阶段为相似度，分配后为四舍五入的最终分
//   - Rank：分配阶段的最终排序值（相似度 × 类别强度）
//   - Features：书的原始情绪特征
//   - Labels：用于解释与策略驱动（recall_source / reason ...）
type Item struct {
	ID       int
	Title    string
	Score    float64
	Rank     float64
	Features map[string]float64
	Meta     map[string]any
	Labels   map[string]utils.Label
}

func NewItem(id int, title string) *Item {
	return &Item{
		ID:       id,
		Title:    title,
		Features: make(map[string]float64),
		Meta:     make(map[string]any),
		Labels:   make(map[string]utils.Label),
	}
}

// NewBookItem 由书库中的一行构建候选项，特征与元信息共享书库中的只读 map。
func NewBookItem(b *Book) *Item {
	return &Item{
		ID:       b.ID,
		Title:    b.Title,
		Features: b.Emotions,
		Meta:     b.Meta,
		Labels:   make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// Label 读取 Label 的值，不存在时返回 ""。
func (it *Item) Label(key string) string {
	if it.Labels == nil {
		return ""
	}
	return it.Labels[key].Value
}

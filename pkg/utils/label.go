package utils

import "strings"

// Label 是推荐链路中的解释信息：哪个阶段、因为什么把这本书留了下来。
// 同名 Label 多次写入时保留历史，Value 以 '|' 累积，Source 以 ',' 累积。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // recall / filter / rerank / engine
}

// Label 来源
const (
	SourceRecall = "recall"
	SourceFilter = "filter"
	SourceReRank = "rerank"
	SourceEngine = "engine"
)

const (
	valueSep  = "|"
	sourceSep = ","
)

// MergeLabel 合并同名 Label；相同来源不重复记录。
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + valueSep + incoming.Value
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "" || existing.HasSource(incoming.Source):
	default:
		merged.Source = existing.Source + sourceSep + incoming.Source
	}
	return merged
}

// Values 按写入顺序返回累积的值。
func (l Label) Values() []string {
	if l.Value == "" {
		return nil
	}
	return strings.Split(l.Value, valueSep)
}

// Last 返回最后一次写入的值。
func (l Label) Last() string {
	if i := strings.LastIndex(l.Value, valueSep); i >= 0 {
		return l.Value[i+1:]
	}
	return l.Value
}

// HasSource 判断是否由 src 阶段写入过。
func (l Label) HasSource(src string) bool {
	if src == "" {
		return false
	}
	for _, s := range strings.Split(l.Source, sourceSep) {
		if s == src {
			return true
		}
	}
	return false
}

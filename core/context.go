package core

import "github.com/rushteam/moodrec/pkg/utils"

// RecommendContext 承载一次请求的全部输入，贯穿整个 Pipeline 透传。
// 由 engine 在分类完成后构建；Node 只读取，不修改 Corpus。
type RecommendContext struct {
	RequestID string
	Text      string

	// Profile 是规范化后的情绪画像（降序）
	Profile EmotionProfile

	// MainCategory 是主导情绪所属的主类别，Ratios 是它对应的配比表
	MainCategory string
	Ratios       RatioTable

	// Categories 是类别名 -> 成员情绪，供分配阶段计算类别强度
	Categories map[string][]string

	// Total 是本次请求的目标推荐数，MaxBooks 是调用方给定的上限
	Total    int
	MaxBooks int

	// Corpus 是进程级只读书库
	Corpus *Corpus

	// Labels 是请求级标签，可驱动整个 Pipeline 行为
	Labels map[string]utils.Label

	// Params 请求级参数，例如 exclude_titles
	Params map[string]any
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}

// Param 读取请求参数，不存在时返回 nil。
func (rctx *RecommendContext) Param(key string) any {
	if rctx == nil || rctx.Params == nil {
		return nil
	}
	return rctx.Params[key]
}

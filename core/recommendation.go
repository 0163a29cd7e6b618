package core

// Recommendation 是一条推荐结果，Reason 为产生它的类别。
type Recommendation struct {
	Title  string  `json:"title"`
	Reason string  `json:"reason"`
	Score  float64 `json:"score"`
	BookID int     `json:"book_id"`
}

// RecommendationResult 是一次请求的完整响应，不做持久化。
//
// Count 为 0 的结果是合法的成功响应，与加载失败/分类器失败（返回 error）严格区分。
type RecommendationResult struct {
	DetectedMood    EmotionLabel     `json:"detected_mood"`
	Count           int              `json:"count"`
	Recommendations []Recommendation `json:"recommendations"`

	// 以下为扩展字段
	Intensity    float64 `json:"intensity"`
	IsConfident  bool    `json:"is_confident"`
	MainCategory string  `json:"main_category"`
}

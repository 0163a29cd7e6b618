package core

import "context"

// EmotionLabel 是情绪词表中的一个标签，按名称识别。
type EmotionLabel = string

// Vocabulary 是情绪分类器可输出的固定词表（GoEmotions 28 类）。
// 顺序即书库特征列的默认顺序，也用于确定性的平局处理。
var Vocabulary = []EmotionLabel{
	"neutral", "approval", "annoyance", "realization", "admiration",
	"disappointment", "disapproval", "excitement", "sadness", "anger",
	"disgust", "amusement", "joy", "confusion", "fear", "optimism",
	"curiosity", "love", "surprise", "desire", "gratitude", "caring",
	"embarrassment", "grief", "pride", "nervousness", "relief", "remorse",
}

// InVocabulary 判断 label 是否属于固定词表。
func InVocabulary(label string) bool {
	for _, v := range Vocabulary {
		if v == label {
			return true
		}
	}
	return false
}

// EmotionScore 是分类器对单个标签的置信度（多标签，各标签独立）。
type EmotionScore struct {
	Label EmotionLabel `json:"label" msgpack:"label"`
	Score float64      `json:"score" msgpack:"score"`
}

// EmotionProfile 是一次请求的情绪画像：按分数降序排列的 (label, score) 序列。
// 分数之和不要求为 1。画像在请求内只生成一次，之后只读。
type EmotionProfile []EmotionScore

// Dominant 返回主导情绪（排序后的第一项）；空画像返回 ""。
func (p EmotionProfile) Dominant() EmotionLabel {
	if len(p) == 0 {
		return ""
	}
	return p[0].Label
}

// Intensity 返回主导情绪的分数。
func (p EmotionProfile) Intensity() float64 {
	if len(p) == 0 {
		return 0
	}
	return p[0].Score
}

// Score 返回指定标签的分数，不存在时返回 (0, false)。
func (p EmotionProfile) Score(label EmotionLabel) (float64, bool) {
	for _, s := range p {
		if s.Label == label {
			return s.Score, true
		}
	}
	return 0, false
}

// Vector 按 columns 的顺序展开为用户向量；画像中没有的列取 0。
func (p EmotionProfile) Vector(columns []string) []float64 {
	index := make(map[string]float64, len(p))
	for _, s := range p {
		index[s.Label] = s.Score
	}
	out := make([]float64, len(columns))
	for i, c := range columns {
		out[i] = index[c]
	}
	return out
}

// MoodClassifier 是外部情绪分类模型的领域接口（黑盒）。
//
// 实现：
//   - classifier.HTTPClassifier：远程推理服务
//   - classifier.LexiconClassifier：离线 VADER 词典
//   - classifier.CachedClassifier：带缓存的装饰器
//
// Classify 每次调用只访问一次底层模型，返回原始输出（未排序、未校验），
// 规范化由 classifier.Normalize 负责。
type MoodClassifier interface {
	Name() string
	Classify(ctx context.Context, text string) ([]EmotionScore, error)
}

package classifier

import (
	"context"
	"math"
	"sync"

	"github.com/jonreiter/govader"

	"github.com/rushteam/moodrec/core"
)

// LexiconClassifier 是基于 VADER 情感词典的离线分类器，无需模型服务。
//
// VADER 只给出极性（compound ∈ [-1,1] 与 pos/neg/neu 占比），
// 这里按极性强度映射到词表中的若干情绪：
//
//	compound > 0: joy, optimism, amusement
//	compound < 0: sadness, disappointment, anger, fear
//	neutral = neu × (1 - |compound|)
//
// 可安全并发使用。
type LexiconClassifier struct {
	sia *govader.SentimentIntensityAnalyzer
	mu  sync.Mutex
}

var _ core.MoodClassifier = (*LexiconClassifier)(nil)

func NewLexiconClassifier() *LexiconClassifier {
	return &LexiconClassifier{sia: govader.NewSentimentIntensityAnalyzer()}
}

func (c *LexiconClassifier) Name() string { return "lexicon" }

func (c *LexiconClassifier) Classify(ctx context.Context, text string) ([]core.EmotionScore, error) {
	if err := ctx.Err(); err != nil {
		return nil, core.WrapDomainError(core.ModuleClassifier, core.ErrorCodeUnavailable, "lexicon classify", err)
	}
	c.mu.Lock()
	s := c.sia.PolarityScores(text)
	c.mu.Unlock()
	return polarityToEmotions(s.Compound, s.Positive, s.Negative, s.Neutral), nil
}

// polarityToEmotions 输出顺序即平局时的优先顺序。
func polarityToEmotions(compound, pos, neg, neu float64) []core.EmotionScore {
	up := math.Max(compound, 0)
	down := math.Max(-compound, 0)
	negShare, neuShare := 0.0, 0.0
	if neg+neu > 0 {
		negShare = neg / (neg + neu)
		neuShare = neu / (neg + neu)
	}
	return []core.EmotionScore{
		{Label: "joy", Score: clamp01(up)},
		{Label: "sadness", Score: clamp01(down)},
		{Label: "neutral", Score: clamp01(neu * (1 - math.Abs(compound)))},
		{Label: "optimism", Score: clamp01(0.8 * up)},
		{Label: "amusement", Score: clamp01(up * pos)},
		{Label: "disappointment", Score: clamp01(0.8 * down)},
		{Label: "anger", Score: clamp01(down * negShare)},
		{Label: "fear", Score: clamp01(down * neuShare)},
	}
}

func clamp01(x float64) float64 {
	return math.Min(1, math.Max(0, x))
}

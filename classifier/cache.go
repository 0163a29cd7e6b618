package classifier

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/rushteam/moodrec/core"
	"github.com/rushteam/moodrec/metrics"
)

// CachedClassifier 缓存分类器的原始输出，同一段文本不重复调用模型。
//
// key 为 prefix + 分类器名 + ":" + sha256(text)，value 为 msgpack 编码的 []EmotionScore。
// 缓存读写失败只记录日志，不影响请求；未通过 Normalize 校验的输出不写入缓存。
type CachedClassifier struct {
	inner  core.MoodClassifier
	store  core.Store
	ttl    int
	prefix string
	logger zerolog.Logger
}

var _ core.MoodClassifier = (*CachedClassifier)(nil)

// NewCachedClassifier 创建带缓存的分类器，ttl 单位为秒（<=0 不过期）。
func NewCachedClassifier(inner core.MoodClassifier, store core.Store, ttl int, logger zerolog.Logger) *CachedClassifier {
	return &CachedClassifier{
		inner:  inner,
		store:  store,
		ttl:    ttl,
		prefix: "moodrec:cls:",
		logger: logger.With().Str("component", "classifier_cache").Str("store", store.Name()).Logger(),
	}
}

// Name 沿用被包装分类器的名称，指标与日志按真实模型聚合。
func (c *CachedClassifier) Name() string { return c.inner.Name() }

func (c *CachedClassifier) Classify(ctx context.Context, text string) ([]core.EmotionScore, error) {
	key := c.Key(text)

	data, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var scores []core.EmotionScore
		uerr := msgpack.Unmarshal(data, &scores)
		if uerr == nil {
			metrics.ClassifierCache.WithLabelValues("hit").Inc()
			return scores, nil
		}
		c.logger.Warn().Err(uerr).Str("key", key).Msg("drop undecodable cache entry")
		metrics.ClassifierCache.WithLabelValues("error").Inc()
	case core.IsStoreNotFound(err):
		metrics.ClassifierCache.WithLabelValues("miss").Inc()
	default:
		c.logger.Warn().Err(err).Msg("cache get failed")
		metrics.ClassifierCache.WithLabelValues("error").Inc()
	}

	scores, err := c.inner.Classify(ctx, text)
	if err != nil {
		return nil, err
	}

	// 只缓存结构合法的输出，畸形输出留给 Adapter 报错，下次请求重新调用模型
	if _, verr := Normalize(scores, Options{}); verr != nil {
		c.logger.Debug().Err(verr).Str("key", key).Msg("skip caching malformed output")
		return scores, nil
	}
	if data, merr := msgpack.Marshal(scores); merr != nil {
		c.logger.Warn().Err(merr).Msg("cache encode failed")
	} else if serr := c.store.Set(ctx, key, data, c.ttl); serr != nil {
		c.logger.Warn().Err(serr).Msg("cache set failed")
	}
	return scores, nil
}

// Key 返回文本对应的缓存 key。
func (c *CachedClassifier) Key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return c.prefix + c.inner.Name() + ":" + hex.EncodeToString(sum[:])
}

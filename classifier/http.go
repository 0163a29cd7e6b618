package classifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/rushteam/moodrec/core"
)

// HTTPClassifier 调用远程文本分类推理服务（Hugging Face text-classification pipeline 协议）。
//
// 请求：
//
//	{"inputs": "I feel great", "parameters": {"top_k": null}}
//
// 响应（两种形态都接受）：
//
//	[[{"label": "joy", "score": 0.91}, ...]]
//	[{"label": "joy", "score": 0.91}, ...]
//
// 连续失败会触发熔断，熔断期间直接返回 UNAVAILABLE，不访问远端。
type HTTPClassifier struct {
	name     string
	Endpoint string
	Token    string
	Timeout  time.Duration
	Client   *http.Client

	breaker *gobreaker.CircuitBreaker[[]core.EmotionScore]
	logger  zerolog.Logger
}

var _ core.MoodClassifier = (*HTTPClassifier)(nil)

// HTTPOption 配置 HTTPClassifier。
type HTTPOption func(*httpSettings)

type httpSettings struct {
	name        string
	token       string
	timeout     time.Duration
	client      *http.Client
	logger      zerolog.Logger
	maxFailures uint32
	openTimeout time.Duration
}

func WithName(name string) HTTPOption { return func(s *httpSettings) { s.name = name } }

// WithToken 设置 Bearer token。
func WithToken(token string) HTTPOption { return func(s *httpSettings) { s.token = token } }

func WithTimeout(d time.Duration) HTTPOption { return func(s *httpSettings) { s.timeout = d } }

func WithHTTPClient(c *http.Client) HTTPOption { return func(s *httpSettings) { s.client = c } }

func WithLogger(l zerolog.Logger) HTTPOption { return func(s *httpSettings) { s.logger = l } }

// WithBreaker 设置熔断参数：连续失败 maxFailures 次后熔断，openTimeout 后半开探测。
func WithBreaker(maxFailures uint32, openTimeout time.Duration) HTTPOption {
	return func(s *httpSettings) {
		s.maxFailures = maxFailures
		s.openTimeout = openTimeout
	}
}

// NewHTTPClassifier 创建远程分类器。
func NewHTTPClassifier(endpoint string, opts ...HTTPOption) *HTTPClassifier {
	s := httpSettings{
		name:        "http",
		timeout:     10 * time.Second,
		logger:      zerolog.Nop(),
		maxFailures: 5,
		openTimeout: 30 * time.Second,
	}
	for _, o := range opts {
		o(&s)
	}
	if s.client == nil {
		s.client = &http.Client{Timeout: s.timeout}
	}

	c := &HTTPClassifier{
		name:     s.name,
		Endpoint: endpoint,
		Token:    s.token,
		Timeout:  s.timeout,
		Client:   s.client,
		logger:   s.logger.With().Str("component", "classifier").Str("classifier", s.name).Logger(),
	}
	maxFailures := s.maxFailures
	c.breaker = gobreaker.NewCircuitBreaker[[]core.EmotionScore](gobreaker.Settings{
		Name:        "classifier-" + s.name,
		MaxRequests: 1,
		Timeout:     s.openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// 远端有响应但格式不对不算故障
		IsSuccessful: func(err error) bool {
			return err == nil || hasCode(err, core.ErrorCodeMalformedOutput)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
	return c
}

func (c *HTTPClassifier) Name() string { return c.name }

// Classify 调用远端一次。传输失败、非 200、熔断均返回 UNAVAILABLE，响应无法解析返回 MALFORMED_OUTPUT。
func (c *HTTPClassifier) Classify(ctx context.Context, text string) ([]core.EmotionScore, error) {
	scores, err := c.breaker.Execute(func() ([]core.EmotionScore, error) {
		return c.call(ctx, text)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, core.WrapDomainError(core.ModuleClassifier, core.ErrorCodeUnavailable,
			fmt.Sprintf("classifier %s circuit open", c.name), err)
	}
	return scores, err
}

// State 返回熔断器状态，用于健康检查。
func (c *HTTPClassifier) State() string {
	return c.breaker.State().String()
}

type inferenceRequest struct {
	Inputs     string `json:"inputs"`
	Parameters struct {
		TopK *int `json:"top_k"`
	} `json:"parameters"`
}

func (c *HTTPClassifier) call(ctx context.Context, text string) ([]core.EmotionScore, error) {
	var body inferenceRequest
	body.Inputs = text
	data, err := json.Marshal(body)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleClassifier, core.ErrorCodeInternalError, "marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleClassifier, core.ErrorCodeUnavailable, "create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleClassifier, core.ErrorCodeUnavailable, "classifier call", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleClassifier, core.ErrorCodeUnavailable, "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, core.NewDomainError(core.ModuleClassifier, core.ErrorCodeUnavailable,
			fmt.Sprintf("classifier status=%d body=%s", resp.StatusCode, truncate(payload, 256)))
	}
	return decodeScores(payload)
}

// decodeScores 解析 [[...]] 或 [...] 两种响应形态。
func decodeScores(payload []byte) ([]core.EmotionScore, error) {
	var nested [][]core.EmotionScore
	if err := json.Unmarshal(payload, &nested); err == nil {
		if len(nested) == 0 {
			return nil, malformedOutput("classifier returned empty batch")
		}
		return nested[0], nil
	}
	var flat []core.EmotionScore
	if err := json.Unmarshal(payload, &flat); err != nil {
		return nil, core.WrapDomainError(core.ModuleClassifier, core.ErrorCodeMalformedOutput, "decode response", err)
	}
	return flat, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

func hasCode(err error, code string) bool {
	de := core.GetDomainError(err)
	return de != nil && de.Code == code
}

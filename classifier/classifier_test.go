package classifier

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/rushteam/moodrec/core"
	"github.com/rushteam/moodrec/store"
)

func TestNormalize(t *testing.T) {
	vocab := []string{"joy", "sadness", "neutral"}
	tests := []struct {
		name     string
		raw      []core.EmotionScore
		opts     Options
		dominant string
		length   int
		wantErr  bool
	}{
		{
			name:     "sorted descending",
			raw:      []core.EmotionScore{{Label: "sadness", Score: 0.2}, {Label: "joy", Score: 0.9}, {Label: "neutral", Score: 0.1}},
			opts:     Options{Vocabulary: vocab},
			dominant: "joy", length: 3,
		},
		{
			name:     "tie keeps first encountered",
			raw:      []core.EmotionScore{{Label: "sadness", Score: 0.5}, {Label: "joy", Score: 0.5}, {Label: "neutral", Score: 0.1}},
			opts:     Options{Vocabulary: vocab},
			dominant: "sadness", length: 3,
		},
		{
			name:     "missing labels filled",
			raw:      []core.EmotionScore{{Label: "joy", Score: 0.7}},
			opts:     Options{Vocabulary: vocab},
			dominant: "joy", length: 3,
		},
		{
			name:     "unknown label kept",
			raw:      []core.EmotionScore{{Label: "schadenfreude", Score: 0.8}, {Label: "joy", Score: 0.1}},
			opts:     Options{Vocabulary: vocab},
			dominant: "schadenfreude", length: 4,
		},
		{name: "missing label strict", raw: []core.EmotionScore{{Label: "joy", Score: 0.7}}, opts: Options{Vocabulary: vocab, RequireAll: true}, wantErr: true},
		{name: "empty", raw: nil, wantErr: true},
		{name: "empty label", raw: []core.EmotionScore{{Label: "", Score: 0.1}}, wantErr: true},
		{name: "duplicate", raw: []core.EmotionScore{{Label: "joy", Score: 0.1}, {Label: "joy", Score: 0.2}}, wantErr: true},
		{name: "nan", raw: []core.EmotionScore{{Label: "joy", Score: math.NaN()}}, wantErr: true},
		{name: "above one", raw: []core.EmotionScore{{Label: "joy", Score: 1.2}}, wantErr: true},
		{name: "negative", raw: []core.EmotionScore{{Label: "joy", Score: -0.1}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Normalize(tt.raw, tt.opts)
			if tt.wantErr {
				de := core.GetDomainError(err)
				if de == nil || de.Module != core.ModuleClassifier || de.Code != core.ErrorCodeMalformedOutput {
					t.Fatalf("error = %v, want classifier MALFORMED_OUTPUT", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if p.Dominant() != tt.dominant || len(p) != tt.length {
				t.Errorf("dominant = %q len = %d, want %q %d", p.Dominant(), len(p), tt.dominant, tt.length)
			}
			for i := 1; i < len(p); i++ {
				if p[i].Score > p[i-1].Score {
					t.Fatalf("profile not descending: %v", p)
				}
			}
		})
	}
}

func TestNormalizeDefaultVocabulary(t *testing.T) {
	p, err := Normalize([]core.EmotionScore{{Label: "grief", Score: 0.4}}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(p) != len(core.Vocabulary) || p.Intensity() != 0.4 {
		t.Errorf("len = %d intensity = %v", len(p), p.Intensity())
	}
}

func TestAdapterCallsOnce(t *testing.T) {
	var calls int32
	c := NewFunc("counting", func(context.Context, string) ([]core.EmotionScore, error) {
		atomic.AddInt32(&calls, 1)
		return []core.EmotionScore{{Label: "joy", Score: 0.9}}, nil
	})
	p, err := NewAdapter(c, Options{}).Profile(context.Background(), "happy")
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 || p.Dominant() != "joy" {
		t.Errorf("calls = %d dominant = %q", calls, p.Dominant())
	}
}

func TestAdapterWrapsErrors(t *testing.T) {
	boom := errors.New("model down")
	c := NewFunc("broken", func(context.Context, string) ([]core.EmotionScore, error) { return nil, boom })
	_, err := NewAdapter(c, Options{}).Profile(context.Background(), "x")
	if !core.IsClassifierError(err) || !core.IsUnavailable(err) || !errors.Is(err, boom) {
		t.Fatalf("error = %v", err)
	}

	_, err = (&Adapter{}).Profile(context.Background(), "x")
	if !core.IsClassifierError(err) {
		t.Fatalf("nil classifier error = %v", err)
	}
}

func TestHTTPClassifier(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
		wantTop  string
	}{
		{name: "nested", status: 200, body: `[[{"label":"joy","score":0.9},{"label":"sadness","score":0.05}]]`, wantTop: "joy"},
		{name: "flat", status: 200, body: `[{"label":"fear","score":0.6}]`, wantTop: "fear"},
		{name: "server error", status: 503, body: `{"error":"loading"}`, wantCode: core.ErrorCodeUnavailable},
		{name: "garbage", status: 200, body: `{"oops":1}`, wantCode: core.ErrorCodeMalformedOutput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("Authorization") != "Bearer secret" {
					t.Errorf("missing bearer token")
				}
				var req map[string]any
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req["inputs"] != "hello" {
					t.Errorf("unexpected request %v %v", req, err)
				}
				params, _ := req["parameters"].(map[string]any)
				if v, ok := params["top_k"]; !ok || v != nil {
					t.Errorf("top_k should be null, got %v", params)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewHTTPClassifier(srv.URL, WithToken("secret"), WithTimeout(time.Second))
			got, err := c.Classify(context.Background(), "hello")
			if tt.wantCode != "" {
				de := core.GetDomainError(err)
				if de == nil || de.Code != tt.wantCode || de.Module != core.ModuleClassifier {
					t.Fatalf("error = %v, want %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if got[0].Label != tt.wantTop {
				t.Errorf("first label = %q", got[0].Label)
			}
		})
	}
}

func TestHTTPClassifierBreakerOpens(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewHTTPClassifier(srv.URL, WithName("flaky"), WithBreaker(2, time.Minute))
	for i := 0; i < 4; i++ {
		_, err := c.Classify(context.Background(), "x")
		if !core.IsUnavailable(err) {
			t.Fatalf("call %d error = %v", i, err)
		}
	}
	if hits != 2 {
		t.Errorf("server hits = %d, want 2 before breaker opens", hits)
	}
	if c.State() != "open" {
		t.Errorf("State() = %q", c.State())
	}
}

func TestLexiconClassifier(t *testing.T) {
	c := NewLexiconClassifier()
	tests := []struct {
		text string
		want string
	}{
		{text: "I love this wonderful, happy day!", want: "joy"},
		{text: "I am so sad and miserable, everything is terrible.", want: "sadness"},
		{text: "The book is on the table.", want: "neutral"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			raw, err := c.Classify(context.Background(), tt.text)
			if err != nil {
				t.Fatal(err)
			}
			p, err := Normalize(raw, Options{})
			if err != nil {
				t.Fatalf("lexicon output rejected: %v", err)
			}
			if p.Dominant() != tt.want {
				t.Errorf("dominant = %q, want %q (%v)", p.Dominant(), tt.want, raw)
			}
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Classify(ctx, "x"); !core.IsClassifierError(err) {
		t.Errorf("cancelled ctx error = %v", err)
	}
}

func TestPolarityToEmotionsInRange(t *testing.T) {
	for _, c := range []float64{-1, -0.5, 0, 0.3, 1} {
		for _, s := range polarityToEmotions(c, 0.4, 0.3, 0.3) {
			if s.Score < 0 || s.Score > 1 {
				t.Errorf("compound %v: %s = %v", c, s.Label, s.Score)
			}
		}
	}
}

func TestCachedClassifier(t *testing.T) {
	var calls int32
	inner := NewFunc("model", func(_ context.Context, text string) ([]core.EmotionScore, error) {
		atomic.AddInt32(&calls, 1)
		if strings.Contains(text, "fail") {
			return nil, errors.New("down")
		}
		return []core.EmotionScore{{Label: "joy", Score: 0.8}, {Label: "love", Score: 0.3}}, nil
	})
	mem := store.NewMemoryStore()
	defer mem.Close()
	c := NewCachedClassifier(inner, mem, 60, zerolog.Nop())

	if c.Name() != "model" {
		t.Errorf("Name() = %q", c.Name())
	}
	for i := 0; i < 3; i++ {
		got, err := c.Classify(context.Background(), "sunny")
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 || got[0].Label != "joy" || got[1].Score != 0.3 {
			t.Fatalf("round %d: %v", i, got)
		}
	}
	if calls != 1 {
		t.Errorf("inner calls = %d, want 1", calls)
	}

	if _, err := c.Classify(context.Background(), "fail"); err == nil {
		t.Error("inner error should propagate")
	}
	if _, err := mem.Get(context.Background(), c.Key("fail")); !core.IsStoreNotFound(err) {
		t.Error("failed classification must not be cached")
	}

	// 损坏的缓存条目被忽略并覆盖
	_ = mem.Set(context.Background(), c.Key("rain"), []byte{0xc1})
	if _, err := c.Classify(context.Background(), "rain"); err != nil {
		t.Fatalf("corrupt entry: %v", err)
	}
}

func TestCachedClassifierSkipsMalformedOutput(t *testing.T) {
	tests := map[string][]core.EmotionScore{
		"nan":       {{Label: "joy", Score: math.NaN()}},
		"range":     {{Label: "joy", Score: 1.5}},
		"duplicate": {{Label: "joy", Score: 0.4}, {Label: "joy", Score: 0.2}},
		"empty":     {},
	}
	for name, out := range tests {
		t.Run(name, func(t *testing.T) {
			var calls int32
			inner := NewFunc("model", func(context.Context, string) ([]core.EmotionScore, error) {
				atomic.AddInt32(&calls, 1)
				return out, nil
			})
			mem := store.NewMemoryStore()
			defer mem.Close()
			c := NewCachedClassifier(inner, mem, 60, zerolog.Nop())

			for i := 0; i < 2; i++ {
				if _, err := c.Classify(context.Background(), "gloomy"); err != nil {
					t.Fatalf("Classify() error = %v", err)
				}
			}
			if calls != 2 {
				t.Errorf("inner calls = %d, want 2", calls)
			}
			if _, err := mem.Get(context.Background(), c.Key("gloomy")); !core.IsStoreNotFound(err) {
				t.Errorf("malformed output was cached: %v", err)
			}

			a := NewAdapter(c, Options{})
			if _, err := a.Profile(context.Background(), "gloomy"); !core.IsClassifierError(err) {
				t.Errorf("Profile() error = %v, want classifier error", err)
			}
		})
	}
}

func TestCachedClassifierStoreFailure(t *testing.T) {
	inner := Static(core.EmotionScore{Label: "joy", Score: 0.5})
	c := NewCachedClassifier(inner, failingStore{}, 0, zerolog.Nop())
	got, err := c.Classify(context.Background(), "x")
	if err != nil || len(got) != 1 {
		t.Fatalf("Classify() = %v, %v", got, err)
	}
}

type failingStore struct{}

func (failingStore) Name() string { return "failing" }
func (failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}
func (failingStore) Set(context.Context, string, []byte, ...int) error {
	return errors.New("connection refused")
}
func (failingStore) Delete(context.Context, string) error { return nil }
func (failingStore) Close() error                         { return nil }

func TestNewFromConfig(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		wantName string
		wantErr  bool
	}{
		{name: "default lexicon", cfg: Config{}, wantName: "lexicon"},
		{name: "lexicon", cfg: Config{Kind: KindLexicon}, wantName: "lexicon"},
		{name: "http", cfg: Config{Kind: KindHTTP, Endpoint: "http://localhost:9000", BreakerFailures: 3}, wantName: "http"},
		{name: "http without endpoint", cfg: Config{Kind: KindHTTP}, wantErr: true},
		{name: "unknown", cfg: Config{Kind: "bert"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg, zerolog.Nop())
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if c.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", c.Name(), tt.wantName)
			}
		})
	}
}

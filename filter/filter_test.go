package filter

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/rushteam/moodrec/core"
)

func items(titles ...string) []*core.Item {
	out := make([]*core.Item, 0, len(titles))
	for i, t := range titles {
		it := core.NewItem(i, t)
		it.Score = float64(i) / 10
		it.Features["grief"] = float64(i) / 4
		out = append(out, it)
	}
	return out
}

func titles(items []*core.Item) string {
	s := make([]string, 0, len(items))
	for _, it := range items {
		s = append(s, it.Title)
	}
	return strings.Join(s, ",")
}

func TestTitleBlacklist(t *testing.T) {
	f := NewTitleBlacklist([]string{" dune "})
	tests := []struct {
		name   string
		params map[string]any
		want   string
	}{
		{name: "config only", want: "Emma,Ulysses"},
		{name: "param strings", params: map[string]any{"exclude_titles": []string{"EMMA"}}, want: "Ulysses"},
		{name: "param any", params: map[string]any{"exclude_titles": []any{"ulysses"}}, want: "Emma"},
		{name: "param wrong type", params: map[string]any{"exclude_titles": "Emma"}, want: "Emma,Ulysses"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := &FilterNode{Filters: []Filter{f}}
			out, err := node.Process(context.Background(), &core.RecommendContext{Params: tt.params}, items("Dune", "Emma", "Ulysses"))
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if got := titles(out); got != tt.want {
				t.Errorf("kept %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExprFilter(t *testing.T) {
	tests := []struct {
		expr string
		keep bool
		want string
	}{
		{expr: `item.features.grief > 0.3`, want: "a,b"},
		{expr: `item.features.grief > 0.3`, keep: true, want: "c,d"},
		{expr: `item.title == "b" || rctx.main_category == "negative"`, want: "a,c,d"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			f, err := NewExprFilter(tt.expr, tt.keep)
			if err != nil {
				t.Fatalf("NewExprFilter() error = %v", err)
			}
			if f.Expr() != tt.expr {
				t.Errorf("Expr() = %q", f.Expr())
			}
			node := &FilterNode{Filters: []Filter{f}}
			out, _ := node.Process(context.Background(), &core.RecommendContext{MainCategory: "positive"}, items("a", "b", "c", "d"))
			if got := titles(out); got != tt.want {
				t.Errorf("kept %q, want %q", got, tt.want)
			}
		})
	}
	if _, err := NewExprFilter(`item.score >`, false); err == nil {
		t.Error("expected compile error")
	}
}

func TestFilterNodeErrorKeepsItem(t *testing.T) {
	f, err := NewExprFilter(`item.meta.language == "en"`, false)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	node := &FilterNode{Filters: []Filter{f}, Logger: &logger}
	out, err := node.Process(context.Background(), &core.RecommendContext{RequestID: "r1"}, items("a", "b"))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 2 {
		t.Errorf("len = %d, want 2", len(out))
	}
	if !strings.Contains(buf.String(), `"filter":"filter.expr"`) || !strings.Contains(buf.String(), `"request_id":"r1"`) {
		t.Errorf("missing warn log: %s", buf.String())
	}
}

func TestFuncChain(t *testing.T) {
	calls := 0
	short := Func{FilterName: "short", Fn: func(_ context.Context, _ *core.RecommendContext, it *core.Item) (bool, error) {
		calls++
		return len(it.Title) <= 4, nil
	}}
	node := &FilterNode{Filters: []Filter{NewTitleBlacklist([]string{"Ulysses"}), short, Func{}}}

	out, err := node.Process(context.Background(), &core.RecommendContext{}, items("Dune", "Emma", "Ulysses", "Middlemarch"))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if got := titles(out); got != "Middlemarch" {
		t.Errorf("kept %q", got)
	}
	// 黑名单命中后不再调用后续过滤器
	if calls != 3 {
		t.Errorf("short filter calls = %d, want 3", calls)
	}
	if (Func{}).Name() != "filter.func" {
		t.Errorf("default name = %q", Func{}.Name())
	}
}

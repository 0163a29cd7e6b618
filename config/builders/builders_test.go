package builders

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rushteam/moodrec/config"
	"github.com/rushteam/moodrec/filter"
	"github.com/rushteam/moodrec/rerank"
)

func TestRegistered(t *testing.T) {
	want := []string{"filter", "recall.emotion", "rerank.allocate", "rerank.topn"}
	got := config.SupportedTypes()
	if len(got) != len(want) {
		t.Fatalf("SupportedTypes() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SupportedTypes()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBuildFilterNode(t *testing.T) {
	tests := []struct {
		name    string
		cfg     map[string]any
		filters int
		wantErr bool
	}{
		{
			name: "both",
			cfg: map[string]any{"filters": []any{
				map[string]any{"type": "title_blacklist", "titles": []any{"Dune"}},
				map[string]any{"type": "expr", "expr": "item.score < 0.01"},
			}},
			filters: 2,
		},
		{name: "missing filters", cfg: map[string]any{}, wantErr: true},
		{name: "bad expr", cfg: map[string]any{"filters": []any{map[string]any{"type": "expr", "expr": "item.score <"}}}, wantErr: true},
		{name: "empty expr", cfg: map[string]any{"filters": []any{map[string]any{"type": "expr"}}}, wantErr: true},
		{name: "unknown type", cfg: map[string]any{"filters": []any{map[string]any{"type": "bloom"}}}, wantErr: true},
		{name: "not a mapping", cfg: map[string]any{"filters": []any{"title_blacklist"}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := BuildFilterNode(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildFilterNode() error = %v", err)
			}
			if n := len(node.(*filter.FilterNode).Filters); n != tt.filters {
				t.Errorf("filters = %d, want %d", n, tt.filters)
			}
		})
	}
}

func TestLoadPipeline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	yml := `
pipeline:
  name: with-filters
  nodes:
    - type: recall.emotion
    - type: filter
      config:
        filters:
          - type: title_blacklist
            titles: [Dune]
    - type: rerank.allocate
    - type: rerank.topn
      config:
        use_total: true
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := config.LoadPipeline(path)
	if err != nil {
		t.Fatalf("LoadPipeline() error = %v", err)
	}
	got := p.Describe()
	want := []string{"recall:recall.emotion", "filter:filter", "rerank:rerank.allocate", "rerank:rerank.topn"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("node %d = %q, want %q", i, got[i], want[i])
		}
	}
	if !p.Nodes[3].(*rerank.TopNNode).UseTotal {
		t.Error("use_total not applied")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	_ = os.WriteFile(bad, []byte("pipeline:\n  nodes:\n    - type: rank.lr\n"), 0o644)
	if _, err := config.LoadPipeline(bad); err == nil {
		t.Error("expected unsupported node type error")
	}
}

func TestSamplePipelineConfig(t *testing.T) {
	p, err := config.LoadPipeline(filepath.Join("..", "..", "configs", "pipeline.yaml"))
	if err != nil {
		t.Fatalf("LoadPipeline() error = %v", err)
	}
	if len(p.Nodes) != 3 {
		t.Fatalf("nodes = %v", p.Describe())
	}
	fn, ok := p.Nodes[1].(*filter.FilterNode)
	if !ok || len(fn.Filters) != 2 {
		t.Fatalf("filter node = %#v", p.Nodes[1])
	}
}

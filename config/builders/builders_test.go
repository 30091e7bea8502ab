package builders

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rushteam/melorank/config"
	"github.com/rushteam/melorank/core"
	"github.com/rushteam/melorank/pipeline"
)

const similarYAML = `
pipeline:
  name: similar-songs
  nodes:
    - type: filter.exclude
      config:
        ids: [4]
    - type: filter.expr
      config:
        expr: '!song.explicit'
    - type: recall.content
    - type: rerank.topn
      config:
        n: 2
`

func TestSupportedTypes(t *testing.T) {
	got := config.SupportedTypes()
	want := []string{"filter.exclude", "filter.expr", "recall.content", "rerank.topn"}
	if len(got) != len(want) {
		t.Fatalf("SupportedTypes() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SupportedTypes()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestLoadPipeline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(path, []byte(similarYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	p, err := config.LoadPipeline(path)
	if err != nil {
		t.Fatalf("LoadPipeline() error = %v", err)
	}

	ref := &core.SongFeatures{ID: 1, Genres: []string{"pop"}, Speed: "fast"}
	songs := []*core.SongFeatures{
		ref,
		{ID: 2, Genres: []string{"pop"}, Speed: "fast"},
		{ID: 3, Genres: []string{"pop"}, Speed: "fast", Explicit: true},
		{ID: 4, Genres: []string{"pop"}, Speed: "fast"},
		{ID: 5, Genres: []string{"pop"}},
		{ID: 6, Genres: []string{"jazz"}},
	}
	items := make([]*core.ScoredCandidate, 0, len(songs))
	for _, s := range songs {
		items = append(items, core.NewScoredCandidate(s))
	}

	out, err := p.Run(context.Background(), &core.RecommendContext{Reference: ref}, items)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	// 1 是参考歌曲，3 是 explicit，4 在排除列表
	want := []int64{2, 5}
	if len(out) != len(want) {
		t.Fatalf("Run() returned %d items, want %d", len(out), len(want))
	}
	for i, id := range want {
		if out[i].ID() != id {
			t.Errorf("out[%d] = %d, want %d", i, out[i].ID(), id)
		}
	}
}

func TestValidatePipelineConfig_Unknown(t *testing.T) {
	cfg, err := pipeline.ParseYAML([]byte("pipeline:\n  nodes:\n    - type: rank.lr\n"))
	if err != nil {
		t.Fatal(err)
	}
	if err := config.ValidatePipelineConfig(cfg); err == nil {
		t.Error("unknown node type should be rejected")
	}
}

func TestBuilders_Errors(t *testing.T) {
	if _, err := BuildExprFilterNode(map[string]any{}); err == nil {
		t.Error("filter.expr without expr should fail")
	}
	if _, err := BuildExprFilterNode(map[string]any{"expr": "song.speed =="}); err == nil {
		t.Error("invalid expression should fail")
	}
	if _, err := BuildTopNNode(map[string]any{"n": -1}); err == nil {
		t.Error("negative n should fail")
	}
}

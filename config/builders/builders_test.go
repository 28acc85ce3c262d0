package builders

import (
	"context"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/rushteam/bookrec/config"
	"github.com/rushteam/bookrec/engine"
	"github.com/rushteam/bookrec/filter"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/recall"
	"github.com/rushteam/bookrec/rerank"
	"github.com/rushteam/bookrec/store"
)

func seededEngine(t *testing.T) *engine.Engine {
	t.Helper()
	kv := store.NewMemoryStore()
	t.Cleanup(func() { _ = kv.Close() })
	c := store.NewCatalogAdapter(kv, "")
	if _, err := store.Seed(context.Background(), c, 42); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	e, err := engine.New(c, engine.Config{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("engine.New() error = %v", err)
	}
	return e
}

func TestBuildersRegistered(t *testing.T) {
	supported := make(map[string]bool)
	for _, typ := range config.SupportedTypes() {
		supported[typ] = true
	}
	for _, typ := range []string{"filter", "filter.rated", "filter.expr", "filter.blacklist", "rerank.topn", "rerank.diversity"} {
		if !supported[typ] {
			t.Errorf("%s not registered", typ)
		}
	}
}

func TestBuildHybridNode(t *testing.T) {
	cfg := engine.DefaultConfig()
	tests := []struct {
		name    string
		c       map[string]interface{}
		wantErr bool
		weights []float64
	}{
		{name: "default alpha", c: map[string]interface{}{}, weights: []float64{0.5, 0.5}},
		{name: "explicit alpha", c: map[string]interface{}{"alpha": 0.75, "timeout": 1, "max_concurrent": 1}, weights: []float64{0.75, 0.25}},
		{name: "integer alpha", c: map[string]interface{}{"alpha": 1}, weights: []float64{1, 0}},
		{name: "alpha out of range", c: map[string]interface{}{"alpha": 1.5}, wantErr: true},
		{name: "alpha not a number", c: map[string]interface{}{"alpha": "high"}, wantErr: true},
		{name: "alpha NaN", c: map[string]interface{}{"alpha": math.NaN()}, wantErr: true},
		{name: "unknown merge strategy", c: map[string]interface{}{"merge_strategy": "average"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := BuildHybridNode(seededEngine(t).Live(), cfg, tt.c)
			if tt.wantErr {
				if err == nil {
					t.Fatal("BuildHybridNode() should fail")
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildHybridNode() error = %v", err)
			}
			fanout, ok := node.(*recall.Fanout)
			if !ok {
				t.Fatalf("node is %T, want *recall.Fanout", node)
			}
			strategy := fanout.MergeStrategy.(*recall.RankPositionMergeStrategy)
			for i, w := range tt.weights {
				if strategy.Weights[i] != w {
					t.Errorf("Weights = %v, want %v", strategy.Weights, tt.weights)
				}
			}
		})
	}
}

func TestHybridMergeStrategyFromYAML(t *testing.T) {
	ctx := context.Background()
	e := seededEngine(t)
	RegisterEngine(e)
	if _, err := e.Model(ctx); err != nil {
		t.Fatalf("Model() error = %v", err)
	}

	tests := []struct {
		strategy string
		want     string
	}{
		{strategy: "", want: "*recall.RankPositionMergeStrategy"},
		{strategy: "rank_position", want: "*recall.RankPositionMergeStrategy"},
		{strategy: "first", want: "*recall.FirstMergeStrategy"},
		{strategy: "union", want: "*recall.UnionMergeStrategy"},
		{strategy: "priority", want: "*recall.PriorityMergeStrategy"},
	}
	for _, tt := range tests {
		t.Run("strategy "+tt.strategy, func(t *testing.T) {
			doc := "pipeline:\n  nodes:\n    - type: recall.hybrid\n      config:\n        alpha: 0.6\n"
			if tt.strategy != "" {
				doc += "        merge_strategy: " + tt.strategy + "\n"
			}
			doc += "    - type: filter.rated\n    - type: rerank.topn\n      config:\n        n: 5\n"
			pcfg, err := pipeline.Parse([]byte(doc), "yaml")
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			p, err := pcfg.BuildPipeline(config.DefaultFactory())
			if err != nil {
				t.Fatalf("BuildPipeline() error = %v", err)
			}
			fanout := p.Nodes[0].(*recall.Fanout)
			if got := reflect.TypeOf(fanout.MergeStrategy).String(); got != tt.want {
				t.Errorf("MergeStrategy = %s, want %s", got, tt.want)
			}

			for _, u := range store.SampleUsers() {
				books, err := e.Recommend(ctx, u.ID, p, nil)
				if err != nil {
					t.Fatalf("Recommend(%s) error = %v", u.ID, err)
				}
				if len(books) > 5 {
					t.Errorf("Recommend(%s) returned %d books", u.ID, len(books))
				}
			}
		})
	}
}

func TestBuildFilterNode(t *testing.T) {
	tests := []struct {
		name    string
		c       map[string]interface{}
		want    int
		wantErr bool
	}{
		{
			name: "all filter types",
			c: map[string]interface{}{"filters": []interface{}{
				map[string]interface{}{"type": "rated"},
				map[string]interface{}{"type": "expr", "expr": `book.genre == "Horror"`},
				map[string]interface{}{"type": "blacklist", "book_ids": []interface{}{"b1", "b2"}},
			}},
			want: 3,
		},
		{name: "missing filters", c: map[string]interface{}{}, wantErr: true},
		{
			name:    "unknown type",
			c:       map[string]interface{}{"filters": []interface{}{map[string]interface{}{"type": "mystery"}}},
			wantErr: true,
		},
		{
			name:    "expr without expression",
			c:       map[string]interface{}{"filters": []interface{}{map[string]interface{}{"type": "expr"}}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := BuildFilterNode(tt.c)
			if tt.wantErr {
				if err == nil {
					t.Fatal("BuildFilterNode() should fail")
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildFilterNode() error = %v", err)
			}
			if got := len(node.(*filter.FilterNode).Filters); got != tt.want {
				t.Errorf("got %d filters, want %d", got, tt.want)
			}
		})
	}
}

func TestBuildRerankNodes(t *testing.T) {
	node, err := BuildTopNNode(map[string]interface{}{"n": 7})
	if err != nil || node.(*rerank.TopNNode).N != 7 {
		t.Errorf("BuildTopNNode() = %+v, %v", node, err)
	}
	node, err = BuildDiversityNode(map[string]interface{}{"key": "", "max_per_group": 2, "drop_overflow": true})
	if err != nil {
		t.Fatalf("BuildDiversityNode() error = %v", err)
	}
	d := node.(*rerank.Diversity)
	if d.Key != "genre" || d.MaxPerGroup != 2 || !d.DropOverflow {
		t.Errorf("Diversity = %+v", d)
	}
}

func TestPipelineFromYAML(t *testing.T) {
	ctx := context.Background()
	e := seededEngine(t)
	RegisterEngine(e)

	p, err := config.LoadPipeline("../../configs/pipeline.yaml")
	if err != nil {
		t.Fatalf("LoadPipeline() error = %v", err)
	}
	if len(p.Nodes) != 5 {
		t.Fatalf("got %d nodes, want 5", len(p.Nodes))
	}
	if _, err := e.Model(ctx); err != nil {
		t.Fatalf("Model() error = %v", err)
	}

	for _, u := range store.SampleUsers() {
		books, err := e.Recommend(ctx, u.ID, p, nil)
		if err != nil {
			t.Fatalf("Recommend(%s) error = %v", u.ID, err)
		}
		if len(books) > 10 {
			t.Errorf("Recommend(%s) returned %d books", u.ID, len(books))
		}
		rated, _ := e.Source().RatingsForUser(ctx, u.ID, 0)
		for _, b := range books {
			if b.Year < 1800 {
				t.Errorf("expr filter let %s (%d) through", b.ID, b.Year)
			}
			for _, r := range rated {
				if r.BookID == b.ID {
					t.Errorf("Recommend(%s) returned rated book %s", u.ID, b.ID)
				}
			}
		}
	}
}

func TestUnknownNodeType(t *testing.T) {
	pcfg, err := pipeline.Parse([]byte("pipeline:\n  nodes:\n    - type: recall.mystery\n"), "yaml")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	_, err = pcfg.BuildPipeline(config.DefaultFactory())
	if err == nil {
		t.Fatal("BuildPipeline() should reject unknown node types")
	}
	if !strings.Contains(err.Error(), "rerank.topn") {
		t.Errorf("error should list supported types: %v", err)
	}
}

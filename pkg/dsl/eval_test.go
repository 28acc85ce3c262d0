package dsl

import (
	"testing"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pkg/utils"
)

func testItem() *core.Item {
	it := core.NewItem("b3")
	it.Score = 0.42
	it.PutFeature("fusion_score", 0.42)
	it.PutLabel("recall_source", utils.Label{Value: "cf|content", Source: "recall"})
	it.PutBookMeta(&core.Book{ID: "b3", Title: "1984", Author: "Orwell", Genre: "Science Fiction", Year: 1949, AverageRating: 4.5})
	return it
}

func TestProgramEval(t *testing.T) {
	rctx := &core.RecommendContext{UserID: "u1", Scene: "hybrid", Params: map[string]any{"alpha": 0.7}}
	tests := []struct {
		name string
		expr string
		want bool
	}{
		{name: "genre match", expr: `book.genre == "Science Fiction"`, want: true},
		{name: "year compare", expr: `book.year < 1900`, want: false},
		{name: "average rating", expr: `book.average_rating >= 4.0`, want: true},
		{name: "label shorthand", expr: `label.recall_source.contains("content")`, want: true},
		{name: "label presence", expr: `"filtered" in label`, want: false},
		{name: "item fields", expr: `item.id == "b3" && item.score > 0.4`, want: true},
		{name: "features", expr: `item.features.fusion_score < 0.5`, want: true},
		{name: "request context", expr: `rctx.user_id == "u1" && rctx.params.alpha > 0.5`, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.expr)
			if err != nil {
				t.Fatalf("Compile(%q) error = %v", tt.expr, err)
			}
			got, err := p.Eval(testItem(), rctx)
			if err != nil {
				t.Fatalf("Eval(%q) error = %v", tt.expr, err)
			}
			if got != tt.want {
				t.Errorf("Eval(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{name: "syntax error", expr: `book.genre ==`},
		{name: "non boolean", expr: `1 + 2`},
		{name: "unknown variable", expr: `user.age > 3`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Compile(tt.expr); err == nil {
				t.Errorf("Compile(%q) should fail", tt.expr)
			}
		})
	}
}

func TestCompileCaches(t *testing.T) {
	a, err := Compile(`book.year > 2000`)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	b, _ := Compile(`book.year > 2000`)
	if a != b {
		t.Error("same expression compiled twice")
	}
	if a.String() != `book.year > 2000` {
		t.Errorf("String() = %q", a.String())
	}
}

func TestEvalMissingLabel(t *testing.T) {
	p, err := Compile(`label.missing == "x"`)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if _, err := p.Eval(testItem(), nil); err == nil {
		t.Error("missing label key should be an eval error")
	}
}

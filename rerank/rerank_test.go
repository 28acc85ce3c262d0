package rerank

import (
	"context"
	"reflect"
	"testing"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pkg/utils"
)

func books(pairs ...string) []*core.Item {
	out := make([]*core.Item, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		it := core.NewItem(pairs[i])
		if pairs[i+1] != "" {
			it.Meta = map[string]any{"genre": pairs[i+1]}
		}
		out = append(out, it)
	}
	return out
}

func ids(items []*core.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestTopNNode(t *testing.T) {
	tests := []struct {
		name   string
		n      int
		params map[string]any
		want   []string
	}{
		{name: "truncates", n: 2, want: []string{"a", "b"}},
		{name: "shorter than n", n: 10, want: []string{"a", "b", "c"}},
		{name: "zero keeps all", n: 0, want: []string{"a", "b", "c"}},
		{name: "param overrides", n: 3, params: map[string]any{"n": 1}, want: []string{"a"}},
		{name: "non-positive param ignored", n: 2, params: map[string]any{"n": 0}, want: []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := &TopNNode{N: tt.n}
			got, err := node.Process(context.Background(), &core.RecommendContext{Params: tt.params}, books("a", "", "b", "", "c", ""))
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if !reflect.DeepEqual(ids(got), tt.want) {
				t.Errorf("Process() = %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestDiversity(t *testing.T) {
	in := func() []*core.Item {
		return books(
			"b1", "Fantasy",
			"b2", "Fantasy",
			"b3", "Romance",
			"b4", "",
			"b5", "Fantasy",
			"b6", "Romance",
		)
	}
	tests := []struct {
		name string
		node *Diversity
		want []string
	}{
		{name: "defaults push overflow to the end", node: &Diversity{}, want: []string{"b1", "b3", "b4", "b2", "b5", "b6"}},
		{name: "two per genre", node: &Diversity{MaxPerGroup: 2}, want: []string{"b1", "b2", "b3", "b4", "b6", "b5"}},
		{name: "drop overflow", node: &Diversity{DropOverflow: true}, want: []string{"b1", "b3", "b4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.node.Process(context.Background(), nil, in())
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if !reflect.DeepEqual(ids(got), tt.want) {
				t.Errorf("Process() = %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestDiversityPrefersLabel(t *testing.T) {
	items := books("b1", "Fantasy", "b2", "Fantasy")
	items[1].PutLabel("genre", utils.Label{Value: "Classics", Source: "feature"})

	got, err := (&Diversity{DropOverflow: true}).Process(context.Background(), nil, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if want := []string{"b1", "b2"}; !reflect.DeepEqual(ids(got), want) {
		t.Errorf("Process() = %v, want %v", ids(got), want)
	}
}

package engine

import (
	"math"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/floats"
)

func TestVectorizerFitTransform(t *testing.T) {
	docs := []string{
		"space dystopia future",
		"space dystopia robots",
		"romance countryside",
	}
	v := NewVectorizer(100)
	vectors := v.FitTransform(docs)

	wantVocab := []string{"countryside", "dystopia", "future", "robots", "romance", "space"}
	if !reflect.DeepEqual(v.Vocabulary(), wantVocab) {
		t.Fatalf("Vocabulary() = %v, want %v", v.Vocabulary(), wantVocab)
	}
	if len(vectors) != len(docs) {
		t.Fatalf("got %d vectors, want %d", len(vectors), len(docs))
	}
	for i, vec := range vectors {
		if got := floats.Norm(vec, 2); math.Abs(got-1) > 1e-9 {
			t.Errorf("vector %d norm = %v, want 1", i, got)
		}
	}

	sim := ItemSimilarity(vectors)
	if got := sim.At(0, 2); got != 0 {
		t.Errorf("sim(A, C) = %v, want 0", got)
	}
	if got := sim.At(1, 2); got != 0 {
		t.Errorf("sim(B, C) = %v, want 0", got)
	}
	if got := sim.At(0, 1); got <= 0 {
		t.Errorf("sim(A, B) = %v, want > 0", got)
	}

	// "dystopia" 出现在两篇文档中，idf 小于只出现一次的 "future"
	dystopia, future := 1, 2
	if vectors[0][dystopia] >= vectors[0][future] {
		t.Errorf("shared term weight %v should be below rare term weight %v", vectors[0][dystopia], vectors[0][future])
	}
}

func TestVectorizerMaxFeatures(t *testing.T) {
	docs := []string{
		"magic magic magic dragons",
		"magic wizards dragons",
		"zebra",
	}
	tests := []struct {
		name        string
		maxFeatures int
		want        []string
	}{
		{name: "keeps most frequent", maxFeatures: 1, want: []string{"magic"}},
		{name: "ties broken alphabetically then sorted", maxFeatures: 3, want: []string{"dragons", "magic", "wizards"}},
		{name: "larger than corpus", maxFeatures: 10, want: []string{"dragons", "magic", "wizards", "zebra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewVectorizer(tt.maxFeatures)
			vectors := v.FitTransform(docs)
			if !reflect.DeepEqual(v.Vocabulary(), tt.want) {
				t.Errorf("Vocabulary() = %v, want %v", v.Vocabulary(), tt.want)
			}
			for i, vec := range vectors {
				if len(vec) != len(tt.want) {
					t.Errorf("vector %d has %d columns, want %d", i, len(vec), len(tt.want))
				}
			}
		})
	}
}

func TestVectorizerEmptyDocuments(t *testing.T) {
	tests := []struct {
		name string
		docs []string
	}{
		{name: "stop words only", docs: []string{"the and of", "a an"}},
		{name: "empty strings", docs: []string{"", ""}},
		{name: "no documents", docs: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewVectorizer(0)
			if v.MaxFeatures != 100 {
				t.Fatalf("MaxFeatures = %d, want default 100", v.MaxFeatures)
			}
			vectors := v.FitTransform(tt.docs)
			if len(v.Vocabulary()) != 0 {
				t.Errorf("Vocabulary() = %v, want empty", v.Vocabulary())
			}
			if len(vectors) != len(tt.docs) {
				t.Fatalf("got %d vectors, want %d", len(vectors), len(tt.docs))
			}
			sim := ItemSimilarity(vectors)
			for i := 0; i < sim.Len(); i++ {
				for j := 0; j < sim.Len(); j++ {
					if sim.At(i, j) != 0 {
						t.Errorf("sim(%d, %d) = %v, want 0", i, j, sim.At(i, j))
					}
				}
			}
		})
	}
}

func TestVectorizerEmptyDocumentAmongOthers(t *testing.T) {
	v := NewVectorizer(100)
	vectors := v.FitTransform([]string{"space opera", "", "space robots"})
	for j, x := range vectors[1] {
		if x != 0 {
			t.Errorf("empty document column %d = %v, want 0", j, x)
		}
	}
	sim := ItemSimilarity(vectors)
	if sim.At(1, 1) != 0 {
		t.Errorf("self similarity of zero vector = %v, want 0", sim.At(1, 1))
	}
	if sim.At(0, 2) <= 0 {
		t.Errorf("sim(0, 2) = %v, want > 0", sim.At(0, 2))
	}
}

package utils

import "testing"

func TestMergeLabel(t *testing.T) {
	tests := []struct {
		name     string
		existing Label
		incoming Label
		want     Label
	}{
		{
			name:     "empty existing",
			incoming: Label{Value: "cf", Source: "recall"},
			want:     Label{Value: "cf", Source: "recall"},
		},
		{
			name:     "empty incoming",
			existing: Label{Value: "cf", Source: "recall"},
			want:     Label{Value: "cf", Source: "recall"},
		},
		{
			name:     "accumulate",
			existing: Label{Value: "cf", Source: "recall"},
			incoming: Label{Value: "content", Source: "recall"},
			want:     Label{Value: "cf|content", Source: "recall"},
		},
		{
			name:     "duplicate value kept once",
			existing: Label{Value: "cf|content", Source: "recall"},
			incoming: Label{Value: "cf", Source: "rule"},
			want:     Label{Value: "cf|content", Source: "recall,rule"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MergeLabel(tt.existing, tt.incoming); got != tt.want {
				t.Errorf("MergeLabel = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLabelHas(t *testing.T) {
	l := Label{Value: "cf|content"}
	if !l.Has("content") || !l.Has("cf") {
		t.Errorf("Has: %v", l.Values())
	}
	if l.Has("c") {
		t.Error("Has matched a prefix")
	}
	if (Label{}).Values() != nil {
		t.Error("empty label should have no values")
	}
}

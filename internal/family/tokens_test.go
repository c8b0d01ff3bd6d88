package family

import (
	"slices"
	"testing"
)

func TestWithoutTokens(t *testing.T) {
	tests := []struct {
		name        string
		stored      interface{}
		failed      []string
		wantKept    []string
		wantRemoved int
	}{
		{
			name:        "malformed items without failures leave nothing to rewrite",
			stored:      []interface{}{"a", 42, nil, "b"},
			failed:      []string{"zzz"},
			wantKept:    []string{"a", "b"},
			wantRemoved: 0,
		},
		{
			name:        "failed tokens removed in order",
			stored:      []interface{}{"a", "bad1", "b", "bad2", "c"},
			failed:      []string{"bad1", "bad2"},
			wantKept:    []string{"a", "b", "c"},
			wantRemoved: 2,
		},
		{
			name:        "duplicate failed entries each count",
			stored:      []interface{}{"bad", "a", "bad"},
			failed:      []string{"bad"},
			wantKept:    []string{"a"},
			wantRemoved: 2,
		},
		{
			name:        "mixed malformed and failed",
			stored:      []interface{}{map[string]interface{}{}, "bad", "a"},
			failed:      []string{"bad"},
			wantKept:    []string{"a"},
			wantRemoved: 1,
		},
		{
			name:        "field is not an array",
			stored:      "a",
			failed:      []string{"a"},
			wantRemoved: 0,
		},
		{
			name:        "missing field",
			failed:      []string{"a"},
			wantRemoved: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failed := make(map[string]struct{}, len(tt.failed))
			for _, tok := range tt.failed {
				failed[tok] = struct{}{}
			}
			kept, removed := withoutTokens(tt.stored, failed)
			if removed != tt.wantRemoved {
				t.Errorf("removed = %d, want %d", removed, tt.wantRemoved)
			}
			if len(kept) != len(tt.wantKept) || !slices.Equal(kept, tt.wantKept) {
				t.Errorf("kept = %v, want %v", kept, tt.wantKept)
			}
		})
	}
}

func TestValidTrims(t *testing.T) {
	got := validTrims(map[string][]string{
		"user-1":    {"a"},
		"":          {"b"},
		"users/two": {"c"},
		"user-3":    nil,
	})
	if len(got) != 2 {
		t.Fatalf("validTrims() = %v, want user-1 and user-3", got)
	}
	if !slices.Equal(got["user-1"], []string{"a"}) {
		t.Errorf("user-1 = %v, want [a]", got["user-1"])
	}
	if _, ok := got["user-3"]; !ok {
		t.Error("user-3 missing")
	}
}

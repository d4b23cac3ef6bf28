package wishlist

import (
	"testing"

	"bigbite-orderbot/internal/domain"
)

func lists(names ...string) []domain.Wishlist {
	out := make([]domain.Wishlist, 0, len(names))
	for i, n := range names {
		out = append(out, domain.Wishlist{ID: string(rune('a' + i)), Name: n})
	}
	return out
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		wishlists []domain.Wishlist
		wantID    string
	}{
		{"exact normalized", "  Friday Night ", lists("Lunch", "friday night"), "b"},
		{"exact beats containment", "pizza", lists("pizza party", "Pizza"), "b"},
		{"name contains candidate", "sunday", lists("Lunch", "Sunday Brunch"), "b"},
		{"candidate contains name", "my usual lunch order", lists("Dinner", "lunch"), "b"},
		{"fuzzy typo", "brekfast", lists("Dinner", "Breakfast"), "b"},
		{"below threshold", "xyz", lists("Dinner", "Breakfast"), ""},
		{"empty candidate", "   ", lists("Dinner"), ""},
		{"no wishlists", "dinner", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.candidate, tt.wishlists)
			if tt.wantID == "" {
				if got != nil {
					t.Fatalf("expected no match, got %q", got.Name)
				}
				return
			}
			if got == nil {
				t.Fatalf("expected %s, got nil", tt.wantID)
			}
			if got.ID != tt.wantID {
				t.Fatalf("expected %s, got %s (%q)", tt.wantID, got.ID, got.Name)
			}
		})
	}
}

func TestResolveFuzzyTieKeepsFirst(t *testing.T) {
	// "abcd" scores 0.75 against both names.
	ws := lists("abcx", "abcy")
	got := Resolve("abcd", ws)
	if got == nil || got.ID != "a" {
		t.Fatalf("expected first wishlist on tie, got %+v", got)
	}
}

func TestResolveFuzzyPicksHighestScore(t *testing.T) {
	ws := lists("abxx", "abcx")
	got := Resolve("abcd", ws)
	if got == nil || got.ID != "b" {
		t.Fatalf("expected higher scoring wishlist, got %+v", got)
	}
}

func TestResolveExactlyAtThresholdIsRejected(t *testing.T) {
	// two of four candidate runes appear in the name: 0.5
	if s := Score("abzz", "abxy"); s != 0.5 {
		t.Fatalf("expected 0.5, got %v", s)
	}
	if got := Resolve("abzz", lists("abxy")); got != nil {
		t.Fatalf("expected no match at threshold, got %q", got.Name)
	}
}

func TestScoreCountsRepeatsAndIsAsymmetric(t *testing.T) {
	if s := Score("aaaa", "ab"); s != 1 {
		t.Fatalf("expected repeated hits to count, got %v", s)
	}
	if s := Score("ab", "aaaa"); s != 0.25 {
		t.Fatalf("expected 0.25 in reverse, got %v", s)
	}
}

func TestNames(t *testing.T) {
	got := Names(lists("One", "Two"))
	if len(got) != 2 || got[0] != "One" || got[1] != "Two" {
		t.Fatalf("unexpected names %v", got)
	}
}

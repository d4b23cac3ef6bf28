// Package wishlist maps a spoken or typed wishlist name onto one of the
// user's saved wishlists.
package wishlist

import (
	"strings"
	"unicode/utf8"

	"bigbite-orderbot/internal/domain"
)

// MatchThreshold is the minimum overlap score a fuzzy match must exceed.
const MatchThreshold = 0.5

// Resolve picks the wishlist named by candidate. Rules apply in order and
// the first one that matches wins: exact name, name contains candidate,
// candidate contains name, then the best overlap Score above
// MatchThreshold. It returns nil when nothing qualifies.
func Resolve(candidate string, wishlists []domain.Wishlist) *domain.Wishlist {
	c := normalize(candidate)
	if c == "" || len(wishlists) == 0 {
		return nil
	}

	names := make([]string, len(wishlists))
	for i := range wishlists {
		names[i] = normalize(wishlists[i].Name)
	}

	for i, n := range names {
		if n == c {
			return &wishlists[i]
		}
	}
	for i, n := range names {
		if strings.Contains(n, c) {
			return &wishlists[i]
		}
	}
	for i, n := range names {
		if n != "" && strings.Contains(c, n) {
			return &wishlists[i]
		}
	}

	best := -1
	bestScore := 0.0
	for i, n := range names {
		s := Score(c, n)
		if s > MatchThreshold && s > bestScore {
			best, bestScore = i, s
		}
	}
	if best < 0 {
		return nil
	}
	return &wishlists[best]
}

// Score counts the characters of candidate (repeats included) that occur
// anywhere in name, divided by the longer of the two lengths. It is not
// symmetric. Inputs are compared as given; Resolve normalizes first.
func Score(candidate, name string) float64 {
	longest := max(utf8.RuneCountInString(candidate), utf8.RuneCountInString(name))
	if longest == 0 {
		return 0
	}
	hits := 0
	for _, r := range candidate {
		if strings.ContainsRune(name, r) {
			hits++
		}
	}
	return float64(hits) / float64(longest)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Names lists the wishlist names in collection order.
func Names(wishlists []domain.Wishlist) []string {
	out := make([]string, 0, len(wishlists))
	for _, w := range wishlists {
		out = append(out, w.Name)
	}
	return out
}

// Package matcher decides whether two display names refer to the same person.
//
// Matching runs three tiers and stops at the first that succeeds:
//
//  1. containment: either folded name is a substring of the other
//  2. variant clusters: both names relate to one transliteration cluster
//  3. positional similarity: index-by-index rune agreement over the longer length
//
// Tier 3 is a prefix-aligned Hamming count, not an edit distance. A dropped
// leading character shifts every later rune and scores far lower than one
// dropped at the end.
//
// Two profiles exist for tier 3. StoreProfile gates on length difference and
// accepts at 0.70; LibraryProfile has no gate, subtracts 0.1 per rune of length
// difference and accepts at 0.75.
package matcher

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"address-book/internal/constants"
)

// Profile configures the positional tier.
type Profile struct {
	Name string
	// LengthGate is the largest rune-length difference still compared
	// positionally; negative disables the gate.
	LengthGate int
	// Penalty is subtracted from the score per rune of length difference.
	Penalty   float64
	Threshold float64
}

var (
	// StoreProfile is used by the contact store's fuzzy name search.
	StoreProfile = Profile{
		Name:       "store",
		LengthGate: constants.StoreLengthGate,
		Threshold:  constants.StoreSimilarityFloor,
	}
	// LibraryProfile is used by Similar and Filter.
	LibraryProfile = Profile{
		Name:       "library",
		LengthGate: -1,
		Penalty:    constants.LibraryLengthPenalty,
		Threshold:  constants.LibrarySimilarityFloor,
	}
)

// Fold lower-cases s with Unicode rules and normalizes it to NFC so that
// composed and decomposed Arabic or accented input compare equal.
func Fold(s string) string {
	// cases.Caser is stateful; build one per call.
	return norm.NFC.String(cases.Lower(language.Und).String(s))
}

func contains(s, sub string) bool { return strings.Contains(s, sub) }

// Match applies all three tiers under profile p.
func (p Profile) Match(a, b string) bool {
	a, b = Fold(a), Fold(b)
	if contains(a, b) || contains(b, a) {
		return true
	}
	if inSameCluster(a, b) {
		return true
	}
	return p.positional(a, b)
}

// Positional applies only tier 3 under profile p.
func (p Profile) Positional(a, b string) bool {
	return p.positional(Fold(a), Fold(b))
}

func (p Profile) positional(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	diff := absInt(len(ra) - len(rb))
	if p.LengthGate >= 0 && diff > p.LengthGate {
		return false
	}
	score := positionalScore(ra, rb) - p.Penalty*float64(diff)
	return score >= p.Threshold
}

// IsSimilar is the store-level fuzzy comparison.
func IsSimilar(candidate, query string) bool {
	return StoreProfile.Match(candidate, query)
}

// Similar is the library-level fuzzy comparison.
func Similar(a, b string) bool {
	return LibraryProfile.Match(a, b)
}

// Score returns matches/max(len) over folded runes, in [0,1].
// Two empty names score 1.
func Score(a, b string) float64 {
	return positionalScore([]rune(Fold(a)), []rune(Fold(b)))
}

// PenalizedScore returns Score minus 0.1 per rune of length difference.
// The result may be negative.
func PenalizedScore(a, b string) float64 {
	ra, rb := []rune(Fold(a)), []rune(Fold(b))
	diff := absInt(len(ra) - len(rb))
	return positionalScore(ra, rb) - constants.LibraryLengthPenalty*float64(diff)
}

func positionalScore(a, b []rune) float64 {
	longest, shortest := len(a), len(b)
	if shortest > longest {
		longest, shortest = shortest, longest
	}
	if longest == 0 {
		return 1.0
	}
	matches := 0
	for i := 0; i < shortest; i++ {
		if a[i] == b[i] {
			matches++
		}
	}
	return float64(matches) / float64(longest)
}

// Filter returns the items whose name is Similar to query, preserving order.
func Filter[T any](items []T, name func(T) string, query string) []T {
	var out []T
	for _, it := range items {
		if Similar(name(it), query) {
			out = append(out, it)
		}
	}
	return out
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

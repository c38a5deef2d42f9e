package constants

// Centralized threshold values used by the name matcher and validator.
// These are not configuration knobs; use pkg/config for env-driven settings.

const (
	// Store-level fuzzy search: names whose rune lengths differ by more
	// than this are never compared positionally.
	StoreLengthGate      = 2
	StoreSimilarityFloor = 0.70

	// Library-level matcher: no gate, score is reduced per rune of
	// length difference.
	LibrarySimilarityFloor = 0.75
	LibraryLengthPenalty   = 0.1

	// Validator limits
	NameMinRunes   = 2
	PhoneMinDigits = 7
	PhoneMaxDigits = 15
)

package models

// Score bounds of a lookup. Any fuzzy hit scores in [MinFuzzyScore, MaxFuzzyScore].
const (
	NoMatchScore  = 0
	MinFuzzyScore = 1
	MaxFuzzyScore = 99
	ExactScore    = 100
)

// MatchKind says how a lookup was answered.
type MatchKind string

const (
	MatchNone  MatchKind = "none"
	MatchExact MatchKind = "exact"
	MatchFuzzy MatchKind = "fuzzy"
)

// LookupResult is the answer to a translation memory lookup.
type LookupResult struct {
	Query        string    `json:"query"`
	Score        int       `json:"score"`
	Match        MatchKind `json:"match"`
	Translations []string  `json:"translations"`
	// Omits and Delta are the tolerances of the fuzzy trial that matched.
	Omits int `json:"omits,omitempty"`
	Delta int `json:"delta,omitempty"`
}

// Found reports whether the lookup produced any translation.
func (r *LookupResult) Found() bool {
	return r.Score > NoMatchScore && len(r.Translations) > 0
}

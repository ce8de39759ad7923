package types

// ScoredBook is the typed score record every recommender produces and the
// hybrid combiner consumes. Score is in [0,1] on any list handed to a caller.
type ScoredBook struct {
	Book   *Book   `json:"book"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// KnownBooks is the uniform known-item shape shared by every exclusion
// consumer. Titles are normalized (lowercased, trimmed) because the same work
// can exist as two catalog rows with different ids.
type KnownBooks struct {
	IDs    map[string]struct{}
	Titles map[string]struct{}
}

func NewKnownBooks() KnownBooks {
	return KnownBooks{
		IDs:    make(map[string]struct{}),
		Titles: make(map[string]struct{}),
	}
}

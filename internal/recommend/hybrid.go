package recommend

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/cgbookstore/bookrec-backend/internal/types"
)

// trendingBaseScore is the pre-weight score a trending book contributes when
// no personalized list mentions it.
const trendingBaseScore = 1.0

// Weights are the per-source multipliers the hybrid combiner applies. They
// do not need to sum to one; the merged list is renormalized by its maximum
// afterwards.
type Weights struct {
	Collaborative float64 `yaml:"collaborative"`
	Content       float64 `yaml:"content"`
	Trending      float64 `yaml:"trending"`
}

func DefaultWeights() Weights {
	return Weights{Collaborative: 0.4, Content: 0.4, Trending: 0.2}
}

// Valid reports whether every weight is non-negative and at least one is
// positive.
func (w Weights) Valid() bool {
	if w.Collaborative < 0 || w.Content < 0 || w.Trending < 0 {
		return false
	}
	return w.Collaborative > 0 || w.Content > 0 || w.Trending > 0
}

// WeightedList pairs one recommender's output with its multiplier.
type WeightedList struct {
	Books  []types.ScoredBook
	Weight float64
}

type hybridEntry struct {
	book    *types.Book
	score   float64
	reasons []string
	order   int
}

// Combine merges weighted source lists into one ranking. Per book the
// weighted scores add up and the reasons concatenate in source order;
// trending books not present in any source enter with a flat trending
// contribution. The merged scores are divided by the maximum so the top
// result lands at 1.0, then the list is cut to n. Ties keep first-seen
// order, which makes the merge deterministic for fixed inputs.
func Combine(sources []WeightedList, trending []types.ScoredBook, trendingWeight float64, n int) []types.ScoredBook {
	if n <= 0 {
		return nil
	}

	entries := make(map[uuid.UUID]*hybridEntry)
	order := 0

	add := func(candidate types.ScoredBook, weight float64, contribution float64) {
		if candidate.Book == nil || weight <= 0 {
			return
		}
		entry, ok := entries[candidate.Book.ID]
		if !ok {
			entry = &hybridEntry{book: candidate.Book, order: order}
			order++
			entries[candidate.Book.ID] = entry
		}
		entry.score += contribution * weight
		if candidate.Reason != "" && !containsReason(entry.reasons, candidate.Reason) {
			entry.reasons = append(entry.reasons, candidate.Reason)
		}
	}

	for _, source := range sources {
		for _, candidate := range source.Books {
			add(candidate, source.Weight, candidate.Score)
		}
	}
	for _, candidate := range trending {
		if candidate.Book == nil {
			continue
		}
		if _, ok := entries[candidate.Book.ID]; ok {
			// Already personalized; trending adds nothing new.
			continue
		}
		add(candidate, trendingWeight, trendingBaseScore)
	}

	merged := make([]*hybridEntry, 0, len(entries))
	for _, entry := range entries {
		merged = append(merged, entry)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].score != merged[j].score {
			return merged[i].score > merged[j].score
		}
		return merged[i].order < merged[j].order
	})

	maxScore := 0.0
	for _, entry := range merged {
		if entry.score > maxScore {
			maxScore = entry.score
		}
	}

	if len(merged) > n {
		merged = merged[:n]
	}
	results := make([]types.ScoredBook, 0, len(merged))
	for _, entry := range merged {
		score := entry.score
		if maxScore > 0 {
			score = score / maxScore
		}
		results = append(results, types.ScoredBook{
			Book:   entry.book,
			Score:  clampScore(score),
			Reason: strings.Join(entry.reasons, " | "),
		})
	}
	return results
}

func containsReason(reasons []string, reason string) bool {
	for _, existing := range reasons {
		if existing == reason {
			return true
		}
	}
	return false
}

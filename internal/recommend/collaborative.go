package recommend

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/cgbookstore/bookrec-backend/internal/logger"
	"github.com/cgbookstore/bookrec-backend/internal/repos"
	"github.com/cgbookstore/bookrec-backend/internal/types"
)

const (
	// defaultMinOverlap is how many shared books qualify another user as
	// similar.
	defaultMinOverlap = 2
	// similarUserLimit bounds the similar-user scan per request.
	similarUserLimit = 20
	// candidateFetchFactor over-fetches candidates so exclusion and title
	// dedup still leave n results.
	candidateFetchFactor = 3

	popularFallbackScore = 0.5
)

// Collaborative scores candidates by how many similar users engaged with
// them: readers who share books with you predict what you read next. With no
// similar users it falls back to sitewide popularity so callers still get a
// list whenever enough global data exists.
type Collaborative struct {
	interactionRepo repos.BookInteractionRepo
	shelfRepo       repos.ShelfEntryRepo
	bookRepo        repos.BookRepo
	exclusion       *Exclusion
	minOverlap      int
	log             *logger.Logger
}

func NewCollaborative(interactionRepo repos.BookInteractionRepo, shelfRepo repos.ShelfEntryRepo, bookRepo repos.BookRepo, exclusion *Exclusion, baseLog *logger.Logger) *Collaborative {
	return &Collaborative{
		interactionRepo: interactionRepo,
		shelfRepo:       shelfRepo,
		bookRepo:        bookRepo,
		exclusion:       exclusion,
		minOverlap:      defaultMinOverlap,
		log:             baseLog.With("component", "Collaborative"),
	}
}

// FindSimilarUsers returns up to limit user ids sharing at least minOverlap
// books with the given user, ordered by overlap descending. A user whose own
// history is smaller than minOverlap gets an empty result.
func (r *Collaborative) FindSimilarUsers(ctx context.Context, userID uuid.UUID, minOverlap int, limit int) ([]uuid.UUID, error) {
	if minOverlap <= 0 {
		minOverlap = r.minOverlap
	}
	if limit <= 0 {
		limit = similarUserLimit
	}

	knownIDs, err := r.knownBookIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(knownIDs) < minOverlap {
		return nil, nil
	}

	overlaps, err := r.interactionRepo.FindOverlappingUsers(ctx, nil, userID, knownIDs, minOverlap, limit)
	if err != nil {
		return nil, fmt.Errorf("find overlapping users: %w", err)
	}
	users := make([]uuid.UUID, 0, len(overlaps))
	for _, overlap := range overlaps {
		users = append(users, overlap.UserID)
	}
	return users, nil
}

// Recommend counts engaged interactions among similar users per unknown
// candidate, normalizes by the maximum count, and returns the top n. The
// reason names how many similar readers back each pick.
func (r *Collaborative) Recommend(ctx context.Context, userID uuid.UUID, n int) ([]types.ScoredBook, error) {
	if n <= 0 {
		return nil, ErrInvalidLimit
	}

	similarUsers, err := r.FindSimilarUsers(ctx, userID, r.minOverlap, similarUserLimit)
	if err != nil {
		return nil, err
	}

	known, err := r.exclusion.KnownBooks(ctx, userID)
	if err != nil {
		return nil, err
	}

	if len(similarUsers) == 0 {
		r.log.Debug("No similar users, falling back to popularity", "user_id", userID)
		return r.popularBooks(ctx, known, n)
	}

	knownIDs, err := r.knownBookIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	counts, err := r.interactionRepo.CountEngagedByBook(ctx, nil, similarUsers, knownIDs, n*candidateFetchFactor)
	if err != nil {
		return nil, fmt.Errorf("count candidate books: %w", err)
	}
	if len(counts) == 0 {
		return r.popularBooks(ctx, known, n)
	}

	maxCount := counts[0].Count
	for _, count := range counts[1:] {
		if count.Count > maxCount {
			maxCount = count.Count
		}
	}

	candidates, err := r.scoredFromCounts(ctx, counts, func(count int64) (float64, string) {
		reason := fmt.Sprintf("Recommended by %d similar readers", count)
		if count == 1 {
			reason = "Recommended by 1 similar reader"
		}
		return float64(count) / float64(maxCount), reason
	})
	if err != nil {
		return nil, err
	}

	candidates = FilterScored(candidates, known)
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates, nil
}

// popularBooks is the cold-start fallback: books with the most engaged
// interactions sitewide, flat mid-scale score.
func (r *Collaborative) popularBooks(ctx context.Context, known types.KnownBooks, n int) ([]types.ScoredBook, error) {
	counts, err := r.interactionRepo.TopEngaged(ctx, nil, n*candidateFetchFactor)
	if err != nil {
		return nil, fmt.Errorf("load popular books: %w", err)
	}

	candidates, err := r.scoredFromCounts(ctx, counts, func(int64) (float64, string) {
		return popularFallbackScore, "Popular with other readers"
	})
	if err != nil {
		return nil, err
	}

	candidates = FilterScored(candidates, known)
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates, nil
}

func (r *Collaborative) scoredFromCounts(ctx context.Context, counts []repos.BookCount, score func(int64) (float64, string)) ([]types.ScoredBook, error) {
	ids := make([]uuid.UUID, 0, len(counts))
	for _, count := range counts {
		ids = append(ids, count.BookID)
	}
	books, err := r.bookRepo.GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("load candidate books: %w", err)
	}
	byID := make(map[uuid.UUID]*types.Book, len(books))
	for _, book := range books {
		byID[book.ID] = book
	}

	candidates := make([]types.ScoredBook, 0, len(counts))
	for _, count := range counts {
		book, ok := byID[count.BookID]
		if !ok {
			continue
		}
		s, reason := score(count.Count)
		candidates = append(candidates, types.ScoredBook{
			Book:   book,
			Score:  clampScore(s),
			Reason: reason,
		})
	}
	return candidates, nil
}

// knownBookIDs unions the user's interaction books and shelf books; this is
// the seed set for overlap matching and the exclusion set for candidate
// counting.
func (r *Collaborative) knownBookIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	interactionIDs, err := r.interactionRepo.BookIDsByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("load user interaction books: %w", err)
	}
	shelfIDs, err := r.shelfRepo.BookIDsByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("load user shelf books: %w", err)
	}

	seen := make(map[uuid.UUID]struct{}, len(interactionIDs)+len(shelfIDs))
	ids := make([]uuid.UUID, 0, len(interactionIDs)+len(shelfIDs))
	for _, id := range interactionIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, id := range shelfIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

package recommend

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/cgbookstore/bookrec-backend/internal/logger"
	"github.com/cgbookstore/bookrec-backend/internal/repos"
	"github.com/cgbookstore/bookrec-backend/internal/types"
)

const (
	// contentSeedLimit bounds how many of the user's recent books seed the
	// similarity lookups.
	contentSeedLimit = 5
	// contentNeighborLimit is how many neighbors each seed contributes
	// before accumulation; deliberately larger than typical request limits
	// so exclusion has slack to eat into.
	contentNeighborLimit = 15
	// interactionSeedWeight places a recent positive interaction between
	// the read and reading shelves on the shelf weight scale.
	interactionSeedWeight = 3.5
)

// ContentBased recommends books whose text is similar to what the user has
// recently engaged with, using the precomputed vector index. When the index
// has not been built yet it serves similar-items lookups from the
// materialized similarity table instead of computing vectors inline.
type ContentBased struct {
	engine          *Engine
	interactionRepo repos.BookInteractionRepo
	shelfRepo       repos.ShelfEntryRepo
	bookRepo        repos.BookRepo
	similarityRepo  repos.BookSimilarityRepo
	exclusion       *Exclusion
	log             *logger.Logger
}

func NewContentBased(engine *Engine, interactionRepo repos.BookInteractionRepo, shelfRepo repos.ShelfEntryRepo, bookRepo repos.BookRepo, similarityRepo repos.BookSimilarityRepo, exclusion *Exclusion, baseLog *logger.Logger) *ContentBased {
	return &ContentBased{
		engine:          engine,
		interactionRepo: interactionRepo,
		shelfRepo:       shelfRepo,
		bookRepo:        bookRepo,
		similarityRepo:  similarityRepo,
		exclusion:       exclusion,
		log:             baseLog.With("component", "ContentBased"),
	}
}

// Recommend accumulates neighbor scores across the user's taste seeds and
// returns the top n unknown candidates, scores normalized to [0,1]. Seeds
// come from recent positive interactions and from shelf memberships, each
// contributing in proportion to its weight. A user with no qualifying
// history gets an empty list; the caller decides the fallback.
func (r *ContentBased) Recommend(ctx context.Context, userID uuid.UUID, n int) ([]types.ScoredBook, error) {
	if n <= 0 {
		return nil, ErrInvalidLimit
	}

	seeds, err := r.recentSeeds(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(seeds) == 0 {
		r.log.Debug("No interaction or shelf signals for content recommendations", "user_id", userID)
		return []types.ScoredBook{}, nil
	}

	known, err := r.exclusion.KnownBooks(ctx, userID)
	if err != nil {
		return nil, err
	}

	type accumulated struct {
		score float64
		seeds []string
	}
	scores := make(map[uuid.UUID]*accumulated)
	var order []uuid.UUID

	for _, seed := range seeds {
		for _, hit := range r.neighbors(ctx, seed.book.ID) {
			entry, ok := scores[hit.BookID]
			if !ok {
				entry = &accumulated{}
				scores[hit.BookID] = entry
				order = append(order, hit.BookID)
			}
			entry.score += hit.Score * seed.weight
			entry.seeds = appendUnique(entry.seeds, seed.book.Title)
		}
	}
	if len(order) == 0 {
		return []types.ScoredBook{}, nil
	}

	books, err := r.bookRepo.GetByIDs(ctx, nil, order)
	if err != nil {
		return nil, fmt.Errorf("load candidate books: %w", err)
	}
	byID := make(map[uuid.UUID]*types.Book, len(books))
	for _, book := range books {
		byID[book.ID] = book
	}

	candidates := make([]types.ScoredBook, 0, len(order))
	for _, id := range order {
		book, ok := byID[id]
		if !ok {
			continue
		}
		entry := scores[id]
		candidates = append(candidates, types.ScoredBook{
			Book:   book,
			Score:  entry.score,
			Reason: fmt.Sprintf("Because you liked %s", strings.Join(entry.seeds, ", ")),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Book.ID.String() < candidates[j].Book.ID.String()
	})

	candidates = FilterScored(candidates, known)
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	normalizeScores(candidates)
	return candidates, nil
}

// SimilarTo serves the item-detail "more like this" widget. It prefers the
// resident vector index and falls back to the precomputed similarity table
// so the endpoint keeps working while an index build is pending.
func (r *ContentBased) SimilarTo(ctx context.Context, bookID uuid.UUID, n int) ([]types.ScoredBook, error) {
	if n <= 0 {
		return nil, ErrInvalidLimit
	}

	book, err := r.bookRepo.GetByID(ctx, nil, bookID)
	if err != nil {
		return nil, fmt.Errorf("load book: %w", err)
	}
	if book == nil {
		return nil, ErrUnknownBook
	}

	hits := r.neighbors(ctx, bookID)
	if len(hits) > n {
		hits = hits[:n]
	}
	if len(hits) == 0 {
		return []types.ScoredBook{}, nil
	}

	ids := make([]uuid.UUID, 0, len(hits))
	for _, hit := range hits {
		ids = append(ids, hit.BookID)
	}
	books, err := r.bookRepo.GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("load similar books: %w", err)
	}
	byID := make(map[uuid.UUID]*types.Book, len(books))
	for _, candidate := range books {
		byID[candidate.ID] = candidate
	}

	results := make([]types.ScoredBook, 0, len(hits))
	for _, hit := range hits {
		candidate, ok := byID[hit.BookID]
		if !ok {
			continue
		}
		results = append(results, types.ScoredBook{
			Book:   candidate,
			Score:  clampScore(hit.Score),
			Reason: fmt.Sprintf("Similar to %s", book.Title),
		})
	}
	return results, nil
}

// neighbors resolves top similar books, from the index when resident,
// otherwise from the batch-materialized similarity table.
func (r *ContentBased) neighbors(ctx context.Context, bookID uuid.UUID) []SimilarityHit {
	if index := r.engine.Index(); index != nil && index.Contains(bookID) {
		return index.MostSimilar(bookID, contentNeighborLimit)
	}

	edges, err := r.similarityRepo.TopForBook(ctx, nil, bookID, types.SimilarityMethodContent, contentNeighborLimit)
	if err != nil {
		r.log.Warn("Similarity table lookup failed", "book_id", bookID, "error", err)
		return nil
	}
	hits := make([]SimilarityHit, 0, len(edges))
	for _, edge := range edges {
		hits = append(hits, SimilarityHit{BookID: edge.BookBID, Score: edge.Score})
	}
	return hits
}

// contentSeed pairs a taste-signal book with the strength of that signal.
type contentSeed struct {
	book   *types.Book
	weight float64
}

// recentSeeds gathers up to contentSeedLimit books from the recent positive
// interaction log and up to contentSeedLimit more from shelf memberships.
// Interaction seeds keep recency order; shelf seeds are ordered by shelf
// weight so a full seed list still prefers the strongest signals. A book on
// several shelves, or on a shelf and in the log, seeds once at its highest
// weight.
func (r *ContentBased) recentSeeds(ctx context.Context, userID uuid.UUID) ([]contentSeed, error) {
	interactions, err := r.interactionRepo.GetRecentPositive(ctx, nil, userID, contentSeedLimit*4)
	if err != nil {
		return nil, fmt.Errorf("load recent positive interactions: %w", err)
	}

	var seedIDs []uuid.UUID
	weights := make(map[uuid.UUID]float64)
	for _, interaction := range interactions {
		if _, ok := weights[interaction.BookID]; ok {
			continue
		}
		weights[interaction.BookID] = interactionSeedWeight
		seedIDs = append(seedIDs, interaction.BookID)
		if len(seedIDs) == contentSeedLimit {
			break
		}
	}

	entries, err := r.shelfRepo.GetByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("load shelf entries: %w", err)
	}
	var shelfIDs []uuid.UUID
	shelfWeights := make(map[uuid.UUID]float64)
	for _, entry := range entries {
		weight := types.ShelfWeight(entry.Kind)
		if existing, ok := weights[entry.BookID]; ok {
			if weight > existing {
				weights[entry.BookID] = weight
			}
			continue
		}
		if existing, ok := shelfWeights[entry.BookID]; ok {
			if weight > existing {
				shelfWeights[entry.BookID] = weight
			}
			continue
		}
		shelfWeights[entry.BookID] = weight
		shelfIDs = append(shelfIDs, entry.BookID)
	}
	sort.SliceStable(shelfIDs, func(i, j int) bool {
		if shelfWeights[shelfIDs[i]] != shelfWeights[shelfIDs[j]] {
			return shelfWeights[shelfIDs[i]] > shelfWeights[shelfIDs[j]]
		}
		return shelfIDs[i].String() < shelfIDs[j].String()
	})
	if len(shelfIDs) > contentSeedLimit {
		shelfIDs = shelfIDs[:contentSeedLimit]
	}
	for _, id := range shelfIDs {
		weights[id] = shelfWeights[id]
		seedIDs = append(seedIDs, id)
	}

	if len(seedIDs) == 0 {
		return nil, nil
	}

	books, err := r.bookRepo.GetByIDs(ctx, nil, seedIDs)
	if err != nil {
		return nil, fmt.Errorf("load seed books: %w", err)
	}
	byID := make(map[uuid.UUID]*types.Book, len(books))
	for _, book := range books {
		byID[book.ID] = book
	}

	seeds := make([]contentSeed, 0, len(seedIDs))
	for _, id := range seedIDs {
		if book, ok := byID[id]; ok {
			seeds = append(seeds, contentSeed{book: book, weight: weights[id]})
		}
	}
	return seeds, nil
}

func appendUnique(values []string, value string) []string {
	for _, existing := range values {
		if existing == value {
			return values
		}
	}
	return append(values, value)
}

func normalizeScores(candidates []types.ScoredBook) {
	if len(candidates) == 0 {
		return
	}
	max := candidates[0].Score
	for _, candidate := range candidates[1:] {
		if candidate.Score > max {
			max = candidate.Score
		}
	}
	if max <= 0 {
		return
	}
	for i := range candidates {
		candidates[i].Score = clampScore(candidates[i].Score / max)
	}
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

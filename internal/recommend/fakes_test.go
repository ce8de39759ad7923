package recommend

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cgbookstore/bookrec-backend/internal/logger"
	"github.com/cgbookstore/bookrec-backend/internal/repos"
	"github.com/cgbookstore/bookrec-backend/internal/types"
)

func testLogger() *logger.Logger {
	log, err := logger.New("dev")
	if err != nil {
		panic(err)
	}
	return log
}

// uuidFromByte builds a stable uuid for tests: higher bytes sort later as
// strings, so tie-breaks are predictable.
func uuidFromByte(b byte) uuid.UUID {
	var id uuid.UUID
	for i := range id {
		id[i] = b
	}
	return id
}

type fakeBookRepo struct {
	books map[uuid.UUID]*types.Book
}

func newFakeBookRepo(books ...*types.Book) *fakeBookRepo {
	r := &fakeBookRepo{books: make(map[uuid.UUID]*types.Book)}
	for _, book := range books {
		r.books[book.ID] = book
	}
	return r
}

func (r *fakeBookRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Book, error) {
	results := make([]*types.Book, 0, len(r.books))
	for _, book := range r.books {
		results = append(results, book)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].ID.String() < results[j].ID.String()
	})
	return results, nil
}

func (r *fakeBookRepo) GetByID(ctx context.Context, tx *gorm.DB, bookID uuid.UUID) (*types.Book, error) {
	return r.books[bookID], nil
}

func (r *fakeBookRepo) GetByIDs(ctx context.Context, tx *gorm.DB, bookIDs []uuid.UUID) ([]*types.Book, error) {
	var results []*types.Book
	for _, id := range bookIDs {
		if book, ok := r.books[id]; ok {
			results = append(results, book)
		}
	}
	return results, nil
}

func (r *fakeBookRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	return int64(len(r.books)), nil
}

type fakeInteractionRepo struct {
	interactions []*types.BookInteraction
}

func (r *fakeInteractionRepo) add(userID, bookID uuid.UUID, kind string, at time.Time) {
	r.interactions = append(r.interactions, &types.BookInteraction{
		ID:        uuid.New(),
		UserID:    userID,
		BookID:    bookID,
		Kind:      kind,
		CreatedAt: at,
	})
}

func kindIn(kind string, kinds []string) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func uuidIn(id uuid.UUID, ids []uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func (r *fakeInteractionRepo) Create(ctx context.Context, tx *gorm.DB, interactions []*types.BookInteraction) ([]*types.BookInteraction, error) {
	r.interactions = append(r.interactions, interactions...)
	return interactions, nil
}

func (r *fakeInteractionRepo) GetRecentPositive(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.BookInteraction, error) {
	var results []*types.BookInteraction
	for _, it := range r.interactions {
		if it.UserID == userID && kindIn(it.Kind, types.PositiveInteractionKinds) {
			results = append(results, it)
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (r *fakeInteractionRepo) BookIDsByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, it := range r.interactions {
		if it.UserID != userID {
			continue
		}
		if _, ok := seen[it.BookID]; ok {
			continue
		}
		seen[it.BookID] = struct{}{}
		ids = append(ids, it.BookID)
	}
	return ids, nil
}

func (r *fakeInteractionRepo) FindOverlappingUsers(ctx context.Context, tx *gorm.DB, userID uuid.UUID, bookIDs []uuid.UUID, minOverlap int, limit int) ([]repos.UserOverlap, error) {
	if len(bookIDs) == 0 {
		return nil, nil
	}
	perUser := make(map[uuid.UUID]map[uuid.UUID]struct{})
	for _, it := range r.interactions {
		if it.UserID == userID || !kindIn(it.Kind, types.EngagedInteractionKinds) || !uuidIn(it.BookID, bookIDs) {
			continue
		}
		if perUser[it.UserID] == nil {
			perUser[it.UserID] = make(map[uuid.UUID]struct{})
		}
		perUser[it.UserID][it.BookID] = struct{}{}
	}

	var results []repos.UserOverlap
	for user, books := range perUser {
		if len(books) >= minOverlap {
			results = append(results, repos.UserOverlap{UserID: user, Overlap: int64(len(books))})
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Overlap != results[j].Overlap {
			return results[i].Overlap > results[j].Overlap
		}
		return results[i].UserID.String() < results[j].UserID.String()
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (r *fakeInteractionRepo) CountEngagedByBook(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID, excludeBookIDs []uuid.UUID, limit int) ([]repos.BookCount, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	perBook := make(map[uuid.UUID]map[uuid.UUID]struct{})
	for _, it := range r.interactions {
		if !uuidIn(it.UserID, userIDs) || !kindIn(it.Kind, types.EngagedInteractionKinds) || uuidIn(it.BookID, excludeBookIDs) {
			continue
		}
		if perBook[it.BookID] == nil {
			perBook[it.BookID] = make(map[uuid.UUID]struct{})
		}
		perBook[it.BookID][it.UserID] = struct{}{}
	}
	return sortedBookCounts(countUsers(perBook), limit), nil
}

func (r *fakeInteractionRepo) TopEngaged(ctx context.Context, tx *gorm.DB, limit int) ([]repos.BookCount, error) {
	counts := make(map[uuid.UUID]int64)
	for _, it := range r.interactions {
		if kindIn(it.Kind, types.EngagedInteractionKinds) {
			counts[it.BookID]++
		}
	}
	return sortedBookCounts(counts, limit), nil
}

func (r *fakeInteractionRepo) CountSince(ctx context.Context, tx *gorm.DB, since time.Time, limit int) ([]repos.BookCount, error) {
	counts := make(map[uuid.UUID]int64)
	for _, it := range r.interactions {
		if !it.CreatedAt.Before(since) {
			counts[it.BookID]++
		}
	}
	return sortedBookCounts(counts, limit), nil
}

func (r *fakeInteractionRepo) UserActivity(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, time.Time, error) {
	var count int64
	var latest time.Time
	for _, it := range r.interactions {
		if it.UserID != userID {
			continue
		}
		count++
		if it.CreatedAt.After(latest) {
			latest = it.CreatedAt
		}
	}
	return count, latest, nil
}

func countUsers(perBook map[uuid.UUID]map[uuid.UUID]struct{}) map[uuid.UUID]int64 {
	counts := make(map[uuid.UUID]int64, len(perBook))
	for book, users := range perBook {
		counts[book] = int64(len(users))
	}
	return counts
}

func sortedBookCounts(counts map[uuid.UUID]int64, limit int) []repos.BookCount {
	results := make([]repos.BookCount, 0, len(counts))
	for book, count := range counts {
		results = append(results, repos.BookCount{BookID: book, Count: count})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Count != results[j].Count {
			return results[i].Count > results[j].Count
		}
		return results[i].BookID.String() < results[j].BookID.String()
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

type fakeShelfRepo struct {
	entries []*types.ShelfEntry
}

func (r *fakeShelfRepo) add(userID, bookID uuid.UUID, kind string) {
	r.entries = append(r.entries, &types.ShelfEntry{
		ID:     uuid.New(),
		UserID: userID,
		BookID: bookID,
		Kind:   kind,
	})
}

func (r *fakeShelfRepo) GetByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ShelfEntry, error) {
	var results []*types.ShelfEntry
	for _, entry := range r.entries {
		if entry.UserID == userID {
			results = append(results, entry)
		}
	}
	return results, nil
}

func (r *fakeShelfRepo) BookIDsByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, entry := range r.entries {
		if entry.UserID != userID {
			continue
		}
		if _, ok := seen[entry.BookID]; ok {
			continue
		}
		seen[entry.BookID] = struct{}{}
		ids = append(ids, entry.BookID)
	}
	return ids, nil
}

func (r *fakeShelfRepo) KindCounts(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, entry := range r.entries {
		if entry.UserID == userID {
			counts[entry.Kind]++
		}
	}
	return counts, nil
}

type fakeSimilarityRepo struct {
	edges map[uuid.UUID][]*types.BookSimilarity
}

func newFakeSimilarityRepo() *fakeSimilarityRepo {
	return &fakeSimilarityRepo{edges: make(map[uuid.UUID][]*types.BookSimilarity)}
}

func (r *fakeSimilarityRepo) add(bookA, bookB uuid.UUID, score float64) {
	r.edges[bookA] = append(r.edges[bookA], &types.BookSimilarity{
		BookAID: bookA,
		BookBID: bookB,
		Method:  types.SimilarityMethodContent,
		Score:   score,
	})
}

func (r *fakeSimilarityRepo) TopForBook(ctx context.Context, tx *gorm.DB, bookID uuid.UUID, method string, limit int) ([]*types.BookSimilarity, error) {
	edges := make([]*types.BookSimilarity, len(r.edges[bookID]))
	copy(edges, r.edges[bookID])
	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].Score != edges[j].Score {
			return edges[i].Score > edges[j].Score
		}
		return edges[i].BookBID.String() < edges[j].BookBID.String()
	})
	if len(edges) > limit {
		edges = edges[:limit]
	}
	return edges, nil
}

func (r *fakeSimilarityRepo) ReplaceForBook(ctx context.Context, tx *gorm.DB, bookID uuid.UUID, method string, edges []*types.BookSimilarity) error {
	r.edges[bookID] = edges
	return nil
}

func (r *fakeSimilarityRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	var count int64
	for _, edges := range r.edges {
		count += int64(len(edges))
	}
	return count, nil
}

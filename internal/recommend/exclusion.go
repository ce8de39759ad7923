package recommend

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/cgbookstore/bookrec-backend/internal/logger"
	"github.com/cgbookstore/bookrec-backend/internal/repos"
	"github.com/cgbookstore/bookrec-backend/internal/types"
)

// Exclusion computes the set of books a user already knows and strips them,
// plus any duplicates, from candidate lists. A book counts as known if it
// appears on any shelf or in any interaction, whatever the kind. It matches
// by id and by normalized title: re-imported catalogs can hold the same work
// under two different ids, and recommending a book the user owns under
// another id is still a defect.
type Exclusion struct {
	shelfRepo       repos.ShelfEntryRepo
	interactionRepo repos.BookInteractionRepo
	bookRepo        repos.BookRepo
	log             *logger.Logger
}

func NewExclusion(shelfRepo repos.ShelfEntryRepo, interactionRepo repos.BookInteractionRepo, bookRepo repos.BookRepo, baseLog *logger.Logger) *Exclusion {
	return &Exclusion{
		shelfRepo:       shelfRepo,
		interactionRepo: interactionRepo,
		bookRepo:        bookRepo,
		log:             baseLog.With("component", "Exclusion"),
	}
}

// NormalizeTitle lowercases and trims a title for duplicate matching.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// KnownBooks unions the user's shelf books and interaction books into an
// id-set plus a normalized-title-set.
func (e *Exclusion) KnownBooks(ctx context.Context, userID uuid.UUID) (types.KnownBooks, error) {
	known := types.NewKnownBooks()

	shelfIDs, err := e.shelfRepo.BookIDsByUser(ctx, nil, userID)
	if err != nil {
		return known, fmt.Errorf("load shelf books: %w", err)
	}
	interactionIDs, err := e.interactionRepo.BookIDsByUser(ctx, nil, userID)
	if err != nil {
		return known, fmt.Errorf("load interaction books: %w", err)
	}

	all := make([]uuid.UUID, 0, len(shelfIDs)+len(interactionIDs))
	for _, id := range shelfIDs {
		if _, ok := known.IDs[id.String()]; ok {
			continue
		}
		known.IDs[id.String()] = struct{}{}
		all = append(all, id)
	}
	for _, id := range interactionIDs {
		if _, ok := known.IDs[id.String()]; ok {
			continue
		}
		known.IDs[id.String()] = struct{}{}
		all = append(all, id)
	}

	books, err := e.bookRepo.GetByIDs(ctx, nil, all)
	if err != nil {
		return known, fmt.Errorf("load known book titles: %w", err)
	}
	for _, book := range books {
		known.Titles[NormalizeTitle(book.Title)] = struct{}{}
	}

	e.log.Debug("Computed known books", "user_id", userID, "ids", len(known.IDs), "titles", len(known.Titles))
	return known, nil
}

// FilterScored walks candidates in order, dropping anything known and any
// repeat of an id or normalized title already emitted in this pass. First
// occurrence wins; relative order of survivors is preserved. Every
// recommender applies it to its own output and the service applies it once
// more after the hybrid merge.
func FilterScored(candidates []types.ScoredBook, known types.KnownBooks) []types.ScoredBook {
	filtered := make([]types.ScoredBook, 0, len(candidates))
	seenIDs := make(map[string]struct{})
	seenTitles := make(map[string]struct{})

	for _, candidate := range candidates {
		if candidate.Book == nil {
			continue
		}
		id := candidate.Book.ID.String()
		title := NormalizeTitle(candidate.Book.Title)

		if _, ok := known.IDs[id]; ok {
			continue
		}
		if _, ok := known.Titles[title]; ok {
			continue
		}
		if _, ok := seenIDs[id]; ok {
			continue
		}
		if title != "" {
			if _, ok := seenTitles[title]; ok {
				continue
			}
		}

		filtered = append(filtered, candidate)
		seenIDs[id] = struct{}{}
		if title != "" {
			seenTitles[title] = struct{}{}
		}
	}
	return filtered
}

package recommend

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/cgbookstore/bookrec-backend/internal/logger"
)

// Engine owns the shared read-mostly artifacts the online path consumes: the
// TF-IDF vector index and the trending book ids. Batch jobs build replacements
// off the request path and publish them with an atomic pointer swap, so
// readers always see either the previous complete artifact or the new one,
// never a partial state. One Engine is constructed at process start and passed
// by reference wherever it is needed.
type Engine struct {
	log      *logger.Logger
	index    atomic.Pointer[VectorIndex]
	trending atomic.Pointer[[]uuid.UUID]
}

func NewEngine(baseLog *logger.Logger) *Engine {
	return &Engine{log: baseLog.With("component", "RecommendEngine")}
}

// PublishIndex swaps in a freshly built vector index. The index must not be
// mutated after publication.
func (e *Engine) PublishIndex(index *VectorIndex) {
	e.index.Store(index)
	if index != nil {
		e.log.Info("Published vector index", "books", index.Len(), "vocabulary", index.VocabularyLen())
	}
}

// Index returns the current vector index, or nil when no build has completed
// yet. Callers must treat nil as the stale-artifact state and fall back.
func (e *Engine) Index() *VectorIndex {
	return e.index.Load()
}

// PublishTrending swaps in the ordered trending book ids from the latest
// snapshot.
func (e *Engine) PublishTrending(bookIDs []uuid.UUID) {
	ids := make([]uuid.UUID, len(bookIDs))
	copy(ids, bookIDs)
	e.trending.Store(&ids)
	e.log.Info("Published trending snapshot", "books", len(ids))
}

// Trending returns the current trending book ids, possibly empty.
func (e *Engine) Trending() []uuid.UUID {
	ids := e.trending.Load()
	if ids == nil {
		return nil
	}
	return *ids
}

// ValidAlgorithm reports whether name is one of the supported algorithms.
func ValidAlgorithm(name string) bool {
	switch name {
	case "collaborative", "content", "hybrid":
		return true
	default:
		return false
	}
}

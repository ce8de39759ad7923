package recommend

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cgbookstore/bookrec-backend/internal/cache"
	"github.com/cgbookstore/bookrec-backend/internal/logger"
	"github.com/cgbookstore/bookrec-backend/internal/repos"
	"github.com/cgbookstore/bookrec-backend/internal/types"
)

// stateHashVersion is baked into every key so a format change invalidates
// old entries instead of misreading them.
const stateHashVersion = "v1"

// RecommendationCache wraps a cache.Store with user-state-aware keys. The
// key embeds a hash of the user's shelves and interactions, so any new
// activity moves the user to a fresh key and stale lists are never served,
// whatever their TTL has left.
type RecommendationCache struct {
	store           cache.Store
	shelfRepo       repos.ShelfEntryRepo
	interactionRepo repos.BookInteractionRepo
	ttl             time.Duration
	log             *logger.Logger
}

func NewRecommendationCache(store cache.Store, shelfRepo repos.ShelfEntryRepo, interactionRepo repos.BookInteractionRepo, ttl time.Duration, baseLog *logger.Logger) *RecommendationCache {
	return &RecommendationCache{
		store:           store,
		shelfRepo:       shelfRepo,
		interactionRepo: interactionRepo,
		ttl:             ttl,
		log:             baseLog.With("component", "RecommendationCache"),
	}
}

// StateHash digests the user's shelf composition and interaction activity
// into a short stable token: per-kind shelf counts in sorted kind order,
// the total interaction count, and the latest interaction timestamp.
func (c *RecommendationCache) StateHash(ctx context.Context, userID uuid.UUID) (string, error) {
	kindCounts, err := c.shelfRepo.KindCounts(ctx, nil, userID)
	if err != nil {
		return "", fmt.Errorf("load shelf counts: %w", err)
	}
	interactionCount, latest, err := c.interactionRepo.UserActivity(ctx, nil, userID)
	if err != nil {
		return "", fmt.Errorf("load interaction activity: %w", err)
	}

	kinds := make([]string, 0, len(kindCounts))
	for kind := range kindCounts {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	var b strings.Builder
	for _, kind := range kinds {
		fmt.Fprintf(&b, "%s:%d;", kind, kindCounts[kind])
	}
	fmt.Fprintf(&b, "interactions:%d;latest:%d", interactionCount, latest.UnixNano())

	sum := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%s:%x", stateHashVersion, sum[:6]), nil
}

func (c *RecommendationCache) key(userID uuid.UUID, algorithm string, n int, stateHash string) string {
	return fmt.Sprintf("rec:%s:%s:%d:%s", userID, algorithm, n, stateHash)
}

// GetOrCompute returns the cached list for the user's current state, or runs
// compute and caches its result. Store failures degrade to computing
// directly; a recommendation request never fails because the cache is down.
func (c *RecommendationCache) GetOrCompute(ctx context.Context, userID uuid.UUID, algorithm string, n int, compute func(ctx context.Context) ([]types.ScoredBook, error)) ([]types.ScoredBook, string, error) {
	stateHash, err := c.StateHash(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	key := c.key(userID, algorithm, n, stateHash)

	if raw, ok, err := c.store.Get(ctx, key); err != nil {
		c.log.Warn("Cache read failed, computing directly", "key", key, "error", err)
	} else if ok {
		var cached []types.ScoredBook
		if err := json.Unmarshal(raw, &cached); err != nil {
			c.log.Warn("Cache entry corrupt, recomputing", "key", key, "error", err)
		} else {
			return cached, stateHash, nil
		}
	}

	results, err := compute(ctx)
	if err != nil {
		return nil, "", err
	}

	raw, err := json.Marshal(results)
	if err != nil {
		c.log.Warn("Cache serialization failed", "key", key, "error", err)
		return results, stateHash, nil
	}
	if err := c.store.Set(ctx, key, raw, c.ttl); err != nil {
		c.log.Warn("Cache write failed", "key", key, "error", err)
	}
	return results, stateHash, nil
}

// Invalidate drops the entry for one user/algorithm/limit at the user's
// current state.
func (c *RecommendationCache) Invalidate(ctx context.Context, userID uuid.UUID, algorithm string, n int) error {
	stateHash, err := c.StateHash(ctx, userID)
	if err != nil {
		return err
	}
	return c.store.Delete(ctx, c.key(userID, algorithm, n, stateHash))
}

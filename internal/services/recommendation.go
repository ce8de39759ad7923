package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cgbookstore/bookrec-backend/internal/logger"
	"github.com/cgbookstore/bookrec-backend/internal/recommend"
	"github.com/cgbookstore/bookrec-backend/internal/repos"
	"github.com/cgbookstore/bookrec-backend/internal/types"
)

const (
	// MaxRecommendationLimit bounds a single request.
	MaxRecommendationLimit = 50
	// DefaultRecommendationLimit applies when the caller sends no limit.
	DefaultRecommendationLimit = 10

	trendingFallbackScore = 0.5
	trendingReason        = "Trending this week"

	// suggestionBudget caps how long the request path waits on the
	// external suggestion service.
	suggestionBudget = 3 * time.Second
	profileSeedLimit = 5
)

// RecommendationService is the request-path orchestrator: it validates
// input, routes to the right scorer, applies caching and exclusion, and
// persists the served set for click tracking.
type RecommendationService interface {
	Recommend(ctx context.Context, userID uuid.UUID, algorithm string, n int) ([]types.ScoredBook, error)
	SimilarBooks(ctx context.Context, bookID uuid.UUID, n int) ([]types.ScoredBook, error)
	RecordClick(ctx context.Context, userID uuid.UUID, bookID uuid.UUID) (bool, error)
	ExternalSuggestions(ctx context.Context, userID uuid.UUID, n int) []Suggestion
}

type recommendationService struct {
	log             *logger.Logger
	engine          *recommend.Engine
	collaborative   *recommend.Collaborative
	content         *recommend.ContentBased
	exclusion       *recommend.Exclusion
	cache           *recommend.RecommendationCache
	weights         recommend.Weights
	suggestions     SuggestionClient
	bookRepo        repos.BookRepo
	interactionRepo repos.BookInteractionRepo
	recRepo         repos.RecommendationRepo
	resultTTL       time.Duration
}

// RecommendationServiceConfig wires the service's collaborators.
type RecommendationServiceConfig struct {
	Log             *logger.Logger
	Engine          *recommend.Engine
	Collaborative   *recommend.Collaborative
	Content         *recommend.ContentBased
	Exclusion       *recommend.Exclusion
	Cache           *recommend.RecommendationCache
	Weights         recommend.Weights
	Suggestions     SuggestionClient
	BookRepo        repos.BookRepo
	InteractionRepo repos.BookInteractionRepo
	RecRepo         repos.RecommendationRepo
	ResultTTL       time.Duration
}

func NewRecommendationService(cfg RecommendationServiceConfig) RecommendationService {
	weights := cfg.Weights
	if !weights.Valid() {
		weights = recommend.DefaultWeights()
	}
	ttl := cfg.ResultTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &recommendationService{
		log:             cfg.Log.With("service", "RecommendationService"),
		engine:          cfg.Engine,
		collaborative:   cfg.Collaborative,
		content:         cfg.Content,
		exclusion:       cfg.Exclusion,
		cache:           cfg.Cache,
		weights:         weights,
		suggestions:     cfg.Suggestions,
		bookRepo:        cfg.BookRepo,
		interactionRepo: cfg.InteractionRepo,
		recRepo:         cfg.RecRepo,
		resultTTL:       ttl,
	}
}

func (s *recommendationService) Recommend(ctx context.Context, userID uuid.UUID, algorithm string, n int) ([]types.ScoredBook, error) {
	if !recommend.ValidAlgorithm(algorithm) {
		return nil, recommend.ErrInvalidAlgorithm
	}
	if n < 1 || n > MaxRecommendationLimit {
		return nil, recommend.ErrInvalidLimit
	}

	computed := false
	results, stateHash, err := s.cache.GetOrCompute(ctx, userID, algorithm, n, func(ctx context.Context) ([]types.ScoredBook, error) {
		computed = true
		return s.compute(ctx, userID, algorithm, n)
	})
	if err != nil {
		return nil, err
	}

	if computed {
		if err := s.persist(ctx, userID, algorithm, stateHash, results); err != nil {
			// Persistence feeds click tracking only; serving the list
			// still succeeds.
			s.log.Warn("Failed to persist recommendations", "user_id", userID, "algorithm", algorithm, "error", err)
		}
	}
	return results, nil
}

func (s *recommendationService) compute(ctx context.Context, userID uuid.UUID, algorithm string, n int) ([]types.ScoredBook, error) {
	var results []types.ScoredBook
	var err error

	switch algorithm {
	case types.AlgorithmCollaborative:
		results, err = s.collaborative.Recommend(ctx, userID, n)
	case types.AlgorithmContent:
		results, err = s.content.Recommend(ctx, userID, n)
	case types.AlgorithmHybrid:
		results, err = s.hybrid(ctx, userID, n)
	}
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return s.trendingFallback(ctx, userID, n)
	}
	return results, nil
}

func (s *recommendationService) hybrid(ctx context.Context, userID uuid.UUID, n int) ([]types.ScoredBook, error) {
	collaborative, err := s.collaborative.Recommend(ctx, userID, n)
	if err != nil {
		return nil, err
	}
	content, err := s.content.Recommend(ctx, userID, n)
	if err != nil {
		return nil, err
	}

	known, err := s.exclusion.KnownBooks(ctx, userID)
	if err != nil {
		return nil, err
	}
	trending, err := s.trendingScored(ctx, known, n)
	if err != nil {
		return nil, err
	}

	merged := recommend.Combine([]recommend.WeightedList{
		{Books: collaborative, Weight: s.weights.Collaborative},
		{Books: content, Weight: s.weights.Content},
	}, trending, s.weights.Trending, n)

	merged = recommend.FilterScored(merged, known)
	if len(merged) > n {
		merged = merged[:n]
	}

	s.enrichReasons(ctx, merged)
	return merged, nil
}

// trendingScored resolves the engine's trending ids to unknown books with
// the trending reason attached.
func (s *recommendationService) trendingScored(ctx context.Context, known types.KnownBooks, n int) ([]types.ScoredBook, error) {
	trendingIDs := s.engine.Trending()
	if len(trendingIDs) == 0 {
		return nil, nil
	}

	books, err := s.bookRepo.GetByIDs(ctx, nil, trendingIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*types.Book, len(books))
	for _, book := range books {
		byID[book.ID] = book
	}

	candidates := make([]types.ScoredBook, 0, len(trendingIDs))
	for _, id := range trendingIDs {
		book, ok := byID[id]
		if !ok {
			continue
		}
		candidates = append(candidates, types.ScoredBook{
			Book:   book,
			Score:  trendingFallbackScore,
			Reason: trendingReason,
		})
	}
	candidates = recommend.FilterScored(candidates, known)
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates, nil
}

// trendingFallback is the last resort when every personalized path came back
// empty: trending books the user does not know, flat score.
func (s *recommendationService) trendingFallback(ctx context.Context, userID uuid.UUID, n int) ([]types.ScoredBook, error) {
	known, err := s.exclusion.KnownBooks(ctx, userID)
	if err != nil {
		return nil, err
	}
	results, err := s.trendingScored(ctx, known, n)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []types.ScoredBook{}
	}
	return results, nil
}

// enrichReasons asks the suggestion service for a nicer sentence on the top
// result. Strictly best-effort under a hard budget.
func (s *recommendationService) enrichReasons(ctx context.Context, results []types.ScoredBook) {
	if s.suggestions == nil || !s.suggestions.Available() || len(results) == 0 {
		return
	}

	budgetCtx, cancel := context.WithTimeout(ctx, suggestionBudget)
	defer cancel()

	enriched, err := s.suggestions.EnrichReason(budgetCtx, results[0].Book)
	if err != nil {
		s.log.Warn("Reason enrichment failed", "book_id", results[0].Book.ID, "error", err)
		return
	}
	if enriched != "" {
		results[0].Reason = results[0].Reason + " | " + enriched
	}
}

func (s *recommendationService) persist(ctx context.Context, userID uuid.UUID, algorithm string, stateHash string, results []types.ScoredBook) error {
	now := time.Now().UTC()
	rows := make([]*types.Recommendation, 0, len(results))
	for i, result := range results {
		rows = append(rows, &types.Recommendation{
			UserID:    userID,
			BookID:    result.Book.ID,
			Algorithm: algorithm,
			Score:     result.Score,
			Reason:    result.Reason,
			StateHash: stateHash,
			Position:  i,
			CreatedAt: now,
			ExpiresAt: now.Add(s.resultTTL),
		})
	}
	return s.recRepo.ReplaceForUser(ctx, nil, userID, algorithm, rows)
}

func (s *recommendationService) SimilarBooks(ctx context.Context, bookID uuid.UUID, n int) ([]types.ScoredBook, error) {
	if n < 1 || n > MaxRecommendationLimit {
		return nil, recommend.ErrInvalidLimit
	}
	return s.content.SimilarTo(ctx, bookID, n)
}

// RecordClick marks the served recommendation row and logs the feedback
// signal. Returns false when no unclicked row matched, which is not an
// error: the row may have expired or been clicked already.
func (s *recommendationService) RecordClick(ctx context.Context, userID uuid.UUID, bookID uuid.UUID) (bool, error) {
	affected, err := s.recRepo.MarkClicked(ctx, nil, userID, bookID)
	if err != nil {
		return false, err
	}
	if affected == 0 {
		s.log.Debug("Click matched no recommendation row", "user_id", userID, "book_id", bookID)
		return false, nil
	}
	s.log.Info("Recommendation clicked", "user_id", userID, "book_id", bookID)
	return true, nil
}

// ExternalSuggestions returns LLM picks for the user's recent taste, or nil
// when the service is unavailable or slow. Failures never propagate.
func (s *recommendationService) ExternalSuggestions(ctx context.Context, userID uuid.UUID, n int) []Suggestion {
	if s.suggestions == nil || !s.suggestions.Available() || n <= 0 {
		return nil
	}

	profile, err := s.readerProfile(ctx, userID)
	if err != nil {
		s.log.Warn("Failed to build reader profile", "user_id", userID, "error", err)
		return nil
	}
	if len(profile.RecentTitles) == 0 {
		return nil
	}

	budgetCtx, cancel := context.WithTimeout(ctx, suggestionBudget)
	defer cancel()

	suggestions, err := s.suggestions.Suggest(budgetCtx, profile, n)
	if err != nil {
		s.log.Warn("External suggestions failed", "user_id", userID, "error", err)
		return nil
	}
	return suggestions
}

func (s *recommendationService) readerProfile(ctx context.Context, userID uuid.UUID) (ReaderProfile, error) {
	interactions, err := s.interactionRepo.GetRecentPositive(ctx, nil, userID, profileSeedLimit*4)
	if err != nil {
		return ReaderProfile{}, err
	}

	var bookIDs []uuid.UUID
	seen := make(map[uuid.UUID]struct{})
	for _, interaction := range interactions {
		if _, ok := seen[interaction.BookID]; ok {
			continue
		}
		seen[interaction.BookID] = struct{}{}
		bookIDs = append(bookIDs, interaction.BookID)
		if len(bookIDs) == profileSeedLimit {
			break
		}
	}

	books, err := s.bookRepo.GetByIDs(ctx, nil, bookIDs)
	if err != nil {
		return ReaderProfile{}, err
	}

	profile := ReaderProfile{}
	seenCategories := make(map[string]struct{})
	for _, book := range books {
		profile.RecentTitles = append(profile.RecentTitles, book.Title)
		if book.Category != "" {
			if _, ok := seenCategories[book.Category]; !ok {
				seenCategories[book.Category] = struct{}{}
				profile.Categories = append(profile.Categories, book.Category)
			}
		}
	}
	return profile, nil
}

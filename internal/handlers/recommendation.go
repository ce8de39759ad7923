package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cgbookstore/bookrec-backend/internal/logger"
	"github.com/cgbookstore/bookrec-backend/internal/middleware"
	"github.com/cgbookstore/bookrec-backend/internal/recommend"
	"github.com/cgbookstore/bookrec-backend/internal/services"
	"github.com/cgbookstore/bookrec-backend/internal/types"
)

type RecommendationHandler struct {
	log    *logger.Logger
	recSvc services.RecommendationService
}

func NewRecommendationHandler(log *logger.Logger, recSvc services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{
		log:    log.With("handler", "RecommendationHandler"),
		recSvc: recSvc,
	}
}

type recommendationsResponse struct {
	Algorithm   string                `json:"algorithm"`
	Results     []types.ScoredBook    `json:"results"`
	Suggestions []services.Suggestion `json:"external_suggestions,omitempty"`
}

// GET /api/recommendations?algorithm=&limit=
func (h *RecommendationHandler) GetRecommendations(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusBadRequest, "missing_user", errors.New("missing user id"))
		return
	}

	algorithm := c.DefaultQuery("algorithm", types.AlgorithmHybrid)
	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_limit", err)
		return
	}

	results, err := h.recSvc.Recommend(c.Request.Context(), userID, algorithm, limit)
	if err != nil {
		h.respondRecommendError(c, err)
		return
	}

	response := recommendationsResponse{
		Algorithm: algorithm,
		Results:   results,
	}
	if algorithm == types.AlgorithmHybrid {
		response.Suggestions = h.recSvc.ExternalSuggestions(c.Request.Context(), userID, 3)
	}
	RespondOK(c, response)
}

// GET /api/books/:id/similar?limit=
func (h *RecommendationHandler) GetSimilarBooks(c *gin.Context) {
	bookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_book_id", fmt.Errorf("invalid book id: %s", c.Param("id")))
		return
	}
	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_limit", err)
		return
	}

	results, err := h.recSvc.SimilarBooks(c.Request.Context(), bookID, limit)
	if err != nil {
		h.respondRecommendError(c, err)
		return
	}
	RespondOK(c, gin.H{"book_id": bookID, "results": results})
}

type clickRequest struct {
	BookID uuid.UUID `json:"book_id" binding:"required"`
}

// POST /api/recommendations/click
func (h *RecommendationHandler) RecordClick(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		RespondError(c, http.StatusBadRequest, "missing_user", errors.New("missing user id"))
		return
	}

	var req clickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	clicked, err := h.recSvc.RecordClick(c.Request.Context(), userID, req.BookID)
	if err != nil {
		RespondError(c, http.StatusServiceUnavailable, "click_failed", err)
		return
	}
	RespondOK(c, gin.H{"clicked": clicked})
}

func (h *RecommendationHandler) respondRecommendError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, recommend.ErrInvalidAlgorithm):
		RespondError(c, http.StatusBadRequest, "invalid_algorithm", err)
	case errors.Is(err, recommend.ErrInvalidLimit):
		RespondError(c, http.StatusBadRequest, "invalid_limit", err)
	case errors.Is(err, recommend.ErrUnknownBook):
		RespondError(c, http.StatusNotFound, "unknown_book", err)
	default:
		h.log.Error("Recommendation request failed", "error", err)
		RespondError(c, http.StatusServiceUnavailable, "recommendation_failed", err)
	}
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return services.DefaultRecommendationLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid limit: %s", raw)
	}
	return limit, nil
}

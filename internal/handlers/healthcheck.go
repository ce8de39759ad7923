package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cgbookstore/bookrec-backend/internal/logger"
	"github.com/cgbookstore/bookrec-backend/internal/recommend"
	"github.com/cgbookstore/bookrec-backend/internal/repos"
)

// HealthHandler reports liveness plus a coarse view of artifact freshness:
// catalog size, materialized similarity edges, and whether the in-memory
// index and trending list are resident.
type HealthHandler struct {
	log            *logger.Logger
	engine         *recommend.Engine
	bookRepo       repos.BookRepo
	similarityRepo repos.BookSimilarityRepo
}

func NewHealthHandler(log *logger.Logger, engine *recommend.Engine, bookRepo repos.BookRepo, similarityRepo repos.BookSimilarityRepo) *HealthHandler {
	return &HealthHandler{
		log:            log.With("handler", "HealthHandler"),
		engine:         engine,
		bookRepo:       bookRepo,
		similarityRepo: similarityRepo,
	}
}

// GET /healthcheck
// Count failures are logged and the field omitted; the endpoint itself stays
// 200 as long as the process serves requests.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	payload := gin.H{
		"status":         "ok",
		"index_ready":    h.engine.Index() != nil,
		"trending_books": len(h.engine.Trending()),
	}
	if books, err := h.bookRepo.Count(c.Request.Context(), nil); err != nil {
		h.log.Warn("Healthcheck book count failed", "error", err)
	} else {
		payload["books"] = books
	}
	if edges, err := h.similarityRepo.Count(c.Request.Context(), nil); err != nil {
		h.log.Warn("Healthcheck similarity count failed", "error", err)
	} else {
		payload["similarity_edges"] = edges
	}
	c.JSON(http.StatusOK, payload)
}

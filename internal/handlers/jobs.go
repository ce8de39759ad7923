package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cgbookstore/bookrec-backend/internal/jobs"
	"github.com/cgbookstore/bookrec-backend/internal/logger"
)

// JobsHandler exposes the batch rebuilds to an external scheduler. Both
// triggers are synchronous and idempotent; calling them between ticks just
// freshens the artifacts early.
type JobsHandler struct {
	log        *logger.Logger
	similarity *jobs.SimilarityRebuild
	trending   *jobs.TrendingRebuild
}

func NewJobsHandler(log *logger.Logger, similarity *jobs.SimilarityRebuild, trending *jobs.TrendingRebuild) *JobsHandler {
	return &JobsHandler{
		log:        log.With("handler", "JobsHandler"),
		similarity: similarity,
		trending:   trending,
	}
}

// POST /api/admin/jobs/similarity
func (h *JobsHandler) TriggerSimilarity(c *gin.Context) {
	h.trigger(c, "similarity", h.similarity.Run)
}

// POST /api/admin/jobs/trending?window_days=N
// The window defaults to the configured trailing window when omitted.
func (h *JobsHandler) TriggerTrending(c *gin.Context) {
	windowDays := 0
	if raw := c.Query("window_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			RespondError(c, http.StatusBadRequest, "invalid_window", fmt.Errorf("window_days must be a positive integer"))
			return
		}
		windowDays = parsed
	}
	h.trigger(c, "trending", func(ctx context.Context) error {
		return h.trending.Run(ctx, windowDays)
	})
}

func (h *JobsHandler) trigger(c *gin.Context, name string, run func(context.Context) error) {
	if err := run(c.Request.Context()); err != nil {
		h.log.Error("Triggered job failed", "job", name, "error", err)
		RespondError(c, http.StatusServiceUnavailable, "job_failed", err)
		return
	}
	RespondOK(c, gin.H{"job": name, "status": "completed"})
}

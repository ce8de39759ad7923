package app

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cgbookstore/bookrec-backend/internal/jobs"
	"github.com/cgbookstore/bookrec-backend/internal/logger"
	"github.com/cgbookstore/bookrec-backend/internal/recommend"
	"github.com/cgbookstore/bookrec-backend/internal/utils"
)

type Config struct {
	Weights            recommend.Weights
	CacheTTL           time.Duration
	ResultTTL          time.Duration
	TrendingWindowDays int
	JobIntervals       jobs.Intervals
}

// LoadConfig reads env configuration. Hybrid weights come from env vars, or
// wholesale from a yaml file when RECOMMEND_WEIGHTS_FILE is set (the file
// wins so operators can tune weights without a redeploy).
func LoadConfig(log *logger.Logger) Config {
	defaults := recommend.DefaultWeights()
	weights := recommend.Weights{
		Collaborative: utils.GetEnvAsFloat("WEIGHT_COLLABORATIVE", defaults.Collaborative, log),
		Content:       utils.GetEnvAsFloat("WEIGHT_CONTENT", defaults.Content, log),
		Trending:      utils.GetEnvAsFloat("WEIGHT_TRENDING", defaults.Trending, log),
	}
	if path := utils.GetEnv("RECOMMEND_WEIGHTS_FILE", "", log); path != "" {
		fileWeights, err := loadWeightsFile(path)
		if err != nil {
			log.Warn("Failed to load weights file, keeping env weights", "path", path, "error", err)
		} else {
			weights = fileWeights
		}
	}
	if !weights.Valid() {
		log.Warn("Configured weights invalid, using defaults")
		weights = defaults
	}

	cacheTTLSeconds := utils.GetEnvAsInt("RECOMMEND_CACHE_TTL", 3600, log)
	resultTTLSeconds := utils.GetEnvAsInt("RECOMMEND_RESULT_TTL", 86400, log)
	similaritySeconds := utils.GetEnvAsInt("SIMILARITY_REBUILD_INTERVAL", 86400, log)
	trendingSeconds := utils.GetEnvAsInt("TRENDING_REBUILD_INTERVAL", 21600, log)
	cleanupSeconds := utils.GetEnvAsInt("RECOMMEND_CLEANUP_INTERVAL", 86400, log)
	trendingWindowDays := utils.GetEnvAsInt("TRENDING_WINDOW_DAYS", 7, log)

	return Config{
		Weights:            weights,
		CacheTTL:           time.Duration(cacheTTLSeconds) * time.Second,
		ResultTTL:          time.Duration(resultTTLSeconds) * time.Second,
		TrendingWindowDays: trendingWindowDays,
		JobIntervals: jobs.Intervals{
			Similarity: time.Duration(similaritySeconds) * time.Second,
			Trending:   time.Duration(trendingSeconds) * time.Second,
			Cleanup:    time.Duration(cleanupSeconds) * time.Second,
		},
	}
}

func loadWeightsFile(path string) (recommend.Weights, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return recommend.Weights{}, fmt.Errorf("read weights file: %w", err)
	}
	var weights recommend.Weights
	if err := yaml.Unmarshal(raw, &weights); err != nil {
		return recommend.Weights{}, fmt.Errorf("parse weights file: %w", err)
	}
	return weights, nil
}

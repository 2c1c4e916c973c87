package config

import (
	"os"
	"strconv"
	"sync"
	"time"
)

// ScreeningConfig carries the routing thresholds and pipeline limits.
// Thresholds are tunable per deployment; rule order is fixed in the router.
type ScreeningConfig struct {
	ShortlistThreshold float64
	ReviewThreshold    float64
	ConfidenceFloor    float64
	MinExperience      float64
	ReferenceDocsDir   string
	Workers            int
	QueueSize          int
	PipelineTimeout    time.Duration
}

var (
	screeningConfig *ScreeningConfig
	screeningOnce   sync.Once
)

func LoadScreeningConfig() *ScreeningConfig {
	screeningOnce.Do(func() {
		screeningConfig = &ScreeningConfig{
			ShortlistThreshold: envFloat("SHORTLIST_THRESHOLD", 0.85),
			ReviewThreshold:    envFloat("REVIEW_THRESHOLD", 0.60),
			ConfidenceFloor:    envFloat("CONFIDENCE_FLOOR", 0.75),
			MinExperience:      envFloat("MIN_EXPERIENCE", 3),
			ReferenceDocsDir:   envString("REFERENCE_DOCS_DIR", "./data"),
			Workers:            envInt("SCREENING_WORKERS", 4),
			QueueSize:          envInt("SCREENING_QUEUE_SIZE", 64),
			PipelineTimeout:    envDuration("SCREENING_PIPELINE_TIMEOUT", 2*time.Minute),
		}
	})
	return screeningConfig
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

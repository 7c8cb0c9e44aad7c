// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/cygnusreader/folio/internal/document"
	"github.com/cygnusreader/folio/internal/paginate"
	"github.com/cygnusreader/folio/internal/theme"
)

type Config struct {
	Port string

	// Optional bearer token; empty disables auth.
	APIKey string

	// Layout defaults
	Theme    string
	Geometry document.Geometry
	Policy   paginate.Policy

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Session state
	DocTTL         time.Duration
	LayoutCacheTTL time.Duration

	RateLimitPerMinute int

	// Sources
	EPUBMaxImages        int
	PDFFallbackPdftotext bool
}

func Load() Config {
	defGeom := document.DefaultGeometry()
	defPolicy := paginate.DefaultPolicy()

	cfg := Config{
		Port:   envOr("PORT", "8090"),
		APIKey: os.Getenv("FOLIO_API_KEY"),
		Theme:  envOr("FOLIO_THEME", theme.DefaultName),

		Geometry: document.Geometry{
			Width:        envFloat("PAGE_WIDTH", defGeom.Width),
			Height:       envFloat("PAGE_HEIGHT", defGeom.Height),
			Padding:      envFloat("PAGE_PADDING", defGeom.Padding),
			BottomBuffer: envFloat("PAGE_BOTTOM_BUFFER", defGeom.BottomBuffer),
		},
		Policy: paginate.Policy{
			MinSplitLines:     envInt("MIN_SPLIT_LINES", defPolicy.MinSplitLines),
			OrphanLines:       envInt("ORPHAN_LINES", defPolicy.OrphanLines),
			WidowLines:        envInt("WIDOW_LINES", defPolicy.WidowLines),
			HeadingGuardRatio: envFloat("HEADING_GUARD_RATIO", defPolicy.HeadingGuardRatio),
			LineTolerance:     envFloat("LINE_TOLERANCE_PX", defPolicy.LineTolerance),
		},

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 64),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		DocTTL:         envDuration("DOC_TTL", 2*time.Hour),
		LayoutCacheTTL: envDuration("LAYOUT_CACHE_TTL", 30*time.Minute),

		RateLimitPerMinute: envInt("RATE_LIMIT_PER_MINUTE", 120),

		EPUBMaxImages:        envInt("EPUB_MAX_IMAGES", 30),
		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	positive(&cfg.Geometry.Width, defGeom.Width)
	positive(&cfg.Geometry.Height, defGeom.Height)
	positive(&cfg.Geometry.Padding, defGeom.Padding)
	if cfg.Geometry.BottomBuffer < 0 {
		cfg.Geometry.BottomBuffer = defGeom.BottomBuffer
	}
	if cfg.Policy.MinSplitLines <= 0 {
		cfg.Policy.MinSplitLines = defPolicy.MinSplitLines
	}
	if cfg.Policy.OrphanLines <= 0 {
		cfg.Policy.OrphanLines = defPolicy.OrphanLines
	}
	if cfg.Policy.WidowLines <= 0 {
		cfg.Policy.WidowLines = defPolicy.WidowLines
	}
	positive(&cfg.Policy.HeadingGuardRatio, defPolicy.HeadingGuardRatio)
	positive(&cfg.Policy.LineTolerance, defPolicy.LineTolerance)
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 64
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.DocTTL <= 0 {
		cfg.DocTTL = 2 * time.Hour
	}
	if cfg.LayoutCacheTTL <= 0 {
		cfg.LayoutCacheTTL = 30 * time.Minute
	}
	if cfg.RateLimitPerMinute <= 0 {
		cfg.RateLimitPerMinute = 120
	}
	if cfg.EPUBMaxImages <= 0 {
		cfg.EPUBMaxImages = 30
	}

	return cfg
}

func (c Config) Validate() error {
	if err := c.Geometry.Validate(); err != nil {
		return fmt.Errorf("page geometry: %w", err)
	}
	if err := c.Policy.Validate(); err != nil {
		return fmt.Errorf("pagination policy: %w", err)
	}
	if !theme.Exists(c.Theme) {
		return fmt.Errorf("FOLIO_THEME %q is not a known template", c.Theme)
	}
	return nil
}

func positive(v *float64, fallback float64) {
	if *v <= 0 {
		*v = fallback
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
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

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
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

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
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

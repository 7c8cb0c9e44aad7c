package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != "8090" {
		t.Errorf("expected port 8090, got %q", cfg.Port)
	}
	if cfg.Geometry.Capacity() != 931 {
		t.Errorf("expected capacity 931, got %g", cfg.Geometry.Capacity())
	}
	if cfg.Policy.MinSplitLines != 8 || cfg.Policy.HeadingGuardRatio != 0.10 {
		t.Errorf("unexpected policy %+v", cfg.Policy)
	}
	if cfg.DocTTL != 2*time.Hour || cfg.LayoutCacheTTL != 30*time.Minute {
		t.Errorf("unexpected ttls %v %v", cfg.DocTTL, cfg.LayoutCacheTTL)
	}
	if !cfg.PDFFallbackPdftotext {
		t.Errorf("expected pdftotext fallback enabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestLoadOverridesAndClamps(t *testing.T) {
	t.Setenv("PAGE_WIDTH", "600")
	t.Setenv("PAGE_PADDING", "-5")
	t.Setenv("WORKER_COUNT", "0")
	t.Setenv("DOC_TTL", "15m")
	t.Setenv("FOLIO_THEME", "luxe")
	t.Setenv("ORPHAN_LINES", "not-a-number")

	cfg := Load()
	if cfg.Geometry.Width != 600 {
		t.Errorf("expected width 600, got %g", cfg.Geometry.Width)
	}
	if cfg.Geometry.Padding != 80 {
		t.Errorf("expected padding clamped to 80, got %g", cfg.Geometry.Padding)
	}
	if cfg.WorkerCount != 2 {
		t.Errorf("expected worker count clamped to 2, got %d", cfg.WorkerCount)
	}
	if cfg.DocTTL != 15*time.Minute {
		t.Errorf("expected 15m ttl, got %v", cfg.DocTTL)
	}
	if cfg.Policy.OrphanLines != 2 {
		t.Errorf("expected orphan fallback 2, got %d", cfg.Policy.OrphanLines)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	cfg := Load()
	cfg.Theme = "neon"
	if err := cfg.Validate(); err == nil {
		t.Error("expected unknown theme to fail")
	}

	cfg = Load()
	cfg.Geometry.Padding = 400
	if err := cfg.Validate(); err == nil {
		t.Error("expected padding without content width to fail")
	}

	cfg = Load()
	cfg.Policy.MinSplitLines = 3
	if err := cfg.Validate(); err == nil {
		t.Error("expected min split lines below orphan+widow to fail")
	}
}

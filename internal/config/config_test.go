package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitAndGet(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Failed to initialize config: %v", err)
	}

	cfg := Get()
	if cfg == nil {
		t.Fatal("Expected config to be non-nil")
	}

	if cfg.Database.Path == "" {
		t.Error("Expected database path to be set")
	}
	if !filepath.IsAbs(cfg.Database.Path) {
		t.Error("Database path should be absolute")
	}
}

func TestConfigDefaults(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Failed to initialize config: %v", err)
	}

	cfg := Get()
	if cfg.UI.PageSize != 20 {
		t.Errorf("ui.page_size = %d, want 20", cfg.UI.PageSize)
	}
	if cfg.Turns.GapMinutes != 7 {
		t.Errorf("turns.gap_minutes = %d, want 7", cfg.Turns.GapMinutes)
	}
	if cfg.TurnGap().Minutes() != 7 {
		t.Errorf("TurnGap = %v", cfg.TurnGap())
	}
	if cfg.Serve.Addr == "" {
		t.Error("serve.addr should have a default")
	}
}

func TestPrefStoreRoundTrip(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "tapestry-prefs-test")
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			t.Errorf("Warning: failed to clean up temp dir: %v", err)
		}
	}()

	prefs, err := NewPrefStore(tmpDir)
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := prefs.Get("pagesize:conversations"); ok {
		t.Error("fresh store should have no values")
	}

	prefs.Set("pagesize:conversations", "50")
	if v, ok := prefs.Get("pagesize:conversations"); !ok || v != "50" {
		t.Errorf("got %q, %t", v, ok)
	}

	// A second store over the same directory sees the persisted value.
	reloaded, err := NewPrefStore(tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := reloaded.Get("pagesize:conversations"); !ok || v != "50" {
		t.Errorf("persisted value = %q, %t", v, ok)
	}
}

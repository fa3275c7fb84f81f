package pzconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.NumPtagBits != 2 {
		t.Errorf("NumPtagBits = %d, want 2", cfg.NumPtagBits)
	}
	if cfg.CachePath != "" {
		t.Errorf("CachePath = %q, want empty", cfg.CachePath)
	}
}

func TestLoadEmptyPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") returned error: %v", err)
	}
	if cfg != Default() {
		t.Errorf("Load(\"\") = %+v, want Default()", cfg)
	}
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load(missing) returned error: %v", err)
	}
	if cfg != Default() {
		t.Errorf("Load(missing) = %+v, want Default()", cfg)
	}
}

func TestLoadValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plasmac.yaml")
	content := "num_ptag_bits: 2\ncache_path: build.db\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.CachePath != "build.db" {
		t.Errorf("CachePath = %q, want %q", cfg.CachePath, "build.db")
	}
}

func TestLoadRejectsNonTwoPtagBits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plasmac.yaml")
	content := "num_ptag_bits: 3\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("Load() with num_ptag_bits: 3 should have failed")
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plasmac.yaml")
	content := "num_ptag_bits: [this is not an int\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("Load() with malformed YAML should have failed")
	}
}

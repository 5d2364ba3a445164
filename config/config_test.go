package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsComplete(t *testing.T) {
	cfg := Default()
	if cfg.Reels.Width != 1080 || cfg.Reels.Height != 1920 || cfg.Reels.FPS != 24 {
		t.Errorf("reels defaults = %+v", cfg.Reels)
	}
	if cfg.Audio.SampleRate != 44100 || cfg.Audio.NarrationGain != 3.0 {
		t.Errorf("audio defaults = %+v", cfg.Audio)
	}
	if cfg.Script.MaxMediaRetries != 3 {
		t.Errorf("max media retries = %d", cfg.Script.MaxMediaRetries)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Reels.Width != 1080 {
		t.Errorf("width = %d, want default", cfg.Reels.Width)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "reels:\n  fps: 30\naudio:\n  bgm_volume: 0.4\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Reels.FPS != 30 {
		t.Errorf("fps = %d, want 30", cfg.Reels.FPS)
	}
	if cfg.Audio.BGMVolume != 0.4 {
		t.Errorf("bgm volume = %v, want 0.4", cfg.Audio.BGMVolume)
	}
	// Untouched fields keep their defaults.
	if cfg.Reels.Width != 1080 || cfg.Audio.SampleRate != 44100 {
		t.Errorf("defaults lost: %+v %+v", cfg.Reels, cfg.Audio)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("reels: [not a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestAspectRatio(t *testing.T) {
	cfg := Default()
	if got := cfg.AspectRatio(); got != 1080.0/1920.0 {
		t.Errorf("AspectRatio = %v", got)
	}
}

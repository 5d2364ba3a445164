// Package soundtrack acquires background music by mood and transition
// sound effects, caching everything locally so repeat runs stay
// offline.
package soundtrack

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"reelforge/config"
	"reelforge/media"
)

// Fetcher downloads and caches audio via yt-dlp.
type Fetcher struct {
	cfg *config.Config
}

func New(cfg *config.Config) *Fetcher {
	return &Fetcher{cfg: cfg}
}

// BGM returns a local music file matching the mood. Cached files are
// reused without re-validation; a fresh download is probed before being
// accepted. Returns an empty path (not an error) when nothing could be
// acquired, since music is an optional layer.
func (f *Fetcher) BGM(ctx context.Context, mood string) string {
	mood = sanitizeMood(mood)
	if cached := findCached(f.cfg.Paths.Music, "bgm_"+mood+"_"); cached != "" {
		log.Printf("[soundtrack] Using cached BGM %s", filepath.Base(cached))
		return cached
	}

	query := fmt.Sprintf("%s background music no copyright", mood)
	out := filepath.Join(f.cfg.Paths.Music, fmt.Sprintf("bgm_%s_%s.mp3", mood, uuid.New().String()[:8]))
	if err := f.download(ctx, query, out, nil); err != nil {
		log.Printf("[soundtrack] Warning: BGM download failed: %v — continuing without music", err)
		return ""
	}

	if dur, err := media.Duration(ctx, out); err != nil || dur < 5 {
		log.Printf("[soundtrack] Warning: downloaded BGM unusable (dur err %v) — continuing without music", err)
		os.Remove(out)
		return ""
	}
	log.Printf("[soundtrack] Downloaded BGM for mood %q", mood)
	return out
}

// SFX returns a local transition sound by name, downloading a short
// clip on cache miss. Optional like BGM.
func (f *Fetcher) SFX(ctx context.Context, name string) string {
	name = sanitizeMood(name)
	if cached := findCached(f.cfg.Paths.SFX, name+"_"); cached != "" {
		return cached
	}

	query := fmt.Sprintf("%s sound effect", name)
	out := filepath.Join(f.cfg.Paths.SFX, fmt.Sprintf("%s_%s.mp3", name, uuid.New().String()[:8]))
	// Transition stingers are a second or two; a full track would smear
	// across scene boundaries.
	extra := []string{"--match-filter", "duration < 30"}
	if err := f.download(ctx, query, out, extra); err != nil {
		log.Printf("[soundtrack] Warning: SFX download failed: %v — transitions will be silent", err)
		return ""
	}
	log.Printf("[soundtrack] Downloaded SFX %q", name)
	return out
}

func (f *Fetcher) download(ctx context.Context, query, out string, extra []string) error {
	if _, err := exec.LookPath("yt-dlp"); err != nil {
		return fmt.Errorf("yt-dlp not found")
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}

	args := []string{
		"ytsearch1:" + query,
		"-x", "--audio-format", "mp3",
		"--no-playlist",
		"-o", strings.TrimSuffix(out, ".mp3") + ".%(ext)s",
	}
	args = append(args, extra...)

	cmd := exec.CommandContext(ctx, "yt-dlp", args...)
	if outBytes, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("yt-dlp: %w\n%s", err, tail(string(outBytes)))
	}
	if _, err := os.Stat(out); err != nil {
		return fmt.Errorf("yt-dlp produced no file")
	}
	return nil
}

// findCached returns the first cached file with the given prefix.
func findCached(dir, prefix string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), prefix) {
			return filepath.Join(dir, e.Name())
		}
	}
	return ""
}

// sanitizeMood keeps cache filenames flat and predictable.
func sanitizeMood(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "upbeat"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, s)
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= 400 {
		return s
	}
	return "..." + s[len(s)-400:]
}

package soundtrack

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSanitizeMood(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Upbeat", "upbeat"},
		{"  Chill  ", "chill"},
		{"lo-fi beats", "lo-fi-beats"},
		{"", "upbeat"},
		{"drama!!", "drama--"},
	}
	for _, tt := range tests {
		if got := sanitizeMood(tt.in); got != tt.want {
			t.Errorf("sanitizeMood(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFindCached(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"bgm_chill_ab12.mp3", "whoosh_cd34.mp3"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if got := findCached(dir, "bgm_chill_"); filepath.Base(got) != "bgm_chill_ab12.mp3" {
		t.Errorf("findCached bgm = %q", got)
	}
	if got := findCached(dir, "bgm_upbeat_"); got != "" {
		t.Errorf("unexpected cache hit: %q", got)
	}
	if got := findCached(filepath.Join(dir, "missing"), "x_"); got != "" {
		t.Errorf("missing dir should miss, got %q", got)
	}
}

package research

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCleanTitle(t *testing.T) {
	tests := []struct{ in, want string }{
		{"TIL that honey never spoils", "honey never spoils"},
		{"TIL: octopuses have three hearts", "octopuses have three hearts"},
		{"LPT: always read the contract", "always read the contract"},
		{"  plain topic  ", "plain topic"},
		{"ELI5 about black holes", "black holes"},
	}
	for _, tt := range tests {
		if got := CleanTitle(tt.in); got != tt.want {
			t.Errorf("CleanTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUsedTopicsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "used.json")

	used := map[string]bool{"honey never spoils": true, "black holes": true}
	saveUsedTopics(path, used)

	loaded := loadUsedTopics(path)
	if len(loaded) != 2 || !loaded["honey never spoils"] || !loaded["black holes"] {
		t.Errorf("loaded = %v", loaded)
	}
}

func TestLoadUsedTopicsMissingFile(t *testing.T) {
	loaded := loadUsedTopics(filepath.Join(t.TempDir(), "nope.json"))
	if len(loaded) != 0 {
		t.Errorf("expected empty map, got %v", loaded)
	}
}

func TestLoadUsedTopicsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if loaded := loadUsedTopics(path); len(loaded) != 0 {
		t.Errorf("expected empty map for corrupt file, got %v", loaded)
	}
}

package mediares

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"reelforge/config"
	"reelforge/types"
	"reelforge/validate"
)

type fakeSearcher struct {
	dir      string
	fetched  int
	searches []string
	failAll  bool
}

func (f *fakeSearcher) Search(ctx context.Context, keyword string) (*Candidate, error) {
	f.searches = append(f.searches, keyword)
	if f.failAll {
		return nil, fmt.Errorf("no results for %q", keyword)
	}
	return &Candidate{FileURL: "http://x/" + keyword, Keyword: keyword}, nil
}

func (f *fakeSearcher) Fetch(ctx context.Context, cand *Candidate) (string, error) {
	f.fetched++
	path := filepath.Join(f.dir, fmt.Sprintf("clip_%d.mp4", f.fetched))
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

type fakeJudge struct {
	accepts     []bool
	suggestions []string
	calls       int
}

func (f *fakeJudge) Check(ctx context.Context, scene *types.Scene, cand validate.Candidate) (bool, string) {
	ok := false
	if f.calls < len(f.accepts) {
		ok = f.accepts[f.calls]
	}
	var hint string
	if f.calls < len(f.suggestions) {
		hint = f.suggestions[f.calls]
	}
	f.calls++
	return ok, hint
}

func testScene() *types.Scene {
	return &types.Scene{Index: 1, Duration: 4, VisualKeywords: []string{"ocean waves", "beach", "water"}}
}

func TestResolveFirstAttemptAccepted(t *testing.T) {
	s := &fakeSearcher{dir: t.TempDir()}
	r := New(config.Default(), s, &fakeJudge{accepts: []bool{true}})

	scene := testScene()
	res := r.Resolve(context.Background(), scene)
	if res.State != Validated {
		t.Fatalf("state = %v, want Validated", res.State)
	}
	if scene.MediaPath != res.Path || res.Path == "" {
		t.Errorf("scene.MediaPath = %q, res.Path = %q", scene.MediaPath, res.Path)
	}
	if len(s.searches) != 1 || s.searches[0] != "ocean waves" {
		t.Errorf("searches = %v", s.searches)
	}
}

func TestResolveRetriesWalkKeywords(t *testing.T) {
	s := &fakeSearcher{dir: t.TempDir()}
	r := New(config.Default(), s, &fakeJudge{accepts: []bool{false, true}})

	scene := testScene()
	res := r.Resolve(context.Background(), scene)
	if res.State != Validated {
		t.Fatalf("state = %v, want Validated", res.State)
	}
	if len(s.searches) != 2 || s.searches[1] != "beach" {
		t.Errorf("searches = %v, want second attempt on next keyword", s.searches)
	}
}

func TestResolveExhaustedUsesLastRejected(t *testing.T) {
	s := &fakeSearcher{dir: t.TempDir()}
	j := &fakeJudge{accepts: []bool{false, false, false}}
	r := New(config.Default(), s, j)

	scene := testScene()
	res := r.Resolve(context.Background(), scene)
	if res.State != Fallback {
		t.Fatalf("state = %v, want Fallback", res.State)
	}
	if res.Path == "" || scene.MediaPath != res.Path {
		t.Errorf("fallback path not carried: %q / %q", res.Path, scene.MediaPath)
	}
	if _, err := os.Stat(res.Path); err != nil {
		t.Errorf("fallback clip missing on disk: %v", err)
	}
	if j.calls != 3 {
		t.Errorf("judge calls = %d, want 3", j.calls)
	}
}

func TestResolveSuggestionOverridesKeyword(t *testing.T) {
	s := &fakeSearcher{dir: t.TempDir()}
	j := &fakeJudge{accepts: []bool{false, true}, suggestions: []string{"storm clouds"}}
	r := New(config.Default(), s, j)

	res := r.Resolve(context.Background(), testScene())
	if res.State != Validated {
		t.Fatalf("state = %v, want Validated", res.State)
	}
	if len(s.searches) != 2 || s.searches[1] != "storm clouds" {
		t.Errorf("searches = %v, want judge suggestion on retry", s.searches)
	}
}

func TestResolveSupersededCandidatesRemoved(t *testing.T) {
	s := &fakeSearcher{dir: t.TempDir()}
	r := New(config.Default(), s, &fakeJudge{accepts: []bool{false, false, true}})

	res := r.Resolve(context.Background(), testScene())
	if res.State != Validated {
		t.Fatalf("state = %v, want Validated", res.State)
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("cache holds %d clips, want 1 (rejected ones removed)", len(entries))
	}
}

func TestResolveNothingFetched(t *testing.T) {
	s := &fakeSearcher{dir: t.TempDir(), failAll: true}
	r := New(config.Default(), s, &fakeJudge{})

	scene := testScene()
	res := r.Resolve(context.Background(), scene)
	if res.State != Unresolved || res.Path != "" {
		t.Errorf("res = %+v, want Unresolved with no path", res)
	}
	if scene.MediaPath != "" {
		t.Errorf("scene.MediaPath = %q, want empty", scene.MediaPath)
	}
}

func TestKeywordForClampsToLast(t *testing.T) {
	scene := testScene()
	if kw := keywordFor(scene, 5); kw != "water" {
		t.Errorf("keywordFor(5) = %q, want last keyword", kw)
	}
	empty := &types.Scene{Index: 2}
	if kw := keywordFor(empty, 0); kw != "general" {
		t.Errorf("keywordFor on empty list = %q, want general", kw)
	}
}

func TestBestFilePrefersHD(t *testing.T) {
	files := []videoFile{
		{Quality: "sd", Width: 540, Height: 960, Link: "sd"},
		{Quality: "hd", Width: 1080, Height: 1920, Link: "hd1080"},
		{Quality: "hd", Width: 2160, Height: 3840, Link: "uhd"},
	}
	if got := bestFile(files); got != "hd1080" {
		t.Errorf("bestFile = %q, want hd1080", got)
	}
	// No HD rendition: largest wins.
	if got := bestFile(files[:1]); got != "sd" {
		t.Errorf("bestFile = %q, want sd", got)
	}
}

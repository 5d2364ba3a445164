package caption

import (
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"reelforge/config"

	"golang.org/x/image/font/gofont/goregular"
)

func testRenderer() *Renderer {
	cfg := config.Default().Text
	// Point at a path that does not exist so every environment gets the
	// deterministic built-in face.
	cfg.FontPath = filepath.Join(os.TempDir(), "definitely-missing.ttf")
	cfg.FontSize = 13
	cfg.MaxWidth = 220
	cfg.BGPadding = 10
	cfg.StrokeWidth = 1
	return New(cfg)
}

func TestParseSpansMatchedPair(t *testing.T) {
	spans := ParseSpans("Save *this*!")
	want := []Span{
		{Text: "Save ", Highlight: false},
		{Text: "this", Highlight: true},
		{Text: "!", Highlight: false},
	}
	if len(spans) != len(want) {
		t.Fatalf("got %d spans %v, want %d", len(spans), spans, len(want))
	}
	for i := range want {
		if spans[i] != want[i] {
			t.Errorf("span %d = %+v, want %+v", i, spans[i], want[i])
		}
	}
}

func TestParseSpansDanglingMarker(t *testing.T) {
	spans := ParseSpans("watch *out")
	if len(spans) != 2 {
		t.Fatalf("got %d spans %v, want 2", len(spans), spans)
	}
	if spans[0].Highlight || spans[0].Text != "watch " {
		t.Errorf("unexpected first span: %+v", spans[0])
	}
	if !spans[1].Highlight || spans[1].Text != "out" {
		t.Errorf("dangling marker should highlight to end of string, got %+v", spans[1])
	}
}

func TestParseSpansMarkerOnly(t *testing.T) {
	if spans := ParseSpans("***"); len(spans) != 0 {
		t.Errorf("marker-only input should yield no spans, got %v", spans)
	}
}

func TestStripMarkers(t *testing.T) {
	if got := StripMarkers("a *b* c"); got != "a b c" {
		t.Errorf("StripMarkers = %q", got)
	}
}

func TestWrapRespectsMaxWidth(t *testing.T) {
	r := testRenderer()
	usable := r.cfg.MaxWidth - 2*r.cfg.BGPadding

	lines := r.Wrap("the quick brown fox jumps over the *lazy* dog again and again")
	if len(lines) < 2 {
		t.Fatalf("expected wrapping, got %d line(s): %v", len(lines), lines)
	}
	for _, line := range lines {
		if w := r.measure(StripMarkers(line)); w > usable {
			t.Errorf("line %q measures %dpx, over the %dpx limit", line, w, usable)
		}
	}
}

func TestWrapMarkersDoNotAffectWidth(t *testing.T) {
	r := testRenderer()
	plain := r.Wrap("alpha beta gamma delta epsilon zeta eta theta")
	marked := r.Wrap("alpha beta *gamma* delta epsilon *zeta* eta theta")
	if len(plain) != len(marked) {
		t.Fatalf("marker presence changed wrapping: %v vs %v", plain, marked)
	}
	for i := range plain {
		if StripMarkers(marked[i]) != plain[i] {
			t.Errorf("line %d: %q vs %q", i, marked[i], plain[i])
		}
	}
}

func TestWrapOverlongWordGetsOwnLine(t *testing.T) {
	r := testRenderer()
	lines := r.Wrap("supercalifragilisticexpialidociousandthensomemore ok")
	if len(lines) != 2 {
		t.Fatalf("got %v, want the overlong word isolated on its own line", lines)
	}
}

func TestRenderWritesTransparentPNG(t *testing.T) {
	r := testRenderer()
	dir := t.TempDir()

	path, w, h, err := r.Render("Save *this* tip!", dir)
	if err != nil {
		t.Fatal(err)
	}
	if w <= 0 || h <= 0 {
		t.Fatalf("reported size %dx%d", w, h)
	}
	if !strings.HasPrefix(filepath.Base(path), "overlay_") {
		t.Errorf("unexpected overlay name: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != w || img.Bounds().Dy() != h {
		t.Errorf("decoded size %v, reported %dx%d", img.Bounds(), w, h)
	}

	// Background box is enabled at alpha 180: a corner pixel outside the
	// rounded radius must stay fully transparent.
	_, _, _, a := img.At(0, 0).RGBA()
	if a != 0 {
		t.Errorf("corner pixel alpha = %d, want transparent", a)
	}
	// A pixel well inside the box carries the translucent background.
	_, _, _, a = img.At(w/2, h/2).RGBA()
	if a == 0 {
		t.Error("center pixel is transparent, expected background box")
	}
}

func TestRenderEmptyTextFails(t *testing.T) {
	r := testRenderer()
	if _, _, _, err := r.Render("   ", t.TempDir()); err == nil {
		t.Error("expected error for whitespace-only caption")
	}
}

// Scene clips are built in parallel, so Render must be safe with a real
// opentype face, whose glyph buffers are not goroutine-safe on their own.
func TestRenderConcurrentWithOpentypeFace(t *testing.T) {
	fontPath := filepath.Join(t.TempDir(), "regular.ttf")
	if err := os.WriteFile(fontPath, goregular.TTF, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default().Text
	cfg.FontPath = fontPath
	r := New(cfg)

	dir := t.TempDir()
	errs := make(chan error, 80)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if _, _, _, err := r.Render("shared *face* under load", dir); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent render failed: %v", err)
	}
}

func TestRenderMissingFontFallsBack(t *testing.T) {
	cfg := config.Default().Text
	cfg.FontPath = "/nonexistent/font.ttf"
	r := New(cfg)
	if r.face == nil {
		t.Fatal("renderer has no face after fallback")
	}
	if _, _, _, err := r.Render("still *works*", t.TempDir()); err != nil {
		t.Fatalf("render with fallback font failed: %v", err)
	}
}

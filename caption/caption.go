// Package caption renders styled on-screen text into transparent PNG
// overlays: greedy word wrap, *marker* highlight spans, stroked glyphs,
// and an optional translucent rounded background box.
package caption

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"reelforge/config"

	"github.com/google/uuid"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Marker is the highlight delimiter recognized in caption text.
const Marker = '*'

// Span is a run of caption text rendered in a single color.
type Span struct {
	Text      string
	Highlight bool
}

// ParseSpans splits a line into colored spans with a two-state toggle:
// each marker flips the highlight flag. A dangling marker highlights
// through the end of the string instead of failing.
func ParseSpans(line string) []Span {
	var spans []Span
	var cur strings.Builder
	highlight := false

	for _, r := range line {
		if r == Marker {
			if cur.Len() > 0 {
				spans = append(spans, Span{Text: cur.String(), Highlight: highlight})
				cur.Reset()
			}
			highlight = !highlight
			continue
		}
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		spans = append(spans, Span{Text: cur.String(), Highlight: highlight})
	}
	return spans
}

// StripMarkers removes highlight markers so they never affect measuring
// or the rendered glyphs.
func StripMarkers(s string) string {
	return strings.ReplaceAll(s, string(Marker), "")
}

// Renderer draws caption overlays with one loaded face and color scheme.
// Render serializes on an internal mutex: opentype faces share glyph
// buffers and must not be used from more than one goroutine at a time.
type Renderer struct {
	cfg       config.TextConfig
	mu        sync.Mutex
	face      font.Face
	base      color.Color
	highlight color.Color
	stroke    color.Color
	bg        color.RGBA
}

// New builds a Renderer from the text configuration. A font that cannot
// be loaded is not an error: the built-in bitmap face is used instead so
// caption rendering never takes the scene down.
func New(cfg config.TextConfig) *Renderer {
	bg := parseColor(cfg.BGColor)
	r, g, b, _ := bg.RGBA()
	return &Renderer{
		cfg:       cfg,
		face:      loadFace(cfg),
		base:      parseColor(cfg.Color),
		highlight: parseColor(cfg.HighlightColor),
		stroke:    parseColor(cfg.StrokeColor),
		bg:        color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), cfg.BGAlpha},
	}
}

func loadFace(cfg config.TextConfig) font.Face {
	data, err := os.ReadFile(cfg.FontPath)
	if err != nil {
		log.Printf("[caption] Warning: font %q not readable: %v — using built-in default font", cfg.FontPath, err)
		return basicfont.Face7x13
	}

	fnt, err := opentype.Parse(data)
	if err != nil {
		// .ttc files need the collection path; the config picks the face.
		coll, cerr := opentype.ParseCollection(data)
		if cerr != nil {
			log.Printf("[caption] Warning: cannot parse font %q: %v — using built-in default font", cfg.FontPath, err)
			return basicfont.Face7x13
		}
		fnt, err = coll.Font(cfg.FontIndex)
		if err != nil {
			log.Printf("[caption] Warning: font index %d not in %q: %v — using built-in default font", cfg.FontIndex, cfg.FontPath, err)
			return basicfont.Face7x13
		}
	}

	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    cfg.FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		log.Printf("[caption] Warning: cannot build face for %q: %v — using built-in default font", cfg.FontPath, err)
		return basicfont.Face7x13
	}
	return face
}

// Wrap greedily packs words into lines whose marker-stripped width stays
// inside the usable width (max width minus background padding).
func (r *Renderer) Wrap(text string) []string {
	usable := r.cfg.MaxWidth - 2*r.cfg.BGPadding
	words := strings.Fields(text)

	var lines []string
	var current []string
	for _, word := range words {
		candidate := strings.Join(append(current, word), " ")
		if r.measure(StripMarkers(candidate)) <= usable || len(current) == 0 {
			current = append(current, word)
			continue
		}
		lines = append(lines, strings.Join(current, " "))
		current = []string{word}
	}
	if len(current) > 0 {
		lines = append(lines, strings.Join(current, " "))
	}
	return lines
}

func (r *Renderer) measure(s string) int {
	return font.MeasureString(r.face, s).Ceil()
}

func (r *Renderer) lineHeight() int {
	m := r.face.Metrics()
	return (m.Ascent + m.Descent).Ceil()
}

// Render draws the caption into a transparent PNG under dir and returns
// its path plus pixel dimensions. It is safe to call from concurrent
// scene builds.
func (r *Renderer) Render(text, dir string) (string, int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lines := r.Wrap(text)
	if len(lines) == 0 {
		return "", 0, 0, fmt.Errorf("caption text is empty")
	}

	lineH := r.lineHeight()
	gap := int(math.Round(float64(lineH) * (r.cfg.LineSpacing - 1)))

	maxLineW := 0
	for _, line := range lines {
		if w := r.measure(StripMarkers(line)); w > maxLineW {
			maxLineW = w
		}
	}

	imgW := maxLineW + 2*r.cfg.BGPadding
	imgH := len(lines)*lineH + (len(lines)-1)*gap + 2*r.cfg.BGPadding

	img := image.NewRGBA(image.Rect(0, 0, imgW, imgH))
	if r.cfg.BGEnabled {
		fillRoundedRect(img, r.cfg.BorderRadius, r.bg)
	}

	ascent := r.face.Metrics().Ascent.Ceil()
	y := r.cfg.BGPadding
	for _, line := range lines {
		lineW := r.measure(StripMarkers(line))
		x := (imgW - lineW) / 2

		for _, span := range ParseSpans(line) {
			fill := r.base
			if span.Highlight {
				fill = r.highlight
			}
			r.drawStroked(img, span.Text, x, y+ascent, fill)
			x += r.measure(span.Text)
		}
		y += lineH + gap
	}

	path := filepath.Join(dir, fmt.Sprintf("overlay_%s.png", uuid.NewString()))
	f, err := os.Create(path)
	if err != nil {
		return "", 0, 0, err
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return "", 0, 0, fmt.Errorf("encode overlay: %w", err)
	}
	return path, imgW, imgH, nil
}

// drawStroked renders the outline by stamping the string at every offset
// within the stroke radius, then the fill on top.
func (r *Renderer) drawStroked(dst *image.RGBA, s string, x, baseline int, fill color.Color) {
	sw := r.cfg.StrokeWidth
	for dy := -sw; dy <= sw; dy++ {
		for dx := -sw; dx <= sw; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			r.drawString(dst, s, x+dx, baseline+dy, r.stroke)
		}
	}
	r.drawString(dst, s, x, baseline, fill)
}

func (r *Renderer) drawString(dst *image.RGBA, s string, x, baseline int, col color.Color) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: r.face,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(s)
}

// fillRoundedRect paints the whole image with a rounded rectangle of the
// given corner radius. The canvas starts fully transparent, so a plain
// per-pixel set is enough.
func fillRoundedRect(img *image.RGBA, radius int, col color.RGBA) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if radius > w/2 {
		radius = w / 2
	}
	if radius > h/2 {
		radius = h / 2
	}
	rr := float64(radius)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// Distance from the nearest corner circle center, if the
			// pixel sits in a corner square.
			cx, cy := -1.0, -1.0
			if x < radius {
				cx = rr - 0.5
			} else if x >= w-radius {
				cx = float64(w) - rr - 0.5
			}
			if y < radius {
				cy = rr - 0.5
			} else if y >= h-radius {
				cy = float64(h) - rr - 0.5
			}
			if cx >= 0 && cy >= 0 {
				dx := float64(x) - cx
				dy := float64(y) - cy
				if dx*dx+dy*dy > rr*rr {
					continue
				}
			}
			img.SetRGBA(x, y, col)
		}
	}
}

// parseColor understands the small palette the original styling used plus
// #rrggbb hex values; unknown names render white.
func parseColor(s string) color.Color {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "black":
		return color.RGBA{0, 0, 0, 255}
	case "white", "":
		return color.RGBA{255, 255, 255, 255}
	case "yellow":
		return color.RGBA{255, 221, 0, 255}
	case "red":
		return color.RGBA{230, 40, 40, 255}
	case "green":
		return color.RGBA{40, 200, 90, 255}
	case "blue":
		return color.RGBA{50, 120, 255, 255}
	}
	if strings.HasPrefix(s, "#") && len(s) == 7 {
		var r, g, b uint8
		if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err == nil {
			return color.RGBA{r, g, b, 255}
		}
	}
	return color.RGBA{255, 255, 255, 255}
}

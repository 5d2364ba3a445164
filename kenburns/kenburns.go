// Package kenburns animates a still image with a slowly panning and
// zooming crop. Every frame is a pure function of time, so clips can be
// sampled, seeked, and re-rendered deterministically.
package kenburns

import (
	"fmt"
	"image"
	"io"
	"math"
	"os"

	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

// Focus is a relative focal point inside the source image, both axes in
// [0, 1]. (0.5, 0.5) keeps the viewport centered.
type Focus struct {
	X float64
	Y float64
}

// Trajectory describes the camera move: zoom and focal point at the start
// and end of the clip, linearly interpolated in between. Zoom values below
// 1.0 are treated as 1.0 — the viewport never grows past the source.
type Trajectory struct {
	StartZoom  float64
	EndZoom    float64
	StartFocus Focus
	EndFocus   Focus
}

// DefaultTrajectory is the slow center zoom-in used when the script does
// not ask for anything specific.
func DefaultTrajectory() Trajectory {
	return Trajectory{
		StartZoom:  1.0,
		EndZoom:    1.2,
		StartFocus: Focus{X: 0.5, Y: 0.5},
		EndFocus:   Focus{X: 0.5, Y: 0.5},
	}
}

// viewport is a crop rectangle in source pixels, kept as floats so the
// interpolation stays smooth and only rounds at frame render time.
type viewport struct {
	left, top      float64
	width, height  float64
}

// Clip renders a moving crop of a still image at a fixed target size.
type Clip struct {
	src      image.Image
	srcW     int
	srcH     int
	duration float64
	targetW  int
	targetH  int
	start    viewport
	end      viewport
}

// Open decodes the source image and precomputes the start and end
// viewports for the given trajectory.
func Open(path string, duration float64, targetW, targetH int, traj Trajectory) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return NewClip(src, duration, targetW, targetH, traj)
}

// NewClip builds a clip from an already-decoded image.
func NewClip(src image.Image, duration float64, targetW, targetH int, traj Trajectory) (*Clip, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("clip duration must be positive, got %.2f", duration)
	}
	if targetW <= 0 || targetH <= 0 {
		return nil, fmt.Errorf("invalid target resolution %dx%d", targetW, targetH)
	}

	b := src.Bounds()
	c := &Clip{
		src:      src,
		srcW:     b.Dx(),
		srcH:     b.Dy(),
		duration: duration,
		targetW:  targetW,
		targetH:  targetH,
	}
	aspect := float64(targetW) / float64(targetH)
	c.start = c.viewportFor(traj.StartZoom, traj.StartFocus, aspect)
	c.end = c.viewportFor(traj.EndZoom, traj.EndFocus, aspect)
	return c, nil
}

// viewportFor sizes a crop window to source_dimension/zoom at the target
// aspect ratio, clamped so it never leaves the source image.
func (c *Clip) viewportFor(zoom float64, focus Focus, aspect float64) viewport {
	if zoom < 1.0 {
		zoom = 1.0
	}

	w := float64(c.srcW) / zoom
	h := w / aspect
	if h > float64(c.srcH) {
		h = float64(c.srcH)
		w = h * aspect
	}
	if w > float64(c.srcW) {
		w = float64(c.srcW)
		h = w / aspect
	}

	left := float64(c.srcW)*clamp01(focus.X) - w/2
	top := float64(c.srcH)*clamp01(focus.Y) - h/2
	left = clamp(left, 0, float64(c.srcW)-w)
	top = clamp(top, 0, float64(c.srcH)-h)

	return viewport{left: left, top: top, width: w, height: h}
}

// Duration returns the clip length in seconds.
func (c *Clip) Duration() float64 { return c.duration }

// ViewportAt returns the crop rectangle at time t, clamped to the clip's
// time range and to the source image bounds.
func (c *Clip) ViewportAt(t float64) image.Rectangle {
	vp := c.viewportAt(t)
	r := image.Rect(
		int(math.Round(vp.left)),
		int(math.Round(vp.top)),
		int(math.Round(vp.left+vp.width)),
		int(math.Round(vp.top+vp.height)),
	)
	return r.Intersect(image.Rect(0, 0, c.srcW, c.srcH).Add(c.src.Bounds().Min))
}

func (c *Clip) viewportAt(t float64) viewport {
	p := clamp(t/c.duration, 0, 1)
	return viewport{
		left:   lerp(c.start.left, c.end.left, p),
		top:    lerp(c.start.top, c.end.top, p),
		width:  lerp(c.start.width, c.end.width, p),
		height: lerp(c.start.height, c.end.height, p),
	}
}

// FrameAt crops the source to the viewport at time t and resizes it to
// the exact target resolution with Catmull-Rom resampling.
func (c *Clip) FrameAt(t float64) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, c.targetW, c.targetH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), c.src, c.ViewportAt(t), xdraw.Src, nil)
	return dst
}

// WriteFrames streams the clip as raw RGBA frames, one per 1/fps step,
// in the layout ffmpeg expects for `-f rawvideo -pixel_format rgba`.
func (c *Clip) WriteFrames(w io.Writer, fps int) error {
	frames := int(math.Round(c.duration * float64(fps)))
	if frames < 1 {
		frames = 1
	}
	for i := 0; i < frames; i++ {
		frame := c.FrameAt(float64(i) / float64(fps))
		if _, err := w.Write(frame.Pix); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	return nil
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float64) float64 { return clamp(v, 0, 1) }

package assemble

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"reelforge/media"
)

// concatList builds the concat-demuxer playlist body for the given
// segment paths. Single quotes inside a path are escaped the way the
// demuxer expects.
func concatList(paths []string) string {
	var b strings.Builder
	for _, p := range paths {
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(p, "'", `'\''`))
	}
	return b.String()
}

// concatClips joins the uniform scene segments into one timeline with
// stream copy. Segments share codecs, resolution and sample rate, so no
// re-encode happens here. A failure at this stage is structural and
// aborts the run.
func (a *Assembler) concatClips(ctx context.Context, paths []string, dir string) (string, error) {
	listPath := filepath.Join(dir, "timeline.txt")
	if err := os.WriteFile(listPath, []byte(concatList(paths)), 0o644); err != nil {
		return "", fmt.Errorf("write concat list: %w", err)
	}

	out := filepath.Join(dir, "timeline.mp4")
	err := media.Run(ctx, "ffmpeg",
		"-y",
		"-f", "concat", "-safe", "0",
		"-i", listPath,
		"-c", "copy",
		out,
	)
	if err != nil {
		return "", fmt.Errorf("concat timeline: %w", err)
	}
	return out, nil
}

// Package media isolates every ffmpeg/ffprobe interaction behind a small
// set of primitives so the assembly engine stays library-agnostic.
package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
)

// Run executes a media tool and swallows its console noise unless it
// fails, in which case the tail of the combined output is attached to the
// returned error for diagnostics.
func Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w\n%s", name, err, tail(out.String(), 800))
	}
	return nil
}

// RunWithStdin is Run for commands fed through stdin (raw frame streams).
// writeStdin is called once the process is started; its error is reported
// in preference to a broken-pipe exit status.
func RunWithStdin(ctx context.Context, writeStdin func(io.Writer) error, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("%s stdin: %w", name, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s start: %w", name, err)
	}

	writeErr := writeStdin(stdin)
	stdin.Close()

	if err := cmd.Wait(); err != nil {
		if writeErr != nil {
			return fmt.Errorf("%s frame stream: %w", name, writeErr)
		}
		return fmt.Errorf("%s: %w\n%s", name, err, tail(out.String(), 800))
	}
	return writeErr
}

// Output runs a probe-style command and returns its trimmed stdout.
func Output(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Duration returns the container duration of a media file in seconds.
func Duration(ctx context.Context, path string) (float64, error) {
	out, err := Output(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, err
	}
	var dur float64
	if _, err := fmt.Sscanf(out, "%f", &dur); err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", out, err)
	}
	return dur, nil
}

// HasAudioStream reports whether the first audio stream of the file is
// decodable. Used for the post-encode verification pass.
func HasAudioStream(ctx context.Context, path string) (bool, error) {
	out, err := Output(ctx, "ffprobe",
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=codec_name",
		"-of", "csv=p=0",
		path,
	)
	if err != nil {
		return false, err
	}
	return out != "", nil
}

// IsImagePath reports whether a media reference points at a still image.
func IsImagePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

// CoverCropFilter force-fits any input to the target frame with a
// resize-then-center-crop, so no letterboxing ever occurs.
func CoverCropFilter(width, height, fps int) string {
	return fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,setsar=1,fps=%d",
		width, height, width, height, fps,
	)
}

// Secs formats a duration argument the way the rest of the filter graphs
// expect it (millisecond precision).
func Secs(v float64) string {
	return fmt.Sprintf("%.3f", v)
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}

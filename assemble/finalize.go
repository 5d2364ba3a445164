package assemble

import (
	"context"
	"fmt"
	"log"

	"reelforge/media"
)

// finalize executes the mix plan over the assembled timeline and writes
// the delivered reel. Video is re-encoded once with the configured
// codec so the output is a clean standalone file regardless of what the
// segments carried. After encoding, the audio stream is probed back; a
// missing stream is reported loudly but does not fail the run.
func (a *Assembler) finalize(ctx context.Context, timelinePath string, plan mixPlan, outputPath string) error {
	cfg := a.cfg

	args := []string{"-y", "-i", timelinePath}
	args = append(args, plan.inputs...)
	if plan.filter != "" {
		args = append(args, "-filter_complex", plan.filter)
	}
	args = append(args,
		"-map", "0:v", "-map", plan.audioMap,
		"-r", fmt.Sprintf("%d", cfg.Reels.FPS),
		"-c:v", cfg.Reels.VideoCodec, "-preset", "fast", "-pix_fmt", "yuv420p",
		"-c:a", cfg.Reels.AudioCodec, "-b:a", cfg.Reels.AudioBitrate,
		"-ar", fmt.Sprintf("%d", cfg.Audio.SampleRate),
		"-movflags", "+faststart",
		outputPath,
	)

	if err := media.Run(ctx, "ffmpeg", args...); err != nil {
		if plan.filter == "" {
			return fmt.Errorf("final encode: %w", err)
		}
		// A bad music or SFX file can poison the whole graph. Ship the
		// reel with narration only rather than nothing.
		log.Printf("[assemble] Warning: audio mix failed: %v — re-rendering with narration only", err)
		return a.finalize(ctx, timelinePath, narrationOnly(), outputPath)
	}

	ok, err := media.HasAudioStream(ctx, outputPath)
	if err != nil {
		log.Printf("[assemble] Warning: could not verify audio stream: %v", err)
	} else if !ok {
		log.Printf("[assemble] WARNING: delivered reel %s has no audio stream", outputPath)
	}
	return nil
}

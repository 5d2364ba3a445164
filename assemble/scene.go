package assemble

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"reelforge/kenburns"
	"reelforge/media"
	"reelforge/types"
)

// sceneInputs describes what goes into a single scene clip. Fields get
// blanked out tier by tier when a build attempt fails, so a broken
// asset degrades the scene instead of killing the run.
type sceneInputs struct {
	scene       types.Scene
	mediaPath   string // empty means black filler
	narration   string // empty means silence
	overlayPath string // rendered caption PNG, empty means no caption
}

// buildSceneClip encodes one scene into a uniform mp4 segment under dir.
// Every segment shares resolution, frame rate, codecs and sample rate so
// the timeline can be concatenated with stream copy. Failures degrade:
// first the narration is dropped for silence, then the caption overlay,
// then the visual is replaced with a black filler. Only a filler failure
// is returned as an error.
func (a *Assembler) buildSceneClip(ctx context.Context, scene types.Scene, dir string) (string, error) {
	out := filepath.Join(dir, fmt.Sprintf("scene_%03d.mp4", scene.Index))

	in := sceneInputs{scene: scene}
	if scene.MediaPath != "" {
		if _, err := os.Stat(scene.MediaPath); err == nil {
			in.mediaPath = scene.MediaPath
		} else {
			log.Printf("[assemble] Warning: scene %d media %q missing — using black filler", scene.Index, scene.MediaPath)
		}
	} else {
		log.Printf("[assemble] Warning: scene %d has no media — using black filler", scene.Index)
	}
	if scene.NarrationPath != "" {
		if _, err := os.Stat(scene.NarrationPath); err == nil {
			in.narration = scene.NarrationPath
		} else {
			log.Printf("[assemble] Warning: scene %d narration %q missing — continuing silent", scene.Index, scene.NarrationPath)
		}
	}
	if scene.CaptionText != "" {
		path, _, _, err := a.captions.Render(scene.CaptionText, dir)
		if err != nil {
			log.Printf("[assemble] Warning: caption render failed for scene %d: %v — continuing without caption", scene.Index, err)
		} else {
			in.overlayPath = path
		}
	}

	var lastErr error
	for {
		if err := a.encodeScene(ctx, in, out); err == nil {
			if in.overlayPath != "" {
				os.Remove(in.overlayPath)
			}
			return out, nil
		} else {
			lastErr = err
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		switch {
		case in.narration != "":
			log.Printf("[assemble] Warning: scene %d encode failed: %v — retrying without narration", scene.Index, lastErr)
			in.narration = ""
		case in.overlayPath != "":
			log.Printf("[assemble] Warning: scene %d encode failed: %v — retrying without caption", scene.Index, lastErr)
			os.Remove(in.overlayPath)
			in.overlayPath = ""
		case in.mediaPath != "":
			log.Printf("[assemble] Warning: scene %d encode failed: %v — retrying with black filler", scene.Index, lastErr)
			in.mediaPath = ""
		default:
			return "", fmt.Errorf("scene %d filler encode: %w", scene.Index, lastErr)
		}
	}
}

// sceneGraph is the encode plan for one scene segment, assembled before
// ffmpeg runs so the inputs and filter graph can be checked on their own.
type sceneGraph struct {
	inputs       []string
	filter       string
	videoLabel   string
	streamFrames bool // visual frames arrive as rawvideo on stdin
}

// buildSceneGraph lays out the ffmpeg inputs and filter graph for a scene.
// Input order is fixed: 0 visual, 1 audio, 2 optional caption overlay.
// Real video shorter than the scene gets its last frame cloned out to the
// full duration so the video track never undershoots the padded audio.
func (a *Assembler) buildSceneGraph(in sceneInputs) sceneGraph {
	cfg := a.cfg
	d := in.scene.Duration
	w, h, fps := cfg.Reels.Width, cfg.Reels.Height, cfg.Reels.FPS

	var g sceneGraph
	switch {
	case in.mediaPath == "":
		g.inputs = append(g.inputs, "-f", "lavfi", "-t", media.Secs(d),
			"-i", fmt.Sprintf("color=c=black:s=%dx%d:r=%d", w, h, fps))
		g.filter = "[0:v]format=yuv420p[v0]"
	case media.IsImagePath(in.mediaPath):
		g.streamFrames = true
		g.inputs = append(g.inputs,
			"-f", "rawvideo", "-pixel_format", "rgba",
			"-video_size", fmt.Sprintf("%dx%d", w, h),
			"-framerate", fmt.Sprintf("%d", fps),
			"-i", "-")
		g.filter = "[0:v]format=yuv420p[v0]"
	default:
		g.inputs = append(g.inputs, "-ss", "0", "-t", media.Secs(d), "-i", in.mediaPath)
		g.filter = "[0:v]" + media.CoverCropFilter(w, h, fps) +
			",tpad=stop_mode=clone:stop_duration=" + media.Secs(d) + "[v0]"
	}

	if in.narration != "" {
		g.inputs = append(g.inputs, "-i", in.narration)
	} else {
		g.inputs = append(g.inputs, "-f", "lavfi", "-t", media.Secs(d),
			"-i", fmt.Sprintf("anullsrc=r=%d:cl=stereo", cfg.Audio.SampleRate))
	}
	if in.overlayPath != "" {
		g.inputs = append(g.inputs, "-i", in.overlayPath)
	}

	g.videoLabel = "[v0]"
	if in.overlayPath != "" {
		g.filter += fmt.Sprintf(";%s[2:v]overlay=(W-w)/2:H*%.2f[v1]", g.videoLabel, cfg.Text.PositionYRatio)
		g.videoLabel = "[v1]"
	}
	if in.scene.Transition == types.TransitionFade || in.scene.Transition == types.TransitionCrossfade {
		g.filter += fmt.Sprintf(";%sfade=t=in:st=0:d=%s[v2]", g.videoLabel, media.Secs(cfg.Transitions.FadeSec))
		g.videoLabel = "[v2]"
	}

	audioChain := fmt.Sprintf("[1:a]volume=%.1f,aresample=%d,aformat=channel_layouts=stereo,apad,atrim=0:%s[a0]",
		cfg.Audio.NarrationGain, cfg.Audio.SampleRate, media.Secs(d))
	if in.narration == "" {
		audioChain = fmt.Sprintf("[1:a]apad,atrim=0:%s[a0]", media.Secs(d))
	}
	g.filter += ";" + audioChain
	return g
}

// encodeScene runs the single ffmpeg invocation producing the scene
// segment. Image media streams Ken Burns frames over stdin.
func (a *Assembler) encodeScene(ctx context.Context, in sceneInputs, out string) error {
	cfg := a.cfg
	d := in.scene.Duration
	g := a.buildSceneGraph(in)

	args := []string{"-y"}
	args = append(args, g.inputs...)
	args = append(args,
		"-filter_complex", g.filter,
		"-map", g.videoLabel, "-map", "[a0]",
		"-t", media.Secs(d),
		"-r", fmt.Sprintf("%d", cfg.Reels.FPS),
		"-c:v", cfg.Reels.VideoCodec, "-preset", "fast", "-pix_fmt", "yuv420p",
		"-c:a", cfg.Reels.AudioCodec, "-b:a", cfg.Reels.AudioBitrate,
		"-ar", fmt.Sprintf("%d", cfg.Audio.SampleRate),
		out)

	if g.streamFrames {
		clip, err := kenburns.Open(in.mediaPath, d, cfg.Reels.Width, cfg.Reels.Height, kenburns.DefaultTrajectory())
		if err != nil {
			return fmt.Errorf("ken burns source: %w", err)
		}
		return media.RunWithStdin(ctx, func(stdin io.Writer) error {
			return clip.WriteFrames(stdin, cfg.Reels.FPS)
		}, "ffmpeg", args...)
	}
	return media.Run(ctx, "ffmpeg", args...)
}

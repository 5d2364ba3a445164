// Package assemble turns a resolved scene list into a delivered reel:
// per-scene clip builds, timeline concatenation, audio mixing, and the
// final encode.
package assemble

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/shirou/gopsutil/v3/mem"
	"golang.org/x/sync/errgroup"

	"reelforge/caption"
	"reelforge/config"
	"reelforge/types"
)

// Request is one assembly job. Scenes must already carry media and
// narration paths; TargetDuration of zero skips normalization. BGMPath
// and SFXPath are optional and degrade to silence when empty.
type Request struct {
	Scenes         []types.Scene
	OutputPath     string
	TargetDuration float64
	BGMPath        string
	SFXPath        string
}

// Assembler owns the full reel assembly stage.
type Assembler struct {
	cfg      *config.Config
	captions *caption.Renderer
}

func New(cfg *config.Config) *Assembler {
	return &Assembler{
		cfg:      cfg,
		captions: caption.New(cfg.Text),
	}
}

// Assemble builds the reel and returns the delivered output path.
// Scene clips are encoded in parallel; concat, mix and finalize run
// sequentially after every clip exists. Intermediate artifacts live in
// a temp dir removed on return.
func (a *Assembler) Assemble(ctx context.Context, req Request) (string, error) {
	if len(req.Scenes) == 0 {
		return "", fmt.Errorf("assemble: no scenes")
	}
	scenes := make([]types.Scene, len(req.Scenes))
	copy(scenes, req.Scenes)
	for i := range scenes {
		if err := scenes[i].Validate(); err != nil {
			return "", fmt.Errorf("assemble: %w", err)
		}
	}

	NormalizeDurations(scenes, req.TargetDuration)
	starts := sceneStarts(scenes)
	total := starts[len(starts)-1] + scenes[len(scenes)-1].Duration

	dir, err := os.MkdirTemp("", "reelforge-assemble-")
	if err != nil {
		return "", fmt.Errorf("assemble: temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	workers := a.cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers()
	}
	log.Printf("[assemble] Building %d scene clips with %d workers", len(scenes), workers)

	clipPaths := make([]string, len(scenes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range scenes {
		i := i
		g.Go(func() error {
			path, err := a.buildSceneClip(gctx, scenes[i], dir)
			if err != nil {
				return err
			}
			clipPaths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", fmt.Errorf("assemble: %w", err)
	}

	timeline, err := a.concatClips(ctx, clipPaths, dir)
	if err != nil {
		return "", fmt.Errorf("assemble: %w", err)
	}

	plan := a.buildMixPlan(total, req.BGMPath, req.SFXPath, sfxBoundaries(scenes, starts))

	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return "", fmt.Errorf("assemble: output dir: %w", err)
	}
	if err := a.finalize(ctx, timeline, plan, req.OutputPath); err != nil {
		return "", fmt.Errorf("assemble: %w", err)
	}

	log.Printf("[assemble] Delivered %s (%.2fs, %d scenes)", req.OutputPath, total, len(scenes))
	return req.OutputPath, nil
}

// sfxBoundaries selects the timeline offsets that get a transition
// sound: the start of every scene after the first.
func sfxBoundaries(scenes []types.Scene, starts []float64) []float64 {
	if len(scenes) < 2 {
		return nil
	}
	return starts[1:]
}

// defaultWorkers sizes the clip-build pool from the machine. Frame
// streaming holds a decoded source image plus a scaler buffer per
// worker, so the pool is capped by available memory (one worker per
// GiB) as well as CPU count.
func defaultWorkers() int {
	workers := runtime.NumCPU()
	if vm, err := mem.VirtualMemory(); err == nil {
		byMem := int(vm.Available / (1 << 30))
		if byMem < 1 {
			byMem = 1
		}
		if byMem < workers {
			workers = byMem
		}
	}
	if workers < 1 {
		workers = 1
	}
	if workers > 8 {
		workers = 8
	}
	return workers
}

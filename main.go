package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"reelforge/assemble"
	"reelforge/config"
	"reelforge/mediares"
	"reelforge/narration"
	"reelforge/research"
	"reelforge/script"
	"reelforge/soundtrack"
	"reelforge/types"
	"reelforge/upload"
	"reelforge/validate"
)

type options struct {
	duration float64
	output   string
	upload   bool
}

func main() {
	// Load .env (local dev only — CI uses injected secrets)
	_ = godotenv.Load()

	topic := flag.String("topic", "", "reel topic (empty: discover one from Reddit)")
	topicsFile := flag.String("topics", "", "file with one topic per line, rendered as a batch")
	duration := flag.Float64("duration", 0, "target reel length in seconds (0: sum of scene durations)")
	output := flag.String("output", "", "output file path (single-topic runs only)")
	doUpload := flag.Bool("upload", false, "upload finished reels to YouTube Shorts")
	flag.Parse()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	for _, dir := range []string{cfg.Paths.Media, cfg.Paths.Narration, cfg.Paths.Music, cfg.Paths.SFX, cfg.Paths.Output} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("Failed to create dir %s: %v", dir, err)
		}
	}

	opts := options{duration: *duration, output: *output, upload: *doUpload || cfg.Upload.Enabled}
	ctx := context.Background()

	topics, err := gatherTopics(ctx, cfg, *topic, *topicsFile)
	if err != nil {
		log.Fatalf("No topic to render: %v", err)
	}
	if len(topics) > 1 {
		opts.output = "" // per-run paths for batches
	}

	failures := 0
	for i, t := range topics {
		if len(topics) > 1 {
			log.Printf("=== Reel %d/%d ===", i+1, len(topics))
		}
		if err := runOne(ctx, cfg, t, opts); err != nil {
			log.Printf("Reel for %q failed: %v", t, err)
			failures++
		}
	}
	if failures > 0 {
		log.Fatalf("%d of %d reels failed", failures, len(topics))
	}
}

// gatherTopics resolves what to render: an explicit topic, a batch file,
// or a fresh topic discovered on Reddit.
func gatherTopics(ctx context.Context, cfg *config.Config, topic, topicsFile string) ([]string, error) {
	if topicsFile != "" {
		return readTopicsFile(topicsFile)
	}
	if topic != "" {
		return []string{topic}, nil
	}

	researcher, err := research.New(cfg)
	if err != nil {
		return nil, err
	}
	t, err := researcher.Next(ctx)
	if err != nil {
		return nil, err
	}
	return []string{t}, nil
}

func readTopicsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var topics []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		topics = append(topics, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("no topics in %s", path)
	}
	return topics, nil
}

// runOne renders a single reel end to end under its own run directory.
func runOne(ctx context.Context, cfg *config.Config, topic string, opts options) (err error) {
	runID := uuid.NewString()[:8]
	runDir := filepath.Join(cfg.Paths.Output, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return fmt.Errorf("create run dir: %w", err)
	}

	log.Printf("ReelForge starting — Run ID: %s", runID)
	log.Printf("Output dir: %s", runDir)

	state := &types.PipelineState{
		RunID:     runID,
		Topic:     topic,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	}
	defer func() {
		state.CompletedAt = time.Now().UTC().Format(time.RFC3339)
		if err != nil {
			state.Error = err.Error()
		}
		saveJSON(filepath.Join(runDir, "pipeline_state.json"), state)
	}()

	// STAGE 1: Script
	log.Println("--- STAGE 1: Script ---")
	scriptData, err := script.New(cfg).Run(ctx, topic)
	if err != nil {
		return fmt.Errorf("script: %w", err)
	}
	state.Script = scriptData
	saveJSON(filepath.Join(runDir, "script.json"), scriptData)

	// STAGE 2: Narration
	log.Println("--- STAGE 2: Narration ---")
	if err := narration.New(cfg).Run(ctx, scriptData, filepath.Join(runDir, "narration")); err != nil {
		return fmt.Errorf("narration: %w", err)
	}
	saveJSON(filepath.Join(runDir, "script.json"), scriptData)

	// STAGE 3: Media
	log.Println("--- STAGE 3: Media ---")
	resolver := mediares.New(cfg, mediares.NewPexelsClient(cfg), validate.New(cfg))
	for i := range scriptData.Scenes {
		resolver.Resolve(ctx, &scriptData.Scenes[i])
	}
	saveJSON(filepath.Join(runDir, "script.json"), scriptData)

	// STAGE 4: Soundtrack
	log.Println("--- STAGE 4: Soundtrack ---")
	tracks := soundtrack.New(cfg)
	bgmPath := tracks.BGM(ctx, scriptData.Metadata.MusicMood)
	state.BGMFile = bgmPath
	sfxPath := tracks.SFX(ctx, cfg.Transitions.SFXName)

	// STAGE 5: Assembly
	log.Println("--- STAGE 5: Assembly ---")
	outPath := opts.output
	if outPath == "" {
		outPath = filepath.Join(runDir, fmt.Sprintf("reel_%s.mp4", runID))
	}
	finalVideo, err := assemble.New(cfg).Assemble(ctx, assemble.Request{
		Scenes:         scriptData.Scenes,
		OutputPath:     outPath,
		TargetDuration: opts.duration,
		BGMPath:        bgmPath,
		SFXPath:        sfxPath,
	})
	if err != nil {
		return fmt.Errorf("assembly: %w", err)
	}
	state.VideoFile = finalVideo

	// STAGE 6: Upload
	if opts.upload {
		log.Println("--- STAGE 6: Upload ---")
		videoID, videoURL, err := upload.New(cfg).Run(ctx, finalVideo, scriptData.Metadata)
		if err != nil {
			log.Printf("Warning: upload failed: %v — reel kept locally", err)
		} else {
			state.YouTubeURL = videoURL
			_ = upload.LogUpload(videoID, videoURL, finalVideo, runDir)
		}
	}

	log.Printf("Reel complete: %s", finalVideo)
	return nil
}

func saveJSON(path string, v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Printf("Warning: could not marshal JSON for %s: %v", path, err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Printf("Warning: could not save %s: %v", path, err)
	}
}

// Package narration synthesizes per-scene voiceover with edge-tts and
// feeds measured audio lengths back into the scene durations.
package narration

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"reelforge/config"
	"reelforge/media"
	"reelforge/types"
)

// Generator synthesizes voiceover for a script.
type Generator struct {
	cfg *config.Config
}

func New(cfg *config.Config) *Generator {
	return &Generator{cfg: cfg}
}

// Run voices every narrated scene into outputDir. Each scene's duration
// is overwritten with the measured audio length padded by half a second
// and rounded up, so the visual always outlasts the voice. Scenes
// without narration keep their scripted duration. A scene whose
// synthesis fails goes silent with a warning rather than failing the
// run.
func (g *Generator) Run(ctx context.Context, script *types.Script, outputDir string) error {
	log.Printf("[narration] Voicing %d scenes with %s...", len(script.Scenes), g.cfg.TTS.Voice)

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("narration: create dir: %w", err)
	}
	if _, err := exec.LookPath("edge-tts"); err != nil {
		return fmt.Errorf("narration: edge-tts not found (pip install edge-tts)")
	}

	for i := range script.Scenes {
		scene := &script.Scenes[i]
		if strings.TrimSpace(scene.Narration) == "" {
			continue
		}

		audioPath := filepath.Join(outputDir, fmt.Sprintf("scene_%03d.mp3", scene.Index))
		srtPath := filepath.Join(outputDir, fmt.Sprintf("scene_%03d.srt", scene.Index))

		if err := g.synthesize(ctx, scene.Narration, audioPath, srtPath); err != nil {
			log.Printf("[narration] Warning: scene %d synthesis failed: %v — continuing silent", scene.Index, err)
			continue
		}

		dur, err := media.Duration(ctx, audioPath)
		if err != nil {
			log.Printf("[narration] Warning: could not measure scene %d audio: %v — keeping scripted duration", scene.Index, err)
			scene.NarrationPath = audioPath
			continue
		}

		scene.NarrationPath = audioPath
		scene.Duration = PaddedDuration(dur)
		log.Printf("[narration] Scene %d: %.2fs audio -> %.0fs scene", scene.Index, dur, scene.Duration)

		if timings, err := parseSRT(srtPath); err == nil && len(timings) > 0 {
			saveTimings(outputDir, scene.Index, timings)
		}
	}
	return nil
}

// PaddedDuration converts a measured narration length into the scene
// duration: half a second of breathing room, rounded up to a whole
// second.
func PaddedDuration(audioSec float64) float64 {
	return math.Ceil(audioSec + 0.5)
}

// synthesize runs edge-tts with retries. The command is rebuilt each
// attempt since exec.Cmd is single-use.
func (g *Generator) synthesize(ctx context.Context, text, audioPath, srtPath string) error {
	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		cmd := exec.CommandContext(ctx,
			"edge-tts",
			"--voice", g.cfg.TTS.Voice,
			"--rate", g.cfg.TTS.Rate,
			"--text", text,
			"--write-media", audioPath,
			"--write-subtitles", srtPath,
		)
		if err = cmd.Run(); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("[narration] TTS attempt %d failed: %v — retrying...", attempt, err)
		time.Sleep(time.Duration(attempt) * 2 * time.Second)
	}
	return err
}

// parseSRT reads an edge-tts subtitle file into word timings. A missing
// or malformed file returns an empty slice; timings are a best-effort
// extra.
func parseSRT(path string) ([]types.WordTiming, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var timings []types.WordTiming
	blocks := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n\n")
	for _, block := range blocks {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) < 3 {
			continue
		}
		start, end, ok := parseTimeRange(lines[1])
		if !ok {
			continue
		}
		timings = append(timings, types.WordTiming{
			Word:  strings.TrimSpace(strings.Join(lines[2:], " ")),
			Start: start,
			End:   end,
		})
	}
	return timings, nil
}

// parseTimeRange parses "00:00:01,250 --> 00:00:02,700".
func parseTimeRange(line string) (float64, float64, bool) {
	parts := strings.Split(line, "-->")
	if len(parts) != 2 {
		return 0, 0, false
	}
	start, ok1 := parseTimestamp(strings.TrimSpace(parts[0]))
	end, ok2 := parseTimestamp(strings.TrimSpace(parts[1]))
	return start, end, ok1 && ok2
}

func parseTimestamp(s string) (float64, bool) {
	s = strings.ReplaceAll(s, ",", ".")
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	sec, err3 := strconv.ParseFloat(parts[2], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, false
	}
	return float64(h)*3600 + float64(m)*60 + sec, true
}

func saveTimings(dir string, sceneIndex int, timings []types.WordTiming) {
	path := filepath.Join(dir, fmt.Sprintf("scene_%03d_timings.json", sceneIndex))
	data, err := json.MarshalIndent(timings, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Printf("[narration] Warning: could not save timings: %v", err)
	}
}

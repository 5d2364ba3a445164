package types

import (
	"fmt"
	"strings"
)

// Transition is the video-level entrance effect applied at scene start.
type Transition string

const (
	TransitionCut       Transition = "cut"
	TransitionFade      Transition = "fade"
	TransitionCrossfade Transition = "crossfade"
)

// ParseTransition maps a raw script value onto a known transition,
// defaulting to cut for anything unrecognized.
func ParseTransition(s string) Transition {
	switch Transition(strings.ToLower(strings.TrimSpace(s))) {
	case TransitionFade:
		return TransitionFade
	case TransitionCrossfade:
		return TransitionCrossfade
	default:
		return TransitionCut
	}
}

// Scene is one timed segment of the final reel. Order is fixed by Index
// and never changed after ingestion; Duration is mutable (overwritten by
// measured narration length, then rescaled by the duration normalizer).
type Scene struct {
	Index         int        `json:"index"`
	Duration      float64    `json:"duration"`
	MediaPath     string     `json:"media_path,omitempty"`     // still image or video; empty → color filler
	NarrationPath string     `json:"narration_path,omitempty"` // synthesized audio; empty → silent scene
	CaptionText   string     `json:"caption_text,omitempty"`   // *markers* flag the highlighted span
	Transition    Transition `json:"transition"`

	// Script-side fields, consumed upstream of the assembly core.
	Narration         string   `json:"narration,omitempty"`
	VisualDescription string   `json:"visual_description,omitempty"`
	VisualKeywords    []string `json:"visual_keywords,omitempty"`
}

// Validate checks the invariants established at ingestion.
func (s *Scene) Validate() error {
	if s.Duration <= 0 {
		return fmt.Errorf("scene %d: duration must be positive, got %.2f", s.Index, s.Duration)
	}
	return nil
}

// Keyword returns the primary search keyword for stock media lookup.
func (s *Scene) Keyword() string {
	if len(s.VisualKeywords) > 0 {
		return s.VisualKeywords[0]
	}
	return "general"
}

// ScriptMetadata carries reel-level info produced by the script writer.
type ScriptMetadata struct {
	Topic     string `json:"topic"`
	MusicMood string `json:"music_mood"`
	Provider  string `json:"provider,omitempty"`
}

// Script is the full scene list for one reel.
type Script struct {
	Metadata ScriptMetadata `json:"metadata"`
	Scenes   []Scene        `json:"scenes"`
}

// TotalDuration sums the current scene durations.
func (s *Script) TotalDuration() float64 {
	var total float64
	for _, sc := range s.Scenes {
		total += sc.Duration
	}
	return total
}

// WordTiming is one entry of the optional narration timing side file.
type WordTiming struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// PipelineState tracks the full state of one reel run.
type PipelineState struct {
	RunID       string  `json:"run_id"`
	Topic       string  `json:"topic"`
	StartedAt   string  `json:"started_at"`
	CompletedAt string  `json:"completed_at"`
	Script      *Script `json:"script,omitempty"`
	BGMFile     string  `json:"bgm_file,omitempty"`
	VideoFile   string  `json:"video_file,omitempty"`
	YouTubeURL  string  `json:"youtube_url,omitempty"`
	Error       string  `json:"error,omitempty"`
}

package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Reels       ReelsConfig       `yaml:"reels"`
	Text        TextConfig        `yaml:"text"`
	Audio       AudioConfig       `yaml:"audio"`
	Transitions TransitionsConfig `yaml:"transitions"`
	Script      ScriptConfig      `yaml:"script"`
	TTS         TTSConfig         `yaml:"tts"`
	Pexels      PexelsConfig      `yaml:"pexels"`
	Research    ResearchConfig    `yaml:"research"`
	Upload      UploadConfig      `yaml:"upload"`
	Paths       PathsConfig       `yaml:"paths"`
	Workers     int               `yaml:"workers"` // 0 → sized from the machine
}

// ReelsConfig fixes the single supported output shape (9:16 vertical).
type ReelsConfig struct {
	Width        int    `yaml:"width"`
	Height       int    `yaml:"height"`
	FPS          int    `yaml:"fps"`
	VideoCodec   string `yaml:"video_codec"`
	AudioCodec   string `yaml:"audio_codec"`
	AudioBitrate string `yaml:"audio_bitrate"`
}

type TextConfig struct {
	FontPath       string  `yaml:"font_path"`
	FontIndex      int     `yaml:"font_index"` // face index inside a .ttc collection
	FontSize       float64 `yaml:"font_size"`
	Color          string  `yaml:"color"`
	StrokeColor    string  `yaml:"stroke_color"`
	StrokeWidth    int     `yaml:"stroke_width"`
	HighlightColor string  `yaml:"highlight_color"`
	BGEnabled      bool    `yaml:"bg_enabled"`
	BGColor        string  `yaml:"bg_color"`
	BGAlpha        uint8   `yaml:"bg_alpha"`
	BGPadding      int     `yaml:"bg_padding"`
	BorderRadius   int     `yaml:"border_radius"`
	MaxWidth       int     `yaml:"max_width"`
	LineSpacing    float64 `yaml:"line_spacing"`
	PositionYRatio float64 `yaml:"position_y_ratio"` // overlay top edge as fraction of frame height
}

type AudioConfig struct {
	SampleRate    int     `yaml:"sample_rate"`
	NarrationGain float64 `yaml:"narration_gain"`
	BGMVolume     float64 `yaml:"bgm_volume"`
	BGMFadeSec    float64 `yaml:"bgm_fade_sec"`
	SFXVolume     float64 `yaml:"sfx_volume"`
	SFXMaxSec     float64 `yaml:"sfx_max_sec"`
}

type TransitionsConfig struct {
	FadeSec    float64 `yaml:"fade_sec"`
	SFXLeadSec float64 `yaml:"sfx_lead_sec"` // whoosh starts this long before the boundary
	SFXName    string  `yaml:"sfx_name"`
}

type ScriptConfig struct {
	GroqModel       string  `yaml:"groq_model"`
	Temperature     float64 `yaml:"temperature"`
	ValidationModel string  `yaml:"validation_model"`
	MaxMediaRetries int     `yaml:"max_media_retries"`
}

type TTSConfig struct {
	Voice string `yaml:"voice"`
	Rate  string `yaml:"rate"`
}

type PexelsConfig struct {
	PerPage     int    `yaml:"per_page"`
	Orientation string `yaml:"orientation"`
	Size        string `yaml:"size"`
}

type ResearchConfig struct {
	Subreddits     []string `yaml:"subreddits"`
	MinScore       int      `yaml:"min_score"`
	MaxTopics      int      `yaml:"max_topics"`
	UsedTopicsFile string   `yaml:"used_topics_file"`
}

type UploadConfig struct {
	Enabled           bool   `yaml:"enabled"`
	Visibility        string `yaml:"visibility"`
	CategoryID        string `yaml:"category_id"`
	DefaultLanguage   string `yaml:"default_language"`
	NotifySubscribers bool   `yaml:"notify_subscribers"`
	MadeForKids       bool   `yaml:"made_for_kids"`
}

type PathsConfig struct {
	Media     string `yaml:"media"`     // downloaded stock clips
	Narration string `yaml:"narration"` // synthesized audio
	Music     string `yaml:"music"`     // BGM cache
	SFX       string `yaml:"sfx"`       // SFX cache
	Output    string `yaml:"output"`    // final reels + run state
}

// Default returns the configuration used when config.yaml is absent or
// leaves fields unset. Values mirror the reel output contract: 1080x1920
// @ 24fps, h264/aac, 44100 Hz stereo mix.
func Default() *Config {
	return &Config{
		Reels: ReelsConfig{
			Width:        1080,
			Height:       1920,
			FPS:          24,
			VideoCodec:   "libx264",
			AudioCodec:   "aac",
			AudioBitrate: "192k",
		},
		Text: TextConfig{
			FontPath:       "assets/fonts/NotoSans-Bold.ttf",
			FontSize:       100,
			Color:          "white",
			StrokeColor:    "black",
			StrokeWidth:    4,
			HighlightColor: "yellow",
			BGEnabled:      true,
			BGColor:        "black",
			BGAlpha:        180,
			BGPadding:      40,
			BorderRadius:   25,
			MaxWidth:       1000,
			LineSpacing:    1.3,
			PositionYRatio: 0.7,
		},
		Audio: AudioConfig{
			SampleRate:    44100,
			NarrationGain: 3.0,
			BGMVolume:     0.6,
			BGMFadeSec:    2.0,
			SFXVolume:     0.5,
			SFXMaxSec:     1.5,
		},
		Transitions: TransitionsConfig{
			FadeSec:    0.5,
			SFXLeadSec: 0.2,
			SFXName:    "whoosh",
		},
		Script: ScriptConfig{
			GroqModel:       "llama-3.3-70b-versatile",
			Temperature:     0.7,
			ValidationModel: "llama-3.3-70b-versatile",
			MaxMediaRetries: 3,
		},
		TTS: TTSConfig{
			Voice: "en-US-AriaNeural",
			Rate:  "+25%",
		},
		Pexels: PexelsConfig{
			PerPage:     15,
			Orientation: "portrait",
			Size:        "large",
		},
		Research: ResearchConfig{
			Subreddits:     []string{"todayilearned", "LifeProTips"},
			MinScore:       500,
			MaxTopics:      5,
			UsedTopicsFile: "assets/used_topics.json",
		},
		Upload: UploadConfig{
			Visibility:      "private",
			CategoryID:      "22",
			DefaultLanguage: "en",
		},
		Paths: PathsConfig{
			Media:     "assets/downloaded_media",
			Narration: "assets/narration_audio",
			Music:     "assets/music",
			SFX:       "assets/sfx",
			Output:    "assets/final_reels",
		},
	}
}

// Load reads config.yaml over the defaults. A missing file is not an
// error — the defaults are a complete working configuration.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// AspectRatio returns the target output aspect ratio (width / height).
func (c *Config) AspectRatio() float64 {
	return float64(c.Reels.Width) / float64(c.Reels.Height)
}

// Package script generates the reel screenplay: scene narrations,
// on-screen text, visual keywords and the reel-level mood.
package script

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"reelforge/config"
	"reelforge/types"
)

const groqEndpoint = "https://api.groq.com/openai/v1/chat/completions"

const systemPrompt = `You are a viral short-form video scriptwriter. You write punchy, fast-paced scripts for vertical Reels and Shorts.

You MUST respond with ONLY valid JSON — no preamble, no markdown, no explanation.

The JSON has this exact shape:
{
  "metadata": {"topic": "...", "music_mood": "upbeat|dramatic|chill|suspense"},
  "scenes": [
    {
      "scene_number": 1,
      "duration": 4,
      "narration": "the exact words spoken in this scene",
      "on_screen_text": "short caption, wrap the ONE key phrase in *asterisks* to highlight it",
      "visual_keywords": ["stock", "footage", "search", "terms"],
      "transition": "cut|fade|crossfade"
    }
  ]
}

Rules:
- 4 to 7 scenes. First scene is the hook: shocking, curiosity-driven.
- Narration per scene: 1-2 short sentences, spoken in under 6 seconds.
- on_screen_text: at most 8 words, exactly one *highlighted* phrase.
- visual_keywords: 2-4 concrete, filmable search terms (no abstract nouns).
- Last scene is a call to action.`

// Writer turns a topic into a full scene script via the Groq chat API.
type Writer struct {
	cfg        *config.Config
	httpClient *http.Client
}

func New(cfg *config.Config) *Writer {
	return &Writer{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type groqRequest struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// scriptJSON mirrors the wire shape produced by the model.
type scriptJSON struct {
	Metadata struct {
		Topic     string `json:"topic"`
		MusicMood string `json:"music_mood"`
	} `json:"metadata"`
	Scenes []sceneJSON `json:"scenes"`
}

type sceneJSON struct {
	SceneNumber    int      `json:"scene_number"`
	Duration       float64  `json:"duration"`
	Narration      string   `json:"narration"`
	OnScreenText   string   `json:"on_screen_text"`
	VisualKeywords []string `json:"visual_keywords"`
	Transition     string   `json:"transition"`
}

// Run generates a script for the topic. Any failure falls back to the
// built-in script so the pipeline always has something to render.
func (w *Writer) Run(ctx context.Context, topic string) (*types.Script, error) {
	log.Printf("[script] Generating script for %q via Groq...", topic)

	script, err := w.generate(ctx, topic)
	if err != nil {
		log.Printf("[script] Warning: generation failed: %v — using fallback script", err)
		return FallbackScript(topic), nil
	}
	log.Printf("[script] Script ready: %d scenes, ~%.0fs", len(script.Scenes), script.TotalDuration())
	return script, nil
}

func (w *Writer) generate(ctx context.Context, topic string) (*types.Script, error) {
	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GROQ_API_KEY not set")
	}

	reqBody := groqRequest{
		Model: w.cfg.Script.GroqModel,
		Messages: []groqMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf("Write a Reels script about: %s\n\nRespond ONLY with valid JSON.", topic)},
		},
		Temperature: w.cfg.Script.Temperature,
		MaxTokens:   4096,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", groqEndpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("groq request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var groqResp groqResponse
	if err := json.Unmarshal(respBytes, &groqResp); err != nil {
		return nil, fmt.Errorf("parse groq response: %w", err)
	}
	if groqResp.Error != nil {
		return nil, fmt.Errorf("groq error: %s", groqResp.Error.Message)
	}
	if len(groqResp.Choices) == 0 {
		return nil, fmt.Errorf("groq returned no choices")
	}

	return ParseScript(groqResp.Choices[0].Message.Content, topic)
}

// ParseScript ingests raw model output into a validated Script. Scene
// order follows array order regardless of scene_number values; missing
// durations default to 5s and unknown transitions to cut.
func ParseScript(content, topic string) (*types.Script, error) {
	content = cleanJSON(content)

	var raw scriptJSON
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		n := len(content)
		if n > 200 {
			n = 200
		}
		return nil, fmt.Errorf("parse script JSON: %w\nraw content: %s", err, content[:n])
	}
	if len(raw.Scenes) == 0 {
		return nil, fmt.Errorf("script has no scenes")
	}

	script := &types.Script{
		Metadata: types.ScriptMetadata{
			Topic:     raw.Metadata.Topic,
			MusicMood: raw.Metadata.MusicMood,
			Provider:  "groq",
		},
	}
	if script.Metadata.Topic == "" {
		script.Metadata.Topic = topic
	}
	if script.Metadata.MusicMood == "" {
		script.Metadata.MusicMood = "upbeat"
	}

	for i, s := range raw.Scenes {
		scene := types.Scene{
			Index:          i + 1,
			Duration:       s.Duration,
			Narration:      strings.TrimSpace(s.Narration),
			CaptionText:    strings.TrimSpace(s.OnScreenText),
			VisualKeywords: s.VisualKeywords,
			Transition:     types.ParseTransition(s.Transition),
		}
		if scene.Duration <= 0 {
			scene.Duration = 5
		}
		script.Scenes = append(script.Scenes, scene)
	}
	return script, nil
}

// FallbackScript is the canned script used when generation fails.
func FallbackScript(topic string) *types.Script {
	if topic == "" {
		topic = "5 facts that sound fake but are true"
	}
	return &types.Script{
		Metadata: types.ScriptMetadata{
			Topic:     topic,
			MusicMood: "upbeat",
			Provider:  "fallback",
		},
		Scenes: []types.Scene{
			{
				Index: 1, Duration: 4, Transition: types.TransitionCut,
				Narration:      "You won't believe what you're about to see.",
				CaptionText:    "Wait for *this*",
				VisualKeywords: []string{"city timelapse", "night lights"},
			},
			{
				Index: 2, Duration: 5, Transition: types.TransitionFade,
				Narration:      "Here's the part nobody talks about.",
				CaptionText:    "The *hidden* truth",
				VisualKeywords: []string{"ocean waves", "aerial drone"},
			},
			{
				Index: 3, Duration: 5, Transition: types.TransitionFade,
				Narration:      "And it gets better the longer you watch.",
				CaptionText:    "It gets *better*",
				VisualKeywords: []string{"mountain sunrise", "nature"},
			},
			{
				Index: 4, Duration: 4, Transition: types.TransitionCrossfade,
				Narration:      "Follow for more. You know you want to.",
				CaptionText:    "*Follow* for more",
				VisualKeywords: []string{"person pointing", "smile closeup"},
			},
		},
	}
}

// cleanJSON strips markdown fences if the model wraps its response in
// ```json ... ```.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

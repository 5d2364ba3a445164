package script

import (
	"testing"

	"reelforge/types"
)

const sampleResponse = "```json\n" + `{
  "metadata": {"topic": "Deep sea facts", "music_mood": "suspense"},
  "scenes": [
    {"scene_number": 1, "duration": 4, "narration": "The ocean hides monsters.",
     "on_screen_text": "Monsters are *real*", "visual_keywords": ["deep sea", "anglerfish"],
     "transition": "cut"},
    {"scene_number": 2, "narration": "Some survive crushing depths.",
     "on_screen_text": "*Crushing* pressure", "visual_keywords": ["submarine"],
     "transition": "sparkle"}
  ]
}` + "\n```"

func TestParseScriptSample(t *testing.T) {
	s, err := ParseScript(sampleResponse, "fallback topic")
	if err != nil {
		t.Fatalf("ParseScript: %v", err)
	}
	if s.Metadata.Topic != "Deep sea facts" || s.Metadata.MusicMood != "suspense" {
		t.Errorf("metadata = %+v", s.Metadata)
	}
	if len(s.Scenes) != 2 {
		t.Fatalf("scenes = %d, want 2", len(s.Scenes))
	}
	if s.Scenes[0].Index != 1 || s.Scenes[1].Index != 2 {
		t.Errorf("indexes = %d, %d", s.Scenes[0].Index, s.Scenes[1].Index)
	}
	if s.Scenes[0].Transition != types.TransitionCut {
		t.Errorf("scene 1 transition = %q", s.Scenes[0].Transition)
	}
}

func TestParseScriptDefaults(t *testing.T) {
	s, err := ParseScript(sampleResponse, "fallback topic")
	if err != nil {
		t.Fatalf("ParseScript: %v", err)
	}
	// Scene 2 has no duration and an unknown transition.
	if s.Scenes[1].Duration != 5 {
		t.Errorf("default duration = %v, want 5", s.Scenes[1].Duration)
	}
	if s.Scenes[1].Transition != types.TransitionCut {
		t.Errorf("unknown transition = %q, want cut", s.Scenes[1].Transition)
	}
}

func TestParseScriptMissingMetadata(t *testing.T) {
	s, err := ParseScript(`{"scenes":[{"narration":"hi","duration":3}]}`, "my topic")
	if err != nil {
		t.Fatalf("ParseScript: %v", err)
	}
	if s.Metadata.Topic != "my topic" {
		t.Errorf("topic = %q, want requested topic", s.Metadata.Topic)
	}
	if s.Metadata.MusicMood != "upbeat" {
		t.Errorf("mood = %q, want upbeat", s.Metadata.MusicMood)
	}
}

func TestParseScriptRejectsGarbage(t *testing.T) {
	if _, err := ParseScript("I cannot help with that.", "t"); err == nil {
		t.Error("expected error for non-JSON content")
	}
	if _, err := ParseScript(`{"metadata":{},"scenes":[]}`, "t"); err == nil {
		t.Error("expected error for empty scene list")
	}
}

func TestFallbackScriptIsRenderable(t *testing.T) {
	s := FallbackScript("")
	if len(s.Scenes) == 0 {
		t.Fatal("fallback has no scenes")
	}
	for _, sc := range s.Scenes {
		if err := sc.Validate(); err != nil {
			t.Errorf("fallback scene %d invalid: %v", sc.Index, err)
		}
		if sc.Narration == "" || sc.CaptionText == "" {
			t.Errorf("fallback scene %d missing text", sc.Index)
		}
	}
	if s.TotalDuration() <= 0 {
		t.Error("fallback total duration not positive")
	}
}

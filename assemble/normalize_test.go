package assemble

import (
	"math"
	"testing"

	"reelforge/types"
)

func scenesWithDurations(durs ...float64) []types.Scene {
	scenes := make([]types.Scene, len(durs))
	for i, d := range durs {
		scenes[i] = types.Scene{Index: i + 1, Duration: d}
	}
	return scenes
}

func TestNormalizeDurationsProportional(t *testing.T) {
	scenes := scenesWithDurations(3, 5, 4)
	NormalizeDurations(scenes, 15)

	want := []float64{3.75, 6.25, 5.0}
	for i, w := range want {
		if math.Abs(scenes[i].Duration-w) > 1e-9 {
			t.Errorf("scene %d: duration = %v, want %v", i+1, scenes[i].Duration, w)
		}
	}
}

func TestNormalizeDurationsSumMatchesTarget(t *testing.T) {
	scenes := scenesWithDurations(2.3, 7.1, 0.9, 4.4)
	NormalizeDurations(scenes, 30)

	var sum float64
	for _, s := range scenes {
		sum += s.Duration
	}
	if math.Abs(sum-30) > 1e-9 {
		t.Errorf("sum = %v, want 30", sum)
	}
}

func TestNormalizeDurationsPreservesRatios(t *testing.T) {
	scenes := scenesWithDurations(2, 6)
	NormalizeDurations(scenes, 12)
	if math.Abs(scenes[1].Duration/scenes[0].Duration-3.0) > 1e-9 {
		t.Errorf("ratio = %v, want 3", scenes[1].Duration/scenes[0].Duration)
	}
}

func TestNormalizeDurationsNoTarget(t *testing.T) {
	scenes := scenesWithDurations(3, 5)
	NormalizeDurations(scenes, 0)
	if scenes[0].Duration != 3 || scenes[1].Duration != 5 {
		t.Errorf("durations changed without target: %v, %v", scenes[0].Duration, scenes[1].Duration)
	}
}

func TestSceneStarts(t *testing.T) {
	scenes := scenesWithDurations(3, 5, 4)
	got := sceneStarts(scenes)
	want := []float64{0, 3, 8}
	for i, w := range want {
		if math.Abs(got[i]-w) > 1e-9 {
			t.Errorf("start %d = %v, want %v", i, got[i], w)
		}
	}
}

func TestSFXBoundariesSkipFirstScene(t *testing.T) {
	scenes := scenesWithDurations(3, 5, 4)
	got := sfxBoundaries(scenes, sceneStarts(scenes))
	if len(got) != 2 || got[0] != 3 || got[1] != 8 {
		t.Errorf("boundaries = %v, want [3 8]", got)
	}

	if b := sfxBoundaries(scenes[:1], sceneStarts(scenes[:1])); b != nil {
		t.Errorf("single scene boundaries = %v, want nil", b)
	}
}

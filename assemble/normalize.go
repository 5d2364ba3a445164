package assemble

import (
	"log"

	"reelforge/types"
)

// NormalizeDurations rescales every scene duration by target/current so
// the concatenated timeline lands on the requested total length. The
// scale is purely proportional: relative scene-length ratios are
// preserved and order is untouched. No target or an empty timeline means
// no change.
func NormalizeDurations(scenes []types.Scene, target float64) {
	if target <= 0 || len(scenes) == 0 {
		return
	}
	var current float64
	for i := range scenes {
		current += scenes[i].Duration
	}
	if current <= 0 {
		return
	}

	ratio := target / current
	log.Printf("[assemble] Normalizing durations: %.2fs -> %.2fs (ratio %.3f)", current, target, ratio)
	for i := range scenes {
		scenes[i].Duration *= ratio
	}
}

// sceneStarts returns the cumulative start offset of every scene on the
// final timeline. Offsets for scenes after the first anchor the
// transition sound effects.
func sceneStarts(scenes []types.Scene) []float64 {
	starts := make([]float64, len(scenes))
	var elapsed float64
	for i := range scenes {
		starts[i] = elapsed
		elapsed += scenes[i].Duration
	}
	return starts
}

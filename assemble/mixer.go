package assemble

import (
	"fmt"
	"strings"

	"reelforge/media"
)

// mixPlan is the full audio composite for one reel, expressed as extra
// ffmpeg inputs plus a filter graph over them. Input 0 is always the
// concatenated timeline; the plan's inputs start at index 1. Building
// the plan is pure so the graph can be asserted on in tests; execution
// happens in the finalizer.
type mixPlan struct {
	inputs   []string // extra -i argument pairs, flattened
	filter   string   // filter_complex body, empty when nothing to mix
	audioMap string   // stream/label to map as the output audio
}

// narrationOnly is the degenerate plan: pass the timeline audio through.
func narrationOnly() mixPlan {
	return mixPlan{audioMap: "0:a"}
}

// buildMixPlan layers background music and per-boundary transition
// sound effects over the timeline narration. total is the timeline
// length; sfxStarts are the scene start offsets getting a whoosh (the
// lead time is subtracted here, clamped at zero). Music loops under the
// whole reel, fades in, and the composite fades out at the tail.
func (a *Assembler) buildMixPlan(total float64, bgmPath, sfxPath string, sfxStarts []float64) mixPlan {
	au := a.cfg.Audio
	if bgmPath == "" && (sfxPath == "" || len(sfxStarts) == 0) {
		return narrationOnly()
	}

	var (
		inputs []string
		parts  []string
		labels = []string{"[0:a]"}
		next   = 1
	)

	if bgmPath != "" {
		inputs = append(inputs, "-stream_loop", "-1", "-i", bgmPath)
		parts = append(parts, fmt.Sprintf(
			"[%d:a]volume=%.2f,aresample=%d,aformat=channel_layouts=stereo,atrim=0:%s,afade=t=in:st=0:d=%s[bgm]",
			next, au.BGMVolume, au.SampleRate, media.Secs(total), media.Secs(au.BGMFadeSec)))
		labels = append(labels, "[bgm]")
		next++
	}

	if sfxPath != "" {
		for i, start := range sfxStarts {
			at := start - a.cfg.Transitions.SFXLeadSec
			if at < 0 {
				at = 0
			}
			ms := int(at * 1000)
			inputs = append(inputs, "-i", sfxPath)
			label := fmt.Sprintf("[sfx%d]", i)
			parts = append(parts, fmt.Sprintf(
				"[%d:a]atrim=0:%s,volume=%.2f,aresample=%d,aformat=channel_layouts=stereo,adelay=%d|%d%s",
				next, media.Secs(au.SFXMaxSec), au.SFXVolume, au.SampleRate, ms, ms, label))
			labels = append(labels, label)
			next++
		}
	}

	fadeOutStart := total - au.BGMFadeSec
	if fadeOutStart < 0 {
		fadeOutStart = 0
	}
	parts = append(parts, fmt.Sprintf(
		"%samix=inputs=%d:duration=first:normalize=0[mix]",
		strings.Join(labels, ""), len(labels)))
	parts = append(parts, fmt.Sprintf(
		"[mix]afade=t=out:st=%s:d=%s,atrim=0:%s[aout]",
		media.Secs(fadeOutStart), media.Secs(au.BGMFadeSec), media.Secs(total)))

	return mixPlan{
		inputs:   inputs,
		filter:   strings.Join(parts, ";"),
		audioMap: "[aout]",
	}
}

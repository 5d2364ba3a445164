// Package mediares resolves each scene's visual: stock footage search,
// download, relevance review, and the retry ladder between them.
package mediares

import (
	"context"
	"log"
	"os"

	"reelforge/config"
	"reelforge/types"
	"reelforge/validate"
)

// State tracks where a scene sits in the resolution ladder.
type State int

const (
	Unresolved   State = iota // nothing fetched yet
	HasCandidate              // a clip is on disk, not yet reviewed
	Validated                 // clip reviewed and accepted
	Fallback                  // exhausted retries, using the last clip anyway
)

func (s State) String() string {
	switch s {
	case HasCandidate:
		return "candidate"
	case Validated:
		return "validated"
	case Fallback:
		return "fallback"
	default:
		return "unresolved"
	}
}

// Searcher finds a single stock candidate for a keyword.
type Searcher interface {
	Search(ctx context.Context, keyword string) (*Candidate, error)
	Fetch(ctx context.Context, cand *Candidate) (string, error)
}

// Judge reviews a fetched candidate against scene intent. On rejection
// it may propose a replacement search keyword.
type Judge interface {
	Check(ctx context.Context, scene *types.Scene, cand validate.Candidate) (bool, string)
}

// Resolution is the outcome for one scene.
type Resolution struct {
	Path  string
	State State
}

// Resolver runs the per-scene resolution ladder.
type Resolver struct {
	cfg      *config.Config
	searcher Searcher
	judge    Judge
}

func New(cfg *config.Config, searcher Searcher, judge Judge) *Resolver {
	return &Resolver{cfg: cfg, searcher: searcher, judge: judge}
}

// Resolve fetches media for the scene, reviewing each candidate and
// retrying with the scene's remaining keywords. A rejected clip is kept
// around: on the final attempt it ships anyway, because a weak visual
// beats a black frame. Only when no clip was ever fetched does the
// scene stay unresolved, and the caller renders a filler.
func (r *Resolver) Resolve(ctx context.Context, scene *types.Scene) Resolution {
	attempts := r.cfg.Script.MaxMediaRetries
	if attempts < 1 {
		attempts = 1
	}

	state := Unresolved
	var lastPath, suggestion string

	for attempt := 0; attempt < attempts; attempt++ {
		if ctx.Err() != nil {
			break
		}
		keyword := suggestion
		if keyword == "" {
			keyword = keywordFor(scene, attempt)
		}
		suggestion = ""
		cand, err := r.searcher.Search(ctx, keyword)
		if err != nil {
			log.Printf("[media] Warning: scene %d search %q failed: %v", scene.Index, keyword, err)
			continue
		}

		path, err := r.searcher.Fetch(ctx, cand)
		if err != nil {
			log.Printf("[media] Warning: scene %d download failed: %v", scene.Index, err)
			continue
		}
		// Each new candidate supersedes the previous one.
		if lastPath != "" && lastPath != path {
			os.Remove(lastPath)
		}
		lastPath = path
		state = HasCandidate

		ok, hint := r.judge.Check(ctx, scene, validate.Candidate{
			URL:          cand.PageURL,
			Photographer: cand.Photographer,
			Width:        cand.Width,
			Height:       cand.Height,
			Keyword:      cand.Keyword,
		})
		if ok {
			scene.MediaPath = path
			log.Printf("[media] Scene %d resolved with %q (attempt %d)", scene.Index, keyword, attempt+1)
			return Resolution{Path: path, State: Validated}
		}
		suggestion = hint
		log.Printf("[media] Scene %d candidate rejected (attempt %d/%d)", scene.Index, attempt+1, attempts)
	}

	if state == HasCandidate {
		scene.MediaPath = lastPath
		log.Printf("[media] Warning: scene %d retries exhausted — shipping last rejected clip", scene.Index)
		return Resolution{Path: lastPath, State: Fallback}
	}
	log.Printf("[media] Warning: scene %d has no media — filler will be used", scene.Index)
	return Resolution{State: Unresolved}
}

// keywordFor walks the scene's keyword list across attempts, repeating
// the last keyword once the list runs out.
func keywordFor(scene *types.Scene, attempt int) string {
	if len(scene.VisualKeywords) == 0 {
		return scene.Keyword()
	}
	if attempt >= len(scene.VisualKeywords) {
		attempt = len(scene.VisualKeywords) - 1
	}
	return scene.VisualKeywords[attempt]
}

package mediares

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"reelforge/config"
)

const pexelsSearchURL = "https://api.pexels.com/videos/search"

// Candidate is one stock clip found for a keyword, before download.
type Candidate struct {
	PageURL      string
	FileURL      string
	Photographer string
	Width        int
	Height       int
	Keyword      string
}

// PexelsClient searches and downloads vertical stock footage.
type PexelsClient struct {
	cfg        *config.Config
	apiKey     string
	httpClient *http.Client
}

func NewPexelsClient(cfg *config.Config) *PexelsClient {
	return &PexelsClient{
		cfg:        cfg,
		apiKey:     os.Getenv("PEXELS_API_KEY"),
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

type videoFile struct {
	Quality string `json:"quality"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Link    string `json:"link"`
}

type pexelsResponse struct {
	Videos []struct {
		URL    string `json:"url"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
		User   struct {
			Name string `json:"name"`
		} `json:"user"`
		VideoFiles []videoFile `json:"video_files"`
	} `json:"videos"`
}

// Search finds the best portrait clip for the keyword. An empty result
// self-heals once by retrying with just the last word of the phrase,
// which rescues overly specific compound keywords.
func (c *PexelsClient) Search(ctx context.Context, keyword string) (*Candidate, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("PEXELS_API_KEY not set")
	}

	cand, err := c.search(ctx, keyword)
	if err == nil || !errors.Is(err, errNoResults) {
		return cand, err
	}

	words := strings.Fields(keyword)
	if len(words) < 2 {
		return nil, err
	}
	return c.search(ctx, words[len(words)-1])
}

var errNoResults = errors.New("no results")

func (c *PexelsClient) search(ctx context.Context, keyword string) (*Candidate, error) {
	q := url.Values{}
	q.Set("query", keyword)
	q.Set("per_page", fmt.Sprintf("%d", c.cfg.Pexels.PerPage))
	q.Set("orientation", c.cfg.Pexels.Orientation)
	q.Set("size", c.cfg.Pexels.Size)

	req, err := http.NewRequestWithContext(ctx, "GET", pexelsSearchURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pexels request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pexels status %d", resp.StatusCode)
	}

	var pr pexelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("parse pexels response: %w", err)
	}
	if len(pr.Videos) == 0 {
		return nil, fmt.Errorf("%w for %q", errNoResults, keyword)
	}

	for _, v := range pr.Videos {
		best := bestFile(v.VideoFiles)
		if best == "" {
			continue
		}
		return &Candidate{
			PageURL:      v.URL,
			FileURL:      best,
			Photographer: v.User.Name,
			Width:        v.Width,
			Height:       v.Height,
			Keyword:      keyword,
		}, nil
	}
	return nil, fmt.Errorf("%w with usable files for %q", errNoResults, keyword)
}

// bestFile prefers HD renditions at least 1080 px on the short side,
// falling back to the largest rendition present.
func bestFile(files []videoFile) string {
	var fallback string
	var fallbackPx int
	for _, f := range files {
		short := f.Width
		if f.Height < short {
			short = f.Height
		}
		if f.Quality == "hd" && short >= 1080 {
			return f.Link
		}
		if px := f.Width * f.Height; px > fallbackPx {
			fallbackPx = px
			fallback = f.Link
		}
	}
	return fallback
}

// Fetch downloads a candidate into the media cache and returns the
// local path.
func (c *PexelsClient) Fetch(ctx context.Context, cand *Candidate) (string, error) {
	if err := os.MkdirAll(c.cfg.Paths.Media, 0o755); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", cand.FileURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download status %d", resp.StatusCode)
	}

	path := filepath.Join(c.cfg.Paths.Media, fmt.Sprintf("clip_%s.mp4", uuid.New().String()[:8]))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write clip: %w", err)
	}
	return path, nil
}

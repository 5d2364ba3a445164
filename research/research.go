// Package research discovers reel topics from trending Reddit posts
// and keeps a log of already-used topics so runs never repeat content.
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/vartanbeno/go-reddit/v2/reddit"

	"reelforge/config"
)

// Researcher pulls topic candidates from configured subreddits.
type Researcher struct {
	cfg    *config.Config
	client *reddit.Client
	used   map[string]bool
}

func New(cfg *config.Config) (*Researcher, error) {
	client, err := reddit.NewReadonlyClient()
	if err != nil {
		return nil, fmt.Errorf("research: reddit client: %w", err)
	}
	return &Researcher{
		cfg:    cfg,
		client: client,
		used:   loadUsedTopics(cfg.Research.UsedTopicsFile),
	}, nil
}

// Topics returns up to MaxTopics fresh topic candidates, best first.
// Each subreddit failure is logged and skipped.
func (r *Researcher) Topics(ctx context.Context) ([]string, error) {
	var topics []string
	for _, sub := range r.cfg.Research.Subreddits {
		posts, _, err := r.client.Subreddit.TopPosts(ctx, sub, &reddit.ListPostOptions{
			ListOptions: reddit.ListOptions{Limit: 25},
			Time:        "day",
		})
		if err != nil {
			log.Printf("[research] Warning: r/%s fetch failed: %v", sub, err)
			continue
		}
		for _, post := range posts {
			if post.Score < r.cfg.Research.MinScore {
				continue
			}
			topic := CleanTitle(post.Title)
			if topic == "" || r.used[normalize(topic)] {
				continue
			}
			topics = append(topics, topic)
			if len(topics) >= r.cfg.Research.MaxTopics {
				return topics, nil
			}
		}
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("research: no fresh topics found")
	}
	return topics, nil
}

// Next picks the best fresh topic and records it as used.
func (r *Researcher) Next(ctx context.Context) (string, error) {
	topics, err := r.Topics(ctx)
	if err != nil {
		return "", err
	}
	topic := topics[0]
	r.MarkUsed(topic)
	log.Printf("[research] Selected topic: %q", topic)
	return topic, nil
}

// MarkUsed persists a topic into the used-topics log.
func (r *Researcher) MarkUsed(topic string) {
	r.used[normalize(topic)] = true
	saveUsedTopics(r.cfg.Research.UsedTopicsFile, r.used)
}

// CleanTitle strips subreddit-specific framing prefixes so the topic
// reads as a standalone subject.
func CleanTitle(title string) string {
	title = strings.TrimSpace(title)
	for _, prefix := range []string{"TIL ", "TIL: ", "LPT ", "LPT: ", "ELI5 ", "ELI5: "} {
		if strings.HasPrefix(title, prefix) {
			title = strings.TrimSpace(strings.TrimPrefix(title, prefix))
			break
		}
	}
	title = strings.TrimPrefix(title, "that ")
	title = strings.TrimPrefix(title, "about ")
	return strings.TrimSpace(title)
}

func normalize(topic string) string {
	return strings.ToLower(strings.TrimSpace(topic))
}

func loadUsedTopics(path string) map[string]bool {
	used := make(map[string]bool)
	data, err := os.ReadFile(path)
	if err != nil {
		return used
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return used
	}
	for _, t := range list {
		used[t] = true
	}
	return used
}

func saveUsedTopics(path string, used map[string]bool) {
	if path == "" {
		return
	}
	list := make([]string, 0, len(used))
	for t := range used {
		list = append(list, t)
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Printf("[research] Warning: could not save used topics: %v", err)
	}
}

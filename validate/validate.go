// Package validate judges whether a resolved stock clip actually fits
// the scene it was fetched for, using an LLM over the clip's metadata.
package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"reelforge/config"
	"reelforge/types"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

// Candidate describes one fetched media file for review.
type Candidate struct {
	URL          string
	Photographer string
	Width        int
	Height       int
	Keyword      string
}

// verdict is the structured response shape requested from the model.
type verdict struct {
	Relevant   bool   `json:"relevant" jsonschema_description:"Whether this stock clip visually matches the scene"`
	Reason     string `json:"reason" jsonschema_description:"One short sentence explaining the decision"`
	Suggestion string `json:"suggestion" jsonschema_description:"A better search keyword to try if not relevant, else empty"`
}

// GenerateSchema builds a strict JSON schema for structured outputs.
func GenerateSchema[T any]() interface{} {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

var verdictSchema = GenerateSchema[verdict]()

// Validator reviews media candidates against scene intent.
type Validator struct {
	cfg    *config.Config
	client openai.Client
	ready  bool
}

// New builds a Validator. A missing API key disables it; Check then
// accepts everything, since validation is advisory.
func New(cfg *config.Config) *Validator {
	apiKey := os.Getenv("GROQ_API_KEY")
	v := &Validator{cfg: cfg}
	if apiKey == "" {
		log.Println("[validate] Warning: GROQ_API_KEY not set — media validation disabled")
		return v
	}
	v.client = openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(groqBaseURL),
	)
	v.ready = true
	return v
}

// Check reports whether the candidate fits the scene, and on rejection
// may return a replacement search keyword. Validation fails open: any
// API or parse failure accepts the candidate with a warning, because a
// rendered reel with a mediocre clip beats no reel.
func (v *Validator) Check(ctx context.Context, scene *types.Scene, cand Candidate) (bool, string) {
	if !v.ready {
		return true, ""
	}

	prompt := fmt.Sprintf(`A short vertical video scene needs stock footage.

Scene narration: %q
Scene visual intent: %s
Search keyword used: %q

Fetched clip metadata:
- Source URL: %s
- Photographer: %s
- Resolution: %dx%d

Based only on this metadata, is the clip plausibly a visual match for the scene?
If not, suggest one better search keyword.
Respond in JSON: {"relevant": true/false, "reason": "...", "suggestion": "..."}`,
		scene.Narration, strings.Join(scene.VisualKeywords, ", "), cand.Keyword,
		cand.URL, cand.Photographer, cand.Width, cand.Height)

	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "media_verdict",
		Description: openai.String("Relevance verdict for a stock clip"),
		Schema:      verdictSchema,
		Strict:      openai.Bool(true),
	}

	completion, err := v.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: v.cfg.Script.ValidationModel,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: schemaParam,
			},
		},
	})
	if err != nil {
		log.Printf("[validate] Warning: validation call failed: %v — accepting candidate", err)
		return true, ""
	}
	if len(completion.Choices) == 0 {
		log.Println("[validate] Warning: empty validation response — accepting candidate")
		return true, ""
	}

	var out verdict
	if err := json.Unmarshal([]byte(completion.Choices[0].Message.Content), &out); err != nil {
		log.Printf("[validate] Warning: unparseable verdict: %v — accepting candidate", err)
		return true, ""
	}
	if !out.Relevant {
		log.Printf("[validate] Rejected clip for scene %d: %s", scene.Index, out.Reason)
	}
	return out.Relevant, strings.TrimSpace(out.Suggestion)
}

package nlu

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/fk1blow/haplea/internal/intent"
)

// DefaultModelName is the default Gemini model used for classification.
const DefaultModelName = "gemini-2.5-flash"

// Gemini classifies queries with a Gemini model instead of the hosted
// classifier, producing the same entity bundle shape. Credentials come from
// the environment, as the genai client expects.
type Gemini struct {
	model string
}

// NewGemini creates a Gemini classifier. An empty model selects the default.
func NewGemini(model string) *Gemini {
	if model == "" {
		model = DefaultModelName
	}
	return &Gemini{model: model}
}

const classifyPrompt = `You are an intent classifier for a personal expense tracker.

Classify the user query into intents and entities. Output STRICT JSON only
(no comments, no extra text), with this structure:

{
  "intent": [{"value": "new-entry" | "see-yesterday" | "see-before-relative", "confidence": 0.0-1.0}],
  "datetime": [{"value": "YYYY-MM-DD", "grain": "day", "confidence": 0.0-1.0}],
  "duration": [{"unit": "day" | "week" | "month", "value": 1}]
}

Rules:
- "intent" holds at most one candidate; omit the array entirely when the
  query matches no known intent.
- "datetime" only accompanies "new-entry" and only when the query names a date.
- "duration" only accompanies "see-before-relative".
- Return ONLY the raw JSON object. Do NOT wrap it in code fences.

Query:
`

// Classify prompts the model for an entity bundle.
func (g *Gemini) Classify(ctx context.Context, query string) (intent.EntityBundle, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return intent.EntityBundle{}, fmt.Errorf("gemini classify: create client: %w: %w", ErrUnavailable, err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: classifyPrompt + query},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return intent.EntityBundle{}, fmt.Errorf("gemini classify: generate content: %w: %w", ErrUnavailable, err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return intent.EntityBundle{}, fmt.Errorf("gemini classify: empty response: %w", ErrUnavailable)
	}

	var bundle intent.EntityBundle
	if err := json.Unmarshal([]byte(cleanModelJSON(rawText)), &bundle); err != nil {
		return intent.EntityBundle{}, fmt.Errorf("gemini classify: decode response: %w: %w\nraw response: %s", ErrUnavailable, err, rawText)
	}

	return bundle, nil
}

// cleanModelJSON strips Markdown fences and surrounding junk when the model
// ignores the no-fences instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// Keep only from the first '{' to the last '}' when junk remains.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}

var _ Classifier = (*Gemini)(nil)

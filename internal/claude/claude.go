package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/joshharrison/pertloom/internal/task"
)

// Suggestion is a three-point estimate proposed for one task.
type Suggestion struct {
	Name        string  `json:"name"`
	Optimistic  float64 `json:"optimistic"`
	Realistic   float64 `json:"realistic"`
	Pessimistic float64 `json:"pessimistic"`
	Reason      string  `json:"reason"`
}

// SuggestResult holds the full response from Claude.
type SuggestResult struct {
	Unit        string       `json:"unit"`
	Suggestions []Suggestion `json:"suggestions"`
}

// Client wraps the Anthropic SDK for Claude API calls.
type Client struct {
	inner anthropic.Client
	model anthropic.Model
}

// NewClient creates a Claude client. apiKey defaults to ANTHROPIC_API_KEY env.
// model defaults to Claude Sonnet.
func NewClient(apiKey, model string) (*Client, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
	}

	inner := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	m := anthropic.ModelClaudeSonnet4_5
	if model != "" {
		m = anthropic.Model(model)
	}

	return &Client{inner: inner, model: m}, nil
}

const suggestPrompt = `You are an experienced project estimator. For each task below, give a PERT three-point duration estimate.

Rules:
- Use the unit "%s" for every number.
- optimistic <= realistic <= pessimistic, all non-negative.
- Keep the task names exactly as given, in the same order.
- Give a short reason for the spread.

Return your answer as JSON with this exact structure:
{
  "unit": "<unit>",
  "suggestions": [
    {"name": "<task name>", "optimistic": <number>, "realistic": <number>, "pessimistic": <number>, "reason": "<short explanation>"}
  ]
}

Return ONLY the JSON object. No markdown fences, no commentary outside the JSON.

Here are the tasks:
`

// buildPrompt constructs the full prompt for estimate suggestions.
func buildPrompt(names []string, unit string) (string, error) {
	data, err := json.MarshalIndent(names, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal task names: %w", err)
	}
	return fmt.Sprintf(suggestPrompt, unit) + string(data), nil
}

// SuggestEstimates calls the Claude API for three-point estimates of the named tasks.
func (c *Client) SuggestEstimates(ctx context.Context, names []string, unit string) (*SuggestResult, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("no task names given")
	}
	if unit == "" {
		unit = "days"
	}

	prompt, err := buildPrompt(names, unit)
	if err != nil {
		return nil, err
	}

	resp, err := c.inner.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: int64(4096),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("claude API call: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return parseResult(text)
}

func parseResult(text string) (*SuggestResult, error) {
	text = stripJSONFences(text)

	var result SuggestResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("parse claude response: %w\nraw: %s", err, text)
	}
	return &result, nil
}

// Tasks converts suggestions into validated tasks. Suggestions that fail
// validation are returned separately with their errors.
func (r *SuggestResult) Tasks() ([]task.Task, []error) {
	var (
		tasks []task.Task
		errs  []error
	)
	for i, s := range r.Suggestions {
		t, err := task.Parse(s.Name, s.Optimistic, s.Realistic, s.Pessimistic)
		if err != nil {
			errs = append(errs, fmt.Errorf("suggestion %d: %w", i, err))
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, errs
}

// stripJSONFences removes markdown code fences that Claude sometimes adds.
func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		// Strip opening fence line
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}

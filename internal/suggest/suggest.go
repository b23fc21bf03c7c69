// Package suggest proposes client-name mapping candidates for unmatched
// reconciliation keys using the Gemini API. Suggestions are advisory:
// nothing is written to the mapping file and run results are never
// altered by them.
package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"google.golang.org/genai"

	"github.com/nexa-labs/crosscheck/pkg/errors"
	"github.com/nexa-labs/crosscheck/pkg/logging"
)

const (
	// defaultModel balances cost against the quality needed for name
	// similarity judgments.
	defaultModel = "gemini-2.5-flash"

	// maxNames caps each side of the prompt so pathological runs with
	// thousands of unmatched keys stay within a single request.
	maxNames = 50
)

// Suggestion is one proposed client-name equivalence.
type Suggestion struct {
	RosterClient  string `json:"roster_client" yaml:"roster_client"`
	PlannerClient string `json:"planner_client" yaml:"planner_client"`
	Confidence    string `json:"confidence" yaml:"confidence"` // high, medium, low
	Rationale     string `json:"rationale,omitempty" yaml:"rationale,omitempty"`
}

// Config configures the suggestion helper.
type Config struct {
	APIKey string
	Model  string
}

// Suggester asks Gemini for likely client-name equivalences.
type Suggester struct {
	client *genai.Client
	model  string
}

// New creates a Suggester. An API key is required; callers that want the
// helper to be optional should check the key before constructing one.
func New(ctx context.Context, cfg Config) (*Suggester, error) {
	if cfg.APIKey == "" {
		return nil, &errors.AuthenticationError{
			System:  "gemini",
			Method:  "api-key",
			Message: "API key required for mapping suggestions",
			Err:     errors.ErrCredentialsRequired,
		}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  cfg.APIKey,
	})
	if err != nil {
		return nil, &errors.APIError{
			System:   "gemini",
			Endpoint: "client",
			Message:  "failed to create client",
			Err:      err,
		}
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &Suggester{client: client, model: model}, nil
}

// Suggest proposes equivalences between unmatched client names from the
// two systems. Either list may be empty; with both empty there is nothing
// to suggest and the call returns immediately.
func (s *Suggester) Suggest(ctx context.Context, rosterClients, plannerClients []string) ([]Suggestion, error) {
	if len(rosterClients) == 0 || len(plannerClients) == 0 {
		return nil, nil
	}

	prompt := buildPrompt(rosterClients, plannerClients)

	resp, err := s.client.Models.GenerateContent(ctx, s.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			Temperature:      genai.Ptr[float32](0.2),
		},
	)
	if err != nil {
		return nil, &errors.APIError{
			System:   "gemini",
			Endpoint: "generateContent",
			Message:  "suggestion request failed",
			Err:      err,
		}
	}

	suggestions, err := parseSuggestions(resp.Text())
	if err != nil {
		return nil, err
	}

	logging.Debug().
		Str("model", s.model).
		Int("roster_clients", len(rosterClients)).
		Int("planner_clients", len(plannerClients)).
		Int("suggestions", len(suggestions)).
		Msg("mapping suggestions generated")
	return suggestions, nil
}

// buildPrompt renders the two name lists into a deterministic prompt.
// Lists are sorted and capped so identical runs produce identical
// requests.
func buildPrompt(rosterClients, plannerClients []string) string {
	roster := prepareNames(rosterClients)
	planner := prepareNames(plannerClients)

	var b strings.Builder
	b.WriteString("Two workforce systems track the same client companies under different names.\n")
	b.WriteString("Propose which names likely refer to the same client.\n\n")
	b.WriteString("Client names in the roster system:\n")
	for _, name := range roster {
		fmt.Fprintf(&b, "- %s\n", name)
	}
	b.WriteString("\nClient names in the planner system:\n")
	for _, name := range planner {
		fmt.Fprintf(&b, "- %s\n", name)
	}
	b.WriteString(`
Respond with a JSON array. Each element:
{"roster_client": "...", "planner_client": "...", "confidence": "high|medium|low", "rationale": "..."}
Only pair names from the lists above. Omit names with no plausible counterpart.
`)
	return b.String()
}

func prepareNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		out = append(out, trimmed)
	}
	sort.Strings(out)
	if len(out) > maxNames {
		out = out[:maxNames]
	}
	return out
}

// parseSuggestions decodes the model's JSON reply, tolerating markdown
// code fences some models wrap around it.
func parseSuggestions(text string) ([]Suggestion, error) {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	if trimmed == "" {
		return nil, nil
	}

	var suggestions []Suggestion
	if err := json.Unmarshal([]byte(trimmed), &suggestions); err != nil {
		return nil, errors.WrapParse("json", "gemini response", err)
	}

	out := suggestions[:0]
	for _, s := range suggestions {
		if s.RosterClient == "" || s.PlannerClient == "" {
			continue
		}
		if s.Confidence == "" {
			s.Confidence = "low"
		}
		out = append(out, s)
	}
	return out, nil
}

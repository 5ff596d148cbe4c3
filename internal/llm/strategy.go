package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// StrategyCommand is the parsed, validated output of the strategy model:
// a human-readable strategy label and the keywords to search card text for.
type StrategyCommand struct {
	Strategy string   `json:"strategy"`
	Keywords []string `json:"keywords"`
}

// commandEnvelope is the raw wire shape the model is prompted to emit.
type commandEnvelope struct {
	Function string   `json:"function"`
	Strategy string   `json:"strategy"`
	Keywords []string `json:"keywords"`
}

const selectCardsFunction = "select_cards"

const strategySystemPrompt = `You are an expert Magic: The Gathering Commander deck builder. ` +
	`Your task is to determine the core synergistic strategy and a concise list of 3-5 ` +
	`search keywords for the Commander. ` +
	`Respond ONLY with a single, valid JSON object. ` +
	`Do NOT include any commentary, prose, or markdown fences.`

const strategySchemaHint = `The required output format is a JSON object defining the function call:
{"function": "select_cards", "strategy": "<CONCISE_STRATEGY_HERE>", "keywords": ["KW1", "KW2", "KW3"]}`

// StrategyResolver asks the model for a deck strategy and parses the reply.
type StrategyResolver struct {
	client *OllamaClient
	logger *slog.Logger
}

// NewStrategyResolver creates a resolver around an Ollama client.
func NewStrategyResolver(client *OllamaClient, logger *slog.Logger) *StrategyResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &StrategyResolver{client: client, logger: logger}
}

// Resolve queries the model once for a strategy command. Any transport
// failure, timeout, or malformed reply yields an error; the caller treats
// that as "no command" and skips selection. The resolver never substitutes
// a default strategy.
func (r *StrategyResolver) Resolve(ctx context.Context, commanderName, colorIdentity string) (*StrategyCommand, error) {
	prompt := fmt.Sprintf(
		"COMMANDER: %s (Color Identity: %s). "+
			"Based on this card, what is the single best, most synergistic deck strategy? "+
			"Provide the strategy concisely (e.g., 'Voltron', 'Lifegain', 'Artifact Ramp') AND "+
			"the 3-5 most critical keywords to search for in a card's name or text (e.g., ['Goblin', 'Token', 'Haste']).\n\n%s",
		commanderName, colorIdentity, strategySchemaHint,
	)

	resp, err := r.client.Generate(ctx, strategySystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("strategy generation failed: %w", err)
	}

	command, err := ParseStrategyCommand(resp.Response)
	if err != nil {
		r.logger.Debug("model output rejected", "error", err, "output", resp.Response)
		return nil, err
	}

	r.logger.Debug("strategy resolved", "strategy", command.Strategy, "keywords", command.Keywords)
	return command, nil
}

// ParseStrategyCommand extracts and validates a strategy command from
// free-form model output. The model is asked for bare JSON but routinely
// wraps it in prose or fences, so the first balanced JSON object found in
// the text is tried. A reply with the wrong shape is rejected, not patched.
func ParseStrategyCommand(output string) (*StrategyCommand, error) {
	raw, ok := extractJSONObject(output)
	if !ok {
		return nil, fmt.Errorf("no JSON object found in model output")
	}

	var env commandEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, fmt.Errorf("failed to decode command JSON: %w", err)
	}

	if env.Function != selectCardsFunction {
		return nil, fmt.Errorf("unexpected function %q in model output", env.Function)
	}
	if strings.TrimSpace(env.Strategy) == "" {
		return nil, fmt.Errorf("model output has empty strategy")
	}
	if len(env.Keywords) == 0 {
		return nil, fmt.Errorf("model output has no keywords")
	}
	for _, kw := range env.Keywords {
		if strings.TrimSpace(kw) == "" {
			return nil, fmt.Errorf("model output has blank keyword")
		}
	}

	return &StrategyCommand{
		Strategy: strings.TrimSpace(env.Strategy),
		Keywords: env.Keywords,
	}, nil
}

// extractJSONObject returns the first brace-balanced object in the text.
// Braces inside JSON strings are skipped.
func extractJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}

	return "", false
}

// Package narrative generates the optional natural-language comment that can
// replace an archetype's default text in a report.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MikeSquared-Agency/shindan/internal/anthropic"
	"github.com/MikeSquared-Agency/shindan/internal/config"
	"github.com/MikeSquared-Agency/shindan/internal/diagnosis"
	"github.com/MikeSquared-Agency/shindan/internal/openai"
)

// ErrUnavailable covers a missing credential and any failed remote call.
// Callers fall back to the archetype's default text.
var ErrUnavailable = errors.New("narrative unavailable")

const (
	maxTokens   = 420
	temperature = 0.4
)

// Generator produces a narrative paragraph for a result.
type Generator interface {
	Generate(ctx context.Context, res diagnosis.Result) (string, error)
	Provider() string
}

// New picks the generator for the configured provider. An explicit
// NARRATIVE_PROVIDER wins; otherwise the first provider with a key is used.
func New(cfg config.Config, logger *slog.Logger) Generator {
	provider := cfg.NarrativeProvider
	if provider == "" {
		switch {
		case cfg.AnthropicAPIKey != "":
			provider = "anthropic"
		case cfg.OpenAIAPIKey != "":
			provider = "openai"
		}
	}

	switch provider {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return Unconfigured{Reason: "ANTHROPIC_API_KEY is not set"}
		}
		return NewAnthropic(anthropic.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel), logger)
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return Unconfigured{Reason: "OPENAI_API_KEY is not set"}
		}
		return NewOpenAI(openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel), logger)
	case "":
		return Unconfigured{Reason: "no narrative API key is configured (set ANTHROPIC_API_KEY or OPENAI_API_KEY)"}
	default:
		return Unconfigured{Reason: fmt.Sprintf("unknown narrative provider %q", provider)}
	}
}

// Unconfigured always fails with ErrUnavailable.
type Unconfigured struct {
	Reason string
}

func (u Unconfigured) Generate(context.Context, diagnosis.Result) (string, error) {
	return "", fmt.Errorf("%w: %s", ErrUnavailable, u.Reason)
}

func (u Unconfigured) Provider() string { return "none" }

// Anthropic generates narratives with the Messages API.
type Anthropic struct {
	llm    *anthropic.Client
	logger *slog.Logger
}

func NewAnthropic(llm *anthropic.Client, logger *slog.Logger) *Anthropic {
	return &Anthropic{llm: llm, logger: logger}
}

func (a *Anthropic) Provider() string { return "anthropic" }

func (a *Anthropic) Generate(ctx context.Context, res diagnosis.Result) (string, error) {
	a.logger.Info("generating narrative", "provider", "anthropic", "model", a.llm.Model(), "archetype", res.Archetype)

	text, err := a.llm.Complete(ctx, anthropic.Request{
		System:      systemPrompt,
		Messages:    []anthropic.Message{{Role: "user", Content: BuildPrompt(res)}},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return clean(text)
}

// OpenAI generates narratives with the Chat Completions API.
type OpenAI struct {
	llm    *openai.Client
	logger *slog.Logger
}

func NewOpenAI(llm *openai.Client, logger *slog.Logger) *OpenAI {
	return &OpenAI{llm: llm, logger: logger}
}

func (o *OpenAI) Provider() string { return "openai" }

func (o *OpenAI) Generate(ctx context.Context, res diagnosis.Result) (string, error) {
	o.logger.Info("generating narrative", "provider", "openai", "model", o.llm.Model(), "archetype", res.Archetype)

	text, err := o.llm.Chat(ctx, []openai.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: BuildPrompt(res)},
	}, temperature, maxTokens)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return clean(text)
}

// BuildPrompt renders the user prompt for a result.
func BuildPrompt(res diagnosis.Result) string {
	company := res.Company
	if company == "" {
		company = "(not provided)"
	}

	weakest := make([]string, 0, 2)
	for _, cs := range res.Weakest(2) {
		weakest = append(weakest, cs.Label)
	}
	all := make([]string, 0, len(res.Categories))
	for _, cs := range res.Categories {
		all = append(all, cs.Label)
	}

	return fmt.Sprintf(userPrompt,
		company,
		res.Overall,
		res.Signal.Label(),
		res.Archetype,
		strings.Join(weakest, ", "),
		strings.Join(all, ", "),
	)
}

func clean(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty narrative", ErrUnavailable)
	}
	return text, nil
}

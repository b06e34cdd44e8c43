package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"google.golang.org/genai"

	"github.com/avergara/recruiter-triage/internal/util"
)

const (
	defaultModel      = "gemini-2.5-flash"
	defaultTimeout    = 45 * time.Second
	defaultRetryDelay = 2 * time.Second
)

// Config tunes the generator behavior.
type Config struct {
	Model      string
	MaxRetries int
	Timeout    time.Duration
}

// modelCaller seams the genai model call so retry, timeout and breaker
// behavior can be exercised against a fake backend.
type modelCaller interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type genaiModels struct {
	client *genai.Client
}

func (m genaiModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return m.client.Models.GenerateContent(ctx, model, contents, config)
}

// Generator wraps the Google GenAI client behind a circuit breaker. A single
// instance is safe for concurrent use.
type Generator struct {
	models     modelCaller
	modelName  string
	maxRetries int
	timeout    time.Duration
	retryDelay time.Duration
	breaker    *gobreaker.CircuitBreaker[string]
}

func newBreaker() *gobreaker.CircuitBreaker[string] {
	return gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:    "gemini",
		Timeout: time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey string, cfg Config) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Generator{
		models:     genaiModels{client: client},
		modelName:  model,
		maxRetries: cfg.MaxRetries,
		timeout:    timeout,
		retryDelay: defaultRetryDelay,
		breaker:    newBreaker(),
	}, nil
}

// GenerateContent sends the prompt to Gemini and returns the first textual
// response. Transient failures are retried with a fixed delay; the circuit
// breaker turns a failing provider into fast errors so the caller's fallback
// path kicks in without waiting on timeouts.
func (g *Generator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	return g.breaker.Execute(func() (string, error) {
		var lastErr error
		for attempt := 0; attempt <= g.maxRetries; attempt++ {
			if attempt > 0 {
				if err := util.WaitFor(ctx, g.retryDelay); err != nil {
					return "", err
				}
			}

			output, err := g.generate(ctx, prompt)
			if err == nil {
				return output, nil
			}
			if ctx.Err() != nil {
				return "", err
			}
			lastErr = err
		}
		return "", lastErr
	})
}

func (g *Generator) generate(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.models.GenerateContent(callCtx, g.modelName, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	return output, nil
}

// Model reports the configured model name.
func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.modelName
}

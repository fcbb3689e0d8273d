package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doc-analyzer-api/internal/config"
	"github.com/doc-analyzer-api/internal/domain"
	"github.com/doc-analyzer-api/internal/metrics"
	"github.com/doc-analyzer-api/internal/pkg/textutil"
	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-retry"
	"github.com/sony/gobreaker"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	summaryContextChars = 12000
	summaryMaxTokens    = 1000
	summaryTemperature  = 0.3

	answerContextChars = 8000
	answerMaxTokens    = 500
	answerTemperature  = 0.2

	summarySystemPrompt = "You are a helpful assistant that provides concise, well-structured summaries of documents. " +
		"Focus on key points, main arguments, and important findings. " +
		"Format the response with clear sections using markdown."
	summaryUserPrompt = "Please provide a comprehensive summary of this document. " +
		"Structure it with clear sections and highlight the most important information:\n\n"
	answerSystemPrompt = "You are a helpful assistant that answers questions based strictly on the provided document. " +
		"If the information is not in the document, say so. " +
		"Base your answers only on the document content provided. Here is the document:\n\n"
)

// Generator is the part of a langchaingo model the assistant needs.
type Generator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Assistant summarises documents and answers questions about them.
type Assistant struct {
	model   Generator
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
	backoff func() retry.Backoff
}

func New(model Generator, timeout time.Duration) *Assistant {
	st := gobreaker.Settings{
		Name:        "llm",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state")
		},
	}
	return &Assistant{
		model:   model,
		cb:      gobreaker.NewCircuitBreaker(st),
		timeout: timeout,
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(2, retry.NewFibonacci(500*time.Millisecond))
		},
	}
}

// NewFromConfig builds an Assistant over the backend named by cfg.LLMProvider.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Assistant, error) {
	var (
		model Generator
		err   error
	)
	switch cfg.LLMProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, errors.New("llm: OPENAI_API_KEY is required")
		}
		model, err = openai.New(openai.WithToken(cfg.OpenAIAPIKey), openai.WithModel(cfg.OpenAIModel))
	case "googleai":
		if cfg.GoogleAIAPIKey == "" {
			return nil, errors.New("llm: GOOGLEAI_API_KEY is required")
		}
		model, err = googleai.New(ctx, googleai.WithAPIKey(cfg.GoogleAIAPIKey), googleai.WithDefaultModel(cfg.GoogleAIModel))
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.LLMProvider)
	}
	if err != nil {
		return nil, fmt.Errorf("llm: create %s client: %w", cfg.LLMProvider, err)
	}
	return New(model, cfg.LLMTimeout), nil
}

// Summarize returns a markdown summary of the leading part of text.
func (a *Assistant) Summarize(ctx context.Context, text string) (string, error) {
	msgs := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, summarySystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, summaryUserPrompt+textutil.Head(text, summaryContextChars)),
	}
	return a.generate(ctx, "summarize", msgs, summaryMaxTokens, summaryTemperature)
}

// Answer answers question using only the leading part of text as context.
func (a *Assistant) Answer(ctx context.Context, text, question string) (string, error) {
	msgs := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, answerSystemPrompt+textutil.Head(text, answerContextChars)),
		llms.TextParts(llms.ChatMessageTypeHuman, question),
	}
	return a.generate(ctx, "answer", msgs, answerMaxTokens, answerTemperature)
}

func (a *Assistant) generate(ctx context.Context, op string, msgs []llms.MessageContent, maxTokens int, temperature float64) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	var out string
	err := retry.Do(ctx, a.backoff(), func(ctx context.Context) error {
		res, err := a.cb.Execute(func() (interface{}, error) {
			return a.model.GenerateContent(ctx, msgs,
				llms.WithMaxTokens(maxTokens),
				llms.WithTemperature(temperature),
			)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) || ctx.Err() != nil {
				return err
			}
			log.Warn().Err(err).Str("operation", op).Msg("llm call failed, retrying")
			return retry.RetryableError(err)
		}
		resp, _ := res.(*llms.ContentResponse)
		if resp == nil || len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
			return errors.New("empty completion")
		}
		out = resp.Choices[0].Content
		return nil
	})

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.LLMRequestDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("llm %s: %w: %w", op, domain.ErrAssistantFailure, err)
	}
	return out, nil
}

// Unavailable stands in when no model could be configured; every call fails
// with the configuration error.
type Unavailable struct {
	Err error
}

func (u Unavailable) Summarize(context.Context, string) (string, error) {
	return "", fmt.Errorf("llm summarize: %w: %w", domain.ErrAssistantFailure, u.Err)
}

func (u Unavailable) Answer(context.Context, string, string) (string, error) {
	return "", fmt.Errorf("llm answer: %w: %w", domain.ErrAssistantFailure, u.Err)
}

// Package generator drafts a counseling response conditioned on retrieved examples.
package generator

import (
	"context"
	"strings"

	"github.com/hyperjump/ruiji/internal/config"
	"github.com/hyperjump/ruiji/internal/models"
	"github.com/hyperjump/ruiji/pkg/utils"
	"go.uber.org/zap"
)

const (
	// NotConfiguredMessage is returned when no completion model is configured.
	NotConfiguredMessage = "OpenAI API key not configured. Please set the OPENAI_API_KEY environment variable."
	// UnavailableMessage is returned when the completion call fails.
	UnavailableMessage = "I'm sorry, but I'm having trouble providing a response at the moment. Please try again later."
)

// Completer runs one chat completion.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Name() string
}

// Counselor turns a query and its similar examples into a response. Failures never
// surface to the caller; they are logged and replaced by a fixed message.
type Counselor struct {
	completer Completer
	logger    *zap.Logger
}

// NewCounselor wraps completer; a nil completer yields NotConfiguredMessage.
func NewCounselor(completer Completer, logger *zap.Logger) *Counselor {
	return &Counselor{completer: completer, logger: utils.OrNop(logger)}
}

// New builds a Counselor from configuration. A missing api key leaves it unconfigured.
func New(cfg config.GeneratorConfig, logger *zap.Logger) (*Counselor, error) {
	logger = utils.OrNop(logger)
	switch cfg.Provider {
	case "openai":
		if cfg.APIKey == "" {
			logger.Warn("OpenAI API key not found, responses will not be generated")
			return NewCounselor(nil, logger), nil
		}
		return NewCounselor(NewOpenAICompleter(cfg.APIKey, cfg.Model, cfg.MaxTokens, cfg.Temperature), logger), nil
	case "", "none":
		return NewCounselor(nil, logger), nil
	default:
		return nil, models.ConfigError("unknown generator provider %q", cfg.Provider)
	}
}

// Configured reports whether a completion model is available.
func (c *Counselor) Configured() bool { return c.completer != nil }

// Respond generates a response for query using examples as style guidance.
func (c *Counselor) Respond(ctx context.Context, query string, examples []models.SimilarExample) string {
	if c.completer == nil {
		return NotConfiguredMessage
	}
	c.logger.Info("requesting completion",
		zap.String("provider", c.completer.Name()),
		zap.Int("examples", len(examples)))

	out, err := c.completer.Complete(ctx, SystemPrompt, UserPrompt(query, examples))
	if err != nil {
		c.logger.Error("completion failed", zap.Error(err))
		return UnavailableMessage
	}
	return strings.TrimSpace(out)
}

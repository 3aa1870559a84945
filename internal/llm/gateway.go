package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// Classifier produces a structured analysis of an issue description.
type Classifier interface {
	Classify(ctx context.Context, issue string) (*domain.ClassificationResult, error)
}

// ErrEmptyIssue is returned for blank input; no model call is made.
var ErrEmptyIssue = errors.New("issue description is empty")

// KnowledgeSource supplies an excerpt appended to the system prompt.
type KnowledgeSource interface {
	Excerpt() string
}

// Gateway is the Classifier backed by a language model.
type Gateway struct {
	completer Completer
	knowledge KnowledgeSource
	logger    *zap.Logger
}

// GatewayOption customizes a Gateway.
type GatewayOption func(*Gateway)

// WithKnowledgeBase includes the knowledge base excerpt in every prompt.
func WithKnowledgeBase(source KnowledgeSource) GatewayOption {
	return func(g *Gateway) {
		g.knowledge = source
	}
}

// NewGateway wraps a completer.
func NewGateway(completer Completer, logger *zap.Logger, opts ...GatewayOption) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Gateway{completer: completer, logger: logger}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Classify runs one model call without retries.
func (g *Gateway) Classify(ctx context.Context, issue string) (*domain.ClassificationResult, error) {
	if strings.TrimSpace(issue) == "" {
		return nil, ErrEmptyIssue
	}

	excerpt := ""
	if g.knowledge != nil {
		excerpt = g.knowledge.Excerpt()
	}

	start := time.Now()
	completion, err := g.completer.Complete(ctx, SystemPrompt(excerpt), UserPrompt(issue))
	if err != nil {
		g.logger.Warn("classification call failed",
			zap.String("provider", g.completer.Name()),
			zap.Duration("latency", time.Since(start)),
			zap.Error(err),
		)
		return nil, &ClassificationError{Reason: ReasonTransport, Err: err}
	}

	g.logger.Info("classification call completed",
		zap.String("provider", g.completer.Name()),
		zap.Duration("latency", time.Since(start)),
		zap.Int("response_size", len(completion.Text)),
		zap.Int64("tokens_in", completion.Usage.InputTokens),
		zap.Int64("tokens_out", completion.Usage.OutputTokens),
	)

	result, err := ParseClassification(completion.Text)
	if err != nil {
		g.logger.Warn("classification reply unparsable", zap.Error(err))
		return nil, err
	}
	return result, nil
}

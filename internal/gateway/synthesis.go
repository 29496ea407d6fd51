package gateway

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	apperrors "github.com/medscribe-team/clinical-scribe/errors"
	"github.com/medscribe-team/clinical-scribe/internal/domain/entities"
	"github.com/medscribe-team/clinical-scribe/pkg/ai"
)

// NoteSynthesisGateway turns conversation material into summaries and
// structured SOAP notes.
type NoteSynthesisGateway interface {
	// Summarize produces a rolling summary of a conversation segment.
	Summarize(ctx context.Context, conversation string) (string, error)
	// Synthesize produces the four SOAP sections. Prior rolling summaries,
	// when present, precede the transcript so the provider sees the condensed
	// history as context; material may be empty when the summaries alone are
	// the conversation.
	Synthesize(ctx context.Context, material string, priorSummaries []string) (*entities.SOAPSections, error)
}

// Ensure OpenAIGateway implements NoteSynthesisGateway
var _ NoteSynthesisGateway = (*OpenAIGateway)(nil)

// OpenAIGateway implements NoteSynthesisGateway on the OpenAI chat API.
// Transient provider failures are retried with exponential backoff; a
// well-formed response that fails to parse is retried exactly once with a
// strict formatting directive before giving up.
type OpenAIGateway struct {
	client  *ai.SynthesisClient
	timeout time.Duration
	logger  *zap.Logger
}

func NewOpenAIGateway(client *ai.SynthesisClient, timeout time.Duration, logger *zap.Logger) *OpenAIGateway {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIGateway{
		client:  client,
		timeout: timeout,
		logger:  logger,
	}
}

type summaryPayload struct {
	Summary string `json:"summary"`
}

func (g *OpenAIGateway) Summarize(ctx context.Context, conversation string) (string, error) {
	var payload summaryPayload
	err := g.completeAndParse(ctx, "summarize", &payload,
		func(ctx context.Context, strict bool) (string, error) {
			return g.client.SummarizeChunk(ctx, conversation, strict)
		})
	if err != nil {
		return "", err
	}
	return payload.Summary, nil
}

func (g *OpenAIGateway) Synthesize(ctx context.Context, material string, priorSummaries []string) (*entities.SOAPSections, error) {
	composed := composeMaterial(material, priorSummaries)

	var sections entities.SOAPSections
	err := g.completeAndParse(ctx, "synthesize", &sections,
		func(ctx context.Context, strict bool) (string, error) {
			return g.client.GenerateSOAPNote(ctx, composed, strict)
		})
	if err != nil {
		return nil, err
	}
	return &sections, nil
}

// composeMaterial merges prior rolling summaries with the transcript. With
// summaries and no transcript the provider works from the condensed
// conversation alone, which is how long recordings stay inside the context
// window.
func composeMaterial(material string, priorSummaries []string) string {
	if len(priorSummaries) == 0 {
		return material
	}

	var b strings.Builder
	b.WriteString("Summaries of the conversation so far:\n\n")
	for _, s := range priorSummaries {
		b.WriteString(s)
		b.WriteString("\n\n")
	}
	if material != "" {
		b.WriteString("Full conversation transcript:\n")
		b.WriteString(material)
	}
	return b.String()
}

// completeAndParse runs the completion, parses the response into out, and on
// a parse failure re-runs the completion once in strict mode. Each run gets
// its own transient-failure retry budget.
func (g *OpenAIGateway) completeAndParse(ctx context.Context, operation string, out interface{}, complete func(context.Context, bool) (string, error)) error {
	raw, err := g.completeWithRetry(ctx, operation, false, complete)
	if err != nil {
		return err
	}

	if parseErr := json.Unmarshal([]byte(raw), out); parseErr != nil {
		g.logger.Warn("synthesis response was malformed, retrying with strict directive",
			zap.String("operation", operation),
			zap.Error(parseErr))

		raw, err = g.completeWithRetry(ctx, operation, true, complete)
		if err != nil {
			return err
		}
		if parseErr := json.Unmarshal([]byte(raw), out); parseErr != nil {
			return apperrors.ErrSynthesisFormat(parseErr)
		}
	}
	return nil
}

func (g *OpenAIGateway) completeWithRetry(ctx context.Context, operation string, strict bool, complete func(context.Context, bool) (string, error)) (string, error) {
	var raw string
	attempt := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		res, err := complete(attemptCtx, strict)
		if err != nil {
			if !ai.IsTransient(err) {
				return backoff.Permanent(err)
			}
			g.logger.Warn("synthesis attempt failed, retrying",
				zap.String("operation", operation),
				zap.Error(err))
			return err
		}
		raw = res
		return nil
	}

	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), retryAttempts)
	if err := backoff.Retry(attempt, backoff.WithContext(bo, ctx)); err != nil {
		g.logger.Error("synthesis failed",
			zap.String("operation", operation),
			zap.Error(err))
		return "", apperrors.ErrSynthesisFailed(err)
	}
	return raw, nil
}

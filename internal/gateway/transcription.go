package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	apperrors "github.com/medscribe-team/clinical-scribe/errors"
	"github.com/medscribe-team/clinical-scribe/internal/domain/entities"
	"github.com/medscribe-team/clinical-scribe/pkg/ai"
)

// retryAttempts bounds each provider call: the initial attempt plus up to
// two retries, with exponential backoff between attempts. Only transient
// failures (timeouts, rate limits, 5xx, network errors) are retried.
const retryAttempts = 2

// TranscriptionGateway converts an audio segment into diarized utterances.
// The continuity token is an opaque value returned by the previous call for
// the same session; passing it back keeps speaker labels and time offsets
// consistent across segments. Pass nil for the first segment.
type TranscriptionGateway interface {
	Transcribe(ctx context.Context, segmentID string, audio []byte, mimeType string, token []byte) ([]entities.Utterance, []byte, error)
}

// Ensure DeepgramGateway implements TranscriptionGateway
var _ TranscriptionGateway = (*DeepgramGateway)(nil)

// DeepgramGateway implements TranscriptionGateway on the Deepgram
// prerecorded API.
type DeepgramGateway struct {
	client  *ai.DeepgramClient
	timeout time.Duration
	logger  *zap.Logger
}

func NewDeepgramGateway(client *ai.DeepgramClient, timeout time.Duration, logger *zap.Logger) *DeepgramGateway {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &DeepgramGateway{
		client:  client,
		timeout: timeout,
		logger:  logger,
	}
}

// continuityState is the decoded form of the continuity token. Elapsed is
// the cumulative duration of all previously transcribed segments; Speakers
// maps provider speaker ids to the stable labels already handed out.
type continuityState struct {
	Elapsed  float64           `json:"elapsed"`
	Speakers map[string]string `json:"speakers"`
	Next     int               `json:"next"`
}

func decodeContinuity(token []byte) (*continuityState, error) {
	state := &continuityState{Speakers: make(map[string]string)}
	if len(token) == 0 {
		return state, nil
	}
	if err := json.Unmarshal(token, state); err != nil {
		return nil, err
	}
	if state.Speakers == nil {
		state.Speakers = make(map[string]string)
	}
	return state, nil
}

func (s *continuityState) encode() []byte {
	b, _ := json.Marshal(s)
	return b
}

func (s *continuityState) labelFor(providerSpeaker int) string {
	key := strconv.Itoa(providerSpeaker)
	if label, ok := s.Speakers[key]; ok {
		return label
	}
	label := fmt.Sprintf("Speaker %d", s.Next)
	s.Speakers[key] = label
	s.Next++
	return label
}

// Transcribe submits the audio segment and maps the provider's diarized
// utterances into session-relative utterances: time offsets are shifted by
// the elapsed duration of prior segments and speaker labels are reused from
// the continuity state.
func (g *DeepgramGateway) Transcribe(ctx context.Context, segmentID string, audio []byte, mimeType string, token []byte) ([]entities.Utterance, []byte, error) {
	state, err := decodeContinuity(token)
	if err != nil {
		return nil, nil, apperrors.ErrInvalidRequest("invalid continuity token")
	}

	var result *ai.TranscriptResult
	operation := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		res, err := g.client.Transcribe(attemptCtx, audio, mimeType)
		if err != nil {
			if !ai.IsTransient(err) {
				return backoff.Permanent(err)
			}
			g.logger.Warn("transcription attempt failed, retrying",
				zap.String("segment_id", segmentID),
				zap.Error(err))
			return err
		}
		result = res
		return nil
	}

	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), retryAttempts)
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		g.logger.Error("transcription failed",
			zap.String("segment_id", segmentID),
			zap.Error(err))

		var apiErr *ai.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnsupportedMediaType {
			return nil, nil, apperrors.ErrUnsupportedAudio(mimeType)
		}
		return nil, nil, apperrors.ErrTranscriptionFailed(err)
	}

	utterances := make([]entities.Utterance, 0, len(result.Utterances))
	for _, u := range result.Utterances {
		utterances = append(utterances, entities.Utterance{
			Speaker:         state.labelFor(u.Speaker),
			Text:            u.Transcript,
			StartOffset:     state.Elapsed + u.Start,
			EndOffset:       state.Elapsed + u.End,
			Confidence:      u.Confidence,
			SourceSegmentID: segmentID,
		})
	}
	state.Elapsed += result.Duration

	return utterances, state.encode(), nil
}

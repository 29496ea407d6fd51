package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/medscribe-team/clinical-scribe/pkg/config"
)

// DeepgramClient is a minimal client for the Deepgram prerecorded
// transcription API with speaker diarization enabled.
type DeepgramClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewDeepgramClient creates a Deepgram client using values from the provided
// config. Pass a nil config to fall back to environment variables.
func NewDeepgramClient(cfg *config.DeepgramConfig) *DeepgramClient {
	var apiKey string
	if cfg != nil {
		apiKey = cfg.APIKey
	}
	if apiKey == "" {
		apiKey = os.Getenv("DEEPGRAM_API_KEY")
	}

	var base string
	if cfg != nil && cfg.BaseURL != "" {
		base = cfg.BaseURL
	} else {
		base = os.Getenv("DEEPGRAM_API_URL")
		if base == "" {
			base = "https://api.deepgram.com"
		}
	}

	model := "nova-2"
	if cfg != nil && cfg.Model != "" {
		model = cfg.Model
	}

	return &DeepgramClient{
		apiKey:  apiKey,
		baseURL: base,
		model:   model,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// SpeakerUtterance is one diarized utterance as returned by the provider.
// Speaker is the provider's zero-based speaker id; offsets are relative to
// the start of the submitted audio.
type SpeakerUtterance struct {
	Speaker    int     `json:"speaker"`
	Transcript string  `json:"transcript"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
}

// TranscriptResult is the diarized transcription of one audio payload.
type TranscriptResult struct {
	Utterances []SpeakerUtterance
	Duration   float64
}

type listenResponse struct {
	Metadata struct {
		Duration float64 `json:"duration"`
	} `json:"metadata"`
	Results struct {
		Utterances []SpeakerUtterance `json:"utterances"`
	} `json:"results"`
}

// Transcribe submits raw audio bytes for prerecorded transcription with
// diarization and utterance splitting enabled.
func (c *DeepgramClient) Transcribe(ctx context.Context, audio []byte, mimeType string) (*TranscriptResult, error) {
	if len(audio) == 0 {
		return nil, fmt.Errorf("empty audio payload")
	}

	q := url.Values{}
	q.Set("model", c.model)
	q.Set("diarize", "true")
	q.Set("utterances", "true")
	q.Set("punctuate", "true")
	q.Set("smart_format", "true")

	endpoint := c.baseURL + "/v1/listen?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(audio))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Content-Type", mimeType)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &APIError{Service: "deepgram", StatusCode: resp.StatusCode}
	}

	var lr listenResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return nil, err
	}

	return &TranscriptResult{
		Utterances: lr.Results.Utterances,
		Duration:   lr.Metadata.Duration,
	}, nil
}

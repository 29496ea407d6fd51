package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/medscribe-team/clinical-scribe/pkg/config"
)

func TestTranscribe_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST got %s", r.Method)
		}
		if r.URL.Path != "/v1/listen" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("diarize") != "true" || q.Get("utterances") != "true" {
			t.Fatalf("diarization params missing: %s", r.URL.RawQuery)
		}
		if got := r.Header.Get("Authorization"); got != "Token test-key" {
			t.Fatalf("unexpected auth header %q", got)
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"metadata": map[string]interface{}{"duration": 12.5},
			"results": map[string]interface{}{
				"utterances": []map[string]interface{}{
					{"speaker": 0, "transcript": "Good morning, what brings you in?", "start": 0.1, "end": 2.4, "confidence": 0.98},
					{"speaker": 1, "transcript": "I've had a cough for a week.", "start": 2.9, "end": 5.2, "confidence": 0.95},
				},
			},
		})
	}))
	defer ts.Close()

	client := NewDeepgramClient(&config.DeepgramConfig{APIKey: "test-key", BaseURL: ts.URL})

	result, err := client.Transcribe(context.Background(), []byte("fake-audio"), "audio/wav")
	if err != nil {
		t.Fatalf("transcribe failed: %v", err)
	}
	if len(result.Utterances) != 2 {
		t.Fatalf("expected 2 utterances got %d", len(result.Utterances))
	}
	if result.Utterances[1].Speaker != 1 {
		t.Fatalf("unexpected speaker %d", result.Utterances[1].Speaker)
	}
	if result.Duration != 12.5 {
		t.Fatalf("unexpected duration %f", result.Duration)
	}
}

func TestTranscribe_ProviderError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	client := NewDeepgramClient(&config.DeepgramConfig{APIKey: "test-key", BaseURL: ts.URL})

	_, err := client.Transcribe(context.Background(), []byte("fake-audio"), "audio/wav")
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError got %T", err)
	}
	if apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status %d", apiErr.StatusCode)
	}
}

func TestTranscribe_EmptyAudio(t *testing.T) {
	client := NewDeepgramClient(&config.DeepgramConfig{APIKey: "test-key"})
	if _, err := client.Transcribe(context.Background(), nil, "audio/wav"); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limited", &APIError{Service: "deepgram", StatusCode: 429}, true},
		{"server error", &APIError{Service: "openai", StatusCode: 502}, true},
		{"timeout", &APIError{Service: "deepgram", StatusCode: 408}, true},
		{"bad request", &APIError{Service: "deepgram", StatusCode: 400}, false},
		{"unauthorized", &APIError{Service: "openai", StatusCode: 401}, false},
		{"network error", errors.New("connection refused"), true},
	}

	for _, tc := range cases {
		if got := IsTransient(tc.err); got != tc.want {
			t.Errorf("%s: IsTransient = %v, want %v", tc.name, got, tc.want)
		}
	}
}

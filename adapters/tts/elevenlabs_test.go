package tts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestNewElevenLabsRequiresAPIKey(t *testing.T) {
	logger := zaptest.NewLogger(t)

	if _, err := NewElevenLabs(Config{}, logger); err == nil {
		t.Error("expected error when API key is not set")
	}

	e, err := NewElevenLabs(Config{APIKey: "test-api-key"}, logger)
	if err != nil {
		t.Fatalf("NewElevenLabs failed: %v", err)
	}
	if e.voiceID != defaultVoiceID {
		t.Errorf("voiceID = %q, want default", e.voiceID)
	}
	if e.outputFormat != defaultOutputFormat {
		t.Errorf("outputFormat = %q, want default", e.outputFormat)
	}
}

func TestNewElevenLabsValidatesVoiceSettings(t *testing.T) {
	logger := zaptest.NewLogger(t)

	if _, err := NewElevenLabs(Config{APIKey: "k", Stability: 1.5}, logger); err == nil {
		t.Error("expected error for out-of-range stability")
	}
	if _, err := NewElevenLabs(Config{APIKey: "k", Clarity: -0.1}, logger); err == nil {
		t.Error("expected error for out-of-range clarity")
	}
}

func TestSynthesizeRejectsEmptyText(t *testing.T) {
	logger := zaptest.NewLogger(t)
	e, err := NewElevenLabs(Config{APIKey: "test-api-key"}, logger)
	if err != nil {
		t.Fatalf("NewElevenLabs failed: %v", err)
	}

	if _, err := e.Synthesize(context.Background(), ""); err == nil {
		t.Error("expected error for empty text")
	}
	if _, err := e.Synthesize(context.Background(), "   "); err == nil {
		t.Error("expected error for whitespace-only text")
	}
}

func TestSynthesizeStreamsChunks(t *testing.T) {
	payload := make([]byte, 4096)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("xi-api-key"); got != "test-api-key" {
			t.Errorf("xi-api-key = %q", got)
		}
		w.Write(payload)
	}))
	defer server.Close()

	e, err := NewElevenLabs(Config{APIKey: "test-api-key", APIBaseURL: server.URL}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewElevenLabs failed: %v", err)
	}

	audioChan, err := e.Synthesize(context.Background(), "Welcome to Maison Verre.")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	total := 0
	for chunk := range audioChan {
		if len(chunk) == 0 {
			t.Error("received empty audio chunk")
		}
		total += len(chunk)
	}
	if total != len(payload) {
		t.Errorf("received %d bytes, want %d", total, len(payload))
	}
}

func TestSynthesizeClosesChannelOnAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	e, err := NewElevenLabs(Config{APIKey: "bad-key", APIBaseURL: server.URL}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewElevenLabs failed: %v", err)
	}

	audioChan, err := e.Synthesize(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	for range audioChan {
		t.Error("received audio despite API error")
	}
}

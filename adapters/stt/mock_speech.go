package stt

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/maisonverre/concierge/domain/repositories"
)

// MockTranscriber is a canned transcriber for local development without
// Google Cloud credentials.
type MockTranscriber struct {
	logger *zap.Logger
}

// NewMockTranscriber creates a mock transcriber.
func NewMockTranscriber(logger *zap.Logger) *MockTranscriber {
	return &MockTranscriber{logger: logger}
}

// Transcribe returns a canned utterance sized to the audio payload.
func (m *MockTranscriber) Transcribe(ctx context.Context, audio []byte, config repositories.AudioConfig) (string, error) {
	m.logger.Info("Mock transcription",
		zap.Int("audio_bytes", len(audio)),
		zap.String("encoding", config.Encoding))

	if len(audio) == 0 {
		return "", fmt.Errorf("no audio data received")
	}

	switch {
	case len(audio) > 10000:
		return "I'm looking for thirty milliliter amber bottles with a fine mist sprayer.", nil
	case len(audio) > 1000:
		return "Show me roll-on bottles.", nil
	default:
		return "Hello.", nil
	}
}

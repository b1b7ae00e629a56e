package tts

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// MockSynthesizer emits silence-shaped PCM for local development without an
// ElevenLabs key.
type MockSynthesizer struct {
	logger *zap.Logger
}

// NewMockSynthesizer creates a mock synthesizer.
func NewMockSynthesizer(logger *zap.Logger) *MockSynthesizer {
	return &MockSynthesizer{logger: logger}
}

// Synthesize streams zeroed PCM sized to the text length.
func (m *MockSynthesizer) Synthesize(ctx context.Context, text string) (<-chan []byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	m.logger.Info("Mock synthesis", zap.Int("text_chars", len(text)))

	audioChan := make(chan []byte, 4)
	go func() {
		defer close(audioChan)
		for i := 0; i < len(text)/16+1; i++ {
			select {
			case audioChan <- make([]byte, defaultChunkSize):
			case <-ctx.Done():
				return
			}
		}
	}()
	return audioChan, nil
}

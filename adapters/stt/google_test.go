package stt_test

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/maisonverre/concierge/adapters/stt"
	"github.com/maisonverre/concierge/domain/repositories"
)

var _ repositories.Transcriber = &stt.GoogleTranscriber{}
var _ repositories.Transcriber = &stt.MockTranscriber{}

func TestMockTranscriberRejectsEmptyAudio(t *testing.T) {
	m := stt.NewMockTranscriber(zap.NewNop())
	if _, err := m.Transcribe(context.Background(), nil, repositories.AudioConfig{}); err == nil {
		t.Error("expected error for empty audio")
	}
}

func TestMockTranscriberReturnsText(t *testing.T) {
	m := stt.NewMockTranscriber(zap.NewNop())
	text, err := m.Transcribe(context.Background(), make([]byte, 2048), repositories.AudioConfig{Encoding: "WEBM_OPUS"})
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if text == "" {
		t.Error("empty transcription")
	}
}

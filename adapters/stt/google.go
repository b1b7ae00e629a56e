// Package stt implements the dictation transcriber over Google Cloud
// Speech-to-Text. Only the legacy dictation endpoint uses it; live sessions
// transcribe on the conversational-AI side.
package stt

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/maisonverre/concierge/domain/repositories"
)

// GoogleTranscriber implements repositories.Transcriber.
type GoogleTranscriber struct {
	logger *zap.Logger
}

// NewGoogleTranscriber creates a transcriber. Credentials come from the
// ambient Google Cloud environment.
func NewGoogleTranscriber(logger *zap.Logger) *GoogleTranscriber {
	return &GoogleTranscriber{logger: logger}
}

// Transcribe converts one complete dictated utterance to text.
func (g *GoogleTranscriber) Transcribe(ctx context.Context, audio []byte, config repositories.AudioConfig) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("no audio data received")
	}

	encoding, err := audioEncoding(config.Encoding)
	if err != nil {
		return "", err
	}
	language := config.Language
	if language == "" {
		language = "en-US"
	}

	client, err := speech.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create speech client: %w", err)
	}
	defer client.Close()

	resp, err := client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        encoding,
			SampleRateHertz: int32(config.SampleRate),
			LanguageCode:    language,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", fmt.Errorf("recognition failed: %w", err)
	}

	var transcript strings.Builder
	for _, result := range resp.Results {
		if len(result.Alternatives) > 0 {
			transcript.WriteString(result.Alternatives[0].Transcript)
		}
	}
	text := strings.TrimSpace(transcript.String())
	if text == "" {
		return "", fmt.Errorf("no speech detected in audio")
	}

	g.logger.Info("Dictation transcribed",
		zap.Int("audio_bytes", len(audio)),
		zap.Int("transcript_chars", len(text)))
	return text, nil
}

func audioEncoding(encoding string) (speechpb.RecognitionConfig_AudioEncoding, error) {
	switch encoding {
	case "WAV", "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16, nil
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC, nil
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS, nil
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, fmt.Errorf("unsupported encoding: %s", encoding)
	}
}

package repositories

import "context"

// AudioConfig describes the encoding of dictated audio.
type AudioConfig struct {
	SampleRate int
	Language   string
	Encoding   string // "LINEAR16" | "WEBM_OPUS" | "OGG_OPUS"
}

// Transcriber converts a complete dictated utterance to text. Used only by
// the legacy dictation endpoint; the live session transcribes server-side.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, config AudioConfig) (string, error)
}

// Synthesizer streams synthesized speech for a piece of text, chunk by chunk.
// The channel closes when synthesis completes or the context is cancelled.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (<-chan []byte, error)
}

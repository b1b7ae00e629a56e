package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ErrNotConfigured is returned when no upstream API key is available; the
// API layer maps it to a service-unavailable response.
var ErrNotConfigured = errors.New("realtime service credentials not configured")

// Credential is a short-lived token a client session uses to negotiate the
// media session directly with the conversational-AI endpoint.
type Credential struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CredentialBroker mints ephemeral credentials against the upstream realtime
// service, pre-configuring the session with the concierge instructions and
// the fixed tool catalog. The real API key never leaves the server.
type CredentialBroker struct {
	baseURL string
	apiKey  string
	model   string
	voice   string
	client  *http.Client
	logger  *zap.Logger
}

// NewCredentialBroker creates a broker for the given upstream base URL
// (e.g. https://api.openai.com).
func NewCredentialBroker(baseURL, apiKey, model, voice string, logger *zap.Logger) *CredentialBroker {
	return &CredentialBroker{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		voice:   voice,
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

type sessionRequest struct {
	Model                   string              `json:"model"`
	Voice                   string              `json:"voice"`
	Instructions            string              `json:"instructions"`
	Tools                   []ToolSchema        `json:"tools"`
	MaxResponseOutputTokens int                 `json:"max_response_output_tokens"`
	TurnDetection           turnDetection       `json:"turn_detection"`
	InputAudioTranscription transcriptionConfig `json:"input_audio_transcription"`
}

type turnDetection struct {
	Type              string  `json:"type"`
	Threshold         float64 `json:"threshold"`
	PrefixPaddingMs   int     `json:"prefix_padding_ms"`
	SilenceDurationMs int     `json:"silence_duration_ms"`
}

type transcriptionConfig struct {
	Model    string `json:"model"`
	Language string `json:"language"`
}

type sessionResponse struct {
	ClientSecret *struct {
		Value     string `json:"value"`
		ExpiresAt int64  `json:"expires_at"`
	} `json:"client_secret"`
}

type upstreamError struct {
	Error *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Issue mints a credential. The instructions argument is accepted for
// interface continuity but deliberately ignored: injecting the full
// knowledge base into every turn exhausts the service's token budget within
// a handful of turns, and the session's tools fetch product data live. The
// canonical voice instructions are applied instead.
func (b *CredentialBroker) Issue(ctx context.Context, _ string) (Credential, error) {
	if b.apiKey == "" {
		return Credential{}, ErrNotConfigured
	}

	body, err := json.Marshal(sessionRequest{
		Model:                   b.model,
		Voice:                   b.voice,
		Instructions:            voiceInstructions,
		Tools:                   ToolSchemas(),
		MaxResponseOutputTokens: 300,
		TurnDetection: turnDetection{
			Type:              "server_vad",
			Threshold:         0.5,
			PrefixPaddingMs:   300,
			SilenceDurationMs: 600,
		},
		InputAudioTranscription: transcriptionConfig{Model: "whisper-1", Language: "en"},
	})
	if err != nil {
		return Credential{}, fmt.Errorf("failed to encode session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		b.baseURL+"/v1/realtime/sessions", bytes.NewReader(body))
	if err != nil {
		return Credential{}, fmt.Errorf("failed to build session request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+b.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return Credential{}, fmt.Errorf("realtime session request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Credential{}, fmt.Errorf("failed to read session response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		b.logger.Error("Realtime session creation rejected",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", truncate(raw, 512)))
		msg := "failed to create realtime session"
		var ue upstreamError
		if json.Unmarshal(raw, &ue) == nil && ue.Error != nil {
			if ue.Error.Message != "" {
				msg = ue.Error.Message
			} else if ue.Error.Code != "" {
				msg = ue.Error.Code
			}
		}
		return Credential{}, fmt.Errorf("upstream status %d: %s", resp.StatusCode, msg)
	}

	var sr sessionResponse
	if err := json.Unmarshal(raw, &sr); err != nil {
		return Credential{}, fmt.Errorf("malformed session response: %w", err)
	}
	if sr.ClientSecret == nil || sr.ClientSecret.Value == "" {
		return Credential{}, fmt.Errorf("session response carried no client secret")
	}

	return Credential{
		Token:     sr.ClientSecret.Value,
		ExpiresAt: time.Unix(sr.ClientSecret.ExpiresAt, 0),
	}, nil
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}

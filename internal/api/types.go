package api

import "time"

// SessionResponse is the payload returned when a storefront client opens a
// session.
type SessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	ClientID  string    `json:"client_id"`
}

// RealtimeTokenRequest carries optional client-side instructions. They are
// accepted for wire compatibility; the broker substitutes its own.
type RealtimeTokenRequest struct {
	Instructions string `json:"instructions,omitempty"`
}

// RealtimeTokenResponse is the ephemeral credential handed to the client.
type RealtimeTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TranscribeRequest is one complete dictated utterance.
type TranscribeRequest struct {
	Audio      string `json:"audio"` // base64 encoded
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sample_rate"`
	Language   string `json:"language,omitempty"`
}

// TranscribeResponse is the recognized text.
type TranscribeResponse struct {
	Text string `json:"text"`
}

// SynthesizeRequest is text to be spoken on the legacy voice path.
type SynthesizeRequest struct {
	Text string `json:"text"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

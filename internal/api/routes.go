// Package api wires the HTTP surface: session minting, realtime credential
// brokering, the legacy dictation endpoints, and the websocket upgrade.
package api

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/maisonverre/concierge/domain/repositories"
	"github.com/maisonverre/concierge/internal/auth"
	"github.com/maisonverre/concierge/internal/orchestrator"
	"github.com/maisonverre/concierge/internal/realtime"
	"github.com/maisonverre/concierge/internal/ws"
)

// Deps bundles what the handlers need.
type Deps struct {
	Hub         *ws.Hub
	Auth        *auth.Manager
	Issuer      orchestrator.CredentialIssuer
	Transcriber repositories.Transcriber
	Synthesizer repositories.Synthesizer
	Logger      *zap.Logger
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, deps Deps) {
	h := &handlers{deps: deps}

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "concierge-server",
		})
	})

	// API v1 routes
	v1 := e.Group("/api/v1")

	v1.POST("/session", h.createSession)
	v1.POST("/realtime/token", h.realtimeToken)
	v1.POST("/voice/transcribe", h.transcribe)
	v1.POST("/voice", h.synthesize)

	// WebSocket endpoint with JWT validation
	e.GET("/ws", h.websocketWithAuth)
}

type handlers struct {
	deps Deps
}

// createSession mints a fresh client session token for the storefront.
func (h *handlers) createSession(c echo.Context) error {
	clientID := uuid.NewString()

	token, expiresAt, err := h.deps.Auth.IssueClientToken(clientID)
	if err != nil {
		h.deps.Logger.Error("Failed to issue session token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate session token",
		})
	}

	h.deps.Logger.Info("Session created", zap.String("client_id", clientID))
	return c.JSON(http.StatusOK, SessionResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		ClientID:  clientID,
	})
}

// realtimeToken brokers an ephemeral credential for the conversational-AI
// service. The storefront never sees the server API key.
func (h *handlers) realtimeToken(c echo.Context) error {
	var req RealtimeTokenRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	cred, err := h.deps.Issuer.Issue(c.Request().Context(), req.Instructions)
	if err != nil {
		if errors.Is(err, realtime.ErrNotConfigured) {
			return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
				Error:   "not_configured",
				Message: "Realtime service is not configured",
			})
		}
		h.deps.Logger.Error("Failed to mint realtime credential", zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "upstream_error",
			Message: "Failed to obtain realtime credential",
		})
	}

	return c.JSON(http.StatusOK, RealtimeTokenResponse{
		Token:     cred.Token,
		ExpiresAt: cred.ExpiresAt,
	})
}

// transcribe converts one dictated utterance to text on the legacy voice
// path.
func (h *handlers) transcribe(c echo.Context) error {
	var req TranscribeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	audio, err := base64.StdEncoding.DecodeString(req.Audio)
	if err != nil || len(audio) == 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_audio",
			Message: "Audio must be non-empty base64",
		})
	}

	text, err := h.deps.Transcriber.Transcribe(c.Request().Context(), audio, repositories.AudioConfig{
		Encoding:   req.Encoding,
		SampleRate: req.SampleRate,
		Language:   req.Language,
	})
	if err != nil {
		h.deps.Logger.Warn("Transcription failed", zap.Error(err))
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "transcription_failed",
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, TranscribeResponse{Text: text})
}

// synthesize streams spoken audio for the given text on the legacy voice
// path.
func (h *handlers) synthesize(c echo.Context) error {
	var req SynthesizeRequest
	if err := c.Bind(&req); err != nil || req.Text == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Text is required",
		})
	}

	audioChan, err := h.deps.Synthesizer.Synthesize(c.Request().Context(), req.Text)
	if err != nil {
		h.deps.Logger.Error("Synthesis failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "synthesis_failed",
			Message: "Failed to synthesize speech",
		})
	}

	c.Response().Header().Set(echo.HeaderContentType, "audio/pcm")
	c.Response().WriteHeader(http.StatusOK)
	for chunk := range audioChan {
		if _, err := c.Response().Write(chunk); err != nil {
			return err
		}
		c.Response().Flush()
	}
	return nil
}

// websocketWithAuth handles WebSocket connections with JWT authentication
func (h *handlers) websocketWithAuth(c echo.Context) error {
	// Browsers cannot set headers on websocket dials, so accept the token
	// from the query string as well.
	var token string
	authHeader := c.Request().Header.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		token = authHeader[7:]
	}
	if token == "" {
		token = c.QueryParam("token")
	}

	if token == "" {
		h.deps.Logger.Warn("WebSocket connection rejected: missing token")
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_token",
			Message: "Session token is required",
		})
	}

	claims, err := h.deps.Auth.Validate(token)
	if err != nil {
		h.deps.Logger.Warn("WebSocket connection rejected: invalid token", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired session token",
		})
	}

	h.deps.Logger.Info("WebSocket connection authenticated",
		zap.String("client_id", claims.ClientID))
	return h.deps.Hub.Serve(c, claims.ClientID)
}

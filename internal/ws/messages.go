package ws

import (
	"encoding/json"
	"time"

	"github.com/maisonverre/concierge/domain/entities"
)

// Inbound frame types sent by the storefront client. Binary frames carry raw
// microphone PCM and have no JSON envelope.
const (
	FrameConversationStart = "conversation_start"
	FrameConversationEnd   = "conversation_end"
	FrameSend              = "send"
	FrameConfirm           = "confirm"
	FrameDismiss           = "dismiss"
	FrameInterrupt         = "interrupt"
)

// Outbound frame types pushed to the storefront client. Binary frames carry
// assistant voice PCM.
const (
	FrameStatus         = "status"
	FrameMessage        = "message"
	FrameMessageUpdated = "message_updated"
	FrameNavigate       = "navigate"
	FrameError          = "error"
)

// ClientFrame is the envelope for all inbound text frames.
type ClientFrame struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	MessageID string `json:"message_id,omitempty"`
}

// StatusFrame reports a conversation status change.
type StatusFrame struct {
	Type      string          `json:"type"`
	Status    entities.Status `json:"status"`
	Timestamp string          `json:"timestamp"`
}

// MessageFrame carries an appended or updated transcript message.
type MessageFrame struct {
	Type    string           `json:"type"`
	Message entities.Message `json:"message"`
}

// NavigateFrame tells the storefront to change route.
type NavigateFrame struct {
	Type string `json:"type"`
	Path string `json:"path"`
}

// ErrorFrame reports a client-frame level problem.
type ErrorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func statusFrame(status entities.Status) []byte {
	payload, _ := json.Marshal(StatusFrame{
		Type:      FrameStatus,
		Status:    status,
		Timestamp: time.Now().Format(time.RFC3339),
	})
	return payload
}

func messageFrame(frameType string, msg entities.Message) []byte {
	payload, _ := json.Marshal(MessageFrame{Type: frameType, Message: msg})
	return payload
}

func navigateFrame(path string) []byte {
	payload, _ := json.Marshal(NavigateFrame{Type: FrameNavigate, Path: path})
	return payload
}

func errorFrame(message string) []byte {
	payload, _ := json.Marshal(ErrorFrame{Type: FrameError, Message: message})
	return payload
}

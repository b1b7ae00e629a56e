package ws

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/maisonverre/concierge/domain/entities"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024 // 512KB for audio chunks

	// startTimeout bounds credential minting plus the realtime dial.
	startTimeout = 30 * time.Second

	// sendTimeout must outlast the fallback path's own deadline so the
	// orchestrator, not the bridge, decides when a reply has timed out.
	sendTimeout = 60 * time.Second

	confirmTimeout = 15 * time.Second
)

// WriteData is one outbound websocket write.
type WriteData struct {
	// Type is websocket.TextMessage or websocket.BinaryMessage.
	Type    int
	Payload []byte
}

// Client bridges one storefront websocket connection to its conversation
// session. It implements orchestrator.Observer: observer callbacks enqueue
// frames without blocking, dropping on backpressure rather than stalling the
// orchestrator's event loop.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound writes.
	send chan WriteData

	clientID string
	session  Session
	logger   *zap.Logger

	// lastActive is a unix-nano timestamp updated on every inbound frame,
	// read by the idle reaper.
	lastActive atomic.Int64
}

// StatusChanged implements orchestrator.Observer.
func (c *Client) StatusChanged(status entities.Status) {
	c.enqueue(websocket.TextMessage, statusFrame(status))
}

// MessageAppended implements orchestrator.Observer.
func (c *Client) MessageAppended(msg entities.Message) {
	c.enqueue(websocket.TextMessage, messageFrame(FrameMessage, msg))
}

// MessageUpdated implements orchestrator.Observer.
func (c *Client) MessageUpdated(msg entities.Message) {
	c.enqueue(websocket.TextMessage, messageFrame(FrameMessageUpdated, msg))
}

// AssistantAudio implements orchestrator.Observer.
func (c *Client) AssistantAudio(pcm []byte) {
	c.enqueue(websocket.BinaryMessage, pcm)
}

// Navigated implements orchestrator.Observer.
func (c *Client) Navigated(path string) {
	c.enqueue(websocket.TextMessage, navigateFrame(path))
}

// enqueue hands a write to the write pump without blocking. A full buffer
// means the peer is not draining; dropping is preferable to stalling the
// caller, which may hold the orchestrator lock.
func (c *Client) enqueue(messageType int, payload []byte) {
	select {
	case c.send <- WriteData{Type: messageType, Payload: payload}:
	default:
		c.logger.Warn("Dropping outbound frame, client not draining",
			zap.String("clientID", c.clientID),
			zap.Int("bytes", len(payload)))
	}
}

func (c *Client) touch() {
	c.lastActive.Store(time.Now().UnixNano())
}

func (c *Client) idleSince() time.Time {
	return time.Unix(0, c.lastActive.Load())
}

// readPump pumps messages from the websocket connection to the session.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.session.Close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		c.touch()
		switch messageType {
		case websocket.TextMessage:
			c.handleFrame(message)
		case websocket.BinaryMessage:
			c.session.AppendAudio(message)
		default:
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}
	}
}

// writePump pumps messages from the session to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleFrame processes one inbound text frame. Frames that may block
// (starting a session, sending a turn, confirming a cart proposal) run in
// their own goroutine so the read pump keeps draining the connection; the
// orchestrator serializes the resulting events itself.
func (c *Client) handleFrame(message []byte) {
	var frame ClientFrame
	if err := json.Unmarshal(message, &frame); err != nil {
		c.logger.Error("Failed to parse frame", zap.Error(err))
		c.enqueue(websocket.TextMessage, errorFrame("invalid frame"))
		return
	}

	switch frame.Type {
	case FrameConversationStart:
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
			defer cancel()
			if err := c.session.StartConversation(ctx); err != nil {
				c.logger.Warn("Failed to start conversation",
					zap.String("clientID", c.clientID),
					zap.Error(err))
			}
		}()

	case FrameConversationEnd:
		c.session.EndConversation()

	case FrameSend:
		text := strings.TrimSpace(frame.Text)
		if text == "" {
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
			defer cancel()
			if err := c.session.Send(ctx, text); err != nil {
				c.logger.Warn("Send failed",
					zap.String("clientID", c.clientID),
					zap.Error(err))
			}
		}()

	case FrameConfirm:
		if frame.MessageID == "" {
			c.enqueue(websocket.TextMessage, errorFrame("confirm requires message_id"))
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), confirmTimeout)
			defer cancel()
			if err := c.session.Confirm(ctx, frame.MessageID); err != nil {
				// The gate re-arms the proposal and notifies the UI itself.
				c.logger.Warn("Cart confirmation failed",
					zap.String("clientID", c.clientID),
					zap.String("messageID", frame.MessageID),
					zap.Error(err))
			}
		}()

	case FrameDismiss:
		if frame.MessageID == "" {
			c.enqueue(websocket.TextMessage, errorFrame("dismiss requires message_id"))
			return
		}
		c.session.Dismiss(frame.MessageID)

	case FrameInterrupt:
		c.session.Interrupt()

	default:
		c.logger.Warn("Unknown frame type", zap.String("type", frame.Type))
		c.enqueue(websocket.TextMessage, errorFrame("unsupported frame type: "+frame.Type))
	}
}

package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a control event to the service.
	writeWait = 10 * time.Second

	// Handshake bound for the websocket dial.
	dialTimeout = 15 * time.Second
)

// TransportError reports a failure to establish or keep the live connection:
// denied capture, failed negotiation, or a non-2xx handshake.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("realtime transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Transport owns one live connection to the conversational-AI service: the
// control channel for structured events and, multiplexed over it, the audio
// media stream. It has no knowledge of application semantics.
type Transport struct {
	url    string
	dialer *websocket.Dialer
	logger *zap.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	open    bool
	closed  bool
	pumping bool

	events chan []byte
}

// NewTransport creates a transport aimed at the given websocket URL
// (scheme wss, model query already included).
func NewTransport(url string, logger *zap.Logger) *Transport {
	return &Transport{
		url:    url,
		dialer: &websocket.Dialer{HandshakeTimeout: dialTimeout},
		logger: logger,
		events: make(chan []byte, 64),
	}
}

// Open negotiates the session using the supplied short-lived credential and
// starts the read pump. The credential must not have expired.
func (t *Transport) Open(ctx context.Context, cred Credential) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return &TransportError{Op: "open", Err: fmt.Errorf("transport already closed")}
	}
	if t.open {
		return &TransportError{Op: "open", Err: fmt.Errorf("transport already open")}
	}
	if cred.Token == "" {
		return &TransportError{Op: "open", Err: fmt.Errorf("empty credential")}
	}
	if !cred.ExpiresAt.IsZero() && time.Now().After(cred.ExpiresAt) {
		return &TransportError{Op: "open", Err: fmt.Errorf("credential expired at %s", cred.ExpiresAt)}
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+cred.Token)
	header.Set("OpenAI-Beta", "realtime=v1")

	conn, resp, err := t.dialer.DialContext(ctx, t.url, header)
	if err != nil {
		if resp != nil {
			return &TransportError{Op: "handshake", Err: fmt.Errorf("status %d: %w", resp.StatusCode, err)}
		}
		return &TransportError{Op: "dial", Err: err}
	}

	t.conn = conn
	t.open = true
	t.pumping = true
	go t.readPump(conn)

	t.logger.Info("Realtime control channel open", zap.String("url", t.url))
	return nil
}

// Events returns the inbound control-event stream. The channel closes when
// the connection ends; if it ended on a read error (rather than Close), a
// synthesized error event precedes the close so consumers observe the
// failure through the same decode path as service-reported errors.
func (t *Transport) Events() <-chan []byte {
	return t.events
}

// Send enqueues a structured control event. It is a silent no-op when the
// control channel is not open; callers must not assume delivery.
func (t *Transport) Send(ev Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.open {
		return
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		t.logger.Error("Failed to encode control event", zap.String("type", ev.Type), zap.Error(err))
		return
	}

	t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := t.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		t.logger.Error("Failed to write control event", zap.String("type", ev.Type), zap.Error(err))
	}
}

// AppendAudio forwards one captured audio chunk to the service's input
// buffer. No-op when the channel is not open, like Send.
func (t *Transport) AppendAudio(pcm []byte) {
	if len(pcm) == 0 {
		return
	}
	t.Send(AudioAppendEvent(pcm))
}

// Close releases the connection. Idempotent; safe on a never-opened
// transport.
func (t *Transport) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.open = false
	conn := t.conn
	pumping := t.pumping
	t.mu.Unlock()

	if conn != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		conn.Close()
	}
	if !pumping {
		// Read pump never started; close the stream ourselves. When it did
		// start, it owns closing the stream, even after a read failure.
		close(t.events)
	}
	t.logger.Info("Realtime control channel closed")
}

func (t *Transport) readPump(conn *websocket.Conn) {
	defer close(t.events)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			t.mu.Lock()
			deliberate := t.closed
			t.open = false
			t.mu.Unlock()

			if !deliberate {
				t.logger.Error("Realtime read failed", zap.Error(err))
				conn.Close()
				failure, _ := json.Marshal(Event{
					Type:  eventError,
					Error: &EventError{Message: "connection lost"},
				})
				t.events <- failure
			}
			return
		}
		t.events <- message
	}
}

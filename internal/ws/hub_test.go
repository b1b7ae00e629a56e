package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/maisonverre/concierge/domain/entities"
	"github.com/maisonverre/concierge/internal/orchestrator"
)

func newTestHub(session *fakeSession) *Hub {
	return NewHub(func(obs orchestrator.Observer) Session {
		return session
	}, zap.NewNop())
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := newTestHub(&fakeSession{})
	go hub.Run()

	client := newTestClient(&fakeSession{})
	client.hub = hub

	hub.register <- client
	waitFor(t, func() bool {
		return len(hub.ActiveClients()) == 1
	})

	hub.unregister <- client
	waitFor(t, func() bool {
		return len(hub.ActiveClients()) == 0
	})
}

func TestHubReconnectSupersedesOldClient(t *testing.T) {
	hub := newTestHub(&fakeSession{})
	go hub.Run()

	oldSession := &fakeSession{}
	old := newTestClient(oldSession)
	old.hub = hub
	hub.register <- old
	waitFor(t, func() bool {
		return len(hub.ActiveClients()) == 1
	})

	replacement := newTestClient(&fakeSession{})
	replacement.hub = hub
	hub.register <- replacement

	waitFor(t, func() bool {
		oldSession.mu.Lock()
		defer oldSession.mu.Unlock()
		return oldSession.closed == 1
	})

	// The old client's unregister must not evict the replacement.
	hub.unregister <- old
	time.Sleep(50 * time.Millisecond)
	if got := len(hub.ActiveClients()); got != 1 {
		t.Errorf("active clients = %d, want 1", got)
	}
}

func TestEndIdleSessions(t *testing.T) {
	idleSession := &fakeSession{status: entities.StatusIdle}
	liveSession := &fakeSession{status: entities.StatusListening}
	freshSession := &fakeSession{status: entities.StatusSpeaking}

	hub := newTestHub(&fakeSession{})

	stale := newTestClient(liveSession)
	stale.clientID = "stale"
	stale.lastActive.Store(time.Now().Add(-time.Hour).UnixNano())

	idle := newTestClient(idleSession)
	idle.clientID = "idle"
	idle.lastActive.Store(time.Now().Add(-time.Hour).UnixNano())

	fresh := newTestClient(freshSession)
	fresh.clientID = "fresh"

	hub.clients["stale"] = stale
	hub.clients["idle"] = idle
	hub.clients["fresh"] = fresh

	if got := hub.endIdleSessions(10 * time.Minute); got != 1 {
		t.Errorf("ended = %d, want 1", got)
	}
	if liveSession.ended != 1 {
		t.Errorf("stale live session ended = %d, want 1", liveSession.ended)
	}
	if idleSession.ended != 0 {
		t.Error("idle session should not be ended")
	}
	if freshSession.ended != 0 {
		t.Error("fresh session should not be ended")
	}
}

func TestReaperSweeps(t *testing.T) {
	liveSession := &fakeSession{status: entities.StatusListening}
	hub := newTestHub(&fakeSession{})

	stale := newTestClient(liveSession)
	stale.lastActive.Store(time.Now().Add(-time.Hour).UnixNano())
	hub.clients[stale.clientID] = stale

	reaper := NewReaper(hub, 10*time.Minute, 10*time.Millisecond, zap.NewNop())
	reaper.Start()
	defer reaper.Stop()

	waitFor(t, func() bool {
		liveSession.mu.Lock()
		defer liveSession.mu.Unlock()
		return liveSession.ended >= 1
	})
}

func TestServeBridgesFrames(t *testing.T) {
	session := &fakeSession{}
	hub := newTestHub(session)
	go hub.Run()

	e := echo.New()
	e.GET("/ws", func(c echo.Context) error {
		return hub.Serve(c, "client-1")
	})
	server := httptest.NewServer(e)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	waitFor(t, func() bool {
		return len(hub.ActiveClients()) == 1
	})

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"send","text":"hello"}`)); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	waitFor(t, func() bool {
		session.mu.Lock()
		defer session.mu.Unlock()
		return len(session.sent) == 1
	})

	if err := conn.WriteMessage(websocket.BinaryMessage, make([]byte, 320)); err != nil {
		t.Fatalf("write audio failed: %v", err)
	}
	waitFor(t, func() bool {
		session.mu.Lock()
		defer session.mu.Unlock()
		return session.audioBytes == 320
	})

	// Outbound path: an observer callback reaches the dialer as a frame.
	hub.mu.RLock()
	client := hub.clients["client-1"]
	hub.mu.RUnlock()
	client.StatusChanged(entities.StatusListening)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var frame StatusFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if frame.Status != entities.StatusListening {
		t.Errorf("status = %q, want listening", frame.Status)
	}

	conn.Close()
	waitFor(t, func() bool {
		session.mu.Lock()
		defer session.mu.Unlock()
		return session.closed >= 1
	})
}

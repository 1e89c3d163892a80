package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestNewHub(t *testing.T) {
	hub := NewHub(nil)

	if hub == nil {
		t.Fatal("NewHub() returned nil")
	}
	if hub.clients == nil {
		t.Error("Hub clients map is nil")
	}
	if hub.broadcast == nil {
		t.Error("Hub broadcast channel is nil")
	}
	if hub.register == nil {
		t.Error("Hub register channel is nil")
	}
	if hub.unregister == nil {
		t.Error("Hub unregister channel is nil")
	}
}

func TestHubClientCount(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Stop()

	if count := hub.ClientCount(); count != 0 {
		t.Errorf("Expected 0 clients, got %d", count)
	}
}

func TestHubBroadcastNoClients(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Stop()

	// Broadcasting with no clients must not panic or block.
	hub.BroadcastEvent(Event{Type: "progress", BuildID: "b-1", Percent: 40})
	time.Sleep(10 * time.Millisecond)
}

func TestEventJSON(t *testing.T) {
	event := Event{
		Type:      "stageStarted",
		BuildID:   "b-42",
		Commander: "Krenko, Mob Boss",
		Stage:     "lands",
		Message:   "Building the mana base",
	}

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("Failed to marshal event: %v", err)
	}

	var decoded Event
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal event: %v", err)
	}

	if decoded != event {
		t.Errorf("round trip = %+v, want %+v", decoded, event)
	}
	if strings.Contains(string(data), "percent") {
		t.Errorf("zero percent should be omitted, got %s", data)
	}
}

func TestHubWebSocketConnection(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Stop()

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWs))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	dialer := websocket.Dialer{}
	conn, _, err := dialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	time.Sleep(50 * time.Millisecond)

	if count := hub.ClientCount(); count != 1 {
		t.Errorf("Expected 1 client, got %d", count)
	}

	hub.BroadcastEvent(Event{Type: "connected", BuildID: "b-7"})

	conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	_, message, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read message: %v", err)
	}

	var received Event
	if err := json.Unmarshal(message, &received); err != nil {
		t.Fatalf("Failed to unmarshal received message: %v", err)
	}
	if received.Type != "connected" || received.BuildID != "b-7" {
		t.Errorf("received %+v, want connected/b-7", received)
	}
}

func TestHubMultipleClients(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Stop()

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWs))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	dialer := websocket.Dialer{}
	var conns []*websocket.Conn
	for i := 0; i < 3; i++ {
		conn, _, err := dialer.Dial(wsURL, nil)
		if err != nil {
			t.Fatalf("Failed to connect client %d: %v", i, err)
		}
		conns = append(conns, conn)
	}
	defer func() {
		for _, conn := range conns {
			conn.Close()
		}
	}()

	time.Sleep(50 * time.Millisecond)

	if count := hub.ClientCount(); count != 3 {
		t.Errorf("Expected 3 clients, got %d", count)
	}

	hub.BroadcastEvent(Event{Type: "complete", BuildID: "b-9", Message: "Deck complete: 100 cards"})

	for i, conn := range conns {
		conn.SetReadDeadline(time.Now().Add(1 * time.Second))
		_, message, err := conn.ReadMessage()
		if err != nil {
			t.Errorf("Client %d failed to read message: %v", i, err)
			continue
		}

		var received Event
		if err := json.Unmarshal(message, &received); err != nil {
			t.Errorf("Client %d failed to unmarshal message: %v", i, err)
			continue
		}
		if received.Type != "complete" {
			t.Errorf("Client %d expected type complete, got %s", i, received.Type)
		}
	}
}

func TestHubClientDisconnect(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Stop()

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWs))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	dialer := websocket.Dialer{}
	conn, _, err := dialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if count := hub.ClientCount(); count != 1 {
		t.Errorf("Expected 1 client after connect, got %d", count)
	}

	conn.Close()

	time.Sleep(100 * time.Millisecond)
	if count := hub.ClientCount(); count != 0 {
		t.Errorf("Expected 0 clients after disconnect, got %d", count)
	}
}

func TestHubStop(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()

	hub.Stop()
	time.Sleep(20 * time.Millisecond)

	if !hub.IsStopped() {
		t.Error("IsStopped() = false after Stop")
	}
	if hub.BroadcastEvent(Event{Type: "progress"}) {
		t.Error("BroadcastEvent succeeded on a stopped hub")
	}

	rec := httptest.NewRecorder()
	hub.ServeWs(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ServeWs on stopped hub = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	// Stop twice must not panic.
	hub.Stop()
}

package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ramonehamilton/commander-forge/internal/deck"
	"github.com/ramonehamilton/commander-forge/internal/events"
	"github.com/ramonehamilton/commander-forge/internal/pipeline"
	"github.com/ramonehamilton/commander-forge/internal/scryfall"
)

// feedConn connects one websocket client to a running hub and returns
// a reader for the events it receives.
func feedConn(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWs))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	time.Sleep(50 * time.Millisecond)
	return conn
}

func readFeedEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read feed message: %v", err)
	}

	// The write pump may fold several events into one frame.
	line := message
	if i := strings.IndexByte(string(message), '\n'); i >= 0 {
		line = message[:i]
	}
	var ev Event
	if err := json.Unmarshal(line, &ev); err != nil {
		t.Fatalf("Failed to unmarshal feed message %q: %v", message, err)
	}
	return ev
}

func TestBuildSinkMirrorsLifecycle(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Stop()

	conn := feedConn(t, hub)

	sink := NewBuildSink(hub, "b-1", "5a2d6b63-1fd1-4e0a-9b50-2b38ed6d3b54")
	if !sink.Publish(events.StageStarted("lands", "Building the mana base")) {
		t.Fatal("Publish returned false")
	}

	ev := readFeedEvent(t, conn)
	if ev.Type != "stageStarted" || ev.BuildID != "b-1" || ev.Stage != "lands" {
		t.Errorf("feed event = %+v", ev)
	}
	if ev.Commander != "5a2d6b63-1fd1-4e0a-9b50-2b38ed6d3b54" {
		t.Errorf("commander = %q, want the requested id before the name is known", ev.Commander)
	}
}

func TestBuildSinkCompleteSummaryOnly(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Stop()

	conn := feedConn(t, hub)

	commander := scryfall.Card{Name: "Krenko, Mob Boss"}
	lands := []deck.Card{{Name: "Mountain", TypeLine: "Basic Land — Mountain"}}
	creatures := []deck.Card{{Name: "Goblin Chieftain", TypeLine: "Creature — Goblin", ManaCost: "{1}{R}{R}"}}
	final := deck.Assemble(commander, lands, creatures, nil)

	sink := NewBuildSink(hub, "b-2", "some-id")
	sink.Publish(events.Complete(final))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read feed message: %v", err)
	}

	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Type != "complete" {
		t.Errorf("type = %q, want complete", ev.Type)
	}
	if ev.Commander != "Krenko, Mob Boss" {
		t.Errorf("commander = %q, want the card name from the result", ev.Commander)
	}
	if !strings.Contains(ev.Message, "3 cards") {
		t.Errorf("message = %q, want a card-count summary", ev.Message)
	}
	// Full deck payloads never reach the feed.
	if strings.Contains(string(raw), "manaCurve") || strings.Contains(string(raw), "Goblin Chieftain") {
		t.Errorf("feed frame leaked deck contents: %s", raw)
	}
}

func TestBuildSinkErrorMessage(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Stop()

	conn := feedConn(t, hub)

	sink := NewBuildSink(hub, "b-3", "some-id")
	sink.Publish(events.Failure("card database error"))

	ev := readFeedEvent(t, conn)
	if ev.Type != "error" || ev.Message != "card database error" {
		t.Errorf("feed event = %+v", ev)
	}
}

func TestBuildSinkStageMessagePassthrough(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Stop()

	conn := feedConn(t, hub)

	plan := &pipeline.StrategyPlan{Strategies: []pipeline.Strategy{{Name: "Goblin Swarm Aggro"}}}
	sink := NewBuildSink(hub, "b-4", "some-id")
	sink.Publish(events.StageFinished("strategy", "Strategy: Goblin Swarm Aggro", plan))

	ev := readFeedEvent(t, conn)
	if ev.Message != "Strategy: Goblin Swarm Aggro" {
		t.Errorf("message = %q, want the stage message", ev.Message)
	}
	// Structured stage results stay off the viewer feed.
	if ev.Stage != "strategy" {
		t.Errorf("stage = %q, want strategy", ev.Stage)
	}
}

func TestBuildSinkNeverRejects(t *testing.T) {
	hub := NewHub(nil)
	hub.Stop()

	sink := NewBuildSink(hub, "b-5", "some-id")
	if !sink.Publish(events.Progress("spells", 50, "halfway")) {
		t.Error("Publish on a stopped hub returned false; the feed must not abandon builds")
	}
}

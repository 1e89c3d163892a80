// Package handlers implements the REST and streaming endpoints.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ramonehamilton/commander-forge/internal/api/response"
	"github.com/ramonehamilton/commander-forge/internal/api/websocket"
	"github.com/ramonehamilton/commander-forge/internal/deck"
	"github.com/ramonehamilton/commander-forge/internal/events"
	"github.com/ramonehamilton/commander-forge/internal/pipeline"
	"github.com/ramonehamilton/commander-forge/internal/storage"
)

const (
	// streamBuffer bounds how far the pipeline can run ahead of a slow
	// consumer before publishes block.
	streamBuffer = 64

	// saveTimeout bounds deck persistence after a finished build.
	saveTimeout = 10 * time.Second
)

// DeckBuilder runs one deck build, emitting progress on sink.
type DeckBuilder interface {
	Build(ctx context.Context, req pipeline.Request, sink events.Sink) (*deck.FinalDeck, error)
}

// DeckStore persists finished decks.
type DeckStore interface {
	Save(ctx context.Context, d *storage.StoredDeck) error
	Get(ctx context.Context, id string) (*storage.StoredDeck, error)
	List(ctx context.Context, limit int) ([]storage.DeckSummary, error)
	Delete(ctx context.Context, id string) error
}

// BuildHandler serves the build stream endpoint.
type BuildHandler struct {
	builder DeckBuilder
	store   DeckStore
	hub     *websocket.Hub
	log     *zap.Logger
}

// NewBuildHandler creates a BuildHandler. The hub may be nil when no
// activity feed is running; the store may be nil to disable
// persistence.
func NewBuildHandler(builder DeckBuilder, store DeckStore, hub *websocket.Hub, log *zap.Logger) *BuildHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &BuildHandler{builder: builder, store: store, hub: hub, log: log}
}

// planCapture records the chosen strategy as it streams past, for the
// stored deck row.
type planCapture struct {
	strategy string
}

func (c *planCapture) Publish(ev events.Event) bool {
	if ev.Type == events.TypeStageFinished && ev.Stage == pipeline.StageStrategy {
		if plan, ok := ev.Data.(*pipeline.StrategyPlan); ok {
			c.strategy = plan.Primary().Name
		}
	}
	return true
}

// StartBuild runs a deck build and streams its events to the client.
// The default framing is SSE; Accept: application/x-ndjson switches to
// newline-delimited JSON. A client disconnect cancels the stream; the
// pipeline abandons the build at its next event and nothing is
// persisted.
func (h *BuildHandler) StartBuild(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errors.New("invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalError(w, errors.New("streaming not supported"))
		return
	}

	ndjson := wantsNDJSON(r)
	buildID := uuid.NewString()

	stream := events.NewStream(streamBuffer)
	capture := &planCapture{}
	extras := []events.Sink{capture}
	if h.hub != nil {
		extras = append(extras, websocket.NewBuildSink(h.hub, buildID, req.CommanderID))
	}
	sink := events.NewMulti(stream, extras...)

	h.log.Info("build started",
		zap.String("buildId", buildID),
		zap.String("commanderId", req.CommanderID),
		zap.String("model", req.Model))

	// The build runs on its own context so in-flight oracle and
	// card-database calls finish after a disconnect; the pipeline
	// notices the canceled stream at its next publish.
	go h.runBuild(req, buildID, capture, stream, sink)

	if ndjson {
		w.Header().Set("Content-Type", "application/x-ndjson")
	} else {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
	}
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case ev, open := <-stream.Events():
			if !open {
				return
			}
			if err := writeEvent(w, ev, ndjson); err != nil {
				stream.Cancel()
				return
			}
			flusher.Flush()
			if ev.Terminal() {
				return
			}
		case <-r.Context().Done():
			stream.Cancel()
			return
		}
	}
}

// runBuild owns the producing side of the stream.
func (h *BuildHandler) runBuild(req pipeline.Request, buildID string, capture *planCapture, stream *events.Stream, sink events.Sink) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer stream.Close()

	final, err := h.builder.Build(ctx, req, sink)
	if err != nil {
		if errors.Is(err, pipeline.ErrAbandoned) {
			h.log.Info("build abandoned", zap.String("buildId", buildID))
		} else {
			h.log.Warn("build failed", zap.String("buildId", buildID), zap.Error(err))
		}
		return
	}

	if h.store == nil {
		return
	}
	saveCtx, cancelSave := context.WithTimeout(context.Background(), saveTimeout)
	defer cancelSave()
	stored := &storage.StoredDeck{ID: buildID, Strategy: capture.strategy, Deck: final}
	if err := h.store.Save(saveCtx, stored); err != nil {
		h.log.Warn("persisting deck", zap.String("buildId", buildID), zap.Error(err))
		return
	}
	h.log.Info("deck persisted",
		zap.String("deckId", buildID),
		zap.String("commander", final.Commander.Name),
		zap.Int("totalCards", final.TotalCards))
}

func wantsNDJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/x-ndjson")
}

// writeEvent frames one event. SSE framing is a single data: line per
// record; NDJSON is one JSON object per line.
func writeEvent(w http.ResponseWriter, ev events.Event, ndjson bool) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if ndjson {
		_, err = fmt.Fprintf(w, "%s\n", data)
	} else {
		_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	}
	return err
}

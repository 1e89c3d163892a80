package websocket

import (
	"fmt"

	"github.com/ramonehamilton/commander-forge/internal/events"
)

// BuildSink mirrors one build's lifecycle onto the hub. Feed delivery
// is best-effort: Publish always reports true so a stopped hub or a
// slow feed never abandons the build it mirrors.
type BuildSink struct {
	hub     *Hub
	buildID string

	// commander starts as the requested card id and switches to the
	// card name once the finished deck reveals it.
	commander string
}

// NewBuildSink wraps hub for one build.
func NewBuildSink(hub *Hub, buildID, commander string) *BuildSink {
	return &BuildSink{hub: hub, buildID: buildID, commander: commander}
}

// Publish implements events.Sink.
func (s *BuildSink) Publish(ev events.Event) bool {
	out := Event{
		Type:    ev.Type,
		BuildID: s.buildID,
		Stage:   ev.Stage,
		Message: ev.Message,
		Percent: ev.Percent,
	}

	switch ev.Type {
	case events.TypeComplete:
		if ev.Result != nil {
			s.commander = ev.Result.Commander.Name
			out.Message = fmt.Sprintf("Deck complete: %d cards, %d lands, %d creatures, %d spells",
				ev.Result.TotalCards, len(ev.Result.Lands), len(ev.Result.Creatures), len(ev.Result.Spells))
		}
	case events.TypeError:
		out.Message = ev.Error
	}
	out.Commander = s.commander

	s.hub.BroadcastEvent(out)
	return true
}

var _ events.Sink = (*BuildSink)(nil)

package oracle

import (
	"context"
	"errors"
	"fmt"
)

// Model names accepted in build requests.
const (
	ModelLocal  = "local"
	ModelRemote = "remote"
)

// ErrNoOracle is returned when no usable provider can be selected.
var ErrNoOracle = errors.New("no oracle provider available")

// Providers holds the configured provider implementations. Remote is
// nil when no API key was configured.
type Providers struct {
	Local  Oracle
	Remote Oracle
}

// Selection is the outcome of provider selection for one build.
type Selection struct {
	Oracle Oracle

	// Name is the provider actually chosen, "local" or "remote".
	Name string

	// Notice is set when the chosen provider differs from the
	// requested one.
	Notice string
}

// Pick chooses the provider for a build. Requesting the remote
// provider when it is missing or unreachable falls back to the local
// provider if that one answers; if neither is usable, selection fails
// and the whole build aborts. Requesting the local provider always
// succeeds when it is configured: an unresponsive local model is
// handled by the per-stage fallbacks, not here.
func (p Providers) Pick(ctx context.Context, model string) (Selection, error) {
	switch model {
	case ModelRemote:
		if p.Remote != nil && p.Remote.IsAvailable(ctx) {
			return Selection{Oracle: p.Remote, Name: ModelRemote}, nil
		}
		if p.Local != nil && p.Local.IsAvailable(ctx) {
			return Selection{
				Oracle: p.Local,
				Name:   ModelLocal,
				Notice: "remote model unavailable, using local model",
			}, nil
		}
		return Selection{}, fmt.Errorf("remote model unavailable and no local fallback: %w", ErrNoOracle)
	case ModelLocal, "":
		if p.Local == nil {
			return Selection{}, fmt.Errorf("local model not configured: %w", ErrNoOracle)
		}
		return Selection{Oracle: p.Local, Name: ModelLocal}, nil
	default:
		return Selection{}, fmt.Errorf("unknown model %q", model)
	}
}

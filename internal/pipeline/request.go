package pipeline

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/ramonehamilton/commander-forge/internal/oracle"
)

const (
	defaultPowerLevel = 7
	minPowerLevel     = 1
	maxPowerLevel     = 10
)

// Request is one deck-build order.
type Request struct {
	CommanderID string  `json:"commanderId"`
	Model       string  `json:"model"`
	Options     Options `json:"options"`
}

// Options tune the prompts. They steer what the oracle is asked for
// but are never hard constraints on the result.
type Options struct {
	// Budget is a rough total deck budget in USD. Zero means no limit.
	Budget float64 `json:"budget,omitempty"`

	// PowerLevel is the table power target, 1-10. Zero means default.
	PowerLevel int `json:"powerLevel,omitempty"`

	// IncludeCombo permits infinite combo lines. Absent means true.
	IncludeCombo *bool `json:"includeCombo,omitempty"`

	// FocusTheme is a free-form theme to emphasize.
	FocusTheme string `json:"focusTheme,omitempty"`
}

// Validate rejects requests the pipeline cannot serve.
func (r Request) Validate() error {
	if r.CommanderID == "" {
		return fmt.Errorf("commanderId is required")
	}
	if _, err := uuid.Parse(r.CommanderID); err != nil {
		return fmt.Errorf("commanderId must be a card UUID: %w", err)
	}
	switch r.Model {
	case "", oracle.ModelLocal, oracle.ModelRemote:
	default:
		return fmt.Errorf("model must be %q or %q", oracle.ModelLocal, oracle.ModelRemote)
	}
	if r.Options.PowerLevel != 0 && (r.Options.PowerLevel < minPowerLevel || r.Options.PowerLevel > maxPowerLevel) {
		return fmt.Errorf("powerLevel must be between %d and %d", minPowerLevel, maxPowerLevel)
	}
	if r.Options.Budget < 0 {
		return fmt.Errorf("budget cannot be negative")
	}
	return nil
}

func (o Options) powerLevel() int {
	if o.PowerLevel == 0 {
		return defaultPowerLevel
	}
	return o.PowerLevel
}

func (o Options) includeCombo() bool {
	return o.IncludeCombo == nil || *o.IncludeCombo
}

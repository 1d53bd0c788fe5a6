package lane

import (
	"github.com/fivepin/lanebox/internal/machine"
	"github.com/fivepin/lanebox/internal/protocol"
	"github.com/fivepin/lanebox/internal/scoring"
)

// Event is what the lane reports to its display collaborator. The
// console display in cmd consumes these; a future overhead screen
// would too.
type Event interface{ laneEvent() }

// GameStarted fires when a game command takes effect.
type GameStarted struct {
	Players []string
	Mode    string // quick_game, league_game or pre_bowl
}

// GameEnded fires when every bowler finishes or a limit trips.
type GameEnded struct {
	Result protocol.GameResult
	Reason string // "complete", "time_limit" or "cancelled"
}

// BallProcessed fires after the scorer accepts a throw. State is a
// copy taken right after scoring, so displays never reach into the
// live game.
type BallProcessed struct {
	Result scoring.BallResult
	State  GameState
}

// SpecialEffect asks the display for a celebration animation.
type SpecialEffect struct {
	Kind string // "strike" or "spare"
}

// PinStatesChanged mirrors the machine's deck, 1 meaning standing.
type PinStatesChanged struct {
	Pins machine.PinState
}

// CurrentPlayerChanged fires when the turn rotates.
type CurrentPlayerChanged struct {
	Index int
	Name  string
}

// HeldChanged fires when the lane hold is toggled.
type HeldChanged struct {
	Held bool
}

func (GameStarted) laneEvent()          {}
func (GameEnded) laneEvent()            {}
func (BallProcessed) laneEvent()        {}
func (SpecialEffect) laneEvent()        {}
func (PinStatesChanged) laneEvent()     {}
func (CurrentPlayerChanged) laneEvent() {}
func (HeldChanged) laneEvent()          {}

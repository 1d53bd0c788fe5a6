package scoring

import "errors"

var (
	// ErrInvalidPins marks a malformed pin vector (wrong length or
	// values outside {0,1}). The caller's state is never mutated.
	ErrInvalidPins = errors.New("scoring: invalid pin vector")

	// ErrNoBowlers is returned when a game is started with an empty
	// roster or a ball arrives with nobody to credit it to.
	ErrNoBowlers = errors.New("scoring: no bowlers")

	// ErrGameNotActive rejects balls outside an active game.
	ErrGameNotActive = errors.New("scoring: game not active")

	// ErrGameHeld rejects balls while the lane is held.
	ErrGameHeld = errors.New("scoring: game is held")
)

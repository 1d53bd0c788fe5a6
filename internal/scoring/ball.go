// Package scoring implements the Canadian 5-pin scoring engine: balls,
// frames, bowlers, turn rotation and bonus arithmetic. It is pure state
// and logic with no I/O; the machine and network layers feed it.
package scoring

import "fmt"

// NumPins is the number of pins on a Canadian 5-pin deck.
const NumPins = 5

// MaxBallValue is the value of a strike (all five pins).
const MaxBallValue = 15

// PinValues holds the point value of each pin position, in canonical
// order: lTwo, lThree, cFive, rThree, rTwo.
var PinValues = [NumPins]int{2, 3, 5, 3, 2}

// Ball records a single throw. Pins holds knockdown flags in canonical
// order (1 = knocked down by this ball), Value is the point total.
type Ball struct {
	Value int   `json:"value"`
	Pins  []int `json:"pins"`
}

// NewBall builds a Ball from knockdown flags, computing its value.
func NewBall(pins []int) (Ball, error) {
	if err := ValidatePins(pins); err != nil {
		return Ball{}, err
	}
	b := Ball{Pins: append([]int(nil), pins...)}
	for i, p := range pins {
		if p == 1 {
			b.Value += PinValues[i]
		}
	}
	return b, nil
}

// ValidatePins checks that a pin vector has exactly five 0/1 entries.
func ValidatePins(pins []int) error {
	if len(pins) != NumPins {
		return fmt.Errorf("%w: got %d pins, want %d", ErrInvalidPins, len(pins), NumPins)
	}
	for i, p := range pins {
		if p != 0 && p != 1 {
			return fmt.Errorf("%w: pin %d has value %d", ErrInvalidPins, i, p)
		}
	}
	return nil
}

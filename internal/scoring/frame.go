package scoring

import (
	"strconv"
	"strings"
)

// Frame holds up to three balls plus the scores computed for it.
// FrameScore is this frame's own contribution (bonuses included),
// TotalScore the running cumulative through this frame.
type Frame struct {
	TotalScore int    `json:"total_score"`
	FrameScore int    `json:"frame_score"`
	IsComplete bool   `json:"is_complete"`
	Balls      []Ball `json:"balls"`
}

func newFrame() Frame {
	return Frame{Balls: []Ball{}}
}

// IsStrike reports whether the first ball took all five pins.
func (f *Frame) IsStrike() bool {
	return len(f.Balls) > 0 && f.Balls[0].Value == MaxBallValue
}

// IsSpare reports whether the pins were cleared in two or more balls
// without a first-ball strike.
func (f *Frame) IsSpare() bool {
	if len(f.Balls) < 2 || f.IsStrike() {
		return false
	}
	return f.BallTotal() == MaxBallValue
}

// IsOpen reports whether the frame's balls leave pins standing.
func (f *Frame) IsOpen() bool {
	return f.BallTotal() < MaxBallValue
}

// BallTotal sums the values of the balls actually thrown in this frame.
func (f *Frame) BallTotal() int {
	total := 0
	for _, b := range f.Balls {
		total += b.Value
	}
	return total
}

// shouldComplete applies the frame-completion rules. frameIndex is
// 0-based; index 9 is the 10th frame with its bonus-ball allowance.
func (f *Frame) shouldComplete(frameIndex int) bool {
	if frameIndex < 9 {
		if f.IsStrike() {
			return true
		}
		if len(f.Balls) >= 2 {
			if f.IsSpare() {
				return true
			}
			if len(f.Balls) >= 3 {
				return true
			}
		}
		return false
	}
	// 10th frame: three balls always close it; two close it only when
	// the frame is open (no strike, no spare) so no bonus balls remain.
	if len(f.Balls) >= 3 {
		return true
	}
	if len(f.Balls) == 2 {
		return f.Balls[0].Value < MaxBallValue && f.BallTotal() < MaxBallValue
	}
	return false
}

// Display renders the frame the way a scoresheet would: X for a
// strike, / for the ball that clears the deck, digits otherwise.
func (f *Frame) Display() string {
	var parts []string
	running := 0
	for i, b := range f.Balls {
		running += b.Value
		switch {
		case b.Value == MaxBallValue:
			parts = append(parts, "X")
		case i > 0 && !f.IsStrike() && running == MaxBallValue:
			parts = append(parts, "/")
		default:
			parts = append(parts, strconv.Itoa(b.Value))
		}
	}
	return strings.Join(parts, " ")
}

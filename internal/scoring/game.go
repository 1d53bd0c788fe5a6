package scoring

import "strings"

// Game is the scoring engine for one game on one lane. It owns the
// bowlers and the turn rotation; all mutation goes through StartGame,
// ProcessBall and SkipPlayer so scores stay consistent.
type Game struct {
	bowlers      []Bowler
	currentIndex int
	active       bool
	held         bool
}

// BallResult describes what one processed ball did to the game.
type BallResult struct {
	Bowler         string
	BowlerIndex    int
	FrameIndex     int // 0-based
	BallIndex      int // 1-based position within the frame
	Pins           []int
	Value          int
	IsStrike       bool
	IsSpare        bool
	FrameCompleted bool
	GameComplete   bool
}

// NewGame returns an engine with no roster; StartGame arms it.
func NewGame() *Game {
	return &Game{}
}

// StartGame resets the engine for the given roster. Empty names are
// dropped; an empty roster is a validation error, not a default lineup.
func (g *Game) StartGame(roster []string) error {
	var bowlers []Bowler
	for _, name := range roster {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		bowlers = append(bowlers, NewBowler(name))
	}
	if len(bowlers) == 0 {
		return ErrNoBowlers
	}
	g.bowlers = bowlers
	g.currentIndex = 0
	g.active = true
	g.held = false
	return nil
}

// ProcessBall appends a ball to the active bowler's current frame,
// recomputes every bowler's scores, and advances the turn when the
// frame completes. Malformed pin vectors leave all state untouched.
func (g *Game) ProcessBall(pins []int) (BallResult, error) {
	if !g.active {
		return BallResult{}, ErrGameNotActive
	}
	if g.held {
		return BallResult{}, ErrGameHeld
	}
	if len(g.bowlers) == 0 {
		return BallResult{}, ErrNoBowlers
	}
	ball, err := NewBall(pins)
	if err != nil {
		return BallResult{}, err
	}

	bowler := &g.bowlers[g.currentIndex]
	frame := bowler.frame()
	frame.Balls = append(frame.Balls, ball)

	res := BallResult{
		Bowler:      bowler.Name,
		BowlerIndex: g.currentIndex,
		FrameIndex:  bowler.CurrentFrame,
		BallIndex:   len(frame.Balls),
		Pins:        ball.Pins,
		Value:       ball.Value,
	}
	res.IsStrike = len(frame.Balls) == 1 && ball.Value == MaxBallValue
	res.IsSpare = len(frame.Balls) >= 2 && !frame.IsStrike() && frame.IsSpare()

	g.recalculate()

	if frame.shouldComplete(bowler.CurrentFrame) {
		frame.IsComplete = true
		res.FrameCompleted = true
		g.advanceTurn()
	}
	res.GameComplete = g.IsComplete()
	return res, nil
}

// SkipPlayer fills the active frame with zero-value balls until it
// completes, then passes the turn. Used when a bowler times out.
func (g *Game) SkipPlayer() error {
	if !g.active {
		return ErrGameNotActive
	}
	if len(g.bowlers) == 0 {
		return ErrNoBowlers
	}
	bowler := &g.bowlers[g.currentIndex]
	frame := bowler.frame()
	miss := Ball{Pins: []int{0, 0, 0, 0, 0}}
	for len(frame.Balls) < 3 && !frame.shouldComplete(bowler.CurrentFrame) {
		frame.Balls = append(frame.Balls, miss)
	}
	frame.IsComplete = true
	g.recalculate()
	g.advanceTurn()
	return nil
}

// advanceTurn moves a finished bowler to their next frame and rotates
// the active bowler circularly.
func (g *Game) advanceTurn() {
	bowler := &g.bowlers[g.currentIndex]
	if bowler.frame().IsComplete && bowler.CurrentFrame < 9 {
		bowler.nextFrame()
	}
	g.currentIndex = (g.currentIndex + 1) % len(g.bowlers)
}

// recalculate recomputes frame and running scores for every bowler.
func (g *Game) recalculate() {
	for i := range g.bowlers {
		scoreBowler(&g.bowlers[i])
	}
}

func scoreBowler(b *Bowler) {
	running := 0
	for i := range b.Frames {
		f := &b.Frames[i]
		if len(f.Balls) == 0 {
			f.FrameScore = 0
			f.TotalScore = running
			continue
		}
		f.FrameScore = frameScore(b.Frames, i)
		running += f.FrameScore
		f.TotalScore = running
	}
	b.TotalScore = running
}

// frameScore applies the bonus rules: frames 1-9 add lookahead bonuses
// for strikes and spares; the 10th frame already holds its own bonus
// balls and scores as thrown.
func frameScore(frames []Frame, idx int) int {
	f := &frames[idx]
	if idx >= 9 {
		return f.BallTotal()
	}
	switch {
	case f.IsStrike():
		return MaxBallValue + nextBallsValue(frames, idx, 2)
	case f.IsSpare():
		return MaxBallValue + nextBallsValue(frames, idx, 1)
	default:
		return f.BallTotal()
	}
}

// nextBallsValue sums the next n balls thrown after frame idx, walking
// into later frames as needed (including through consecutive strikes).
func nextBallsValue(frames []Frame, idx, n int) int {
	bonus := 0
	for next := idx + 1; next < len(frames) && n > 0; next++ {
		for _, ball := range frames[next].Balls {
			if n == 0 {
				break
			}
			bonus += ball.Value
			n--
		}
	}
	return bonus
}

// AddPlayer appends a bowler mid-game.
func (g *Game) AddPlayer(name string) {
	if name == "" {
		return
	}
	g.bowlers = append(g.bowlers, NewBowler(name))
}

// RemovePlayer drops a bowler by name, keeping the turn pointer sane.
func (g *Game) RemovePlayer(name string) {
	for i := range g.bowlers {
		if g.bowlers[i].Name != name {
			continue
		}
		g.bowlers = append(g.bowlers[:i], g.bowlers[i+1:]...)
		if g.currentIndex >= i && g.currentIndex > 0 {
			g.currentIndex--
		}
		if g.currentIndex >= len(g.bowlers) {
			g.currentIndex = 0
		}
		return
	}
}

// IsComplete is true once every bowler has closed their 10th frame.
func (g *Game) IsComplete() bool {
	if len(g.bowlers) == 0 {
		return false
	}
	for i := range g.bowlers {
		if !g.bowlers[i].IsComplete() {
			return false
		}
	}
	return true
}

// SetHeld pauses or resumes ball processing.
func (g *Game) SetHeld(held bool) { g.held = held }

// Held reports whether the lane is held.
func (g *Game) Held() bool { return g.held }

// SetActive arms or disarms the engine without touching scores.
func (g *Game) SetActive(active bool) { g.active = active }

// Active reports whether a game is in progress.
func (g *Game) Active() bool { return g.active }

// Bowlers returns the live bowler slice; callers must not reorder it.
func (g *Game) Bowlers() []Bowler { return g.bowlers }

// CurrentBowlerIndex returns the index of the bowler up next.
func (g *Game) CurrentBowlerIndex() int { return g.currentIndex }

// CurrentBowler returns the active bowler, or nil with no roster.
func (g *Game) CurrentBowler() *Bowler {
	if g.currentIndex < 0 || g.currentIndex >= len(g.bowlers) {
		return nil
	}
	return &g.bowlers[g.currentIndex]
}

// CurrentFrameNumber is the 1-based frame the active bowler is on.
func (g *Game) CurrentFrameNumber() int {
	if b := g.CurrentBowler(); b != nil {
		return b.CurrentFrame + 1
	}
	return 0
}

// CurrentBallNumber is the 1-based ball about to be thrown.
func (g *Game) CurrentBallNumber() int {
	if b := g.CurrentBowler(); b != nil {
		return len(b.frame().Balls) + 1
	}
	return 0
}

// CurrentPinStates reports the deck the active bowler faces: 1 = pin
// standing, with knockdowns from earlier balls in the frame applied.
// A cleared deck mid-frame (tenth-frame strike or spare) comes back
// full for the bonus ball.
func (g *Game) CurrentPinStates() []int {
	states := []int{1, 1, 1, 1, 1}
	b := g.CurrentBowler()
	if b == nil {
		return states
	}
	for _, ball := range b.frame().Balls {
		for i, down := range ball.Pins {
			if i < NumPins && down == 1 {
				states[i] = 0
			}
		}
		cleared := true
		for _, s := range states {
			if s == 1 {
				cleared = false
				break
			}
		}
		if cleared {
			states = []int{1, 1, 1, 1, 1}
		}
	}
	return states
}

package scoring

// Bowler is one player's scoresheet: a name, exactly ten frames, the
// index of the frame currently being bowled, and the running total.
type Bowler struct {
	Name         string  `json:"name"`
	CurrentFrame int     `json:"current_frame"`
	TotalScore   int     `json:"total_score"`
	Frames       []Frame `json:"frames"`
}

// NewBowler creates a bowler with ten empty frames.
func NewBowler(name string) Bowler {
	b := Bowler{Name: name, Frames: make([]Frame, 10)}
	for i := range b.Frames {
		b.Frames[i] = newFrame()
	}
	return b
}

// IsComplete reports whether this bowler has finished the game.
func (b *Bowler) IsComplete() bool {
	return b.CurrentFrame >= 9 && b.Frames[9].IsComplete
}

// frame returns the frame currently being bowled.
func (b *Bowler) frame() *Frame {
	if b.CurrentFrame >= len(b.Frames) {
		b.CurrentFrame = len(b.Frames) - 1
	}
	return &b.Frames[b.CurrentFrame]
}

// nextFrame advances to the next frame, capped at the 10th.
func (b *Bowler) nextFrame() {
	if b.CurrentFrame < 9 {
		b.CurrentFrame++
	}
}

// Reset clears the scoresheet for a fresh game.
func (b *Bowler) Reset() {
	b.Frames = make([]Frame, 10)
	for i := range b.Frames {
		b.Frames[i] = newFrame()
	}
	b.CurrentFrame = 0
	b.TotalScore = 0
}

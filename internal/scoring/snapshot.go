package scoring

// Load replaces the engine state wholesale. The lane controller uses
// it when restoring a game snapshot handed over by the recovery layer.
func (g *Game) Load(bowlers []Bowler, currentIndex int, active, held bool) {
	g.bowlers = bowlers
	if currentIndex < 0 || currentIndex >= len(bowlers) {
		currentIndex = 0
	}
	g.currentIndex = currentIndex
	g.active = active
	g.held = held
	g.recalculate()
}

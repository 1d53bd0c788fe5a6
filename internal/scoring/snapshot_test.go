package scoring

import (
	"encoding/json"
	"testing"
)

func TestLoadRebuildsGame(t *testing.T) {
	orig := NewGame()
	if err := orig.StartGame([]string{"A", "B"}); err != nil {
		t.Fatal(err)
	}
	strikeThrow(t, orig)          // A frame 1
	throw(t, orig, 1, 1, 0, 0, 0) // B frame 1 ball 1
	throw(t, orig, 0, 0, 1, 1, 1) // B spare
	throw(t, orig, 0, 0, 1, 0, 0) // A frame 2 ball 1

	// round-trip the sheets the way a snapshot would
	raw, err := json.Marshal(orig.Bowlers())
	if err != nil {
		t.Fatal(err)
	}
	var bowlers []Bowler
	if err := json.Unmarshal(raw, &bowlers); err != nil {
		t.Fatal(err)
	}

	restored := NewGame()
	restored.Load(bowlers, orig.CurrentBowlerIndex(), true, false)

	if !restored.Active() {
		t.Fatal("restored game not active")
	}
	if got, want := restored.CurrentBowlerIndex(), orig.CurrentBowlerIndex(); got != want {
		t.Fatalf("current bowler = %d, want %d", got, want)
	}
	for i := range orig.Bowlers() {
		if got, want := restored.Bowlers()[i].TotalScore, orig.Bowlers()[i].TotalScore; got != want {
			t.Fatalf("bowler %d score = %d, want %d", i, got, want)
		}
	}

	// play continues where it left off: A's strike now earns its bonus
	throw(t, restored, 1, 1, 0, 1, 1) // A frame 2 ball 2
	a := restored.Bowlers()[0]
	// strike 15 + next two balls (5 + 10) = 30
	if a.Frames[0].FrameScore != 30 {
		t.Fatalf("frame 1 score = %d, want 30", a.Frames[0].FrameScore)
	}
}

func TestLoadRecalculatesTamperedTotals(t *testing.T) {
	orig := NewGame()
	if err := orig.StartGame([]string{"A"}); err != nil {
		t.Fatal(err)
	}
	throw(t, orig, 0, 0, 1, 0, 0)

	bowlers := append([]Bowler(nil), orig.Bowlers()...)
	bowlers[0].TotalScore = 999 // stale totals in a snapshot are ignored

	restored := NewGame()
	restored.Load(bowlers, 0, true, false)
	if got := restored.Bowlers()[0].TotalScore; got != 5 {
		t.Fatalf("score after Load = %d, want recalculated 5", got)
	}
}

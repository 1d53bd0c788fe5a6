package scoring

import "testing"

func frameWith(t *testing.T, throws ...[]int) Frame {
	t.Helper()
	f := newFrame()
	for _, pins := range throws {
		b, err := NewBall(pins)
		if err != nil {
			t.Fatalf("NewBall(%v): %v", pins, err)
		}
		f.Balls = append(f.Balls, b)
	}
	return f
}

func TestFrameClassification(t *testing.T) {
	strike := frameWith(t, []int{1, 1, 1, 1, 1})
	if !strike.IsStrike() || strike.IsSpare() {
		t.Fatalf("strike frame classified strike=%v spare=%v", strike.IsStrike(), strike.IsSpare())
	}

	spare := frameWith(t, []int{0, 0, 1, 0, 0}, []int{1, 1, 0, 1, 1})
	if spare.IsStrike() || !spare.IsSpare() {
		t.Fatalf("spare frame classified strike=%v spare=%v", spare.IsStrike(), spare.IsSpare())
	}

	open := frameWith(t, []int{0, 0, 1, 0, 0}, []int{0, 1, 0, 0, 0})
	if open.IsStrike() || open.IsSpare() || !open.IsOpen() {
		t.Fatalf("open frame misclassified")
	}
}

func TestShouldCompleteRegularFrame(t *testing.T) {
	if f := frameWith(t, []int{1, 1, 1, 1, 1}); !f.shouldComplete(0) {
		t.Error("strike did not close the frame")
	}
	if f := frameWith(t, []int{0, 0, 1, 0, 0}, []int{1, 1, 0, 1, 1}); !f.shouldComplete(4) {
		t.Error("spare did not close the frame")
	}
	if f := frameWith(t, []int{0, 0, 1, 0, 0}, []int{0, 1, 0, 0, 0}); f.shouldComplete(4) {
		t.Error("two open balls closed a regular frame")
	}
	if f := frameWith(t, []int{0, 0, 1, 0, 0}, []int{0, 1, 0, 0, 0}, []int{0, 0, 0, 0, 0}); !f.shouldComplete(4) {
		t.Error("third ball did not close the frame")
	}
}

func TestShouldCompleteTenthFrame(t *testing.T) {
	// strike earns bonus balls, two are not enough
	if f := frameWith(t, []int{1, 1, 1, 1, 1}, []int{1, 1, 1, 1, 1}); f.shouldComplete(9) {
		t.Error("tenth closed before the bonus balls were thrown")
	}
	// open after two balls closes it
	if f := frameWith(t, []int{0, 0, 1, 0, 0}, []int{0, 1, 0, 0, 0}); !f.shouldComplete(9) {
		t.Error("open tenth did not close at two balls")
	}
	// three balls always close it
	f := frameWith(t, []int{1, 1, 1, 1, 1}, []int{1, 1, 1, 1, 1}, []int{1, 1, 1, 1, 1})
	if !f.shouldComplete(9) {
		t.Error("three balls did not close the tenth")
	}
}

func TestDisplay(t *testing.T) {
	cases := []struct {
		frame Frame
		want  string
	}{
		{frameWith(t, []int{1, 1, 1, 1, 1}), "X"},
		{frameWith(t, []int{0, 0, 1, 0, 0}, []int{1, 1, 0, 1, 1}), "5 /"},
		{frameWith(t, []int{0, 0, 1, 0, 0}, []int{0, 1, 0, 0, 0}), "5 3"},
		{frameWith(t, []int{1, 1, 1, 1, 1}, []int{1, 1, 1, 1, 1}, []int{1, 1, 1, 1, 1}), "X X X"},
		{frameWith(t, []int{0, 0, 0, 0, 0}, []int{0, 0, 1, 0, 0}, []int{1, 1, 0, 1, 1}), "0 5 /"},
	}
	for _, c := range cases {
		if got := c.frame.Display(); got != c.want {
			t.Errorf("Display() = %q, want %q", got, c.want)
		}
	}
}

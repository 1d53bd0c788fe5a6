package lane

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fivepin/lanebox/internal/scoring"
)

// GameState is the lane's full serialised state: the scorer plus the
// session bookkeeping around it. Its JSON shape is the status payload
// on the wire and the on-disk snapshot, so field names are contract.
type GameState struct {
	GameActive         bool             `json:"game_active"`
	IsHeld             bool             `json:"is_held"`
	CurrentBowlerIndex int              `json:"current_bowler_index"`
	TimeLimit          int              `json:"time_limit"`
	GameLimit          int              `json:"game_limit"`
	GamesPlayed        int              `json:"games_played"`
	GameStartTime      int64            `json:"game_start_time"`
	Bowlers            []scoring.Bowler `json:"bowlers"`
}

// Session owns one lane's game in progress: the scorer, limits, and
// the standing-pin tracking that turns machine deck readings into
// scored knockdowns. Methods are safe for concurrent use except
// Game(), whose scorer belongs to the controller goroutine.
type Session struct {
	mu   sync.RWMutex
	game *scoring.Game

	timeLimit   int // minutes, 0 means none
	gameLimit   int // games, 0 means unlimited
	gamesPlayed int
	startTime   time.Time

	framesSinceFirstBall int

	standing []int // deck at the start of the pending throw, 1 up
}

// NewSession returns an idle session.
func NewSession() *Session {
	return &Session{game: scoring.NewGame(), standing: allStanding()}
}

func allStanding() []int { return []int{1, 1, 1, 1, 1} }

// Begin starts a fresh game for the roster.
func (s *Session) Begin(roster []string, timeLimit, gameLimit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.game.StartGame(roster); err != nil {
		return err
	}
	s.timeLimit = timeLimit
	s.gameLimit = gameLimit
	s.gamesPlayed = 0
	s.startTime = time.Now()
	s.framesSinceFirstBall = 0
	s.standing = allStanding()
	return nil
}

// NextGame restarts the scorer for the next game of a multi-game
// session, keeping the roster and limits.
func (s *Session) NextGame() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	roster := make([]string, 0, len(s.game.Bowlers()))
	for _, b := range s.game.Bowlers() {
		roster = append(roster, b.Name)
	}
	if err := s.game.StartGame(roster); err != nil {
		return err
	}
	s.startTime = time.Now()
	s.framesSinceFirstBall = 0
	s.standing = allStanding()
	return nil
}

// End closes the session.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.game.SetActive(false)
	s.standing = allStanding()
}

// Knockdowns converts a machine deck reading into the throw's
// knockdown flags: a pin scores only if it was standing before the
// throw and is down now.
func (s *Session) Knockdowns(deck []int) []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pins := make([]int, scoring.NumPins)
	for i := 0; i < scoring.NumPins && i < len(deck); i++ {
		if s.standing[i] == 1 && deck[i] == 0 {
			pins[i] = 1
		}
	}
	return pins
}

// RecordDeck updates the standing-pin baseline after a scored throw.
// A completed frame or a cleared deck (tenth-frame strike or spare
// awaiting its bonus ball) resets the baseline to full.
func (s *Session) RecordDeck(deck []int, frameCompleted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if frameCompleted {
		s.framesSinceFirstBall++
	}
	if frameCompleted || deckCleared(deck) {
		s.standing = allStanding()
		return
	}
	s.standing = append([]int(nil), deck...)
}

// SkipCurrentPlayer fills out the active bowler's frame with misses,
// passes the turn and resets the standing-pin baseline for the next
// throw.
func (s *Session) SkipCurrentPlayer() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.game.SkipPlayer(); err != nil {
		return err
	}
	s.framesSinceFirstBall++
	s.standing = allStanding()
	return nil
}

func deckCleared(deck []int) bool {
	for _, p := range deck {
		if p == 1 {
			return false
		}
	}
	return true
}

// Standing returns the current standing-pin baseline.
func (s *Session) Standing() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]int(nil), s.standing...)
}

// Game exposes the scorer.
func (s *Session) Game() *scoring.Game { return s.game }

// GamesPlayed reports completed games this session.
func (s *Session) GamesPlayed() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gamesPlayed
}

// GameFinished counts a completed game and reports whether the
// session has more games to play. An unlimited session never rolls
// into the next game on its own; it waits for the next command.
func (s *Session) GameFinished() (more bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gamesPlayed++
	return s.gameLimit > 0 && s.gamesPlayed < s.gameLimit
}

// TimeExpired reports whether the session's time limit has passed.
func (s *Session) TimeExpired(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.timeLimit <= 0 || s.startTime.IsZero() {
		return false
	}
	return now.Sub(s.startTime) >= time.Duration(s.timeLimit)*time.Minute
}

// Elapsed is the wall time since the current game started.
func (s *Session) Elapsed() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.startTime.IsZero() {
		return 0
	}
	return time.Since(s.startTime)
}

// FramesSinceFirstBall counts frames completed in the current game.
func (s *Session) FramesSinceFirstBall() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.framesSinceFirstBall
}

// backdate shifts the session start earlier, for tests.
func (s *Session) backdate(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startTime = s.startTime.Add(-d)
}

// State captures the session as a GameState. Bowler sheets are
// copied so the capture stays stable while play continues.
func (s *Session) State() GameState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	live := s.game.Bowlers()
	bowlers := make([]scoring.Bowler, len(live))
	copy(bowlers, live)
	for i := range bowlers {
		bowlers[i].Frames = append([]scoring.Frame(nil), bowlers[i].Frames...)
	}
	return GameState{
		GameActive:         s.game.Active(),
		IsHeld:             s.game.Held(),
		CurrentBowlerIndex: s.game.CurrentBowlerIndex(),
		TimeLimit:          s.timeLimit,
		GameLimit:          s.gameLimit,
		GamesPlayed:        s.gamesPlayed,
		GameStartTime:      s.startTime.Unix(),
		Bowlers:            bowlers,
	}
}

// Restore rebuilds the session from a captured state.
func (s *Session) Restore(st GameState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.game.Load(st.Bowlers, st.CurrentBowlerIndex, st.GameActive, st.IsHeld)
	s.timeLimit = st.TimeLimit
	s.gameLimit = st.GameLimit
	s.gamesPlayed = st.GamesPlayed
	if st.GameStartTime > 0 {
		s.startTime = time.Unix(st.GameStartTime, 0)
	}
	s.standing = s.game.CurrentPinStates()
}

// Save writes the session snapshot to path, creating parent
// directories as needed.
func (s *Session) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("lane: snapshot dir: %w", err)
	}
	b, err := json.MarshalIndent(s.State(), "", "  ")
	if err != nil {
		return fmt.Errorf("lane: encode snapshot: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("lane: write snapshot: %w", err)
	}
	return os.Rename(tmp, path)
}

// LoadSnapshot restores the session from a saved snapshot file.
func (s *Session) LoadSnapshot(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var st GameState
	if err := json.Unmarshal(b, &st); err != nil {
		return fmt.Errorf("lane: decode snapshot: %w", err)
	}
	s.Restore(st)
	return nil
}

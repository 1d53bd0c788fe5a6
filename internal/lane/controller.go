// Package lane ties the scorer, the pin-setting machine and the
// server link together into one running lane.
package lane

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/fivepin/lanebox/internal/machine"
	"github.com/fivepin/lanebox/internal/netclient"
	"github.com/fivepin/lanebox/internal/protocol"
)

// Machine is the slice of the machine controller the lane drives.
type Machine interface {
	Events() <-chan machine.Event
	StartBallDetection()
	StopBallDetection()
	SetDetectionSuspended(suspended bool)
	SetGameActive(active bool)
	ResetPins(immediate bool)
	SetPinConfiguration(pins []int) error
}

// NetLink is the slice of the network client the lane drives.
type NetLink interface {
	Events() <-chan netclient.Event
	SendFrameUpdate(data any)
	SendStatusUpdate(status string, data any)
	SendGameComplete(result protocol.GameResult)
}

// Config holds the lane orchestrator's settings.
type Config struct {
	LaneID        int
	SnapshotPath  string        // empty disables crash recovery
	TimerInterval time.Duration // cadence of the time-limit check
}

// frameUpdate is the payload sent to the server after each throw.
type frameUpdate struct {
	Ball                 ballReport `json:"ball"`
	FramesSinceFirstBall int        `json:"frames_since_first_ball"`
	State                GameState  `json:"state"`
}

type ballReport struct {
	Bowler         string `json:"bowler"`
	BowlerIndex    int    `json:"bowler_index"`
	FrameIndex     int    `json:"frame_index"`
	BallIndex      int    `json:"ball_index"`
	Value          int    `json:"value"`
	Pins           []int  `json:"pins"`
	IsStrike       bool   `json:"is_strike"`
	IsSpare        bool   `json:"is_spare"`
	FrameCompleted bool   `json:"frame_completed"`
}

type holdUpdate struct {
	Held bool `json:"held"`
}

// gameStatus answers a status_update request.
type gameStatus struct {
	CurrentPlayer string    `json:"current_player"`
	Frame         int       `json:"frame"`
	Ball          int       `json:"ball"`
	State         GameState `json:"state"`
}

// Controller runs one lane.
type Controller struct {
	cfg     Config
	machine Machine
	net     NetLink
	logger  *log.Logger

	session *Session
	mode    string

	events chan Event
}

// New builds a lane controller. Run must be called for it to do
// anything.
func New(cfg Config, m Machine, n NetLink, logger *log.Logger) *Controller {
	if cfg.TimerInterval <= 0 {
		cfg.TimerInterval = time.Minute
	}
	return &Controller{
		cfg:     cfg,
		machine: m,
		net:     n,
		logger:  logger,
		session: NewSession(),
		events:  make(chan Event, 64),
	}
}

// Events is the stream consumed by the lane display.
func (c *Controller) Events() <-chan Event { return c.events }

// Session exposes the lane's game state for the display and CLI.
func (c *Controller) Session() *Session { return c.session }

// Run drives the lane until the context ends. It restores a crashed
// game from the snapshot first, if one exists.
func (c *Controller) Run(ctx context.Context) error {
	c.restoreSnapshot()

	timer := time.NewTicker(c.cfg.TimerInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			c.saveSnapshot()
			return ctx.Err()
		case evt := <-c.machine.Events():
			c.handleMachineEvent(evt)
		case evt := <-c.net.Events():
			c.handleNetEvent(evt)
		case now := <-timer.C:
			c.checkTimeLimit(now)
		}
	}
}

func (c *Controller) restoreSnapshot() {
	if c.cfg.SnapshotPath == "" {
		return
	}
	err := c.session.LoadSnapshot(c.cfg.SnapshotPath)
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	if err != nil {
		c.logger.Warn("snapshot restore failed", "path", c.cfg.SnapshotPath, "err", err)
		return
	}
	if !c.session.Game().Active() {
		return
	}
	c.logger.Info("resuming game from snapshot",
		"bowlers", len(c.session.Game().Bowlers()),
		"games_played", c.session.GamesPlayed())
	c.machine.SetGameActive(true)
	c.machine.StartBallDetection()
	if c.session.Game().Held() {
		c.machine.SetDetectionSuspended(true)
	}
	if err := c.machine.SetPinConfiguration(c.session.Standing()); err != nil {
		c.logger.Warn("pin restore failed", "err", err)
	}
	c.emit(GameStarted{Players: c.roster(), Mode: "resume"})
}

func (c *Controller) saveSnapshot() {
	if c.cfg.SnapshotPath == "" {
		return
	}
	if err := c.session.Save(c.cfg.SnapshotPath); err != nil {
		c.logger.Warn("snapshot save failed", "err", err)
	}
}

func (c *Controller) handleMachineEvent(evt machine.Event) {
	switch e := evt.(type) {
	case machine.Ready:
		c.logger.Info("machine ready", "lane", c.cfg.LaneID)
	case machine.BallDetected:
		c.processThrow(e.Pins)
	case machine.PinStatesChanged:
		c.emit(PinStatesChanged{Pins: e.Pins})
	case machine.Fault:
		c.logger.Error("machine fault", "err", e.Err)
		c.net.SendStatusUpdate("machine_fault", map[string]string{"error": e.Err.Error()})
	}
}

// processThrow scores one detected ball against the deck reading.
func (c *Controller) processThrow(deck machine.PinState) {
	game := c.session.Game()
	if !game.Active() || game.Held() {
		return
	}

	prevBowler := game.CurrentBowlerIndex()
	knocked := c.session.Knockdowns(deck[:])
	result, err := game.ProcessBall(knocked)
	if err != nil {
		c.logger.Warn("throw rejected", "err", err)
		return
	}

	c.logger.Info("ball scored",
		"bowler", result.Bowler,
		"frame", result.FrameIndex+1,
		"ball", result.BallIndex,
		"value", result.Value)
	state := c.session.State()
	c.emit(BallProcessed{Result: result, State: state})

	if result.IsStrike {
		c.emit(SpecialEffect{Kind: "strike"})
	} else if result.IsSpare {
		c.emit(SpecialEffect{Kind: "spare"})
	}

	c.session.RecordDeck(deck[:], result.FrameCompleted)
	if !result.GameComplete {
		if result.FrameCompleted || deckCleared(deck[:]) {
			c.machine.ResetPins(false)
		} else if err := c.machine.SetPinConfiguration(c.session.Standing()); err != nil {
			c.logger.Warn("pin re-seat failed", "err", err)
		}
	}

	c.net.SendFrameUpdate(frameUpdate{
		Ball: ballReport{
			Bowler:         result.Bowler,
			BowlerIndex:    result.BowlerIndex,
			FrameIndex:     result.FrameIndex,
			BallIndex:      result.BallIndex,
			Value:          result.Value,
			Pins:           result.Pins,
			IsStrike:       result.IsStrike,
			IsSpare:        result.IsSpare,
			FrameCompleted: result.FrameCompleted,
		},
		FramesSinceFirstBall: c.session.FramesSinceFirstBall(),
		State:                state,
	})

	if game.CurrentBowlerIndex() != prevBowler {
		c.emitTurnChange()
	}
	if result.GameComplete {
		c.finishGame("complete")
	}
	c.saveSnapshot()
}

func (c *Controller) handleNetEvent(evt netclient.Event) {
	switch e := evt.(type) {
	case netclient.StateChanged:
		c.logger.Info("server link", "state", e.New.String())
	case netclient.Registered:
		c.net.SendStatusUpdate("lane_ready", c.session.State())
	case netclient.Discovered:
		c.logger.Info("server located by discovery", "host", e.Host, "port", e.Port)
	case netclient.GameCommand:
		c.handleCommand(e.Msg)
	}
}

func (c *Controller) handleCommand(msg protocol.Message) {
	switch msg.Type {
	case protocol.TypeQuickGame, protocol.TypeLeagueGame, protocol.TypePreBowl:
		c.startGame(msg)
	case protocol.TypeTeamMove:
		c.teamMove(msg)
	case "hold_update":
		var h holdUpdate
		if err := json.Unmarshal(msg.Data, &h); err != nil {
			c.logger.Warn("bad hold update", "err", err)
			return
		}
		c.setHeld(h.Held)
	case "player_update_add", "player_update_remove":
		c.playerUpdate(msg)
	case "skip_player":
		c.skipPlayer()
	case protocol.TypeStatusUpdate:
		c.sendGameStatus()
	case "machine_reset":
		cmd := protocol.MachineCommand{Immediate: true}
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &cmd); err != nil {
				c.logger.Warn("bad machine command", "err", err)
				return
			}
		}
		c.machine.ResetPins(cmd.Immediate)
	case "machine_set_pins":
		var cmd protocol.MachineCommand
		if err := json.Unmarshal(msg.Data, &cmd); err != nil {
			c.logger.Warn("bad machine command", "err", err)
			return
		}
		if err := c.machine.SetPinConfiguration(cmd.PinStates); err != nil {
			c.logger.Warn("machine set pins rejected", "err", err)
		}
	default:
		c.logger.Warn("unhandled server command", "type", msg.Type)
	}
}

func (c *Controller) startGame(msg protocol.Message) {
	var opts protocol.GameOptions
	if err := json.Unmarshal(msg.Data, &opts); err != nil {
		c.logger.Warn("bad game options", "type", msg.Type, "err", err)
		c.net.SendStatusUpdate("error", map[string]string{"error": "bad game options"})
		return
	}
	if err := c.session.Begin(opts.Players, opts.TimeLimit, opts.GameLimit); err != nil {
		c.logger.Warn("game start rejected", "err", err)
		c.net.SendStatusUpdate("error", map[string]string{"error": err.Error()})
		return
	}
	c.mode = msg.Type
	c.logger.Info("game started",
		"mode", c.mode,
		"players", len(opts.Players),
		"time_limit", opts.TimeLimit,
		"game_limit", opts.GameLimit)

	c.machine.SetGameActive(true)
	c.machine.ResetPins(true)
	c.machine.StartBallDetection()

	c.emit(GameStarted{Players: c.roster(), Mode: c.mode})
	c.emitTurnChange()
	c.net.SendStatusUpdate("game_started", c.session.State())
	c.saveSnapshot()
}

// teamMove swaps the roster mid-session, keeping limits and games
// played. Used when a league moves teams between lanes.
func (c *Controller) teamMove(msg protocol.Message) {
	var opts protocol.GameOptions
	if err := json.Unmarshal(msg.Data, &opts); err != nil {
		c.logger.Warn("bad team move", "err", err)
		return
	}
	if err := c.session.Game().StartGame(opts.Players); err != nil {
		c.logger.Warn("team move rejected", "err", err)
		c.net.SendStatusUpdate("error", map[string]string{"error": err.Error()})
		return
	}
	c.machine.ResetPins(true)
	c.logger.Info("team moved in", "players", len(opts.Players))
	c.emit(GameStarted{Players: c.roster(), Mode: "team_move"})
	c.emitTurnChange()
	c.net.SendStatusUpdate("team_moved", c.session.State())
	c.saveSnapshot()
}

func (c *Controller) playerUpdate(msg protocol.Message) {
	var u protocol.PlayerUpdate
	if err := json.Unmarshal(msg.Data, &u); err != nil {
		c.logger.Warn("bad player update", "err", err)
		return
	}
	game := c.session.Game()
	if msg.Type == "player_update_add" {
		game.AddPlayer(u.Name)
		c.logger.Info("player added", "name", u.Name)
	} else {
		game.RemovePlayer(u.Name)
		c.logger.Info("player removed", "name", u.Name)
	}
	c.emitTurnChange()
	c.net.SendStatusUpdate("roster_updated", c.session.State())
	c.saveSnapshot()
}

// skipPlayer closes out the active bowler's frame as misses, used when
// a bowler times out or walks away.
func (c *Controller) skipPlayer() {
	if err := c.session.SkipCurrentPlayer(); err != nil {
		c.logger.Warn("skip rejected", "err", err)
		return
	}
	c.logger.Info("player skipped")
	c.machine.ResetPins(false)
	c.emitTurnChange()
	c.net.SendStatusUpdate("player_skipped", c.session.State())
	if c.session.Game().IsComplete() {
		c.finishGame("complete")
	}
	c.saveSnapshot()
}

func (c *Controller) sendGameStatus() {
	game := c.session.Game()
	status := gameStatus{
		Frame: game.CurrentFrameNumber(),
		Ball:  game.CurrentBallNumber(),
		State: c.session.State(),
	}
	if b := game.CurrentBowler(); b != nil {
		status.CurrentPlayer = b.Name
	}
	c.net.SendStatusUpdate("game_status", status)
}

func (c *Controller) setHeld(held bool) {
	c.session.Game().SetHeld(held)
	c.machine.SetDetectionSuspended(held)
	c.logger.Info("lane hold", "held", held)
	c.emit(HeldChanged{Held: held})
	c.net.SendStatusUpdate("hold_updated", c.session.State())
	c.saveSnapshot()
}

func (c *Controller) checkTimeLimit(now time.Time) {
	if !c.session.Game().Active() {
		return
	}
	if c.session.TimeExpired(now) {
		c.logger.Info("time limit reached, ending game")
		c.finishGame("time_limit")
	}
}

// finishGame reports results, then either rolls into the next game of
// the session or shuts the lane back to idle.
func (c *Controller) finishGame(reason string) {
	result := protocol.GameResult{
		LaneID:           c.cfg.LaneID,
		GameType:         c.mode,
		GamesPlayed:      c.session.GamesPlayed() + 1,
		CompletionTime:   time.Now().Unix(),
		TotalTimeSeconds: int(c.session.Elapsed().Seconds()),
		FinalScores:      make([]protocol.BowlerTotal, 0, len(c.session.Game().Bowlers())),
	}
	for _, b := range c.session.Game().Bowlers() {
		result.FinalScores = append(result.FinalScores, protocol.BowlerTotal{Name: b.Name, Score: b.TotalScore})
	}
	c.net.SendGameComplete(result)
	c.emit(GameEnded{Result: result, Reason: reason})

	more := c.session.GameFinished()
	if reason == "complete" && more {
		if err := c.session.NextGame(); err != nil {
			c.logger.Warn("next game start failed", "err", err)
			c.endSession()
			return
		}
		c.logger.Info("next game", "games_played", c.session.GamesPlayed())
		c.machine.ResetPins(true)
		c.emit(GameStarted{Players: c.roster(), Mode: c.mode})
		c.emitTurnChange()
		c.net.SendStatusUpdate("game_started", c.session.State())
		c.saveSnapshot()
		return
	}
	c.endSession()
}

func (c *Controller) endSession() {
	c.session.End()
	c.machine.SetGameActive(false)
	c.machine.StopBallDetection()
	c.net.SendStatusUpdate("idle", c.session.State())
	c.saveSnapshot()
}

func (c *Controller) roster() []string {
	bowlers := c.session.Game().Bowlers()
	names := make([]string, 0, len(bowlers))
	for _, b := range bowlers {
		names = append(names, b.Name)
	}
	return names
}

func (c *Controller) emitTurnChange() {
	if b := c.session.Game().CurrentBowler(); b != nil {
		c.emit(CurrentPlayerChanged{Index: c.session.Game().CurrentBowlerIndex(), Name: b.Name})
	}
}

// emit never blocks the event loop; the oldest display event is
// dropped when the buffer is full.
func (c *Controller) emit(evt Event) {
	select {
	case c.events <- evt:
		return
	default:
	}
	select {
	case <-c.events:
	default:
	}
	select {
	case c.events <- evt:
	default:
	}
}

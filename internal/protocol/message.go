// Package protocol defines the newline-delimited JSON messages
// exchanged between a lane and the front desk server.
package protocol

import (
	"encoding/json"
	"time"
)

// Message types sent by the lane.
const (
	TypeRegistration = "registration"
	TypeHeartbeat    = "heartbeat"
	TypePong         = "pong"
	TypeGameComplete = "game_complete"
	TypeFrameUpdate  = "frame_update"
	TypeStatusUpdate = "status_update"
)

// Message types received from the server.
const (
	TypeRegistrationResponse = "registration_response"
	TypeHeartbeatResponse    = "heartbeat_response"
	TypeQuickGame            = "quick_game"
	TypeLeagueGame           = "league_game"
	TypePreBowl              = "pre_bowl"
	TypeTeamMove             = "team_move"
	TypePing                 = "ping"
)

// Message is the single wire envelope. Every field except Type is
// optional; omitempty keeps each message down to what it carries.
type Message struct {
	Type      string          `json:"type"`
	LaneID    int             `json:"lane_id,omitempty"`
	ClientIP  string          `json:"client_ip,omitempty"`
	Status    string          `json:"status,omitempty"`
	Message   string          `json:"message,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// New builds a stamped message of the given type for a lane.
func New(msgType string, laneID int) Message {
	return Message{
		Type:      msgType,
		LaneID:    laneID,
		Timestamp: time.Now().Unix(),
	}
}

// WithData attaches a JSON payload.
func (m Message) WithData(v any) (Message, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return m, err
	}
	m.Data = raw
	return m, nil
}

// GameOptions is the payload of the game-start commands.
type GameOptions struct {
	Players        []string `json:"players"`
	TimeLimit      int      `json:"time_limit,omitempty"` // minutes, 0 means none
	GameLimit      int      `json:"game_limit,omitempty"` // games, 0 means unlimited
	DisplayOptions []string `json:"display_options,omitempty"`
}

// PlayerUpdate is the payload of the mid-game roster commands.
type PlayerUpdate struct {
	Name  string `json:"name"`
	Index int    `json:"index,omitempty"`
}

// Machine maintenance reset types.
const (
	ResetFull    = "FULL_RESET"
	ResetSetPins = "SET_PINS"
)

// MachineCommand is the payload of the maintenance commands.
type MachineCommand struct {
	Immediate bool   `json:"immediate"`
	ResetType string `json:"reset_type,omitempty"`
	PinStates []int  `json:"pin_states,omitempty"`
}

// GameResult is the payload reported when a game completes.
type GameResult struct {
	LaneID           int           `json:"lane_id"`
	GameType         string        `json:"game_type"`
	GamesPlayed      int           `json:"games_played"`
	CompletionTime   int64         `json:"completion_time"`
	TotalTimeSeconds int           `json:"total_time_seconds"`
	FinalScores      []BowlerTotal `json:"final_scores"`
}

// BowlerTotal is one bowler's final line in a GameResult.
type BowlerTotal struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

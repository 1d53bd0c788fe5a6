package netclient

import "github.com/fivepin/lanebox/internal/protocol"

// ConnState is the client's connection lifecycle.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateRegistered
	StateReconnecting
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateRegistered:
		return "registered"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// Event is anything the client reports to the lane orchestrator.
type Event interface{ clientEvent() }

// StateChanged fires on every connection lifecycle transition.
type StateChanged struct {
	Old ConnState
	New ConnState
}

// Registered fires when the server accepts the lane's registration.
type Registered struct{}

// GameCommand is a server instruction that starts or alters play.
type GameCommand struct {
	Msg protocol.Message
}

// Discovered fires when UDP discovery locates a server.
type Discovered struct {
	Host string
	Port int
}

func (StateChanged) clientEvent() {}
func (Registered) clientEvent()   {}
func (GameCommand) clientEvent()  {}
func (Discovered) clientEvent()   {}

// Package netclient maintains the lane's connection to the front desk
// server: newline-delimited JSON over TCP, with registration,
// heartbeats, exponential reconnect and multicast discovery.
package netclient

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/fivepin/lanebox/internal/protocol"
)

// Config holds the client's connection settings.
type Config struct {
	LaneID            int
	Host              string
	Port              int
	DialTimeout       time.Duration
	HeartbeatInterval time.Duration
	Backoff           Backoff
	MaxAttempts       int  // direct reconnects before falling back to discovery
	UseDiscovery      bool // multicast for the server when reconnects are exhausted
}

// DefaultConfig returns the production connection settings.
func DefaultConfig() Config {
	return Config{
		LaneID:            1,
		Host:              "127.0.0.1",
		Port:              50005,
		DialTimeout:       5 * time.Second,
		HeartbeatInterval: 10 * time.Second,
		Backoff:           Backoff{Base: time.Second, Max: 30 * time.Second},
		MaxAttempts:       10,
		UseDiscovery:      true,
	}
}

// Client is the lane side of the server link. Run owns the connection;
// everything else talks to it through the outbox and event channels.
type Client struct {
	cfg    Config
	logger *log.Logger

	mu    sync.Mutex
	state ConnState
	host  string
	port  int

	outbox chan protocol.Message
	events chan Event
}

// New builds a client. Run must be called for it to do anything.
func New(cfg Config, logger *log.Logger) *Client {
	return &Client{
		cfg:    cfg,
		logger: logger,
		host:   cfg.Host,
		port:   cfg.Port,
		outbox: make(chan protocol.Message, 32),
		events: make(chan Event, 64),
	}
}

// Events is the stream of connection and command events.
func (c *Client) Events() <-chan Event { return c.events }

// State returns the current connection state.
func (c *Client) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Run maintains the connection until the context ends, reconnecting
// with exponential backoff and falling back to multicast discovery
// once direct attempts are exhausted.
func (c *Client) Run(ctx context.Context) error {
	attempt := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.mu.Lock()
		addr := net.JoinHostPort(c.host, fmt.Sprintf("%d", c.port))
		c.mu.Unlock()

		c.setState(StateConnecting)
		conn, err := (&net.Dialer{Timeout: c.cfg.DialTimeout}).DialContext(ctx, "tcp", addr)
		if err != nil {
			c.setState(StateReconnecting)
			attempt++
			c.logger.Warn("connect failed", "addr", addr, "attempt", attempt, "err", err)

			if c.cfg.UseDiscovery && attempt >= c.cfg.MaxAttempts {
				host, port, derr := Discover(ctx, c.logger)
				if derr != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					c.logger.Warn("discovery failed", "err", derr)
					continue
				}
				c.mu.Lock()
				c.host, c.port = host, port
				c.mu.Unlock()
				c.emit(Discovered{Host: host, Port: port})
				attempt = 0
				continue
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.cfg.Backoff.Delay(attempt - 1)):
			}
			continue
		}

		attempt = 0
		c.logger.Info("connected", "addr", addr, "lane", c.cfg.LaneID)
		c.setState(StateConnected)
		c.register(conn)
		err = c.session(ctx, conn)
		if ctx.Err() != nil {
			c.setState(StateDisconnected)
			return ctx.Err()
		}
		c.setState(StateReconnecting)
		c.logger.Info("disconnected", "addr", addr)
		if err != nil {
			c.logger.Warn("session ended", "err", err)
			select {
			case <-ctx.Done():
				c.setState(StateDisconnected)
				return ctx.Err()
			case <-time.After(c.cfg.Backoff.Delay(0)):
			}
		}
	}
}

// register announces the lane to the server.
func (c *Client) register(conn net.Conn) {
	msg := protocol.New(protocol.TypeRegistration, c.cfg.LaneID)
	if addr, ok := conn.LocalAddr().(*net.TCPAddr); ok {
		msg.ClientIP = addr.IP.String()
	}
	if err := writeMessage(conn, msg); err != nil {
		c.logger.Warn("registration send failed", "err", err)
	}
}

// errRegistrationRejected tears the session down so Run schedules a
// fresh connection and registration.
var errRegistrationRejected = errors.New("netclient: registration rejected")

// session pumps the connection until either side drops it. A non-nil
// error means the server turned the lane away.
func (c *Client) session(ctx context.Context, conn net.Conn) error {
	defer conn.Close()

	inbox := make(chan protocol.Message, 32)
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		scanner := bufio.NewScanner(conn)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			var msg protocol.Message
			if err := json.Unmarshal(line, &msg); err != nil {
				c.logger.Warn("malformed message dropped", "err", err)
				continue
			}
			select {
			case inbox <- msg:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			c.logger.Debug("read loop ended", "err", err)
		}
	}()

	// heartbeats start only once the server accepts the registration
	var heartbeat *time.Ticker
	var heartbeatC <-chan time.Time
	defer func() {
		if heartbeat != nil {
			heartbeat.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-readDone:
			return nil
		case msg := <-inbox:
			if err := c.handle(conn, msg); err != nil {
				return err
			}
			if heartbeat == nil && c.State() == StateRegistered {
				heartbeat = time.NewTicker(c.cfg.HeartbeatInterval)
				heartbeatC = heartbeat.C
			}
		case msg := <-c.outbox:
			if err := writeMessage(conn, msg); err != nil {
				c.logger.Warn("send failed", "type", msg.Type, "err", err)
				return nil
			}
		case <-heartbeatC:
			if err := writeMessage(conn, protocol.New(protocol.TypeHeartbeat, c.cfg.LaneID)); err != nil {
				c.logger.Warn("heartbeat failed", "err", err)
				return nil
			}
		}
	}
}

// handle dispatches one inbound message.
func (c *Client) handle(conn net.Conn, msg protocol.Message) error {
	switch msg.Type {
	case protocol.TypeRegistrationResponse:
		if msg.Status != "success" {
			return fmt.Errorf("%w: status %q: %s", errRegistrationRejected, msg.Status, msg.Message)
		}
		c.logger.Info("registered with server", "lane", c.cfg.LaneID)
		c.setState(StateRegistered)
		c.emit(Registered{})
	case protocol.TypeHeartbeatResponse:
		c.logger.Debug("heartbeat acknowledged")
	case protocol.TypePing:
		if err := writeMessage(conn, protocol.New(protocol.TypePong, c.cfg.LaneID)); err != nil {
			c.logger.Warn("pong failed", "err", err)
		}
	case protocol.TypeQuickGame, protocol.TypeLeagueGame, protocol.TypePreBowl, protocol.TypeTeamMove:
		c.emit(GameCommand{Msg: msg})
	default:
		// unknown server messages still reach the orchestrator,
		// which logs and ignores what it cannot act on
		c.emit(GameCommand{Msg: msg})
	}
	return nil
}

// Send queues a message for the server. While disconnected this is a
// logged no-op so lane play never stalls on the network.
func (c *Client) Send(msg protocol.Message) {
	c.mu.Lock()
	connected := c.state == StateConnected || c.state == StateRegistered
	c.mu.Unlock()
	if !connected {
		c.logger.Warn("not connected, dropping message", "type", msg.Type)
		return
	}
	select {
	case c.outbox <- msg:
	default:
		c.logger.Warn("outbox full, dropping message", "type", msg.Type)
	}
}

// SendFrameUpdate reports one processed ball.
func (c *Client) SendFrameUpdate(data any) {
	msg, err := protocol.New(protocol.TypeFrameUpdate, c.cfg.LaneID).WithData(data)
	if err != nil {
		c.logger.Warn("frame update encode failed", "err", err)
		return
	}
	c.Send(msg)
}

// SendStatusUpdate reports a lane status change.
func (c *Client) SendStatusUpdate(status string, data any) {
	msg := protocol.New(protocol.TypeStatusUpdate, c.cfg.LaneID)
	msg.Status = status
	if data != nil {
		var err error
		msg, err = msg.WithData(data)
		if err != nil {
			c.logger.Warn("status update encode failed", "err", err)
			return
		}
	}
	c.Send(msg)
}

// SendGameComplete reports final game results.
func (c *Client) SendGameComplete(result protocol.GameResult) {
	msg, err := protocol.New(protocol.TypeGameComplete, c.cfg.LaneID).WithData(result)
	if err != nil {
		c.logger.Warn("game complete encode failed", "err", err)
		return
	}
	c.Send(msg)
}

func (c *Client) setState(s ConnState) {
	c.mu.Lock()
	old := c.state
	c.state = s
	c.mu.Unlock()
	if old != s {
		c.emit(StateChanged{Old: old, New: s})
	}
}

// emit never blocks the connection loops; the oldest event is dropped
// when the buffer is full.
func (c *Client) emit(evt Event) {
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

func writeMessage(conn net.Conn, msg protocol.Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = conn.Write(b)
	return err
}

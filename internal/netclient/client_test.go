package netclient

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/fivepin/lanebox/internal/protocol"
)

// fakeServer accepts one lane connection and exchanges line JSON.
type fakeServer struct {
	ln net.Listener

	conns chan *fakeConn
}

type fakeConn struct {
	conn net.Conn
	r    *bufio.Scanner
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &fakeServer{ln: ln, conns: make(chan *fakeConn, 4)}
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			s.conns <- &fakeConn{conn: conn, r: bufio.NewScanner(conn)}
		}
	}()
	return s
}

func (s *fakeServer) addr() (string, int) {
	a := s.ln.Addr().(*net.TCPAddr)
	return a.IP.String(), a.Port
}

func (s *fakeServer) accept(t *testing.T) *fakeConn {
	t.Helper()
	select {
	case c := <-s.conns:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("no connection accepted")
		return nil
	}
}

func (fc *fakeConn) read(t *testing.T) protocol.Message {
	t.Helper()
	_ = fc.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if !fc.r.Scan() {
		t.Fatalf("read: %v", fc.r.Err())
	}
	var msg protocol.Message
	if err := json.Unmarshal(fc.r.Bytes(), &msg); err != nil {
		t.Fatalf("unmarshal %q: %v", fc.r.Text(), err)
	}
	return msg
}

func (fc *fakeConn) write(t *testing.T, msg protocol.Message) {
	t.Helper()
	b, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := fc.conn.Write(append(b, '\n')); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func startClient(t *testing.T, s *fakeServer) *Client {
	t.Helper()
	host, port := s.addr()
	cfg := DefaultConfig()
	cfg.LaneID = 7
	cfg.Host = host
	cfg.Port = port
	cfg.HeartbeatInterval = 50 * time.Millisecond
	cfg.Backoff = Backoff{Base: 10 * time.Millisecond, Max: 50 * time.Millisecond}
	cfg.UseDiscovery = false
	c := New(cfg, log.New(io.Discard))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go c.Run(ctx)
	return c
}

func waitClientEvent[E Event](t *testing.T, c *Client, timeout time.Duration) (E, bool) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case evt := <-c.Events():
			if e, ok := evt.(E); ok {
				return e, true
			}
		case <-deadline:
			var zero E
			return zero, false
		}
	}
}

func TestRegistrationHandshake(t *testing.T) {
	s := newFakeServer(t)
	c := startClient(t, s)
	fc := s.accept(t)

	msg := fc.read(t)
	if msg.Type != protocol.TypeRegistration {
		t.Fatalf("first message type = %q, want registration", msg.Type)
	}
	if msg.LaneID != 7 {
		t.Fatalf("lane id = %d, want 7", msg.LaneID)
	}
	if msg.ClientIP == "" {
		t.Fatal("registration missing client ip")
	}

	resp := protocol.New(protocol.TypeRegistrationResponse, 0)
	resp.Status = "success"
	fc.write(t, resp)

	if _, ok := waitClientEvent[Registered](t, c, 2*time.Second); !ok {
		t.Fatal("no Registered event")
	}
	if got := c.State(); got != StateRegistered {
		t.Fatalf("state = %v, want registered", got)
	}
}

func TestHeartbeatStartsAfterRegistration(t *testing.T) {
	s := newFakeServer(t)
	startClient(t, s)
	fc := s.accept(t)
	fc.read(t) // registration

	// until the server answers, the lane stays quiet
	_ = fc.conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if fc.r.Scan() {
		t.Fatalf("unexpected message before registration accepted: %q", fc.r.Text())
	}

	resp := protocol.New(protocol.TypeRegistrationResponse, 0)
	resp.Status = "success"
	fc.write(t, resp)

	fc.r = bufio.NewScanner(fc.conn)
	msg := fc.read(t)
	if msg.Type != protocol.TypeHeartbeat {
		t.Fatalf("type = %q, want heartbeat", msg.Type)
	}
	if msg.Timestamp == 0 {
		t.Fatal("heartbeat missing timestamp")
	}
}

func TestPingAnsweredWithPong(t *testing.T) {
	s := newFakeServer(t)
	startClient(t, s)
	fc := s.accept(t)
	fc.read(t) // registration

	fc.write(t, protocol.New(protocol.TypePing, 0))
	for {
		msg := fc.read(t)
		if msg.Type == protocol.TypeHeartbeat {
			continue
		}
		if msg.Type != protocol.TypePong {
			t.Fatalf("type = %q, want pong", msg.Type)
		}
		return
	}
}

func TestGameCommandsSurfaceAsEvents(t *testing.T) {
	s := newFakeServer(t)
	c := startClient(t, s)
	fc := s.accept(t)
	fc.read(t) // registration

	cmd := protocol.New(protocol.TypeQuickGame, 7)
	cmd, err := cmd.WithData(protocol.GameOptions{Players: []string{"Ada", "Grace"}})
	if err != nil {
		t.Fatalf("WithData: %v", err)
	}
	fc.write(t, cmd)

	evt, ok := waitClientEvent[GameCommand](t, c, 2*time.Second)
	if !ok {
		t.Fatal("no GameCommand event")
	}
	if evt.Msg.Type != protocol.TypeQuickGame {
		t.Fatalf("command type = %q, want quick_game", evt.Msg.Type)
	}
	var opts protocol.GameOptions
	if err := json.Unmarshal(evt.Msg.Data, &opts); err != nil {
		t.Fatalf("decode options: %v", err)
	}
	if len(opts.Players) != 2 || opts.Players[0] != "Ada" {
		t.Fatalf("players = %v", opts.Players)
	}
}

func TestMalformedLineDoesNotKillSession(t *testing.T) {
	s := newFakeServer(t)
	c := startClient(t, s)
	fc := s.accept(t)
	fc.read(t) // registration

	if _, err := fc.conn.Write([]byte("{not json}\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	fc.write(t, protocol.New(protocol.TypeLeagueGame, 7))

	evt, ok := waitClientEvent[GameCommand](t, c, 2*time.Second)
	if !ok {
		t.Fatal("command after malformed line never arrived")
	}
	if evt.Msg.Type != protocol.TypeLeagueGame {
		t.Fatalf("type = %q, want league_game", evt.Msg.Type)
	}
}

func TestRegistrationRejectedSchedulesReconnect(t *testing.T) {
	s := newFakeServer(t)
	c := startClient(t, s)
	fc := s.accept(t)
	fc.read(t) // registration

	resp := protocol.New(protocol.TypeRegistrationResponse, 0)
	resp.Status = "error"
	resp.Message = "lane unknown"
	fc.write(t, resp)

	if !waitForState(t, c, StateReconnecting, 2*time.Second) {
		t.Fatal("client never reported reconnecting after rejection")
	}
	fc2 := s.accept(t)
	msg := fc2.read(t)
	if msg.Type != protocol.TypeRegistration {
		t.Fatalf("retry first message = %q, want registration", msg.Type)
	}
}

func waitForState(t *testing.T, c *Client, want ConnState, timeout time.Duration) bool {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case evt := <-c.Events():
			if sc, ok := evt.(StateChanged); ok && sc.New == want {
				return true
			}
		case <-deadline:
			return false
		}
	}
}

func TestReconnectAfterDrop(t *testing.T) {
	s := newFakeServer(t)
	startClient(t, s)
	fc := s.accept(t)
	fc.read(t) // registration
	fc.conn.Close()

	fc2 := s.accept(t)
	msg := fc2.read(t)
	if msg.Type != protocol.TypeRegistration {
		t.Fatalf("reconnect first message = %q, want registration", msg.Type)
	}
}

func TestSendWhileDisconnectedIsNoOp(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UseDiscovery = false
	c := New(cfg, log.New(io.Discard))
	// no Run; the client is disconnected
	c.Send(protocol.New(protocol.TypeStatusUpdate, 1))
	select {
	case msg := <-c.outbox:
		t.Fatalf("message %q queued while disconnected", msg.Type)
	default:
	}
}

func TestParseDiscoveryReply(t *testing.T) {
	host, port, ok := parseDiscoveryReply([]byte(`LANE_DISCOVERY_RESPONSE {"host":"10.0.0.5","port":50005}`))
	if !ok || host != "10.0.0.5" || port != 50005 {
		t.Fatalf("got %q %d %v", host, port, ok)
	}
	if _, _, ok := parseDiscoveryReply([]byte("LANE_DISCOVERY_REQUEST")); ok {
		t.Fatal("request magic accepted as reply")
	}
	if _, _, ok := parseDiscoveryReply([]byte(`LANE_DISCOVERY_RESPONSE {"host":"x"}`)); ok {
		t.Fatal("reply without port accepted")
	}
}

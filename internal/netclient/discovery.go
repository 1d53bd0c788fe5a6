package netclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// UDP multicast discovery, used once direct reconnects are exhausted.
const (
	DiscoveryGroup    = "224.3.29.71"
	DiscoveryPort     = 50005
	discoveryRequest  = "LANE_DISCOVERY_REQUEST"
	discoveryResponse = "LANE_DISCOVERY_RESPONSE"
)

// discoveryReply is the JSON that follows the response magic.
type discoveryReply struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// Discover multicasts a request and waits for a server to answer with
// its address. It retries until the context ends.
func Discover(ctx context.Context, logger *log.Logger) (host string, port int, err error) {
	group := &net.UDPAddr{IP: net.ParseIP(DiscoveryGroup), Port: DiscoveryPort}
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		return "", 0, fmt.Errorf("discovery: listen: %w", err)
	}
	defer conn.Close()

	buf := make([]byte, 1024)
	for {
		if _, err := conn.WriteToUDP([]byte(discoveryRequest), group); err != nil {
			logger.Warn("discovery request failed", "err", err)
		} else {
			logger.Info("discovery request sent", "group", group.String())
		}

		deadline := time.Now().Add(3 * time.Second)
		if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
			deadline = d
		}
		_ = conn.SetReadDeadline(deadline)

		for {
			n, addr, rerr := conn.ReadFromUDP(buf)
			if rerr != nil {
				break
			}
			host, port, ok := parseDiscoveryReply(buf[:n])
			if !ok {
				logger.Debug("ignoring stray discovery datagram", "from", addr.String())
				continue
			}
			if host == "" {
				host = addr.IP.String()
			}
			logger.Info("server discovered", "host", host, "port", port)
			return host, port, nil
		}

		select {
		case <-ctx.Done():
			return "", 0, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

// parseDiscoveryReply checks the magic prefix and decodes the address
// payload after it.
func parseDiscoveryReply(b []byte) (host string, port int, ok bool) {
	s := string(b)
	if !strings.HasPrefix(s, discoveryResponse) {
		return "", 0, false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(s, discoveryResponse))
	var reply discoveryReply
	if err := json.Unmarshal([]byte(rest), &reply); err != nil {
		return "", 0, false
	}
	if reply.Port == 0 {
		return "", 0, false
	}
	return reply.Host, reply.Port, true
}

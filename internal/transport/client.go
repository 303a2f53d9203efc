package transport

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/nomadgto/dist-syst/internal/wire"
)

// DefaultDialTimeout bounds how long a single Send waits to establish
// a connection before it is classified as a Timeout.
const DefaultDialTimeout = 3 * time.Second

// Send opens one connection to addr, writes payload, and — if
// awaitReply is true — reads back whatever the peer sends before 1024
// bytes or EOF, whichever comes first. Every connection is one
// request-response exchange, matching the per-call socket lifecycle the
// wire protocol was built around.
func Send(addr string, payload []byte, awaitReply bool) ([]byte, error) {
	conn, err := net.DialTimeout("tcp", addr, DefaultDialTimeout)
	if err != nil {
		return nil, classifyDialErr(addr, err)
	}
	defer conn.Close()

	if _, err := conn.Write(payload); err != nil {
		return nil, &wire.TransportError{Peer: addr, Kind: wire.Timeout, Err: err}
	}

	if !awaitReply {
		return nil, nil
	}

	buf := make([]byte, MaxFrameSize)
	n, err := conn.Read(buf)
	if err != nil && err != io.EOF {
		return nil, &wire.TransportError{Peer: addr, Kind: wire.Timeout, Err: err}
	}
	return buf[:n], nil
}

// classifyDialErr maps net.Dial's failure modes onto the three kinds
// the source's except-clauses distinguish: a refused connection (the
// peer process is down but routable) means the master has actually
// died and failover should trigger; "no route to host" means the same;
// a dial timeout, and any other failure, is classified as Timeout,
// which the Supervisor does not treat as a failover trigger.
func classifyDialErr(addr string, err error) error {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return &wire.TransportError{Peer: addr, Kind: wire.Timeout, Err: err}
		}
		msg := opErr.Err.Error()
		switch {
		case strings.Contains(msg, "connection refused"):
			return &wire.TransportError{Peer: addr, Kind: wire.ConnectionRefused, Err: err}
		case strings.Contains(msg, "no route to host"):
			return &wire.TransportError{Peer: addr, Kind: wire.NoRouteToHost, Err: err}
		}
	}
	return &wire.TransportError{Peer: addr, Kind: wire.Timeout, Err: err}
}

// BroadcastResult is one peer's outcome from Broadcast.
type BroadcastResult struct {
	Addr string
	Err  error
}

// Broadcast sends payload to every address in addrs concurrently and
// returns once every send has completed or timeout elapses, whichever
// is first — the same fan-out-then-collect shape the source's fan-out
// replication used, adapted from an HTTP+WaitGroup pattern to raw TCP
// sends collected over a channel so a single slow peer cannot block the
// others.
func Broadcast(addrs []string, payload []byte, timeout time.Duration) []BroadcastResult {
	results := make(chan BroadcastResult, len(addrs))
	for _, addr := range addrs {
		go func(a string) {
			_, err := Send(a, payload, false)
			results <- BroadcastResult{Addr: a, Err: err}
		}(addr)
	}

	out := make([]BroadcastResult, 0, len(addrs))
	deadline := time.After(timeout)
	for i := 0; i < len(addrs); i++ {
		select {
		case r := <-results:
			out = append(out, r)
		case <-deadline:
			out = append(out, BroadcastResult{Err: fmt.Errorf("broadcast: timed out waiting for %d more replies", len(addrs)-i)})
			return out
		}
	}
	return out
}

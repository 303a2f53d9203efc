// Package transport implements the raw TCP wire carrier every node uses
// to talk to every other node: one short-lived connection per message,
// a single bounded read, and a classified error on anything that isn't
// a clean exchange. It carries bytes only — internal/wire owns what
// those bytes mean.
package transport

import (
	"errors"
	"io"
	"net"

	"github.com/sirupsen/logrus"
)

// MaxFrameSize is the largest single message this protocol accepts in
// one read. A command that fills the buffer without completing is
// treated as a protocol error rather than silently truncated.
const MaxFrameSize = 1024

// Handler processes one received payload and returns the bytes (if any)
// to write back on the same connection before it is closed. A nil
// return means "no reply" — most control messages don't get one.
type Handler func(remoteAddr string, payload []byte) []byte

// Server accepts one connection per inbound message, matching the
// source protocol's per-call socket lifecycle: every message is its own
// TCP connection, not a long-lived session.
type Server struct {
	listener net.Listener
	log      *logrus.Entry
}

// Listen binds addr ("ip:port") and returns a Server ready to Serve.
func Listen(addr string, log *logrus.Entry) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{listener: ln, log: log}, nil
}

// Addr returns the bound local address.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Serve accepts connections until Close is called, dispatching each one
// to handler on its own goroutine. It returns once the listener is
// closed.
func (s *Server) Serve(handler Handler) error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		go s.handleConn(conn, handler)
	}
}

func (s *Server) handleConn(conn net.Conn, handler Handler) {
	defer conn.Close()

	buf := make([]byte, MaxFrameSize)
	n, err := conn.Read(buf)
	if err != nil && err != io.EOF {
		s.log.WithError(err).Warn("transport: read failed")
		return
	}
	if n == 0 {
		return
	}
	if n == MaxFrameSize {
		s.log.Warn("transport: frame filled the read buffer, treating as oversized")
		return
	}

	reply := handler(conn.RemoteAddr().String(), buf[:n])
	if reply != nil {
		if _, err := conn.Write(reply); err != nil {
			s.log.WithError(err).Warn("transport: write reply failed")
		}
	}
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	return s.listener.Close()
}

package endpoint

import (
	"context"
	"fmt"
	"net"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/danmuck/wirelink/internal/observability"
)

// Endpoint owns a listening socket and, after Start, exactly one
// connected peer.
type Endpoint struct {
	link
	ln net.Listener
}

func New(cfg Config, logger zerolog.Logger) *Endpoint {
	cfg = cfg.WithDefaults()
	return &Endpoint{
		link: link{
			cfg:  cfg,
			log:  logger.With().Str("component", "endpoint").Logger(),
			role: "server",
		},
	}
}

// Setup binds the listening socket to (ANY, port) on IPv4 with address
// reuse enabled. The listen backlog is the kernel default; see DESIGN.md.
func (e *Endpoint) Setup() error {
	if e.ln != nil {
		_ = e.ln.Close()
		e.ln = nil
	}
	lc := net.ListenConfig{Control: controlReuseAddr}
	ln, err := lc.Listen(context.Background(), "tcp4", fmt.Sprintf(":%d", e.cfg.Port))
	if err != nil {
		return fmt.Errorf("%w: listen port %d: %w", ErrSetup, e.cfg.Port, err)
	}
	e.ln = ln
	e.trace().Msgf("listening on port %d", e.cfg.Port)
	return nil
}

// Start blocks until one peer connects and stores that connection. Only
// one accept happens per call. A fresh Start accepts exactly the next
// pending connection, dropping whatever session came before it.
func (e *Endpoint) Start() error {
	if e.ln == nil {
		return fmt.Errorf("%w: not listening", ErrAccept)
	}
	e.closeConn()
	if tl, ok := e.ln.(*net.TCPListener); ok {
		if e.cfg.AcceptTimeout > 0 {
			_ = tl.SetDeadline(time.Now().Add(e.cfg.AcceptTimeout))
		} else {
			_ = tl.SetDeadline(time.Time{})
		}
	}
	conn, err := e.ln.Accept()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAccept, err)
	}
	e.attach(conn)
	observability.RecordSessionAccepted()
	e.trace().Str("remote", conn.RemoteAddr().String()).Msg("peer connected")
	return nil
}

// Close releases both sockets. It is safe on every path, including
// after a failed transfer that already released the connection.
func (e *Endpoint) Close() error {
	e.closeConn()
	if e.ln == nil {
		return nil
	}
	err := e.ln.Close()
	e.ln = nil
	return err
}

// PortNumber returns the configured listen port, immutable after
// construction.
func (e *Endpoint) PortNumber() int {
	return e.cfg.Port
}

// Addr returns the bound listener address, or nil before Setup. Differs
// from PortNumber when the endpoint was configured with port 0.
func (e *Endpoint) Addr() net.Addr {
	if e.ln == nil {
		return nil
	}
	return e.ln.Addr()
}

func controlReuseAddr(network, address string, c syscall.RawConn) error {
	var sockErr error
	if err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	}); err != nil {
		return err
	}
	return sockErr
}

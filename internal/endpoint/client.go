package endpoint

import (
	"fmt"
	"net"

	"github.com/rs/zerolog"
)

// Client is the dialing peer. It carries the identical typed operation
// set and byte accounting over its side of the connection.
type Client struct {
	link
}

// Dial connects to a listening endpoint. ConnectTimeout zero blocks
// until the dial resolves.
func Dial(addr string, cfg Config, logger zerolog.Logger) (*Client, error) {
	cfg = cfg.WithDefaults()
	d := net.Dialer{Timeout: cfg.ConnectTimeout}
	conn, err := d.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDial, addr, err)
	}
	c := &Client{
		link: link{
			cfg:  cfg,
			log:  logger.With().Str("component", "client").Logger(),
			role: "client",
		},
	}
	c.attach(conn)
	c.trace().Str("remote", addr).Msg("connected")
	return c, nil
}

// Close releases the connected socket.
func (c *Client) Close() error {
	c.closeConn()
	return nil
}

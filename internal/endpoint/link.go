package endpoint

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/danmuck/wirelink/internal/observability"
	"github.com/danmuck/wirelink/internal/wire"
)

var (
	ErrNotConnected = errors.New("endpoint: not connected")
	ErrTerminal     = errors.New("endpoint: terminal after failed transfer")
	ErrSetup        = errors.New("endpoint: setup failed")
	ErrAccept       = errors.New("endpoint: accept failed")
	ErrDial         = errors.New("endpoint: dial failed")
	ErrTransfer     = errors.New("endpoint: transfer failed")
)

// link holds the connected-socket state shared by the accepting and the
// dialing side: one peer, one session id, one sent-byte counter.
type link struct {
	cfg  Config
	log  zerolog.Logger
	role string

	conn      net.Conn
	sessionID string
	totalSent uint64
	terminal  bool
}

func (l *link) attach(conn net.Conn) {
	l.conn = conn
	l.sessionID = uuid.NewString()
	l.terminal = false
}

func (l *link) closeConn() {
	if l.conn != nil {
		_ = l.conn.Close()
		l.conn = nil
	}
}

// fail is the terminal path for a broken transfer: the connection is
// released immediately and every later operation returns ErrTerminal.
func (l *link) fail(op string, cause error) error {
	l.closeConn()
	l.terminal = true
	l.log.Error().
		Str("session_id", l.sessionID).
		Err(cause).
		Msgf("%s failed", op)
	return fmt.Errorf("%w: %s: %w", ErrTransfer, op, cause)
}

func (l *link) ready() error {
	if l.terminal {
		return ErrTerminal
	}
	if l.conn == nil {
		return ErrNotConnected
	}
	return nil
}

func (l *link) armRead() {
	if l.cfg.ReadTimeout > 0 {
		_ = l.conn.SetReadDeadline(time.Now().Add(l.cfg.ReadTimeout))
	} else {
		_ = l.conn.SetReadDeadline(time.Time{})
	}
}

func (l *link) armWrite() {
	if l.cfg.WriteTimeout > 0 {
		_ = l.conn.SetWriteDeadline(time.Now().Add(l.cfg.WriteTimeout))
	} else {
		_ = l.conn.SetWriteDeadline(time.Time{})
	}
}

func (l *link) accountSent(n int) {
	l.totalSent += uint64(n)
	observability.RecordBytesSent(l.role, n)
}

func (l *link) trace() *zerolog.Event {
	if !l.cfg.Debug {
		nop := zerolog.Nop()
		return nop.Trace()
	}
	ev := l.log.Trace()
	if l.sessionID != "" {
		ev = ev.Str("session_id", l.sessionID)
	}
	return ev
}

// SendValue writes one u32 in native order.
func (l *link) SendValue(v uint32) error {
	if err := l.ready(); err != nil {
		return err
	}
	l.armWrite()
	n, err := wire.WriteWord(l.conn, v)
	if err != nil {
		return l.fail("send value", err)
	}
	l.accountSent(n)
	l.trace().Msgf("sent value=%d", v)
	return nil
}

// RecvValue reads one u32 in native order.
func (l *link) RecvValue() (uint32, error) {
	if err := l.ready(); err != nil {
		return 0, err
	}
	l.armRead()
	v, err := wire.ReadWord(l.conn)
	if err != nil {
		return 0, l.fail("receive value", err)
	}
	observability.RecordBytesReceived(l.role, wire.WordSize)
	l.trace().Msgf("received value=%d", v)
	return v, nil
}

// SendVector writes a length-prefixed run of u32s.
func (l *link) SendVector(words []uint32) error {
	if err := l.ready(); err != nil {
		return err
	}
	l.armWrite()
	n, err := wire.WriteSequence(l.conn, words, l.cfg.Limits)
	if err != nil {
		return l.fail("send vector", err)
	}
	l.accountSent(n)
	l.trace().Msgf("sent vector=%s", wire.FormatWords(words))
	return nil
}

// RecvVector reads one length-prefixed run of u32s. The wire content
// alone determines the result; nothing the caller previously held
// contributes to it.
func (l *link) RecvVector() ([]uint32, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	l.armRead()
	words, err := wire.ReadSequence(l.conn, l.cfg.Limits)
	if err != nil {
		return nil, l.fail("receive vector", err)
	}
	observability.RecordBytesReceived(l.role, wire.SeqHeaderLen+len(words)*wire.WordSize)
	l.trace().Msgf("received vector=%s", wire.FormatWords(words))
	return words, nil
}

// SendPair writes exactly two u32s with no length prefix. Both peers
// must agree on the arity out of band; a mismatch is a caller bug.
func (l *link) SendPair(p [2]uint32) error {
	return l.sendBlock("send pair", p[:])
}

// RecvPair reads exactly two unframed u32s.
func (l *link) RecvPair() ([2]uint32, error) {
	var p [2]uint32
	if err := l.recvBlock("receive pair", p[:]); err != nil {
		return [2]uint32{}, err
	}
	return p, nil
}

// SendQuad writes exactly four u32s with no length prefix.
func (l *link) SendQuad(q [4]uint32) error {
	return l.sendBlock("send quad", q[:])
}

// RecvQuad reads exactly four unframed u32s.
func (l *link) RecvQuad() ([4]uint32, error) {
	var q [4]uint32
	if err := l.recvBlock("receive quad", q[:]); err != nil {
		return [4]uint32{}, err
	}
	return q, nil
}

func (l *link) sendBlock(op string, words []uint32) error {
	if err := l.ready(); err != nil {
		return err
	}
	l.armWrite()
	n, err := wire.WriteBlock(l.conn, words)
	if err != nil {
		return l.fail(op, err)
	}
	l.accountSent(n)
	l.trace().Msgf("sent block=%s", wire.FormatWords(words))
	return nil
}

func (l *link) recvBlock(op string, words []uint32) error {
	if err := l.ready(); err != nil {
		return err
	}
	l.armRead()
	if err := wire.ReadBlock(l.conn, words); err != nil {
		return l.fail(op, err)
	}
	observability.RecordBytesReceived(l.role, len(words)*wire.WordSize)
	l.trace().Msgf("received block=%s", wire.FormatWords(words))
	return nil
}

// SessionID identifies the current connected session in logs.
func (l *link) SessionID() string {
	return l.sessionID
}

// TotalBytesSent reports the cumulative successfully sent byte count
// since construction or the last clear.
func (l *link) TotalBytesSent() uint64 {
	return l.totalSent
}

// ClearTotalBytesSent resets the counter. Socket state is untouched.
func (l *link) ClearTotalBytesSent() {
	l.totalSent = 0
}

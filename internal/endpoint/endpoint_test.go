package endpoint

import (
	"errors"
	"fmt"
	"net"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/wirelink/internal/testutil/testlog"
	"github.com/danmuck/wirelink/internal/wire"
)

func listenAddr(t *testing.T, ep *Endpoint) string {
	t.Helper()
	tcpAddr, ok := ep.Addr().(*net.TCPAddr)
	if !ok {
		t.Fatalf("unexpected listener addr type: %T", ep.Addr())
	}
	return fmt.Sprintf("127.0.0.1:%d", tcpAddr.Port)
}

func startPair(t *testing.T, cfg Config) (*Endpoint, *Client) {
	t.Helper()
	cfg.Port = 0
	ep := New(cfg, log.Logger)
	if err := ep.Setup(); err != nil {
		t.Fatalf("setup: %v", err)
	}
	t.Cleanup(func() { _ = ep.Close() })

	type dialResult struct {
		client *Client
		err    error
	}
	results := make(chan dialResult, 1)
	addr := listenAddr(t, ep)
	go func() {
		c, err := Dial(addr, cfg, log.Logger)
		results <- dialResult{client: c, err: err}
	}()

	if err := ep.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	res := <-results
	if res.err != nil {
		t.Fatalf("dial: %v", res.err)
	}
	t.Cleanup(func() { _ = res.client.Close() })
	return ep, res.client
}

func TestValueRoundTrip(t *testing.T) {
	testlog.Start(t)
	ep, client := startPair(t, Config{Debug: true})

	for _, v := range []uint32{0, 1, 77, ^uint32(0)} {
		if err := client.SendValue(v); err != nil {
			t.Fatalf("client send %d: %v", v, err)
		}
		got, err := ep.RecvValue()
		if err != nil {
			t.Fatalf("endpoint recv: %v", err)
		}
		if got != v {
			t.Fatalf("value mismatch: got=%d want=%d", got, v)
		}

		if err := ep.SendValue(v + 1); err != nil {
			t.Fatalf("endpoint send: %v", err)
		}
		echo, err := client.RecvValue()
		if err != nil {
			t.Fatalf("client recv: %v", err)
		}
		if echo != v+1 {
			t.Fatalf("echo mismatch: got=%d want=%d", echo, v+1)
		}
	}
}

func TestVectorRoundTrip(t *testing.T) {
	testlog.Start(t)
	ep, client := startPair(t, Config{Debug: true})

	cases := [][]uint32{
		{},
		{9},
		{1, 2, 3, 4, 5},
		{0, ^uint32(0), 0, ^uint32(0)},
	}
	// Successive exchanges of different lengths: the receive side derives
	// every allocation from the wire, never from prior state.
	for _, words := range cases {
		if err := client.SendVector(words); err != nil {
			t.Fatalf("send vector %v: %v", words, err)
		}
		got, err := ep.RecvVector()
		if err != nil {
			t.Fatalf("recv vector: %v", err)
		}
		if len(got) != len(words) {
			t.Fatalf("length mismatch: got=%d want=%d", len(got), len(words))
		}
		for i := range words {
			if got[i] != words[i] {
				t.Fatalf("element %d mismatch: got=%d want=%d", i, got[i], words[i])
			}
		}
	}
}

func TestPairAndQuadRoundTrip(t *testing.T) {
	testlog.Start(t)
	ep, client := startPair(t, Config{Debug: true})

	pair := [2]uint32{11, 22}
	if err := client.SendPair(pair); err != nil {
		t.Fatalf("send pair: %v", err)
	}
	gotPair, err := ep.RecvPair()
	if err != nil {
		t.Fatalf("recv pair: %v", err)
	}
	if gotPair != pair {
		t.Fatalf("pair mismatch: got=%v want=%v", gotPair, pair)
	}

	quad := [4]uint32{1, 2, 3, ^uint32(0)}
	if err := ep.SendQuad(quad); err != nil {
		t.Fatalf("send quad: %v", err)
	}
	gotQuad, err := client.RecvQuad()
	if err != nil {
		t.Fatalf("recv quad: %v", err)
	}
	if gotQuad != quad {
		t.Fatalf("quad mismatch: got=%v want=%v", gotQuad, quad)
	}
}

func TestByteAccounting(t *testing.T) {
	testlog.Start(t)
	ep, client := startPair(t, Config{Debug: true})
	_ = client

	const sends = 3
	for i := 0; i < sends; i++ {
		if err := ep.SendValue(uint32(i)); err != nil {
			t.Fatalf("send value: %v", err)
		}
	}
	vector := []uint32{5, 6, 7, 8, 9}
	if err := ep.SendVector(vector); err != nil {
		t.Fatalf("send vector: %v", err)
	}

	want := uint64(sends*wire.WordSize + wire.SeqHeaderLen + len(vector)*wire.WordSize)
	if got := ep.TotalBytesSent(); got != want {
		t.Fatalf("bytes sent: got=%d want=%d", got, want)
	}

	ep.ClearTotalBytesSent()
	if got := ep.TotalBytesSent(); got != 0 {
		t.Fatalf("bytes sent after clear: got=%d want=0", got)
	}
}

func TestSingleAcceptPerStart(t *testing.T) {
	testlog.Start(t)
	cfg := Config{Port: 0, Debug: true}
	ep := New(cfg, log.Logger)
	if err := ep.Setup(); err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer ep.Close()
	addr := listenAddr(t, ep)

	dial := func() *Client {
		c, err := Dial(addr, cfg, log.Logger)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		t.Cleanup(func() { _ = c.Close() })
		return c
	}

	first := dial()
	if err := ep.Start(); err != nil {
		t.Fatalf("first start: %v", err)
	}
	// Connects at the TCP level via the listen queue, but is not the
	// accepted session until a fresh Start.
	second := dial()

	if err := ep.SendValue(7); err != nil {
		t.Fatalf("send to first: %v", err)
	}
	if got, err := first.RecvValue(); err != nil || got != 7 {
		t.Fatalf("first session recv: got=%d err=%v", got, err)
	}

	if err := ep.Start(); err != nil {
		t.Fatalf("second start: %v", err)
	}
	if err := ep.SendValue(9); err != nil {
		t.Fatalf("send to second: %v", err)
	}
	if got, err := second.RecvValue(); err != nil || got != 9 {
		t.Fatalf("second session recv: got=%d err=%v", got, err)
	}

	// The fresh Start dropped the first session.
	if _, err := first.RecvValue(); !errors.Is(err, ErrTransfer) {
		t.Fatalf("expected dropped first session, got %v", err)
	}
}

func TestPeerCloseMidReceiveIsTerminal(t *testing.T) {
	testlog.Start(t)
	ep, client := startPair(t, Config{Debug: true})

	if err := client.Close(); err != nil {
		t.Fatalf("close client: %v", err)
	}
	_, err := ep.RecvValue()
	if !errors.Is(err, ErrTransfer) {
		t.Fatalf("expected ErrTransfer, got %v", err)
	}
	if !errors.Is(err, wire.ErrPeerClosed) {
		t.Fatalf("expected wire.ErrPeerClosed cause, got %v", err)
	}

	// The failed transfer released the connection; nothing executes after it.
	if ep.conn != nil {
		t.Fatalf("expected connected socket released on failure")
	}
	if err := ep.SendValue(1); !errors.Is(err, ErrTerminal) {
		t.Fatalf("expected ErrTerminal, got %v", err)
	}
	if _, err := ep.RecvVector(); !errors.Is(err, ErrTerminal) {
		t.Fatalf("expected ErrTerminal, got %v", err)
	}
}

func TestReadTimeout(t *testing.T) {
	testlog.Start(t)
	ep, client := startPair(t, Config{Debug: true, ReadTimeout: 50 * time.Millisecond})
	_ = client

	_, err := ep.RecvValue()
	if !errors.Is(err, ErrTransfer) {
		t.Fatalf("expected ErrTransfer, got %v", err)
	}
	if !errors.Is(err, os.ErrDeadlineExceeded) {
		t.Fatalf("expected deadline cause, got %v", err)
	}
}

func TestAcceptTimeout(t *testing.T) {
	testlog.Start(t)
	ep := New(Config{Port: 0, AcceptTimeout: 50 * time.Millisecond}, log.Logger)
	if err := ep.Setup(); err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer ep.Close()

	err := ep.Start()
	if !errors.Is(err, ErrAccept) {
		t.Fatalf("expected ErrAccept, got %v", err)
	}
	if !errors.Is(err, os.ErrDeadlineExceeded) {
		t.Fatalf("expected deadline cause, got %v", err)
	}
}

func TestOperationsRequireConnection(t *testing.T) {
	testlog.Start(t)
	ep := New(Config{Port: 0}, log.Logger)
	if err := ep.Setup(); err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer ep.Close()

	if err := ep.SendValue(1); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	if _, err := ep.RecvVector(); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestPortNumberIsConfiguredPort(t *testing.T) {
	testlog.Start(t)
	ep := New(Config{Port: 9300}, log.Logger)
	if got := ep.PortNumber(); got != 9300 {
		t.Fatalf("unexpected port: %d", got)
	}
}

func TestSetupClosesPreviousListener(t *testing.T) {
	testlog.Start(t)
	ep := New(Config{Port: 0}, log.Logger)
	if err := ep.Setup(); err != nil {
		t.Fatalf("first setup: %v", err)
	}
	first := ep.ln
	if err := ep.Setup(); err != nil {
		t.Fatalf("second setup: %v", err)
	}
	defer ep.Close()

	if _, err := first.Accept(); !errors.Is(err, net.ErrClosed) {
		t.Fatalf("expected previous listener closed, got %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	testlog.Start(t)
	ep, client := startPair(t, Config{})
	if err := ep.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := ep.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("client close: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second client close: %v", err)
	}
}

package endpoint

import (
	"time"

	"github.com/danmuck/wirelink/internal/wire"
)

// Config defines endpoint transport behavior. Zero timeouts mean block
// forever, the default for a fully synchronous session; systems that
// need bounded latency opt in per operation class.
type Config struct {
	Port  int
	Debug bool

	ConnectTimeout time.Duration
	AcceptTimeout  time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	Limits wire.Limits
}

func DefaultConfig() Config {
	return Config{
		Port:   9300,
		Limits: wire.DefaultLimits(),
	}
}

func (c Config) WithDefaults() Config {
	if c.Limits.MaxSequenceBytes == 0 {
		c.Limits = wire.DefaultLimits()
	}
	return c
}

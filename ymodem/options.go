package ymodem

import (
	"fmt"
	"time"

	"github.com/arloliu/go-fsstream/internal/ringbuf"
	"github.com/arloliu/go-fsstream/logger"
)

const (
	DefaultTimeout = time.Second
	MinTimeout     = 100 * time.Millisecond
	MaxTimeout     = 10 * time.Second

	DefaultMaxErrors = 10
	MinMaxErrors     = 1
	MaxMaxErrors     = 31

	DefaultBufferSize = ringbuf.DefaultSize
	// MinBufferSize holds at least one 1K packet with its framing.
	MinBufferSize = 2048
	MaxBufferSize = 65536
)

type config struct {
	timeout    time.Duration
	maxErrors  int
	bufferSize int
	clock      func() time.Time
	onComplete func(Result)
	logger     logger.Logger
}

func defaultConfig() *config {
	return &config{
		timeout:    DefaultTimeout,
		maxErrors:  DefaultMaxErrors,
		bufferSize: DefaultBufferSize,
		clock:      time.Now,
		logger:     logger.Component("ymodem"),
	}
}

// Option configures a Receiver.
type Option interface {
	apply(*config) error
}

type optFunc func(*config) error

func (f optFunc) apply(cfg *config) error {
	return f(cfg)
}

// WithTimeout sets how long the receiver waits for the next byte before sending NAK.
func WithTimeout(d time.Duration) Option {
	return optFunc(func(cfg *config) error {
		if d < MinTimeout || d > MaxTimeout {
			return fmt.Errorf("ymodem: timeout %v out of range [%v, %v]", d, MinTimeout, MaxTimeout)
		}
		cfg.timeout = d

		return nil
	})
}

// WithMaxErrors sets the number of consecutive errors after which a transfer is abandoned.
func WithMaxErrors(n int) Option {
	return optFunc(func(cfg *config) error {
		if n < MinMaxErrors || n > MaxMaxErrors {
			return fmt.Errorf("ymodem: max errors %d out of range [%d, %d]", n, MinMaxErrors, MaxMaxErrors)
		}
		cfg.maxErrors = n

		return nil
	})
}

// WithBufferSize sets the capacity of the receive buffer. It is rounded up to a power of two.
func WithBufferSize(n int) Option {
	return optFunc(func(cfg *config) error {
		if n < MinBufferSize || n > MaxBufferSize {
			return fmt.Errorf("ymodem: buffer size %d out of range [%d, %d]", n, MinBufferSize, MaxBufferSize)
		}
		cfg.bufferSize = n

		return nil
	})
}

// WithClock sets the time source used for timeouts.
func WithClock(now func() time.Time) Option {
	return optFunc(func(cfg *config) error {
		if now == nil {
			return fmt.Errorf("ymodem: nil clock")
		}
		cfg.clock = now

		return nil
	})
}

// WithOnComplete sets a function called from the main loop when a transfer ends.
func WithOnComplete(fn func(Result)) Option {
	return optFunc(func(cfg *config) error {
		cfg.onComplete = fn
		return nil
	})
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *config) error {
		if l != nil {
			cfg.logger = l
		}

		return nil
	})
}

package sntp

import (
	"context"
	"io"
	"net"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultAttempts = 5
	DefaultInterval = time.Second
	DefaultTimeout  = 2 * time.Second
)

// Attempt is the outcome of one exchange. Exactly one of Result and Err is
// meaningful.
type Attempt struct {
	N      int
	Result Result
	Err    error
}

func (a Attempt) OK() bool {
	return a.Err == nil
}

// Sampler repeats independent exchanges. Every attempt binds a new
// transport and initializes a new timestamp source. No state carries over
// between attempts and no aggregation is done. Nil constructors fall back to
// UDP with DefaultTimeout and the system clock.
type Sampler struct {
	Server   net.Addr
	Attempts int
	Interval time.Duration

	NewTransport func() (Transport, error)
	NewSource    func() TimestampSource
	Driver       *Driver
}

// NewSampler builds a sampler over UDP and the system clock.
func NewSampler(cfg Config, server net.Addr) *Sampler {
	transportConfig := TransportConfig{
		LocalAddr: cfg.LocalAddr,
		Timeout:   cfg.Timeout,
		TTL:       cfg.TTL,
	}
	return &Sampler{
		Server:   server,
		Attempts: cfg.Attempts,
		Interval: cfg.Interval,
		NewTransport: func() (Transport, error) {
			return ListenUDP(transportConfig)
		},
		NewSource: func() TimestampSource {
			return NewSystemClock()
		},
		Driver: &Driver{Version: cfg.Version},
	}
}

// Run performs the attempts in order, calling report after each one. ctx is
// only consulted between attempts; an exchange in flight is bounded by the
// transport timeout alone. Attempts skipped because ctx ended are not
// reported.
func (s *Sampler) Run(ctx context.Context, report func(Attempt)) []Attempt {
	attempts := s.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}

	results := make([]Attempt, 0, attempts)
	for i := 0; i < attempts; i++ {
		if i > 0 && !sleep(ctx, s.Interval) {
			break
		}
		if ctx.Err() != nil {
			break
		}

		attempt := s.attempt(i + 1)
		if attempt.Err != nil {
			log.Info().Int("attempt", attempt.N).Err(attempt.Err).Msg("exchange failed")
		}
		results = append(results, attempt)
		if report != nil {
			report(attempt)
		}
	}
	return results
}

func (s *Sampler) attempt(n int) Attempt {
	newTransport := s.NewTransport
	if newTransport == nil {
		newTransport = defaultTransport
	}
	transport, err := newTransport()
	if err != nil {
		return Attempt{N: n, Err: err}
	}
	if closer, ok := transport.(io.Closer); ok {
		defer closer.Close()
	}

	driver := s.Driver
	if driver == nil {
		driver = NewDriver()
	}
	var source TimestampSource
	if s.NewSource != nil {
		source = s.NewSource()
	} else {
		source = NewSystemClock()
	}
	result, err := driver.Exchange(transport, source, s.Server)
	return Attempt{N: n, Result: result, Err: err}
}

func defaultTransport() (Transport, error) {
	return ListenUDP(TransportConfig{Timeout: DefaultTimeout})
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

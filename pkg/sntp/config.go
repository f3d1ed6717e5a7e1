package sntp

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AndrewLester/sntpal/internal/ntp"
)

const DefaultServer = "pool.ntp.org:123"

// Config holds everything needed to sample one server.
type Config struct {
	Server    string
	Version   byte
	Attempts  int
	Interval  time.Duration
	Timeout   time.Duration
	LocalAddr string
	TTL       int
}

func DefaultConfig() Config {
	return Config{
		Server:    DefaultServer,
		Version:   ntp.VERSION,
		Attempts:  DefaultAttempts,
		Interval:  DefaultInterval,
		Timeout:   DefaultTimeout,
		LocalAddr: "0.0.0.0:0",
	}
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server) == "" {
		errs = append(errs, errors.New("server is required"))
	}
	if c.Version < ntp.MINVERSION || c.Version > ntp.VERSION {
		errs = append(errs, fmt.Errorf("version must be between %d and %d, got %d", ntp.MINVERSION, ntp.VERSION, c.Version))
	}
	if c.Attempts < 1 {
		errs = append(errs, fmt.Errorf("attempts must be at least 1, got %d", c.Attempts))
	}
	if c.Interval < 0 {
		errs = append(errs, fmt.Errorf("interval must not be negative, got %v", c.Interval))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %v", c.Timeout))
	}
	if c.TTL < 0 || c.TTL > 255 {
		errs = append(errs, fmt.Errorf("ttl must be between 0 and 255, got %d", c.TTL))
	}
	if len(errs) > 0 {
		return fmt.Errorf("sntp: invalid config: %w", errors.Join(errs...))
	}
	return nil
}

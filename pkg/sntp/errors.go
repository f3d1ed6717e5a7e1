package sntp

import (
	"errors"
	"fmt"
	"net"
)

var (
	ErrClockUnavailable = errors.New("sntp: local clock unavailable")
	ErrNetwork          = errors.New("sntp: network error")
	ErrTimeout          = errors.New("sntp: timed out waiting for reply")
	ErrInvalidResponse  = errors.New("sntp: invalid response")
)

// NetworkError is a failed send or receive. It matches ErrNetwork, and
// ErrTimeout as well when the receive deadline expired.
type NetworkError struct {
	Op   string // "send" or "receive"
	Addr net.Addr
	Err  error
}

func (e *NetworkError) Error() string {
	if e.Addr != nil {
		return fmt.Sprintf("sntp: %s %s: %v", e.Op, e.Addr, e.Err)
	}
	return fmt.Sprintf("sntp: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

func (e *NetworkError) Timeout() bool {
	return errors.Is(e.Err, ErrTimeout)
}

// ExchangeError records the state an exchange was in when it failed.
type ExchangeError struct {
	State State
	Err   error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("sntp: exchange failed in %s: %v", e.State, e.Err)
}

func (e *ExchangeError) Unwrap() error { return e.Err }

func clockUnavailable(err error) error {
	if errors.Is(err, ErrClockUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrClockUnavailable, err)
}

func invalidResponse(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidResponse, err)
}

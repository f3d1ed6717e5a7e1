package sntp

import (
	"fmt"

	"github.com/AndrewLester/sntpal/internal/ntp"
	"golang.org/x/sys/unix"
)

// TimestampSource captures wall-clock time referenced to the NTP epoch.
// Init must be called before the accessors and refreshes the capture each
// time it runs. An Init error means the clock could not be read; the driver
// reports it as ErrClockUnavailable.
type TimestampSource interface {
	Init() error
	TimestampSec() uint64
	TimestampSubsecMicros() uint32
}

// SystemClock reads CLOCK_REALTIME.
type SystemClock struct {
	sec    uint64
	micros uint32

	gettime func(ts *unix.Timespec) error
}

func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

func (c *SystemClock) Init() error {
	gettime := c.gettime
	if gettime == nil {
		gettime = func(ts *unix.Timespec) error {
			return unix.ClockGettime(unix.CLOCK_REALTIME, ts)
		}
	}

	var now unix.Timespec
	if err := gettime(&now); err != nil {
		return fmt.Errorf("%w: %w", ErrClockUnavailable, err)
	}
	sec := int64(now.Sec) + ntp.UnixEraOffset
	if sec < 0 || now.Nsec < 0 {
		return fmt.Errorf("%w: realtime clock reads before 1900", ErrClockUnavailable)
	}

	c.sec = uint64(sec)
	c.micros = uint32(now.Nsec / 1e3)
	return nil
}

func (c *SystemClock) TimestampSec() uint64 {
	return c.sec
}

func (c *SystemClock) TimestampSubsecMicros() uint32 {
	return c.micros
}

func timestampOf(source TimestampSource) ntp.Timestamp {
	return ntp.TimestampFromMicros(source.TimestampSec()*1e6 + uint64(source.TimestampSubsecMicros()))
}

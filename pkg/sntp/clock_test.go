package sntp

import (
	"errors"
	"testing"
	"time"

	"github.com/AndrewLester/sntpal/internal/ntp"
	"golang.org/x/sys/unix"
)

func TestSystemClockTracksRealtime(t *testing.T) {
	clock := NewSystemClock()
	before := time.Now()
	if err := clock.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	after := time.Now()

	got := timestampOf(clock).Time()
	if got.Before(before.Add(-time.Millisecond)) || got.After(after.Add(time.Millisecond)) {
		t.Fatalf("clock read %v outside [%v, %v]", got, before, after)
	}
	if clock.TimestampSubsecMicros() > 999_999 {
		t.Fatalf("subsecond micros out of range: %d", clock.TimestampSubsecMicros())
	}
	if clock.TimestampSec() < uint64(ntp.UnixEraOffset) {
		t.Fatalf("seconds not referenced to the NTP epoch: %d", clock.TimestampSec())
	}
}

func TestSystemClockInitRefreshes(t *testing.T) {
	reads := []unix.Timespec{
		{Sec: 1_700_000_000, Nsec: 250_000_000},
		{Sec: 1_700_000_001, Nsec: 999_999_999},
	}
	clock := &SystemClock{gettime: func(ts *unix.Timespec) error {
		*ts, reads = reads[0], reads[1:]
		return nil
	}}

	if err := clock.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if clock.TimestampSec() != 1_700_000_000+uint64(ntp.UnixEraOffset) || clock.TimestampSubsecMicros() != 250_000 {
		t.Fatalf("first capture = %d.%06d", clock.TimestampSec(), clock.TimestampSubsecMicros())
	}
	if err := clock.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if clock.TimestampSec() != 1_700_000_001+uint64(ntp.UnixEraOffset) || clock.TimestampSubsecMicros() != 999_999 {
		t.Fatalf("second capture = %d.%06d", clock.TimestampSec(), clock.TimestampSubsecMicros())
	}
}

func TestSystemClockUnavailable(t *testing.T) {
	failing := &SystemClock{gettime: func(ts *unix.Timespec) error {
		return unix.EINVAL
	}}
	if err := failing.Init(); !errors.Is(err, ErrClockUnavailable) {
		t.Fatalf("expected ErrClockUnavailable, got %v", err)
	}

	ancient := &SystemClock{gettime: func(ts *unix.Timespec) error {
		ts.Sec = -2_208_988_801
		return nil
	}}
	if err := ancient.Init(); !errors.Is(err, ErrClockUnavailable) {
		t.Fatalf("expected ErrClockUnavailable for pre-1900 clock, got %v", err)
	}
}

func TestExchangeSurfacesClockUnavailable(t *testing.T) {
	clock := &SystemClock{gettime: func(ts *unix.Timespec) error {
		return unix.EINVAL
	}}
	_, err := NewDriver().Exchange(&stubTransport{reply: echoReply(0, 0)}, clock, testServer)
	if !errors.Is(err, ErrClockUnavailable) {
		t.Fatalf("expected ErrClockUnavailable, got %v", err)
	}
}

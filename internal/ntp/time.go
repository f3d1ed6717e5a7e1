package ntp

import (
	"time"
)

const (
	EraLength     int64   = 4_294_967_296 // 2^32
	UnixEraOffset int64   = 2_208_988_800 // 1970 - 1900 in seconds
	ShortLength   float64 = 65536         // 2^16

	microsPerSecond = 1_000_000
	nanosPerSecond  = 1_000_000_000
)

// Timestamp is the 64-bit NTP fixed point format: seconds since 1900-01-01
// in the high 32 bits, fraction of a second (units of 2^-32 s) in the low 32.
type Timestamp uint64

func NewTimestamp(seconds, fraction uint32) Timestamp {
	return Timestamp(uint64(seconds)<<32 | uint64(fraction))
}

func (t Timestamp) Seconds() uint32 {
	return uint32(t >> 32)
}

func (t Timestamp) Fraction() uint32 {
	return uint32(t)
}

// TimestampFromMicros builds a timestamp from microseconds since the NTP
// epoch. Seconds beyond the current era wrap.
func TimestampFromMicros(micros uint64) Timestamp {
	sec := micros / microsPerSecond
	rem := micros % microsPerSecond
	return NewTimestamp(uint32(sec), fractionFromMicros(uint32(rem)))
}

// Micros returns microseconds since the NTP epoch of the timestamp's era,
// rounding the fraction to the nearest microsecond.
func (t Timestamp) Micros() uint64 {
	return uint64(t.Seconds())*microsPerSecond + uint64(microsFromFraction(t.Fraction()))
}

func fractionFromMicros(micros uint32) uint32 {
	return uint32((uint64(micros)<<32 + microsPerSecond/2) / microsPerSecond)
}

// microsFromFraction may return 1_000_000 for fractions within half a
// microsecond of the next second.
func microsFromFraction(fraction uint32) uint32 {
	return uint32((uint64(fraction)*microsPerSecond + 1<<31) >> 32)
}

func TimestampFromTime(t time.Time) Timestamp {
	sec := t.Unix() + UnixEraOffset
	frac := (uint64(t.Nanosecond()) << 32) / nanosPerSecond
	return NewTimestamp(uint32(sec), uint32(frac))
}

// Time interprets the timestamp in era 0 (1900 to 2036) or, for seconds
// values that would land before 1968, in era 1.
func (t Timestamp) Time() time.Time {
	sec := int64(t.Seconds())
	if sec < EraLength/2 {
		sec += EraLength
	}
	nsec := (int64(t.Fraction()) * nanosPerSecond) >> 32
	return time.Unix(sec-UnixEraOffset, nsec)
}

// Sub returns t-u as signed fixed point. The subtraction is modular so it
// stays correct across an era rollover when the two stamps are within 68
// years of each other.
func (t Timestamp) Sub(u Timestamp) Interval {
	return Interval(int64(uint64(t) - uint64(u)))
}

// Interval is a signed difference of two timestamps in 2^-32 s units.
type Interval int64

// Duration truncates the interval to nanoseconds.
func (i Interval) Duration() time.Duration {
	sec := int64(i) >> 32
	frac := int64(i) & (EraLength - 1)
	return time.Duration(sec*nanosPerSecond + (frac*nanosPerSecond)>>32)
}

func (i Interval) Seconds() float64 {
	return float64(i) / float64(EraLength)
}

func (t Timestamp) Add(i Interval) Timestamp {
	return Timestamp(uint64(t) + uint64(i))
}

func ShortToDuration(s ShortEncoded) time.Duration {
	sec := int64(s >> 16)
	frac := int64(s & 0xffff)
	return time.Duration(sec*nanosPerSecond + (frac*nanosPerSecond)>>16)
}

func Log2ToDuration(a int8) time.Duration {
	exp := int(a)
	switch {
	case exp <= -30:
		return 0
	case exp < 0:
		return time.Duration(nanosPerSecond >> -exp)
	case exp > 33:
		return time.Duration(1<<63 - 1)
	default:
		return time.Duration(nanosPerSecond << exp)
	}
}

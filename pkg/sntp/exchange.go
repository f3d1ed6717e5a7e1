package sntp

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/AndrewLester/sntpal/internal/ntp"
	"github.com/rs/zerolog/log"
)

type State int

const (
	StateIdle State = iota
	StateRequestSent
	StateAwaitingReply
	StateValidated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequestSent:
		return "request-sent"
	case StateAwaitingReply:
		return "awaiting-reply"
	case StateValidated:
		return "validated"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var errOriginMismatch = errors.New("origin timestamp does not match request")

// Result is one validated sample. Offset is positive when the server clock is
// ahead of the local clock.
type Result struct {
	Time           ntp.Timestamp // local arrival time corrected by Offset
	Offset         time.Duration
	RoundTripDelay time.Duration

	Transmit ntp.Timestamp // local transmit time, echoed back as the origin

	Stratum     uint8
	Precision   int8
	Poll        int8
	Leap        ntp.LeapIndicator
	ReferenceID uint32
	RootDelay   time.Duration
	RootDisp    time.Duration
}

func (r Result) Seconds() uint32 {
	return r.Time.Seconds()
}

func (r Result) SecFraction() uint32 {
	return r.Time.Fraction()
}

// Driver runs single request/response exchanges.
type Driver struct {
	Version byte
}

func NewDriver() *Driver {
	return &Driver{Version: ntp.VERSION}
}

// exchangeContext lives for one Exchange call.
type exchangeContext struct {
	source TimestampSource
	xmt    ntp.Timestamp
	state  State
}

func (ex *exchangeContext) transition(next State) {
	log.Trace().Str("from", ex.state.String()).Str("to", next.String()).Msg("exchange state")
	ex.state = next
}

func (ex *exchangeContext) fail(err error) error {
	failedIn := ex.state
	ex.transition(StateFailed)
	return &ExchangeError{State: failedIn, Err: err}
}

// Exchange performs exactly one send and one receive against server. The
// transport is borrowed for the duration of the call.
//
// The four timestamps are differenced in signed 64-bit NTP fixed point and
// the results truncated to nanoseconds. The source only supplies microsecond
// resolution, so offset and delay are good to about a microsecond.
func (d *Driver) Exchange(transport Transport, source TimestampSource, server net.Addr) (Result, error) {
	ex := &exchangeContext{source: source, state: StateIdle}

	if err := ex.source.Init(); err != nil {
		return Result{}, ex.fail(clockUnavailable(err))
	}
	ex.xmt = timestampOf(ex.source)

	request := ntp.EncodeRequest(d.version(), ex.xmt)
	if _, err := transport.Send(request, server); err != nil {
		return Result{}, ex.fail(asNetworkError("send", server, err))
	}
	ex.transition(StateRequestSent)

	buf := make([]byte, ntp.PacketSize+1)
	ex.transition(StateAwaitingReply)
	n, from, err := transport.Receive(buf)
	if err != nil {
		return Result{}, ex.fail(asNetworkError("receive", nil, err))
	}
	if err := ex.source.Init(); err != nil {
		return Result{}, ex.fail(clockUnavailable(err))
	}
	dst := timestampOf(ex.source)

	if !sameAddr(from, server) {
		return Result{}, ex.fail(invalidResponse(fmt.Errorf("reply from %v, expected %v", from, server)))
	}
	packet, err := ntp.DecodeResponse(buf[:n])
	if err != nil {
		return Result{}, ex.fail(invalidResponse(err))
	}
	if packet.Org != ex.xmt {
		return Result{}, ex.fail(invalidResponse(errOriginMismatch))
	}

	result := computeResult(ex.xmt, packet, dst)
	ex.transition(StateValidated)
	log.Debug().
		Stringer("server", server).
		Dur("offset", result.Offset).
		Dur("delay", result.RoundTripDelay).
		Uint8("stratum", result.Stratum).
		Msg("exchange validated")
	return result, nil
}

func (d *Driver) version() byte {
	if d == nil || d.Version == 0 {
		return ntp.VERSION
	}
	return d.Version
}

// computeResult applies the on-wire formulas with T1 = org, T2 = rec,
// T3 = xmt and T4 = dst.
func computeResult(org ntp.Timestamp, packet *ntp.Packet, dst ntp.Timestamp) Result {
	offset := (packet.Rec.Sub(org) + packet.Xmt.Sub(dst)) / 2
	delay := dst.Sub(org) - packet.Xmt.Sub(packet.Rec)

	return Result{
		Time:           dst.Add(offset),
		Offset:         offset.Duration(),
		RoundTripDelay: delay.Duration(),
		Transmit:       org,
		Stratum:        packet.Stratum,
		Precision:      packet.Precision,
		Poll:           packet.Poll,
		Leap:           packet.Leap,
		ReferenceID:    packet.Refid,
		RootDelay:      ntp.ShortToDuration(packet.Rootdelay),
		RootDisp:       ntp.ShortToDuration(packet.Rootdisp),
	}
}

func asNetworkError(op string, addr net.Addr, err error) error {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return err
	}
	return &NetworkError{Op: op, Addr: addr, Err: err}
}

func sameAddr(a, b net.Addr) bool {
	if a == nil || b == nil {
		return false
	}
	ua, aok := a.(*net.UDPAddr)
	ub, bok := b.(*net.UDPAddr)
	if aok && bok {
		return ua.Port == ub.Port && ua.IP.Equal(ub.IP)
	}
	return a.Network() == b.Network() && a.String() == b.String()
}

package sntp

import (
	"errors"
	"net"

	"github.com/AndrewLester/sntpal/internal/ntp"
)

var testServer = &net.UDPAddr{IP: net.IPv4(192, 0, 2, 10), Port: 123}

// stepClock advances by step microseconds on every Init.
type stepClock struct {
	now  *uint64
	step uint64
	cur  uint64
	err  error
}

func newStepClock(startMicros, step uint64) *stepClock {
	now := startMicros - step
	return &stepClock{now: &now, step: step}
}

func (c *stepClock) Init() error {
	if c.err != nil {
		return c.err
	}
	*c.now += c.step
	c.cur = *c.now
	return nil
}

func (c *stepClock) TimestampSec() uint64 {
	return c.cur / 1e6
}

func (c *stepClock) TimestampSubsecMicros() uint32 {
	return uint32(c.cur % 1e6)
}

// seqClock returns the given instants in order.
type seqClock struct {
	instants []uint64
	cur      uint64
}

func (c *seqClock) Init() error {
	if len(c.instants) == 0 {
		return errors.New("seqClock exhausted")
	}
	c.cur, c.instants = c.instants[0], c.instants[1:]
	return nil
}

func (c *seqClock) TimestampSec() uint64          { return c.cur / 1e6 }
func (c *seqClock) TimestampSubsecMicros() uint32 { return uint32(c.cur % 1e6) }

// stubTransport answers every request with reply(request).
type stubTransport struct {
	reply   func(req *ntp.Packet) []byte
	from    net.Addr
	sendErr error
	recvErr error

	sent    [][]byte
	pending []byte
	closed  bool
}

func (s *stubTransport) Send(buf []byte, dst net.Addr) (int, error) {
	if s.sendErr != nil {
		return 0, s.sendErr
	}
	s.sent = append(s.sent, append([]byte(nil), buf...))
	req, err := ntp.Decode(buf)
	if err != nil {
		return 0, err
	}
	s.pending = s.reply(req)
	return len(buf), nil
}

func (s *stubTransport) Receive(buf []byte) (int, net.Addr, error) {
	if s.recvErr != nil {
		return 0, nil, s.recvErr
	}
	from := s.from
	if from == nil {
		from = testServer
	}
	n := copy(buf, s.pending)
	return n, from, nil
}

func (s *stubTransport) Close() error {
	s.closed = true
	return nil
}

// echoReply is a well-behaved stratum 2 server whose receive and transmit
// stamps are fixed offsets from the request's transmit stamp.
func echoReply(recDelta, xmtDelta ntp.Interval) func(req *ntp.Packet) []byte {
	return func(req *ntp.Packet) []byte {
		p := ntp.Packet{Version: req.Version, Mode: ntp.SERVER}
		p.Stratum = 2
		p.Precision = -20
		p.Refid = 0x47505300
		p.Org = req.Xmt
		p.Rec = req.Xmt.Add(recDelta)
		p.Xmt = req.Xmt.Add(xmtDelta)
		return p.Encode()
	}
}

func micros(sec, us uint64) uint64 {
	return sec*1e6 + us
}

func interval(us int64) ntp.Interval {
	return ntp.Interval(us * ntp.EraLength / 1e6)
}

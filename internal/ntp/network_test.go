package ntp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func serverReply(mutate func(p *Packet)) []byte {
	p := Packet{Leap: LeapNone, Version: VERSION, Mode: SERVER}
	p.Stratum = 2
	p.Poll = 6
	p.Precision = -20
	p.Rootdelay = 0x00000800
	p.Rootdisp = 0x00000400
	p.Refid = 0xa29fc801
	p.Reftime = NewTimestamp(3_900_000_000, 0)
	p.Org = NewTimestamp(3_900_000_100, 1)
	p.Rec = NewTimestamp(3_900_000_100, 2)
	p.Xmt = NewTimestamp(3_900_000_100, 3)
	if mutate != nil {
		mutate(&p)
	}
	return p.Encode()
}

func TestEncodeRequestLayout(t *testing.T) {
	xmt := NewTimestamp(0xdeadbeef, 0x01020304)
	buf := EncodeRequest(VERSION, xmt)
	if len(buf) != PacketSize {
		t.Fatalf("request length = %d, want %d", len(buf), PacketSize)
	}
	if buf[0] != 0x23 {
		t.Fatalf("li/vn/mode byte = %#x, want 0x23", buf[0])
	}
	if !bytes.Equal(buf[1:40], make([]byte, 39)) {
		t.Fatalf("reserved fields not zeroed: %x", buf[1:40])
	}
	if got := binary.BigEndian.Uint32(buf[40:44]); got != 0xdeadbeef {
		t.Fatalf("xmt seconds = %#x", got)
	}
	if got := binary.BigEndian.Uint32(buf[44:48]); got != 0x01020304 {
		t.Fatalf("xmt fraction = %#x", got)
	}
}

func TestDecodeResponseFields(t *testing.T) {
	p, err := DecodeResponse(serverReply(nil))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Mode != SERVER || p.Version != VERSION || p.Leap != LeapNone {
		t.Fatalf("header mismatch: %+v", p)
	}
	if p.Stratum != 2 || p.Poll != 6 || p.Precision != -20 {
		t.Fatalf("stratum/poll/precision mismatch: %+v", p.FieldsEncoded)
	}
	if p.Refid != 0xa29fc801 || p.Rootdelay != 0x800 || p.Rootdisp != 0x400 {
		t.Fatalf("root fields mismatch: %+v", p.FieldsEncoded)
	}
	if p.Org != NewTimestamp(3_900_000_100, 1) || p.Rec.Fraction() != 2 || p.Xmt.Fraction() != 3 {
		t.Fatalf("timestamps mismatch: %+v", p.FieldsEncoded)
	}
}

func TestDecodeRejectsWrongLength(t *testing.T) {
	reply := serverReply(nil)
	for _, n := range []int{0, 1, 47, 49, 68} {
		buf := make([]byte, n)
		copy(buf, reply)
		if _, err := DecodeResponse(buf); !errors.Is(err, ErrInvalidLength) {
			t.Fatalf("length %d: expected ErrInvalidLength, got %v", n, err)
		}
	}
}

func TestDecodeLengthCheckedFirst(t *testing.T) {
	// A short buffer whose first byte also carries a bad mode must fail on length.
	if _, err := DecodeResponse([]byte{0x03}); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength, got %v", err)
	}
}

func TestDecodeRejectsNonServerMode(t *testing.T) {
	for _, mode := range []Mode{RESERVED, SYMMETRIC_ACTIVE, SYMMETRIC_PASSIVE, CLIENT, BROADCAST_SERVER, BROADCAST_CLIENT, RESERVED_PRIVATE_USE} {
		buf := serverReply(func(p *Packet) { p.Mode = mode })
		if _, err := DecodeResponse(buf); !errors.Is(err, ErrInvalidMode) {
			t.Fatalf("mode %s: expected ErrInvalidMode, got %v", mode, err)
		}
	}
}

func TestDecodeRejectsStratumOutOfRange(t *testing.T) {
	for stratum := 16; stratum <= 255; stratum++ {
		buf := serverReply(func(p *Packet) { p.Stratum = byte(stratum) })
		if _, err := DecodeResponse(buf); !errors.Is(err, ErrInvalidStratum) {
			t.Fatalf("stratum %d: expected ErrInvalidStratum, got %v", stratum, err)
		}
	}
	for stratum := 1; stratum <= 15; stratum++ {
		buf := serverReply(func(p *Packet) { p.Stratum = byte(stratum) })
		if _, err := DecodeResponse(buf); err != nil {
			t.Fatalf("stratum %d: unexpected error %v", stratum, err)
		}
	}
}

func TestDecodeKissOfDeath(t *testing.T) {
	buf := serverReply(func(p *Packet) {
		p.Stratum = 0
		p.Refid = binary.BigEndian.Uint32([]byte("RATE"))
	})
	_, err := DecodeResponse(buf)
	var kiss *KissError
	if !errors.As(err, &kiss) {
		t.Fatalf("expected KissError, got %v", err)
	}
	if kiss.Code != "RATE" {
		t.Fatalf("kiss code = %q, want RATE", kiss.Code)
	}
	if !errors.Is(err, ErrInvalidStratum) {
		t.Fatalf("kiss error should match ErrInvalidStratum")
	}
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	for _, version := range []byte{0, 5, 6, 7} {
		buf := serverReply(func(p *Packet) { p.Version = version })
		if _, err := DecodeResponse(buf); !errors.Is(err, ErrUnsupportedVersion) {
			t.Fatalf("version %d: expected ErrUnsupportedVersion, got %v", version, err)
		}
	}
	buf := serverReply(func(p *Packet) { p.Version = 3 })
	if _, err := DecodeResponse(buf); err != nil {
		t.Fatalf("version 3 should be accepted: %v", err)
	}
}

func TestKissCodeUnprintable(t *testing.T) {
	p := Packet{}
	p.Refid = 0xc0a80001
	if got := p.KissCode(); got != "" {
		t.Fatalf("kiss code = %q, want empty", got)
	}
}

package ntp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	ErrInvalidLength      = errors.New("ntp: invalid packet length")
	ErrInvalidMode        = errors.New("ntp: unexpected packet mode")
	ErrInvalidStratum     = errors.New("ntp: stratum out of range")
	ErrUnsupportedVersion = errors.New("ntp: unsupported version")
)

// KissError is a stratum 0 reply. Code is the ASCII kiss code carried in the
// reference identifier, e.g. "RATE" or "DENY".
type KissError struct {
	Code string
}

func (e *KissError) Error() string {
	return fmt.Sprintf("ntp: kiss-of-death %q", e.Code)
}

func (e *KissError) Is(target error) bool {
	return target == ErrInvalidStratum
}

type Packet struct {
	Leap    LeapIndicator /* leap indicator */
	Version byte          /* version number */
	Mode    Mode          /* mode */
	FieldsEncoded
}

type FieldsEncoded struct {
	Stratum   byte         /* stratum */
	Poll      int8         /* poll interval */
	Precision int8         /* precision */
	Rootdelay ShortEncoded /* root delay */
	Rootdisp  ShortEncoded /* root dispersion */
	Refid     ShortEncoded /* reference ID */
	Reftime   Timestamp    /* reference time */
	Org       Timestamp    /* origin timestamp */
	Rec       Timestamp    /* receive timestamp */
	Xmt       Timestamp    /* transmit timestamp */
}

func (p *Packet) Encode() []byte {
	firstByte := (byte(p.Leap&0b11) << 6) | ((p.Version & 0b111) << 3) | byte(p.Mode&0b111)

	buffer := bytes.NewBuffer(make([]byte, 0, PacketSize))
	buffer.WriteByte(firstByte)
	// Writes into a bytes.Buffer from a fixed-size struct cannot fail.
	_ = binary.Write(buffer, binary.BigEndian, &p.FieldsEncoded)
	return buffer.Bytes()
}

// Decode parses a 48 byte packet without checking header semantics.
func Decode(encoded []byte) (*Packet, error) {
	if len(encoded) != PacketSize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidLength, len(encoded), PacketSize)
	}

	reader := bytes.NewReader(encoded)
	firstByte, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}

	fields := FieldsEncoded{}
	if err := binary.Read(reader, binary.BigEndian, &fields); err != nil {
		return nil, err
	}

	return &Packet{
		Leap:          LeapIndicator(firstByte >> 6),
		Version:       (firstByte >> 3) & 0b111,
		Mode:          Mode(firstByte & 0b111),
		FieldsEncoded: fields,
	}, nil
}

// EncodeRequest builds a client request. Only the transmit timestamp is set;
// every other field is zero.
func EncodeRequest(version byte, xmt Timestamp) []byte {
	packet := Packet{
		Leap:    LeapNone,
		Version: version,
		Mode:    CLIENT,
	}
	packet.Xmt = xmt
	return packet.Encode()
}

// DecodeResponse parses a server reply and rejects packets whose header could
// not belong to a usable time reply. Correlation with the request is left to
// the caller.
func DecodeResponse(encoded []byte) (*Packet, error) {
	packet, err := Decode(encoded)
	if err != nil {
		return nil, err
	}

	if packet.Version < MINVERSION || packet.Version > VERSION {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, packet.Version)
	}
	if packet.Mode != SERVER {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMode, packet.Mode)
	}
	if packet.Stratum == 0 {
		return nil, &KissError{Code: packet.KissCode()}
	}
	if packet.Stratum >= MAXSTRAT {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStratum, packet.Stratum)
	}

	return packet, nil
}

// KissCode renders the reference identifier as four ASCII characters, dropping
// trailing NULs and anything unprintable.
func (p *Packet) KissCode() string {
	code := make([]byte, 4)
	binary.BigEndian.PutUint32(code, p.Refid)
	code = bytes.TrimRight(code, "\x00")
	for _, c := range code {
		if c < 0x20 || c > 0x7e {
			return ""
		}
	}
	return string(code)
}

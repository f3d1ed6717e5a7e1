package sntp

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/AndrewLester/sntpal/internal/ntp"
	"golang.org/x/net/ipv4"
)

// Transport sends and receives single datagrams. Receive blocks until a
// datagram arrives or the transport's timeout elapses, in which case it
// returns a *NetworkError matching ErrTimeout. Implementations do not retry.
type Transport interface {
	Send(buf []byte, dst net.Addr) (int, error)
	Receive(buf []byte) (int, net.Addr, error)
}

type UDPTransport struct {
	conn    *net.UDPConn
	timeout time.Duration
}

type TransportConfig struct {
	LocalAddr string        // bind address, "0.0.0.0:0" when empty
	Timeout   time.Duration // receive timeout
	TTL       int           // IPv4 TTL for outgoing packets, system default when 0
}

func ListenUDP(cfg TransportConfig) (*UDPTransport, error) {
	local := cfg.LocalAddr
	if local == "" {
		local = "0.0.0.0:0"
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("sntp: receive timeout must be positive, got %v", cfg.Timeout)
	}

	addr, err := net.ResolveUDPAddr("udp", local)
	if err != nil {
		return nil, &NetworkError{Op: "bind", Err: err}
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, &NetworkError{Op: "bind", Addr: addr, Err: err}
	}

	if cfg.TTL > 0 {
		if err := ipv4.NewPacketConn(conn).SetTTL(cfg.TTL); err != nil {
			conn.Close()
			return nil, &NetworkError{Op: "bind", Addr: addr, Err: fmt.Errorf("set ttl %d: %w", cfg.TTL, err)}
		}
	}

	return &UDPTransport{conn: conn, timeout: cfg.Timeout}, nil
}

func (t *UDPTransport) Send(buf []byte, dst net.Addr) (int, error) {
	n, err := t.conn.WriteTo(buf, dst)
	if err != nil {
		return n, &NetworkError{Op: "send", Addr: dst, Err: err}
	}
	return n, nil
}

func (t *UDPTransport) Receive(buf []byte) (int, net.Addr, error) {
	if err := t.conn.SetReadDeadline(time.Now().Add(t.timeout)); err != nil {
		return 0, nil, &NetworkError{Op: "receive", Err: err}
	}
	n, addr, err := t.conn.ReadFrom(buf)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return 0, nil, &NetworkError{Op: "receive", Err: fmt.Errorf("%w after %v", ErrTimeout, t.timeout)}
		}
		return 0, nil, &NetworkError{Op: "receive", Err: err}
	}
	return n, addr, nil
}

func (t *UDPTransport) LocalAddr() net.Addr {
	return t.conn.LocalAddr()
}

func (t *UDPTransport) Close() error {
	return t.conn.Close()
}

// ResolveServer resolves host or host:port, defaulting to the NTP port.
func ResolveServer(address string) (*net.UDPAddr, error) {
	if _, _, err := net.SplitHostPort(address); err != nil {
		address = net.JoinHostPort(address, ntp.Port)
	}
	addr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, fmt.Errorf("sntp: resolve %q: %w", address, err)
	}
	return addr, nil
}

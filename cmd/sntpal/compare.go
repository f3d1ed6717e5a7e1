package main

import (
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/AndrewLester/sntpal/pkg/sntp"
	"github.com/beevik/ntp"
)

// compareWithReference takes one sample with github.com/beevik/ntp so the
// output can be checked against an independent implementation.
func compareWithReference(cfg sntp.Config, w io.Writer) error {
	response, err := ntp.QueryWithOptions(cfg.Server, referenceOptions(cfg))
	if err != nil {
		return fmt.Errorf("reference query: %w", err)
	}
	if err := response.Validate(); err != nil {
		return fmt.Errorf("reference response: %w", err)
	}

	fmt.Fprintln(w, "reference", signedSeconds(response.ClockOffset), "+/-", seconds(response.RTT),
		cfg.Server, "stratum", response.Stratum)
	return nil
}

func referenceOptions(cfg sntp.Config) ntp.QueryOptions {
	return ntp.QueryOptions{
		Timeout:      cfg.Timeout,
		Version:      int(cfg.Version),
		TTL:          cfg.TTL,
		LocalAddress: localIP(cfg.LocalAddr),
	}
}

// localIP strips the port from a bind address; beevik/ntp picks its own.
func localIP(addr string) string {
	addr = strings.TrimSpace(addr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

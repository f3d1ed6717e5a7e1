package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/AndrewLester/sntpal/internal/ntp"
	"github.com/AndrewLester/sntpal/pkg/sntp"
)

// formatAttempt renders one sample the way ntpdate-style tools do:
// offset +/- delay, both in seconds.
func formatAttempt(a sntp.Attempt, server string) string {
	if !a.OK() {
		return fmt.Sprintf("#%d %s: %v", a.N, server, a.Err)
	}
	r := a.Result
	line := fmt.Sprint("#", a.N, " ", signedSeconds(r.Offset), " +/- ", seconds(r.RoundTripDelay),
		" ", server, " stratum ", r.Stratum, " ", r.Time.Time().UTC().Format(time.RFC3339Nano))
	if r.Leap == ntp.LeapNotInSync {
		line += " (server unsynchronized)"
	}
	return line
}

func signedSeconds(d time.Duration) string {
	s := seconds(d)
	if d > 0 {
		s = "+" + s
	}
	return s
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'G', 5, 64)
}

func runPlain(ctx context.Context, sampler *sntp.Sampler, server string, w io.Writer, record func(sntp.Attempt)) []sntp.Attempt {
	return sampler.Run(ctx, func(a sntp.Attempt) {
		record(a)
		fmt.Fprintln(w, formatAttempt(a, server))
	})
}

func succeeded(attempts []sntp.Attempt) int {
	n := 0
	for _, a := range attempts {
		if a.OK() {
			n++
		}
	}
	return n
}

package observability

import (
	"errors"
	"sync"

	"github.com/AndrewLester/sntpal/pkg/sntp"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeOK              = "ok"
	OutcomeTimeout         = "timeout"
	OutcomeNetwork         = "network"
	OutcomeInvalidResponse = "invalid_response"
	OutcomeClock           = "clock"
	OutcomeOther           = "other"
)

var (
	registerOnce sync.Once

	exchanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sntpal",
			Subsystem: "exchange",
			Name:      "total",
			Help:      "SNTP exchanges by outcome.",
		},
		[]string{"server", "outcome"},
	)
	offset = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "sntpal",
			Subsystem: "exchange",
			Name:      "offset_seconds",
			Help:      "Clock offset from the last validated exchange, positive when the server is ahead.",
		},
		[]string{"server"},
	)
	delay = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sntpal",
			Subsystem: "exchange",
			Name:      "delay_seconds",
			Help:      "Round-trip delay of validated exchanges.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
		[]string{"server"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(exchanges, offset, delay)
	})
}

func RecordAttempt(server string, attempt sntp.Attempt) {
	RegisterMetrics()
	outcome := Outcome(attempt.Err)
	exchanges.WithLabelValues(server, outcome).Inc()
	if outcome != OutcomeOK {
		return
	}
	offset.WithLabelValues(server).Set(attempt.Result.Offset.Seconds())
	delay.WithLabelValues(server).Observe(attempt.Result.RoundTripDelay.Seconds())
}

func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, sntp.ErrTimeout):
		return OutcomeTimeout
	case errors.Is(err, sntp.ErrNetwork):
		return OutcomeNetwork
	case errors.Is(err, sntp.ErrInvalidResponse):
		return OutcomeInvalidResponse
	case errors.Is(err, sntp.ErrClockUnavailable):
		return OutcomeClock
	default:
		return OutcomeOther
	}
}

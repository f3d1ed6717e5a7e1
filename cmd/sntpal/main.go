package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/AndrewLester/sntpal/internal/logging"
	"github.com/AndrewLester/sntpal/internal/observability"
	"github.com/AndrewLester/sntpal/pkg/sntp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func main() {
	logging.ConfigureRuntime()

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}
	cfg, err := buildConfig(opts)
	if err != nil {
		fail(err)
	}

	server, err := sntp.ResolveServer(cfg.Server)
	if err != nil {
		fail(err)
	}
	log.Info().Str("server", cfg.Server).Stringer("addr", server).Int("attempts", cfg.Attempts).Msg("sampling")

	if cfg.MetricsAddr != "" {
		serveMetrics(cfg.MetricsAddr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sampler := sntp.NewSampler(cfg.Config, server)
	record := func(a sntp.Attempt) {
		observability.RecordAttempt(server.String(), a)
	}

	var attempts []sntp.Attempt
	if opts.plain {
		attempts = runPlain(ctx, sampler, cfg.Server, os.Stdout, record)
	} else {
		attempts, err = runQueryUI(ctx, sampler, cfg.Server, record)
		if err != nil {
			fail(err)
		}
	}

	if cfg.Compare {
		if err := compareWithReference(cfg.Config, os.Stdout); err != nil {
			log.Warn().Err(err).Msg("reference comparison failed")
		}
	}

	if succeeded(attempts) == 0 {
		fail(fmt.Errorf("no valid reply from %s in %d attempts", cfg.Server, len(attempts)))
	}
}

func serveMetrics(addr string) {
	observability.RegisterMetrics()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("metrics listener stopped")
		}
	}()
	log.Info().Str("addr", addr).Msg("serving metrics")
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

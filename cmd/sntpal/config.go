package main

import (
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/AndrewLester/sntpal/pkg/sntp"
	"github.com/BurntSushi/toml"
)

// sntpal config.toml key mapping to sampler settings.
type fileConfig struct {
	Server      string `toml:"server"`
	Version     int    `toml:"version"`
	Attempts    int    `toml:"attempts"`
	Interval    string `toml:"interval"`
	Timeout     string `toml:"timeout"`
	LocalAddr   string `toml:"local_addr"`
	TTL         int    `toml:"ttl"`
	MetricsAddr string `toml:"metrics_addr"`
	Compare     bool   `toml:"compare"`
}

// appConfig is the sampler configuration plus the settings only the command
// uses.
type appConfig struct {
	sntp.Config

	MetricsAddr string
	Compare     bool
}

func defaultAppConfig() appConfig {
	return appConfig{Config: sntp.DefaultConfig()}
}

// loadConfig overlays the keys present in path onto the defaults.
func loadConfig(path string) (appConfig, error) {
	cfg := defaultAppConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return appConfig{}, fmt.Errorf("load sntpal config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		sort.Strings(keys)
		return appConfig{}, fmt.Errorf("load sntpal config: unknown keys: %s", strings.Join(keys, ", "))
	}

	if meta.IsDefined("server") {
		cfg.Server = strings.TrimSpace(raw.Server)
	}
	if meta.IsDefined("version") {
		if raw.Version < 0 || raw.Version > 7 {
			return appConfig{}, fmt.Errorf("load sntpal config: version %d out of range", raw.Version)
		}
		cfg.Version = byte(raw.Version)
	}
	if meta.IsDefined("attempts") {
		cfg.Attempts = raw.Attempts
	}
	if meta.IsDefined("interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Interval))
		if err != nil {
			return appConfig{}, fmt.Errorf("load sntpal config: interval: %w", err)
		}
		cfg.Interval = d
	}
	if meta.IsDefined("timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timeout))
		if err != nil {
			return appConfig{}, fmt.Errorf("load sntpal config: timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if meta.IsDefined("local_addr") {
		cfg.LocalAddr = strings.TrimSpace(raw.LocalAddr)
	}
	if meta.IsDefined("ttl") {
		cfg.TTL = raw.TTL
	}
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}
	if meta.IsDefined("compare") {
		cfg.Compare = raw.Compare
	}

	return cfg, nil
}

type options struct {
	config string
	plain  bool

	// Raw flag values; only the ones set on the command line are applied.
	set      map[string]bool
	server   string
	version  int
	attempts int
	interval time.Duration
	timeout  time.Duration
	local    string
	ttl      int
	metrics  string
	compare  bool
}

func parseFlags(args []string, output io.Writer) (options, error) {
	defaults := sntp.DefaultConfig()
	var opts options

	fs := flag.NewFlagSet("sntpal", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.config, "config", "", "Path to a TOML config file.")
	fs.StringVar(&opts.server, "query", defaults.Server, "Server to query, host or host:port.")
	fs.StringVar(&opts.server, "q", defaults.Server, "Server to query (shorthand).")
	fs.IntVar(&opts.version, "version", int(defaults.Version), "NTP version to put in requests.")
	fs.IntVar(&opts.attempts, "attempts", defaults.Attempts, "Number of exchanges.")
	fs.DurationVar(&opts.interval, "interval", defaults.Interval, "Pause between exchanges.")
	fs.DurationVar(&opts.timeout, "timeout", defaults.Timeout, "Receive timeout per exchange.")
	fs.StringVar(&opts.local, "local", defaults.LocalAddr, "Local address to bind.")
	fs.IntVar(&opts.ttl, "ttl", 0, "IPv4 TTL for requests, 0 for the system default.")
	fs.StringVar(&opts.metrics, "metrics", "", "Serve Prometheus metrics on this address.")
	fs.BoolVar(&opts.compare, "compare", false, "Cross-check against an independent SNTP client.")
	fs.BoolVar(&opts.plain, "plain", false, "Print one line per exchange instead of the progress view.")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 1 {
		return options{}, fmt.Errorf("expected at most one server argument, got %d", fs.NArg())
	}

	opts.set = map[string]bool{}
	fs.Visit(func(f *flag.Flag) {
		opts.set[f.Name] = true
	})
	if fs.NArg() == 1 {
		opts.server = fs.Arg(0)
		opts.set["query"] = true
	}
	if opts.set["q"] {
		opts.set["query"] = true
	}
	return opts, nil
}

// buildConfig applies defaults, then the config file, then explicit flags.
func buildConfig(opts options) (appConfig, error) {
	cfg := defaultAppConfig()
	if opts.config != "" {
		loaded, err := loadConfig(opts.config)
		if err != nil {
			return appConfig{}, err
		}
		cfg = loaded
	}

	if opts.set["query"] {
		cfg.Server = strings.TrimSpace(opts.server)
	}
	if opts.set["version"] {
		if opts.version < 0 || opts.version > 7 {
			return appConfig{}, fmt.Errorf("version %d out of range", opts.version)
		}
		cfg.Version = byte(opts.version)
	}
	if opts.set["attempts"] {
		cfg.Attempts = opts.attempts
	}
	if opts.set["interval"] {
		cfg.Interval = opts.interval
	}
	if opts.set["timeout"] {
		cfg.Timeout = opts.timeout
	}
	if opts.set["local"] {
		cfg.LocalAddr = opts.local
	}
	if opts.set["ttl"] {
		cfg.TTL = opts.ttl
	}
	if opts.set["metrics"] {
		cfg.MetricsAddr = opts.metrics
	}
	if opts.set["compare"] {
		cfg.Compare = opts.compare
	}

	return cfg, cfg.Validate()
}

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// config holds flags shared by every command.
type config struct {
	href      string
	token     string
	baseURL   string
	timeout   time.Duration
	retries   int
	breaker   int
	maxAge    time.Duration
	logLevel  string
	traces    string
	metrics   string
	userAgent string
}

func envOr(name, def string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return def
}

func envDuration(name string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(name)); err == nil {
		return d
	}
	return def
}

func envInt(name string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(name)); err == nil {
		return n
	}
	return def
}

func (c *config) bind(fs *flag.FlagSet) {
	fs.StringVar(&c.href, "href", envOr("ENTITYCTL_HREF", ""), "resource href")
	fs.StringVar(&c.token, "token", envOr("ENTITYCTL_TOKEN", ""), "bearer token or secret reference")
	fs.StringVar(&c.baseURL, "base-url", envOr("ENTITYCTL_BASE_URL", ""), "base URL for relative hrefs")
	fs.DurationVar(&c.timeout, "timeout", envDuration("ENTITYCTL_TIMEOUT", 30*time.Second), "per-request timeout")
	fs.IntVar(&c.retries, "retries", envInt("ENTITYCTL_RETRIES", 0), "extra attempts for failed GETs")
	fs.IntVar(&c.breaker, "breaker", envInt("ENTITYCTL_BREAKER", 0), "consecutive failures that open a host circuit (0 disables)")
	fs.DurationVar(&c.maxAge, "max-age", envDuration("ENTITYCTL_MAX_AGE", 0), "refetch fetched entries older than this (0 caches forever)")
	fs.StringVar(&c.logLevel, "log-level", envOr("ENTITYCTL_LOG_LEVEL", "warn"), "log level")
	fs.StringVar(&c.traces, "traces", envOr("ENTITYCTL_TRACES", "none"), "trace exporter")
	fs.StringVar(&c.metrics, "metrics", envOr("ENTITYCTL_METRICS", "none"), "metrics exporter")
	c.userAgent = "entityctl/" + version
}

func (c *config) validate() error {
	if strings.TrimSpace(c.href) == "" {
		return fmt.Errorf("%w: -href is required", errUsage)
	}
	if c.token == "" {
		return fmt.Errorf("%w: -token is required", errUsage)
	}
	if c.retries < 0 {
		return fmt.Errorf("%w: -retries must be >= 0", errUsage)
	}
	if c.breaker < 0 {
		return fmt.Errorf("%w: -breaker must be >= 0", errUsage)
	}
	if c.maxAge < 0 {
		return fmt.Errorf("%w: -max-age must be >= 0", errUsage)
	}
	return nil
}

func (c *config) tracingEnabled() bool { return c.traces != "" && c.traces != "none" }
func (c *config) metricsEnabled() bool { return c.metrics != "" && c.metrics != "none" }

// parseFlags binds the shared flags plus extra ones and validates.
func parseFlags(name string, args []string, stderr io.Writer, extra func(*flag.FlagSet)) (*config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfg := &config{}
	cfg.bind(fs)
	if extra != nil {
		extra(fs)
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: unexpected arguments %v", errUsage, fs.Args())
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fieldFlags collects repeated -field name=value flags in order.
type fieldFlags []fieldFlag

type fieldFlag struct{ name, value string }

func (f *fieldFlags) String() string {
	parts := make([]string, len(*f))
	for i, ff := range *f {
		parts[i] = ff.name + "=" + ff.value
	}
	return strings.Join(parts, ",")
}

func (f *fieldFlags) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return fmt.Errorf("field %q: want name=value", s)
	}
	*f = append(*f, fieldFlag{name: name, value: value})
	return nil
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/unitedstates/congress-sub000/pkg/artifacts"
	"github.com/unitedstates/congress-sub000/pkg/config"
	"github.com/unitedstates/congress-sub000/pkg/fetch"
	"github.com/unitedstates/congress-sub000/pkg/observability"
	"github.com/unitedstates/congress-sub000/pkg/ratelimit"
	"github.com/unitedstates/congress-sub000/pkg/receipts"
	"github.com/unitedstates/congress-sub000/pkg/retry"
	"github.com/unitedstates/congress-sub000/pkg/runner"
	"github.com/unitedstates/congress-sub000/pkg/validate"
)

// env holds what every command builds from the configuration.
type env struct {
	cfg       *config.Config
	fetcher   *fetch.Fetcher
	store     *artifacts.Mirror
	validator *validate.Validator
	obs       *observability.Provider
	receipts  *receipts.Store

	closers []func(context.Context) error
}

// configFlag registers the flag every command shares.
func configFlag(cmd *flag.FlagSet) *string {
	return cmd.String("config", "", "YAML configuration file (environment variables override it)")
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	cfg := config.Load()
	return cfg, cfg.Validate()
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// setup loads the configuration and wires the shared components. The
// caller must call close.
func setup(ctx context.Context, configPath string, stderr io.Writer) (*env, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	slog.SetDefault(newLogger(cfg, stderr))

	e := &env{cfg: cfg}

	var limiter ratelimit.Limiter = ratelimit.NewLocal(cfg.RequestsPerMinute)
	if cfg.RateLimitRedis != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RateLimitRedis})
		e.closers = append(e.closers, func(context.Context) error { return client.Close() })
		limiter = ratelimit.NewRedis(client, "publishers", cfg.RequestsPerMinute)
	}

	policy := retry.DefaultPolicy()
	policy.MaxAttempts = cfg.RetryAttempts

	e.fetcher = fetch.New(fetch.Config{
		CacheDir:  cfg.CacheDir,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.HTTPTimeout,
		Limiter:   limiter,
		Retry:     policy,
	})

	e.store, err = artifacts.NewOutput(ctx, cfg.DataDir, cfg.Replica.Artifacts())
	if err != nil {
		_ = e.close(ctx)
		return nil, fmt.Errorf("output store: %w", err)
	}

	if cfg.ValidateOutput {
		e.validator, err = validate.New()
		if err != nil {
			_ = e.close(ctx)
			return nil, fmt.Errorf("schemas: %w", err)
		}
	}

	if cfg.OTelEnabled {
		oc := observability.DefaultConfig()
		oc.Enabled = true
		oc.OTLPEndpoint = cfg.OTelEndpoint
		oc.ServiceVersion = version
		e.obs, err = observability.New(ctx, oc)
		if err != nil {
			_ = e.close(ctx)
			return nil, fmt.Errorf("telemetry: %w", err)
		}
		e.closers = append(e.closers, e.obs.Shutdown)
	}

	if cfg.ReceiptsDriver != "" && cfg.ReceiptsDriver != "none" {
		e.receipts, err = receipts.Open(ctx, receipts.Dialect(cfg.ReceiptsDriver), cfg.ReceiptsDSN)
		if err != nil {
			_ = e.close(ctx)
			return nil, err
		}
		e.closers = append(e.closers, func(context.Context) error { return e.receipts.Close() })
	}
	return e, nil
}

// close releases resources in reverse order of acquisition.
func (e *env) close(ctx context.Context) error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}

// runner returns a batch runner for task with receipts attached when
// configured.
func (e *env) runner(task string) *runner.Runner {
	r := runner.New(task, e.cfg.Workers)
	if e.receipts != nil {
		r.Receipts = e.receipts
	}
	return r
}

// report prints the summary and maps it to an exit code.
func report(stdout io.Writer, s runner.Summary) int {
	_, _ = fmt.Fprintln(stdout, s.String())
	for _, f := range s.Failures {
		reason := f.Result.Reason
		if f.Err != nil {
			reason = f.Err.Error()
		}
		_, _ = fmt.Fprintf(stdout, "  %s: %s\n", f.Item, reason)
	}
	if s.Errors > 0 {
		return 1
	}
	return 0
}

// ints parses a comma-separated list of integers.
func ints(s string) ([]int, error) {
	var out []int
	for _, part := range list(s) {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", part)
		}
		out = append(out, n)
	}
	return out, nil
}

// list splits a comma-separated flag value, dropping empty parts.
func list(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func limit(items []string, n int) []string {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

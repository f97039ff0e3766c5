// Package fetch downloads publisher resources through a shared, rate-limited
// HTTP client with retries and an on-disk cache.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/unitedstates/congress-sub000/pkg/artifacts"
	"github.com/unitedstates/congress-sub000/pkg/ratelimit"
	"github.com/unitedstates/congress-sub000/pkg/retry"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "unitedstates/congress (https://github.com/unitedstates/congress)"
)

var (
	// ErrNoContent means the publisher answered with an empty body.
	ErrNoContent = errors.New("empty response body")
	// ErrTransport means the request kept failing below the HTTP layer.
	ErrTransport = errors.New("transport failure")
)

// StatusError is returned for 4xx/5xx responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.StatusCode)
}

// Options tune a single Get call. The zero value fetches text, consults the
// cache and returns the body.
type Options struct {
	// Binary skips entity decoding and control-character stripping.
	Binary bool
	// Force ignores any cached copy.
	Force bool
	// Direct treats destination as a path of its own instead of a path
	// below the cache directory.
	Direct bool
	// PostData switches the request to a form POST.
	PostData url.Values
	// SkipContent lets a cache hit return without reading the file.
	SkipContent bool
	// Timeout overrides the per-request timeout.
	Timeout time.Duration
	// ReturnStatusCodeOnError reports HTTP errors through Result.StatusCode
	// instead of an error.
	ReturnStatusCodeOnError bool
}

// Result of a Get call.
type Result struct {
	Body       []byte
	Written    bool
	FromCache  bool
	StatusCode int
}

// OK reports whether the call produced content or wrote it to disk.
func (r Result) OK() bool {
	return len(r.Body) > 0 || r.Written
}

type Config struct {
	CacheDir  string
	UserAgent string
	Timeout   time.Duration
	Limiter   ratelimit.Limiter
	Retry     retry.Policy
	Client    *http.Client
}

// Fetcher is safe for concurrent use; all callers share its limiter.
type Fetcher struct {
	client    *http.Client
	limiter   ratelimit.Limiter
	retry     retry.Policy
	cacheDir  string
	userAgent string
	timeout   time.Duration
	logger    *slog.Logger
}

func New(cfg Config) *Fetcher {
	f := &Fetcher{
		client:    cfg.Client,
		limiter:   cfg.Limiter,
		retry:     cfg.Retry,
		cacheDir:  cfg.CacheDir,
		userAgent: cfg.UserAgent,
		timeout:   cfg.Timeout,
		logger:    slog.Default().With("component", "fetch"),
	}
	if f.client == nil {
		f.client = &http.Client{}
	}
	if f.limiter == nil {
		f.limiter = ratelimit.NewLocal(ratelimit.DefaultRequestsPerMinute)
	}
	if f.userAgent == "" {
		f.userAgent = DefaultUserAgent
	}
	if f.timeout <= 0 {
		f.timeout = DefaultTimeout
	}
	if f.cacheDir == "" {
		f.cacheDir = "cache"
	}
	return f
}

// CacheDir is the root of the download cache.
func (f *Fetcher) CacheDir() string {
	return f.cacheDir
}

// CachePath resolves a cache-relative destination to a file path.
func (f *Fetcher) CachePath(destination string) string {
	return filepath.Join(f.cacheDir, filepath.FromSlash(destination))
}

// Get downloads rawURL, or returns the copy stored at destination.
// An empty destination disables caching.
func (f *Fetcher) Get(ctx context.Context, rawURL, destination string, opts Options) (Result, error) {
	var localPath string
	if destination != "" {
		if opts.Direct {
			localPath = destination
		} else {
			localPath = f.CachePath(destination)
		}
	}

	if localPath != "" && !opts.Force {
		if res, ok, err := f.fromCache(localPath, destination, opts); err != nil {
			return Result{}, err
		} else if ok {
			return res, nil
		}
	}

	body, status, err := f.download(ctx, rawURL, opts)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && opts.ReturnStatusCodeOnError {
			return Result{StatusCode: se.StatusCode}, nil
		}
		return Result{}, err
	}

	if !opts.Binary {
		body = []byte(CleanText(string(body)))
	}
	if len(bytes.TrimSpace(body)) == 0 {
		f.logger.WarnContext(ctx, "empty response", "url", rawURL)
		return Result{StatusCode: status}, fmt.Errorf("%w: %s", ErrNoContent, rawURL)
	}

	res := Result{Body: body, StatusCode: status}
	if localPath != "" {
		if err := artifacts.WriteFileAtomic(localPath, body); err != nil {
			return Result{}, fmt.Errorf("cache %s: %w", rawURL, err)
		}
		res.Written = true
	}
	return res, nil
}

func (f *Fetcher) fromCache(localPath, destination string, opts Options) (Result, bool, error) {
	if !opts.Direct {
		if body, ok, err := readFromZipAncestor(f.cacheDir, destination); err != nil {
			return Result{}, false, err
		} else if ok && len(body) > 0 {
			return Result{Body: body, FromCache: true}, true, nil
		}
	}

	info, err := os.Stat(localPath)
	if err != nil || info.IsDir() || info.Size() == 0 {
		return Result{}, false, nil
	}
	if opts.SkipContent {
		return Result{Written: true, FromCache: true}, true, nil
	}
	body, err := os.ReadFile(localPath) //nolint:gosec // cache path derived from layout
	if err != nil {
		return Result{}, false, fmt.Errorf("read cache %s: %w", localPath, err)
	}
	return Result{Body: body, Written: true, FromCache: true}, true, nil
}

func (f *Fetcher) download(ctx context.Context, rawURL string, opts Options) ([]byte, int, error) {
	var lastErr error
	for attempt := 0; attempt < f.retry.Attempts(); attempt++ {
		if attempt > 0 {
			delay := f.retry.Delay(rawURL, attempt-1)
			f.logger.InfoContext(ctx, "retrying", "url", rawURL, "attempt", attempt, "delay", delay, "error", lastErr)
			if err := sleep(ctx, delay); err != nil {
				return nil, 0, err
			}
		}

		body, status, err := f.once(ctx, rawURL, opts)
		if err == nil {
			return body, status, nil
		}
		lastErr = err
		if !retryable(err) {
			break
		}
	}

	var se *StatusError
	if errors.As(lastErr, &se) {
		f.logger.WarnContext(ctx, "download failed", "url", rawURL, "status", se.StatusCode)
		return nil, se.StatusCode, lastErr
	}
	if ctx.Err() != nil {
		return nil, 0, ctx.Err()
	}
	f.logger.ErrorContext(ctx, "download failed", "url", rawURL, "error", lastErr)
	return nil, 0, fmt.Errorf("%w: %s: %v", ErrTransport, rawURL, lastErr)
}

func (f *Fetcher) once(ctx context.Context, rawURL string, opts Options) ([]byte, int, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}

	timeout := f.timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var req *http.Request
	var err error
	if opts.PostData != nil {
		req, err = http.NewRequestWithContext(reqCtx, http.MethodPost, rawURL, strings.NewReader(opts.PostData.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		req, err = http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	if resp.StatusCode >= 400 {
		return nil, resp.StatusCode, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}
	return body, resp.StatusCode, nil
}

// retryable reports whether another attempt could succeed.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= 500 || se.StatusCode == http.StatusTooManyRequests
	}
	return true
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

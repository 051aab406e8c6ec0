// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch implements the shared HTTP Fetcher (C2 in SPEC_FULL.md
// §4.2): connection pooling, per-host rate limiting, retry with
// exponential backoff and jitter, a disk-persisted cookie jar for
// institutional sessions, and PDF magic-byte validation. A single Fetcher
// instance is meant to be shared across every source client and the
// download manager, the way the teacher shares one *http.Client per
// pipeline stage.
package fetch

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/meshintel/geo-engine/internal/errs"
	"github.com/meshintel/geo-engine/pkg/types"
)

// RetryBaseDelay is the base duration for exponential backoff. Tests
// override this to avoid real sleeps, matching the teacher's
// httputil.RetryBaseDelay idiom.
var RetryBaseDelay = 500 * time.Millisecond

// Fetcher owns one *http.Client, its cookie jar, and per-host rate
// limiters. Cleanup is scoped: Close releases idle connections and
// flushes the cookie jar, guaranteeing release on shutdown per §4.2.
type Fetcher struct {
	client     *http.Client
	jar        *persistentJar
	limiters   *hostLimiters
	userAgent  string
	maxRetries int
	minBytes   int64
	maxBytes   int64
}

// Config carries the subset of types.FetcherConfig the Fetcher needs
// plus the optional cookie file path.
type Config struct {
	Timeout       time.Duration
	UserAgent     string
	MaxRetries    int
	MinPDFBytes   int64
	MaxPDFBytes   int64
	CookieJarPath string
}

// New builds a Fetcher from an EngineConfig-derived Config. The cookie
// jar is loaded from CookieJarPath if present; a missing file is not an
// error (mirrors internal/secrets.Load's tolerant-missing-input idiom).
func New(cfg Config) (*Fetcher, error) {
	jar, err := newPersistentJar(cfg.CookieJarPath)
	if err != nil {
		return nil, errs.E(errs.ConfigurationError, "fetch.New", err)
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	client := &http.Client{
		Transport: transport,
		Jar:       jar.CookieJar(),
		Timeout:   cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("stopped after 5 redirects")
			}
			return nil
		},
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	minBytes := cfg.MinPDFBytes
	if minBytes <= 0 {
		minBytes = 1024
	}
	maxBytes := cfg.MaxPDFBytes
	if maxBytes <= 0 {
		maxBytes = 100 << 20
	}

	return &Fetcher{
		client:     client,
		jar:        jar,
		limiters:   newHostLimiters(),
		userAgent:  cfg.UserAgent,
		maxRetries: maxRetries,
		minBytes:   minBytes,
		maxBytes:   maxBytes,
	}, nil
}

// NewFromEngineConfig adapts a types.FetcherConfig.
func NewFromEngineConfig(cfg types.FetcherConfig) (*Fetcher, error) {
	return New(Config{
		Timeout:       cfg.Timeout,
		UserAgent:     cfg.UserAgent,
		MaxRetries:    cfg.MaxRetries,
		MinPDFBytes:   cfg.MinPDFBytes,
		MaxPDFBytes:   cfg.MaxPDFBytes,
		CookieJarPath: cfg.CookieJarPath,
	})
}

// SetHostLimit configures the token bucket for a host, read from the
// owning source client's declared (requests_per_window, window_seconds).
func (f *Fetcher) SetHostLimit(host string, requestsPerWindow int, windowSeconds int) {
	f.limiters.set(host, requestsPerWindow, windowSeconds)
}

// Do executes req, applying the per-host rate limiter and the retry
// policy: exponential backoff with jitter, retriable on network errors
// and 5xx/429, non-retriable on other 4xx. Unlike the teacher's
// httputil.DoWithRetry (which retries only 429), this retries 5xx too,
// per SPEC_FULL.md §4.2.
func (f *Fetcher) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" && f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	host := req.URL.Host
	var lastErr error
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if err := f.limiters.wait(ctx, host); err != nil {
			return nil, err
		}

		resp, err := f.client.Do(req.Clone(ctx))
		if err != nil {
			lastErr = err
			if !sleepBackoff(ctx, attempt) {
				return nil, ctx.Err()
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("http status %d", resp.StatusCode)
			if attempt == f.maxRetries {
				return resp, nil
			}
			if !sleepBackoff(ctx, attempt) {
				return nil, ctx.Err()
			}
			continue
		}

		return resp, nil
	}
	return nil, errs.E(errs.SourceUnavailable, "fetch.Do", lastErr)
}

// sleepBackoff waits the exponential-backoff-with-jitter duration for
// attempt, returning false if ctx was cancelled first.
func sleepBackoff(ctx context.Context, attempt int) bool {
	base := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
	jitter := time.Duration(rand.Int63n(int64(base) / 2 + 1))
	select {
	case <-ctx.Done():
		return false
	case <-time.After(base + jitter):
		return true
	}
}

// Close releases idle connections and flushes the cookie jar to disk.
func (f *Fetcher) Close() error {
	f.client.CloseIdleConnections()
	return f.jar.Flush()
}

// Client exposes the underlying *http.Client for adapters that need it
// directly (e.g. to pass to httputil.DoWithRetry-style helpers).
func (f *Fetcher) Client() *http.Client { return f.client }

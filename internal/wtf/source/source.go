// Package source fetches the raw acronym dataset.
//
// Every call to Fetch reads the dataset again. Concurrent calls that overlap
// share one in-flight request, but nothing is kept once it returns.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"

	"github.com/msto63/wtf/pkg/core/logging"
)

var (
	// ErrUnexpectedStatus is returned when the dataset server answers with a non-2xx code
	ErrUnexpectedStatus = errors.New("unexpected status")
	// ErrInvalidEncoding is returned when the dataset is not valid UTF-8
	ErrInvalidEncoding = errors.New("dataset is not valid UTF-8")
	// ErrTooLarge is returned when the dataset exceeds MaxBytes
	ErrTooLarge = errors.New("dataset exceeds size limit")
)

// Config holds fetcher configuration
type Config struct {
	// URL of the dataset: http(s), file:// or a plain file path
	URL       string
	Timeout   time.Duration
	MaxBytes  int64
	UserAgent string
}

// DefaultConfig returns default fetcher configuration for url
func DefaultConfig(url string) Config {
	return Config{
		URL:      url,
		Timeout:  10 * time.Second,
		MaxBytes: 16 << 20,
	}
}

// Fetcher retrieves the raw dataset text
type Fetcher struct {
	cfg    Config
	client *http.Client
	group  singleflight.Group
	logger *logging.Logger
}

// New creates a new Fetcher
func New(cfg Config) *Fetcher {
	defaults := DefaultConfig(cfg.URL)
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaults.MaxBytes
	}

	return &Fetcher{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logging.New("wtf-source"),
	}
}

// URL returns the configured dataset location
func (f *Fetcher) URL() string {
	return f.cfg.URL
}

// IsRemote reports whether the dataset is fetched over HTTP
func (f *Fetcher) IsRemote() bool {
	u, err := url.Parse(f.cfg.URL)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

// CloseIdleConnections releases idle keep-alive connections to the dataset host
func (f *Fetcher) CloseIdleConnections() {
	f.client.CloseIdleConnections()
}

// Fetch returns the complete dataset as text. Overlapping calls share one
// fetch, which runs detached from any single caller and is bounded by the
// client timeout. A caller whose ctx ends stops waiting without affecting
// the others.
func (f *Fetcher) Fetch(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	shared := context.WithoutCancel(ctx)
	ch := f.group.DoChan(f.cfg.URL, func() (interface{}, error) {
		return f.fetch(shared)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			f.logger.Debug("Dataset fetch shared", "url", f.cfg.URL)
		}
		return res.Val.(string), nil
	}
}

func (f *Fetcher) fetch(ctx context.Context) (string, error) {
	start := time.Now()

	var (
		data []byte
		err  error
	)
	if f.IsRemote() {
		data, err = f.fetchHTTP(ctx)
	} else {
		data, err = f.readFile()
	}
	if err != nil {
		return "", err
	}

	if !utf8.Valid(data) {
		return "", ErrInvalidEncoding
	}

	f.logger.Debug("Dataset fetched",
		"url", f.cfg.URL,
		"bytes", len(data),
		"duration", time.Since(start),
	)
	return string(data), nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dataset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	return f.readLimited(resp.Body)
}

func (f *Fetcher) readFile() ([]byte, error) {
	path := strings.TrimPrefix(f.cfg.URL, "file://")

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer file.Close()

	return f.readLimited(file)
}

// readLimited reads r, failing once more than MaxBytes are available
func (f *Fetcher) readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, f.cfg.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	if int64(len(data)) > f.cfg.MaxBytes {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, f.cfg.MaxBytes)
	}
	return data, nil
}

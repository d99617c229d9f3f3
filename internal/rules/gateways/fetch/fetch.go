// Package fetch downloads remote rule lists over HTTP(S).
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"
)

// Error codes carried by FetchError.
const (
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeFailed          = "FETCH_FAILED"
	CodeTimeout         = "FETCH_TIMEOUT"
	CodeTooLarge        = "TOO_LARGE"
	CodeInvalidUTF8     = "FETCH_INVALID_UTF8"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultMaxBytes     = 5 * 1024 * 1024
	defaultMaxRedirects = 5
	defaultUserAgent    = "ai-rules/1.0"
)

// Options configures a Client. Zero values select the defaults.
type Options struct {
	Timeout      time.Duration // default 10s
	MaxBytes     int64         // default 5 MiB
	MaxRedirects int           // default 5
	UserAgent    string
}

// FetchError describes why a source could not be read.
// Status is the upstream HTTP status when one was received.
type FetchError struct {
	Code   string
	URL    string
	Status int
	Cause  error
}

func (e *FetchError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.Code, e.URL)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Cause }

// NotFound reports whether the upstream answered 404.
func (e *FetchError) NotFound() bool { return e != nil && e.Status == http.StatusNotFound }

var (
	errTooManyRedirects  = errors.New("too many redirects")
	errRedirectBadScheme = errors.New("redirect target scheme is not http/https")
	errInvalidURL        = errors.New("invalid url or scheme")
)

// Client fetches text bodies with a size limit and timeout.
type Client struct {
	http      *http.Client
	maxBytes  int64
	userAgent string
}

// NewClient builds a Client from opt.
func NewClient(opt Options) (*Client, error) {
	if opt.Timeout <= 0 {
		opt.Timeout = defaultTimeout
	}
	if opt.MaxBytes == 0 {
		opt.MaxBytes = defaultMaxBytes
	}
	if opt.MaxBytes < 0 {
		return nil, fmt.Errorf("max bytes must be positive, got %d", opt.MaxBytes)
	}
	if opt.MaxRedirects <= 0 {
		opt.MaxRedirects = defaultMaxRedirects
	}
	if opt.UserAgent == "" {
		opt.UserAgent = defaultUserAgent
	}

	c := &Client{
		maxBytes:  opt.MaxBytes,
		userAgent: opt.UserAgent,
		http: &http.Client{
			Timeout:   opt.Timeout,
			Transport: http.DefaultTransport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) > opt.MaxRedirects {
					return errTooManyRedirects
				}
				if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
					return errRedirectBadScheme
				}
				return nil
			},
		},
	}
	return c, nil
}

// Fetch GETs rawURL and returns its body. Any failure is a *FetchError.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u == nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, &FetchError{Code: CodeInvalidArgument, URL: rawURL, Cause: errors.Join(errInvalidURL, err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{Code: CodeInvalidArgument, URL: rawURL, Cause: err}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		return nil, transportError(rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{Code: CodeFailed, URL: rawURL, Status: resp.StatusCode}
	}

	// Read at most maxBytes+1 to detect overflow deterministically.
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, transportError(rawURL, err)
	}
	if int64(len(body)) > c.maxBytes {
		return nil, &FetchError{Code: CodeTooLarge, URL: rawURL, Status: resp.StatusCode,
			Cause: fmt.Errorf("body exceeds %d bytes", c.maxBytes)}
	}
	if !utf8.Valid(body) {
		return nil, &FetchError{Code: CodeInvalidUTF8, URL: rawURL, Status: resp.StatusCode}
	}

	return body, nil
}

func transportError(rawURL string, err error) *FetchError {
	switch {
	case errors.Is(err, errRedirectBadScheme):
		return &FetchError{Code: CodeInvalidArgument, URL: rawURL, Cause: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &FetchError{Code: CodeTimeout, URL: rawURL, Cause: err}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &FetchError{Code: CodeTimeout, URL: rawURL, Cause: err}
	}
	return &FetchError{Code: CodeFailed, URL: rawURL, Cause: err}
}

// Package transport is the HTTP session used to talk to the query engine.
// It keeps a single pooled client, converts network timeouts into one
// error kind and refuses requests once closed.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/satishbabariya/prisma-engine-go/internal/debug"
	prismaerrors "github.com/satishbabariya/prisma-engine-go/runtime/errors"
)

const (
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxConnections bounds the connection pool.
	DefaultMaxConnections = 1000
)

// Options configures a Session.
type Options struct {
	Timeout        time.Duration
	MaxConnections int
	Headers        map[string]string
	S3             S3Options
	// Client replaces the pooled client, mostly for tests.
	Client *http.Client
}

// S3Options configures downloads from s3:// URLs.
type S3Options struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Option configures a Session.
type Option func(*Options)

// DefaultOptions returns the default session options.
func DefaultOptions() Options {
	return Options{
		Timeout:        DefaultTimeout,
		MaxConnections: DefaultMaxConnections,
		Headers:        map[string]string{},
	}
}

// WithTimeout sets the per request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) { o.Timeout = d }
}

// WithMaxConnections sets the pool size.
func WithMaxConnections(n int) Option {
	return func(o *Options) { o.MaxConnections = n }
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(o *Options) { o.Headers[key] = value }
}

// WithS3 configures s3:// downloads.
func WithS3(s3 S3Options) Option {
	return func(o *Options) { o.S3 = s3 }
}

// WithHTTPClient replaces the underlying client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *Options) { o.Client = c }
}

// Session is a long lived HTTP session.
type Session struct {
	mu     sync.RWMutex
	client *http.Client
	closed bool
	opts   Options
}

// New creates a session.
func New(opts ...Option) *Session {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	client := o.Client
	if client == nil {
		client = &http.Client{
			Timeout: o.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxConnsPerHost:     o.MaxConnections,
				MaxIdleConns:        o.MaxConnections,
				MaxIdleConnsPerHost: o.MaxConnections,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return &Session{client: client, opts: o}
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return prismaerrors.Wrap(prismaerrors.KindMalformedResponse, err, "could not decode response body: %s", truncate(r.Body))
	}
	return nil
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// Request performs a request and reads the whole response body.
func (s *Session) Request(ctx context.Context, method, url string, body []byte, headers map[string]string) (*Response, error) {
	s.mu.RLock()
	closed, client := s.closed, s.client
	s.mu.RUnlock()
	if closed {
		return nil, prismaerrors.ClientClosed()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range s.opts.Headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	debug.Debug("engine request", "method", method, "url", url, "bytes", len(body))

	resp, err := client.Do(req)
	if err != nil {
		return nil, classify(err, method, url)
	}
	defer CleanlyCloseBody(resp.Body)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(err, method, url)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// Close closes the session. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.client.CloseIdleConnections()
	return nil
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// CleanlyCloseBody drains and closes body so the connection can be reused.
func CleanlyCloseBody(body io.ReadCloser) error {
	if body == nil {
		return nil
	}
	_, _ = io.Copy(io.Discard, body)
	return body.Close()
}

// classify maps a client error onto the transport error kinds. Timeouts
// of any phase become transport-timeout; everything else is transport.
func classify(err error, method, url string) error {
	var netErr net.Error
	switch {
	case stderrors.Is(err, context.DeadlineExceeded),
		stderrors.Is(err, os.ErrDeadlineExceeded),
		stderrors.As(err, &netErr) && netErr.Timeout():
		return prismaerrors.Wrap(prismaerrors.KindTransportTimeout, err, "%s %s timed out", method, url)
	}
	return prismaerrors.Wrap(prismaerrors.KindTransport, err, "%s %s failed: %v", method, url, err)
}

func truncate(b []byte) string {
	const limit = 200
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}

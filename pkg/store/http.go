package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/matzehuels/graphjson/pkg/observability"
	"github.com/matzehuels/graphjson/pkg/uri"
)

const httpTimeout = 10 * time.Second

// HTTP fetches documents from http(s) URIs and writes them back with PUT.
// Transient failures (connection errors and 5xx responses) are retried
// with exponential backoff.
type HTTP struct {
	client   *http.Client
	headers  map[string]string
	attempts int
	delay    time.Duration
}

// HTTPOption configures an HTTP store.
type HTTPOption func(*HTTP)

// WithClient sets the underlying HTTP client.
func WithClient(c *http.Client) HTTPOption {
	return func(h *HTTP) { h.client = c }
}

// WithRetry sets the number of attempts and the initial backoff delay.
func WithRetry(attempts int, delay time.Duration) HTTPOption {
	return func(h *HTTP) {
		h.attempts = attempts
		h.delay = delay
	}
}

// NewHTTP creates an HTTP store. headers are sent with every request;
// pass nil if none are needed.
func NewHTTP(headers map[string]string, opts ...HTTPOption) *HTTP {
	h := &HTTP{
		client:   &http.Client{Timeout: httpTimeout},
		headers:  headers,
		attempts: 3,
		delay:    time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Get performs a GET request. A 404 is a miss.
func (h *HTTP) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := Retry(ctx, h.attempts, h.delay, func() error {
		body, err := h.do(ctx, http.MethodGet, key, nil)
		if err != nil {
			return err
		}
		defer body.Close()
		data, err = io.ReadAll(body)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set performs a PUT request with data as body. ttl is ignored.
func (h *HTTP) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return Retry(ctx, h.attempts, h.delay, func() error {
		body, err := h.do(ctx, http.MethodPut, key, data)
		if err != nil {
			return err
		}
		return body.Close()
	})
}

// Delete performs a DELETE request. A 404 is not an error.
func (h *HTTP) Delete(ctx context.Context, key string) error {
	err := Retry(ctx, h.attempts, h.delay, func() error {
		body, err := h.do(ctx, http.MethodDelete, key, nil)
		if err != nil {
			return err
		}
		return body.Close()
	})
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// Close releases idle connections.
func (h *HTTP) Close() error {
	h.client.CloseIdleConnections()
	return nil
}

func (h *HTTP) do(ctx context.Context, method, key string, data []byte) (io.ReadCloser, error) {
	doc, _ := uri.Split(key)
	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, doc, body)
	if err != nil {
		return nil, err
	}
	for k, v := range h.headers {
		req.Header.Set(k, v)
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, method, req.URL.Host, req.URL.Path)
	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		hooks.OnError(ctx, method, req.URL.Host, req.URL.Path, err)
		return nil, Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
	}
	hooks.OnResponse(ctx, method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))
	if err := checkStatus(resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func checkStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code >= 500:
		return Retryable(fmt.Errorf("%w: status %d", ErrNetwork, code))
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}

var _ Store = (*HTTP)(nil)

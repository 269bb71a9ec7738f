package syncer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// maxPullBytes bounds a pulled document.
const maxPullBytes = 64 << 20

// ErrNoRemoteDocument indicates the remote endpoint has nothing to pull.
var ErrNoRemoteDocument = errors.New("no document stored at sync endpoint")

// Transport moves encoded backup documents to and from an endpoint.
type Transport interface {
	Push(ctx context.Context, endpoint string, doc []byte) error
	Pull(ctx context.Context, endpoint string) ([]byte, error)
}

// StatusError is a non-success HTTP response from the sync endpoint.
type StatusError struct {
	Method string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sync %s returned HTTP %d", e.Method, e.Code)
}

// HTTPTransport stores documents with PUT and fetches them with GET,
// retrying transient failures.
type HTTPTransport struct {
	client *retryablehttp.Client
}

// NewHTTPTransport builds a transport with retryMax retries and a
// per-attempt timeout.
func NewHTTPTransport(retryMax int, timeout time.Duration, logger *slog.Logger) *HTTPTransport {
	client := retryablehttp.NewClient()
	client.RetryMax = retryMax
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	if timeout > 0 {
		client.HTTPClient.Timeout = timeout
	}
	if logger != nil {
		client.Logger = logger.With("component", "sync_http")
	} else {
		client.Logger = nil
	}
	return &HTTPTransport{client: client}
}

// Push uploads doc with PUT.
func (t *HTTPTransport) Push(ctx context.Context, endpoint string, doc []byte) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(doc))
	if err != nil {
		return fmt.Errorf("building push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("pushing backup: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Method: http.MethodPut, Code: resp.StatusCode}
	}
	return nil
}

// Pull downloads the stored document with GET.
func (t *HTTPTransport) Pull(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building pull request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pulling backup: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent:
		return nil, ErrNoRemoteDocument
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &StatusError{Method: http.MethodGet, Code: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPullBytes))
	if err != nil {
		return nil, fmt.Errorf("reading pulled backup: %w", err)
	}
	return data, nil
}

// MemoryTransport keeps documents in process, keyed by endpoint.
type MemoryTransport struct {
	mu   sync.Mutex
	docs map[string][]byte
}

// NewMemoryTransport creates an empty in-process transport.
func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{docs: map[string][]byte{}}
}

func (t *MemoryTransport) Push(_ context.Context, endpoint string, doc []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.docs[endpoint] = append([]byte(nil), doc...)
	return nil
}

func (t *MemoryTransport) Pull(_ context.Context, endpoint string) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	doc, ok := t.docs[endpoint]
	if !ok {
		return nil, ErrNoRemoteDocument
	}
	return append([]byte(nil), doc...), nil
}

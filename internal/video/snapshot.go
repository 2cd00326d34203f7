package video

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
)

const maxSnapshotSize = 10 * 1024 * 1024

var errSnapshotTooLarge = errors.New("snapshot exceeds size limit")

// HTTPSnapshotSource fetches one still image per Read from an IP camera snapshot URL
type HTTPSnapshotSource struct {
	id       string
	url      string
	client   *http.Client
	maxBytes int64
	open     atomic.Bool
}

func NewHTTPSnapshotSource(id, url string, client *http.Client) *HTTPSnapshotSource {
	return &HTTPSnapshotSource{id: id, url: url, client: client, maxBytes: maxSnapshotSize}
}

func (s *HTTPSnapshotSource) ID() string { return s.id }

// Open fetches one snapshot so an unreachable camera fails at start
func (s *HTTPSnapshotSource) Open(ctx context.Context) error {
	if _, err := s.fetch(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	s.open.Store(true)
	return nil
}

func (s *HTTPSnapshotSource) Read(ctx context.Context) ([]byte, error) {
	if !s.open.Load() {
		return nil, ErrSourceClosed
	}
	return s.fetch(ctx)
}

func (s *HTTPSnapshotSource) Close() error {
	s.open.Store(false)
	return nil
}

func (s *HTTPSnapshotSource) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch snapshot: camera returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("read snapshot: %w (%d bytes)", errSnapshotTooLarge, s.maxBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("fetch snapshot: empty body")
	}
	return data, nil
}

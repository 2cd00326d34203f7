package video

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

const (
	mjpegChunkSize = 32 * 1024
	mjpegMaxBuffer = 8 * 1024 * 1024

	defaultReconnects       = 3
	defaultReconnectBackoff = 500 * time.Millisecond
)

var (
	jpegStart = []byte{0xFF, 0xD8}
	jpegEnd   = []byte{0xFF, 0xD9}
)

// MJPEGSource reads a multipart MJPEG stream in the background and hands out
// the most recent complete frame. Frames the loop is too slow for are dropped.
// A dropped stream is reconnected a bounded number of times, with doubling
// backoff, before Read reports the source unavailable. Any frame received
// resets the attempt budget.
type MJPEGSource struct {
	id     string
	url    string
	client *http.Client

	reconnects       int
	reconnectBackoff time.Duration

	mu        sync.Mutex
	latest    []byte
	seq       uint64
	delivered uint64
	err       error
	opened    bool
	closed    bool
	notify    chan struct{}
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewMJPEGSource(id, url string, client *http.Client) *MJPEGSource {
	return &MJPEGSource{
		id:               id,
		url:              url,
		client:           client,
		reconnects:       defaultReconnects,
		reconnectBackoff: defaultReconnectBackoff,
		notify:           make(chan struct{}, 1),
	}
}

func (s *MJPEGSource) ID() string { return s.id }

// Open connects to the stream. ctx bounds the connection attempt only.
func (s *MJPEGSource) Open(ctx context.Context) error {
	streamCtx, cancel := context.WithCancel(context.Background())
	stop := context.AfterFunc(ctx, cancel)

	body, err := s.connect(streamCtx)
	stop()
	if err != nil {
		cancel()
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	s.mu.Lock()
	s.opened = true
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.run(streamCtx, body)
	return nil
}

func (s *MJPEGSource) connect(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("stream returned status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// run reads the stream and reconnects after it drops
func (s *MJPEGSource) run(ctx context.Context, body io.ReadCloser) {
	defer close(s.done)

	attempts := 0
	for {
		frames, err := s.readStream(body)
		if frames > 0 {
			attempts = 0
		}

		for {
			if ctx.Err() != nil || attempts >= s.reconnects {
				s.fail(err)
				return
			}

			backoff := s.reconnectBackoff << attempts
			attempts++

			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				s.fail(err)
				return
			case <-timer.C:
			}

			body, err = s.connect(ctx)
			if err == nil {
				break
			}
		}
	}
}

// readStream publishes frames from body until it fails and returns how many it saw
func (s *MJPEGSource) readStream(body io.ReadCloser) (int, error) {
	defer func() {
		_ = body.Close()
	}()

	buf := make([]byte, 0, 1024*1024)
	chunk := make([]byte, mjpegChunkSize)
	frames := 0

	for {
		n, err := body.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			for {
				frame := extractJPEGFrame(&buf)
				if frame == nil {
					break
				}
				s.publish(frame)
				frames++
			}
			if len(buf) > mjpegMaxBuffer {
				buf = buf[:0]
			}
		}
		if err != nil {
			return frames, err
		}
	}
}

func (s *MJPEGSource) publish(frame []byte) {
	s.mu.Lock()
	s.latest = frame
	s.seq++
	s.mu.Unlock()
	s.wake()
}

func (s *MJPEGSource) fail(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
	s.wake()
}

func (s *MJPEGSource) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Read blocks until a frame newer than the last one returned is available
func (s *MJPEGSource) Read(ctx context.Context) ([]byte, error) {
	for {
		s.mu.Lock()
		switch {
		case !s.opened || s.closed:
			s.mu.Unlock()
			return nil, ErrSourceClosed
		case s.seq > s.delivered:
			s.delivered = s.seq
			frame := s.latest
			s.mu.Unlock()
			return frame, nil
		case s.err != nil:
			err := s.err
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.notify:
		}
	}
}

func (s *MJPEGSource) Close() error {
	s.mu.Lock()
	if s.closed || !s.opened {
		s.closed = true
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done
	return nil
}

// extractJPEGFrame removes and returns the first complete SOI..EOI frame in buffer
func extractJPEGFrame(buffer *[]byte) []byte {
	buf := *buffer
	start := bytes.Index(buf, jpegStart)
	if start < 0 {
		return nil
	}

	end := bytes.Index(buf[start+2:], jpegEnd)
	if end < 0 {
		return nil
	}
	end += start + 4

	frame := make([]byte, end-start)
	copy(frame, buf[start:end])
	*buffer = buf[end:]
	return frame
}

// Package video provides frame sources for the detection loop.
package video

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

var (
	ErrSourceUnavailable = errors.New("video source unavailable")
	ErrSourceClosed      = errors.New("video source closed")
	ErrUnsupportedSource = errors.New("unsupported video source")
)

// Source yields encoded image frames. Open must succeed before Read;
// Close releases the device and is safe to call more than once.
type Source interface {
	ID() string
	Open(ctx context.Context) error
	Read(ctx context.Context) ([]byte, error)
	Close() error
}

const dirPrefix = "dir:"

// Parse builds a Source from a user supplied locator
func Parse(locator, cameraID string, client *http.Client) (Source, error) {
	locator = strings.TrimSpace(locator)
	if cameraID == "" {
		cameraID = locator
	}
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}

	switch {
	case strings.HasPrefix(locator, dirPrefix):
		return NewDirectorySource(cameraID, strings.TrimPrefix(locator, dirPrefix)), nil

	case isHTTP(locator) && isStillImage(locator):
		return NewHTTPSnapshotSource(cameraID, locator, client), nil

	case isHTTP(locator):
		// stream connections stay open, the client timeout would cut them
		stream := &http.Client{Transport: client.Transport}
		return NewMJPEGSource(cameraID, locator, stream), nil
	}

	if fi, err := os.Stat(locator); err == nil && fi.IsDir() {
		return NewDirectorySource(cameraID, locator), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, locator)
}

func isHTTP(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func isStillImage(s string) bool {
	path := strings.ToLower(s)
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return strings.HasSuffix(path, ".jpg") || strings.HasSuffix(path, ".jpeg")
}

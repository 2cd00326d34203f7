package video

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp"}

// DirectorySource replays the images of a directory in name order, wrapping around
type DirectorySource struct {
	id   string
	dir  string
	mu   sync.Mutex
	list []string
	next int
	open bool
}

func NewDirectorySource(id, dir string) *DirectorySource {
	return &DirectorySource{id: id, dir: dir}
}

func (s *DirectorySource) ID() string { return s.id }

func (s *DirectorySource) Open(context.Context) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if slices.Contains(imageExtensions, strings.ToLower(filepath.Ext(e.Name()))) {
			files = append(files, filepath.Join(s.dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no images in %s", ErrSourceUnavailable, s.dir)
	}
	slices.Sort(files)

	s.mu.Lock()
	s.list = files
	s.next = 0
	s.open = true
	s.mu.Unlock()
	return nil
}

func (s *DirectorySource) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if !s.open {
		s.mu.Unlock()
		return nil, ErrSourceClosed
	}
	path := s.list[s.next]
	s.next = (s.next + 1) % len(s.list)
	s.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read frame %s: %w", filepath.Base(path), err)
	}
	return data, nil
}

func (s *DirectorySource) Close() error {
	s.mu.Lock()
	s.open = false
	s.mu.Unlock()
	return nil
}

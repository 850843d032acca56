package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/okian/graphboard/internal/domain/dedupe"
)

// StdinPath selects standard input as the feed.
const StdinPath = "-"

// Source yields one batch of score records per update.
type Source interface {
	Read(ctx context.Context) (Batch, error)
	Name() string
}

// Acker is implemented by sources that must confirm consumption once the
// merged state has been persisted.
type Acker interface {
	Ack(ctx context.Context) error
}

// FileSource reads a feed from a file or stdin.
type FileSource struct {
	path  string
	stdin io.Reader
}

// FileOption configures a FileSource.
type FileOption func(*FileSource)

// WithStdin replaces os.Stdin for the "-" path.
func WithStdin(r io.Reader) FileOption {
	return func(s *FileSource) {
		if r != nil {
			s.stdin = r
		}
	}
}

// NewFileSource creates a source for path ("-" reads stdin).
func NewFileSource(path string, opts ...FileOption) *FileSource {
	s := &FileSource{path: path, stdin: os.Stdin}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the path being read.
func (s *FileSource) Name() string {
	if s.path == StdinPath {
		return "stdin"
	}
	return s.path
}

// Read parses the whole file. A missing file is ErrMissingInput; an empty
// file is a valid batch of zero records.
func (s *FileSource) Read(ctx context.Context) (Batch, error) {
	if err := ctx.Err(); err != nil {
		return Batch{}, err
	}
	if s.path == "" {
		return Batch{}, fmt.Errorf("%w: no path configured", ErrMissingInput)
	}

	seen := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
	if s.path == StdinPath {
		return decode(s.stdin, s.Name(), seen)
	}

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Batch{}, fmt.Errorf("%w: %s", ErrMissingInput, s.path)
		}
		return Batch{}, fmt.Errorf("open feed %s: %w", s.path, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return Batch{}, fmt.Errorf("stat feed %s: %w", s.path, err)
	}
	if info.IsDir() {
		return Batch{}, fmt.Errorf("%w: %s is a directory", ErrMissingInput, s.path)
	}

	return decode(f, s.path, seen)
}

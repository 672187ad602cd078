package server

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
)

var (
	OverflowError    = errors.New("overflow")
	StoreUnavailable = errors.New("store unavailable")
)

// ParseError reports a counter file whose contents are not a decimal uint64.
type ParseError struct {
	Path     string
	Contents string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid counter %s (%q): %v", e.Path, e.Contents, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Sequences is implemented by Store and consumed by the transports.
type Sequences interface {
	Peek(project, tag string) (uint64, error)
	Consume(project, tag string) (uint64, error)
}

var _ Sequences = (*Store)(nil)

// Store keeps one counter per (project, tag) as the file <root>/<project>/<tag>,
// holding the decimal value and nothing else. All operations are serialized
// by a single mutex.
type Store struct {
	mu   sync.Mutex
	root string
}

// OpenStore creates root if it does not exist yet.
func OpenStore(root string) (*Store, error) {
	if err := mkdirExist(root); err != nil {
		return nil, fmt.Errorf("%w: could not create sequence folder: %w", StoreUnavailable, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", StoreUnavailable, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", StoreUnavailable, root)
	}
	return &Store{root: root}, nil
}

func (s *Store) Root() string {
	return s.root
}

// Peek returns the current value of the counter. A missing counter is 0 and
// is not created.
func (s *Store) Peek(project, tag string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(join(s.root, project, tag))
}

// Consume returns the current value of the counter and leaves value+1 on disk.
func (s *Store) Consume(project, tag string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dir := join(s.root, project)
	if err := mkdirExist(dir); err != nil {
		return 0, err
	}
	path := join(dir, tag)
	cur, err := s.read(path)
	if err != nil {
		return 0, err
	}
	if cur == math.MaxUint64 {
		return 0, fmt.Errorf("consume %s: %w", path, OverflowError)
	}
	if err := writeAtomic(dir, tag, strconv.FormatUint(cur+1, 10)); err != nil {
		return 0, err
	}
	return cur, nil
}

func (s *Store) read(path string) (uint64, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0, &ParseError{Path: path, Contents: string(b), Err: err}
	}
	return v, nil
}

// join concatenates path elements without cleaning them, so segments such
// as ".." or embedded separators are resolved by the filesystem as sent.
func join(elem ...string) string {
	return strings.Join(elem, string(os.PathSeparator))
}

func mkdirExist(dir string) error {
	err := os.Mkdir(dir, 0o755)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	return err
}

const tempPattern = ".sqnz.tmp-*"

// writeAtomic replaces dir/name with contents through a sibling temporary
// file, so readers never see a partially written value.
func writeAtomic(dir, name, contents string) (err error) {
	f, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()
	if err = f.Chmod(0o644); err != nil {
		return err
	}
	if _, err = f.WriteString(contents); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), join(dir, name))
}

// Package storage provides an append-only log file on a mounted volume with
// explicit flushing, so the medium can be removed between writes.
package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Error is a sentinel storage error.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrNotMounted = Error("volume not mounted")
	ErrClosed     = Error("file closed")
	ErrName       = Error("invalid file name")
)

// Volume is a directory on removable storage.
type Volume struct {
	root string

	mu  sync.Mutex
	dir *os.File
}

// NewVolume creates an unmounted volume rooted at root.
func NewVolume(root string) *Volume {
	return &Volume{root: root}
}

// Root returns the volume directory.
func (v *Volume) Root() string {
	return v.root
}

// Mount checks that the volume is present and holds a handle used for flushes.
func (v *Volume) Mount() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.dir != nil {
		return nil
	}

	info, err := os.Stat(v.root)
	if err != nil {
		return fmt.Errorf("failed to mount %s: %w", v.root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("failed to mount %s: not a directory", v.root)
	}

	dir, err := os.Open(v.root)
	if err != nil {
		return fmt.Errorf("failed to mount %s: %w", v.root, err)
	}
	v.dir = dir
	return nil
}

// Mounted reports whether Mount succeeded and Close has not been called.
func (v *Volume) Mounted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.dir != nil
}

// Exists reports whether name is present on the volume.
func (v *Volume) Exists(name string) (bool, error) {
	p, err := v.path(name)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat %s: %w", name, err)
}

// Remove deletes name from the volume.
func (v *Volume) Remove(name string) error {
	p, err := v.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	return nil
}

// Open opens name for appending, creating it if needed.
func (v *Volume) Open(name string) (*File, error) {
	p, err := v.path(name)
	if err != nil {
		return nil, err
	}

	created := false
	if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
		created = true
	}

	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}

	file := NewFile(name, f)
	file.created = created
	return file, nil
}

// Flush commits directory metadata (new files, sizes) to the medium.
func (v *Volume) Flush() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.dir == nil {
		return ErrNotMounted
	}
	if err := v.dir.Sync(); err != nil {
		return fmt.Errorf("failed to flush volume %s: %w", v.root, err)
	}
	return nil
}

// Close unmounts the volume.
func (v *Volume) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.dir == nil {
		return nil
	}
	err := v.dir.Close()
	v.dir = nil
	return err
}

func (v *Volume) path(name string) (string, error) {
	v.mu.Lock()
	mounted := v.dir != nil
	v.mu.Unlock()

	if !mounted {
		return "", ErrNotMounted
	}
	if name == "" || filepath.Base(name) != name || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrName, name)
	}
	return filepath.Join(v.root, name), nil
}

// Medium is the backing store of a File. *os.File implements it.
type Medium interface {
	io.Writer
	Sync() error
	Close() error
}

// File is a buffered, append-only file. Data reaches the medium only on Flush.
//
// A failed write or flush discards whatever is pending and the rest of the
// line being written, so one bad iteration costs one record and later
// records still reach the medium.
type File struct {
	name    string
	m       Medium
	w       *bufio.Writer
	created bool
	closed  bool
	discard bool // dropping bytes up to the next line break
}

// NewFile wraps an already open medium.
func NewFile(name string, m Medium) *File {
	return &File{
		name: name,
		m:    m,
		w:    bufio.NewWriter(m),
	}
}

// Name returns the file name on the volume.
func (f *File) Name() string {
	return f.name
}

// Created reports whether Open created the file.
func (f *File) Created() bool {
	return f.created
}

// WriteByte appends one byte.
func (f *File) WriteByte(c byte) error {
	if f.closed {
		return ErrClosed
	}
	if f.discard {
		f.discard = c != '\n'
		return nil
	}
	if err := f.w.WriteByte(c); err != nil {
		f.drop(c != '\n')
		return err
	}
	return nil
}

// WriteString appends s.
func (f *File) WriteString(s string) (int, error) {
	if f.closed {
		return 0, ErrClosed
	}
	n := 0
	if f.discard {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			return len(s), nil
		}
		f.discard = false
		n, s = i+1, s[i+1:]
	}
	m, err := f.w.WriteString(s)
	if err != nil {
		f.drop(!strings.HasSuffix(s, "\n"))
	}
	return n + m, err
}

// Flush writes buffered data and syncs the file to the medium.
func (f *File) Flush() error {
	if f.closed {
		return ErrClosed
	}
	if err := f.w.Flush(); err != nil {
		f.drop(false)
		return fmt.Errorf("failed to flush %s: %w", f.name, err)
	}
	if err := f.m.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", f.name, err)
	}
	return nil
}

// drop clears the sticky writer error together with the pending bytes.
func (f *File) drop(midLine bool) {
	f.w.Reset(f.m)
	f.discard = midLine
}

// Close flushes and closes the file.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	err := f.Flush()
	f.closed = true
	if cerr := f.m.Close(); err == nil {
		err = cerr
	}
	return err
}

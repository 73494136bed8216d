// Package pkg provides storage utilities shared by perfsieve commands.
package pkg

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// ErrReadOnly is returned when appending to a spill opened for reading.
var ErrReadOnly = errors.New("filespill is read-only")

// FileSpill is an append-only gob stream of items of type T on disk.
type FileSpill[T any] interface {
	Len() uint64
	Path() string
	Append(item T) error
	AppendBatch(items []T) error
	Get(index uint64) (T, error)
	Range(f func(index uint64, item T) error) error
	Close() error
}

type fileSpill[T any] struct {
	path    string
	file    *os.File
	encoder *gob.Encoder
	mu      sync.Mutex
	length  uint64
}

// NewFileSpill creates an empty spill at path, replacing any existing file.
func NewFileSpill[T any](path string) (FileSpill[T], error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		slog.Error("failed to create spill directory", "path", path, "error", err)
		return nil, fmt.Errorf("failed to create spill directory: %w", err)
	}

	file, err := os.Create(path) //nolint:gosec
	if err != nil {
		slog.Error("failed to create spill file", "path", path, "error", err)
		return nil, fmt.Errorf("failed to create spill file: %w", err)
	}

	slog.Debug("created filespill", "path", path)

	return &fileSpill[T]{path: path, file: file, encoder: gob.NewEncoder(file)}, nil
}

// OpenFileSpill opens an existing spill for reading and counts its items.
func OpenFileSpill[T any](path string) (FileSpill[T], error) {
	spill := &fileSpill[T]{path: path}

	err := spill.decode(func(uint64, T) (bool, error) {
		spill.length++
		return true, nil
	}, nil)
	if err != nil {
		return nil, err
	}

	slog.Debug("opened filespill", "path", path, "length", spill.length)

	return spill, nil
}

// Append implements FileSpill.
func (f *fileSpill[T]) Append(item T) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.encoder == nil {
		return ErrReadOnly
	}

	if err := f.encoder.Encode(item); err != nil {
		slog.Error("failed to encode item", "path", f.path, "index", f.length, "error", err)
		return fmt.Errorf("failed to encode item: %w", err)
	}

	f.length++

	return nil
}

// AppendBatch implements FileSpill.
func (f *fileSpill[T]) AppendBatch(items []T) error {
	for _, item := range items {
		if err := f.Append(item); err != nil {
			return err
		}
	}

	return nil
}

// Path implements FileSpill.
func (f *fileSpill[T]) Path() string {
	return f.path
}

// Len implements FileSpill.
func (f *fileSpill[T]) Len() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.length
}

// Close implements FileSpill. Items stay readable after Close.
func (f *fileSpill[T]) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return nil
	}

	if err := f.file.Close(); err != nil {
		slog.Error("failed to close file", "path", f.path, "error", err)
		return err
	}

	f.file = nil
	f.encoder = nil

	slog.Debug("closed filespill", "path", f.path, "length", f.length)

	return nil
}

// Get implements FileSpill.
func (f *fileSpill[T]) Get(index uint64) (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var found T

	if index >= f.length {
		return found, fmt.Errorf("index %d out of bounds (length %d)", index, f.length)
	}

	limit := index + 1

	err := f.decode(func(i uint64, item T) (bool, error) {
		if i == index {
			found = item
			return false, nil
		}

		return true, nil
	}, &limit)

	return found, err
}

// Range implements FileSpill.
func (f *fileSpill[T]) Range(fn func(index uint64, item T) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	limit := f.length

	return f.decode(func(i uint64, item T) (bool, error) {
		if err := fn(i, item); err != nil {
			return false, err
		}

		return true, nil
	}, &limit)
}

// decode streams items from the start of the file until fn stops, the limit
// is reached or the stream ends.
func (f *fileSpill[T]) decode(fn func(index uint64, item T) (bool, error), limit *uint64) error {
	file, err := os.Open(f.path)
	if err != nil {
		slog.Error("failed to open spill file", "path", f.path, "error", err)
		return fmt.Errorf("failed to open file: %w", err)
	}

	defer func() {
		if err := file.Close(); err != nil {
			slog.Error("failed to close file", "path", f.path, "error", err)
		}
	}()

	decoder := gob.NewDecoder(file)

	for i := uint64(0); limit == nil || i < *limit; i++ {
		// Fresh value per item: gob leaves fields with zero values untouched.
		var item T

		if err := decoder.Decode(&item); err != nil {
			if errors.Is(err, io.EOF) && limit == nil {
				return nil
			}

			slog.Error("failed to decode item", "path", f.path, "index", i, "error", err)

			return fmt.Errorf("failed to decode item at index %d: %w", i, err)
		}

		more, err := fn(i, item)
		if err != nil || !more {
			return err
		}
	}

	return nil
}

package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
)

var slotNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_\-]+$`)

// FileSlots implements the Slots interface using one file per slot on the
// local filesystem
type FileSlots struct {
	basePath string
}

// NewFileSlots creates a new FileSlots instance
func NewFileSlots(basePath string) (*FileSlots, error) {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	return &FileSlots{
		basePath: basePath,
	}, nil
}

func (l *FileSlots) path(key string) (string, error) {
	if !slotNamePattern.MatchString(key) {
		return "", fmt.Errorf("invalid slot name %q", key)
	}
	return filepath.Join(l.basePath, key+".json"), nil
}

// Get reads the slot file
func (l *FileSlots) Get(key string) ([]byte, error) {
	path, err := l.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Set writes the slot file through a temporary file renamed into place
func (l *FileSlots) Set(key string, data []byte) error {
	path, err := l.path(key)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing file: %w", err)
	}
	return nil
}

// Remove deletes the slot file
func (l *FileSlots) Remove(key string) error {
	path, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}

// Close is a no-op for the filesystem
func (l *FileSlots) Close() error {
	return nil
}

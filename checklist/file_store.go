// ABOUTME: JSON file checklist backend
// ABOUTME: Corrupt files are logged, removed and treated as an empty checklist
package checklist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jaksim/jaksim/config"
	"go.uber.org/zap"
)

// FileStore keeps the Book in one JSON document.
type FileStore struct {
	path   string
	logger *zap.Logger
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{path: path, logger: logger}
}

func (s *FileStore) Load(_ context.Context) (Book, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Book{}, nil
		}
		return nil, fmt.Errorf("failed to read checklist file: %w", err)
	}

	var book Book
	if err := json.Unmarshal(data, &book); err != nil {
		s.logger.Warn("discarding corrupt checklist file", zap.String("path", s.path), zap.Error(err))
		if rmErr := os.Remove(s.path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			s.logger.Error("failed to remove corrupt checklist file", zap.Error(rmErr))
		}
		return Book{}, nil
	}
	if book == nil {
		book = Book{}
	}
	return book, nil
}

func (s *FileStore) Save(_ context.Context, book Book) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create checklist directory: %w", err)
	}
	data, err := json.MarshalIndent(book.compact(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode checklist: %w", err)
	}
	if err := config.WriteFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("failed to write checklist file: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}

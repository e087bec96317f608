// ABOUTME: Credential Store for the Google authorization bundle
// ABOUTME: Reads/writes one JSON file; corrupt files are removed and reported as absent
package gcal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jaksim/jaksim/config"
	"github.com/jaksim/jaksim/models"
	"go.uber.org/zap"
)

// CredentialStore persists a single Credential at a well-known path.
// Concurrent writers are not coordinated: the last write wins.
type CredentialStore struct {
	path   string
	logger *zap.Logger
}

// NewCredentialStore returns a store backed by path.
func NewCredentialStore(path string, logger *zap.Logger) *CredentialStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CredentialStore{path: path, logger: logger}
}

// Path returns the credential file location.
func (s *CredentialStore) Path() string {
	return s.path
}

// Load returns the stored credential, or nil when none is stored.
// An unreadable or corrupt file is deleted and reported as absent.
func (s *CredentialStore) Load() (*models.Credential, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read credential file: %w", err)
	}

	var cred models.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		s.logger.Warn("discarding corrupt credential file",
			zap.String("path", s.path), zap.Error(err))
		if rmErr := os.Remove(s.path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			s.logger.Error("failed to remove corrupt credential file", zap.Error(rmErr))
		}
		return nil, nil
	}

	return &cred, nil
}

// Save overwrites the stored credential.
func (s *CredentialStore) Save(cred *models.Credential) error {
	if cred == nil {
		return errors.New("credential cannot be nil")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create credential directory: %w", err)
	}

	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}
	if err := config.WriteFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	return nil
}

// Clear deletes the stored credential. Clearing an absent credential is not an error.
func (s *CredentialStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete credential file: %w", err)
	}
	return nil
}

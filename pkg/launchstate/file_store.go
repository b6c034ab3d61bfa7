package launchstate

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/benmeehan/device-autosetup/pkg/file"
)

// FileStore keeps boolean preferences in a JSON file.
type FileStore struct {
	filePath string
	fileOps  file.FileOperations
	logger   zerolog.Logger

	mu sync.Mutex
}

// NewFileStore initializes a FileStore backed by filePath.
func NewFileStore(filePath string, fileOps file.FileOperations, logger zerolog.Logger) *FileStore {
	return &FileStore{
		filePath: filePath,
		fileOps:  fileOps,
		logger:   logger,
	}
}

// HasCompletedRegistration reports the persisted flag. A missing file means false.
func (s *FileStore) HasCompletedRegistration() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs, err := s.load()
	if err != nil {
		return false, err
	}
	return prefs[HasLaunchedBeforeKey], nil
}

// MarkRegistered sets the flag and writes it back to the file.
func (s *FileStore) MarkRegistered() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs, err := s.load()
	if err != nil {
		return err
	}
	if prefs[HasLaunchedBeforeKey] {
		return nil
	}
	prefs[HasLaunchedBeforeKey] = true

	if err := s.fileOps.WriteJsonFile(s.filePath, prefs); err != nil {
		return fmt.Errorf("failed to write launch state: %w", err)
	}
	s.logger.Info().Str("file", s.filePath).Msg("First-time setup flag updated")
	return nil
}

func (s *FileStore) load() (map[string]bool, error) {
	prefs := make(map[string]bool)
	if err := s.fileOps.ReadJsonFile(s.filePath, &prefs); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]bool), nil
		}
		return nil, fmt.Errorf("failed to read launch state: %w", err)
	}
	if prefs == nil {
		prefs = make(map[string]bool)
	}
	return prefs, nil
}

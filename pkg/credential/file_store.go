package credential

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/benmeehan/device-autosetup/pkg/encryption"
	"github.com/benmeehan/device-autosetup/pkg/file"
)

// FileStore keeps all credentials in a single file encrypted at rest.
type FileStore struct {
	filePath          string
	fileOps           file.FileOperations
	encryptionManager encryption.EncryptionManagerInterface
	logger            zerolog.Logger

	mu sync.Mutex
}

// NewFileStore initializes a FileStore backed by filePath.
func NewFileStore(filePath string, fileOps file.FileOperations,
	encryptionManager encryption.EncryptionManagerInterface, logger zerolog.Logger) *FileStore {
	return &FileStore{
		filePath:          filePath,
		fileOps:           fileOps,
		encryptionManager: encryptionManager,
		logger:            logger,
	}
}

// Save stores data under key, replacing any existing value.
func (s *FileStore) Save(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	entries[key] = append([]byte(nil), data...)

	if err := s.write(entries); err != nil {
		return err
	}
	s.logger.Debug().Str("key", key).Msg("Credential saved")
	return nil
}

// Load returns the value stored under key or ErrNotFound.
func (s *FileStore) Load(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return nil, err
	}
	data, ok := entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	return data, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := entries[key]; !ok {
		return nil
	}
	delete(entries, key)
	return s.write(entries)
}

// load reads and decrypts the store file. A missing or empty file is an empty store.
func (s *FileStore) load() (map[string][]byte, error) {
	entries := make(map[string][]byte)

	data, err := s.fileOps.ReadFileRaw(s.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return entries, nil
		}
		return nil, fmt.Errorf("failed to read credential file: %w", err)
	}
	if len(data) == 0 {
		return entries, nil
	}

	plaintext, err := s.encryptionManager.Decrypt(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt credential file: %w", err)
	}

	if err := json.Unmarshal(plaintext, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse credential data: %w", err)
	}
	return entries, nil
}

// write serializes, encrypts and atomically replaces the store file.
func (s *FileStore) write(entries map[string][]byte) error {
	plaintext, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to serialize credential data: %w", err)
	}

	ciphertext, err := s.encryptionManager.Encrypt(plaintext)
	if err != nil {
		return fmt.Errorf("failed to encrypt credential data: %w", err)
	}

	if err := s.fileOps.WriteFileRaw(s.filePath, ciphertext); err != nil {
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	return nil
}

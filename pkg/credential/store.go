package credential

import "errors"

// ErrNotFound is returned when no credential is stored under the requested key.
var ErrNotFound = errors.New("credential not found")

// Store is a persistent key to bytes store for secrets. Saving a key overwrites
// any previous value.
type Store interface {
	Save(key string, data []byte) error
	Load(key string) ([]byte, error)
	Delete(key string) error
}

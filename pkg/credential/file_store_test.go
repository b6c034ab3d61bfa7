package credential_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/device-autosetup/internal/mocks"
	"github.com/benmeehan/device-autosetup/pkg/credential"
	"github.com/benmeehan/device-autosetup/pkg/encryption"
	"github.com/benmeehan/device-autosetup/pkg/file"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func newEncryption(t *testing.T, key []byte) *encryption.EncryptionManager {
	t.Helper()
	manager := encryption.NewEncryptionManager(file.NewFileService())
	require.NoError(t, manager.InitializeWithKey(key))
	return manager
}

func newFileStore(t *testing.T, path string) *credential.FileStore {
	t.Helper()
	return credential.NewFileStore(path, file.NewFileService(), newEncryption(t, testKey), zerolog.Nop())
}

func TestFileStore_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.enc")
	store := newFileStore(t, path)

	_, err := store.Load("device_jwt")
	assert.ErrorIs(t, err, credential.ErrNotFound)

	require.NoError(t, store.Save("device_jwt", []byte("abc123")))

	data, err := store.Load("device_jwt")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc123"), data)

	// A fresh store over the same file sees the persisted value.
	reopened := newFileStore(t, path)
	data, err = reopened.Load("device_jwt")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc123"), data)
}

func TestFileStore_Overwrite(t *testing.T) {
	store := newFileStore(t, filepath.Join(t.TempDir(), "credentials.enc"))

	require.NoError(t, store.Save("device_jwt", []byte("first")))
	require.NoError(t, store.Save("other", []byte("kept")))
	require.NoError(t, store.Save("device_jwt", []byte("second")))

	data, err := store.Load("device_jwt")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)

	data, err = store.Load("other")
	require.NoError(t, err)
	assert.Equal(t, []byte("kept"), data)
}

func TestFileStore_Delete(t *testing.T) {
	store := newFileStore(t, filepath.Join(t.TempDir(), "credentials.enc"))

	require.NoError(t, store.Delete("missing"))
	require.NoError(t, store.Save("device_jwt", []byte("abc")))
	require.NoError(t, store.Delete("device_jwt"))

	_, err := store.Load("device_jwt")
	assert.ErrorIs(t, err, credential.ErrNotFound)
}

func TestFileStore_EncryptedAtRest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.enc")
	store := newFileStore(t, path)
	require.NoError(t, store.Save("device_jwt", []byte("plain-token-value")))

	raw, err := file.NewFileService().ReadFileRaw(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "plain-token-value")
	assert.NotContains(t, string(raw), "device_jwt")
}

func TestFileStore_WrongKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.enc")
	require.NoError(t, newFileStore(t, path).Save("device_jwt", []byte("abc")))

	other := credential.NewFileStore(path, file.NewFileService(),
		newEncryption(t, []byte("ffffffffffffffffffffffffffffffff")), zerolog.Nop())

	_, err := other.Load("device_jwt")
	require.Error(t, err)
	assert.NotErrorIs(t, err, credential.ErrNotFound)
}

func TestFileStore_WriteFailure(t *testing.T) {
	mockFileClient := new(mocks.FileOperations)
	mockFileClient.On("ReadFileRaw", "creds.enc").Return([]byte{}, nil)
	mockFileClient.On("WriteFileRaw", "creds.enc", mock.Anything).Return(errors.New("disk full"))

	store := credential.NewFileStore("creds.enc", mockFileClient, newEncryption(t, testKey), zerolog.Nop())

	err := store.Save("device_jwt", []byte("abc"))
	assert.ErrorContains(t, err, "disk full")
	mockFileClient.AssertExpectations(t)
}

func TestFileStore_ReadFailure(t *testing.T) {
	mockFileClient := new(mocks.FileOperations)
	mockFileClient.On("ReadFileRaw", "creds.enc").Return(nil, errors.New("permission denied"))

	store := credential.NewFileStore("creds.enc", mockFileClient, newEncryption(t, testKey), zerolog.Nop())

	_, err := store.Load("device_jwt")
	assert.ErrorContains(t, err, "permission denied")
	assert.NotErrorIs(t, err, credential.ErrNotFound)
}

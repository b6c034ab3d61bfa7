package encryption_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/device-autosetup/internal/mocks"
	"github.com/benmeehan/device-autosetup/pkg/encryption"
)

func TestEncryptionManager_RoundTrip(t *testing.T) {
	mockFileClient := new(mocks.FileOperations)
	mockFileClient.On("ReadFileRaw", "key.bin").Return([]byte("a sufficiently long key"), nil)

	manager := encryption.NewEncryptionManager(mockFileClient)
	require.NoError(t, manager.Initialize("key.bin"))

	first, err := manager.Encrypt([]byte("secret"))
	require.NoError(t, err)
	second, err := manager.Encrypt([]byte("secret"))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	plaintext, err := manager.Decrypt(first)
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), plaintext)
}

func TestEncryptionManager_Tampered(t *testing.T) {
	manager := encryption.NewEncryptionManager(nil)
	require.NoError(t, manager.InitializeWithKey([]byte("0123456789abcdef")))

	ciphertext, err := manager.Encrypt([]byte("secret"))
	require.NoError(t, err)
	ciphertext[len(ciphertext)-1] ^= 0xff

	_, err = manager.Decrypt(ciphertext)
	assert.Error(t, err)

	_, err = manager.Decrypt([]byte("short"))
	assert.Error(t, err)
}

func TestEncryptionManager_InitErrors(t *testing.T) {
	manager := encryption.NewEncryptionManager(nil)
	assert.Error(t, manager.InitializeWithKey([]byte("short")))

	_, err := manager.Encrypt([]byte("secret"))
	assert.ErrorContains(t, err, "not initialized")

	mockFileClient := new(mocks.FileOperations)
	mockFileClient.On("ReadFileRaw", "missing.key").Return(nil, errors.New("no such file"))
	err = encryption.NewEncryptionManager(mockFileClient).Initialize("missing.key")
	assert.ErrorContains(t, err, "failed to read key material")
}

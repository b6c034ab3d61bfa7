package launchstate_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/device-autosetup/internal/mocks"
	"github.com/benmeehan/device-autosetup/pkg/file"
	"github.com/benmeehan/device-autosetup/pkg/launchstate"
)

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "preferences.json")

	store := launchstate.NewFileStore(path, file.NewFileService(), zerolog.Nop())
	registered, err := store.HasCompletedRegistration()
	require.NoError(t, err)
	assert.False(t, registered)

	require.NoError(t, store.MarkRegistered())
	require.NoError(t, store.MarkRegistered())

	reopened := launchstate.NewFileStore(path, file.NewFileService(), zerolog.Nop())
	registered, err = reopened.HasCompletedRegistration()
	require.NoError(t, err)
	assert.True(t, registered)

	var prefs map[string]bool
	require.NoError(t, file.NewFileService().ReadJsonFile(path, &prefs))
	assert.Equal(t, map[string]bool{launchstate.HasLaunchedBeforeKey: true}, prefs)
}

func TestFileStore_ReadError(t *testing.T) {
	mockFileClient := new(mocks.FileOperations)
	mockFileClient.On("ReadJsonFile", "prefs.json", mock.Anything).Return(errors.New("unexpected EOF"))

	store := launchstate.NewFileStore("prefs.json", mockFileClient, zerolog.Nop())

	_, err := store.HasCompletedRegistration()
	assert.ErrorContains(t, err, "unexpected EOF")
	assert.Error(t, store.MarkRegistered())
	mockFileClient.AssertNotCalled(t, "WriteJsonFile", mock.Anything, mock.Anything)
}

func TestFileStore_WriteError(t *testing.T) {
	mockFileClient := new(mocks.FileOperations)
	mockFileClient.On("ReadJsonFile", "prefs.json", mock.Anything).Return(nil)
	mockFileClient.On("WriteJsonFile", "prefs.json", map[string]bool{launchstate.HasLaunchedBeforeKey: true}).
		Return(errors.New("read-only file system"))

	store := launchstate.NewFileStore("prefs.json", mockFileClient, zerolog.Nop())

	err := store.MarkRegistered()
	assert.ErrorContains(t, err, "read-only file system")
	mockFileClient.AssertExpectations(t)
}

func TestMemoryStore(t *testing.T) {
	store := launchstate.NewMemoryStore(false)
	registered, err := store.HasCompletedRegistration()
	require.NoError(t, err)
	assert.False(t, registered)

	require.NoError(t, store.MarkRegistered())
	registered, _ = store.HasCompletedRegistration()
	assert.True(t, registered)

	registered, _ = launchstate.NewMemoryStore(true).HasCompletedRegistration()
	assert.True(t, registered)
}

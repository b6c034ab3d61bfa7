package mocks

import "github.com/stretchr/testify/mock"

// CredentialStore is a mock implementation of credential.Store
type CredentialStore struct {
	mock.Mock
}

func (m *CredentialStore) Save(key string, data []byte) error {
	args := m.Called(key, data)
	return args.Error(0)
}

func (m *CredentialStore) Load(key string) ([]byte, error) {
	args := m.Called(key)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *CredentialStore) Delete(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

// LaunchStateStore is a mock implementation of launchstate.Store
type LaunchStateStore struct {
	mock.Mock
}

func (m *LaunchStateStore) HasCompletedRegistration() (bool, error) {
	args := m.Called()
	return args.Bool(0), args.Error(1)
}

func (m *LaunchStateStore) MarkRegistered() error {
	args := m.Called()
	return args.Error(0)
}

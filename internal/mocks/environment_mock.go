package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/benmeehan/device-autosetup/internal/models"
)

// ProfileSource is a mock implementation of identity.ProfileSource
type ProfileSource struct {
	mock.Mock
}

func (m *ProfileSource) Profile() (models.DeviceProfile, error) {
	args := m.Called()
	return args.Get(0).(models.DeviceProfile), args.Error(1)
}

// IntegrityChecker is a mock implementation of integrity.Checker
type IntegrityChecker struct {
	mock.Mock
}

func (m *IntegrityChecker) Verify() bool {
	args := m.Called()
	return args.Bool(0)
}

// NetworkStatus is a mock implementation of netstatus.Provider
type NetworkStatus struct {
	mock.Mock
}

func (m *NetworkStatus) Online() bool {
	args := m.Called()
	return args.Bool(0)
}

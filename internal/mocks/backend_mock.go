package mocks

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"

	"github.com/benmeehan/device-autosetup/internal/models"
)

// BackendClient is a mock implementation of backend.ClientInterface
type BackendClient struct {
	mock.Mock
}

func (m *BackendClient) Register(ctx context.Context, seed string, profile models.DeviceProfile) (*models.RegisterResponse, error) {
	args := m.Called(ctx, seed, profile)
	resp, _ := args.Get(0).(*models.RegisterResponse)
	return resp, args.Error(1)
}

func (m *BackendClient) RequestConfig(ctx context.Context, credential string, profile models.DeviceProfile) (json.RawMessage, error) {
	args := m.Called(ctx, credential, profile)
	config, _ := args.Get(0).(json.RawMessage)
	return config, args.Error(1)
}

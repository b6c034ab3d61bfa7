package models

import "encoding/json"

// DeviceInfo is the device description the backend uses to pick a configuration.
type DeviceInfo struct {
	// ModelIdentifier is the hardware model of the device.
	ModelIdentifier string `json:"modelIdentifier"`

	// OSVersion is the operating system version. The wire name is kept for
	// compatibility with the existing backend.
	OSVersion string `json:"iOSVersion"`
}

// RegisterRequest is the body of POST /register.
type RegisterRequest struct {
	// EncryptedSeed is the seed derived from the vendor identifier.
	EncryptedSeed string `json:"encryptedSeed"`

	// DeviceInfo describes the registering device.
	DeviceInfo DeviceInfo `json:"deviceInfo"`
}

// RegisterResponse is the body returned by a successful POST /register.
type RegisterResponse struct {
	// JWT is the bearer credential issued to the device.
	JWT string `json:"jwt"`

	// Config is the device configuration, when the backend sends one along with the credential.
	Config json.RawMessage `json:"config,omitempty"`
}

// ConfigRequest is the body of POST /requestConfig.
type ConfigRequest = DeviceInfo

// NewDeviceInfo builds the wire description of a profile.
func NewDeviceInfo(profile DeviceProfile) DeviceInfo {
	return DeviceInfo{
		ModelIdentifier: profile.Model,
		OSVersion:       profile.OSVersion,
	}
}

package constants

import "time"

const (
	// DefaultRetryInterval is the delay between registration retries.
	DefaultRetryInterval = 60 * time.Second

	// CredentialKey is the credential store key holding the device bearer token.
	CredentialKey = "device_jwt"

	// RegisterPath and RequestConfigPath are the backend endpoints.
	RegisterPath      = "register"
	RequestConfigPath = "requestConfig"

	// MaxResponseSize limits how much of a backend response body is read.
	MaxResponseSize = 1 << 20 // 1MB
)

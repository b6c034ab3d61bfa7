package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/benmeehan/device-autosetup/internal/constants"
	"github.com/benmeehan/device-autosetup/pkg/file"
)

// Config represents the structure of the configuration file.
type Config struct {
	Backend struct {
		BaseURL string        `yaml:"base_url"` // Base URL of the setup backend
		Timeout time.Duration `yaml:"timeout"`  // Per-request timeout, 0 means transport default
	} `yaml:"backend"`

	Setup struct {
		RetryInterval    time.Duration `yaml:"retry_interval"`    // Delay between registration retries
		RequireIntegrity bool          `yaml:"require_integrity"` // Refuse registration on a tampered runtime
		RequireNetwork   bool          `yaml:"require_network"`   // Skip registration attempts while offline
	} `yaml:"setup"`

	Storage struct {
		LaunchStateFile string `yaml:"launch_state_file"` // Path to the preference file holding HasLaunchedBefore
		CredentialFile  string `yaml:"credential_file"`   // Path to the encrypted credential file
		KeyFile         string `yaml:"key_file"`          // Path to the credential encryption key material
	} `yaml:"storage"`

	Identity struct {
		DeviceFile string `yaml:"device_file"` // Path to the device identity file
		DeviceType string `yaml:"device_type"` // phone, tablet or unknown
	} `yaml:"identity"`

	Integrity struct {
		SuspiciousPaths []string `yaml:"suspicious_paths"` // Files whose presence fails the integrity check
	} `yaml:"integrity"`

	Logging struct {
		Level string `yaml:"level"` // zerolog level name
	} `yaml:"logging"`
}

// LoadConfig loads the YAML configuration from the specified file.
// Missing optional values are filled with defaults.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	var config Config
	if err := fileClient.ReadYamlFile(filename, &config); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", filename, err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Setup.RetryInterval <= 0 {
		c.Setup.RetryInterval = constants.DefaultRetryInterval
	}
	if c.Storage.LaunchStateFile == "" {
		c.Storage.LaunchStateFile = "data/preferences.json"
	}
	if c.Storage.CredentialFile == "" {
		c.Storage.CredentialFile = "data/credentials.enc"
	}
	if c.Identity.DeviceFile == "" {
		c.Identity.DeviceFile = "data/device.json"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks the settings that have no usable default.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return errors.New("backend.base_url is required")
	}
	if c.Storage.KeyFile == "" {
		return errors.New("storage.key_file is required")
	}
	if c.Backend.Timeout < 0 {
		return errors.New("backend.timeout must not be negative")
	}
	return nil
}

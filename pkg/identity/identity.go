package identity

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/host"

	"github.com/benmeehan/device-autosetup/internal/models"
	"github.com/benmeehan/device-autosetup/pkg/file"
)

// Identity holds identifiers persisted by the agent itself.
type Identity struct {
	VendorID string `json:"vendor_id,omitempty"`
}

// ProfileSource supplies a DeviceProfile snapshot.
type ProfileSource interface {
	Profile() (models.DeviceProfile, error)
}

// HostProfileSource builds profiles from host information. When the host
// exposes no stable identifier, a generated vendor ID is persisted in deviceFile.
type HostProfileSource struct {
	deviceFile string
	deviceType models.DeviceType
	fileOps    file.FileOperations
	logger     zerolog.Logger

	hostInfo func() (*host.InfoStat, error)

	mu       sync.Mutex
	identity *Identity
}

// NewHostProfileSource initializes a HostProfileSource.
func NewHostProfileSource(deviceFile string, deviceType models.DeviceType, fileOps file.FileOperations,
	logger zerolog.Logger) *HostProfileSource {
	return &HostProfileSource{
		deviceFile: deviceFile,
		deviceType: deviceType,
		fileOps:    fileOps,
		logger:     logger,
		hostInfo:   host.Info,
	}
}

// Profile returns the current device profile.
func (h *HostProfileSource) Profile() (models.DeviceProfile, error) {
	info, err := h.hostInfo()
	if err != nil {
		return models.DeviceProfile{}, fmt.Errorf("failed to read host information: %w", err)
	}

	vendorID := strings.TrimSpace(info.HostID)
	if vendorID == "" {
		vendorID, err = h.fallbackVendorID()
		if err != nil {
			return models.DeviceProfile{}, err
		}
	}

	osVersion := info.PlatformVersion
	if osVersion == "" {
		osVersion = info.KernelVersion
	}

	return models.DeviceProfile{
		Model:      modelIdentifier(info),
		OSVersion:  osVersion,
		DeviceType: h.deviceType,
		VendorID:   vendorID,
	}, nil
}

// fallbackVendorID loads the persisted vendor ID, generating and saving one on first use.
func (h *HostProfileSource) fallbackVendorID() (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.identity == nil {
		var id Identity
		if err := h.fileOps.ReadJsonFile(h.deviceFile, &id); err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("failed to read device identity file: %w", err)
		}
		h.identity = &id
	}

	if h.identity.VendorID != "" {
		return h.identity.VendorID, nil
	}

	id := Identity{VendorID: uuid.New().String()}
	if err := h.fileOps.WriteJsonFile(h.deviceFile, id); err != nil {
		return "", fmt.Errorf("failed to save device identity file: %w", err)
	}
	h.identity = &id

	h.logger.Info().Str("vendor_id", id.VendorID).Msg("Generated vendor ID for device")
	return id.VendorID, nil
}

func modelIdentifier(info *host.InfoStat) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{info.Platform, info.KernelArch} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return info.OS
	}
	return strings.Join(parts, "-")
}

// StaticProfileSource always returns the same profile.
type StaticProfileSource models.DeviceProfile

func (s StaticProfileSource) Profile() (models.DeviceProfile, error) {
	return models.DeviceProfile(s), nil
}

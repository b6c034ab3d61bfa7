package models

import "strings"

// DeviceType is the coarse form factor of a device.
type DeviceType string

const (
	DeviceTypePhone   DeviceType = "phone"
	DeviceTypeTablet  DeviceType = "tablet"
	DeviceTypeUnknown DeviceType = "unknown"
)

// ParseDeviceType maps a configured value onto a DeviceType, defaulting to unknown.
func ParseDeviceType(s string) DeviceType {
	switch DeviceType(strings.ToLower(strings.TrimSpace(s))) {
	case DeviceTypePhone:
		return DeviceTypePhone
	case DeviceTypeTablet:
		return DeviceTypeTablet
	default:
		return DeviceTypeUnknown
	}
}

// DeviceProfile is an immutable snapshot of the device attributes used during setup.
type DeviceProfile struct {
	Model      string     `json:"model"`
	OSVersion  string     `json:"os_version"`
	DeviceType DeviceType `json:"device_type"`
	VendorID   string     `json:"vendor_id"`
}

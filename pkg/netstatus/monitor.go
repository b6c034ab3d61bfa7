package netstatus

import (
	"slices"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/net"
)

// Provider reports whether the device currently has a usable network path.
type Provider interface {
	Online() bool
}

// Monitor polls the host network interfaces on every call.
type Monitor struct {
	logger     zerolog.Logger
	interfaces func() ([]net.InterfaceStat, error)
}

// NewMonitor creates a Monitor backed by the host interface table.
func NewMonitor(logger zerolog.Logger) *Monitor {
	return &Monitor{
		logger: logger,
		interfaces: func() ([]net.InterfaceStat, error) {
			return net.Interfaces()
		},
	}
}

// Online reports true when at least one non-loopback interface is up and has an address.
func (m *Monitor) Online() bool {
	ifaces, err := m.interfaces()
	if err != nil {
		m.logger.Warn().Err(err).Msg("Failed to list network interfaces")
		return false
	}

	for _, iface := range ifaces {
		if !slices.Contains(iface.Flags, "up") || slices.Contains(iface.Flags, "loopback") {
			continue
		}
		if len(iface.Addrs) > 0 {
			return true
		}
	}

	m.logger.Debug().Int("interfaces", len(ifaces)).Msg("No usable network interface")
	return false
}

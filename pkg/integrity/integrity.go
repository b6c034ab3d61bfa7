package integrity

import (
	"bufio"
	"strings"

	"github.com/rs/zerolog"

	"github.com/benmeehan/device-autosetup/pkg/file"
)

const procStatusPath = "/proc/self/status"

// DefaultSuspiciousPaths lists files whose presence indicates a modified runtime.
var DefaultSuspiciousPaths = []string{
	"/usr/sbin/frida-server",
	"/data/local/tmp/frida-server",
	"/system/xbin/su",
	"/system/bin/su",
}

// Checker reports whether the runtime environment can be trusted.
type Checker interface {
	Verify() bool
}

// RuntimeChecker rejects traced processes and hosts carrying known tampering tools.
type RuntimeChecker struct {
	fileOps         file.FileOperations
	suspiciousPaths []string
	logger          zerolog.Logger
}

// NewRuntimeChecker creates a RuntimeChecker. An empty path list uses DefaultSuspiciousPaths.
func NewRuntimeChecker(fileOps file.FileOperations, suspiciousPaths []string, logger zerolog.Logger) *RuntimeChecker {
	if len(suspiciousPaths) == 0 {
		suspiciousPaths = DefaultSuspiciousPaths
	}
	return &RuntimeChecker{
		fileOps:         fileOps,
		suspiciousPaths: suspiciousPaths,
		logger:          logger,
	}
}

// Verify returns true when no debugger is attached and no suspicious path exists.
func (c *RuntimeChecker) Verify() bool {
	if c.isTraced() {
		c.logger.Warn().Msg("Debugger attached to process")
		return false
	}

	for _, path := range c.suspiciousPaths {
		exists, err := c.fileOps.IsFileExists(path)
		if err != nil {
			c.logger.Debug().Err(err).Str("path", path).Msg("Unable to stat path")
			continue
		}
		if exists {
			c.logger.Warn().Str("path", path).Msg("Suspicious file present")
			return false
		}
	}

	return true
}

// isTraced reads TracerPid from the process status. Platforms without procfs are treated as untraced.
func (c *RuntimeChecker) isTraced() bool {
	status, err := c.fileOps.ReadFile(procStatusPath)
	if err != nil {
		return false
	}

	scanner := bufio.NewScanner(strings.NewReader(status))
	for scanner.Scan() {
		name, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok || name != "TracerPid" {
			continue
		}
		value = strings.TrimSpace(value)
		return value != "" && value != "0"
	}
	return false
}

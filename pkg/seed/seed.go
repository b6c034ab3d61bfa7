// Package seed derives the registration seed sent to the backend.
//
// The transform is a reversible wrapper the backend strips to recover the
// vendor identifier. It provides no confidentiality and must be replaced by a
// keyed transform before the seed is treated as secret.
package seed

import "strings"

const (
	prefix = "Encrypted("
	suffix = ")"
)

// Derive returns the seed for vendorID. The result is deterministic so that
// retried registrations carry an identical payload.
func Derive(vendorID string) string {
	return prefix + vendorID + suffix
}

// VendorID reverses Derive. It reports false when s is not a derived seed.
func VendorID(s string) (string, bool) {
	if !strings.HasPrefix(s, prefix) || !strings.HasSuffix(s, suffix) || len(s) < len(prefix)+len(suffix) {
		return "", false
	}
	return s[len(prefix) : len(s)-len(suffix)], true
}

package launchstate

// HasLaunchedBeforeKey is the preference key recording a completed registration.
const HasLaunchedBeforeKey = "HasLaunchedBefore"

// Store persists whether the device has completed first-time registration.
// Once marked, the flag is never cleared.
type Store interface {
	HasCompletedRegistration() (bool, error)
	MarkRegistered() error
}

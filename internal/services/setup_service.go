package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/filecoin-project/go-clock"
	"github.com/rs/zerolog"

	"github.com/benmeehan/device-autosetup/internal/constants"
	"github.com/benmeehan/device-autosetup/internal/models"
	"github.com/benmeehan/device-autosetup/pkg/backend"
	"github.com/benmeehan/device-autosetup/pkg/credential"
	"github.com/benmeehan/device-autosetup/pkg/identity"
	"github.com/benmeehan/device-autosetup/pkg/integrity"
	"github.com/benmeehan/device-autosetup/pkg/launchstate"
	"github.com/benmeehan/device-autosetup/pkg/netstatus"
	"github.com/benmeehan/device-autosetup/pkg/seed"
)

var (
	// ErrMissingCredential is reported when a registered device has no stored credential.
	ErrMissingCredential = errors.New("credential not found in store")

	// ErrIntegrityCheckFailed is reported when registration is refused on an untrusted runtime.
	ErrIntegrityCheckFailed = errors.New("runtime integrity check failed")

	// ErrNetworkUnavailable is reported when registration is skipped while offline.
	// It also matches backend.ErrTransport.
	ErrNetworkUnavailable = fmt.Errorf("%w: network unavailable", backend.ErrTransport)
)

// SetupResult is delivered exactly once per Setup call.
type SetupResult struct {
	Success bool
	Config  json.RawMessage
	Err     error
}

// SetupOptions tunes the setup flow.
type SetupOptions struct {
	RetryInterval    time.Duration
	RequireIntegrity bool
	RequireNetwork   bool
}

// SetupService registers the device on first launch and fetches its configuration afterwards.
type SetupService struct {
	backendClient backend.ClientInterface
	profiles      identity.ProfileSource
	credentials   credential.Store
	launchState   launchstate.Store
	integrity     integrity.Checker
	network       netstatus.Provider
	opts          SetupOptions
	logger        zerolog.Logger

	retry *RetryScheduler

	// mu serializes the first-launch check and every registration attempt with its persistence.
	mu sync.Mutex
	wg sync.WaitGroup
}

// NewSetupService wires a SetupService. integrityChecker and network may be nil,
// in which case the corresponding checks are skipped.
func NewSetupService(
	backendClient backend.ClientInterface,
	profiles identity.ProfileSource,
	credentials credential.Store,
	launchState launchstate.Store,
	integrityChecker integrity.Checker,
	network netstatus.Provider,
	clk clock.Clock,
	opts SetupOptions,
	logger zerolog.Logger,
) *SetupService {
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = constants.DefaultRetryInterval
	}
	if clk == nil {
		clk = clock.New()
	}

	s := &SetupService{
		backendClient: backendClient,
		profiles:      profiles,
		credentials:   credentials,
		launchState:   launchState,
		integrity:     integrityChecker,
		network:       network,
		opts:          opts,
		logger:        logger,
	}
	s.retry = NewRetryScheduler(s.retryRegistration, clk, ConstantPolicy(opts.RetryInterval),
		logger.With().Str("component", "retry").Logger())
	return s
}

// Setup runs the setup flow asynchronously. The returned channel receives
// exactly one result and is then closed.
func (s *SetupService) Setup(ctx context.Context) <-chan SetupResult {
	resultCh := make(chan SetupResult, 1)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(resultCh)
		resultCh <- s.run(ctx)
	}()

	return resultCh
}

// Retry exposes the scheduler owned by the service.
func (s *SetupService) Retry() *RetryScheduler {
	return s.retry
}

// Shutdown stops any retry cycle and waits for in-flight Setup calls.
func (s *SetupService) Shutdown() {
	s.retry.Shutdown()
	s.wg.Wait()
}

func (s *SetupService) run(ctx context.Context) SetupResult {
	s.logger.Info().Msg("Starting setup process")

	profile, err := s.profiles.Profile()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read device profile")
		return SetupResult{Err: fmt.Errorf("failed to read device profile: %w", err)}
	}

	s.mu.Lock()
	registered, err := s.launchState.HasCompletedRegistration()
	if err != nil {
		s.mu.Unlock()
		s.logger.Error().Err(err).Msg("Failed to read launch state")
		return SetupResult{Err: err}
	}

	if !registered {
		defer s.mu.Unlock()
		s.logger.Info().Msg("First launch detected")
		return s.firstTimeSetup(ctx, profile)
	}

	token, err := s.credentials.Load(constants.CredentialKey)
	s.mu.Unlock()

	s.logger.Info().Msg("Not first launch, proceeding with regular setup")
	if err != nil || len(token) == 0 {
		if err != nil && !errors.Is(err, credential.ErrNotFound) {
			s.logger.Error().Err(err).Msg("Failed to load credential")
		}
		s.logger.Error().Msg("Credential not found in store")
		return SetupResult{Err: ErrMissingCredential}
	}

	return s.regularSetup(ctx, string(token), profile)
}

// firstTimeSetup registers the device. The caller holds s.mu.
func (s *SetupService) firstTimeSetup(ctx context.Context, profile models.DeviceProfile) SetupResult {
	if s.opts.RequireIntegrity && s.integrity != nil && !s.integrity.Verify() {
		s.logger.Error().Msg("Runtime integrity check failed, refusing to register")
		return SetupResult{Err: ErrIntegrityCheckFailed}
	}

	registrationSeed := seed.Derive(profile.VendorID)
	s.logger.Debug().Msg("Registration seed generated")

	config, err := s.registerLocked(ctx, registrationSeed, profile)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Registration failed, starting retry mechanism")
		s.retry.StartRetry(registrationSeed, profile)
		return SetupResult{Err: err}
	}

	s.retry.Cancel()
	return SetupResult{Success: true, Config: config}
}

func (s *SetupService) regularSetup(ctx context.Context, token string, profile models.DeviceProfile) SetupResult {
	config, err := s.backendClient.RequestConfig(ctx, token, profile)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to request device configuration")
		return SetupResult{Err: err}
	}
	return SetupResult{Success: true, Config: config}
}

// retryRegistration is the attempt run on every retry tick.
func (s *SetupService) retryRegistration(ctx context.Context, registrationSeed string, profile models.DeviceProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.registerLocked(ctx, registrationSeed, profile)
	return err
}

// registerLocked performs one registration and persists its credential. The caller holds s.mu.
func (s *SetupService) registerLocked(ctx context.Context, registrationSeed string, profile models.DeviceProfile) (json.RawMessage, error) {
	if s.opts.RequireNetwork && s.network != nil && !s.network.Online() {
		return nil, ErrNetworkUnavailable
	}

	response, err := s.backendClient.Register(ctx, registrationSeed, profile)
	if err != nil {
		return nil, err
	}

	if err := s.credentials.Save(constants.CredentialKey, []byte(response.JWT)); err != nil {
		return nil, fmt.Errorf("failed to save credential: %w", err)
	}
	if err := s.launchState.MarkRegistered(); err != nil {
		return nil, fmt.Errorf("failed to mark registration complete: %w", err)
	}

	s.logger.Info().Msg("Credential received and saved")
	return response.Config, nil
}

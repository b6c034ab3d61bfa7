package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/filecoin-project/go-clock"
	"github.com/rs/zerolog"

	"github.com/benmeehan/device-autosetup/internal/models"
)

// RegistrationAttempt performs one registration with seed and profile, persisting
// the result on success. ctx is cancelled when the retry cycle is cancelled.
type RegistrationAttempt func(ctx context.Context, seed string, profile models.DeviceProfile) error

// RetryState is a snapshot of the scheduler.
type RetryState struct {
	PendingSeed    string
	PendingProfile models.DeviceProfile
	Active         bool
}

// RetryScheduler owns at most one retry cycle. A cycle re-invokes the
// registration attempt with the same seed and profile on every timer tick
// until an attempt succeeds, the policy stops, or the cycle is cancelled.
type RetryScheduler struct {
	attempt   RegistrationAttempt
	clock     clock.Clock
	newPolicy func() backoff.BackOff
	logger    zerolog.Logger

	mu     sync.Mutex
	state  RetryState
	cancel context.CancelFunc
	cycle  uint64
	wg     sync.WaitGroup
}

// NewRetryScheduler creates an idle scheduler. newPolicy is called once per cycle.
func NewRetryScheduler(attempt RegistrationAttempt, clk clock.Clock, newPolicy func() backoff.BackOff,
	logger zerolog.Logger) *RetryScheduler {
	return &RetryScheduler{
		attempt:   attempt,
		clock:     clk,
		newPolicy: newPolicy,
		logger:    logger,
	}
}

// ConstantPolicy returns a policy factory for a fixed retry interval.
func ConstantPolicy(interval time.Duration) func() backoff.BackOff {
	return func() backoff.BackOff {
		return backoff.NewConstantBackOff(interval)
	}
}

// StartRetry replaces any running cycle with a new one for seed and profile.
// The first attempt happens one interval after the call.
func (r *RetryScheduler) StartRetry(seed string, profile models.DeviceProfile) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		r.logger.Info().Msg("Cancelling existing retry cycle")
		r.cancel()
		r.cancel = nil
	}

	policy := r.newPolicy()
	policy.Reset()
	delay := policy.NextBackOff()
	if delay == backoff.Stop {
		r.logger.Warn().Msg("Retry policy allows no attempts")
		r.state = RetryState{}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	timer := r.clock.Timer(delay)

	r.cycle++
	r.cancel = cancel
	r.state = RetryState{PendingSeed: seed, PendingProfile: profile, Active: true}

	r.logger.Info().Dur("interval", delay).Msg("Starting retry mechanism")

	r.wg.Add(1)
	go r.run(ctx, r.cycle, timer, policy, seed, profile)
}

// Cancel stops the running cycle. It is a no-op when idle and does not wait
// for an in-flight attempt to return.
func (r *RetryScheduler) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel == nil {
		return
	}
	r.cancel()
	r.cancel = nil
	r.state = RetryState{}
	r.logger.Info().Msg("Retry cycle cancelled")
}

// Active reports whether a retry cycle is running.
func (r *RetryScheduler) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Active
}

// State returns a snapshot of the current retry state.
func (r *RetryScheduler) State() RetryState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Shutdown cancels the running cycle and waits for its loop to exit.
func (r *RetryScheduler) Shutdown() {
	r.Cancel()
	r.wg.Wait()
}

// run drives one cycle. The timer is re-armed before each attempt so ticks stay periodic.
func (r *RetryScheduler) run(ctx context.Context, cycle uint64, timer *clock.Timer, policy backoff.BackOff,
	seed string, profile models.DeviceProfile) {
	defer r.wg.Done()
	defer r.finish(cycle)
	defer timer.Stop()

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		if ctx.Err() != nil {
			return
		}

		next := policy.NextBackOff()
		if next != backoff.Stop {
			timer.Reset(next)
		}

		r.logger.Info().Int("attempt", attempt).Msg("Attempting to reconnect to the backend")
		err := r.attempt(ctx, seed, profile)
		switch {
		case err == nil:
			r.logger.Info().Int("attempt", attempt).Msg("Registration retry succeeded")
			return
		case ctx.Err() != nil:
			return
		case errors.Is(err, ErrNetworkUnavailable):
			r.logger.Debug().Int("attempt", attempt).Msg("Network unavailable, skipping registration attempt")
		default:
			r.logger.Warn().Err(err).Int("attempt", attempt).Msg("Registration retry failed")
		}

		if next == backoff.Stop {
			r.logger.Warn().Int("attempts", attempt).Msg("Retry policy exhausted, giving up")
			return
		}
	}
}

// finish returns the scheduler to idle if cycle is still the current one.
func (r *RetryScheduler) finish(cycle uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cycle != cycle || r.cancel == nil {
		return
	}
	r.cancel()
	r.cancel = nil
	r.state = RetryState{}
}

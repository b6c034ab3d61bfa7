package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/filecoin-project/go-clock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/device-autosetup/internal/models"
	"github.com/benmeehan/device-autosetup/internal/services"
)

// attemptRecorder records registration attempts and returns scripted results.
type attemptRecorder struct {
	mu      sync.Mutex
	seeds   []string
	results []error
}

func (a *attemptRecorder) attempt(ctx context.Context, seed string, profile models.DeviceProfile) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.seeds = append(a.seeds, seed)
	if len(a.results) == 0 {
		return errors.New("backend unavailable")
	}
	err := a.results[0]
	a.results = a.results[1:]
	return err
}

func (a *attemptRecorder) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.seeds)
}

func (a *attemptRecorder) recorded() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.seeds...)
}

func newTestScheduler(t *testing.T, recorder *attemptRecorder, policy func() backoff.BackOff) (*services.RetryScheduler, *clock.Mock) {
	clk := clock.NewMock()
	if policy == nil {
		policy = services.ConstantPolicy(retryInterval)
	}
	scheduler := services.NewRetryScheduler(recorder.attempt, clk, policy, zerolog.Nop())
	t.Cleanup(scheduler.Shutdown)
	return scheduler, clk
}

func waitForAttempts(t *testing.T, recorder *attemptRecorder, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return recorder.count() == n
	}, 2*time.Second, 5*time.Millisecond)
}

func TestRetryScheduler_FiresAfterInterval(t *testing.T) {
	recorder := &attemptRecorder{}
	scheduler, clk := newTestScheduler(t, recorder, nil)

	scheduler.StartRetry("seed-a", testProfile)
	assert.True(t, scheduler.Active())

	clk.Add(retryInterval - time.Second)
	assert.Zero(t, recorder.count())

	clk.Add(time.Second)
	waitForAttempts(t, recorder, 1)
}

func TestRetryScheduler_RepeatsWithSamePayload(t *testing.T) {
	recorder := &attemptRecorder{}
	scheduler, clk := newTestScheduler(t, recorder, nil)

	scheduler.StartRetry("seed-a", testProfile)
	for i := 1; i <= 3; i++ {
		clk.Add(retryInterval)
		waitForAttempts(t, recorder, i)
	}

	assert.Equal(t, []string{"seed-a", "seed-a", "seed-a"}, recorder.recorded())
	assert.True(t, scheduler.Active())
}

func TestRetryScheduler_StopsAfterSuccess(t *testing.T) {
	recorder := &attemptRecorder{results: []error{errors.New("500"), nil}}
	scheduler, clk := newTestScheduler(t, recorder, nil)

	scheduler.StartRetry("seed-a", testProfile)
	clk.Add(retryInterval)
	waitForAttempts(t, recorder, 1)
	clk.Add(retryInterval)
	waitForAttempts(t, recorder, 2)

	assert.Eventually(t, func() bool { return !scheduler.Active() }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, services.RetryState{}, scheduler.State())

	clk.Add(retryInterval)
	clk.Add(retryInterval)
	assert.Equal(t, 2, recorder.count())
}

func TestRetryScheduler_StartRetryReplacesCycle(t *testing.T) {
	recorder := &attemptRecorder{}
	scheduler, clk := newTestScheduler(t, recorder, nil)

	otherProfile := testProfile
	otherProfile.VendorID = "other"

	scheduler.StartRetry("seed-a", testProfile)
	scheduler.StartRetry("seed-b", otherProfile)

	state := scheduler.State()
	assert.True(t, state.Active)
	assert.Equal(t, "seed-b", state.PendingSeed)
	assert.Equal(t, otherProfile, state.PendingProfile)

	clk.Add(retryInterval)
	waitForAttempts(t, recorder, 1)
	assert.Never(t, func() bool { return recorder.count() > 1 }, 100*time.Millisecond, 10*time.Millisecond)
	assert.Equal(t, []string{"seed-b"}, recorder.recorded())
}

func TestRetryScheduler_Cancel(t *testing.T) {
	recorder := &attemptRecorder{}
	scheduler, clk := newTestScheduler(t, recorder, nil)

	// Idle cancel is a no-op.
	scheduler.Cancel()
	assert.False(t, scheduler.Active())

	scheduler.StartRetry("seed-a", testProfile)
	scheduler.Cancel()
	scheduler.Cancel()
	assert.False(t, scheduler.Active())

	clk.Add(retryInterval)
	assert.Never(t, func() bool { return recorder.count() > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestRetryScheduler_PolicyExhausted(t *testing.T) {
	recorder := &attemptRecorder{}
	policy := func() backoff.BackOff {
		return backoff.WithMaxRetries(backoff.NewConstantBackOff(retryInterval), 2)
	}
	scheduler, clk := newTestScheduler(t, recorder, policy)

	scheduler.StartRetry("seed-a", testProfile)
	clk.Add(retryInterval)
	waitForAttempts(t, recorder, 1)
	clk.Add(retryInterval)
	waitForAttempts(t, recorder, 2)

	assert.Eventually(t, func() bool { return !scheduler.Active() }, 2*time.Second, 5*time.Millisecond)
}

func TestRetryScheduler_ShutdownWaitsForLoop(t *testing.T) {
	recorder := &attemptRecorder{}
	scheduler, _ := newTestScheduler(t, recorder, nil)

	scheduler.StartRetry("seed-a", testProfile)
	scheduler.Shutdown()

	assert.False(t, scheduler.Active())
}

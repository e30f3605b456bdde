package rewards

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joyridegames/joyride/pkg/game/constants"
	gametypes "github.com/joyridegames/joyride/pkg/game/types"
	"github.com/joyridegames/joyride/pkg/persistence"
	"github.com/joyridegames/joyride/pkg/state"
)

// fakeClock drives both the scheduler and the store.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestScheduler(t *testing.T, clock *fakeClock) (*Scheduler, *state.EntitlementStore) {
	store, err := state.NewEntitlementStore(context.Background(), state.NewEntitlementStoreOptions{
		Adapter: persistence.NewMemoryAdapter(),
		Now:     clock.Now,
	})
	require.NoError(t, err)
	scheduler := NewScheduler(NewSchedulerOptions{
		Store: store,
		Now:   clock.Now,
	})
	return scheduler, store
}

func TestScheduler_ClaimDailyReward(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	scheduler, store := newTestScheduler(t, clock)

	result, err := scheduler.ClaimDailyReward(ctx)
	require.NoError(t, err)
	assert.Equal(t, ClaimGranted, result)
	assert.Equal(t, 60, store.Current().GasTank)

	// second claim within the same day index is a no-op
	clock.Advance(6 * time.Hour)
	result, err = scheduler.ClaimDailyReward(ctx)
	require.NoError(t, err)
	assert.Equal(t, ClaimAlreadyClaimed, result)
	assert.Equal(t, 60, store.Current().GasTank)

	// day N+1 succeeds again
	clock.Advance(24 * time.Hour)
	result, err = scheduler.ClaimDailyReward(ctx)
	require.NoError(t, err)
	assert.Equal(t, ClaimGranted, result)
	assert.Equal(t, 70, store.Current().GasTank)
}

func TestScheduler_ClaimDailyRewardClampsAtCapacity(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	scheduler, store := newTestScheduler(t, clock)

	_, err := store.Apply(ctx, func(gs gametypes.GameState) gametypes.GameState {
		gs.GasTank = 95
		return gs
	})
	require.NoError(t, err)

	result, err := scheduler.ClaimDailyReward(ctx)
	require.NoError(t, err)
	assert.Equal(t, ClaimGranted, result)
	assert.Equal(t, 100, store.Current().GasTank)
}

func TestScheduler_ClaimDailyRewardTankFull(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	scheduler, store := newTestScheduler(t, clock)

	_, err := store.Apply(ctx, func(gs gametypes.GameState) gametypes.GameState {
		gs.GasTank = constants.GasTankCapacity
		return gs
	})
	require.NoError(t, err)

	result, err := scheduler.ClaimDailyReward(ctx)
	require.NoError(t, err)
	assert.Equal(t, ClaimTankFull, result)

	// the day was not consumed: a claim succeeds once there is room
	_, err = store.Apply(ctx, func(gs gametypes.GameState) gametypes.GameState {
		gs.GasTank = 40
		return gs
	})
	require.NoError(t, err)
	result, err = scheduler.ClaimDailyReward(ctx)
	require.NoError(t, err)
	assert.Equal(t, ClaimGranted, result)
	assert.Equal(t, 50, store.Current().GasTank)
}

func TestScheduler_BoostExpiresWithoutDeactivation(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	scheduler, store := newTestScheduler(t, clock)

	expiry, err := scheduler.ActivateBoost(ctx)
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(constants.BoostDuration), expiry)
	assert.True(t, store.Current().BoostActive)

	clock.Advance(4 * time.Minute)
	assert.True(t, store.Current().BoostActive)

	clock.Advance(2 * time.Minute)
	assert.False(t, store.Current().BoostActive)
}

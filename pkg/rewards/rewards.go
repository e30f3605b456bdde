package rewards

import (
	"context"
	"time"

	"github.com/joyridegames/joyride/pkg/game/constants"
	gametypes "github.com/joyridegames/joyride/pkg/game/types"
	"github.com/joyridegames/joyride/pkg/log"
	"github.com/joyridegames/joyride/pkg/state"
)

// ClaimResult reports the outcome of a daily reward claim. Only Granted
// changes state; the others are no-ops, not errors.
type ClaimResult string

const (
	ClaimGranted        ClaimResult = "granted"
	ClaimAlreadyClaimed ClaimResult = "already_claimed"
	ClaimTankFull       ClaimResult = "tank_full"
)

// Scheduler grants the time-gated bonuses: the once-a-day gas reward and
// the temporary boost window. All gating is recomputed from the wall
// clock and persisted timestamps, never from cached flags.
type Scheduler struct {
	store state.Store
	now   func() time.Time
}

type NewSchedulerOptions struct {
	Store state.Store
	// Now defaults to time.Now.
	Now func() time.Time
}

func NewScheduler(opts NewSchedulerOptions) *Scheduler {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Scheduler{
		store: opts.Store,
		now:   now,
	}
}

// ClaimDailyReward grants the daily gas bonus once per day index (days
// since the unix epoch). A repeat claim on the same day reports
// ClaimAlreadyClaimed; a full tank reports ClaimTankFull and does not
// consume the day.
func (s *Scheduler) ClaimDailyReward(ctx context.Context) (ClaimResult, error) {
	today := s.now().UnixMilli() / constants.MillisPerDay

	result := ClaimGranted
	_, err := s.store.Apply(ctx, func(gs gametypes.GameState) gametypes.GameState {
		if today <= gs.LastClaimDay {
			result = ClaimAlreadyClaimed
			return gs
		}
		if gs.GasTank >= constants.GasTankCapacity {
			result = ClaimTankFull
			return gs
		}
		gs.GasTank += constants.DailyRewardGas
		gs.LastClaimDay = today
		return gs
	})
	if err != nil {
		return "", err
	}
	if result == ClaimGranted {
		log.Info("Daily reward claimed for day %d", today)
	}
	return result, nil
}

// ActivateBoost opens a boost window ending BoostDuration from now and
// returns its expiry. Whether the boost is active is always derived from
// the clock at read time, so the window closes without a timer callback.
func (s *Scheduler) ActivateBoost(ctx context.Context) (time.Time, error) {
	expiry := s.now().Add(constants.BoostDuration)
	_, err := s.store.Apply(ctx, func(gs gametypes.GameState) gametypes.GameState {
		gs.BoostExpiry = expiry.UnixMilli()
		return gs
	})
	if err != nil {
		return time.Time{}, err
	}
	log.Info("Boost mode active until %s", expiry.Format(time.RFC3339))
	return expiry, nil
}

package game

import (
	"context"
	"fmt"
	"time"

	"github.com/joyridegames/joyride/pkg/game/constants"
	gametypes "github.com/joyridegames/joyride/pkg/game/types"
	"github.com/joyridegames/joyride/pkg/log"
	"github.com/joyridegames/joyride/pkg/purchases"
	"github.com/joyridegames/joyride/pkg/rewards"
	"github.com/joyridegames/joyride/pkg/sharing"
	"github.com/joyridegames/joyride/pkg/state"
	"github.com/joyridegames/joyride/pkg/storefront"
)

const defaultTickInterval = 1 * time.Second

// GameManager is the facade the UI layer talks to. It wires the
// entitlement store, the purchase reconciler, the reward scheduler and
// the sharer behind gameplay-shaped operations, and republishes the
// state on a periodic tick so the boost window expires observably.
type GameManager struct {
	store        *state.EntitlementStore
	gateway      storefront.Gateway
	reconciler   *purchases.Reconciler
	scheduler    *rewards.Scheduler
	sharer       sharing.Sharer
	tickInterval time.Duration
}

// NewGameManagerOptions contains options for creating a new GameManager.
type NewGameManagerOptions struct {
	Store   *state.EntitlementStore
	Gateway storefront.Gateway
	Sharer  sharing.Sharer
	// Now is the wall clock used for reward gating. Defaults to time.Now.
	Now func() time.Time
	// TickInterval is the boost republish cadence. Defaults to 1s.
	TickInterval time.Duration
}

func NewGameManager(opts NewGameManagerOptions) *GameManager {
	tickInterval := opts.TickInterval
	if tickInterval == 0 {
		tickInterval = defaultTickInterval
	}
	return &GameManager{
		store:   opts.Store,
		gateway: opts.Gateway,
		reconciler: purchases.NewReconciler(purchases.NewReconcilerOptions{
			Gateway: opts.Gateway,
			Store:   opts.Store,
		}),
		scheduler: rewards.NewScheduler(rewards.NewSchedulerOptions{
			Store: opts.Store,
			Now:   opts.Now,
		}),
		sharer:       opts.Sharer,
		tickInterval: tickInterval,
	}
}

// Start runs the purchase reconciler, replays historical entitlements,
// and ticks until ctx is cancelled. The tick republishes the state only
// when the derived boost flag flips.
func (gm *GameManager) Start(ctx context.Context) error {
	go gm.reconciler.Start(ctx)

	// Subscriptions and any purchases abandoned mid-flight last run are
	// re-driven through the idempotent reconciler pipeline.
	if err := gm.reconciler.Restore(ctx); err != nil {
		log.Warn("Failed to restore purchases on launch: %v", err)
	}

	ticker := time.NewTicker(gm.tickInterval)
	defer ticker.Stop()

	lastBoostActive := gm.store.Current().BoostActive
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			boostActive := gm.store.Current().BoostActive
			if boostActive != lastBoostActive {
				gm.store.Refresh()
				lastBoostActive = boostActive
			}
		}
	}
}

// Drive burns one unit of gas (none with an active infinite-gas
// subscription), adds miles, and awards mileage achievements. It returns
// ErrOutOfGas when the tank is empty.
func (gm *GameManager) Drive(ctx context.Context) (gametypes.GameState, error) {
	outOfGas := false
	snapshot, err := gm.store.Apply(ctx, func(gs gametypes.GameState) gametypes.GameState {
		if !gs.InfiniteGas {
			if gs.GasTank < constants.DriveGasCost {
				outOfGas = true
				return gs
			}
			gs.GasTank -= constants.DriveGasCost
		}
		gs.MilesDriven += constants.DriveMiles
		if !gs.HasAchievement(constants.AchievementFirstDrive) {
			gs.Achievements = append(gs.Achievements, constants.AchievementFirstDrive)
		}
		if gs.MilesDriven >= constants.CenturyClubMiles && !gs.HasAchievement(constants.AchievementCenturyClub) {
			gs.Achievements = append(gs.Achievements, constants.AchievementCenturyClub)
		}
		return gs
	})
	if err != nil {
		return gametypes.GameState{}, err
	}
	if outOfGas {
		return snapshot, &ErrOutOfGas{}
	}
	return snapshot, nil
}

// SubmitScore records a score; the high score only moves up.
func (gm *GameManager) SubmitScore(ctx context.Context, score int) (gametypes.GameState, error) {
	return gm.store.Apply(ctx, func(gs gametypes.GameState) gametypes.GameState {
		if score > gs.HighScore {
			gs.HighScore = score
		}
		return gs
	})
}

// UnlockAchievement appends an achievement; already-held ones are a no-op.
func (gm *GameManager) UnlockAchievement(ctx context.Context, id string) (gametypes.GameState, error) {
	return gm.store.Apply(ctx, func(gs gametypes.GameState) gametypes.GameState {
		if !gs.HasAchievement(id) {
			gs.Achievements = append(gs.Achievements, id)
		}
		return gs
	})
}

// ShareScore hands the player's stats to the share sheet. Fire and forget.
func (gm *GameManager) ShareScore(ctx context.Context) {
	current := gm.store.Current()
	text := fmt.Sprintf("I've driven %d miles with a high score of %d. Catch me if you can!",
		current.MilesDriven, current.HighScore)
	if err := gm.sharer.Share(ctx, text); err != nil {
		log.Warn("Failed to share score: %v", err)
	}
}

// StoreAvailable reports whether the store gateway can take purchase
// actions; the UI degrades its purchase surface when this is false.
func (gm *GameManager) StoreAvailable(ctx context.Context) bool {
	return gm.gateway.IsAvailable(ctx)
}

// Products lists the recognized SKUs as the store has them.
func (gm *GameManager) Products(ctx context.Context) (*storefront.ProductQueryResult, error) {
	if !gm.gateway.IsAvailable(ctx) {
		return nil, &storefront.ErrGatewayUnavailable{}
	}
	result, err := gm.gateway.QueryProducts(ctx, []string{
		constants.SKUPremium,
		constants.SKUGasPack,
		constants.SKUInfiniteGas,
	})
	if err != nil {
		return nil, &storefront.ErrTransport{Op: "query products", Err: err}
	}
	return result, nil
}

func (gm *GameManager) BuyPremium(ctx context.Context) error {
	return gm.reconciler.Buy(ctx, constants.SKUPremium)
}

func (gm *GameManager) BuyGasPack(ctx context.Context) error {
	return gm.reconciler.Buy(ctx, constants.SKUGasPack)
}

func (gm *GameManager) BuyInfiniteGas(ctx context.Context) error {
	return gm.reconciler.Buy(ctx, constants.SKUInfiniteGas)
}

// Restore replays historical entitlements through the reconciler.
func (gm *GameManager) Restore(ctx context.Context) error {
	return gm.reconciler.Restore(ctx)
}

func (gm *GameManager) ClaimDailyReward(ctx context.Context) (rewards.ClaimResult, error) {
	return gm.scheduler.ClaimDailyReward(ctx)
}

func (gm *GameManager) ActivateBoost(ctx context.Context) (time.Time, error) {
	return gm.scheduler.ActivateBoost(ctx)
}

// Current returns the latest committed snapshot; use it right after
// Subscribe so no initial state is missed.
func (gm *GameManager) Current() gametypes.GameState {
	return gm.store.Current()
}

// Subscribe returns a channel of committed snapshots and a cancel func.
func (gm *GameManager) Subscribe(buffer int) (<-chan gametypes.GameState, func()) {
	return gm.store.Subscribe(buffer)
}

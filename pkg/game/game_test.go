package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joyridegames/joyride/pkg/game/constants"
	gametypes "github.com/joyridegames/joyride/pkg/game/types"
	"github.com/joyridegames/joyride/pkg/persistence"
	"github.com/joyridegames/joyride/pkg/sharing"
	"github.com/joyridegames/joyride/pkg/state"
	"github.com/joyridegames/joyride/pkg/storefront"
)

func newTestManager(t *testing.T) (*GameManager, *state.EntitlementStore, *storefront.LocalGateway) {
	store, err := state.NewEntitlementStore(context.Background(), state.NewEntitlementStoreOptions{
		Adapter: persistence.NewMemoryAdapter(),
	})
	require.NoError(t, err)

	gateway := storefront.NewLocalGateway(storefront.NewLocalGatewayOptions{
		Catalog: []storefront.Product{
			{SKU: constants.SKUPremium, Title: "Premium Unlock"},
			{SKU: constants.SKUGasPack, Title: "Gas Pack", Consumable: true},
			{SKU: constants.SKUInfiniteGas, Title: "Infinite Gas"},
		},
	})
	t.Cleanup(func() {
		gateway.Close()
	})

	manager := NewGameManager(NewGameManagerOptions{
		Store:        store,
		Gateway:      gateway,
		Sharer:       sharing.NewLogSharer(),
		TickInterval: 10 * time.Millisecond,
	})
	return manager, store, gateway
}

func TestGameManager_Drive(t *testing.T) {
	ctx := context.Background()
	manager, _, _ := newTestManager(t)

	snapshot, err := manager.Drive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 49, snapshot.GasTank)
	assert.Equal(t, 10, snapshot.MilesDriven)
	assert.Contains(t, snapshot.Achievements, constants.AchievementFirstDrive)
}

func TestGameManager_DriveOutOfGas(t *testing.T) {
	ctx := context.Background()
	manager, store, _ := newTestManager(t)

	_, err := store.Apply(ctx, func(gs gametypes.GameState) gametypes.GameState {
		gs.GasTank = 0
		return gs
	})
	require.NoError(t, err)

	_, err = manager.Drive(ctx)
	assert.True(t, IsOutOfGas(err))
	assert.Equal(t, 0, store.Current().MilesDriven)
}

func TestGameManager_DriveWithInfiniteGas(t *testing.T) {
	ctx := context.Background()
	manager, store, _ := newTestManager(t)

	_, err := store.Apply(ctx, func(gs gametypes.GameState) gametypes.GameState {
		gs.InfiniteGas = true
		gs.GasTank = 0
		return gs
	})
	require.NoError(t, err)

	snapshot, err := manager.Drive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, snapshot.GasTank)
	assert.Equal(t, 10, snapshot.MilesDriven)
}

func TestGameManager_CenturyClubAchievement(t *testing.T) {
	ctx := context.Background()
	manager, _, _ := newTestManager(t)

	var snapshot gametypes.GameState
	var err error
	for i := 0; i < 10; i++ {
		snapshot, err = manager.Drive(ctx)
		require.NoError(t, err)
	}

	assert.Equal(t, 100, snapshot.MilesDriven)
	assert.Equal(t, []string{constants.AchievementFirstDrive, constants.AchievementCenturyClub}, snapshot.Achievements)
}

func TestGameManager_SubmitScore(t *testing.T) {
	ctx := context.Background()
	manager, _, _ := newTestManager(t)

	snapshot, err := manager.SubmitScore(ctx, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1000, snapshot.HighScore)

	// lower scores never regress the high score
	snapshot, err = manager.SubmitScore(ctx, 400)
	require.NoError(t, err)
	assert.Equal(t, 1000, snapshot.HighScore)
}

func TestGameManager_UnlockAchievementIsUnique(t *testing.T) {
	ctx := context.Background()
	manager, _, _ := newTestManager(t)

	_, err := manager.UnlockAchievement(ctx, "night_rider")
	require.NoError(t, err)
	snapshot, err := manager.UnlockAchievement(ctx, "night_rider")
	require.NoError(t, err)

	assert.Equal(t, []string{"night_rider"}, snapshot.Achievements)
}

func TestGameManager_PurchaseFlow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	manager, _, _ := newTestManager(t)

	go func() {
		_ = manager.Start(ctx)
	}()

	require.NoError(t, manager.BuyGasPack(ctx))
	require.Eventually(t, func() bool {
		return manager.Current().GasTank == 75
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, manager.BuyPremium(ctx))
	require.Eventually(t, func() bool {
		return manager.Current().Premium
	}, 2*time.Second, 10*time.Millisecond)

	// restore re-grants entitlements idempotently and never re-credits
	// the consumed gas pack
	require.NoError(t, manager.Restore(ctx))
	time.Sleep(100 * time.Millisecond)
	current := manager.Current()
	assert.True(t, current.Premium)
	assert.Equal(t, 75, current.GasTank)
}

func TestGameManager_PurchaseUnavailableGateway(t *testing.T) {
	ctx := context.Background()
	manager, _, gateway := newTestManager(t)

	gateway.SetAvailable(false)
	assert.False(t, manager.StoreAvailable(ctx))
	err := manager.BuyGasPack(ctx)
	assert.True(t, storefront.IsGatewayUnavailable(err))
	assert.Equal(t, 50, manager.Current().GasTank)

	_, err = manager.Products(ctx)
	assert.True(t, storefront.IsGatewayUnavailable(err))
}

func TestGameManager_Products(t *testing.T) {
	ctx := context.Background()
	manager, _, _ := newTestManager(t)

	result, err := manager.Products(ctx)
	require.NoError(t, err)
	assert.Len(t, result.Found, 3)
	assert.Empty(t, result.NotFound)
}

func TestGameManager_BoostRepublishesOnExpiry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := state.NewEntitlementStore(ctx, state.NewEntitlementStoreOptions{
		Adapter: persistence.NewMemoryAdapter(),
	})
	require.NoError(t, err)
	gateway := storefront.NewLocalGateway(storefront.NewLocalGatewayOptions{})
	defer gateway.Close()

	manager := NewGameManager(NewGameManagerOptions{
		Store:        store,
		Gateway:      gateway,
		Sharer:       sharing.NewLogSharer(),
		TickInterval: 10 * time.Millisecond,
	})

	snapshots, unsubscribe := manager.Subscribe(16)
	defer unsubscribe()

	go func() {
		_ = manager.Start(ctx)
	}()

	// a boost window short enough to watch expire
	expiry := time.Now().Add(100 * time.Millisecond)
	_, err = store.Apply(ctx, func(gs gametypes.GameState) gametypes.GameState {
		gs.BoostExpiry = expiry.UnixMilli()
		return gs
	})
	require.NoError(t, err)

	sawActive := false
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snapshot := <-snapshots:
			if snapshot.BoostActive {
				sawActive = true
			} else if sawActive {
				// expiry was published without a deactivation call
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for boost expiry snapshot")
		}
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joyridegames/joyride/pkg/game"
	"github.com/joyridegames/joyride/pkg/game/constants"
	"github.com/joyridegames/joyride/pkg/log"
	"github.com/joyridegames/joyride/pkg/persistence"
	"github.com/joyridegames/joyride/pkg/sharing"
	"github.com/joyridegames/joyride/pkg/state"
	"github.com/joyridegames/joyride/pkg/storefront"
)

func main() {
	dbPath := flag.String("db", "joyride.db", "Path to the sqlite database")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	adapter, err := persistence.NewSQLiteAdapter(ctx, *dbPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to open persistence: %v", err))
	}
	defer adapter.Close(ctx)

	store, err := state.NewEntitlementStore(ctx, state.NewEntitlementStoreOptions{
		Adapter: adapter,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to create entitlement store: %v", err))
	}

	gateway := storefront.NewLocalGateway(storefront.NewLocalGatewayOptions{
		Catalog: []storefront.Product{
			{SKU: constants.SKUPremium, Title: "Premium Unlock", Price: "$4.99"},
			{SKU: constants.SKUGasPack, Title: "Gas Pack", Price: "$0.99", Consumable: true},
			{SKU: constants.SKUInfiniteGas, Title: "Infinite Gas (monthly)", Price: "$1.99"},
		},
	})
	defer gateway.Close()

	manager := game.NewGameManager(game.NewGameManagerOptions{
		Store:   store,
		Gateway: gateway,
		Sharer:  sharing.NewLogSharer(),
	})

	snapshots, unsubscribe := manager.Subscribe(16)
	defer unsubscribe()
	go func() {
		for snapshot := range snapshots {
			log.Info("State: premium=%t gas=%d miles=%d highScore=%d boost=%t achievements=%v",
				snapshot.Premium, snapshot.GasTank, snapshot.MilesDriven,
				snapshot.HighScore, snapshot.BoostActive, snapshot.Achievements)
		}
	}()

	log.Info("Starting game manager")
	go func() {
		if err := manager.Start(ctx); err != nil {
			log.Error("Game manager stopped: %v", err)
		}
	}()

	// A short scripted session against the local gateway.
	for i := 0; i < 3; i++ {
		if _, err := manager.Drive(ctx); err != nil {
			log.Warn("Drive failed: %v", err)
		}
	}
	if err := manager.BuyGasPack(ctx); err != nil {
		log.Warn("Gas pack purchase failed: %v", err)
	}
	if result, err := manager.ClaimDailyReward(ctx); err != nil {
		log.Warn("Daily reward failed: %v", err)
	} else {
		log.Info("Daily reward: %s", result)
	}
	if _, err := manager.ActivateBoost(ctx); err != nil {
		log.Warn("Boost activation failed: %v", err)
	}
	if _, err := manager.SubmitScore(ctx, 1200); err != nil {
		log.Warn("Score submission failed: %v", err)
	}
	manager.ShareScore(ctx)

	time.Sleep(2 * time.Second)
}

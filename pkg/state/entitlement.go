package state

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	gametypes "github.com/joyridegames/joyride/pkg/game/types"
	"github.com/joyridegames/joyride/pkg/log"
	"github.com/joyridegames/joyride/pkg/persistence"
)

const (
	persistMaxAttempts    = 3
	persistInitialBackoff = 50 * time.Millisecond
)

// EntitlementStore owns the authoritative GameState. All mutations route
// through Apply, which serializes transform + clamp + persist + publish as
// one unit. One instance per process; construct it explicitly and pass it
// to consumers.
type EntitlementStore struct {
	lock    sync.Mutex
	adapter persistence.Adapter
	now     func() time.Time
	current gametypes.GameState

	subsLock sync.Mutex
	subs     map[int]chan gametypes.GameState
	nextSub  int
}

type NewEntitlementStoreOptions struct {
	Adapter persistence.Adapter
	// Now is the wall clock used to stamp boost status on snapshots.
	// Defaults to time.Now.
	Now func() time.Time
}

// NewEntitlementStore loads the persisted records (falling back to
// first-launch defaults for missing keys) and returns a ready store.
func NewEntitlementStore(ctx context.Context, opts NewEntitlementStoreOptions) (*EntitlementStore, error) {
	if opts.Adapter == nil {
		return nil, fmt.Errorf("adapter is required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	s := &EntitlementStore{
		adapter: opts.Adapter,
		now:     now,
		subs:    make(map[int]chan gametypes.GameState),
	}
	if err := s.load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load game state: %v", err)
	}
	return s, nil
}

func (s *EntitlementStore) load(ctx context.Context) error {
	gameState := gametypes.NewGameState()

	premium, err := s.adapter.GetBool(ctx, persistence.KeyPremium)
	if err != nil && !persistence.IsNotFound(err) {
		return err
	} else if err == nil {
		gameState.Premium = premium
	}

	intFields := []struct {
		key string
		dst *int64
	}{
		{persistence.KeyLastClaimDay, &gameState.LastClaimDay},
		{persistence.KeyBoostExpiry, &gameState.BoostExpiry},
	}
	for _, f := range intFields {
		value, err := s.adapter.GetInt64(ctx, f.key)
		if err != nil && !persistence.IsNotFound(err) {
			return err
		} else if err == nil {
			*f.dst = value
		}
	}

	smallFields := []struct {
		key string
		dst *int
	}{
		{persistence.KeyGasTank, &gameState.GasTank},
		{persistence.KeyMilesDriven, &gameState.MilesDriven},
		{persistence.KeyHighScore, &gameState.HighScore},
	}
	for _, f := range smallFields {
		value, err := s.adapter.GetInt64(ctx, f.key)
		if err != nil && !persistence.IsNotFound(err) {
			return err
		} else if err == nil {
			*f.dst = int(value)
		}
	}

	achievements, err := s.adapter.GetString(ctx, persistence.KeyAchievements)
	if err != nil && !persistence.IsNotFound(err) {
		return err
	} else if err == nil {
		if err := json.Unmarshal([]byte(achievements), &gameState.Achievements); err != nil {
			return fmt.Errorf("failed to parse achievements: %v", err)
		}
	}

	// InfiniteGas is intentionally not loaded: the subscription is
	// re-derived from the store gateway via restore.
	s.current = gametypes.Sanitize(gameState, gameState)
	return nil
}

// Current returns a copy of the current game state with boost status
// recomputed for the current wall clock.
func (s *EntitlementStore) Current() gametypes.GameState {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.current.Stamped(s.now())
}

// Apply runs transform against the current state on the serialized
// mutation path. See Store.Apply for the contract.
func (s *EntitlementStore) Apply(ctx context.Context, transform Transform) (gametypes.GameState, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	prev := s.current
	next := gametypes.Sanitize(prev, transform(prev.Copy()))

	if err := s.persistChanged(ctx, prev, next); err != nil {
		return gametypes.GameState{}, err
	}

	s.current = next
	snapshot := next.Stamped(s.now())
	s.publish(snapshot)
	return snapshot, nil
}

// Refresh re-publishes the current state with boost status recomputed.
// It is used by the facade's periodic tick so boost expiry becomes
// observable without a mutation.
func (s *EntitlementStore) Refresh() gametypes.GameState {
	s.lock.Lock()
	defer s.lock.Unlock()
	snapshot := s.current.Stamped(s.now())
	s.publish(snapshot)
	return snapshot
}

func (s *EntitlementStore) persistChanged(ctx context.Context, prev, next gametypes.GameState) error {
	if prev.Premium != next.Premium {
		premium := next.Premium
		if err := s.persist(ctx, persistence.KeyPremium, func() error {
			return s.adapter.SetBool(ctx, persistence.KeyPremium, premium)
		}); err != nil {
			return err
		}
	}

	intWrites := []struct {
		key        string
		prev, next int64
	}{
		{persistence.KeyGasTank, int64(prev.GasTank), int64(next.GasTank)},
		{persistence.KeyMilesDriven, int64(prev.MilesDriven), int64(next.MilesDriven)},
		{persistence.KeyHighScore, int64(prev.HighScore), int64(next.HighScore)},
		{persistence.KeyLastClaimDay, prev.LastClaimDay, next.LastClaimDay},
		{persistence.KeyBoostExpiry, prev.BoostExpiry, next.BoostExpiry},
	}
	for _, w := range intWrites {
		if w.prev == w.next {
			continue
		}
		key, value := w.key, w.next
		if err := s.persist(ctx, key, func() error {
			return s.adapter.SetInt64(ctx, key, value)
		}); err != nil {
			return err
		}
	}

	if len(prev.Achievements) != len(next.Achievements) {
		encoded, err := json.Marshal(next.Achievements)
		if err != nil {
			return fmt.Errorf("failed to encode achievements: %v", err)
		}
		if err := s.persist(ctx, persistence.KeyAchievements, func() error {
			return s.adapter.SetString(ctx, persistence.KeyAchievements, string(encoded))
		}); err != nil {
			return err
		}
	}

	return nil
}

// persist retries a write a bounded number of times with doubling backoff.
func (s *EntitlementStore) persist(ctx context.Context, key string, write func() error) error {
	backoff := persistInitialBackoff
	var err error
	for attempt := 1; attempt <= persistMaxAttempts; attempt++ {
		if err = write(); err == nil {
			return nil
		}
		log.Warn("Failed to persist %s (attempt %d/%d): %v", key, attempt, persistMaxAttempts, err)
		if attempt == persistMaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return fmt.Errorf("failed to persist %s: %v", key, err)
}

// Subscribe registers a subscriber channel with the given buffer and
// returns it together with a cancel function. Subscribers receive every
// snapshot committed after they subscribe, in commit order; call Current
// right after subscribing for the initial state. A snapshot is dropped
// for a subscriber whose buffer is full, so the store never blocks.
func (s *EntitlementStore) Subscribe(buffer int) (<-chan gametypes.GameState, func()) {
	s.subsLock.Lock()
	defer s.subsLock.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan gametypes.GameState, buffer)
	s.subs[id] = ch

	cancel := func() {
		s.subsLock.Lock()
		defer s.subsLock.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (s *EntitlementStore) publish(snapshot gametypes.GameState) {
	s.subsLock.Lock()
	defer s.subsLock.Unlock()
	for id, sub := range s.subs {
		select {
		case sub <- snapshot:
		default:
			log.Warn("Dropping snapshot for slow subscriber %d", id)
		}
	}
}

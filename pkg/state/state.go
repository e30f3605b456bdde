package state

import (
	"context"

	gametypes "github.com/joyridegames/joyride/pkg/game/types"
)

// Transform computes the next game state from the current one. It must be
// a pure function of its argument; it runs on the store's serialized
// mutation path.
type Transform func(gametypes.GameState) gametypes.GameState

// Store provides serialized access to the authoritative game state.
// Implementations must be thread-safe.
type Store interface {
	// Current returns a copy of the current game state.
	Current() gametypes.GameState
	// Apply computes the next state from transform, clamps it to the
	// game invariants, persists every changed record, publishes the
	// committed snapshot and returns it. If persistence fails the
	// in-memory state does not advance.
	Apply(ctx context.Context, transform Transform) (gametypes.GameState, error)
}

package types

import (
	"time"

	"github.com/joyridegames/joyride/pkg/game/constants"
)

// GameState is an immutable snapshot of the player's entitlements and
// progression. The entitlement store owns the live value; everything else
// receives copies and mutations are expressed as state transforms.
type GameState struct {
	// Premium is the one-time non-consumable unlock.
	Premium bool
	// InfiniteGas is the subscription entitlement. It is not persisted
	// locally; the store gateway is its source of truth and restore
	// re-derives it on launch.
	InfiniteGas bool
	// GasTank holds between 0 and GasTankCapacity units.
	GasTank int
	// MilesDriven only ever grows.
	MilesDriven int
	// Achievements is an append-only ordered set of identifiers.
	Achievements []string
	// HighScore only ever grows.
	HighScore int
	// BoostExpiry is the boost window end in unix milliseconds.
	BoostExpiry int64
	// LastClaimDay is the day index (days since the unix epoch) of the
	// last successful daily reward claim.
	LastClaimDay int64
	// BoostActive is derived from BoostExpiry and the wall clock when a
	// snapshot is published. It is never read back as a source of truth.
	BoostActive bool
}

// NewGameState returns the first-launch defaults.
func NewGameState() GameState {
	return GameState{
		GasTank:      constants.GasTankDefault,
		LastClaimDay: -1,
	}
}

// Copy returns a snapshot with its own achievements slice.
func (s GameState) Copy() GameState {
	copied := s
	copied.Achievements = make([]string, len(s.Achievements))
	copy(copied.Achievements, s.Achievements)
	return copied
}

// HasAchievement reports whether id has been unlocked.
func (s GameState) HasAchievement(id string) bool {
	for _, a := range s.Achievements {
		if a == id {
			return true
		}
	}
	return false
}

// BoostActiveAt reports whether the boost window covers the given time.
func (s GameState) BoostActiveAt(now time.Time) bool {
	return now.UnixMilli() < s.BoostExpiry
}

// Stamped returns a copy with BoostActive recomputed for the given time.
func (s GameState) Stamped(now time.Time) GameState {
	stamped := s.Copy()
	stamped.BoostActive = s.BoostActiveAt(now)
	return stamped
}

// Sanitize clamps a candidate state against the previously committed one:
// the gas tank saturates at [0, capacity], miles and high score never
// regress, and the previous achievements are preserved in order with new
// ones appended deduplicated.
func Sanitize(prev, next GameState) GameState {
	if next.GasTank < 0 {
		next.GasTank = 0
	}
	if next.GasTank > constants.GasTankCapacity {
		next.GasTank = constants.GasTankCapacity
	}
	if next.MilesDriven < prev.MilesDriven {
		next.MilesDriven = prev.MilesDriven
	}
	if next.HighScore < prev.HighScore {
		next.HighScore = prev.HighScore
	}
	merged := make([]string, 0, len(next.Achievements))
	seen := make(map[string]struct{}, len(next.Achievements))
	for _, id := range prev.Achievements {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		merged = append(merged, id)
	}
	for _, id := range next.Achievements {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		merged = append(merged, id)
	}
	next.Achievements = merged
	return next
}

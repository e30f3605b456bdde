package persistence

import "context"

// Keys for the fixed set of durable game records.
const (
	KeyPremium      = "premium"
	KeyGasTank      = "gas_tank"
	KeyMilesDriven  = "miles_driven"
	KeyAchievements = "achievements"
	KeyHighScore    = "high_score"
	KeyLastClaimDay = "last_claim_day"
	KeyBoostExpiry  = "boost_expiry"
)

// Adapter is durable string-keyed storage for primitive game records.
// Getters return ErrNotFound for keys that have never been written.
type Adapter interface {
	Close(ctx context.Context) error
	GetBool(ctx context.Context, key string) (bool, error)
	SetBool(ctx context.Context, key string, value bool) error
	GetInt64(ctx context.Context, key string) (int64, error)
	SetInt64(ctx context.Context, key string, value int64) error
	GetString(ctx context.Context, key string) (string, error)
	SetString(ctx context.Context, key string, value string) error
}

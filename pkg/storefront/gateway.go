package storefront

import "context"

// Status is the lifecycle status of a purchase event.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPurchased Status = "purchased"
	StatusRestored  Status = "restored"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// Terminal reports whether the status ends a purchase flow.
func (s Status) Terminal() bool {
	return s != StatusPending
}

// Outcome is the finalization outcome reported back to the gateway.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeRejected Outcome = "rejected"
	OutcomeError    Outcome = "error"
)

// Product is a purchasable item listed by the store.
type Product struct {
	SKU        string
	Title      string
	Price      string
	Consumable bool
}

// ProductQueryResult splits a queried SKU set into listed products and
// identifiers the store does not know.
type ProductQueryResult struct {
	Found    []Product
	NotFound []string
}

// PurchaseEvent is one element of the gateway's asynchronous purchase
// stream. Payload is the opaque payload minted at purchase initiation.
type PurchaseEvent struct {
	TransactionID string
	SKU           string
	Status        Status
	Payload       string
}

// BuyRequest initiates a purchase flow for a product.
type BuyRequest struct {
	Product Product
	Payload string
}

// Gateway is the platform store billing backend. The game only depends
// on this boundary; results arrive asynchronously on Events.
type Gateway interface {
	// IsAvailable reports whether the store can take purchase actions.
	IsAvailable(ctx context.Context) bool
	// QueryProducts looks up the given SKUs in the store listing.
	QueryProducts(ctx context.Context, skus []string) (*ProductQueryResult, error)
	// Buy starts a purchase flow. Acceptance is not success; the
	// terminal result arrives on Events.
	Buy(ctx context.Context, req BuyRequest) error
	// RestorePurchases replays all non-consumed historical entitlements
	// onto Events with StatusRestored.
	RestorePurchases(ctx context.Context) error
	// Events is the purchase event stream. It is closed by Close.
	Events() <-chan PurchaseEvent
	// Finalize completes a terminal event with the store. Each event
	// must be finalized exactly once.
	Finalize(ctx context.Context, event PurchaseEvent, outcome Outcome) error
	// Consume acknowledges a consumable purchase as used, allowing it
	// to be bought again.
	Consume(ctx context.Context, event PurchaseEvent) error
	// Close tears down the event stream.
	Close() error
}

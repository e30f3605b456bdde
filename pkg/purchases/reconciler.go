package purchases

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/joyridegames/joyride/pkg/game/constants"
	gametypes "github.com/joyridegames/joyride/pkg/game/types"
	"github.com/joyridegames/joyride/pkg/log"
	"github.com/joyridegames/joyride/pkg/queue"
	"github.com/joyridegames/joyride/pkg/state"
	"github.com/joyridegames/joyride/pkg/storefront"
)

const retryQueueSize = 64

// Reconciler consumes the store gateway's purchase event stream and
// applies each valid event to the entitlement store exactly once.
// Transactions move Pending -> {Verified, Rejected} -> Finalized; events
// whose local persistence failed are neither applied nor finalized, and
// are re-driven on the next restore.
type Reconciler struct {
	gateway storefront.Gateway
	store   state.Store

	lock      sync.Mutex
	minted    map[string]string
	finalized map[string]bool

	retry queue.Queue[storefront.PurchaseEvent]
}

type NewReconcilerOptions struct {
	Gateway storefront.Gateway
	Store   state.Store
}

func NewReconciler(opts NewReconcilerOptions) *Reconciler {
	return &Reconciler{
		gateway:   opts.Gateway,
		store:     opts.Store,
		minted:    make(map[string]string),
		finalized: make(map[string]bool),
		retry:     queue.NewInMemoryQueue[storefront.PurchaseEvent](retryQueueSize),
	}
}

// Start consumes the gateway event stream until ctx is cancelled or the
// stream is closed. Events still in flight at shutdown are re-driven by
// Restore on the next launch.
func (r *Reconciler) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-r.gateway.Events():
			if !ok {
				return
			}
			r.handleEvent(ctx, event)
		}
	}
}

// Buy initiates a purchase flow for the given SKU. Acceptance is not
// success; the result arrives on the gateway event stream.
func (r *Reconciler) Buy(ctx context.Context, sku string) error {
	if !r.gateway.IsAvailable(ctx) {
		return &storefront.ErrGatewayUnavailable{}
	}

	result, err := r.gateway.QueryProducts(ctx, []string{sku})
	if err != nil {
		return &storefront.ErrTransport{Op: "query products", Err: err}
	}
	if len(result.Found) == 0 {
		return &storefront.ErrProductNotFound{SKU: sku}
	}
	product := result.Found[0]

	payload := r.mintPayload(sku)
	if err := r.gateway.Buy(ctx, storefront.BuyRequest{
		Product: product,
		Payload: payload,
	}); err != nil {
		if storefront.IsGatewayUnavailable(err) || storefront.IsProductNotFound(err) {
			return err
		}
		return &storefront.ErrTransport{Op: "buy", Err: err}
	}
	return nil
}

// Restore first re-drives events whose persistence write failed earlier,
// then asks the gateway to replay all historical non-consumed
// entitlements. Replayed events re-enter the normal pipeline, which is
// idempotent for non-consumables and never re-credits consumables.
func (r *Reconciler) Restore(ctx context.Context) error {
	for _, event := range r.retry.ReadAllMessages() {
		r.handleEvent(ctx, event)
	}

	if !r.gateway.IsAvailable(ctx) {
		return &storefront.ErrGatewayUnavailable{}
	}
	if err := r.gateway.RestorePurchases(ctx); err != nil {
		if storefront.IsGatewayUnavailable(err) {
			return err
		}
		return &storefront.ErrTransport{Op: "restore purchases", Err: err}
	}
	return nil
}

func (r *Reconciler) handleEvent(ctx context.Context, event storefront.PurchaseEvent) {
	switch event.Status {
	case storefront.StatusPending:
		log.Debug("Purchase of %s pending (transaction %s)", event.SKU, event.TransactionID)
	case storefront.StatusFailed, storefront.StatusCanceled:
		log.Info("Purchase of %s ended as %s (transaction %s)", event.SKU, event.Status, event.TransactionID)
		r.clearMinted(event.SKU)
		r.finalize(ctx, event, storefront.OutcomeRejected)
	case storefront.StatusPurchased, storefront.StatusRestored:
		r.reconcile(ctx, event)
	default:
		log.Warn("Unknown purchase status %q (transaction %s)", event.Status, event.TransactionID)
	}
}

// reconcile verifies and applies one terminal purchase event.
func (r *Reconciler) reconcile(ctx context.Context, event storefront.PurchaseEvent) {
	if !r.verify(event) {
		log.Warn("Payload verification failed for %s (transaction %s)", event.SKU, event.TransactionID)
		r.finalize(ctx, event, storefront.OutcomeRejected)
		return
	}

	transform, consumable, err := transformForSKU(event)
	if err != nil {
		log.Warn("Rejecting purchase event: %v", err)
		r.finalize(ctx, event, storefront.OutcomeRejected)
		return
	}

	if _, err := r.store.Apply(ctx, transform); err != nil {
		// Entitlement not granted, event not finalized: it stays
		// eligible for replay via Restore.
		log.Error("Failed to apply purchase of %s (transaction %s): %v", event.SKU, event.TransactionID, err)
		r.retry.Enqueue(event)
		return
	}

	r.clearMinted(event.SKU)
	r.finalize(ctx, event, storefront.OutcomeSuccess)
	if consumable {
		if err := r.gateway.Consume(ctx, event); err != nil {
			log.Error("Failed to consume %s (transaction %s): %v", event.SKU, event.TransactionID, err)
		}
	}
}

// transformForSKU dispatches a verified event to a state transform.
// Restored gas packs are a deliberate no-op: consumables must never be
// re-credited by the restore flow.
func transformForSKU(event storefront.PurchaseEvent) (state.Transform, bool, error) {
	switch event.SKU {
	case constants.SKUPremium:
		return func(s gametypes.GameState) gametypes.GameState {
			s.Premium = true
			return s
		}, false, nil
	case constants.SKUInfiniteGas:
		return func(s gametypes.GameState) gametypes.GameState {
			s.InfiniteGas = true
			return s
		}, false, nil
	case constants.SKUGasPack:
		if event.Status == storefront.StatusRestored {
			return func(s gametypes.GameState) gametypes.GameState {
				return s
			}, false, nil
		}
		return func(s gametypes.GameState) gametypes.GameState {
			s.GasTank += constants.GasPackUnits
			return s
		}, true, nil
	default:
		return nil, false, fmt.Errorf("unknown SKU %s (transaction %s)", event.SKU, event.TransactionID)
	}
}

// finalize completes a terminal event with the gateway exactly once.
func (r *Reconciler) finalize(ctx context.Context, event storefront.PurchaseEvent, outcome storefront.Outcome) {
	r.lock.Lock()
	if r.finalized[event.TransactionID] {
		r.lock.Unlock()
		log.Debug("Transaction %s already finalized", event.TransactionID)
		return
	}
	r.finalized[event.TransactionID] = true
	r.lock.Unlock()

	if err := r.gateway.Finalize(ctx, event, outcome); err != nil {
		log.Error("Failed to finalize transaction %s: %v", event.TransactionID, err)
	}
}

// mintPayload generates the opaque payload sent with a purchase request.
// The prefix lets the reconciler correlate returning events with this
// app's purchases; it is not a security boundary.
func (r *Reconciler) mintPayload(sku string) string {
	payload := constants.PayloadPrefix + uuid.NewString()
	r.lock.Lock()
	defer r.lock.Unlock()
	r.minted[sku] = payload
	return payload
}

func (r *Reconciler) clearMinted(sku string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	delete(r.minted, sku)
}

// verify checks the event's opaque payload. A purchase initiated by this
// process must carry exactly the payload minted for its SKU; anything
// else (restores from earlier launches included) passes on the payload
// prefix alone. This is advisory correlation, not fraud protection.
func (r *Reconciler) verify(event storefront.PurchaseEvent) bool {
	r.lock.Lock()
	expected, minted := r.minted[event.SKU]
	r.lock.Unlock()
	if minted && event.Status == storefront.StatusPurchased {
		return event.Payload == expected
	}
	return strings.HasPrefix(event.Payload, constants.PayloadPrefix)
}

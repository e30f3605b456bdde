package storefront

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/joyridegames/joyride/pkg/log"
	"github.com/joyridegames/joyride/pkg/queue"
)

const (
	// EventBufferSize is the capacity of the local gateway's event
	// buffer and stream.
	EventBufferSize = 256
)

// LocalGateway is an in-process Gateway for local development and tests.
// Purchases succeed immediately: Buy emits a pending event followed by a
// purchased one. Non-consumable entitlements are remembered for restore;
// consumables never re-enter the stream once consumed.
type LocalGateway struct {
	lock      sync.Mutex
	catalog   map[string]Product
	available bool
	owned     map[string]PurchaseEvent
	outcomes  map[string]Outcome

	pending   queue.Queue[PurchaseEvent]
	notify    chan struct{}
	events    chan PurchaseEvent
	done      chan struct{}
	closeOnce sync.Once
}

type NewLocalGatewayOptions struct {
	Catalog []Product
}

func NewLocalGateway(opts NewLocalGatewayOptions) *LocalGateway {
	catalog := make(map[string]Product, len(opts.Catalog))
	for _, product := range opts.Catalog {
		catalog[product.SKU] = product
	}

	g := &LocalGateway{
		catalog:   catalog,
		available: true,
		owned:     make(map[string]PurchaseEvent),
		outcomes:  make(map[string]Outcome),
		pending:   queue.NewInMemoryQueue[PurchaseEvent](EventBufferSize),
		notify:    make(chan struct{}, 1),
		events:    make(chan PurchaseEvent, EventBufferSize),
		done:      make(chan struct{}),
	}
	go g.pump()
	return g
}

// pump drains the buffered event queue onto the event stream.
func (g *LocalGateway) pump() {
	defer close(g.events)
	for {
		select {
		case <-g.done:
			return
		case <-g.notify:
			for _, event := range g.pending.ReadAllMessages() {
				select {
				case g.events <- event:
				case <-g.done:
					return
				}
			}
		}
	}
}

// Deliver buffers an event for the stream. Buy and RestorePurchases use
// it internally; tests use it to inject crafted events.
func (g *LocalGateway) Deliver(event PurchaseEvent) {
	g.pending.Enqueue(event)
	select {
	case g.notify <- struct{}{}:
	default:
	}
}

// SetAvailable toggles simulated store availability.
func (g *LocalGateway) SetAvailable(available bool) {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.available = available
}

func (g *LocalGateway) IsAvailable(ctx context.Context) bool {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.available
}

func (g *LocalGateway) QueryProducts(ctx context.Context, skus []string) (*ProductQueryResult, error) {
	g.lock.Lock()
	defer g.lock.Unlock()
	if !g.available {
		return nil, &ErrGatewayUnavailable{}
	}

	result := &ProductQueryResult{}
	for _, sku := range skus {
		if product, ok := g.catalog[sku]; ok {
			result.Found = append(result.Found, product)
		} else {
			result.NotFound = append(result.NotFound, sku)
		}
	}
	return result, nil
}

func (g *LocalGateway) Buy(ctx context.Context, req BuyRequest) error {
	g.lock.Lock()
	defer g.lock.Unlock()
	if !g.available {
		return &ErrGatewayUnavailable{}
	}
	product, ok := g.catalog[req.Product.SKU]
	if !ok {
		return &ErrProductNotFound{SKU: req.Product.SKU}
	}

	event := PurchaseEvent{
		TransactionID: uuid.NewString(),
		SKU:           product.SKU,
		Payload:       req.Payload,
	}

	pending := event
	pending.Status = StatusPending
	g.Deliver(pending)

	purchased := event
	purchased.Status = StatusPurchased
	g.Deliver(purchased)

	if !product.Consumable {
		g.owned[product.SKU] = purchased
	}
	return nil
}

func (g *LocalGateway) RestorePurchases(ctx context.Context) error {
	g.lock.Lock()
	defer g.lock.Unlock()
	if !g.available {
		return &ErrGatewayUnavailable{}
	}

	for _, event := range g.owned {
		restored := event
		restored.Status = StatusRestored
		g.Deliver(restored)
	}
	return nil
}

func (g *LocalGateway) Events() <-chan PurchaseEvent {
	return g.events
}

func (g *LocalGateway) Finalize(ctx context.Context, event PurchaseEvent, outcome Outcome) error {
	g.lock.Lock()
	defer g.lock.Unlock()
	if previous, ok := g.outcomes[event.TransactionID]; ok {
		return fmt.Errorf("transaction %s already finalized as %s", event.TransactionID, previous)
	}
	g.outcomes[event.TransactionID] = outcome
	log.Debug("Finalized transaction %s (%s) as %s", event.TransactionID, event.SKU, outcome)
	return nil
}

func (g *LocalGateway) Consume(ctx context.Context, event PurchaseEvent) error {
	g.lock.Lock()
	defer g.lock.Unlock()
	product, ok := g.catalog[event.SKU]
	if !ok {
		return &ErrProductNotFound{SKU: event.SKU}
	}
	if !product.Consumable {
		return fmt.Errorf("product %s is not consumable", event.SKU)
	}
	log.Debug("Consumed transaction %s (%s)", event.TransactionID, event.SKU)
	return nil
}

// Outcome returns the finalization outcome recorded for a transaction.
func (g *LocalGateway) Outcome(transactionID string) (Outcome, bool) {
	g.lock.Lock()
	defer g.lock.Unlock()
	outcome, ok := g.outcomes[transactionID]
	return outcome, ok
}

func (g *LocalGateway) Close() error {
	g.closeOnce.Do(func() {
		close(g.done)
	})
	return nil
}

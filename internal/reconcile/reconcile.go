// Package reconcile folds account stream events into locally held order state.
//
// The reconciler owns a most-recent-first order list and applies events by
// wholesale record replacement. Updates for unknown tokens are dropped
// silently; the server record is always authoritative and overwrites are
// idempotent. There is no causal ordering between the REST and stream
// paths; the last write wins.
package reconcile

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/coachpo/brokerlink/internal/observability"
	"github.com/coachpo/brokerlink/internal/schema"
	"github.com/coachpo/brokerlink/internal/stream"
)

// Handlers receives order change notifications. Handlers run under the
// reconciler lock and must not call back into the reconciler.
type Handlers struct {
	OrderCreated func(schema.BrokerOrder)
	OrderUpdated func(schema.BrokerOrder)
}

// Reconciler applies order events to the held order list and notifies
// subscribers. All state is mutex-guarded; the REST and stream paths may
// touch it concurrently.
type Reconciler struct {
	mu          sync.Mutex
	orders      []schema.BrokerOrder
	subscribers map[uuid.UUID]Handlers
	suppressed  map[string]int
	held        map[string]stream.OrderEvent
	log         observability.Logger
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger overrides the reconciler logger.
func WithLogger(logger observability.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.log = logger
		}
	}
}

// New constructs an empty reconciler.
func New(opts ...Option) *Reconciler {
	r := &Reconciler{
		orders:      nil,
		subscribers: make(map[uuid.UUID]Handlers),
		suppressed:  make(map[string]int),
		held:        make(map[string]stream.OrderEvent),
		log:         observability.Log(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Subscribe registers change handlers and returns the subscription id with
// its cancel function. After cancel returns, the handlers are never invoked
// again.
func (r *Reconciler) Subscribe(handlers Handlers) (uuid.UUID, func()) {
	id := uuid.New()

	r.mu.Lock()
	r.subscribers[id] = handlers
	r.mu.Unlock()

	cancel := func() {
		r.mu.Lock()
		delete(r.subscribers, id)
		r.mu.Unlock()
	}
	return id, cancel
}

// Suppress pauses event application for a token while a user-initiated call
// for the same order is in flight. Only the latest suppressed event is
// retained; the returned resume function applies it. Nested suppressions
// stack.
func (r *Reconciler) Suppress(token string) (resume func()) {
	r.mu.Lock()
	r.suppressed[token]++
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.suppressed[token]--
			if r.suppressed[token] > 0 {
				return
			}
			delete(r.suppressed, token)
			if event, ok := r.held[token]; ok {
				delete(r.held, token)
				r.apply(event)
			}
		})
	}
}

// Apply folds one stream event into the order list.
func (r *Reconciler) Apply(event stream.OrderEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.suppressed[event.Order.Token] > 0 {
		r.held[event.Order.Token] = event
		return
	}
	r.apply(event)
}

// apply mutates state and notifies subscribers. Caller holds the lock.
func (r *Reconciler) apply(event stream.OrderEvent) {
	switch event.Kind {
	case stream.EventOrderCreated:
		r.orders = append([]schema.BrokerOrder{event.Order}, r.orders...)
		for _, sub := range r.subscribers {
			if sub.OrderCreated != nil {
				sub.OrderCreated(event.Order)
			}
		}
	case stream.EventOrderUpdated:
		replaced := false
		for i := range r.orders {
			if r.orders[i].Token == event.Order.Token {
				r.orders[i] = event.Order
				replaced = true
			}
		}
		if !replaced {
			r.log.Debug("dropped update for unknown order",
				observability.F("orderToken", event.Order.Token))
			return
		}
		for _, sub := range r.subscribers {
			if sub.OrderUpdated != nil {
				sub.OrderUpdated(event.Order)
			}
		}
	}
}

// SetOrders replaces the held list wholesale, most recent first. Used to
// seed the reconciler from a REST page.
func (r *Reconciler) SetOrders(orders []schema.BrokerOrder) {
	r.mu.Lock()
	r.orders = append([]schema.BrokerOrder(nil), orders...)
	r.mu.Unlock()
}

// Upsert applies a REST result: the record replaces every token match, or
// is prepended when the token is new.
func (r *Reconciler) Upsert(order schema.BrokerOrder) {
	r.mu.Lock()
	defer r.mu.Unlock()

	replaced := false
	for i := range r.orders {
		if r.orders[i].Token == order.Token {
			r.orders[i] = order
			replaced = true
		}
	}
	if !replaced {
		r.orders = append([]schema.BrokerOrder{order}, r.orders...)
	}
}

// Orders returns a copy of the held list, most recent first.
func (r *Reconciler) Orders() []schema.BrokerOrder {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]schema.BrokerOrder(nil), r.orders...)
}

// Order returns the held record for a token.
func (r *Reconciler) Order(token string) (schema.BrokerOrder, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, order := range r.orders {
		if order.Token == token {
			return order, true
		}
	}
	return schema.BrokerOrder{}, false
}

// Run consumes a stream until the context ends or the event channel closes.
func (r *Reconciler) Run(ctx context.Context, events <-chan stream.OrderEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			r.Apply(event)
		}
	}
}

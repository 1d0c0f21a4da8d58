package stream

import (
	json "github.com/goccy/go-json"

	"github.com/coachpo/brokerlink/errs"
	"github.com/coachpo/brokerlink/internal/schema"
)

// EventKind identifies an account stream event.
type EventKind string

const (
	// EventOrderCreated announces a newly placed order.
	EventOrderCreated EventKind = "order-created"
	// EventOrderUpdated carries a full replacement record for an existing order.
	EventOrderUpdated EventKind = "order-updated"
)

// OrderEvent is one decoded account stream event. Both kinds carry a
// complete order record; there are no partial updates on the wire.
type OrderEvent struct {
	Kind  EventKind
	Order schema.BrokerOrder
}

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// DecodeEvent parses a raw frame into an order event. Frames with an
// unknown event name or a malformed order fail decoding.
func DecodeEvent(frame []byte) (OrderEvent, error) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return OrderEvent{}, errs.New("stream/decode", errs.KindNetwork, errs.WithCause(err))
	}

	var kind EventKind
	switch EventKind(env.Event) {
	case EventOrderCreated:
		kind = EventOrderCreated
	case EventOrderUpdated:
		kind = EventOrderUpdated
	default:
		return OrderEvent{}, errs.New("stream/decode", errs.KindNetwork,
			errs.WithMessage("unknown event "+env.Event))
	}

	order, err := schema.DecodeBrokerOrder(env.Data)
	if err != nil {
		return OrderEvent{}, err
	}
	return OrderEvent{Kind: kind, Order: order}, nil
}

package schema

import (
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/coachpo/brokerlink/errs"
)

// OrderStatus enumerates the broker order lifecycle.
// Every status value is server-assigned; the client only decodes and displays.
type OrderStatus string

const (
	// OrderStatusNone is a client-local placeholder for not-yet-loaded views.
	// It never appears on the wire.
	OrderStatusNone OrderStatus = "none"
	// OrderStatusCreated indicates the order exists but awaits acceptance.
	OrderStatusCreated OrderStatus = "created"
	// OrderStatusReady indicates the order was accepted and awaits a deposit.
	OrderStatusReady OrderStatus = "ready"
	// OrderStatusIncoming indicates the deposit transaction was observed.
	OrderStatusIncoming OrderStatus = "incoming"
	// OrderStatusConfirmed indicates the deposit reached enough confirmations.
	OrderStatusConfirmed OrderStatus = "confirmed"
	// OrderStatusExchange indicates the brokerage is executing the exchange.
	OrderStatusExchange OrderStatus = "exchange"
	// OrderStatusWithdraw indicates the outgoing transfer is in flight.
	OrderStatusWithdraw OrderStatus = "withdraw"
	// OrderStatusCompleted indicates the order finished successfully.
	OrderStatusCompleted OrderStatus = "completed"
	// OrderStatusExpired indicates the order lapsed before a deposit arrived.
	OrderStatusExpired OrderStatus = "expired"
	// OrderStatusCancelled indicates the order was cancelled.
	OrderStatusCancelled OrderStatus = "cancelled"
)

var orderStatuses = map[string]OrderStatus{
	"none":      OrderStatusNone,
	"created":   OrderStatusCreated,
	"ready":     OrderStatusReady,
	"incoming":  OrderStatusIncoming,
	"confirmed": OrderStatusConfirmed,
	"exchange":  OrderStatusExchange,
	"withdraw":  OrderStatusWithdraw,
	"completed": OrderStatusCompleted,
	"expired":   OrderStatusExpired,
	"cancelled": OrderStatusCancelled,
}

// ParseOrderStatus maps a wire status string onto the closed enumeration.
// Unknown strings fail decoding rather than defaulting silently.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	status, ok := orderStatuses[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", errs.New("schema/order-status", errs.KindNetwork,
			errs.WithMessage("unknown order status "+strings.TrimSpace(raw)))
	}
	return status, nil
}

// UnmarshalJSON decodes a status string, rejecting unknown values.
func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	status, err := ParseOrderStatus(raw)
	if err != nil {
		return err
	}
	*s = status
	return nil
}

// Terminal reports whether no further transitions can occur.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusCompleted, OrderStatusExpired, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// OrderSide captures the direction of a broker order.
type OrderSide string

const (
	// OrderSideBid buys the base asset.
	OrderSideBid OrderSide = "bid"
	// OrderSideAsk sells the base asset.
	OrderSideAsk OrderSide = "ask"
)

// ParseOrderSide maps a wire side string onto the closed enumeration.
func ParseOrderSide(raw string) (OrderSide, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "bid":
		return OrderSideBid, nil
	case "ask":
		return OrderSideAsk, nil
	default:
		return "", errs.New("schema/order-side", errs.KindNetwork,
			errs.WithMessage("unknown order side "+strings.TrimSpace(raw)))
	}
}

// UnmarshalJSON decodes a side string, rejecting unknown values.
func (s *OrderSide) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	side, err := ParseOrderSide(raw)
	if err != nil {
		return err
	}
	*s = side
	return nil
}

// BrokerOrder is a client-initiated exchange transaction tracked by a
// server-assigned token. Orders mutate only by wholesale replacement with a
// newer record bearing the same token.
type BrokerOrder struct {
	Token       string           `json:"token"`
	CreatedAt   time.Time        `json:"createdAt"`
	ExpiresAt   time.Time        `json:"expiresAt"`
	Market      string           `json:"market"`
	BaseSymbol  string           `json:"baseSymbol"`
	QuoteSymbol string           `json:"quoteSymbol"`
	BaseAmount  decimal.Decimal  `json:"baseAmount"`
	QuoteAmount decimal.Decimal  `json:"quoteAmount"`
	Address     string           `json:"address"`
	Status      OrderStatus      `json:"status"`
	PaymentURL  Optional[string] `json:"paymentUrl"`
}

// Placeholder returns a not-yet-loaded order view for the given token.
func Placeholder(token string) BrokerOrder {
	return BrokerOrder{Token: token, Status: OrderStatusNone}
}

// DecodeBrokerOrder parses a full serialized order.
func DecodeBrokerOrder(data []byte) (BrokerOrder, error) {
	var order BrokerOrder
	if err := json.Unmarshal(data, &order); err != nil {
		return BrokerOrder{}, err
	}
	if strings.TrimSpace(order.Token) == "" {
		return BrokerOrder{}, errs.New("schema/broker-order", errs.KindNetwork,
			errs.WithMessage("order token missing"))
	}
	return order, nil
}

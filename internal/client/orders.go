package client

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/coachpo/brokerlink/internal/schema"
)

// CreateOrderParams carries the fields of a new broker order.
type CreateOrderParams struct {
	Market  string
	Side    schema.OrderSide
	Amount  decimal.Decimal
	Address string
}

type createOrderRequest struct {
	signedBody
	Market  string          `json:"market"`
	Side    string          `json:"side"`
	Amount  decimal.Decimal `json:"amount"`
	Address string          `json:"address"`
}

// CreateOrder places a new broker order and returns the created record.
// The server assigns the token and the initial status.
func (c *Client) CreateOrder(ctx context.Context, params CreateOrderParams) (schema.BrokerOrder, error) {
	body := &createOrderRequest{
		Market:  params.Market,
		Side:    string(params.Side),
		Amount:  params.Amount,
		Address: params.Address,
	}
	var order schema.BrokerOrder
	if err := c.postSigned(ctx, "orders/create", body, &order); err != nil {
		return schema.BrokerOrder{}, err
	}
	return order, nil
}

type orderTokenRequest struct {
	signedBody
	OrderToken string `json:"orderToken"`
}

// AcceptOrder accepts a created order and returns the updated record.
func (c *Client) AcceptOrder(ctx context.Context, token string) (schema.BrokerOrder, error) {
	var order schema.BrokerOrder
	if err := c.postSigned(ctx, "orders/accept", &orderTokenRequest{OrderToken: token}, &order); err != nil {
		return schema.BrokerOrder{}, err
	}
	return order, nil
}

// OrderStatus fetches the current server-side record of an order.
func (c *Client) OrderStatus(ctx context.Context, token string) (schema.BrokerOrder, error) {
	var order schema.BrokerOrder
	if err := c.postSigned(ctx, "orders/status", &orderTokenRequest{OrderToken: token}, &order); err != nil {
		return schema.BrokerOrder{}, err
	}
	return order, nil
}

type listOrdersRequest struct {
	signedBody
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// Orders returns one page of the account's broker orders, most recent first.
func (c *Client) Orders(ctx context.Context, offset, limit int) ([]schema.BrokerOrder, error) {
	var resp struct {
		Orders []schema.BrokerOrder `json:"orders"`
	}
	body := &listOrdersRequest{Offset: offset, Limit: limit}
	if err := c.postSigned(ctx, "orders/list", body, &resp); err != nil {
		return nil, err
	}
	return resp.Orders, nil
}

package client

import (
	"context"

	"github.com/coachpo/brokerlink/internal/schema"
)

type listRequest struct {
	signedBody
}

// Assets lists the currencies supported by the brokerage.
func (c *Client) Assets(ctx context.Context) ([]schema.Asset, error) {
	var resp struct {
		Assets []schema.Asset `json:"assets"`
	}
	if err := c.postSigned(ctx, "assets/list", &listRequest{}, &resp); err != nil {
		return nil, err
	}
	return resp.Assets, nil
}

// Markets lists the tradeable pairs.
func (c *Client) Markets(ctx context.Context) ([]schema.Market, error) {
	var resp struct {
		Markets []schema.Market `json:"markets"`
	}
	if err := c.postSigned(ctx, "markets/list", &listRequest{}, &resp); err != nil {
		return nil, err
	}
	return resp.Markets, nil
}

type orderbookRequest struct {
	signedBody
	Market string `json:"market"`
}

// Orderbook fetches a fresh depth snapshot plus the fee schedule for a
// market. Each call rebuilds the book wholesale; there is no delta path.
func (c *Client) Orderbook(ctx context.Context, market string) (schema.Orderbook, error) {
	var book schema.Orderbook
	if err := c.postSigned(ctx, "orderbook/get", &orderbookRequest{Market: market}, &book); err != nil {
		return schema.Orderbook{}, err
	}
	return book, nil
}

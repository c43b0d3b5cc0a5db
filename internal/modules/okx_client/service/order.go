package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

// PlaceOrder: POST /api/v5/trade/order. sCode != "0" превращаем в *APIError.
func (c *Client) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (PlaceOrderResult, error) {
	if req.InstID == "" || req.Side == "" || req.Sz == "" {
		return PlaceOrderResult{}, fmt.Errorf("PlaceOrder: instId/side/sz are required")
	}
	if req.OrdType == "" {
		req.OrdType = "market"
	}

	data, err := c.request(ctx, http.MethodPost, "/api/v5/trade/order", nil, req, true)
	if err != nil {
		return PlaceOrderResult{}, err
	}

	var rows []PlaceOrderResult
	if err := sonic.Unmarshal(data, &rows); err != nil {
		return PlaceOrderResult{}, errors.Wrap(ErrMalformed, fmt.Sprintf("place order: %v", err))
	}
	if len(rows) == 0 {
		return PlaceOrderResult{}, errors.Wrap(ErrMalformed, "place order: empty data")
	}
	r := rows[0]
	if r.SCode != "" && r.SCode != "0" {
		return PlaceOrderResult{}, &APIError{HTTPStatus: http.StatusOK, Path: "/api/v5/trade/order", Code: r.SCode, Msg: r.SMsg}
	}
	return r, nil
}

// GetOrder: GET /api/v5/trade/order, нужен для подтверждения филла.
func (c *Client) GetOrder(ctx context.Context, instID, ordID string) (OrderDetails, error) {
	q := url.Values{}
	q.Set("instId", instID)
	q.Set("ordId", ordID)

	data, err := c.request(ctx, http.MethodGet, "/api/v5/trade/order", q, nil, true)
	if err != nil {
		return OrderDetails{}, err
	}

	var rows []orderRow
	if err := sonic.Unmarshal(data, &rows); err != nil {
		return OrderDetails{}, errors.Wrap(ErrMalformed, fmt.Sprintf("get order: %v", err))
	}
	if len(rows) == 0 {
		return OrderDetails{}, errors.Wrapf(ErrMalformed, "get order %s: empty data", ordID)
	}

	r := rows[0]
	avgPx, err := parseFloat("avgPx", r.AvgPx)
	if err != nil {
		return OrderDetails{}, err
	}
	filled, err := parseFloat("accFillSz", r.AccFillSz)
	if err != nil {
		return OrderDetails{}, err
	}
	sz, err := parseFloat("sz", r.Sz)
	if err != nil {
		return OrderDetails{}, err
	}
	return OrderDetails{
		OrdID:     r.OrdID,
		State:     OrderState(r.State),
		AvgPx:     avgPx,
		AccFillSz: filled,
		Sz:        sz,
	}, nil
}

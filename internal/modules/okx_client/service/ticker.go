package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

// GetTicker: последняя цена сделки по инструменту.
func (c *Client) GetTicker(ctx context.Context, instID string) (Ticker, error) {
	q := url.Values{}
	q.Set("instId", instID)

	data, err := c.request(ctx, http.MethodGet, "/api/v5/market/ticker", q, nil, false)
	if err != nil {
		return Ticker{}, err
	}

	var rows []tickerRow
	if err := sonic.Unmarshal(data, &rows); err != nil {
		return Ticker{}, errors.Wrap(ErrMalformed, fmt.Sprintf("ticker: %v", err))
	}
	if len(rows) == 0 {
		return Ticker{}, errors.Wrap(ErrMalformed, "ticker: empty data")
	}

	last, err := parseFloat("last", rows[0].Last)
	if err != nil {
		return Ticker{}, err
	}
	if last <= 0 {
		return Ticker{}, errors.Wrapf(ErrMalformed, "ticker: last=%q", rows[0].Last)
	}
	ts, _ := strconv.ParseInt(rows[0].Ts, 10, 64)

	return Ticker{InstID: rows[0].InstID, Last: last, TsMs: ts}, nil
}

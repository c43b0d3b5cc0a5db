package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"rsi_bot/internal/models"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

// GetCandles: /api/v5/market/candles. OKX отдаёт newest-first; порядок не трогаем,
// сортировка: забота вызывающего (store.BulkUpsert, feed).
// Строка данных: [ts, o, h, l, c, vol, volCcy, volCcyQuote, confirm].
func (c *Client) GetCandles(ctx context.Context, instID, bar string, limit int) ([]models.Candle, error) {
	if limit <= 0 {
		limit = 100
	}
	okxBar, err := OkxBar(bar)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("instId", instID)
	q.Set("bar", okxBar)
	q.Set("limit", strconv.Itoa(limit))

	data, err := c.request(ctx, http.MethodGet, "/api/v5/market/candles", q, nil, false)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	if err := sonic.Unmarshal(data, &rows); err != nil {
		return nil, errors.Wrap(ErrMalformed, fmt.Sprintf("candles: %v", err))
	}

	out := make([]models.Candle, 0, len(rows))
	for _, row := range rows {
		candle, err := ParseCandleRow(instID, row)
		if err != nil {
			continue
		}
		out = append(out, candle)
	}
	return out, nil
}

// ParseCandleRow разбирает строку свечи OKX (REST и WS используют один формат).
func ParseCandleRow(instID string, row []string) (models.Candle, error) {
	if len(row) < 6 {
		return models.Candle{}, fmt.Errorf("%w: candle row has %d fields", ErrMalformed, len(row))
	}
	ts, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return models.Candle{}, fmt.Errorf("%w: ts=%q", ErrMalformed, row[0])
	}

	var vals [5]float64
	names := [5]string{"open", "high", "low", "close", "volume"}
	for i := range vals {
		if vals[i], err = parseFloat(names[i], row[i+1]); err != nil {
			return models.Candle{}, err
		}
	}
	if vals[3] <= 0 {
		return models.Candle{}, fmt.Errorf("%w: close <= 0", ErrMalformed)
	}

	return models.Candle{
		Symbol:    instID,
		Timestamp: ts,
		Open:      vals[0],
		High:      vals[1],
		Low:       vals[2],
		Close:     vals[3],
		Volume:    vals[4],
	}, nil
}

// Package feed: текущая цена и окно последних закрытий с биржи.
// Ошибки биржи не пробрасываются: вызывающий видит пустой результат
// и пропускает цикл.
package feed

import (
	"context"

	"rsi_bot/internal/models"
	okx "rsi_bot/internal/modules/okx_client/service"
	"rsi_bot/internal/store"
	"rsi_bot/pkg/logger"
)

// Market: часть REST-клиента OKX, нужная фиду.
type Market interface {
	GetTicker(ctx context.Context, instID string) (okx.Ticker, error)
	GetCandles(ctx context.Context, instID, bar string, limit int) ([]models.Candle, error)
}

type PriceFeed struct {
	market Market
	bar    string
}

func New(market Market, bar string) *PriceFeed {
	return &PriceFeed{market: market, bar: bar}
}

// LatestPrice: last из тикера. false, если биржа не ответила или цена невалидна.
func (f *PriceFeed) LatestPrice(ctx context.Context, symbol string) (float64, bool) {
	t, err := f.market.GetTicker(ctx, symbol)
	if err != nil {
		logger.Error("[FEED] ticker %s: %v", symbol, err)
		return 0, false
	}
	if t.Last <= 0 {
		logger.Warn("[FEED] ticker %s: bad last price %v", symbol, t.Last)
		return 0, false
	}
	return t.Last, true
}

// RecentCloses: не больше window закрытий по возрастанию времени.
func (f *PriceFeed) RecentCloses(ctx context.Context, symbol string, window int) []float64 {
	if window <= 0 {
		return nil
	}
	candles, err := f.market.GetCandles(ctx, symbol, f.bar, window)
	if err != nil {
		logger.Error("[FEED] candles %s/%s: %v", symbol, f.bar, err)
		return nil
	}
	candles = store.SortCandles(candles)
	if len(candles) > window {
		candles = candles[len(candles)-window:]
	}
	return models.Closes(candles)
}

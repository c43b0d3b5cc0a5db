package runner

import (
	"context"
	"fmt"
	"time"

	"rsi_bot/internal/metrics"
	"rsi_bot/internal/models"
	"rsi_bot/internal/modules/config"
	"rsi_bot/internal/modules/health/service"
	okx "rsi_bot/internal/modules/okx_client/service"
	"rsi_bot/internal/store"
	"rsi_bot/pkg/logger"
)

type CandleSource interface {
	GetCandles(ctx context.Context, instID, bar string, limit int) ([]models.Candle, error)
}

type CandleStream interface {
	StreamCandles(ctx context.Context, instID, bar string) (<-chan models.Candle, error)
}

// refreshBars: текущий бар + только что закрытый, чтобы не потерять его финальную ревизию.
const refreshBars = 2

// Ingestor: бэкфилл истории и дальше обновление последнего бара.
type Ingestor struct {
	symbol   string
	bar      string
	limit    int
	interval time.Duration
	source   string

	rest   CandleSource
	stream CandleStream
	store  store.Store
	state  *service.State

	now func() time.Time
}

func NewIngestor(cfg *config.Config, rest CandleSource, stream CandleStream, st store.Store, state *service.State) *Ingestor {
	return &Ingestor{
		symbol:   cfg.Symbol,
		bar:      cfg.Ingest.Bar,
		limit:    cfg.Ingest.Limit,
		interval: cfg.Ingest.Interval,
		source:   cfg.Ingest.Source,
		rest:     rest,
		stream:   stream,
		store:    st,
		state:    state,
		now:      time.Now,
	}
}

// Backfill: limit последних свечей одним батчем.
func (i *Ingestor) Backfill(ctx context.Context) error {
	return i.fetch(ctx, i.limit)
}

// Refresh: перечитать последние бары (upsert по timestamp).
func (i *Ingestor) Refresh(ctx context.Context) error {
	return i.fetch(ctx, refreshBars)
}

func (i *Ingestor) fetch(ctx context.Context, limit int) error {
	candles, err := i.rest.GetCandles(ctx, i.symbol, i.bar, limit)
	if err != nil {
		return fmt.Errorf("fetch %s/%s: %w", i.symbol, i.bar, err)
	}
	if len(candles) == 0 {
		return nil
	}
	if err := i.store.BulkUpsert(ctx, i.symbol, candles); err != nil {
		return fmt.Errorf("store %d candles: %w", len(candles), err)
	}
	i.touch(len(candles))
	return nil
}

func (i *Ingestor) touch(n int) {
	metrics.CandlesUpserted.WithLabelValues(i.symbol).Add(float64(n))
	if i.state != nil {
		i.state.TouchTick(i.now())
	}
}

// Run: бэкфилл, затем REST-опрос или WS-поток до отмены ctx.
// Ошибки пишутся в лог, цикл продолжается.
func (i *Ingestor) Run(ctx context.Context) {
	if err := i.Backfill(ctx); err != nil {
		metrics.ErrorsTotal.WithLabelValues("ingest").Inc()
		logger.Error("[INGEST] backfill: %v", err)
	} else {
		logger.Info("[INGEST] ✅ backfill %s/%s done (limit=%d)", i.symbol, i.bar, i.limit)
	}

	if i.source == config.SourceWS && i.stream != nil {
		i.runStream(ctx)
		return
	}
	i.runPoll(ctx)
}

func (i *Ingestor) runPoll(ctx context.Context) {
	logger.Info("[INGEST] ▶️ %s/%s polling every %s", i.symbol, i.bar, i.interval)
	if d := okx.TimeframeToDuration(i.bar); d > 0 && i.interval*refreshBars > d {
		logger.Warn("[INGEST] interval %s is too slow for %s bars, closed bars may be missed", i.interval, i.bar)
	}
	ticker := time.NewTicker(i.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("[INGEST] ⏹ stopped")
			return
		case <-ticker.C:
			if err := i.Refresh(ctx); err != nil {
				metrics.ErrorsTotal.WithLabelValues("ingest").Inc()
				logger.Error("[INGEST] refresh: %v", err)
			}
		}
	}
}

func (i *Ingestor) runStream(ctx context.Context) {
	logger.Info("[INGEST] ▶️ %s/%s via websocket", i.symbol, i.bar)
	candles, err := i.stream.StreamCandles(ctx, i.symbol, i.bar)
	if err != nil {
		logger.Error("[INGEST] stream: %v, falling back to polling", err)
		i.runPoll(ctx)
		return
	}
	for c := range candles {
		if err := i.store.UpsertCandle(ctx, i.symbol, c); err != nil {
			metrics.ErrorsTotal.WithLabelValues("ingest").Inc()
			logger.Error("[INGEST] upsert %s %s: %v", i.symbol, c.DateTime(), err)
			continue
		}
		i.touch(1)
	}
	logger.Info("[INGEST] ⏹ stream closed")
}

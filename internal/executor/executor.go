// Package executor: рыночные ордера на OKX и сверка филла.
package executor

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"rsi_bot/internal/metrics"
	"rsi_bot/internal/models"
	"rsi_bot/internal/modules/config"
	okx "rsi_bot/internal/modules/okx_client/service"
	"rsi_bot/pkg/logger"
	"rsi_bot/pkg/tracing"

	"github.com/opentracing/opentracing-go"
)

// Exchange: торговая часть REST-клиента OKX.
type Exchange interface {
	PlaceOrder(ctx context.Context, req okx.PlaceOrderRequest) (okx.PlaceOrderResult, error)
	GetOrder(ctx context.Context, instID, ordID string) (okx.OrderDetails, error)
}

type Options struct {
	TdMode      string
	FillMode    string // optimistic | confirmed
	FillTimeout time.Duration
	FillPoll    time.Duration
	DryRun      bool
}

type Executor struct {
	ex   Exchange
	opts Options
	seq  atomic.Uint64
	now  func() time.Time
}

func New(ex Exchange, o Options) *Executor {
	if o.TdMode == "" {
		o.TdMode = "cross"
	}
	if o.FillMode == "" {
		o.FillMode = config.FillOptimistic
	}
	if o.FillTimeout <= 0 {
		o.FillTimeout = 15 * time.Second
	}
	if o.FillPoll <= 0 {
		o.FillPoll = 500 * time.Millisecond
	}
	return &Executor{ex: ex, opts: o, now: time.Now}
}

// NewFromConfig: конструктор для fx.
func NewFromConfig(cfg *config.Config, client *okx.Client) *Executor {
	return New(client, Options{
		TdMode:      cfg.Executor.TdMode,
		FillMode:    cfg.Executor.FillMode,
		FillTimeout: cfg.Executor.FillTimeout,
		FillPoll:    cfg.Executor.FillPoll,
		DryRun:      cfg.Executor.DryRun,
	})
}

func (e *Executor) Confirmed() bool { return e.opts.FillMode == config.FillConfirmed }

// PlaceMarketOrder выставляет рыночный ордер. Любая ошибка биржи: *RemoteExecutionError.
func (e *Executor) PlaceMarketOrder(ctx context.Context, symbol string, side models.Side, size float64) (ref models.OrderRef, err error) {
	span, ctx := tracing.StartSpan(ctx, "executor.PlaceMarketOrder",
		opentracing.Tag{Key: "symbol", Value: symbol},
		opentracing.Tag{Key: "side", Value: string(side)},
		opentracing.Tag{Key: "size", Value: size},
	)
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		metrics.OrdersTotal.WithLabelValues(symbol, string(side), result).Inc()
		tracing.FinishWithError(span, err)
	}()

	if size <= 0 {
		return models.OrderRef{}, &RemoteExecutionError{Symbol: symbol, Side: side, Size: size, Err: fmt.Errorf("size must be > 0")}
	}

	clOrdID := e.clientOrderID()
	if e.opts.DryRun {
		logger.Info("[EXEC] dry run: %s %s %v (clOrdId=%s)", side, symbol, size, clOrdID)
		return models.OrderRef{ID: "dry-" + clOrdID, ClientID: clOrdID}, nil
	}

	res, err := e.ex.PlaceOrder(ctx, okx.PlaceOrderRequest{
		InstID:  symbol,
		TdMode:  e.opts.TdMode,
		Side:    string(side),
		OrdType: "market",
		Sz:      okx.FormatSize(size),
		ClOrdID: clOrdID,
	})
	if err != nil {
		return models.OrderRef{}, &RemoteExecutionError{Symbol: symbol, Side: side, Size: size, Err: err}
	}

	logger.Info("[EXEC] placed %s %s %v: ordId=%s clOrdId=%s", side, symbol, size, res.OrdID, clOrdID)
	return models.OrderRef{ID: res.OrdID, ClientID: clOrdID}, nil
}

// Fill сводит ордер к исполнению.
//
// optimistic (и dry run): филл = запрошенный объём по цене цикла.
// confirmed: опрашиваем ордер до filled; canceled без исполнения или таймаут
// без исполнения: ErrOrderNotFilled, частичное исполнение отдаём как есть.
func (e *Executor) Fill(ctx context.Context, symbol string, ref models.OrderRef, size, price float64) (models.Fill, error) {
	if !e.Confirmed() || e.opts.DryRun {
		return models.Fill{Price: price, Size: size}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.opts.FillTimeout)
	defer cancel()

	ticker := time.NewTicker(e.opts.FillPoll)
	defer ticker.Stop()

	var last okx.OrderDetails
	for {
		d, err := e.ex.GetOrder(ctx, symbol, ref.ID)
		if err != nil {
			logger.Warn("[EXEC] get order %s: %v", ref.ID, err)
		} else {
			last = d
			switch d.State {
			case okx.OrderFilled:
				return fillOf(d, price), nil
			case okx.OrderCanceled, okx.OrderMmpCanceled:
				if d.AccFillSz > 0 {
					logger.Warn("[EXEC] order %s canceled after partial fill %v/%v", ref.ID, d.AccFillSz, size)
					return fillOf(d, price), nil
				}
				return models.Fill{}, fmt.Errorf("order %s %s: %w", ref.ID, d.State, ErrOrderNotFilled)
			}
		}

		select {
		case <-ctx.Done():
			if last.AccFillSz > 0 {
				logger.Warn("[EXEC] order %s not completed in %s, partial fill %v/%v", ref.ID, e.opts.FillTimeout, last.AccFillSz, size)
				return fillOf(last, price), nil
			}
			return models.Fill{}, fmt.Errorf("order %s after %s: %w", ref.ID, e.opts.FillTimeout, ErrOrderNotFilled)
		case <-ticker.C:
		}
	}
}

// fillOf: avgPx может быть пустым у только что исполненного ордера: берём цену цикла.
func fillOf(d okx.OrderDetails, fallback float64) models.Fill {
	px := d.AvgPx
	if px <= 0 {
		px = fallback
	}
	return models.Fill{Price: px, Size: d.AccFillSz}
}

// clientOrderID: буквы и цифры, до 32 символов (требование OKX).
func (e *Executor) clientOrderID() string {
	n := e.seq.Add(1)
	return "rsib" + strconv.FormatInt(e.now().UnixMilli(), 36) + strconv.FormatUint(n, 36)
}

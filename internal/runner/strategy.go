package runner

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"rsi_bot/internal/executor"
	"rsi_bot/internal/indicator"
	"rsi_bot/internal/metrics"
	"rsi_bot/internal/models"
	"rsi_bot/internal/modules/config"
	"rsi_bot/internal/modules/health/service"
	"rsi_bot/internal/notify"
	"rsi_bot/internal/position"
	"rsi_bot/internal/store"
	"rsi_bot/pkg/logger"
	"rsi_bot/pkg/tracing"

	"github.com/opentracing/opentracing-go"
)

type PriceFeed interface {
	LatestPrice(ctx context.Context, symbol string) (float64, bool)
	RecentCloses(ctx context.Context, symbol string, window int) []float64
}

type OrderExecutor interface {
	PlaceMarketOrder(ctx context.Context, symbol string, side models.Side, size float64) (models.OrderRef, error)
	Fill(ctx context.Context, symbol string, ref models.OrderRef, size, price float64) (models.Fill, error)
}

var _ OrderExecutor = (*executor.Executor)(nil)

// Strategy: цикл стратегии одного символа. Позицией владеет только он.
type Strategy struct {
	symbol   string
	window   int
	interval time.Duration
	restore  bool

	feed  PriceFeed
	exec  OrderExecutor
	store store.Store
	n     notify.Notifier
	state *service.State

	machine *position.Machine

	mu         sync.Mutex // pos для Status()
	pos        models.Position
	lastSignal int64

	now func() time.Time
}

func NewStrategy(cfg *config.Config, feed PriceFeed, exec OrderExecutor, st store.Store, n notify.Notifier, state *service.State) (*Strategy, error) {
	policy, err := position.PolicyByName(cfg.Strategy.AvgPricePolicy)
	if err != nil {
		return nil, err
	}
	return &Strategy{
		symbol:   cfg.Symbol,
		window:   cfg.Strategy.Window,
		interval: cfg.Strategy.Interval,
		restore:  cfg.Strategy.RestorePosition,
		feed:     feed,
		exec:     exec,
		store:    st,
		n:        n,
		state:    state,
		machine:  position.NewMachine(cfg.Strategy.StrategyConfig, policy),
		now:      time.Now,
	}, nil
}

// Restore поднимает позицию из последнего снапшота (strategy.restore_position).
func (s *Strategy) Restore(ctx context.Context) error {
	if !s.restore {
		logger.Warn("[STRATEGY] %s: starting flat, position is not restored after restart", s.symbol)
		return nil
	}
	snap, ok, err := s.store.LoadPosition(ctx, s.symbol)
	if err != nil {
		return fmt.Errorf("load position %s: %w", s.symbol, err)
	}
	if !ok {
		logger.Info("[STRATEGY] %s: no position snapshot, starting flat", s.symbol)
		return nil
	}
	if err := s.machine.Restore(snap.Position); err != nil {
		return err
	}
	s.publish()
	logger.Info("[STRATEGY] %s: restored position %v @ %v (saved %s)",
		s.symbol, snap.Position.Size, snap.Position.AvgPrice, snap.UpdatedAt.Format(time.RFC3339))
	return nil
}

// Run: цикл до отмены ctx. Первый цикл сразу, дальше по тикеру.
func (s *Strategy) Run(ctx context.Context) {
	logger.Info("[STRATEGY] ▶️ %s every %s", s.symbol, s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.safeCycle(ctx)
		select {
		case <-ctx.Done():
			logger.Info("[STRATEGY] ⏹ %s stopped", s.symbol)
			return
		case <-ticker.C:
		}
	}
}

func (s *Strategy) safeCycle(ctx context.Context) {
	started := s.now()
	defer func() {
		if r := recover(); r != nil {
			metrics.CyclesTotal.WithLabelValues(s.symbol, metrics.OutcomeError).Inc()
			logger.Error("[STRATEGY] %s cycle %s panic: %v\n%s", s.symbol, started.Format(time.RFC3339), r, debug.Stack())
		}
	}()

	if err := s.Cycle(ctx); err != nil {
		metrics.CyclesTotal.WithLabelValues(s.symbol, metrics.OutcomeError).Inc()
		metrics.ErrorsTotal.WithLabelValues("strategy").Inc()
		logger.Error("[STRATEGY] %s cycle %s: %v", s.symbol, started.Format(time.RFC3339), err)
	}
}

// Cycle: один проход: вход, затем выход по уже обновлённой позиции.
func (s *Strategy) Cycle(ctx context.Context) (err error) {
	span, ctx := tracing.StartSpan(ctx, "strategy.Cycle", opentracing.Tag{Key: "symbol", Value: s.symbol})
	defer func() { tracing.FinishWithError(span, err) }()

	if s.state != nil {
		defer s.state.TouchCycle(s.now())
	}

	price, ok := s.feed.LatestPrice(ctx, s.symbol)
	if !ok {
		metrics.CyclesTotal.WithLabelValues(s.symbol, metrics.OutcomeSkipped).Inc()
		logger.Info("[STRATEGY] %s: no price, skip cycle", s.symbol)
		return nil
	}
	closes := s.feed.RecentCloses(ctx, s.symbol, s.window)
	rsi := indicator.Last(indicator.RSI(closes, s.machine.Config().RSIPeriod))
	metrics.LastRSI.WithLabelValues(s.symbol).Set(rsi)
	logger.Debug("[STRATEGY] %s price=%v rsi=%.2f closes=%d pos=%+v", s.symbol, price, rsi, len(closes), s.machine.Position())

	// неудачный вход не отменяет проверку выхода по прежней позиции
	var entryErr, exitErr error
	if sig := s.machine.CheckEntry(closes, price); sig != position.EntryNone {
		if entryErr = s.enter(ctx, sig, price); entryErr != nil {
			metrics.ErrorsTotal.WithLabelValues("entry").Inc()
			logger.Error("[STRATEGY] %s entry failed, checking exit anyway: %v", s.symbol, entryErr)
		}
	}
	if sig := s.machine.CheckExit(price); sig != position.ExitNone {
		exitErr = s.exit(ctx, sig, price)
	}
	if err := errors.Join(entryErr, exitErr); err != nil {
		return err
	}

	metrics.CyclesTotal.WithLabelValues(s.symbol, metrics.OutcomeOK).Inc()
	return nil
}

func (s *Strategy) enter(ctx context.Context, sig position.EntrySignal, price float64) error {
	size := sig.Size(s.machine.Config())
	metrics.SignalsTotal.WithLabelValues(s.symbol, sig.String()).Inc()
	logger.Info("[SIGNAL] %s %s: %v @ %v", s.symbol, sig, size, price)

	ref, err := s.exec.PlaceMarketOrder(ctx, s.symbol, models.SideBuy, size)
	if err != nil {
		return fmt.Errorf("%s: %w", sig, err)
	}
	fill, err := s.exec.Fill(ctx, s.symbol, ref, size, price)
	if err != nil {
		return fmt.Errorf("%s fill %s: %w", sig, ref.ID, err)
	}

	pos := s.machine.Enter(sig, fill)
	s.afterTransition(ctx, models.SignalBuy)
	s.n.Send(notify.EntryMessage(s.symbol, sig.String(), fill, pos))
	return nil
}

func (s *Strategy) exit(ctx context.Context, sig position.ExitSignal, price float64) error {
	prev := s.machine.Position()
	metrics.SignalsTotal.WithLabelValues(s.symbol, sig.String()).Inc()
	logger.Info("[SIGNAL] %s %s: close %v @ %v (avg %v)", s.symbol, sig, prev.Size, price, prev.AvgPrice)

	ref, err := s.exec.PlaceMarketOrder(ctx, s.symbol, models.SideSell, prev.Size)
	if err != nil {
		return fmt.Errorf("%s: %w", sig, err)
	}
	fill, err := s.exec.Fill(ctx, s.symbol, ref, prev.Size, price)
	if err != nil {
		return fmt.Errorf("%s fill %s: %w", sig, ref.ID, err)
	}

	if fill.Size < prev.Size {
		logger.Warn("[STRATEGY] %s %s: sold %v of %v, keeping the rest", s.symbol, sig, fill.Size, prev.Size)
		s.machine.Reduce(fill.Size)
	} else {
		s.machine.Exit()
	}
	s.afterTransition(ctx, models.SignalSell)
	s.n.Send(notify.ExitMessage(s.symbol, sig.String(), fill, prev))
	return nil
}

// afterTransition: сигнал в аудит и снапшот позиции. Ошибки записи не
// откатывают переход: ордер уже исполнен.
func (s *Strategy) afterTransition(ctx context.Context, kind models.SignalKind) {
	s.publish()
	now := s.now()

	ts := now.UnixMilli()
	if ts <= s.lastSignal {
		ts = s.lastSignal + 1
	}
	s.lastSignal = ts

	if err := s.store.RecordSignal(ctx, s.symbol, ts, kind); err != nil {
		metrics.ErrorsTotal.WithLabelValues("record_signal").Inc()
		logger.Error("[STORE] record %s signal %s: %v", s.symbol, kind, err)
	}
	snap := models.PositionSnapshot{Symbol: s.symbol, Position: s.machine.Position(), UpdatedAt: now}
	if err := s.store.SavePosition(ctx, snap); err != nil {
		metrics.ErrorsTotal.WithLabelValues("save_position").Inc()
		logger.Error("[STORE] save %s position: %v", s.symbol, err)
	}
}

func (s *Strategy) publish() {
	pos := s.machine.Position()
	metrics.PositionSize.WithLabelValues(s.symbol).Set(pos.Size)
	s.mu.Lock()
	s.pos = pos
	s.mu.Unlock()
}

// Position: последнее опубликованное состояние; безопасно из других горутин.
func (s *Strategy) Position() models.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}

// Status: текст для /status в Telegram.
func (s *Strategy) Status() string {
	pos := s.Position()
	return notify.StatusMessage(s.symbol, pos, position.StateOf(pos, s.machine.Config()).String())
}


package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"rsi_bot/internal/executor"
	"rsi_bot/internal/models"
	"rsi_bot/internal/modules/config"
	"rsi_bot/internal/modules/health/service"
	"rsi_bot/internal/notify"
	"rsi_bot/internal/store"
	"rsi_bot/internal/store/memory"
	"rsi_bot/pkg/logger"

	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.SetLogger(zap.NewNop())
	m.Run()
}

type fakeFeed struct {
	price  float64
	ok     bool
	closes []float64
	panic  bool
}

func (f *fakeFeed) LatestPrice(context.Context, string) (float64, bool) {
	if f.panic {
		panic("feed exploded")
	}
	return f.price, f.ok
}

func (f *fakeFeed) RecentCloses(context.Context, string, int) []float64 { return f.closes }

type order struct {
	side models.Side
	size float64
}

type fakeExec struct {
	orders   []order
	placeErr error
	// rejectSide: placeErr только для этой стороны; пусто = для обеих
	rejectSide models.Side
	fillSize   func(requested float64) float64
}

func (e *fakeExec) PlaceMarketOrder(_ context.Context, symbol string, side models.Side, size float64) (models.OrderRef, error) {
	if e.placeErr != nil && (e.rejectSide == "" || e.rejectSide == side) {
		return models.OrderRef{}, &executor.RemoteExecutionError{Symbol: symbol, Side: side, Size: size, Err: e.placeErr}
	}
	e.orders = append(e.orders, order{side, size})
	return models.OrderRef{ID: "1"}, nil
}

func (e *fakeExec) Fill(_ context.Context, _ string, _ models.OrderRef, size, price float64) (models.Fill, error) {
	if e.fillSize != nil {
		size = e.fillSize(size)
	}
	return models.Fill{Price: price, Size: size}, nil
}

// rsi25: RSI(14) последнего значения = 25.
func rsi25() []float64 {
	closes := []float64{100}
	px := 100.0
	for _, d := range []float64{1, 1, 1, -1, -1, -1, -1, -1, -1, -1, -1, -1, 0, 0} {
		px += d
		closes = append(closes, px)
	}
	return closes
}

type harness struct {
	s     *Strategy
	feed  *fakeFeed
	exec  *fakeExec
	store *memory.Store
	state *service.State
}

func newHarness(t *testing.T, start models.Position, tune func(cfg *config.Config)) *harness {
	t.Helper()
	cfg := config.Default()
	cfg.Store.Driver = config.StoreMemory
	cfg.Strategy.RestorePosition = true
	if tune != nil {
		tune(&cfg)
	}

	h := &harness{
		feed:  &fakeFeed{ok: true},
		exec:  &fakeExec{},
		store: memory.New(),
		state: service.NewState(),
	}
	if !start.IsFlat() {
		_ = h.store.SavePosition(context.Background(), models.PositionSnapshot{Symbol: cfg.Symbol, Position: start})
	}
	s, err := NewStrategy(&cfg, h.feed, h.exec, h.store, notify.NewStdout(), h.state)
	if err != nil {
		t.Fatal(err)
	}
	s.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	if err := s.Restore(context.Background()); err != nil {
		t.Fatal(err)
	}
	h.s = s
	return h
}

func (h *harness) signals() []models.Signal {
	return store.Collect(h.store.ReadSignals(context.Background(), "XRP-USDT"))
}

func (h *harness) snapshot(t *testing.T) models.Position {
	t.Helper()
	snap, ok, err := h.store.LoadPosition(context.Background(), "XRP-USDT")
	if err != nil || !ok {
		t.Fatalf("snapshot ok=%v err=%v", ok, err)
	}
	return snap.Position
}

func TestCycleFlatEntry(t *testing.T) {
	h := newHarness(t, models.Position{}, nil)
	h.feed.price, h.feed.closes = 94, rsi25()

	if err := h.s.Cycle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(h.exec.orders) != 1 || h.exec.orders[0] != (order{models.SideBuy, 40}) {
		t.Fatalf("orders = %+v", h.exec.orders)
	}
	want := models.Position{Size: 40, AvgPrice: 94}
	if h.s.Position() != want || h.snapshot(t) != want {
		t.Fatalf("position = %+v snapshot = %+v", h.s.Position(), h.snapshot(t))
	}
	if sigs := h.signals(); len(sigs) != 1 || sigs[0].Kind != models.SignalBuy {
		t.Fatalf("signals = %+v", sigs)
	}
	if h.state.LastCycle().IsZero() {
		t.Fatal("cycle time not recorded")
	}
}

func TestCycleSecondTranche(t *testing.T) {
	h := newHarness(t, models.Position{Size: 40, AvgPrice: 100}, nil)
	h.feed.price = 105

	if err := h.s.Cycle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if pos := h.s.Position(); pos.Size != 47 || pos.AvgPrice != 105 {
		t.Fatalf("position = %+v", pos)
	}
	if len(h.exec.orders) != 1 || h.exec.orders[0] != (order{models.SideBuy, 7}) {
		t.Fatalf("orders = %+v", h.exec.orders)
	}
}

func TestCycleStopLoss(t *testing.T) {
	h := newHarness(t, models.Position{Size: 40, AvgPrice: 100}, func(cfg *config.Config) {
		cfg.Strategy.ImmediateExitPct = 10
	})
	h.feed.price = 96

	if err := h.s.Cycle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(h.exec.orders) != 1 || h.exec.orders[0] != (order{models.SideSell, 40}) {
		t.Fatalf("orders = %+v", h.exec.orders)
	}
	if !h.s.Position().IsFlat() || !h.snapshot(t).IsFlat() {
		t.Fatalf("position = %+v", h.s.Position())
	}
	if sigs := h.signals(); len(sigs) != 1 || sigs[0].Kind != models.SignalSell {
		t.Fatalf("signals = %+v", sigs)
	}
}

func TestCycleEntryThenExitSameCycle(t *testing.T) {
	h := newHarness(t, models.Position{Size: 40, AvgPrice: 100}, func(cfg *config.Config) {
		cfg.Strategy.AvgPricePolicy = config.AvgPriceWeighted
		cfg.Strategy.TakeProfitPct = 4
	})
	h.feed.price = 105

	if err := h.s.Cycle(context.Background()); err != nil {
		t.Fatal(err)
	}
	want := []order{{models.SideBuy, 7}, {models.SideSell, 47}}
	if len(h.exec.orders) != 2 || h.exec.orders[0] != want[0] || h.exec.orders[1] != want[1] {
		t.Fatalf("orders = %+v", h.exec.orders)
	}
	sigs := h.signals()
	if len(sigs) != 2 || sigs[0].Kind != models.SignalBuy || sigs[1].Kind != models.SignalSell {
		t.Fatalf("signals = %+v", sigs)
	}
	if sigs[0].Timestamp == sigs[1].Timestamp {
		t.Fatal("signals in one cycle must not share a timestamp")
	}
}

func TestCycleOrderErrorKeepsPosition(t *testing.T) {
	h := newHarness(t, models.Position{Size: 40, AvgPrice: 100}, nil)
	h.exec.placeErr = errors.New("exchange down")
	h.feed.price = 90

	err := h.s.Cycle(context.Background())
	var rerr *executor.RemoteExecutionError
	if !errors.As(err, &rerr) {
		t.Fatalf("err = %v, want RemoteExecutionError", err)
	}
	if h.s.Position() != (models.Position{Size: 40, AvgPrice: 100}) {
		t.Fatalf("position moved: %+v", h.s.Position())
	}
	if len(h.signals()) != 0 {
		t.Fatal("no signal must be recorded for a failed order")
	}
}

func TestCycleRejectedEntryStillExits(t *testing.T) {
	// buy2 (>104) и take-profit (>=105) срабатывают в одном цикле
	h := newHarness(t, models.Position{Size: 40, AvgPrice: 100}, nil)
	h.exec.placeErr = errors.New("insufficient margin")
	h.exec.rejectSide = models.SideBuy
	h.feed.price = 106

	err := h.s.Cycle(context.Background())
	var rerr *executor.RemoteExecutionError
	if !errors.As(err, &rerr) || rerr.Side != models.SideBuy {
		t.Fatalf("err = %v, want rejected buy", err)
	}
	if len(h.exec.orders) != 1 || h.exec.orders[0] != (order{models.SideSell, 40}) {
		t.Fatalf("orders = %+v", h.exec.orders)
	}
	if !h.s.Position().IsFlat() {
		t.Fatalf("position = %+v, want flat", h.s.Position())
	}
	sigs := h.signals()
	if len(sigs) != 1 || sigs[0].Kind != models.SignalSell {
		t.Fatalf("signals = %+v", sigs)
	}
	if got := h.snapshot(t); !got.IsFlat() {
		t.Fatalf("snapshot = %+v", got)
	}
}

func TestCycleNoPriceSkips(t *testing.T) {
	h := newHarness(t, models.Position{}, nil)
	h.feed.ok = false
	h.feed.closes = rsi25()

	if err := h.s.Cycle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(h.exec.orders) != 0 {
		t.Fatalf("orders = %+v", h.exec.orders)
	}
}

func TestCycleEmptyClosesNoEntry(t *testing.T) {
	h := newHarness(t, models.Position{}, nil)
	h.feed.price = 94

	if err := h.s.Cycle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(h.exec.orders) != 0 || !h.s.Position().IsFlat() {
		t.Fatalf("orders = %+v", h.exec.orders)
	}
}

func TestPartialExitKeepsRest(t *testing.T) {
	h := newHarness(t, models.Position{Size: 40, AvgPrice: 100}, nil)
	h.exec.fillSize = func(float64) float64 { return 15 }
	h.feed.price = 90

	if err := h.s.Cycle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if pos := h.s.Position(); pos != (models.Position{Size: 25, AvgPrice: 100}) {
		t.Fatalf("position = %+v", pos)
	}
}

func TestSafeCycleRecoversPanic(t *testing.T) {
	h := newHarness(t, models.Position{}, nil)
	h.feed.panic = true
	h.s.safeCycle(context.Background())
}

func TestRunStopsOnCancel(t *testing.T) {
	h := newHarness(t, models.Position{}, nil)
	h.s.interval = time.Millisecond
	h.feed.ok = false

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.s.Run(ctx)
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRestoreDisabledStartsFlat(t *testing.T) {
	h := newHarness(t, models.Position{Size: 40, AvgPrice: 100}, func(cfg *config.Config) {
		cfg.Strategy.RestorePosition = false
	})
	if !h.s.Position().IsFlat() {
		t.Fatalf("position = %+v", h.s.Position())
	}
	if got := h.s.Status(); got == "" {
		t.Fatal("empty status")
	}
}

package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"rsi_bot/internal/models"
	"rsi_bot/internal/modules/health/service"
	"rsi_bot/internal/store/memory"
	"rsi_bot/pkg/logger"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

func newTestMux(t *testing.T) (*http.ServeMux, *service.State, *memory.Store) {
	t.Helper()
	logger.SetLogger(zap.NewNop())
	st := memory.New()
	state := service.NewState()
	return NewMux(state, NewChartAPI(st, "XRP-USDT", 3)), state, st
}

func get(mux http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestProbes(t *testing.T) {
	mux, state, _ := newTestMux(t)

	if rec := get(mux, "/livez"); rec.Code != http.StatusOK {
		t.Fatalf("livez = %d", rec.Code)
	}
	if rec := get(mux, "/readyz"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz before ready = %d", rec.Code)
	}
	state.SetReady(true)
	if rec := get(mux, "/readyz"); rec.Code != http.StatusOK {
		t.Fatalf("readyz = %d", rec.Code)
	}

	rec := get(mux, "/healthz")
	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["ready"] != true {
		t.Fatalf("healthz = %v", body)
	}
	if rec := get(mux, "/metrics"); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Fatalf("metrics = %d", rec.Code)
	}
}

type candlesResp struct {
	Symbol  string      `json:"symbol"`
	Candles []candleDTO `json:"candles"`
}

func TestCandlesAPI(t *testing.T) {
	mux, _, st := newTestMux(t)
	ctx := context.Background()
	for i, c := range []float64{1, 2, 3, 4, 5, 4} {
		_ = st.UpsertCandle(ctx, "XRP-USDT", models.Candle{Symbol: "XRP-USDT", Timestamp: int64(i+1) * 1000, Close: c})
	}

	rec := get(mux, "/api/candles?symbol=XRP-USDT")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	var resp candlesResp
	if err := sonic.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Candles) != 6 {
		t.Fatalf("candles = %d", len(resp.Candles))
	}
	if resp.Candles[2].RSI != nil {
		t.Fatal("warm-up RSI must be null")
	}
	if resp.Candles[3].RSI == nil || *resp.Candles[3].RSI != 100 {
		t.Fatalf("rsi[3] = %v", resp.Candles[3].RSI)
	}

	rec = get(mux, "/api/candles?limit=2")
	_ = sonic.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Candles) != 2 || resp.Candles[1].Timestamp != 6000 {
		t.Fatalf("limited candles = %+v", resp.Candles)
	}

	if rec := get(mux, "/api/candles?limit=abc"); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit code = %d", rec.Code)
	}
	rec = get(mux, "/api/candles?symbol=BTC-USDT")
	_ = sonic.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Candles) != 0 {
		t.Fatalf("unknown symbol: %+v", resp.Candles)
	}
}

func TestSignalsAPI(t *testing.T) {
	mux, _, st := newTestMux(t)
	_ = st.RecordSignal(context.Background(), "XRP-USDT", 1000, models.SignalBuy)
	_ = st.RecordSignal(context.Background(), "XRP-USDT", 2000, models.SignalSell)

	rec := get(mux, "/api/signals")
	var resp struct {
		Signals []signalDTO `json:"signals"`
	}
	if err := sonic.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Signals) != 2 || resp.Signals[0].Signal != "buy" || resp.Signals[1].Signal != "sell" {
		t.Fatalf("signals = %+v", resp.Signals)
	}
}

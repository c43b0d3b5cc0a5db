package health

import (
	"math"
	"net/http"
	"strconv"

	"rsi_bot/internal/indicator"
	"rsi_bot/internal/models"
	"rsi_bot/internal/store"
	"rsi_bot/pkg/logger"

	"github.com/bytedance/sonic"
)

const maxCandles = 5000

type candleDTO struct {
	Timestamp int64    `json:"timestamp"`
	DateTime  string   `json:"datetime"`
	Open      float64  `json:"open"`
	High      float64  `json:"high"`
	Low       float64  `json:"low"`
	Close     float64  `json:"close"`
	Volume    float64  `json:"volume"`
	RSI       *float64 `json:"rsi"` // null на прогреве
}

type signalDTO struct {
	Timestamp int64  `json:"timestamp"`
	Signal    string `json:"signal"`
}

// ChartAPI: данные для графика: свечи с RSI и сигналы стратегии. Только чтение.
type ChartAPI struct {
	store     store.Store
	symbol    string
	rsiPeriod int
}

func NewChartAPI(st store.Store, symbol string, rsiPeriod int) *ChartAPI {
	return &ChartAPI{store: st, symbol: symbol, rsiPeriod: rsiPeriod}
}

func (a *ChartAPI) symbolOf(r *http.Request) string {
	if s := r.URL.Query().Get("symbol"); s != "" {
		return s
	}
	return a.symbol
}

// GET /api/candles?symbol=XRP-USDT&limit=500
func (a *ChartAPI) Candles(w http.ResponseWriter, r *http.Request) {
	limit := maxCandles
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxCandles)
	}

	symbol := a.symbolOf(r)
	candles := store.Collect(a.store.ReadOrdered(r.Context(), symbol))
	rsi := indicator.RSI(models.Closes(candles), a.rsiPeriod)

	start := max(0, len(candles)-limit)
	out := make([]candleDTO, 0, len(candles)-start)
	for i := start; i < len(candles); i++ {
		c := candles[i]
		d := candleDTO{
			Timestamp: c.Timestamp,
			DateTime:  c.DateTime(),
			Open:      c.Open,
			High:      c.High,
			Low:       c.Low,
			Close:     c.Close,
			Volume:    c.Volume,
		}
		if v := rsi[i]; !math.IsNaN(v) {
			d.RSI = &v
		}
		out = append(out, d)
	}
	writeJSON(w, map[string]any{"symbol": symbol, "candles": out})
}

// GET /api/signals?symbol=XRP-USDT
func (a *ChartAPI) Signals(w http.ResponseWriter, r *http.Request) {
	symbol := a.symbolOf(r)
	out := make([]signalDTO, 0)
	for s := range a.store.ReadSignals(r.Context(), symbol) {
		out = append(out, signalDTO{Timestamp: s.Timestamp, Signal: string(s.Kind)})
	}
	writeJSON(w, map[string]any{"symbol": symbol, "signals": out})
}

func writeJSON(w http.ResponseWriter, v any) {
	body, err := sonic.Marshal(v)
	if err != nil {
		logger.Error("[HTTP] encode response: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

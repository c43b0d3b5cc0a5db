// Package metrics: счётчики бота для /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "rsi_bot_cycles_total", Help: "Strategy cycles by outcome"},
		[]string{"symbol", "outcome"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "rsi_bot_signals_total", Help: "Entry/exit signals emitted"},
		[]string{"symbol", "signal"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "rsi_bot_orders_total", Help: "Market orders by side and result"},
		[]string{"symbol", "side", "result"},
	)
	CandlesUpserted = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "rsi_bot_candles_upserted_total", Help: "Candles written by ingestion"},
		[]string{"symbol"},
	)
	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "rsi_bot_errors_total", Help: "Errors by stage"},
		[]string{"stage"},
	)
	PositionSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "rsi_bot_position_size", Help: "Current tracked position size"},
		[]string{"symbol"},
	)
	LastRSI = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "rsi_bot_last_rsi", Help: "Last computed RSI value"},
		[]string{"symbol"},
	)
)

// исходы цикла
const (
	OutcomeOK      = "ok"
	OutcomeSkipped = "skipped"
	OutcomeError   = "error"
)

func init() {
	prometheus.MustRegister(CyclesTotal, SignalsTotal, OrdersTotal, CandlesUpserted, ErrorsTotal, PositionSize, LastRSI)
}

func Handler() http.Handler {
	return promhttp.Handler()
}

package models

import "time"

// DateTimeLayout: формат колонки datetime в historical_data.
const DateTimeLayout = "2006-01-02 15:04:05"

// Candle: OHLCV-свеча, ключ (Symbol, Timestamp).
type Candle struct {
	Symbol    string
	Timestamp int64 // ms, начало бара
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

func (c Candle) Time() time.Time { return time.UnixMilli(c.Timestamp).UTC() }

// DateTime: человекочитаемое время бара (UTC).
func (c Candle) DateTime() string { return c.Time().Format(DateTimeLayout) }

// Closes вытаскивает цены закрытия в том же порядке.
func Closes(candles []Candle) []float64 {
	out := make([]float64, 0, len(candles))
	for _, c := range candles {
		out = append(out, c.Close)
	}
	return out
}

// Package indicator: индикаторы над рядом цен закрытия.
package indicator

import "math"

// RSI считает индекс относительной силы по Уайлдеру (как TA-Lib):
// первые period значений: NaN, затем по одному значению на каждый вход.
//
// Средние прирост/падение засеваются простым средним первых period изменений,
// дальше сглаживаются: avg = (avg*(period-1) + x) / period.
// Если входов меньше period+1: весь результат NaN, ошибки нет.
func RSI(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}
	if period < 1 || len(closes) < period+1 {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		gain, loss := split(closes[i] - closes[i-1])
		avgGain += gain
		avgLoss += loss
	}
	p := float64(period)
	avgGain /= p
	avgLoss /= p
	out[period] = value(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		gain, loss := split(closes[i] - closes[i-1])
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
		out[i] = value(avgGain, avgLoss)
	}
	return out
}

func split(delta float64) (gain, loss float64) {
	if delta > 0 {
		return delta, 0
	}
	return 0, -delta
}

// value: 100*G/(G+L); ряд без движения даёт 0, как в TA-Lib.
func value(avgGain, avgLoss float64) float64 {
	sum := avgGain + avgLoss
	if sum == 0 {
		return 0
	}
	return 100 * avgGain / sum
}

// Last: последнее значение ряда (NaN для пустого).
func Last(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return values[len(values)-1]
}

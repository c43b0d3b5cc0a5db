package position

import (
	"math"

	"rsi_bot/internal/indicator"
	"rsi_bot/internal/models"
)

// CheckEntry: чистая функция: одинаковые входы дают одинаковый сигнал.
//
// Flat: последний RSI строго ниже oversold => buy1 (NaN не даёт сигнала).
// AfterTranche1: цена выше avg*(1+offset%) => buy2.
func CheckEntry(cfg models.StrategyConfig, pos models.Position, closes []float64, price float64) EntrySignal {
	switch StateOf(pos, cfg) {
	case Flat:
		rsi := indicator.Last(indicator.RSI(closes, cfg.RSIPeriod))
		if math.IsNaN(rsi) {
			return EntryNone
		}
		if rsi < cfg.RSIOversold {
			return EntryBuy1
		}
	case AfterTranche1:
		if price > pos.AvgPrice*(1+cfg.Buy2OffsetPct/100) {
			return EntryBuy2
		}
	}
	return EntryNone
}

// CheckExit: чистая функция. Immediate проверяется раньше tp/sl.
func CheckExit(cfg models.StrategyConfig, pos models.Position, price float64) ExitSignal {
	if pos.IsFlat() {
		return ExitNone
	}
	if price < pos.AvgPrice*(1-cfg.ImmediateExitPct/100) {
		return ExitImmediate
	}
	stop := pos.AvgPrice * (1 - cfg.StopLossPct/100)
	take := pos.AvgPrice * (1 + cfg.TakeProfitPct/100)
	if price <= stop || price >= take {
		return ExitTPSL
	}
	return ExitNone
}

// ApplyEntry добавляет транш: size складывается, цену считает policy.
func ApplyEntry(pos models.Position, size, price float64, policy AvgPricePolicy) models.Position {
	if size <= 0 {
		return pos
	}
	if policy == nil {
		policy = OverwriteAvgPrice
	}
	return models.Position{
		Size:     pos.Size + size,
		AvgPrice: policy(pos, size, price),
	}
}

// ApplyExit: полное закрытие, частичных выходов нет.
func ApplyExit() models.Position {
	return models.Position{}
}

// ApplyPartialExit: продано меньше позиции (частичный филл на выходе):
// размер уменьшается, средняя цена остаётся.
func ApplyPartialExit(pos models.Position, sold float64) models.Position {
	if sold <= 0 {
		return pos
	}
	if sold >= pos.Size {
		return ApplyExit()
	}
	return models.Position{Size: pos.Size - sold, AvgPrice: pos.AvgPrice}
}

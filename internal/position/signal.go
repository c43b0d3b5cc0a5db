package position

import "rsi_bot/internal/models"

// EntrySignal: намерение на вход.
type EntrySignal int

const (
	EntryNone EntrySignal = iota
	EntryBuy1
	EntryBuy2
)

func (s EntrySignal) String() string {
	switch s {
	case EntryBuy1:
		return "buy1"
	case EntryBuy2:
		return "buy2"
	default:
		return "none"
	}
}

// Size: объём транша для сигнала, 0 для EntryNone.
func (s EntrySignal) Size(cfg models.StrategyConfig) float64 {
	switch s {
	case EntryBuy1:
		return cfg.Buy1Size
	case EntryBuy2:
		return cfg.Buy2Size
	default:
		return 0
	}
}

// ExitSignal: намерение на выход. Выход всегда закрывает позицию целиком.
type ExitSignal int

const (
	ExitNone ExitSignal = iota
	ExitImmediate
	ExitTPSL
)

func (s ExitSignal) String() string {
	switch s {
	case ExitImmediate:
		return "immediate_exit"
	case ExitTPSL:
		return "tp_sl"
	default:
		return "none"
	}
}

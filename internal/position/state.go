package position

import "rsi_bot/internal/models"

type State int

const (
	Flat State = iota
	AfterTranche1
	AfterTranche2 // и всё, что больше первого транша
)

func (s State) String() string {
	switch s {
	case Flat:
		return "flat"
	case AfterTranche1:
		return "after_tranche_1"
	default:
		return "after_tranche_2"
	}
}

// StateOf: второй транш возможен только при size == Buy1Size ровно.
func StateOf(pos models.Position, cfg models.StrategyConfig) State {
	switch {
	case pos.IsFlat():
		return Flat
	case pos.Size == cfg.Buy1Size:
		return AfterTranche1
	default:
		return AfterTranche2
	}
}

// Package position: состояние позиции и правила входа/выхода.
package position

import (
	"fmt"

	"rsi_bot/internal/models"
)

// Machine владеет позицией одного символа. Не потокобезопасна:
// её крутит единственный цикл стратегии.
type Machine struct {
	cfg    models.StrategyConfig
	policy AvgPricePolicy
	pos    models.Position
}

func NewMachine(cfg models.StrategyConfig, policy AvgPricePolicy) *Machine {
	if policy == nil {
		policy = OverwriteAvgPrice
	}
	return &Machine{cfg: cfg, policy: policy}
}

func (m *Machine) Position() models.Position { return m.pos }

func (m *Machine) State() State { return StateOf(m.pos, m.cfg) }

func (m *Machine) Config() models.StrategyConfig { return m.cfg }

// Restore подменяет позицию снапшотом из стора.
func (m *Machine) Restore(pos models.Position) error {
	if (pos.Size == 0) != (pos.AvgPrice == 0) {
		return fmt.Errorf("inconsistent position snapshot: size=%v avg_price=%v", pos.Size, pos.AvgPrice)
	}
	m.pos = pos
	return nil
}

func (m *Machine) CheckEntry(closes []float64, price float64) EntrySignal {
	return CheckEntry(m.cfg, m.pos, closes, price)
}

func (m *Machine) CheckExit(price float64) ExitSignal {
	return CheckExit(m.cfg, m.pos, price)
}

// Enter применяет исполненный транш. Пустой филл позицию не меняет.
func (m *Machine) Enter(sig EntrySignal, fill models.Fill) models.Position {
	if sig == EntryNone || fill.Size <= 0 || fill.Price <= 0 {
		return m.pos
	}
	m.pos = ApplyEntry(m.pos, fill.Size, fill.Price, m.policy)
	return m.pos
}

func (m *Machine) Exit() models.Position {
	m.pos = ApplyExit()
	return m.pos
}

// Reduce: частичное закрытие по фактически проданному объёму.
func (m *Machine) Reduce(sold float64) models.Position {
	m.pos = ApplyPartialExit(m.pos, sold)
	return m.pos
}

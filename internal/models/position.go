package models

import "time"

// Position: единственная запись позиции по символу.
// Инвариант: Size == 0 <=> AvgPrice == 0.
type Position struct {
	Size     float64
	AvgPrice float64
}

func (p Position) IsFlat() bool { return p.Size == 0 }

// PositionSnapshot: то, что лежит в position_snapshots.
type PositionSnapshot struct {
	Symbol    string
	Position  Position
	UpdatedAt time.Time
}

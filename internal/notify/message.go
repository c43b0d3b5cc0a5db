package notify

import (
	"fmt"

	"rsi_bot/internal/models"
)

func EntryMessage(symbol, signal string, fill models.Fill, pos models.Position) string {
	return fmt.Sprintf("🟢 %s %s: +%v @ %.6g\nПозиция: %v @ %.6g", symbol, signal, fill.Size, fill.Price, pos.Size, pos.AvgPrice)
}

func ExitMessage(symbol, signal string, fill models.Fill, prev models.Position) string {
	pnl := (fill.Price - prev.AvgPrice) * fill.Size
	return fmt.Sprintf("🔴 %s %s: -%v @ %.6g (вход %.6g, PnL %.4f)", symbol, signal, fill.Size, fill.Price, prev.AvgPrice, pnl)
}

func StatusMessage(symbol string, pos models.Position, state string) string {
	if pos.IsFlat() {
		return fmt.Sprintf("📊 %s: позиции нет", symbol)
	}
	return fmt.Sprintf("📊 %s [%s]: %v @ %.6g", symbol, state, pos.Size, pos.AvgPrice)
}

// Package store: хранилище свечей и сигналов, ключ (symbol, timestamp).
package store

import (
	"context"
	"iter"
	"slices"

	"rsi_bot/internal/models"
)

// Store: контракт time-series хранилища.
//
// Запись идемпотентна: повторная запись по тому же ключу заменяет строку целиком.
// Чтение никогда не возвращает ошибку: при сбое пишется лог и отдаётся пустая
// последовательность, вызывающие трактуют это как «данных нет».
type Store interface {
	UpsertCandle(ctx context.Context, symbol string, candle models.Candle) error
	// BulkUpsert сортирует пачку по timestamp и применяет по возрастанию.
	BulkUpsert(ctx context.Context, symbol string, candles []models.Candle) error
	// ReadOrdered: ленивая последовательность по возрастанию timestamp;
	// каждый range заново читает хранилище.
	ReadOrdered(ctx context.Context, symbol string) iter.Seq[models.Candle]
	RecordSignal(ctx context.Context, symbol string, timestamp int64, kind models.SignalKind) error
	ReadSignals(ctx context.Context, symbol string) iter.Seq[models.Signal]

	SavePosition(ctx context.Context, snap models.PositionSnapshot) error
	// LoadPosition: ok=false, если снимка нет.
	LoadPosition(ctx context.Context, symbol string) (models.PositionSnapshot, bool, error)
}

// SortCandles возвращает копию, упорядоченную по timestamp (стабильно: при
// дублях ключа последний в исходном порядке применится последним).
func SortCandles(candles []models.Candle) []models.Candle {
	out := slices.Clone(candles)
	slices.SortStableFunc(out, func(a, b models.Candle) int {
		switch {
		case a.Timestamp < b.Timestamp:
			return -1
		case a.Timestamp > b.Timestamp:
			return 1
		}
		return 0
	})
	return out
}

// Collect: хелпер для тестов и API: материализует последовательность.
func Collect[T any](seq iter.Seq[T]) []T {
	return slices.Collect(seq)
}

package pg

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"rsi_bot/internal/models"
	"rsi_bot/internal/store"
	"rsi_bot/pkg/db"
	"rsi_bot/pkg/logger"

	"github.com/jackc/pgx/v5"
)

const (
	upsertCandleSQL = `
INSERT INTO historical_data (symbol, timestamp, datetime, open, high, low, close, volume)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (symbol, timestamp) DO UPDATE SET
    datetime = EXCLUDED.datetime,
    open     = EXCLUDED.open,
    high     = EXCLUDED.high,
    low      = EXCLUDED.low,
    close    = EXCLUDED.close,
    volume   = EXCLUDED.volume`

	readOrderedSQL = `
SELECT symbol, timestamp, open, high, low, close, volume
FROM historical_data
WHERE symbol = $1
ORDER BY timestamp ASC`

	upsertSignalSQL = `
INSERT INTO strategy_signals (symbol, timestamp, signal)
VALUES ($1, $2, $3)
ON CONFLICT (symbol, timestamp) DO UPDATE SET signal = EXCLUDED.signal`

	readSignalsSQL = `
SELECT symbol, timestamp, signal
FROM strategy_signals
WHERE symbol = $1
ORDER BY timestamp ASC`

	savePositionSQL = `
INSERT INTO position_snapshots (symbol, size, avg_price, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (symbol) DO UPDATE SET
    size       = EXCLUDED.size,
    avg_price  = EXCLUDED.avg_price,
    updated_at = EXCLUDED.updated_at`

	loadPositionSQL = `
SELECT symbol, size, avg_price, updated_at
FROM position_snapshots
WHERE symbol = $1`
)

// Store: реализация store.Store поверх Postgres (pgx).
type Store struct {
	db db.TxManager
}

var _ store.Store = (*Store)(nil)

func New(tx db.TxManager) *Store {
	return &Store{db: tx}
}

func candleArgs(symbol string, c models.Candle) []any {
	return []any{symbol, c.Timestamp, c.DateTime(), c.Open, c.High, c.Low, c.Close, c.Volume}
}

func (s *Store) UpsertCandle(ctx context.Context, symbol string, candle models.Candle) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.UpsertCandle %s@%d: %w", symbol, candle.Timestamp, err)
		}
	}()
	_, err = s.db.Conn().Exec(ctx, upsertCandleSQL, candleArgs(symbol, candle)...)
	return err
}

// BulkUpsert: одна транзакция, батч строго по возрастанию timestamp.
func (s *Store) BulkUpsert(ctx context.Context, symbol string, candles []models.Candle) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.BulkUpsert %s (%d rows): %w", symbol, len(candles), err)
		}
	}()
	if len(candles) == 0 {
		return nil
	}
	sorted := store.SortCandles(candles)

	return s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, c := range sorted {
			batch.Queue(upsertCandleSQL, candleArgs(symbol, c)...)
		}
		return tx.SendBatch(ctxTx, batch).Close()
	})
}

func (s *Store) ReadOrdered(ctx context.Context, symbol string) iter.Seq[models.Candle] {
	return func(yield func(models.Candle) bool) {
		rows, err := s.db.Conn().Query(ctx, readOrderedSQL, symbol)
		if err != nil {
			logger.Error("[STORE] read candles %s: %v", symbol, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			var c models.Candle
			if err := rows.Scan(&c.Symbol, &c.Timestamp, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
				logger.Error("[STORE] scan candle %s: %v", symbol, err)
				return
			}
			if !yield(c) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			logger.Error("[STORE] iterate candles %s: %v", symbol, err)
		}
	}
}

func (s *Store) RecordSignal(ctx context.Context, symbol string, timestamp int64, kind models.SignalKind) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.RecordSignal %s@%d: %w", symbol, timestamp, err)
		}
	}()
	if !kind.Valid() {
		return fmt.Errorf("invalid signal kind %q", kind)
	}
	_, err = s.db.Conn().Exec(ctx, upsertSignalSQL, symbol, timestamp, string(kind))
	return err
}

func (s *Store) ReadSignals(ctx context.Context, symbol string) iter.Seq[models.Signal] {
	return func(yield func(models.Signal) bool) {
		rows, err := s.db.Conn().Query(ctx, readSignalsSQL, symbol)
		if err != nil {
			logger.Error("[STORE] read signals %s: %v", symbol, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			var (
				sig  models.Signal
				kind string
			)
			if err := rows.Scan(&sig.Symbol, &sig.Timestamp, &kind); err != nil {
				logger.Error("[STORE] scan signal %s: %v", symbol, err)
				return
			}
			if sig.Kind, err = models.ParseSignalKind(kind); err != nil {
				logger.Error("[STORE] signal %s@%d: %v", symbol, sig.Timestamp, err)
				continue
			}
			if !yield(sig) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			logger.Error("[STORE] iterate signals %s: %v", symbol, err)
		}
	}
}

func (s *Store) SavePosition(ctx context.Context, snap models.PositionSnapshot) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.SavePosition %s: %w", snap.Symbol, err)
		}
	}()
	_, err = s.db.Conn().Exec(ctx, savePositionSQL, snap.Symbol, snap.Position.Size, snap.Position.AvgPrice, snap.UpdatedAt)
	return err
}

func (s *Store) LoadPosition(ctx context.Context, symbol string) (snap models.PositionSnapshot, ok bool, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.LoadPosition %s: %w", symbol, err)
		}
	}()
	err = s.db.Conn().QueryRow(ctx, loadPositionSQL, symbol).
		Scan(&snap.Symbol, &snap.Position.Size, &snap.Position.AvgPrice, &snap.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.PositionSnapshot{}, false, nil
	}
	if err != nil {
		return models.PositionSnapshot{}, false, err
	}
	return snap, true, nil
}

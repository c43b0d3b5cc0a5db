package memory

import (
	"context"
	"iter"
	"sort"
	"sync"

	"rsi_bot/internal/models"
	"rsi_bot/internal/store"
)

// Store: in-memory реализация: тесты и dry-run без Postgres.
type Store struct {
	mu        sync.RWMutex
	candles   map[string]map[int64]models.Candle
	signals   map[string]map[int64]models.SignalKind
	positions map[string]models.PositionSnapshot
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		candles:   make(map[string]map[int64]models.Candle),
		signals:   make(map[string]map[int64]models.SignalKind),
		positions: make(map[string]models.PositionSnapshot),
	}
}

func (s *Store) UpsertCandle(_ context.Context, symbol string, candle models.Candle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putCandle(symbol, candle)
	return nil
}

func (s *Store) BulkUpsert(_ context.Context, symbol string, candles []models.Candle) error {
	sorted := store.SortCandles(candles)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range sorted {
		s.putCandle(symbol, c)
	}
	return nil
}

func (s *Store) putCandle(symbol string, c models.Candle) {
	bySym, ok := s.candles[symbol]
	if !ok {
		bySym = make(map[int64]models.Candle)
		s.candles[symbol] = bySym
	}
	c.Symbol = symbol
	bySym[c.Timestamp] = c
}

func (s *Store) ReadOrdered(_ context.Context, symbol string) iter.Seq[models.Candle] {
	return func(yield func(models.Candle) bool) {
		s.mu.RLock()
		bySym := s.candles[symbol]
		rows := make([]models.Candle, 0, len(bySym))
		for _, c := range bySym {
			rows = append(rows, c)
		}
		s.mu.RUnlock()

		sort.Slice(rows, func(i, j int) bool { return rows[i].Timestamp < rows[j].Timestamp })
		for _, c := range rows {
			if !yield(c) {
				return
			}
		}
	}
}

func (s *Store) RecordSignal(_ context.Context, symbol string, timestamp int64, kind models.SignalKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bySym, ok := s.signals[symbol]
	if !ok {
		bySym = make(map[int64]models.SignalKind)
		s.signals[symbol] = bySym
	}
	bySym[timestamp] = kind
	return nil
}

func (s *Store) ReadSignals(_ context.Context, symbol string) iter.Seq[models.Signal] {
	return func(yield func(models.Signal) bool) {
		s.mu.RLock()
		rows := make([]models.Signal, 0, len(s.signals[symbol]))
		for ts, k := range s.signals[symbol] {
			rows = append(rows, models.Signal{Symbol: symbol, Timestamp: ts, Kind: k})
		}
		s.mu.RUnlock()

		sort.Slice(rows, func(i, j int) bool { return rows[i].Timestamp < rows[j].Timestamp })
		for _, sig := range rows {
			if !yield(sig) {
				return
			}
		}
	}
}

func (s *Store) SavePosition(_ context.Context, snap models.PositionSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[snap.Symbol] = snap
	return nil
}

func (s *Store) LoadPosition(_ context.Context, symbol string) (models.PositionSnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.positions[symbol]
	return snap, ok, nil
}

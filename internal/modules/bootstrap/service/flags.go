package service

import (
	"flag"
	"fmt"

	"rsi_bot/internal/modules/config"
)

// Flags: переопределения конфига из командной строки. Пустые значения не трогают конфиг.
type Flags struct {
	Symbol string
	Bar    string
	Limit  int
	Port   int
	DryRun bool
}

// Register вешает флаги на fs. withIngest: флаги -bar и -limit (cmd/ingest).
func (f *Flags) Register(fs *flag.FlagSet, withIngest bool) {
	fs.StringVar(&f.Symbol, "symbol", "", "instrument id, e.g. XRP-USDT")
	fs.IntVar(&f.Port, "port", 0, "admin http port")
	if withIngest {
		fs.StringVar(&f.Bar, "bar", "", "candle bar, e.g. 5m")
		fs.IntVar(&f.Limit, "limit", 0, "candles to backfill")
		return
	}
	fs.BoolVar(&f.DryRun, "dry-run", false, "log orders instead of sending them")
}

// Apply накладывает флаги на cfg и заново валидирует его.
func (f Flags) Apply(cfg *config.Config) (*config.Config, error) {
	if f.Symbol != "" {
		cfg.Symbol = f.Symbol
	}
	if f.Bar != "" {
		cfg.Ingest.Bar = f.Bar
	}
	if f.Limit > 0 {
		cfg.Ingest.Limit = f.Limit
	}
	if f.Port > 0 {
		cfg.Service.AdminPort = f.Port
	}
	if f.DryRun {
		cfg.Executor.DryRun = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config after flags: %w", err)
	}
	return cfg, nil
}

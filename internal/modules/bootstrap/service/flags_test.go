package service

import (
	"flag"
	"testing"

	"rsi_bot/internal/modules/config"
)

func TestFlagsOverrideConfig(t *testing.T) {
	var f Flags
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	f.Register(fs, true)
	if err := fs.Parse([]string{"-symbol", "BTC-USDT", "-bar", "1m", "-limit", "50"}); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.DB = "postgres://localhost/test"
	got, err := f.Apply(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	if got.Symbol != "BTC-USDT" || got.Ingest.Bar != "1m" || got.Ingest.Limit != 50 {
		t.Fatalf("cfg = %+v", got.Ingest)
	}
	if got.Strategy.Bar != "5m" {
		t.Fatal("strategy bar must not follow -bar")
	}
}

func TestFlagsKeepConfigWhenUnset(t *testing.T) {
	var f Flags
	fs := flag.NewFlagSet("bot", flag.ContinueOnError)
	f.Register(fs, false)
	if err := fs.Parse([]string{"-dry-run"}); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.DB = "postgres://localhost/test"
	got, err := f.Apply(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	if got.Symbol != "XRP-USDT" || !got.Executor.DryRun {
		t.Fatalf("cfg symbol=%s dry_run=%v", got.Symbol, got.Executor.DryRun)
	}
	if fs.Lookup("bar") != nil {
		t.Fatal("-bar is an ingest-only flag")
	}
}

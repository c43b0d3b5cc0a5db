package position

import (
	"math"
	"testing"

	"rsi_bot/internal/indicator"
	"rsi_bot/internal/models"
)

// rsi25: 15 закрытий: три роста по 1, девять падений по 1, два нуля => RSI(14) = 25.
func rsi25() []float64 {
	closes := []float64{100}
	px := 100.0
	for _, d := range []float64{1, 1, 1, -1, -1, -1, -1, -1, -1, -1, -1, -1, 0, 0} {
		px += d
		closes = append(closes, px)
	}
	return closes
}

func TestRSIFixture(t *testing.T) {
	if got := indicator.Last(indicator.RSI(rsi25(), 14)); math.Abs(got-25) > 1e-9 {
		t.Fatalf("fixture RSI = %v, want 25", got)
	}
}

func TestFlatEntry(t *testing.T) {
	cfg := models.DefaultStrategyConfig()
	m := NewMachine(cfg, nil)

	sig := m.CheckEntry(rsi25(), 94)
	if sig != EntryBuy1 {
		t.Fatalf("signal = %v, want buy1", sig)
	}
	pos := m.Enter(sig, models.Fill{Price: 94, Size: sig.Size(cfg)})
	if pos != (models.Position{Size: 40, AvgPrice: 94}) {
		t.Fatalf("position = %+v, want {40 94}", pos)
	}
	if m.State() != AfterTranche1 {
		t.Fatalf("state = %v", m.State())
	}
}

func TestFlatNoEntry(t *testing.T) {
	cfg := models.DefaultStrategyConfig()
	flat := models.Position{}

	// RSI не посчитан
	if sig := CheckEntry(cfg, flat, []float64{1, 2, 3}, 3); sig != EntryNone {
		t.Fatalf("short window: %v", sig)
	}
	// рост => RSI 100
	rising := make([]float64, 20)
	for i := range rising {
		rising[i] = float64(100 + i)
	}
	if sig := CheckEntry(cfg, flat, rising, 119); sig != EntryNone {
		t.Fatalf("overbought: %v", sig)
	}
}

func TestSecondTranche(t *testing.T) {
	cfg := models.DefaultStrategyConfig()
	m := NewMachine(cfg, nil)
	if err := m.Restore(models.Position{Size: 40, AvgPrice: 100}); err != nil {
		t.Fatal(err)
	}

	if sig := m.CheckEntry(nil, 104); sig != EntryNone {
		t.Fatalf("at 104: %v, want none", sig)
	}
	sig := m.CheckEntry(nil, 105)
	if sig != EntryBuy2 {
		t.Fatalf("at 105: %v, want buy2", sig)
	}
	pos := m.Enter(sig, models.Fill{Price: 105, Size: sig.Size(cfg)})
	if pos.Size != 47 || pos.AvgPrice != 105 {
		t.Fatalf("position = %+v, want {47 105}", pos)
	}
	if m.State() != AfterTranche2 {
		t.Fatalf("state = %v", m.State())
	}
	// третьего транша нет
	if sig := m.CheckEntry(rsi25(), 200); sig != EntryNone {
		t.Fatalf("after tranche 2: %v", sig)
	}
}

func TestExitSignals(t *testing.T) {
	cfg := models.DefaultStrategyConfig()
	pos := models.Position{Size: 40, AvgPrice: 100}

	tests := []struct {
		name  string
		cfg   func(c *models.StrategyConfig)
		price float64
		want  ExitSignal
	}{
		{"stop loss", func(c *models.StrategyConfig) { c.ImmediateExitPct = 10 }, 96, ExitTPSL},
		{"take profit", nil, 105, ExitTPSL},
		{"inside band", nil, 101, ExitNone},
		{"immediate precedence", nil, 97, ExitImmediate},
		{"immediate above stop", nil, 97.5, ExitImmediate},
		{"at immediate threshold", nil, 98, ExitNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := cfg
			if tt.cfg != nil {
				tt.cfg(&c)
			}
			if got := CheckExit(c, pos, tt.price); got != tt.want {
				t.Fatalf("CheckExit(%v) = %v, want %v", tt.price, got, tt.want)
			}
		})
	}

	if got := CheckExit(cfg, models.Position{}, 1); got != ExitNone {
		t.Fatalf("flat: %v", got)
	}
}

func TestStopLossResetsPosition(t *testing.T) {
	cfg := models.DefaultStrategyConfig()
	cfg.ImmediateExitPct = 10
	m := NewMachine(cfg, nil)
	_ = m.Restore(models.Position{Size: 40, AvgPrice: 100})

	if sig := m.CheckExit(96); sig != ExitTPSL {
		t.Fatalf("signal = %v, want tp_sl", sig)
	}
	if pos := m.Exit(); pos != (models.Position{}) {
		t.Fatalf("position = %+v, want {0 0}", pos)
	}
	if m.State() != Flat {
		t.Fatalf("state = %v", m.State())
	}
}

func TestDeterminism(t *testing.T) {
	cfg := models.DefaultStrategyConfig()
	closes := rsi25()
	pos := models.Position{Size: 40, AvgPrice: 100}
	first, firstExit := CheckEntry(cfg, pos, closes, 105), CheckExit(cfg, pos, 97)
	for i := 0; i < 100; i++ {
		if CheckEntry(cfg, pos, closes, 105) != first || CheckExit(cfg, pos, 97) != firstExit {
			t.Fatal("checks are not deterministic")
		}
	}
	if closes[0] != 100 || len(closes) != 15 {
		t.Fatal("closes were mutated")
	}
}

func TestAvgPricePolicies(t *testing.T) {
	pos := models.Position{Size: 40, AvgPrice: 100}

	if got := ApplyEntry(pos, 7, 105, OverwriteAvgPrice); got.AvgPrice != 105 || got.Size != 47 {
		t.Fatalf("overwrite: %+v", got)
	}
	got := ApplyEntry(pos, 10, 110, WeightedAvgPrice)
	if got.Size != 50 || math.Abs(got.AvgPrice-102) > 1e-9 {
		t.Fatalf("weighted: %+v, want {50 102}", got)
	}
	if got := ApplyEntry(models.Position{}, 40, 94, WeightedAvgPrice); got != (models.Position{Size: 40, AvgPrice: 94}) {
		t.Fatalf("weighted from flat: %+v", got)
	}

	for name, want := range map[string]bool{"": true, "overwrite": true, "weighted": true, "fifo": false} {
		_, err := PolicyByName(name)
		if (err == nil) != want {
			t.Errorf("PolicyByName(%q) err = %v", name, err)
		}
	}
}

func TestMachineIgnoresEmptyFill(t *testing.T) {
	m := NewMachine(models.DefaultStrategyConfig(), WeightedAvgPrice)
	if pos := m.Enter(EntryBuy1, models.Fill{}); !pos.IsFlat() {
		t.Fatalf("empty fill moved position: %+v", pos)
	}
	if pos := m.Enter(EntryNone, models.Fill{Price: 1, Size: 1}); !pos.IsFlat() {
		t.Fatalf("EntryNone moved position: %+v", pos)
	}
	if err := m.Restore(models.Position{Size: 1}); err == nil {
		t.Fatal("expected error for size without avg price")
	}
}

func TestPartialExit(t *testing.T) {
	m := NewMachine(models.DefaultStrategyConfig(), nil)
	_ = m.Restore(models.Position{Size: 47, AvgPrice: 100})

	if pos := m.Reduce(20); pos != (models.Position{Size: 27, AvgPrice: 100}) {
		t.Fatalf("after partial: %+v", pos)
	}
	if pos := m.Reduce(0); pos.Size != 27 {
		t.Fatalf("zero sold: %+v", pos)
	}
	if pos := m.Reduce(30); pos != (models.Position{}) {
		t.Fatalf("oversold must flatten: %+v", pos)
	}
}

package models

import "fmt"

// SignalKind: то, что пишем в strategy_signals.
type SignalKind string

const (
	SignalBuy  SignalKind = "buy"
	SignalSell SignalKind = "sell"
)

func (k SignalKind) Valid() bool { return k == SignalBuy || k == SignalSell }

func ParseSignalKind(s string) (SignalKind, error) {
	k := SignalKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown signal kind %q", s)
	}
	return k, nil
}

// Signal: запись аудита решений, обратно стратегией не читается.
type Signal struct {
	Symbol    string
	Timestamp int64 // ms
	Kind      SignalKind
}

// StrategyConfig: параметры стратегии, не меняются за время жизни процесса.
// Проценты задаются в процентах (3 => 3%).
type StrategyConfig struct {
	Buy1Size         float64 `yaml:"buy1_size"`
	Buy2Size         float64 `yaml:"buy2_size"`
	StopLossPct      float64 `yaml:"stop_loss_pct"`
	TakeProfitPct    float64 `yaml:"take_profit_pct"`
	Buy2OffsetPct    float64 `yaml:"buy2_offset_pct"`
	ImmediateExitPct float64 `yaml:"immediate_exit_pct"`

	RSIPeriod     int     `yaml:"rsi_period"`
	RSIOverbought float64 `yaml:"rsi_overbought"`
	RSIOversold   float64 `yaml:"rsi_oversold"`
}

func DefaultStrategyConfig() StrategyConfig {
	return StrategyConfig{
		Buy1Size:         40,
		Buy2Size:         7,
		StopLossPct:      3,
		TakeProfitPct:    5,
		Buy2OffsetPct:    4,
		ImmediateExitPct: 2,
		RSIPeriod:        14,
		RSIOverbought:    67,
		RSIOversold:      33,
	}
}

func (c StrategyConfig) Validate() error {
	if c.Buy1Size <= 0 || c.Buy2Size <= 0 {
		return fmt.Errorf("tranche sizes must be > 0: buy1=%v buy2=%v", c.Buy1Size, c.Buy2Size)
	}
	if c.RSIPeriod < 1 {
		return fmt.Errorf("rsi_period must be >= 1, got %d", c.RSIPeriod)
	}
	if c.RSIOversold >= c.RSIOverbought {
		return fmt.Errorf("rsi_oversold (%v) must be < rsi_overbought (%v)", c.RSIOversold, c.RSIOverbought)
	}
	if c.StopLossPct < 0 || c.TakeProfitPct < 0 || c.Buy2OffsetPct < 0 || c.ImmediateExitPct < 0 {
		return fmt.Errorf("percent thresholds must be >= 0")
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"rsi_bot/internal/models"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	defaultConfigFile = "values_local.yaml"
	configDir         = "configs"
)

const (
	FillOptimistic = "optimistic"
	FillConfirmed  = "confirmed"

	AvgPriceOverwrite = "overwrite"
	AvgPriceWeighted  = "weighted"

	SourceREST = "rest"
	SourceWS   = "ws"

	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config ...
type Config struct {
	LogLevel string `yaml:"log_level"`
	Symbol   string `yaml:"symbol"`

	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	DB    string `yaml:"db_dsn"`
	Store struct {
		Driver   string `yaml:"driver"` // postgres | memory
		MaxConns int32  `yaml:"max_conns"`
	} `yaml:"store"`

	Service struct {
		Host      string `yaml:"host"`
		AdminPort int    `yaml:"admin_port"`
	} `yaml:"service"`

	Tracing struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"tracing"`

	OKX struct {
		APIKey         string        `yaml:"api_key"`
		APISecret      string        `yaml:"api_secret"`
		Passphrase     string        `yaml:"passphrase"`
		Simulated      bool          `yaml:"simulated"` // x-simulated-trading: 1
		BaseURL        string        `yaml:"base_url"`
		WSURL          string        `yaml:"ws_url"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
		RatePerSec     float64       `yaml:"rate_per_sec"`
		Burst          int           `yaml:"burst"`
	} `yaml:"okx"`

	Ingest struct {
		Bar      string        `yaml:"bar"`
		Limit    int           `yaml:"limit"`
		Interval time.Duration `yaml:"interval"`
		Source   string        `yaml:"source"` // rest | ws
	} `yaml:"ingest"`

	Strategy struct {
		models.StrategyConfig `yaml:",inline"`

		Bar             string        `yaml:"bar"`
		Window          int           `yaml:"window"`
		Interval        time.Duration `yaml:"interval"`
		AvgPricePolicy  string        `yaml:"avg_price_policy"` // overwrite | weighted
		RestorePosition bool          `yaml:"restore_position"`
	} `yaml:"strategy"`

	Executor struct {
		TdMode      string        `yaml:"td_mode"`
		FillMode    string        `yaml:"fill_mode"` // optimistic | confirmed
		FillTimeout time.Duration `yaml:"fill_timeout"`
		FillPoll    time.Duration `yaml:"fill_poll"`
		DryRun      bool          `yaml:"dry_run"`
	} `yaml:"executor"`
}

// Default: значения как у исходной стратегии (XRP-USDT, 5m, RSI 14/67/33).
func Default() Config {
	var c Config
	c.LogLevel = "info"
	c.Symbol = "XRP-USDT"
	c.Store.Driver = StorePostgres
	c.Store.MaxConns = 4
	c.Service.AdminPort = 8080
	c.Tracing.Port = 6831

	c.OKX.BaseURL = "https://www.okx.com"
	c.OKX.WSURL = "wss://ws.okx.com:8443/ws/v5/business"
	c.OKX.RequestTimeout = 10 * time.Second
	c.OKX.RatePerSec = 5
	c.OKX.Burst = 5

	c.Ingest.Bar = "5m"
	c.Ingest.Limit = 300
	c.Ingest.Interval = 2 * time.Second
	c.Ingest.Source = SourceREST

	c.Strategy.StrategyConfig = models.DefaultStrategyConfig()
	c.Strategy.Bar = "5m"
	c.Strategy.Window = 100
	c.Strategy.Interval = 10 * time.Second
	c.Strategy.AvgPricePolicy = AvgPriceOverwrite

	c.Executor.TdMode = "cross"
	c.Executor.FillMode = FillOptimistic
	c.Executor.FillTimeout = 15 * time.Second
	c.Executor.FillPoll = 500 * time.Millisecond
	return c
}

func NewConfig() (*Config, error) {
	path := os.Getenv(configFilePathENV)
	explicit := path != ""
	if !explicit {
		path = filepath.Join(configDir, defaultConfigFile)
	}

	cfg, err := Load(path)
	if err != nil && !explicit && errors.Is(err, fs.ErrNotExist) {
		// без файла работаем на дефолтах + env
		d := Default()
		cfg = &d
		err = nil
	}
	if err != nil {
		return nil, err
	}

	applyEnv(cfg, newEnv())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load читает yaml поверх Default(). Env не применяется.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	config := Default()
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}
	return &config, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Symbol) == "" {
		return fmt.Errorf("symbol is required")
	}
	if err := c.Strategy.StrategyConfig.Validate(); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	if c.Strategy.Window <= c.Strategy.RSIPeriod {
		return fmt.Errorf("strategy.window (%d) must be > rsi_period (%d)", c.Strategy.Window, c.Strategy.RSIPeriod)
	}
	if c.Strategy.Interval <= 0 || c.Ingest.Interval <= 0 {
		return fmt.Errorf("loop intervals must be > 0")
	}
	switch c.Strategy.AvgPricePolicy {
	case AvgPriceOverwrite, AvgPriceWeighted:
	default:
		return fmt.Errorf("unknown strategy.avg_price_policy %q", c.Strategy.AvgPricePolicy)
	}
	switch c.Executor.FillMode {
	case FillOptimistic, FillConfirmed:
	default:
		return fmt.Errorf("unknown executor.fill_mode %q", c.Executor.FillMode)
	}
	switch c.Ingest.Source {
	case SourceREST, SourceWS:
	default:
		return fmt.Errorf("unknown ingest.source %q", c.Ingest.Source)
	}
	switch c.Store.Driver {
	case StorePostgres:
		if c.DB == "" {
			return fmt.Errorf("db_dsn is required for store.driver=postgres")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}
	return nil
}

func (c *Config) AdminAddr() string {
	return fmt.Sprintf("%s:%d", c.Service.Host, c.Service.AdminPort)
}

// newEnv: viper только как слой env-переопределений: OKX_API_KEY -> okx.api_key.
func newEnv() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// исторические имена переменных
	_ = v.BindEnv("telegram.token", "TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN")
	_ = v.BindEnv("telegram.chat_id", "TELEGRAM_CHAT_ID")
	_ = v.BindEnv("db_dsn", "DATABASE_DSN")
	return v
}

func applyEnv(c *Config, v *viper.Viper) {
	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	integer := func(key string, dst *int) {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}
	float := func(key string, dst *float64) {
		if v.IsSet(key) {
			*dst = v.GetFloat64(key)
		}
	}
	boolean := func(key string, dst *bool) {
		if v.IsSet(key) {
			*dst = v.GetBool(key)
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v.IsSet(key) {
			*dst = v.GetDuration(key)
		}
	}

	str("log_level", &c.LogLevel)
	str("symbol", &c.Symbol)
	str("db_dsn", &c.DB)
	str("store.driver", &c.Store.Driver)
	if v.IsSet("telegram.chat_id") {
		c.Telegram.ChatID = v.GetInt64("telegram.chat_id")
	}
	str("telegram.token", &c.Telegram.Token)
	integer("service.admin_port", &c.Service.AdminPort)
	str("tracing.host", &c.Tracing.Host)
	integer("tracing.port", &c.Tracing.Port)

	str("okx.api_key", &c.OKX.APIKey)
	str("okx.api_secret", &c.OKX.APISecret)
	str("okx.passphrase", &c.OKX.Passphrase)
	boolean("okx.simulated", &c.OKX.Simulated)
	str("okx.base_url", &c.OKX.BaseURL)
	duration("okx.request_timeout", &c.OKX.RequestTimeout)

	str("ingest.bar", &c.Ingest.Bar)
	integer("ingest.limit", &c.Ingest.Limit)
	duration("ingest.interval", &c.Ingest.Interval)
	str("ingest.source", &c.Ingest.Source)

	str("strategy.bar", &c.Strategy.Bar)
	integer("strategy.window", &c.Strategy.Window)
	duration("strategy.interval", &c.Strategy.Interval)
	float("strategy.buy1_size", &c.Strategy.Buy1Size)
	float("strategy.buy2_size", &c.Strategy.Buy2Size)
	float("strategy.stop_loss_pct", &c.Strategy.StopLossPct)
	float("strategy.take_profit_pct", &c.Strategy.TakeProfitPct)
	float("strategy.buy2_offset_pct", &c.Strategy.Buy2OffsetPct)
	float("strategy.immediate_exit_pct", &c.Strategy.ImmediateExitPct)
	integer("strategy.rsi_period", &c.Strategy.RSIPeriod)
	float("strategy.rsi_oversold", &c.Strategy.RSIOversold)
	float("strategy.rsi_overbought", &c.Strategy.RSIOverbought)
	str("strategy.avg_price_policy", &c.Strategy.AvgPricePolicy)
	boolean("strategy.restore_position", &c.Strategy.RestorePosition)

	str("executor.td_mode", &c.Executor.TdMode)
	str("executor.fill_mode", &c.Executor.FillMode)
	duration("executor.fill_timeout", &c.Executor.FillTimeout)
	duration("executor.fill_poll", &c.Executor.FillPoll)
	boolean("executor.dry_run", &c.Executor.DryRun)
}

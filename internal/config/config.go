package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/viicttorhugo/invest-botnuvem/internal/admission"
	"github.com/viicttorhugo/invest-botnuvem/internal/model"
	"github.com/viicttorhugo/invest-botnuvem/internal/session"
)

// InstrumentAccount is one instrument's per-account trading parameters.
type InstrumentAccount struct {
	InitialStake float64 `yaml:"initial_stake"`
	StopGain     float64 `yaml:"stop_gain"`
	StopLoss     float64 `yaml:"stop_loss"`
}

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Venue struct {
		Endpoint  string `yaml:"endpoint"`
		AppID     string `yaml:"app_id"`
		Currency  string `yaml:"currency"`
		PaperMode bool   `yaml:"paper_mode"`
	} `yaml:"venue"`
	Engine struct {
		Instruments         map[string]string `yaml:"instruments"`
		Windows             []string          `yaml:"windows"`
		PeriodMinutes       int               `yaml:"period_minutes"`
		TriggerSecond       int               `yaml:"trigger_second"`
		ConfidenceThreshold float64           `yaml:"confidence_threshold"`
		PayoutRate          float64           `yaml:"payout_rate"`
		MaxMartingale       int               `yaml:"max_martingale"`
		HoldingMinutes      int               `yaml:"holding_minutes"`
	} `yaml:"engine"`
	Schedule struct {
		DigestCron string `yaml:"digest_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Account struct {
		UserID      string                       `yaml:"user_id"`
		VenueToken  string                       `yaml:"venue_token"`
		Instruments map[string]InstrumentAccount `yaml:"instruments"`
	} `yaml:"account"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("DERIV_ENDPOINT"); v != "" {
		cfg.Venue.Endpoint = v
	}
	if v := os.Getenv("DERIV_APP_ID"); v != "" {
		cfg.Venue.AppID = v
	}
	if v := os.Getenv("DERIV_TOKEN"); v != "" {
		cfg.Account.VenueToken = v
	}
	if v := os.Getenv("PAPER_MODE"); v == "true" {
		cfg.Venue.PaperMode = true
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("CRON_DIGEST"); v != "" {
		cfg.Schedule.DigestCron = v
	}

	// Defaults
	if len(cfg.Engine.Instruments) == 0 {
		cfg.Engine.Instruments = map[string]string{
			"EURUSD": "frxEURUSD",
			"EURJPY": "frxEURJPY",
			"USDJPY": "frxUSDJPY",
		}
	}
	if cfg.Schedule.DigestCron == "" {
		cfg.Schedule.DigestCron = "0 0 18 * * 1-5"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/botnuvem.db"
	}
	if cfg.Account.UserID == "" {
		cfg.Account.UserID = "local"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if !c.Venue.PaperMode && c.Account.VenueToken == "" {
		return fmt.Errorf("account.venue_token is required outside paper mode")
	}
	if len(c.Account.Instruments) == 0 {
		return fmt.Errorf("account.instruments must name at least one instrument")
	}
	return nil
}

// EngineConfig translates the YAML engine section into session knobs.
// Unset fields keep the engine defaults.
func (c *Config) EngineConfig() (session.Config, error) {
	windows, err := admission.ParseWindows(c.Engine.Windows)
	if err != nil {
		return session.Config{}, fmt.Errorf("engine.windows: %w", err)
	}
	return session.Config{
		Instruments:         c.Engine.Instruments,
		Windows:             windows,
		PeriodMinutes:       c.Engine.PeriodMinutes,
		TriggerSecond:       c.Engine.TriggerSecond,
		ConfidenceThreshold: c.Engine.ConfidenceThreshold,
		PayoutRate:          c.Engine.PayoutRate,
		MaxMartingale:       c.Engine.MaxMartingale,
		HoldingDuration:     time.Duration(c.Engine.HoldingMinutes) * time.Minute,
	}, nil
}

// AccountParams translates the YAML account section into per-instrument
// session parameters.
func (c *Config) AccountParams() map[string]model.InstrumentParams {
	params := make(map[string]model.InstrumentParams, len(c.Account.Instruments))
	for name, a := range c.Account.Instruments {
		params[name] = model.InstrumentParams{
			InitialStake: a.InitialStake,
			StopGain:     a.StopGain,
			StopLoss:     a.StopLoss,
		}
	}
	return params
}

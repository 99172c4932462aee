package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

var ErrEmptyStoragePath = errors.New(
	"error getting PW_STORAGE_PATH: variable not specified or contains an empty string")

type Config struct {
	Env             string        // Env is the current environment: local, dev, prod.
	HTTPAddr        string        // HTTPAddr is the listen address of the API server.
	StoragePath     string        // StoragePath is the sqlite database file.
	MarketplaceHost string        // MarketplaceHost is the host canonical product URLs are built on.
	UpdateInterval  time.Duration // UpdateInterval is the period between scheduled sweeps.
	SweepDelay      time.Duration // SweepDelay is the pause between two sweep items.
	FetchTimeout    time.Duration // FetchTimeout bounds a single page fetch.
	ScraperStrict   bool          // ScraperStrict disables the placeholder fallback.
	Tg              Telegram
}

type Telegram struct {
	Token   string        // Token is a unique telegram bot token; empty disables the bot.
	Timeout time.Duration // Timeout is a poller timeout duration.
}

// MustLoad loads the configuration from environment variables and returns a Config struct.
func MustLoad() *Config {
	// Automatically binds environment variables to config keys
	viper.SetEnvPrefix("PW")
	viper.AutomaticEnv()

	// optional args
	viper.SetDefault("ENV", "production")
	viper.SetDefault("HTTP_ADDR", ":4000")
	viper.SetDefault("MARKETPLACE_HOST", "www.amazon.fr")
	viper.SetDefault("UPDATE_INTERVAL", "1h")
	viper.SetDefault("SWEEP_DELAY", "2s")
	viper.SetDefault("FETCH_TIMEOUT", "15s")
	viper.SetDefault("SCRAPER_STRICT", false)
	viper.SetDefault("TELEGRAM_TIMEOUT", "15s")

	if viper.GetString("STORAGE_PATH") == "" {
		panic(ErrEmptyStoragePath)
	}

	return &Config{
		Env:             viper.GetString("ENV"),
		HTTPAddr:        viper.GetString("HTTP_ADDR"),
		StoragePath:     viper.GetString("STORAGE_PATH"),
		MarketplaceHost: viper.GetString("MARKETPLACE_HOST"),
		UpdateInterval:  viper.GetDuration("UPDATE_INTERVAL"),
		SweepDelay:      viper.GetDuration("SWEEP_DELAY"),
		FetchTimeout:    viper.GetDuration("FETCH_TIMEOUT"),
		ScraperStrict:   viper.GetBool("SCRAPER_STRICT"),
		Tg: Telegram{
			Token:   viper.GetString("TELEGRAM_TOKEN"),
			Timeout: viper.GetDuration("TELEGRAM_TIMEOUT"),
		},
	}
}

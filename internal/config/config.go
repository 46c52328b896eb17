package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config holds environment- and flag-driven configuration.
type Config struct {
	Tickspot struct {
		Subdomain string
		Email     string
		Password  string
		BaseURL   string // default: https://<subdomain>.tickspot.com
	}
	MySQL struct {
		DSN string // e.g., user:pass@tcp(host:3306)/dbname?parseTime=true&multiStatements=true
	}
	Sync struct {
		Timezone string // e.g., UTC (default), Europe/Berlin
	}
	HTTP struct {
		Addr string // trigger server listen address
	}
}

// Bind prepares v to read configuration from the environment. Tickspot
// settings use the TICKSPOT_ prefix; the rest keep their historical names.
func Bind(v *viper.Viper) {
	v.SetEnvPrefix("TICKSPOT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("mysql_dsn", "MYSQL_DSN")
	_ = v.BindEnv("sync_tz", "SYNC_TZ")
	_ = v.BindEnv("http_addr", "HTTP_ADDR")

	v.SetDefault("sync_tz", "UTC")
	v.SetDefault("http_addr", ":8080")
}

// Load reads configuration from v, which should have been passed to Bind.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config

	cfg.Tickspot.Subdomain = v.GetString("subdomain")
	if cfg.Tickspot.Subdomain == "" {
		return cfg, errors.New("TICKSPOT_SUBDOMAIN is required")
	}
	cfg.Tickspot.Email = v.GetString("email")
	if cfg.Tickspot.Email == "" {
		return cfg, errors.New("TICKSPOT_EMAIL is required")
	}
	cfg.Tickspot.Password = v.GetString("password")
	if cfg.Tickspot.Password == "" {
		return cfg, errors.New("TICKSPOT_PASSWORD is required")
	}
	cfg.Tickspot.BaseURL = v.GetString("base_url")

	cfg.MySQL.DSN = v.GetString("mysql_dsn")
	cfg.Sync.Timezone = v.GetString("sync_tz")
	cfg.HTTP.Addr = v.GetString("http_addr")

	return cfg, nil
}

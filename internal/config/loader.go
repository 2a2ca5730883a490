package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load builds configuration from defaults, an optional yaml config file, and
// environment variables. Precedence: defaults < config file < env vars <
// caller flag overrides (applied by the command layer after Load returns).
func Load(explicitPath string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("chat_addr", cfg.ChatAddr)
	v.SetDefault("web_addr", cfg.WebAddr)
	v.SetDefault("max_clients", cfg.MaxClients)
	v.SetDefault("tls_cert", cfg.TLSCert)
	v.SetDefault("tls_key", cfg.TLSKey)
	v.SetDefault("rate", cfg.Rate)
	v.SetDefault("burst", cfg.Burst)
	v.SetDefault("strikes", cfg.Strikes)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_format", cfg.LogFormat)
	v.SetDefault("motd", cfg.MOTD)
	v.SetDefault("motd_file", cfg.MOTDFile)
	v.SetDefault("history_size", cfg.HistorySize)
	v.SetDefault("nick_reserve_secs", cfg.NickReserveSecs)
	v.SetDefault("stats_file", cfg.StatsFile)
	v.SetDefault("ban_file", cfg.BanFile)
	v.SetDefault("db_path", cfg.DBPath)
	v.SetDefault("admin_password", cfg.AdminPassword)
	v.SetDefault("idle_timeout", cfg.IdleTimeout)
	v.SetDefault("write_timeout", cfg.WriteTimeout)
	v.SetDefault("shutdown_timeout", cfg.ShutdownTimeout)

	v.SetEnvPrefix("MORTALNET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return cfg, fmt.Errorf("read config: %w", err)
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}

// WriteDefault writes the default configuration as yaml to path, creating
// parent directories as needed. Meant for `mortalnetd config init`.
func WriteDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

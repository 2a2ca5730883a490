package config

import "time"

// Config holds all runtime configuration for the MortalNet hub.
type Config struct {
	// Network
	ChatAddr   string `mapstructure:"chat_addr" yaml:"chat_addr"`
	WebAddr    string `mapstructure:"web_addr" yaml:"web_addr"`
	MaxClients int    `mapstructure:"max_clients" yaml:"max_clients"`

	// TLS for the chat listener. Both must be set to enable TLS.
	TLSCert string `mapstructure:"tls_cert" yaml:"tls_cert"`
	TLSKey  string `mapstructure:"tls_key" yaml:"tls_key"`

	// Rate limiting (token bucket per client)
	Rate    float64 `mapstructure:"rate" yaml:"rate"`
	Burst   float64 `mapstructure:"burst" yaml:"burst"`
	Strikes int     `mapstructure:"strikes" yaml:"strikes"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	// MOTD: inline text, optionally overridden by a file re-read on reload.
	MOTD     string `mapstructure:"motd" yaml:"motd"`
	MOTDFile string `mapstructure:"motd_file" yaml:"motd_file"`

	// Chat history replayed to new joiners.
	HistorySize int `mapstructure:"history_size" yaml:"history_size"`

	// Seconds a nick stays reserved for its IP after disconnect.
	NickReserveSecs int `mapstructure:"nick_reserve_secs" yaml:"nick_reserve_secs"`

	// Persistence. Empty paths disable the corresponding feature.
	StatsFile string `mapstructure:"stats_file" yaml:"stats_file"`
	BanFile   string `mapstructure:"ban_file" yaml:"ban_file"`
	DBPath    string `mapstructure:"db_path" yaml:"db_path"`

	// Admin password; empty disables admin commands server-wide.
	// A bcrypt hash (starting with "$2") is verified as a hash.
	AdminPassword string `mapstructure:"admin_password" yaml:"admin_password"`

	// Timeouts
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Default returns configuration with the stock MortalNet defaults.
func Default() Config {
	return Config{
		ChatAddr:        ":14883",
		WebAddr:         ":8080",
		MaxClients:      100,
		Rate:            5.0,
		Burst:           10.0,
		Strikes:         3,
		LogLevel:        "info",
		LogFormat:       "console",
		HistorySize:     20,
		NickReserveSecs: 60,
		IdleTimeout:     5 * time.Minute,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}

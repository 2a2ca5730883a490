// Command mortalnetd runs the MortalNet lobby server: a TCP chat hub with
// matchmaking plus a read-only HTTP dashboard.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/openmortal/mortalnet/internal/app"
	"github.com/openmortal/mortalnet/internal/config"
	"github.com/openmortal/mortalnet/internal/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:          "mortalnetd",
		Short:        "MortalNet lobby server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			applyFlagOverrides(cmd, &cfg)
			return run(&cfg)
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to yaml config file")

	flags := cmd.Flags()
	flags.String("chat-addr", "", "TCP listen address for chat")
	flags.String("web-addr", "", "HTTP dashboard listen address")
	flags.Int("max-clients", 0, "maximum simultaneous connections")
	flags.Float64("rate", 0, "token bucket refill rate (msg/s)")
	flags.Float64("burst", 0, "token bucket burst size")
	flags.Int("strikes", 0, "flood strikes before disconnect")
	flags.String("log-level", "", "log level: debug/info/warn/error")
	flags.String("log-format", "", "log format: console/json")
	flags.String("motd", "", "message of the day text")
	flags.String("motd-file", "", "path to MOTD file (reread on SIGHUP)")
	flags.Int("history-size", 0, "chat lines replayed to new joiners")
	flags.Int("nick-reserve-secs", -1, "seconds a nick is reserved after disconnect")
	flags.String("stats-file", "", "path to JSON stats file ('' = disabled)")
	flags.String("ban-file", "", "path to IP ban list (one IP per line)")
	flags.String("db-path", "", "path to chat/match archive database ('' = disabled)")
	flags.String("admin-password", "", "admin password or bcrypt hash ('' = admin disabled)")
	flags.String("tls-cert", "", "path to TLS certificate file")
	flags.String("tls-key", "", "path to TLS private key file")

	cmd.AddCommand(newConfigCmd())
	return cmd
}

// applyFlagOverrides lets explicitly set flags win over file and env values.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("chat-addr") {
		cfg.ChatAddr, _ = flags.GetString("chat-addr")
	}
	if flags.Changed("web-addr") {
		cfg.WebAddr, _ = flags.GetString("web-addr")
	}
	if flags.Changed("max-clients") {
		cfg.MaxClients, _ = flags.GetInt("max-clients")
	}
	if flags.Changed("rate") {
		cfg.Rate, _ = flags.GetFloat64("rate")
	}
	if flags.Changed("burst") {
		cfg.Burst, _ = flags.GetFloat64("burst")
	}
	if flags.Changed("strikes") {
		cfg.Strikes, _ = flags.GetInt("strikes")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.LogFormat, _ = flags.GetString("log-format")
	}
	if flags.Changed("motd") {
		cfg.MOTD, _ = flags.GetString("motd")
	}
	if flags.Changed("motd-file") {
		cfg.MOTDFile, _ = flags.GetString("motd-file")
	}
	if flags.Changed("history-size") {
		cfg.HistorySize, _ = flags.GetInt("history-size")
	}
	if flags.Changed("nick-reserve-secs") {
		cfg.NickReserveSecs, _ = flags.GetInt("nick-reserve-secs")
	}
	if flags.Changed("stats-file") {
		cfg.StatsFile, _ = flags.GetString("stats-file")
	}
	if flags.Changed("ban-file") {
		cfg.BanFile, _ = flags.GetString("ban-file")
	}
	if flags.Changed("db-path") {
		cfg.DBPath, _ = flags.GetString("db-path")
	}
	if flags.Changed("admin-password") {
		cfg.AdminPassword, _ = flags.GetString("admin-password")
	}
	if flags.Changed("tls-cert") {
		cfg.TLSCert, _ = flags.GetString("tls-cert")
	}
	if flags.Changed("tls-key") {
		cfg.TLSKey, _ = flags.GetString("tls-key")
	}
}

func run(cfg *config.Config) error {
	logger := log.New(cfg.LogLevel, cfg.LogFormat)

	logger.Info().
		Str("chat", cfg.ChatAddr).
		Str("web", cfg.WebAddr).
		Int("max_clients", cfg.MaxClients).
		Bool("tls", cfg.TLSCert != "").
		Msg("MortalNet server starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(cfg, logger)
	if err != nil {
		return err
	}

	// SIGHUP reloads the ban list and MOTD without restarting.
	hupCh := make(chan os.Signal, 1)
	signal.Notify(hupCh, syscall.SIGHUP)
	defer signal.Stop(hupCh)
	go func() {
		for range hupCh {
			logger.Info().Msg("SIGHUP received, reloading")
			application.Reload()
		}
	}()

	if err := application.Run(ctx); err != nil {
		return err
	}
	logger.Info().Msg("MortalNet server stopped")
	return nil
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration helpers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init <path>",
		Short: "Write a config file with default values",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return config.WriteDefault(args[0])
		},
	})
	return cmd
}

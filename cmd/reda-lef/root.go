package main

import (
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MoleSir/reda-lef/tech"
)

var rootCmd = &cobra.Command{
	Use:   "reda-lef",
	Short: "LEF technology file reader",
	Long:  "reda-lef parses LEF technology files into a typed model and answers layer and spacing queries against it.",
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().Bool("lenient", false, "Collect recoverable errors instead of failing on the first one")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().String("config", "", "Config file")

	_ = viper.BindPFlag("lenient", rootCmd.PersistentFlags().Lookup("lenient"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	if cfg := viper.GetString("config"); cfg != "" {
		viper.SetConfigFile(cfg)
		_ = viper.ReadInConfig()
	}
	viper.SetEnvPrefix("REDALEF")
	viper.AutomaticEnv()
}

// newLogger builds the logger for one invocation, tagged with a fresh
// run id so log lines from concurrent invocations can be told apart.
func newLogger() *slog.Logger {
	var level slog.Level
	switch viper.GetString("log_level") {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if viper.GetString("log_format") == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler).With("run_id", uuid.New().String())
}

// readOptions maps the global flags to reader options.
func readOptions() []tech.Option {
	opts := []tech.Option{tech.WithLogger(newLogger())}
	if viper.GetBool("lenient") {
		opts = append(opts, tech.Lenient())
	}
	return opts
}

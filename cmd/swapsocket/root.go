package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile  string
	addrFlag string
	logLevel string

	// Shared state set during PersistentPreRun
	cfg    *config
	logger *slog.Logger
)

// rootCmd is the base command for swapsocket.
var rootCmd = &cobra.Command{
	Use:   "swapsocket",
	Short: "Turn-based framed TCP exchanges",
	Long: `swapsocket serves and drives conversations over the swapsocket
framing protocol: length-prefixed frames of ordered byte items exchanged in
strict turns between a client and a server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if addrFlag != "" {
			cfg.Addr = addrFlag
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}

		var level slog.Level
		if err = level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
		}

		logger = slog.New(tint.NewHandler(cmd.ErrOrStderr(), &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
		}))
		slog.SetDefault(logger)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&addrFlag, "addr", "", "address to listen on or dial (default \"127.0.0.1:12345\")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default \"info\")")
}

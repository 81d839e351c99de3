package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-circuit/pkg/config"
	"github.com/dd0wney/cluso-circuit/pkg/logging"
)

var (
	// Global flags
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "circuit",
	Short: "Circuit graph and decoupling network analyzer",
	Long: `Analyzes schematic snapshots for power integrity problems: voltage
propagation across nets, capacitor function classification, decoupling
group coverage, and per-IC decoupling risk scored against the routed board.

Examples:
  circuit analyze board.json                    # Schematic-only analysis
  circuit analyze board.json --pcb layout.json  # Include board-level risk scoring
  circuit stats board.json                      # Graph statistics only`,
	Version: "0.3.0",
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to a YAML config file")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "",
		"log level (debug, info, warn, error)")
}

// loadConfig resolves the effective configuration: defaults, then the
// config file, then the log-level flag on top.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = *loaded
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
		if err := cfg.Validate(); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// newLogger builds the process logger from the resolved config.
func newLogger(cfg config.Config) logging.Logger {
	log := logging.NewDefaultLogger()
	log.SetLevel(logging.ParseLevel(cfg.Logging.Level))
	return log
}

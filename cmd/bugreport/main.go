package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"bugreport/internal/config"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Logger
	logger *zap.Logger

	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "bugreport",
	Short: "bugreport - file CLI bug reports from recent command logs",
	Long: `bugreport inspects a CLI tool's command log directory, lets you pick a
recent command, and opens your browser on a prefilled GitHub issue with the
command's errors and your environment summary filled in.

Argument values in the logs are redacted, so the generated report is safe
to share. Run without arguments for the interactive flow.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger
		zcfg := zap.NewProductionConfig()
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		// Load configuration
		path := configPath
		if path == "" {
			path = config.DefaultPath()
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runFeedback,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Emit the full issue output to stderr")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ~/.config/bugreport/config.yaml)")

	// Add commands to root
	rootCmd.AddCommand(recentCmd)
	rootCmd.AddCommand(issueCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(repoCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

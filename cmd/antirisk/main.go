// Command antirisk is the AntiRisk executive security companion: a local,
// single-user terminal client for advisory chat, report audits, and the
// recurring intelligence briefing cycle.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"antirisk/cmd/antirisk/tui"
	"antirisk/internal/config"
	"antirisk/internal/logging"
)

var (
	verbose    bool
	configPath string

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "antirisk",
	Short: "AntiRisk - Executive Security Companion",
	Long: `AntiRisk is a local, single-user security command center for an
executive running a manpower security operation.

Everything stays on this device: the PIN-gated vault, the advisory
conversation, audited reports, and the bi-weekly intelligence briefings.
The only network traffic is to the generation API.

Run without arguments to start the interactive interface.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configPath != "" {
			cfg, err = config.LoadFrom(configPath)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if err := logging.Init(cfg.Logging.Dir, verbose || cfg.Logging.Debug); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		logger = logging.L()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive()
	},
}

func runInteractive() error {
	m, err := tui.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("interface error: %w", err)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(briefingCmd)
	rootCmd.AddCommand(statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"antirisk/internal/advisor"
	"antirisk/internal/engine"
	"antirisk/internal/store"
)

var (
	pinFlag       string
	briefingTopic string
)

// openEngine opens the store, verifies the vault PIN, and builds the engine.
// Headless commands pass the same gate as the interactive interface: no PIN,
// no data.
func openEngine() (*engine.Engine, *store.Store, error) {
	st, err := store.Open(cfg.Storage.DatabasePath, logger.Named("store"))
	if err != nil {
		return nil, nil, err
	}

	stored, ok := st.LoadPIN()
	if !ok {
		st.Close()
		return nil, nil, fmt.Errorf("no access PIN provisioned; run the interactive interface first")
	}

	pin := pinFlag
	if pin == "" {
		pin, err = promptPIN()
		if err != nil {
			st.Close()
			return nil, nil, err
		}
	}
	if pin != stored {
		st.Close()
		return nil, nil, fmt.Errorf("access denied")
	}

	client := advisor.NewClient(advisor.Config{
		APIKey:  cfg.Advisor.APIKey,
		BaseURL: cfg.Advisor.BaseURL,
		Model:   cfg.Advisor.Model,
		Timeout: cfg.AdvisorTimeout(),
	}, logger.Named("advisor"))
	svc := advisor.NewService(client, logger.Named("advisor"))

	return engine.New(st, svc, logger.Named("engine")), st, nil
}

func promptPIN() (string, error) {
	fmt.Fprint(os.Stderr, "Access PIN: ")
	if term.IsTerminal(int(syscall.Stdin)) {
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read PIN: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read PIN: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func renderMarkdown(text string) string {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return out
}

var reportCmd = &cobra.Command{
	Use:   "report [file]",
	Short: "Audit an operational log headlessly",
	Long: `Reads an operational log from the given file (or stdin with "-"),
runs the security audit, records the report, and prints the analysis.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		var err error
		if args[0] == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to read report: %w", err)
		}

		eng, st, err := openEngine()
		if err != nil {
			return err
		}
		defer st.Close()

		report, ok := eng.AnalyzeReport(cmd.Context(), string(data))
		if report.ID == "" {
			return fmt.Errorf("report is empty")
		}

		fmt.Println(renderMarkdown(report.Analysis))
		if !ok {
			fmt.Fprintln(os.Stderr, "warning: audit engine unavailable; report recorded with failure notice")
		}
		return nil
	},
}

var briefingCmd = &cobra.Command{
	Use:   "briefing",
	Short: "Generate an intelligence briefing on demand",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, st, err := openEngine()
		if err != nil {
			return err
		}
		defer st.Close()

		tip, err := eng.GenerateBriefing(cmd.Context(), briefingTopic)
		if err != nil {
			return fmt.Errorf("briefing generation failed: %w", err)
		}

		fmt.Printf("%s — %s\n", tip.WeekDate, tip.Topic)
		fmt.Println(renderMarkdown(tip.Content))
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store statistics and the intelligence cadence",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, st, err := openEngine()
		if err != nil {
			return err
		}
		defer st.Close()

		stats := st.Stats()
		fmt.Printf("Conversation entries: %d\n", stats["chat"])
		fmt.Printf("Audited reports:      %d\n", stats["reports"])
		fmt.Printf("Briefings on file:    %d\n", stats["tips"])
		fmt.Printf("Knowledge documents:  %d\n", stats["knowledge"])
		if eng.IntelligenceDue() {
			fmt.Println("Intelligence cycle:   DUE")
		} else {
			fmt.Println("Intelligence cycle:   on schedule")
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{reportCmd, briefingCmd, statusCmd} {
		c.Flags().StringVar(&pinFlag, "pin", "", "access PIN (prompted if omitted)")
	}
	briefingCmd.Flags().StringVar(&briefingTopic, "topic", "", "briefing topic (model's choice if omitted)")
}

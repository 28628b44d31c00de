package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kjstillabower/contact-form-service/internal/observability"
	"github.com/kjstillabower/contact-form-service/internal/tui"
)

func newTUICmd() *cobra.Command {
	var logFile string
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Fill in the contact form interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := observability.NewFileLogger(logFile)
			if err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			final, err := tea.NewProgram(tui.New(logger), tea.WithAltScreen()).Run()
			if err != nil {
				return fmt.Errorf("run tui: %w", err)
			}
			m, ok := final.(tui.Model)
			if !ok {
				return nil
			}
			if snap, ok := m.State().Snapshot(); ok {
				logger.Debug("tui exited with submission", zap.String("phase", m.State().Phase().String()))
				fmt.Fprintf(cmd.OutOrStdout(), "Submitted: %s %s <%s>\n", snap.FirstName, snap.LastName, snap.Email)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&logFile, "log-file", "", "write JSON logs to this file (default: discard)")
	return cmd
}

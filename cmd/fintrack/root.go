package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

// state is shared by the subcommands of one invocation.
type state struct {
	cfg    *config.Config
	logger *log.Logger
	app    *cli.App
	// today overrides the clock in tests.
	today func() core.Date
	// sheets overrides the Google Sheets source in tests.
	sheets sheetSourceFunc
}

func (s *state) now() core.Date {
	if s.today != nil {
		return s.today()
	}
	return s.app.Ledger.Today()
}

func newRootCmd(st *state) *cobra.Command {
	root := &cobra.Command{
		Use:   "fintrack",
		Short: "Personal finance ledger: import, budgets, recurring bills and trends",
		Long: `fintrack reads bank and spreadsheet exports into the ledger and reports
on budgets, pending recurring bills and spending trends.

The backend is chosen by DATA_BACKEND and SQLITE_DB_PATH, as for the server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cli.LoadEnvFile()
			cfg := config.Load()
			logger := cli.NewLogger(cfg, log.ComponentCLI, cmd.ErrOrStderr())
			log.SetDefault(logger)
			if err := cfg.Validate(); err != nil {
				return err
			}
			app, err := cli.NewApp(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("open ledger: %w", err)
			}
			st.cfg, st.logger, st.app = cfg, logger, app
			return nil
		},
	}

	root.AddCommand(
		newImportCmd(st),
		newImportSheetCmd(st),
		newBudgetsCmd(st),
		newPendingCmd(st),
		newGenerateCmd(st),
		newTrendCmd(st),
		newRankingCmd(st),
	)
	return root
}

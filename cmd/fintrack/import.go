package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fintrack/internal/importer"
	"fintrack/internal/services"
	"fintrack/internal/sheets/google"
)

// maxListedErrors bounds the row errors printed by a preview.
const maxListedErrors = 20

type importFlags struct {
	mapping   string
	sheet     string
	commit    bool
	batchSize int
}

func (f *importFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.mapping, "mapping", "m", "", "Column mapping preset (YAML or JSON); detected from the header when empty")
	cmd.Flags().BoolVar(&f.commit, "commit", false, "Write the resolved rows to the ledger")
	cmd.Flags().IntVar(&f.batchSize, "batch-size", 0, "Rows per write batch (default IMPORT_BATCH_SIZE)")
}

func newImportCmd(st *state) *cobra.Command {
	var flags importFlags
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Preview or commit a CSV or XLSX bank export",
		Long: `Reads a CSV or XLSX export, normalizes dates, amounts and categories, and
prints a preview. Nothing is written unless --commit is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := importer.ReadFile(args[0], flags.sheet)
			if err != nil {
				return err
			}
			return runImport(cmd.Context(), st, cmd.OutOrStdout(), table, flags)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&flags.sheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	return cmd
}

// sheetSource reads a Google Sheets range as a table.
type sheetSource interface {
	ReadTable(ctx context.Context, rng string) (importer.Table, error)
}

type sheetSourceFunc func(ctx context.Context, cfg google.Config) (sheetSource, error)

func newImportSheetCmd(st *state) *cobra.Command {
	var (
		flags importFlags
		rng   string
		year  int
	)
	cmd := &cobra.Command{
		Use:   "import-sheet",
		Short: "Preview or commit rows from a Google Sheets range",
		Long: `Reads a range of the spreadsheet named by GOOGLE_SPREADSHEET_ID with the
service account credentials, then behaves like import.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gcfg := google.FromAppConfig(st.cfg)
			if flags.sheet != "" {
				gcfg.Sheet = flags.sheet
			}
			if year > 0 && gcfg.Sheet != "" {
				gcfg.Sheet = google.YearSheet(gcfg.Sheet, year)
			}

			open := st.sheets
			if open == nil {
				open = func(ctx context.Context, c google.Config) (sheetSource, error) {
					return google.New(ctx, c)
				}
			}
			src, err := open(cmd.Context(), gcfg)
			if err != nil {
				return fmt.Errorf("open spreadsheet: %w", err)
			}
			table, err := src.ReadTable(cmd.Context(), rng)
			if err != nil {
				return err
			}
			return runImport(cmd.Context(), st, cmd.OutOrStdout(), table, flags)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&flags.sheet, "sheet", "", "Sheet to read (default GOOGLE_IMPORT_SHEET)")
	cmd.Flags().StringVarP(&rng, "range", "r", "", "A1 range, e.g. A1:F500 or 'Relevé'!A:F (default: whole sheet)")
	cmd.Flags().IntVar(&year, "year", 0, "Read the \"<year> <sheet>\" tab")
	return cmd
}

func runImport(ctx context.Context, st *state, out io.Writer, table importer.Table, flags importFlags) error {
	var mapping *importer.Mapping
	if flags.mapping != "" {
		m, err := importer.LoadMapping(flags.mapping)
		if err != nil {
			return err
		}
		mapping = &m
	}

	svc := st.app.Import
	if flags.batchSize > 0 {
		svc = services.NewImportService(st.app.Ledger, flags.batchSize)
	}

	preview, err := svc.Preview(ctx, table, mapping)
	if err != nil {
		return err
	}
	printPreview(out, preview)

	if !flags.commit {
		fmt.Fprintln(out, "\nDry run: re-run with --commit to write the resolved rows.")
		return nil
	}

	res, err := svc.Commit(ctx, preview.Result.Candidates, func(p importer.Progress) {
		st.logger.DebugContext(ctx, "Import progress", "processed", p.Processed, "total", p.Total, "percent", p.Percent)
	})
	fmt.Fprintf(out, "\nImported %d of %d rows (%d failed in %d batches, %d skipped as unresolved).\n",
		res.Imported, res.Total, res.Failed, res.FailedBatches, res.Skipped)
	return err
}

func printPreview(out io.Writer, p services.Preview) {
	res := p.Result
	source := "preset"
	if p.Detected {
		source = "detected"
	}
	fmt.Fprintf(out, "Mapping (%s): date=%q description=%q amount=%q category=%q account=%q\n",
		source, p.Mapping.Date, p.Mapping.Description, p.Mapping.Amount, p.Mapping.Category, p.Mapping.Account)
	fmt.Fprintf(out, "Rows: %d  valid: %d  errors: %d  unresolved: %d\n",
		res.Total, res.Valid(), len(res.Errors), len(res.Unresolved()))

	if len(res.Errors) > 0 {
		fmt.Fprintln(out, "\nErrors:")
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ROW\tFIELD\tKIND\tVALUE")
		for i, e := range res.Errors {
			if i == maxListedErrors {
				fmt.Fprintf(tw, "...\t%d more\t\t\n", len(res.Errors)-maxListedErrors)
				break
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.Row, e.Field, e.Kind, e.Raw)
		}
		tw.Flush()
	}

	if unresolved := res.Unresolved(); len(unresolved) > 0 {
		fmt.Fprintln(out, "\nUnresolved categories:")
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ROW\tDATE\tDESCRIPTION\tAMOUNT\tCATEGORY")
		for _, c := range unresolved {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", c.Row, c.Date, truncate(c.Description, 40), c.Amount, c.CategoryText)
		}
		tw.Flush()
	}
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

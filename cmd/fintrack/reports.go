package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/period"
	"fintrack/internal/services"
)

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
}

func newBudgetsCmd(st *state) *cobra.Command {
	var (
		all  bool
		asOf string
	)
	cmd := &cobra.Command{
		Use:   "budgets",
		Short: "Show spending against each budget for its current period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			day := st.now()
			if asOf != "" {
				d, err := core.ParseDate(asOf)
				if err != nil {
					return err
				}
				day = d
			}
			progress, err := st.app.Dashboard.Budgets(cmd.Context(), day, !all)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(progress) == 0 {
				fmt.Fprintln(out, "No budgets.")
				return nil
			}
			tw := newTable(out)
			fmt.Fprintln(tw, "BUDGET\tPERIOD\tSPENT\tLIMIT\tREMAINING\tUSED\tSTATUS")
			for _, p := range progress {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.1f%%\t%s\n",
					p.Budget.Name, p.Budget.Period, p.Spent, p.Budget.Limit, p.Remaining, p.Percentage, p.Status)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Include inactive budgets")
	cmd.Flags().StringVar(&asOf, "date", "", "Evaluate as of this day (YYYY-MM-DD, default today)")
	return cmd
}

func newPendingCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List recurring occurrences that are due and not yet recorded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pending, err := st.app.Recurring.Pending(cmd.Context(), st.now())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(pending) == 0 {
				fmt.Fprintln(out, "Nothing pending.")
				return nil
			}
			tw := newTable(out)
			fmt.Fprintln(tw, "TEMPLATE\tDUE\tDESCRIPTION\tAMOUNT\tFREQUENCY")
			for _, o := range pending {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					o.Template.ID, o.ExpectedDate, o.Template.Description, o.Template.Amount, o.Template.Frequency)
			}
			return tw.Flush()
		},
	}
}

func newGenerateCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "generate <template-id>",
		Short: "Record the current occurrence of a recurring template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tx, err := st.app.Recurring.Generate(cmd.Context(), args[0], st.now())
			switch {
			case errors.Is(err, services.ErrAlreadyRecorded):
				return fmt.Errorf("template %s: this period is already recorded", args[0])
			case errors.Is(err, ledger.ErrNotFound):
				return fmt.Errorf("template %s not found", args[0])
			case err != nil:
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s %s on %s (id %s)\n", tx.Description, tx.Amount, tx.Date, tx.ID)
			return nil
		},
	}
}

func newTrendCmd(st *state) *cobra.Command {
	var (
		months int
		year   int
		asCSV  bool
	)
	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Monthly spending totals",
		Long:  "Shows the last --months months ending this month, or the twelve months of --year.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			end := period.MonthOf(st.now())
			n := months
			if n <= 0 {
				n = st.app.Dashboard.TrendMonths()
			}
			if year > 0 {
				end, n = period.Month{Year: year, Month: 12}, 12
			}
			trend, err := st.app.Dashboard.Trend(cmd.Context(), end, n)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asCSV {
				return gocsv.Marshal(trend, out)
			}
			tw := newTable(out)
			fmt.Fprintln(tw, "MONTH\tTOTAL\tCOUNT")
			var total core.Money
			for _, m := range trend {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", m.Label, m.Total, m.Count)
				total = total.Add(m.Total)
			}
			fmt.Fprintf(tw, "TOTAL\t%s\t\n", total)
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&months, "months", "n", 0, "Number of months (default TREND_MONTHS)")
	cmd.Flags().IntVarP(&year, "year", "y", 0, "Show January to December of this year")
	cmd.Flags().BoolVar(&asCSV, "csv", false, "Write CSV instead of a table")
	return cmd
}

func newRankingCmd(st *state) *cobra.Command {
	var (
		merchants bool
		top       int
		year      int
		month     int
		asCSV     bool
	)
	cmd := &cobra.Command{
		Use:   "ranking",
		Short: "Top spending categories or merchants",
		Long:  "Ranks the current month by default, the whole --year, or one --year/--month.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, to, err := rankingWindow(st.now(), year, month)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if merchants {
				k := top
				if k <= 0 {
					k = analytics.DefaultMerchantTopK
				}
				rows, err := st.app.Dashboard.MerchantRanking(cmd.Context(), from, to, k)
				if err != nil {
					return err
				}
				if asCSV {
					return gocsv.Marshal(rows, out)
				}
				tw := newTable(out)
				fmt.Fprintln(tw, "MERCHANT\tTOTAL\tCOUNT")
				for _, r := range rows {
					fmt.Fprintf(tw, "%s\t%s\t%d\n", r.Name, r.Total, r.Count)
				}
				return tw.Flush()
			}

			k := top
			if k <= 0 {
				k = analytics.DefaultCategoryTopK
			}
			rows, err := st.app.Dashboard.CategoryRanking(cmd.Context(), from, to, k)
			if err != nil {
				return err
			}
			if asCSV {
				return gocsv.Marshal(rows, out)
			}
			tw := newTable(out)
			fmt.Fprintln(tw, "CATEGORY\tTOTAL\tCOUNT\tSHARE")
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%.1f%%\n", r.NameFR, r.Total, r.Count, r.Percent)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&merchants, "merchants", false, "Rank merchants instead of categories")
	cmd.Flags().IntVarP(&top, "top", "k", 0, "Number of entries")
	cmd.Flags().IntVarP(&year, "year", "y", 0, "Year to rank")
	cmd.Flags().IntVarP(&month, "month", "m", 0, "Month to rank (1-12, needs --year)")
	cmd.Flags().BoolVar(&asCSV, "csv", false, "Write CSV instead of a table")
	return cmd
}

// rankingWindow returns the inclusive bounds of the requested period.
func rankingWindow(today core.Date, year, month int) (core.Date, core.Date, error) {
	switch {
	case month != 0 && year == 0:
		return core.Date{}, core.Date{}, errors.New("--month needs --year")
	case month < 0 || month > 12:
		return core.Date{}, core.Date{}, fmt.Errorf("invalid month %d", month)
	case year > 0 && month > 0:
		m := period.Month{Year: year, Month: month}
		return m.Start(), m.End(), nil
	case year > 0:
		return period.MonthStart(year, 1), period.MonthEnd(year, 12), nil
	default:
		m := period.MonthOf(today)
		return m.Start(), m.End(), nil
	}
}

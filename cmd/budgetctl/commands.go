package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iamdivyeshtailor/finance-management/internal/export"
	"github.com/iamdivyeshtailor/finance-management/internal/importer"
	"github.com/iamdivyeshtailor/finance-management/internal/log"
	"github.com/iamdivyeshtailor/finance-management/internal/services"
)

type opener func(ctx context.Context) (*app, error)

type periodFlags struct {
	month int
	year  int
}

func (p *periodFlags) register(cmd *cobra.Command) {
	now := time.Now()
	cmd.Flags().IntVar(&p.month, "month", int(now.Month()), "Cycle start month (1-12)")
	cmd.Flags().IntVar(&p.year, "year", now.Year(), "Cycle start year")
}

// newRootCmd builds the command tree. The app is opened once before any
// subcommand runs; the returned func closes it.
func newRootCmd(open opener) (*cobra.Command, func()) {
	var a *app

	root := &cobra.Command{
		Use:          "budgetctl",
		Short:        "Inspect budgets and import bank statements from the command line",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			a, err = open(cmd.Context())
			return err
		},
	}
	get := func() *app { return a }
	cleanup := func() {
		if a == nil {
			return
		}
		if err := a.Close(); err != nil {
			a.logger.Warn("Failed to close backend", log.FieldError, err)
		}
	}

	root.AddCommand(
		newReportCmd(get),
		newHistoryCmd(get),
		newImportCmd(get),
		newExportCmd(get),
	)
	return root, cleanup
}

func newReportCmd(get func() *app) *cobra.Command {
	var (
		period periodFlags
		asCSV  bool
		pdfOut string
		sheet  bool
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the budget report of a salary cycle",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			rep, err := a.budget.Monthly(cmd.Context(), period.month, period.year)
			if err != nil {
				return err
			}
			if sheet {
				if a.sheet == nil {
					return errors.New("google sheets is not configured")
				}
				ref, err := a.sheet.WriteReport(cmd.Context(), rep)
				if err != nil {
					return fmt.Errorf("write report sheet: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", ref)
				return nil
			}
			if pdfOut != "" {
				f, err := os.Create(pdfOut)
				if err != nil {
					return err
				}
				if err := export.WriteReportPDF(f, rep); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", pdfOut)
				return nil
			}
			if asCSV {
				return export.WriteReport(cmd.OutOrStdout(), rep)
			}
			return printTable(cmd.OutOrStdout(), export.ReportTable(rep))
		},
	}
	period.register(cmd)
	cmd.Flags().BoolVar(&asCSV, "csv", false, "Write CSV instead of a table")
	cmd.Flags().StringVar(&pdfOut, "pdf", "", "Write the report as a PDF to this file")
	cmd.Flags().BoolVar(&sheet, "sheet", false, "Write the report to its Google Sheets tab")
	return cmd
}

func newHistoryCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List spending and savings of every closed cycle",
		RunE: func(cmd *cobra.Command, _ []string) error {
			points, err := get().budget.Trend(cmd.Context())
			if err != nil {
				return err
			}
			table := [][]string{{"Cycle", "Spent", "Saved"}}
			for _, p := range points {
				table = append(table, []string{
					fmt.Sprintf("%d/%d", p.Month, p.Year),
					p.TotalSpent.String(),
					p.TotalSavings.String(),
				})
			}
			return printTable(cmd.OutOrStdout(), table)
		},
	}
}

func newImportCmd(get func() *app) *cobra.Command {
	var (
		debitsOnly bool
		dryRun     bool
	)
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Parse a CSV or PDF bank statement and save its transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			view, err := a.imports.Parse(cmd.Context(), data, args[0])
			if err != nil {
				return err
			}
			if debitsOnly {
				if view, err = deselectCredits(a.imports, view.ID); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Parsed %d transactions (%d debits, %d credits), %d selected totalling %s\n",
				view.Summary.Total, view.Summary.Debits, view.Summary.Credits,
				view.Summary.Selected, view.SelectedTotal)
			if dryRun {
				return printBatch(out, view)
			}

			res, err := a.imports.Commit(cmd.Context(), view.ID)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, res.Message)
			return nil
		},
	}
	cmd.Flags().BoolVar(&debitsOnly, "debits-only", false, "Skip credit rows such as salary or refunds")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the parsed rows without saving")
	return cmd
}

func deselectCredits(imports *services.ImportService, id string) (services.BatchView, error) {
	if _, err := imports.SetFilter(id, importer.FilterCredit); err != nil {
		return services.BatchView{}, err
	}
	if _, err := imports.DeselectAll(id); err != nil {
		return services.BatchView{}, err
	}
	return imports.SetFilter(id, importer.FilterAll)
}

func newExportCmd(get func() *app) *cobra.Command {
	var (
		period periodFlags
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the expenses of a calendar month as CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := get().expenses.List(cmd.Context(), period.month, period.year)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				return export.WriteExpenses(cmd.OutOrStdout(), list)
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := export.WriteExpenses(f, list); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d expenses to %s\n", len(list), output)
			return nil
		},
	}
	period.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func printBatch(w io.Writer, view services.BatchView) error {
	table := [][]string{{"#", "Date", "Description", "Amount", "Type", "Category", "Selected"}}
	for _, row := range view.Transactions {
		sel := ""
		if row.Selected {
			sel = "x"
		}
		table = append(table, []string{
			fmt.Sprint(row.Index), row.Date.String(), row.Description,
			row.Amount.String(), string(row.Type), row.Category, sel,
		})
	}
	return printTable(w, table)
}

func printTable(w io.Writer, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, row := range rows {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

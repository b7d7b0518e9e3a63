package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/services"
)

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show totals, top categories, recent transactions and budgets",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
			d, err := services.NewDashboardService(a.store.Repository, a.opts).Dashboard(ctx, flagUser)
			if err != nil {
				return err
			}
			fmt.Println(cli.RenderSummary(d.Summary, a.opts.Location))
			fmt.Println(cli.RenderBudgets("Budgets", d.Budgets))
			return nil
		}),
	}
}

func newBudgetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "budgets",
		Short: "List every budget with its computed spend",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
			groups, err := services.NewBudgetService(a.store.Repository, a.opts).List(ctx, flagUser)
			if err != nil {
				return err
			}
			fmt.Println(cli.RenderBudgets("Overall budgets", groups.Overall))
			fmt.Println(cli.RenderBudgets("Category budgets", groups.Category))
			return nil
		}),
	}
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE.csv",
		Short: "Import transactions from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			svc := services.NewTransactionService(a.store.Repository, nil, a.opts.Location)
			res, err := svc.Import(ctx, flagUser, f, nil)
			for _, row := range res.Rejected {
				fmt.Fprintf(os.Stderr, "  skipped %v\n", row)
			}
			if err != nil {
				return err
			}
			fmt.Printf("Imported %d transaction(s), skipped %d row(s)\n", len(res.Imported), len(res.Rejected))
			return nil
		}),
	}
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write the user's transactions as CSV to stdout",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
			svc := services.NewTransactionService(a.store.Repository, nil, a.opts.Location)
			return svc.Export(ctx, flagUser, os.Stdout)
		}),
	}
}

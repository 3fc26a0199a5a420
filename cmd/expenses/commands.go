package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"expenses/internal/cli"
	"expenses/internal/client"
	"expenses/internal/config"
	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/tracker"
)

const currency = "COP"

// app carries what every command needs. api is set by tests; otherwise it
// is built from the --api flag.
type app struct {
	cfg     *config.Config
	out     io.Writer
	errOut  io.Writer
	api     client.API
	tracker *tracker.Tracker

	apiURL   string
	budget   string
	timeout  time.Duration
	logLevel string
}

// expenseFlags are the fields shared by add and edit.
type expenseFlags struct {
	description string
	amount      string
	category    string
	date        string
}

func (f *expenseFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.description, "description", "d", "", "What the money was spent on")
	fl.StringVarP(&f.amount, "amount", "a", "", "Amount in whole "+currency)
	fl.StringVarP(&f.category, "category", "c", "", "One of the fixed categories (default Miscellaneous)")
	fl.StringVar(&f.date, "date", "", "Date as D/M/YYYY or YYYY-MM-DD (default today)")
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "expenses",
		Short:        "Record, edit and total expenses against a budget",
		SilenceUsage: true,
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.apiURL, "api", a.cfg.APIBaseURL, "Base URL of the expenses REST API")
	pf.StringVar(&a.budget, "budget", a.cfg.Budget, "Budget the total is compared against")
	pf.DurationVar(&a.timeout, "timeout", a.cfg.RequestTimeout, "Per-request timeout")
	pf.StringVar(&a.logLevel, "log-level", "warn", "Log level written to stderr")

	root.AddCommand(
		a.listCmd(),
		a.addCmd(),
		a.editCmd(),
		a.deleteCmd(),
		a.totalCmd(),
		a.summaryCmd(),
	)
	return root
}

// loaded wraps a command body so it runs against a freshly loaded list.
// Help and completion never reach the backend.
func (a *app) loaded(run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.setup(cmd.Context()); err != nil {
			return err
		}
		return run(cmd, args)
	}
}

func (a *app) setup(ctx context.Context) error {
	logCfg := *a.cfg
	logCfg.LogLevel = a.logLevel
	logger := cli.SetupLogger(&logCfg, log.ComponentCLI, a.errOut)

	budget, err := core.ParseBudget(a.budget)
	if err != nil {
		return fmt.Errorf("budget %q: %w", a.budget, err)
	}

	if a.api == nil {
		c, err := client.New(a.apiURL, client.WithTimeout(a.timeout))
		if err != nil {
			return err
		}
		a.api = c
	}

	a.tracker = tracker.New(a.api, tracker.WithLogger(logger), tracker.WithBudget(budget))
	if err := a.tracker.Load(ctx); err != nil {
		return fmt.Errorf("load expenses: %w", err)
	}
	return nil
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List expenses with their row numbers",
		Args:  cobra.NoArgs,
		RunE: a.loaded(func(cmd *cobra.Command, args []string) error {
			items := a.tracker.Items()
			if len(items) == 0 {
				fmt.Fprintln(a.out, "Nothing here for now.")
				return nil
			}
			tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "#\tDate\tDescription\tCategory\tAmount\t")
			for i, e := range items {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t\n", i+1, e.Date, e.Description, e.Category, e.Amount.Format())
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Total: %s %s\n", a.tracker.Total().Format(), currency)
			return nil
		}),
	}
}

func (a *app) addCmd() *cobra.Command {
	var f expenseFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an expense",
		Args:  cobra.NoArgs,
		RunE: a.loaded(func(cmd *cobra.Command, args []string) error {
			created, err := a.tracker.Add(cmd.Context(), core.Draft{
				Description: f.description,
				Amount:      f.amount,
				Category:    f.category,
				Date:        f.date,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Added #%d: %s\n", len(a.tracker.Items()), formatRow(created))
			fmt.Fprintf(a.out, "Total: %s %s\n", a.tracker.Total().Format(), currency)
			return nil
		}),
	}
	f.register(cmd)
	return cmd
}

func (a *app) editCmd() *cobra.Command {
	var f expenseFlags
	cmd := &cobra.Command{
		Use:   "edit <n>",
		Short: "Edit expense n; fields left out keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: a.loaded(func(cmd *cobra.Command, args []string) error {
			i, err := a.row(args[0])
			if err != nil {
				return err
			}
			before, err := a.tracker.At(i)
			if err != nil {
				return err
			}

			d := core.DraftFrom(before)
			changed := cmd.Flags().Changed
			if changed("description") {
				d.Description = f.description
			}
			if changed("amount") {
				d.Amount = f.amount
			}
			if changed("category") {
				d.Category = f.category
			}
			if changed("date") {
				d.Date = f.date
			}

			after, err := a.tracker.Edit(cmd.Context(), i, d)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Edited #%d: %s\n", i+1, rowDiff(formatRow(before), formatRow(after)))
			fmt.Fprintf(a.out, "Total: %s %s\n", a.tracker.Total().Format(), currency)
			return nil
		}),
	}
	f.register(cmd)
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <n>",
		Aliases: []string{"rm"},
		Short:   "Delete expense n",
		Args:    cobra.ExactArgs(1),
		RunE: a.loaded(func(cmd *cobra.Command, args []string) error {
			i, err := a.row(args[0])
			if err != nil {
				return err
			}
			removed, err := a.tracker.Delete(cmd.Context(), i)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted #%d: %s\n", i+1, formatRow(removed))
			fmt.Fprintf(a.out, "Total: %s %s\n", a.tracker.Total().Format(), currency)
			return nil
		}),
	}
}

func (a *app) totalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "total",
		Short: "Print the sum of all expenses",
		Args:  cobra.NoArgs,
		RunE: a.loaded(func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(a.out, "%s %s\n", a.tracker.Total().Format(), currency)
			return nil
		}),
	}
}

func (a *app) summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print total, budget, balance and totals per category",
		Args:  cobra.NoArgs,
		RunE: a.loaded(func(cmd *cobra.Command, args []string) error {
			s := a.tracker.Summary()
			fmt.Fprintf(a.out, "%s recorded\n", humanize.Plural(s.Count, "expense", "expenses"))
			fmt.Fprintf(a.out, "Total:   %s %s\n", s.Total.Format(), currency)
			fmt.Fprintf(a.out, "Budget:  %s %s\n", s.Budget.Format(), currency)
			fmt.Fprintf(a.out, "Balance: %s %s", s.Balance.Format(), currency)
			if s.OverBudget {
				fmt.Fprint(a.out, " (over budget)")
			}
			fmt.Fprintln(a.out)

			if len(s.ByCategory) == 0 {
				return nil
			}
			tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', tabwriter.AlignRight)
			for _, c := range s.ByCategory {
				fmt.Fprintf(tw, "  %s\t%s\t\n", c.Category, c.Amount.Format())
			}
			return tw.Flush()
		}),
	}
}

// row converts a 1-based row number from the command line to a list index.
func (a *app) row(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	count := len(a.tracker.Items())
	if err != nil || n < 1 || n > count {
		if count == 0 {
			return 0, fmt.Errorf("row %q: the list is empty", arg)
		}
		return 0, fmt.Errorf("row %q: must be a number between 1 and %d", arg, count)
	}
	return n - 1, nil
}

func formatRow(e core.Expense) string {
	return fmt.Sprintf("%s | %s | %s | %s %s", e.Date, e.Description, e.Category, e.Amount.Format(), currency)
}

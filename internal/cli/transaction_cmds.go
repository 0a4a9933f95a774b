package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"easyfinances/internal/core"
	"easyfinances/internal/services"
)

// txFlags are the transaction fields shared by add and edit.
type txFlags struct {
	description string
	amount      string
	date        string
	category    int64
	account     int64
}

func (f *txFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "Description")
	cmd.Flags().StringVarP(&f.amount, "amount", "a", "", "Amount, e.g. 1500.00")
	cmd.Flags().StringVar(&f.date, "date", "", "Date as YYYY-MM-DD")
	cmd.Flags().Int64VarP(&f.category, "category", "c", 0, "Category id")
	cmd.Flags().Int64Var(&f.account, "account", 0, "Account id")
}

// apply overwrites the fields of in whose flags were set.
func (f *txFlags) apply(cmd *cobra.Command, in core.TransactionInput) (core.TransactionInput, error) {
	flags := cmd.Flags()
	if flags.Changed("description") {
		in.Description = f.description
	}
	if flags.Changed("amount") {
		m, err := core.ParseMoney(f.amount)
		if err != nil {
			return in, fmt.Errorf("--amount: %w", err)
		}
		in.Amount = m
	}
	if flags.Changed("date") {
		d, err := core.ParseDate(f.date)
		if err != nil {
			return in, fmt.Errorf("--date: %w", err)
		}
		in.Date = d
	}
	if flags.Changed("category") {
		in.Category = f.category
	}
	if flags.Changed("account") {
		in.Account = f.account
	}
	return in, nil
}

func (r *runner) transactionsCmd() *cobra.Command {
	var (
		page              int
		search, kind      string
		account, category int64
		start, end        string
	)
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"ls"},
		Short:   "List transactions, optionally filtered",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := services.TransactionFilter{
				Search:   search,
				Account:  account,
				Category: category,
				Kind:     core.Kind(kind),
			}
			var err error
			if start != "" {
				if f.Start, err = core.ParseDate(start); err != nil {
					return fmt.Errorf("--start: %w", err)
				}
			}
			if end != "" {
				if f.End, err = core.ParseDate(end); err != nil {
					return fmt.Errorf("--end: %w", err)
				}
			}

			app, err := r.open(cmd.Context())
			if err != nil {
				return err
			}
			p, err := app.Transactions.Search(cmd.Context(), page, f)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := writeTransactions(out, p.Results); err != nil {
				return err
			}
			fmt.Fprintf(out, "%d transaction(s)", p.Count)
			if p.HasNext() {
				fmt.Fprintf(out, ", more on page %d", page+1)
			}
			fmt.Fprintln(out)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Substring of the description")
	cmd.Flags().Int64Var(&account, "account", 0, "Account id")
	cmd.Flags().Int64VarP(&category, "category", "c", 0, "Category id")
	cmd.Flags().StringVarP(&kind, "type", "t", "", "income or expense")
	cmd.Flags().StringVar(&start, "start", "", "First date, YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "Last date, YYYY-MM-DD")
	return cmd
}

func (r *runner) addCmd() *cobra.Command {
	var (
		fields    txFlags
		recurring bool
		endDate   string
		dryRun    bool
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a transaction, optionally repeating monthly",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := fields.apply(cmd, core.TransactionInput{})
			if err != nil {
				return err
			}
			in.IsRecurring = recurring
			if endDate != "" {
				d, err := core.ParseDate(endDate)
				if err != nil {
					return fmt.Errorf("--end: %w", err)
				}
				in.RecurrenceEndDate = &d
			}

			app, err := r.open(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if dryRun {
				plan, err := app.Transactions.Preview(in)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Would create %d occurrence(s):\n", len(plan.Occurrences))
				for _, o := range plan.Occurrences {
					fmt.Fprintf(out, "  %s\n", o.Date)
				}
				return nil
			}

			created, err := app.Transactions.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Created transaction %d\n", created.ID)
			return nil
		},
	}
	fields.bind(cmd)
	cmd.Flags().BoolVar(&recurring, "recurring", false, "Repeat monthly")
	cmd.Flags().StringVar(&endDate, "end", "", "Last date of a recurring series (default: 24 months ahead)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the dates that would be created without saving")
	for _, name := range []string{"description", "amount", "date", "category", "account"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (r *runner) editCmd() *cobra.Command {
	var (
		fields        txFlags
		applyToFuture bool
	)
	cmd := &cobra.Command{
		Use:   "edit <transaction-id>",
		Short: "Edit a transaction, or it and the rest of its series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			app, err := r.open(cmd.Context())
			if err != nil {
				return err
			}
			current, err := app.Transactions.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			in, err := fields.apply(cmd, current.Input())
			if err != nil {
				return err
			}
			updated, err := app.Transactions.Update(cmd.Context(), id, in, applyToFuture)
			if err != nil {
				return err
			}

			scope := "this occurrence"
			if applyToFuture {
				scope = "this and later occurrences"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated transaction %d (%s)\n", updated.ID, scope)
			return nil
		},
	}
	fields.bind(cmd)
	cmd.Flags().BoolVar(&applyToFuture, "apply-to-future", false, "Also update later occurrences of the series")
	return cmd
}

func (r *runner) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <transaction-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a transaction",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			app, err := r.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := app.Transactions.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted transaction %d\n", id)
			return nil
		},
	}
}

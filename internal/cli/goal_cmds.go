package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"easyfinances/internal/core"
	"easyfinances/internal/services"
)

func (r *runner) goalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goals",
		Short: "Spending limits and saving goals",
	}
	cmd.AddCommand(r.goalsListCmd(), r.goalsCreateCmd(), r.goalsProgressCmd())
	return cmd
}

func (r *runner) goalsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List goals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := r.open(cmd.Context())
			if err != nil {
				return err
			}
			goals, err := app.Goals.List(cmd.Context())
			if err != nil {
				return err
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNAME\tTYPE\tTARGET\tPERIOD\tDETAIL")
			for _, g := range goals {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s..%s\t%s\n",
					g.ID, g.Name, g.Type(), g.TargetAmount, g.StartDate, g.EndDate, goalDetail(g))
			}
			return tw.Flush()
		},
	}
}

func goalDetail(g core.Goal) string {
	switch s := g.Spec.(type) {
	case core.SpendingLimit:
		return fmt.Sprintf("category %d", s.Category)
	case core.SavingGoal:
		return fmt.Sprintf("saved %s", s.CurrentAmount)
	default:
		return ""
	}
}

func (r *runner) goalsCreateCmd() *cobra.Command {
	var (
		req                           services.GoalRequest
		kind, target, start, end, cur string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a spending limit or a saving goal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			req.Type = core.GoalType(kind)
			if req.TargetAmount, err = core.ParseMoney(target); err != nil {
				return fmt.Errorf("--target: %w", err)
			}
			if req.StartDate, err = core.ParseDate(start); err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			if req.EndDate, err = core.ParseDate(end); err != nil {
				return fmt.Errorf("--end: %w", err)
			}
			if cur != "" {
				if req.CurrentAmount, err = core.ParseMoney(cur); err != nil {
					return fmt.Errorf("--current: %w", err)
				}
			}

			app, err := r.open(cmd.Context())
			if err != nil {
				return err
			}
			g, err := app.Goals.Create(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created goal %d\n", g.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&req.Name, "name", "n", "", "Goal name (required)")
	cmd.Flags().StringVarP(&kind, "type", "t", string(core.GoalSaving), "spending_limit or saving_goal")
	cmd.Flags().StringVar(&target, "target", "", "Target amount (required)")
	cmd.Flags().StringVar(&start, "start", "", "Start date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&end, "end", "", "End date, YYYY-MM-DD (required)")
	cmd.Flags().Int64VarP(&req.Category, "category", "c", 0, "Category of a spending limit")
	cmd.Flags().StringVar(&cur, "current", "", "Amount already saved")
	for _, name := range []string{"name", "target", "start", "end"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (r *runner) goalsProgressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "progress <goal-id> <amount>",
		Short: "Add money to a saving goal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			amount, err := core.ParseMoney(args[1])
			if err != nil {
				return err
			}
			app, err := r.open(cmd.Context())
			if err != nil {
				return err
			}
			g, err := app.Goals.AddProgress(cmd.Context(), id, amount)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Goal %d: %s\n", g.ID, goalDetail(g))
			return nil
		},
	}
}

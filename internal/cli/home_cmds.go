package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"easyfinances/internal/core"
	"easyfinances/internal/services"
)

func (r *runner) loginCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := r.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := app.Session.Login(cmd.Context(), username, password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username (required)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (required)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (r *runner) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the access token and re-arm the due reminder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := r.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := app.Session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func (r *runner) upcomingCmd() *cobra.Command {
	var day string
	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "List transactions due in the upcoming window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := r.open(cmd.Context())
			if err != nil {
				return err
			}
			today, err := r.todayFor(app)
			if err != nil {
				return err
			}

			var items []services.UpcomingItem
			if day == "" {
				items, err = app.Home.Upcoming(cmd.Context(), today)
			} else {
				var d core.Date
				if d, err = core.ParseDate(day); err != nil {
					return fmt.Errorf("--day: %w", err)
				}
				var view services.HomeView
				view, err = app.Home.Build(cmd.Context(), today, &d)
				items = view.Upcoming
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "Nothing due in the upcoming window")
				return nil
			}
			tw := newTable(out)
			fmt.Fprintln(tw, "ID\tDATE\tDESCRIPTION\tAMOUNT\tDUE")
			for _, it := range items {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", it.ID, it.Date, it.Description, it.Amount, it.DueLabel)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "Only show transactions on this date (YYYY-MM-DD)")
	return cmd
}

func (r *runner) notificationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notifications",
		Short: "Show expenses due today and tomorrow that are not yet paid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := r.open(cmd.Context())
			if err != nil {
				return err
			}
			today, err := r.todayFor(app)
			if err != nil {
				return err
			}
			due, show, err := app.Home.Notifications(cmd.Context(), today)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if show {
				fmt.Fprintln(out, "Reminder: you have bills to pay")
			}
			writeDue(out, "Due today", due.DueToday)
			writeDue(out, "Due tomorrow", due.DueTomorrow)
			return nil
		},
	}
}

func writeDue(w io.Writer, title string, txs []core.Transaction) {
	fmt.Fprintf(w, "%s:\n", title)
	if len(txs) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, t := range txs {
		fmt.Fprintf(w, "  #%d %s %s\n", t.ID, t.Description, t.Amount)
	}
}

func (r *runner) paidCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paid <transaction-id>",
		Short: "Mark a due notification as paid",
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
			today, err := r.todayFor(app)
			if err != nil {
				return err
			}
			remaining, err := app.Home.MarkAsPaid(cmd.Context(), today, id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Transaction %d marked as paid\n", id)
			writeDue(out, "Still due today", remaining.DueToday)
			writeDue(out, "Still due tomorrow", remaining.DueTomorrow)
			return nil
		},
	}
}

func (r *runner) dismissCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss",
		Short: "Silence the due reminder until the next login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := r.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := app.Reconciler.Dismiss(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Reminder dismissed")
			return nil
		},
	}
}

func (r *runner) calendarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "calendar [year month]",
		Short: "Show a month with income, expense and holiday markers",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("expected no arguments or <year> <month>, got %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.open(cmd.Context())
			if err != nil {
				return err
			}
			today, err := r.todayFor(app)
			if err != nil {
				return err
			}
			year, month := today.Year(), today.Month()
			if len(args) == 2 {
				if year, err = strconv.Atoi(args[0]); err != nil {
					return fmt.Errorf("invalid year %q", args[0])
				}
				if month, err = strconv.Atoi(args[1]); err != nil {
					return fmt.Errorf("invalid month %q", args[1])
				}
			}

			view, err := app.Home.Month(cmd.Context(), year, month, today)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%04d-%02d\n", view.Year, view.Month)
			if view.HolidaysUnavailable {
				fmt.Fprintln(out, "(holidays unavailable)")
			}
			for _, d := range view.Days {
				var marks []string
				if d.HasIncome {
					marks = append(marks, "income")
				}
				if d.HasExpense {
					marks = append(marks, "expense")
				}
				for _, h := range d.Holidays {
					marks = append(marks, h.Name)
				}
				if len(marks) > 0 {
					fmt.Fprintf(out, "%s  %s\n", d.Date, strings.Join(marks, ", "))
				}
			}
			return nil
		},
	}
}

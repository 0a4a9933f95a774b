package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"easyfinances/internal/core"
)

// Loader opens the App a command runs against. It is called once, before
// the first command that needs it.
type Loader func(ctx context.Context) (*App, error)

type runner struct {
	load  Loader
	app   *App
	today string
}

// NewRootCommand returns the finctl command tree.
func NewRootCommand(load Loader) *cobra.Command {
	r := &runner{load: load}

	cmd := &cobra.Command{
		Use:   "finctl",
		Short: "Personal finances from the terminal",
		Long: `finctl manages transactions, due reminders and goals against the
EasyFinances backend, or against the offline in-memory backend when
DATA_BACKEND=memory.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&r.today, "today", "", "Reference date as YYYY-MM-DD (default: current date)")

	cmd.AddCommand(
		r.loginCmd(),
		r.logoutCmd(),
		r.upcomingCmd(),
		r.notificationsCmd(),
		r.paidCmd(),
		r.dismissCmd(),
		r.calendarCmd(),
		r.transactionsCmd(),
		r.addCmd(),
		r.editCmd(),
		r.deleteCmd(),
		r.goalsCmd(),
	)
	return cmd
}

func (r *runner) open(ctx context.Context) (*App, error) {
	if r.app != nil {
		return r.app, nil
	}
	app, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	r.app = app
	return app, nil
}

// todayFor resolves --today against the app clock.
func (r *runner) todayFor(app *App) (core.Date, error) {
	if r.today == "" {
		return app.Today(), nil
	}
	d, err := core.ParseDate(r.today)
	if err != nil {
		return core.Date{}, fmt.Errorf("--today: %w", err)
	}
	return d, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func writeTransactions(w io.Writer, txs []core.Transaction) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tDATE\tDESCRIPTION\tAMOUNT\tTYPE\tCATEGORY\tSERIES")
	for _, t := range txs {
		series := "-"
		if id := t.SeriesID(); id != 0 {
			series = strconv.FormatInt(id, 10)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Date, t.Description, t.Amount, t.Kind, t.CategoryName, series)
	}
	return tw.Flush()
}

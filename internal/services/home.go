package services

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"easyfinances/internal/core"
	"easyfinances/internal/errs"
	"easyfinances/internal/holidays"
	"easyfinances/internal/log"
	"easyfinances/internal/ports"
)

// UpcomingItem is a window entry with its due phrasing.
type UpcomingItem struct {
	core.Transaction
	DueIn    int    `json:"due_in"`
	DueLabel string `json:"due_label"`
}

// HomeView is everything the home screen renders. Read failures become
// flags with empty lists, never partial data.
type HomeView struct {
	Today         core.Date          `json:"today"`
	Summary       *core.Summary      `json:"summary"`
	ExpenseChart  core.ExpenseChart  `json:"expense_chart"`
	Upcoming      []UpcomingItem     `json:"upcoming"`
	SelectedDay   *core.Date         `json:"selected_day,omitempty"`
	Calendar      MonthView          `json:"calendar"`
	Notifications core.Notifications `json:"notifications"`
	ShowPopup     bool               `json:"show_popup"`

	DashboardUnavailable    bool `json:"dashboard_unavailable"`
	TransactionsUnavailable bool `json:"transactions_unavailable"`
}

// HomeService assembles the home view from the dashboard, the full
// transaction list and the holiday source, fetched concurrently.
type HomeService struct {
	dashboard  ports.DashboardReader
	txs        *TransactionService
	holidays   ports.HolidaySource
	reconciler *NotificationReconciler
	window     Window
}

func NewHomeService(dashboard ports.DashboardReader, txs *TransactionService, hs ports.HolidaySource, reconciler *NotificationReconciler, window Window) *HomeService {
	if hs == nil {
		hs = holidays.None{}
	}
	return &HomeService{
		dashboard:  dashboard,
		txs:        txs,
		holidays:   hs,
		reconciler: reconciler,
		window:     window,
	}
}

type homeData struct {
	dash        core.Dashboard
	dashErr     error
	all         []core.Transaction
	allErr      error
	holidays    []core.Holiday
	holidaysErr error
}

func (s *HomeService) fetch(ctx context.Context, years ...int) homeData {
	var (
		d  homeData
		mu sync.Mutex
		g  errgroup.Group
	)
	g.Go(func() error {
		dash, err := s.dashboard.Dashboard(ctx)
		mu.Lock()
		d.dash, d.dashErr = dash, err
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		all, err := s.txs.All(ctx)
		mu.Lock()
		d.all, d.allErr = all, err
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		hs, err := holidays.ForYears(ctx, s.holidays, years...)
		mu.Lock()
		d.holidays, d.holidaysErr = hs, err
		mu.Unlock()
		return nil
	})
	_ = g.Wait()

	for name, err := range map[string]error{"dashboard": d.dashErr, "transactions": d.allErr, "holidays": d.holidaysErr} {
		if err != nil {
			slog.WarnContext(ctx, "Home read failed", "source", name, "error", err)
		}
	}
	return d
}

// Build computes the home view for today. day, when set, restricts the
// upcoming list to that day.
func (s *HomeService) Build(ctx context.Context, today core.Date, day *core.Date) (HomeView, error) {
	d := s.fetch(ctx, today.Year(), today.AddDays(s.window.days()).Year())

	// an expired token must reach the caller so it can log in again
	for _, err := range []error{d.dashErr, d.allErr} {
		if errs.IsUnauthorized(err) {
			return HomeView{}, err
		}
	}

	view := HomeView{
		Today:                   today,
		Upcoming:                []UpcomingItem{},
		Notifications:           core.Notifications{DueToday: []core.Transaction{}, DueTomorrow: []core.Transaction{}},
		DashboardUnavailable:    d.dashErr != nil,
		TransactionsUnavailable: d.allErr != nil,
	}
	if d.dashErr == nil {
		summary := d.dash.Summary
		view.Summary = &summary
		view.ExpenseChart = d.dash.ExpenseChart
	}

	var source []core.Transaction
	switch {
	case d.allErr == nil:
		source = d.all
	case d.dashErr == nil:
		source = d.dash.Upcoming
	}
	upcoming := s.window.Filter(source, today)

	view.Calendar = MonthView{
		Year:                today.Year(),
		Month:               today.Month(),
		Days:                BuildMonth(today.Year(), today.Month(), upcoming, d.holidays),
		HolidaysUnavailable: d.holidaysErr != nil,
	}

	listed := upcoming
	if day != nil && !day.IsZero() {
		selected := *day
		view.SelectedDay = &selected
		listed = FilterByDay(upcoming, selected)
	}
	for _, t := range listed {
		view.Upcoming = append(view.Upcoming, UpcomingItem{Transaction: t, DueIn: DueIn(t, today), DueLabel: DueLabel(t, today)})
	}

	due, ok := s.dueLists(d, today)
	if ok {
		visible, err := s.reconciler.Visible(ctx, due)
		if err != nil {
			return HomeView{}, err
		}
		view.Notifications = visible
		show, err := s.reconciler.Evaluate(ctx, visible)
		if err != nil {
			return HomeView{}, err
		}
		view.ShowPopup = show
	}
	return view, nil
}

// dueLists prefers the dashboard's lists and falls back to deriving them
// from the transaction list. ok is false when neither source answered.
func (s *HomeService) dueLists(d homeData, today core.Date) (core.Notifications, bool) {
	if d.dashErr == nil && (d.dash.Notifications.DueToday != nil || d.dash.Notifications.DueTomorrow != nil) {
		return d.dash.Notifications, true
	}
	if d.allErr == nil {
		return DueFromTransactions(d.all, today), true
	}
	return core.Notifications{}, false
}

// Upcoming returns the labelled window for today.
func (s *HomeService) Upcoming(ctx context.Context, today core.Date) ([]UpcomingItem, error) {
	all, err := s.txs.All(ctx)
	if err != nil {
		return nil, err
	}
	items := []UpcomingItem{}
	for _, t := range s.window.Filter(all, today) {
		items = append(items, UpcomingItem{Transaction: t, DueIn: DueIn(t, today), DueLabel: DueLabel(t, today)})
	}
	return items, nil
}

// Month builds the calendar of any month from the window seen from today.
// A holiday failure only sets the flag.
func (s *HomeService) Month(ctx context.Context, year, month int, today core.Date) (MonthView, error) {
	if month < 1 || month > 12 {
		return MonthView{}, errs.NewValidationError("month must be between 1 and 12")
	}
	all, err := s.txs.All(ctx)
	if err != nil {
		return MonthView{}, err
	}
	view := MonthView{Year: year, Month: month}
	hs, err := s.holidays.Holidays(ctx, year)
	if err != nil {
		slog.WarnContext(ctx, "Holidays unavailable", log.FieldYear, year, log.FieldMonth, month, log.FieldError, err)
		view.HolidaysUnavailable = true
		hs = nil
	}
	view.Days = BuildMonth(year, month, s.window.Filter(all, today), hs)
	return view, nil
}

// Notifications returns the reconciled due lists and the popup decision.
func (s *HomeService) Notifications(ctx context.Context, today core.Date) (core.Notifications, bool, error) {
	due, err := s.due(ctx, today)
	if err != nil {
		return core.Notifications{}, false, err
	}
	visible, err := s.reconciler.Visible(ctx, due)
	if err != nil {
		return core.Notifications{}, false, err
	}
	show, err := s.reconciler.Evaluate(ctx, visible)
	if err != nil {
		return core.Notifications{}, false, err
	}
	return visible, show, nil
}

// MarkAsPaid acknowledges id and returns the remaining visible lists. When
// this process has not computed them yet they are loaded first; a failed
// load leaves the acknowledgement in place and returns empty lists.
func (s *HomeService) MarkAsPaid(ctx context.Context, today core.Date, id int64) (core.Notifications, error) {
	if !s.reconciler.HasView() {
		due, err := s.due(ctx, today)
		if err != nil {
			slog.WarnContext(ctx, "Due lists unavailable before mark as paid", log.FieldTransactionID, id, log.FieldError, err)
		} else if _, err := s.reconciler.Visible(ctx, due); err != nil {
			return core.Notifications{}, err
		}
	}
	return s.reconciler.MarkAsPaid(ctx, id)
}

func (s *HomeService) due(ctx context.Context, today core.Date) (core.Notifications, error) {
	d := homeData{}
	d.dash, d.dashErr = s.dashboard.Dashboard(ctx)
	if d.dashErr != nil || (d.dash.Notifications.DueToday == nil && d.dash.Notifications.DueTomorrow == nil) {
		d.all, d.allErr = s.txs.All(ctx)
	}
	due, ok := s.dueLists(d, today)
	if !ok {
		if d.dashErr != nil {
			return core.Notifications{}, d.dashErr
		}
		return core.Notifications{}, d.allErr
	}
	return due, nil
}

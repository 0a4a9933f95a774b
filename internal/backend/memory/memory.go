// Package memory is an in-process stand-in for the REST backend, used by
// the offline mode of the binaries and by tests. It materialises recurring
// series and fans out series edits the way the backend contract describes.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"easyfinances/internal/core"
	"easyfinances/internal/errs"
	"easyfinances/internal/ports"
	"easyfinances/internal/recurrence"
)

const (
	DefaultPageSize = 10
	upcomingLimit   = 4
)

type Backend struct {
	mu         sync.Mutex
	nextID     int64
	pageSize   int
	today      func() core.Date
	expander   *recurrence.Expander
	categories map[int64]core.Category
	accounts   map[int64]core.Account
	txs        map[int64]core.Transaction
	goals      map[int64]core.Goal
	token      string
}

var (
	_ ports.TransactionSource = (*Backend)(nil)
	_ ports.TransactionWriter = (*Backend)(nil)
	_ ports.DashboardReader   = (*Backend)(nil)
	_ ports.CatalogReader     = (*Backend)(nil)
	_ ports.GoalStore         = (*Backend)(nil)
	_ ports.Authenticator     = (*Backend)(nil)
)

// Option customises a Backend.
type Option func(*Backend)

// WithClock fixes "today", for tests.
func WithClock(today func() core.Date) Option {
	return func(b *Backend) { b.today = today }
}

func WithPageSize(n int) Option {
	return func(b *Backend) {
		if n > 0 {
			b.pageSize = n
		}
	}
}

func WithExpander(e *recurrence.Expander) Option {
	return func(b *Backend) { b.expander = e }
}

func New(categories []core.Category, accounts []core.Account, opts ...Option) *Backend {
	b := &Backend{
		pageSize:   DefaultPageSize,
		today:      core.Today,
		expander:   recurrence.NewExpander(recurrence.DefaultHorizonMonths),
		categories: map[int64]core.Category{},
		accounts:   map[int64]core.Account{},
		txs:        map[int64]core.Transaction{},
		goals:      map[int64]core.Goal{},
	}
	for _, opt := range opts {
		opt(b)
	}
	for _, c := range categories {
		b.categories[c.ID] = c
		b.bumpID(c.ID)
	}
	for _, a := range accounts {
		if a.Type == "" {
			a.Type = core.DefaultAccountType
		}
		b.accounts[a.ID] = a
		b.bumpID(a.ID)
	}
	return b
}

// NewSeeded returns a backend with a small default catalog.
func NewSeeded(opts ...Option) *Backend {
	return New(
		[]core.Category{
			{ID: 1, Name: "Salário", Type: core.Income},
			{ID: 2, Name: "Moradia", Type: core.Expense},
			{ID: 3, Name: "Alimentação", Type: core.Expense},
			{ID: 4, Name: "Transporte", Type: core.Expense},
		},
		[]core.Account{{ID: 1, Name: "Carteira", Balance: core.Money{}}},
		opts...,
	)
}

func (b *Backend) bumpID(id int64) {
	if id > b.nextID {
		b.nextID = id
	}
}

func (b *Backend) newID() int64 {
	b.nextID++
	return b.nextID
}

func (b *Backend) Login(_ context.Context, username, password string) error {
	if username == "" || password == "" {
		return errs.NewUnauthorizedError("invalid credentials")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.token = "mem-" + username
	return nil
}

func (b *Backend) Logout(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.token = ""
	return nil
}

// decorate fills the denormalised category and account fields.
func (b *Backend) decorate(t core.Transaction) core.Transaction {
	if c, ok := b.categories[t.Category]; ok {
		t.CategoryName = c.Name
		t.Kind = c.Type
	}
	if a, ok := b.accounts[t.Account]; ok {
		t.AccountName = a.Name
	}
	return t
}

func (b *Backend) checkRefs(in core.TransactionInput) error {
	if _, ok := b.categories[in.Category]; !ok {
		return errs.NewValidationError(fmt.Sprintf("unknown category %d", in.Category))
	}
	if _, ok := b.accounts[in.Account]; !ok {
		return errs.NewValidationError(fmt.Sprintf("unknown account %d", in.Account))
	}
	return nil
}

// CreateTransaction stores the transaction and, when it is recurring, every
// follow-on occurrence of its series.
func (b *Backend) CreateTransaction(_ context.Context, in core.TransactionInput) (core.Transaction, error) {
	if err := in.Validate(); err != nil {
		return core.Transaction{}, errs.Validation(err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkRefs(in); err != nil {
		return core.Transaction{}, err
	}

	anchor := b.decorate(core.Transaction{
		ID:          b.newID(),
		Description: in.Description,
		Amount:      in.Amount,
		Date:        in.Date,
		Category:    in.Category,
		Account:     in.Account,
	})
	if !in.IsRecurring {
		b.txs[anchor.ID] = anchor
		return anchor, nil
	}

	occ, err := b.expander.Expand(in.Date, in.RecurrenceInterval, in.RecurrenceEndDate)
	if err != nil {
		return core.Transaction{}, err
	}
	series := recurrence.Materialize(anchor, occ, b.newID)
	for _, t := range series {
		b.txs[t.ID] = t
	}
	return series[0], nil
}

// UpdateTransaction applies the edit to one instance, or to the instance and
// every later sibling when apply_to_future is true.
func (b *Backend) UpdateTransaction(_ context.Context, id int64, in core.TransactionInput) (core.Transaction, error) {
	if err := in.Validate(); err != nil {
		return core.Transaction{}, errs.Validation(err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	current, ok := b.txs[id]
	if !ok {
		return core.Transaction{}, errs.NewNotFoundError(fmt.Sprintf("transaction %d not found", id))
	}
	if err := b.checkRefs(in); err != nil {
		return core.Transaction{}, err
	}

	future := in.ApplyToFuture != nil && *in.ApplyToFuture
	if future && !current.IsPartOfSeries() {
		return core.Transaction{}, errs.Validation(recurrence.ErrNotInSeries)
	}

	targets := []core.Transaction{current}
	if future {
		targets = recurrence.SelectSiblings(current, b.all())
	}
	for _, t := range targets {
		t = b.decorate(recurrence.ApplyEdit(t, in, t.ID != id))
		b.txs[t.ID] = t
	}
	return b.txs[id], nil
}

func (b *Backend) DeleteTransaction(_ context.Context, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.txs[id]; !ok {
		return errs.NewNotFoundError(fmt.Sprintf("transaction %d not found", id))
	}
	delete(b.txs, id)
	return nil
}

func (b *Backend) GetTransaction(_ context.Context, id int64) (core.Transaction, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.txs[id]
	if !ok {
		return core.Transaction{}, errs.NewNotFoundError(fmt.Sprintf("transaction %d not found", id))
	}
	return t, nil
}

// ListTransactions pages through transactions, newest first.
func (b *Backend) ListTransactions(_ context.Context, page int) (core.Page[core.Transaction], error) {
	if page < 1 {
		page = 1
	}
	b.mu.Lock()
	all := b.all()
	b.mu.Unlock()

	sort.SliceStable(all, func(i, j int) bool {
		if c := all[i].Date.Compare(all[j].Date); c != 0 {
			return c > 0
		}
		return all[i].ID > all[j].ID
	})

	start := (page - 1) * b.pageSize
	if start > 0 && start >= len(all) {
		return core.Page[core.Transaction]{}, errs.NewNotFoundError("invalid page")
	}
	end := start + b.pageSize
	if end > len(all) {
		end = len(all)
	}
	out := core.Page[core.Transaction]{Count: len(all), Results: all[start:end]}
	if end < len(all) {
		next := fmt.Sprintf("/transactions/?page=%d", page+1)
		out.Next = &next
	}
	if page > 1 {
		prev := fmt.Sprintf("/transactions/?page=%d", page-1)
		out.Previous = &prev
	}
	return out, nil
}

func (b *Backend) all() []core.Transaction {
	out := make([]core.Transaction, 0, len(b.txs))
	for _, t := range b.txs {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (b *Backend) ListCategories(_ context.Context) ([]core.Category, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]core.Category, 0, len(b.categories))
	for _, c := range b.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (b *Backend) ListAccounts(_ context.Context) ([]core.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]core.Account, 0, len(b.accounts))
	for _, a := range b.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (b *Backend) ListGoals(_ context.Context) ([]core.Goal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]core.Goal, 0, len(b.goals))
	for _, g := range b.goals {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (b *Backend) CreateGoal(_ context.Context, g core.Goal) (core.Goal, error) {
	if err := g.Validate(); err != nil {
		return core.Goal{}, errs.Validation(err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if limit, ok := g.Spec.(core.SpendingLimit); ok {
		if _, found := b.categories[limit.Category]; !found {
			return core.Goal{}, errs.NewValidationError(fmt.Sprintf("unknown category %d", limit.Category))
		}
	}
	g.ID = b.newID()
	b.goals[g.ID] = g
	return g, nil
}

func (b *Backend) AddGoalProgress(_ context.Context, id int64, amount core.Money) (core.Goal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	g, ok := b.goals[id]
	if !ok {
		return core.Goal{}, errs.NewNotFoundError(fmt.Sprintf("goal %d not found", id))
	}
	updated, err := g.AddProgress(amount)
	if err != nil {
		return core.Goal{}, errs.Validation(err)
	}
	b.goals[id] = updated
	return updated, nil
}

// Dashboard computes the summary the backend reports, including the
// due-today and due-tomorrow lists. Only expenses are due.
func (b *Backend) Dashboard(_ context.Context) (core.Dashboard, error) {
	today := b.today()
	b.mu.Lock()
	defer b.mu.Unlock()

	var (
		initial                                  = decimal.Zero
		pastIncome, pastExpense                  = decimal.Zero, decimal.Zero
		futureIncome, futureExpense              = decimal.Zero, decimal.Zero
		monthIncome, monthExpense, monthExpSoFar = decimal.Zero, decimal.Zero, decimal.Zero
		prevIncome, prevExpense                  = decimal.Zero, decimal.Zero
		byCategory                               = map[string]decimal.Decimal{}
		dash                                     core.Dashboard
	)
	dash.Notifications = core.Notifications{DueToday: []core.Transaction{}, DueTomorrow: []core.Transaction{}}
	dash.Upcoming = []core.Transaction{}
	for _, a := range b.accounts {
		initial = initial.Add(a.Balance.Amount)
	}
	prevMonth := core.NewDate(today.Year(), today.Month(), 1).AddDays(-1)
	tomorrow := today.AddDays(1)

	for _, t := range b.all() {
		amount := t.Amount.Amount
		sameMonth := t.Date.Year() == today.Year() && t.Date.Month() == today.Month()
		inPrev := t.Date.Year() == prevMonth.Year() && t.Date.Month() == prevMonth.Month()
		past := !t.Date.After(today)

		switch t.Kind {
		case core.Income:
			if past {
				pastIncome = pastIncome.Add(amount)
			} else {
				futureIncome = futureIncome.Add(amount)
			}
			if sameMonth && past {
				monthIncome = monthIncome.Add(amount)
			}
			if inPrev {
				prevIncome = prevIncome.Add(amount)
			}
		case core.Expense:
			if past {
				pastExpense = pastExpense.Add(amount)
			} else {
				futureExpense = futureExpense.Add(amount)
			}
			if sameMonth {
				monthExpense = monthExpense.Add(amount)
				if past {
					monthExpSoFar = monthExpSoFar.Add(amount)
					byCategory[t.CategoryName] = byCategory[t.CategoryName].Add(amount)
				}
			}
			if inPrev {
				prevExpense = prevExpense.Add(amount)
			}
		}

		switch {
		case t.Kind != core.Expense:
		case t.Date.Equal(today):
			dash.Notifications.DueToday = append(dash.Notifications.DueToday, t)
		case t.Date.Equal(tomorrow):
			dash.Notifications.DueTomorrow = append(dash.Notifications.DueTomorrow, t)
		}
		if !t.Date.Before(today) {
			dash.Upcoming = append(dash.Upcoming, t)
		}
	}

	actual := initial.Add(pastIncome).Sub(pastExpense)
	net := monthIncome.Sub(monthExpSoFar)
	prevNet := prevIncome.Sub(prevExpense)
	variation := decimal.Zero
	switch {
	case !prevNet.IsZero():
		variation = net.Sub(prevNet).Div(prevNet.Abs()).Mul(decimal.NewFromInt(100))
	case net.IsPositive():
		variation = decimal.NewFromInt(100)
	}

	dash.Summary = core.Summary{
		ActualBalance:      core.NewMoney(actual),
		ProjectedBalance:   core.NewMoney(actual.Add(futureIncome).Sub(futureExpense)),
		MonthlyIncome:      core.NewMoney(monthIncome),
		MonthlyExpenses:    core.NewMoney(monthExpense),
		NetProfit:          core.NewMoney(net),
		NetProfitVariation: variation.Round(2).InexactFloat64(),
	}

	labels := make([]string, 0, len(byCategory))
	for name := range byCategory {
		labels = append(labels, name)
	}
	sort.Slice(labels, func(i, j int) bool {
		return byCategory[labels[i]].GreaterThan(byCategory[labels[j]])
	})
	for _, name := range labels {
		dash.ExpenseChart.Labels = append(dash.ExpenseChart.Labels, name)
		dash.ExpenseChart.Data = append(dash.ExpenseChart.Data, byCategory[name].InexactFloat64())
	}

	sort.SliceStable(dash.Upcoming, func(i, j int) bool { return dash.Upcoming[i].Date.Before(dash.Upcoming[j].Date) })
	if len(dash.Upcoming) > upcomingLimit {
		dash.Upcoming = dash.Upcoming[:upcomingLimit]
	}
	return dash, nil
}

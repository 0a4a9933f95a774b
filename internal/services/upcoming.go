package services

import (
	"sort"

	"easyfinances/internal/core"
)

// DefaultWindowDays is the span of the upcoming view.
const DefaultWindowDays = 30

// Window is the inclusive range [today, today+Days].
type Window struct {
	Days int
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t core.Transaction, today core.Date) bool {
	if t.Date.IsZero() {
		return false
	}
	return !t.Date.Before(today) && !t.Date.After(today.AddDays(w.days()))
}

// Filter returns the transactions inside the window sorted by date, then id.
func (w Window) Filter(txs []core.Transaction, today core.Date) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if w.Contains(t, today) {
			out = append(out, t)
		}
	}
	sortByDate(out)
	return out
}

func (w Window) days() int {
	if w.Days <= 0 {
		return DefaultWindowDays
	}
	return w.Days
}

// UpcomingWindow filters txs to the default 30-day window.
func UpcomingWindow(txs []core.Transaction, today core.Date) []core.Transaction {
	return Window{Days: DefaultWindowDays}.Filter(txs, today)
}

func InWindow(t core.Transaction, today core.Date) bool {
	return Window{Days: DefaultWindowDays}.Contains(t, today)
}

func sortByDate(txs []core.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if c := txs[i].Date.Compare(txs[j].Date); c != 0 {
			return c < 0
		}
		return txs[i].ID < txs[j].ID
	})
}

// DueFromTransactions derives the due-today and due-tomorrow lists from
// the transaction list, for backends whose dashboard does not report them.
// Only expenses are due.
func DueFromTransactions(txs []core.Transaction, today core.Date) core.Notifications {
	tomorrow := today.AddDays(1)
	out := core.Notifications{DueToday: []core.Transaction{}, DueTomorrow: []core.Transaction{}}
	for _, t := range txs {
		if t.Kind == core.Income {
			continue
		}
		switch {
		case t.Date.Equal(today):
			out.DueToday = append(out.DueToday, t)
		case t.Date.Equal(tomorrow):
			out.DueTomorrow = append(out.DueTomorrow, t)
		}
	}
	sortByDate(out.DueToday)
	sortByDate(out.DueTomorrow)
	return out
}

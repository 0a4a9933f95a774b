// Package services holds the read-path and write-path orchestration between
// the backend ports and the outer surfaces.
package services

import (
	"fmt"

	"easyfinances/internal/core"
)

// DueLabeler phrases how far a dated item is from today for one category
// kind. days is negative for past dates.
type DueLabeler interface {
	Label(days int) string
}

// ExpenseLabeler phrases bills: "due in 3 days", "overdue by 2 days".
type ExpenseLabeler struct{}

func (ExpenseLabeler) Label(days int) string {
	switch {
	case days < 0:
		return "overdue by " + plural(-days)
	case days == 0:
		return "due today"
	case days == 1:
		return "due tomorrow"
	default:
		return "due in " + plural(days)
	}
}

// IncomeLabeler phrases receipts: "expected in 3 days", "received 2 days ago".
type IncomeLabeler struct{}

func (IncomeLabeler) Label(days int) string {
	switch {
	case days < 0:
		return "received " + plural(-days) + " ago"
	case days == 0:
		return "received today"
	case days == 1:
		return "expected tomorrow"
	default:
		return "expected in " + plural(days)
	}
}

func plural(days int) string {
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

var dueLabelers = map[core.Kind]DueLabeler{
	core.Expense: ExpenseLabeler{},
	core.Income:  IncomeLabeler{},
}

// GetDueLabeler returns the labeler registered for kind.
func GetDueLabeler(kind core.Kind) (DueLabeler, error) {
	l, ok := dueLabelers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidKind, kind)
	}
	return l, nil
}

// RegisterDueLabeler adds or replaces the labeler of a kind.
func RegisterDueLabeler(kind core.Kind, l DueLabeler) {
	dueLabelers[kind] = l
}

// DueIn returns the days from today to the transaction date.
func DueIn(t core.Transaction, today core.Date) int {
	return today.DaysUntil(t.Date)
}

// DueLabel phrases DueIn for the transaction's kind. Transactions without a
// known kind are phrased as expenses.
func DueLabel(t core.Transaction, today core.Date) string {
	l, err := GetDueLabeler(t.Kind)
	if err != nil {
		l = ExpenseLabeler{}
	}
	return l.Label(DueIn(t, today))
}

package recurrence

import (
	"errors"
	"sort"

	"easyfinances/internal/core"
	"easyfinances/internal/errs"
)

const (
	ScopeSingle Scope = "single"
	ScopeFuture Scope = "future"
)

var (
	ErrNotInSeries      = errors.New("apply_to_future requires a transaction that is part of a series")
	ErrRecurrenceOnEdit = errors.New("recurrence fields are only valid when creating a transaction")
)

// Scope is how far an edit reaches inside a series.
type Scope string

// EditPlan is a validated update request and the scope it asks for.
type EditPlan struct {
	ID      int64
	Scope   Scope
	Request core.TransactionInput
}

// ResolveEdit decides the propagation scope of an edit to current.
//
// Outside a series the flag is never sent, and asking for it is rejected.
// Inside a series the flag is always sent, false meaning this instance only.
func ResolveEdit(current core.Transaction, in core.TransactionInput, applyToFuture bool) (EditPlan, error) {
	if in.IsRecurring || in.RecurrenceInterval != "" || in.RecurrenceEndDate != nil {
		return EditPlan{}, errs.Validation(ErrRecurrenceOnEdit)
	}
	if !current.IsPartOfSeries() {
		if applyToFuture {
			return EditPlan{}, errs.Validation(ErrNotInSeries)
		}
		in.ApplyToFuture = nil
		if err := in.Validate(); err != nil {
			return EditPlan{}, errs.Validation(err)
		}
		return EditPlan{ID: current.ID, Scope: ScopeSingle, Request: in}, nil
	}

	if err := in.Validate(); err != nil {
		return EditPlan{}, errs.Validation(err)
	}
	flag := applyToFuture
	in.ApplyToFuture = &flag
	scope := ScopeSingle
	if applyToFuture {
		scope = ScopeFuture
	}
	return EditPlan{ID: current.ID, Scope: scope, Request: in}, nil
}

// SelectSiblings returns the members of edited's series dated on or after
// edited, edited included, ordered by date. Earlier members are never part
// of the result.
func SelectSiblings(edited core.Transaction, all []core.Transaction) []core.Transaction {
	series := edited.SeriesID()
	if series == 0 {
		return nil
	}
	var out []core.Transaction
	for _, t := range all {
		if t.SeriesID() != series || t.Date.Before(edited.Date) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Date.Compare(out[j].Date); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ApplyEdit copies the editable fields of in onto t. Series markers and the
// identifier are left alone. keepDate leaves t's date untouched, which is how
// siblings receive a propagated edit.
func ApplyEdit(t core.Transaction, in core.TransactionInput, keepDate bool) core.Transaction {
	t.Description = in.Description
	t.Amount = in.Amount
	t.Category = in.Category
	t.Account = in.Account
	if !keepDate {
		t.Date = in.Date
	}
	return t
}

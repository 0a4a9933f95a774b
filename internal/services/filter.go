package services

import (
	"strings"

	"easyfinances/internal/core"
	"easyfinances/internal/errs"
)

// TransactionFilter narrows a transaction list client-side. Zero fields do
// not filter.
type TransactionFilter struct {
	Search   string
	Account  int64
	Category int64
	Kind     core.Kind
	Start    core.Date
	End      core.Date
}

func (f TransactionFilter) IsEmpty() bool {
	return strings.TrimSpace(f.Search) == "" && f.Account == 0 && f.Category == 0 &&
		f.Kind == "" && f.Start.IsZero() && f.End.IsZero()
}

func (f TransactionFilter) Validate() error {
	if f.Kind != "" && !f.Kind.Valid() {
		return errs.Validation(core.ErrInvalidKind)
	}
	if !f.Start.IsZero() && !f.End.IsZero() && f.End.Before(f.Start) {
		return errs.Validation(core.ErrEndBeforeStart)
	}
	return nil
}

// Matches applies a case-insensitive substring match on the description,
// exact id matches, and inclusive date bounds.
func (f TransactionFilter) Matches(t core.Transaction) bool {
	if s := strings.TrimSpace(f.Search); s != "" &&
		!strings.Contains(strings.ToLower(t.Description), strings.ToLower(s)) {
		return false
	}
	if f.Account != 0 && t.Account != f.Account {
		return false
	}
	if f.Category != 0 && t.Category != f.Category {
		return false
	}
	if f.Kind != "" && t.Kind != f.Kind {
		return false
	}
	if !f.Start.IsZero() && t.Date.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && t.Date.After(f.End) {
		return false
	}
	return true
}

func (f TransactionFilter) Apply(txs []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

package core

import (
	"errors"
	"strings"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"

	// Monthly is the only cadence a recurring series supports.
	Monthly RecurrenceInterval = "monthly"

	DefaultAccountType = "Conta Corrente"

	maxDescriptionLen = 255
)

type (
	// Kind is the category classification of a transaction.
	Kind string

	RecurrenceInterval string

	// Transaction is the read model returned by the backend.
	Transaction struct {
		ID           int64  `json:"id"`
		Description  string `json:"description"`
		Amount       Money  `json:"amount"`
		Date         Date   `json:"date"`
		Category     int64  `json:"category"`
		Account      int64  `json:"account"`
		CategoryName string `json:"category_name,omitempty"`
		AccountName  string `json:"account_name,omitempty"`
		Kind         Kind   `json:"category_type,omitempty"`
		// IsRecurring is true only on the anchor of a series.
		IsRecurring bool `json:"is_recurring"`
		// Parent points at the anchor on generated follow-on occurrences.
		Parent *int64 `json:"parent_transaction,omitempty"`
	}

	// TransactionInput is the write payload for create and update.
	// Recurrence fields are only sent on creation, ApplyToFuture only on edits.
	TransactionInput struct {
		Description        string             `json:"description"`
		Amount             Money              `json:"amount"`
		Date               Date               `json:"date"`
		Category           int64              `json:"category"`
		Account            int64              `json:"account"`
		IsRecurring        bool               `json:"is_recurring,omitempty"`
		RecurrenceInterval RecurrenceInterval `json:"recurrence_interval,omitempty"`
		RecurrenceEndDate  *Date              `json:"recurrence_end_date,omitempty"`
		ApplyToFuture      *bool              `json:"apply_to_future,omitempty"`
	}

	Category struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		Type Kind   `json:"type,omitempty"`
	}

	Account struct {
		ID      int64  `json:"id"`
		Name    string `json:"name"`
		Type    string `json:"type"`
		Balance Money  `json:"balance"`
	}

	// Holiday is a dated named entry from a public calendar.
	Holiday struct {
		Date Date   `json:"date"`
		Name string `json:"name"`
		Type string `json:"type"`
	}
)

var (
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEmptyDescription    = errors.New("empty description")
	ErrDescriptionTooLong  = errors.New("description too long (max 255 characters)")
	ErrMissingCategory     = errors.New("missing category")
	ErrMissingAccount      = errors.New("missing account")
	ErrInvalidKind         = errors.New("invalid category type")
	ErrUnsupportedInterval = errors.New("unsupported recurrence interval")
	ErrEndBeforeStart      = errors.New("end date must not be before start date")
)

func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

// IsPartOfSeries reports whether the transaction belongs to a recurring series,
// either as its anchor or as a generated occurrence.
func (t Transaction) IsPartOfSeries() bool {
	return t.IsRecurring || t.Parent != nil
}

// SeriesID returns the anchor id of the series, or 0 for standalone transactions.
func (t Transaction) SeriesID() int64 {
	switch {
	case t.Parent != nil:
		return *t.Parent
	case t.IsRecurring:
		return t.ID
	default:
		return 0
	}
}

// Input returns the editable fields of t as a write payload.
func (t Transaction) Input() TransactionInput {
	return TransactionInput{
		Description: t.Description,
		Amount:      t.Amount,
		Date:        t.Date,
		Category:    t.Category,
		Account:     t.Account,
	}
}

// Validate checks the base fields shared by create and update.
func (in TransactionInput) Validate() error {
	if err := in.Date.Validate(); err != nil {
		return err
	}
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return ErrEmptyDescription
	}
	if len(desc) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	if err := in.Amount.Validate(); err != nil {
		return err
	}
	if in.Category <= 0 {
		return ErrMissingCategory
	}
	if in.Account <= 0 {
		return ErrMissingAccount
	}
	return nil
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return errors.New("empty account name")
	}
	return nil
}

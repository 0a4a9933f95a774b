// Package recurrence turns recurring-transaction intents into dated
// occurrences and decides how far an edit to a series propagates.
//
// Cadences are strategies registered per interval. Only monthly is
// registered; an unknown interval is a validation error.
package recurrence

import (
	"errors"
	"fmt"

	"easyfinances/internal/core"
	"easyfinances/internal/errs"
)

// DefaultHorizonMonths bounds a series created without an end date.
const DefaultHorizonMonths = 24

var ErrApplyToFutureOnCreate = errors.New("apply_to_future is only valid when editing a transaction")

// Occurrence is one dated instance of a series. First marks the anchor.
type Occurrence struct {
	Date  core.Date
	First bool
}

// Stepper computes the date of the n-th occurrence counted from the anchor.
// Stepping from the anchor rather than from the previous occurrence keeps a
// 31st anchor on the 31st in long months after a clamped short one.
type Stepper interface {
	Step(anchor core.Date, n int) core.Date
}

// MonthlyStepper advances by whole calendar months, clamping to the last
// valid day of short months.
type MonthlyStepper struct{}

func (MonthlyStepper) Step(anchor core.Date, n int) core.Date {
	return anchor.AddMonths(n)
}

var steppers = map[core.RecurrenceInterval]Stepper{
	core.Monthly: MonthlyStepper{},
}

// GetStepper returns the stepper for an interval. An empty interval means monthly.
func GetStepper(interval core.RecurrenceInterval) (Stepper, error) {
	if interval == "" {
		interval = core.Monthly
	}
	s, ok := steppers[interval]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedInterval, interval)
	}
	return s, nil
}

// Expander computes occurrence dates for a series.
type Expander struct {
	horizonMonths int
}

// NewExpander creates an expander whose open-ended series stop after
// horizonMonths. Non-positive values fall back to DefaultHorizonMonths.
func NewExpander(horizonMonths int) *Expander {
	if horizonMonths <= 0 {
		horizonMonths = DefaultHorizonMonths
	}
	return &Expander{horizonMonths: horizonMonths}
}

// Horizon returns the last date a series may reach: end when set, otherwise
// anchor plus the default horizon.
func (e *Expander) Horizon(anchor core.Date, end *core.Date) core.Date {
	if end != nil && !end.IsZero() {
		return *end
	}
	return anchor.AddMonths(e.horizonMonths)
}

// Expand lists the occurrences from anchor up to and including the last one
// that does not pass the horizon.
func (e *Expander) Expand(anchor core.Date, interval core.RecurrenceInterval, end *core.Date) ([]Occurrence, error) {
	if err := anchor.Validate(); err != nil {
		return nil, errs.Validation(fmt.Errorf("recurrence anchor: %w", err))
	}
	stepper, err := GetStepper(interval)
	if err != nil {
		return nil, errs.Validation(err)
	}
	horizon := e.Horizon(anchor, end)
	if horizon.Before(anchor) {
		return nil, errs.Validation(core.ErrEndBeforeStart)
	}

	var out []Occurrence
	for n := 0; ; n++ {
		d := stepper.Step(anchor, n)
		if d.After(horizon) {
			break
		}
		out = append(out, Occurrence{Date: d, First: n == 0})
	}
	return out, nil
}

// CreatePlan is a validated create request plus the dates the series will cover.
type CreatePlan struct {
	Request     core.TransactionInput
	Occurrences []Occurrence
}

// PrepareCreate validates a create request and normalises its recurrence
// fields. Non-recurring requests never carry recurrence fields; recurring
// ones always name the interval and only carry an end date when one is set.
func (e *Expander) PrepareCreate(in core.TransactionInput) (CreatePlan, error) {
	if in.ApplyToFuture != nil {
		return CreatePlan{}, errs.Validation(ErrApplyToFutureOnCreate)
	}
	if err := in.Validate(); err != nil {
		return CreatePlan{}, errs.Validation(err)
	}

	if !in.IsRecurring {
		in.RecurrenceInterval = ""
		in.RecurrenceEndDate = nil
		return CreatePlan{Request: in, Occurrences: []Occurrence{{Date: in.Date}}}, nil
	}

	if in.RecurrenceInterval == "" {
		in.RecurrenceInterval = core.Monthly
	}
	if in.RecurrenceEndDate != nil && in.RecurrenceEndDate.IsZero() {
		in.RecurrenceEndDate = nil
	}
	occ, err := e.Expand(in.Date, in.RecurrenceInterval, in.RecurrenceEndDate)
	if err != nil {
		return CreatePlan{}, err
	}
	return CreatePlan{Request: in, Occurrences: occ}, nil
}

// Materialize builds the transactions of a series from its stored anchor.
// The anchor keeps IsRecurring; every follow-on points at it. nextID assigns
// identifiers to the follow-ons.
func Materialize(anchor core.Transaction, occ []Occurrence, nextID func() int64) []core.Transaction {
	anchor.IsRecurring = true
	anchor.Parent = nil
	out := make([]core.Transaction, 0, len(occ))
	for _, o := range occ {
		if o.First {
			out = append(out, anchor)
			continue
		}
		parent := anchor.ID
		t := anchor
		t.ID = nextID()
		t.Date = o.Date
		t.IsRecurring = false
		t.Parent = &parent
		out = append(out, t)
	}
	return out
}

var defaultExpander = NewExpander(DefaultHorizonMonths)

// Expand uses the default monthly cadence and 24 month horizon.
func Expand(anchor core.Date, end *core.Date) ([]Occurrence, error) {
	return defaultExpander.Expand(anchor, core.Monthly, end)
}

package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	GoalSpendingLimit GoalType = "spending_limit"
	GoalSaving        GoalType = "saving_goal"
)

type (
	GoalType string

	// GoalSpec is the variant part of a Goal. Only SpendingLimit and
	// SavingGoal implement it.
	GoalSpec interface {
		goalType() GoalType
		validate() error
	}

	// SpendingLimit caps spending in one category over the goal period.
	SpendingLimit struct {
		Category int64
	}

	// SavingGoal tracks money put aside towards the target.
	SavingGoal struct {
		CurrentAmount Money
	}

	Goal struct {
		ID           int64
		Name         string
		TargetAmount Money
		StartDate    Date
		EndDate      Date
		Spec         GoalSpec
	}
)

var (
	ErrEmptyGoalName   = errors.New("empty goal name")
	ErrUnknownGoalType = errors.New("unknown goal type")
	ErrNotSavingGoal   = errors.New("progress can only be added to a saving goal")
)

func (SpendingLimit) goalType() GoalType { return GoalSpendingLimit }

func (s SpendingLimit) validate() error {
	if s.Category <= 0 {
		return ErrMissingCategory
	}
	return nil
}

func (SavingGoal) goalType() GoalType { return GoalSaving }

func (s SavingGoal) validate() error {
	if s.CurrentAmount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// NewSpendingLimit builds a validated spending-limit goal.
func NewSpendingLimit(name string, target Money, start, end Date, category int64) (Goal, error) {
	g := Goal{Name: name, TargetAmount: target, StartDate: start, EndDate: end, Spec: SpendingLimit{Category: category}}
	return g, g.Validate()
}

// NewSavingGoal builds a validated saving goal.
func NewSavingGoal(name string, target Money, start, end Date, current Money) (Goal, error) {
	g := Goal{Name: name, TargetAmount: target, StartDate: start, EndDate: end, Spec: SavingGoal{CurrentAmount: current}}
	return g, g.Validate()
}

func (g Goal) Type() GoalType {
	if g.Spec == nil {
		return ""
	}
	return g.Spec.goalType()
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyGoalName
	}
	if err := g.TargetAmount.Validate(); err != nil {
		return err
	}
	if err := g.StartDate.Validate(); err != nil {
		return fmt.Errorf("start date: %w", err)
	}
	if err := g.EndDate.Validate(); err != nil {
		return fmt.Errorf("end date: %w", err)
	}
	if g.EndDate.Before(g.StartDate) {
		return ErrEndBeforeStart
	}
	if g.Spec == nil {
		return ErrUnknownGoalType
	}
	return g.Spec.validate()
}

// AddProgress returns a copy of a saving goal with amount added to its
// current amount.
func (g Goal) AddProgress(amount Money) (Goal, error) {
	saving, ok := g.Spec.(SavingGoal)
	if !ok {
		return g, ErrNotSavingGoal
	}
	if err := amount.Validate(); err != nil {
		return g, err
	}
	saving.CurrentAmount = saving.CurrentAmount.Add(amount)
	g.Spec = saving
	return g, nil
}

type goalJSON struct {
	ID            int64    `json:"id,omitempty"`
	GoalType      GoalType `json:"goal_type"`
	Name          string   `json:"name"`
	TargetAmount  Money    `json:"target_amount"`
	StartDate     Date     `json:"start_date"`
	EndDate       Date     `json:"end_date"`
	Category      *int64   `json:"category,omitempty"`
	CurrentAmount *Money   `json:"current_amount,omitempty"`
}

func (g Goal) MarshalJSON() ([]byte, error) {
	out := goalJSON{
		ID:           g.ID,
		GoalType:     g.Type(),
		Name:         g.Name,
		TargetAmount: g.TargetAmount,
		StartDate:    g.StartDate,
		EndDate:      g.EndDate,
	}
	switch s := g.Spec.(type) {
	case SpendingLimit:
		out.Category = &s.Category
	case SavingGoal:
		out.CurrentAmount = &s.CurrentAmount
	default:
		return nil, ErrUnknownGoalType
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the variant selected by goal_type and ignores the
// fields that belong to the other one.
func (g *Goal) UnmarshalJSON(data []byte) error {
	var in goalJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*g = Goal{
		ID:           in.ID,
		Name:         in.Name,
		TargetAmount: in.TargetAmount,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
	}
	switch in.GoalType {
	case GoalSpendingLimit:
		var category int64
		if in.Category != nil {
			category = *in.Category
		}
		g.Spec = SpendingLimit{Category: category}
	case GoalSaving:
		var current Money
		if in.CurrentAmount != nil {
			current = *in.CurrentAmount
		}
		g.Spec = SavingGoal{CurrentAmount: current}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownGoalType, in.GoalType)
	}
	return nil
}

package services

import (
	"context"
	"fmt"
	"log/slog"

	"easyfinances/internal/core"
	"easyfinances/internal/errs"
	"easyfinances/internal/ports"
)

// GoalRequest is the create payload as it arrives from a form or flags.
type GoalRequest struct {
	Name          string        `json:"name"`
	Type          core.GoalType `json:"goal_type"`
	TargetAmount  core.Money    `json:"target_amount"`
	StartDate     core.Date     `json:"start_date"`
	EndDate       core.Date     `json:"end_date"`
	Category      int64         `json:"category,omitempty"`
	CurrentAmount core.Money    `json:"current_amount,omitempty"`
}

// Goal builds the validated tagged value.
func (r GoalRequest) Goal() (core.Goal, error) {
	var (
		g   core.Goal
		err error
	)
	switch r.Type {
	case core.GoalSpendingLimit:
		g, err = core.NewSpendingLimit(r.Name, r.TargetAmount, r.StartDate, r.EndDate, r.Category)
	case core.GoalSaving:
		g, err = core.NewSavingGoal(r.Name, r.TargetAmount, r.StartDate, r.EndDate, r.CurrentAmount)
	default:
		err = fmt.Errorf("%w: %q", core.ErrUnknownGoalType, r.Type)
	}
	if err != nil {
		return core.Goal{}, errs.Validation(err)
	}
	return g, nil
}

type GoalService struct {
	store ports.GoalStore
}

func NewGoalService(store ports.GoalStore) *GoalService {
	return &GoalService{store: store}
}

func (s *GoalService) List(ctx context.Context) ([]core.Goal, error) {
	goals, err := s.store.ListGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	if goals == nil {
		goals = []core.Goal{}
	}
	return goals, nil
}

func (s *GoalService) Create(ctx context.Context, r GoalRequest) (core.Goal, error) {
	g, err := r.Goal()
	if err != nil {
		return core.Goal{}, err
	}
	created, err := s.store.CreateGoal(ctx, g)
	if err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	slog.InfoContext(ctx, "Goal created", "id", created.ID, "type", created.Type())
	return created, nil
}

// AddProgress adds amount to a saving goal. The goal kind is checked
// locally so a spending limit is rejected without a write.
func (s *GoalService) AddProgress(ctx context.Context, id int64, amount core.Money) (core.Goal, error) {
	if err := amount.Validate(); err != nil {
		return core.Goal{}, errs.Validation(err)
	}
	goals, err := s.List(ctx)
	if err != nil {
		return core.Goal{}, err
	}
	var found *core.Goal
	for i := range goals {
		if goals[i].ID == id {
			found = &goals[i]
			break
		}
	}
	if found == nil {
		return core.Goal{}, errs.NewNotFoundError(fmt.Sprintf("goal %d not found", id))
	}
	if _, err := found.AddProgress(amount); err != nil {
		return core.Goal{}, errs.Validation(err)
	}

	updated, err := s.store.AddGoalProgress(ctx, id, amount)
	if err != nil {
		return core.Goal{}, fmt.Errorf("add goal progress: %w", err)
	}
	return updated, nil
}

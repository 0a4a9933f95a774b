package recurrence

import (
	"errors"
	"testing"

	"easyfinances/internal/core"
	"easyfinances/internal/errs"
)

func TestResolveEdit(t *testing.T) {
	anchorID := int64(1)
	standalone := core.Transaction{ID: 5, Date: core.NewDate(2024, 3, 10)}
	anchor := core.Transaction{ID: 1, IsRecurring: true, Date: core.NewDate(2024, 1, 10)}
	occurrence := core.Transaction{ID: 3, Parent: &anchorID, Date: core.NewDate(2024, 3, 10)}

	tests := []struct {
		name      string
		current   core.Transaction
		future    bool
		wantErr   error
		wantScope Scope
		wantFlag  *bool
	}{
		{name: "standalone single", current: standalone, future: false, wantScope: ScopeSingle},
		{name: "standalone future rejected", current: standalone, future: true, wantErr: ErrNotInSeries},
		{name: "anchor single", current: anchor, future: false, wantScope: ScopeSingle, wantFlag: new(bool)},
		{name: "occurrence future", current: occurrence, future: true, wantScope: ScopeFuture, wantFlag: func() *bool { b := true; return &b }()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseInput()
			plan, err := ResolveEdit(tt.current, in, tt.future)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) || !errs.IsValidation(err) {
					t.Fatalf("ResolveEdit() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveEdit() error = %v", err)
			}
			if plan.Scope != tt.wantScope {
				t.Errorf("scope = %s, want %s", plan.Scope, tt.wantScope)
			}
			if plan.ID != tt.current.ID {
				t.Errorf("id = %d, want %d", plan.ID, tt.current.ID)
			}
			got := plan.Request.ApplyToFuture
			switch {
			case tt.wantFlag == nil && got != nil:
				t.Errorf("apply_to_future sent for non-series transaction")
			case tt.wantFlag != nil && (got == nil || *got != *tt.wantFlag):
				t.Errorf("apply_to_future = %v, want %v", got, *tt.wantFlag)
			}
		})
	}
}

func TestResolveEdit_RejectsRecurrenceFields(t *testing.T) {
	in := baseInput()
	in.IsRecurring = true
	_, err := ResolveEdit(core.Transaction{ID: 2}, in, false)
	if !errors.Is(err, ErrRecurrenceOnEdit) {
		t.Errorf("got %v", err)
	}
}

func TestSelectSiblings(t *testing.T) {
	anchorID := int64(1)
	otherID := int64(50)
	all := []core.Transaction{
		{ID: 1, IsRecurring: true, Date: core.NewDate(2024, 1, 10)},
		{ID: 4, Parent: &anchorID, Date: core.NewDate(2024, 4, 10)},
		{ID: 2, Parent: &anchorID, Date: core.NewDate(2024, 2, 10)},
		{ID: 3, Parent: &anchorID, Date: core.NewDate(2024, 3, 10)},
		{ID: 51, Parent: &otherID, Date: core.NewDate(2024, 5, 10)},
		{ID: 9, Date: core.NewDate(2024, 6, 1)},
	}

	got := SelectSiblings(all[3], all)
	wantIDs := []int64{3, 4}
	if len(got) != len(wantIDs) {
		t.Fatalf("SelectSiblings() = %v, want ids %v", got, wantIDs)
	}
	for i, tx := range got {
		if tx.ID != wantIDs[i] {
			t.Errorf("sibling %d = %d, want %d", i, tx.ID, wantIDs[i])
		}
		if tx.Date.Before(all[3].Date) {
			t.Errorf("sibling %d dated before the edited instance", tx.ID)
		}
	}

	if got := SelectSiblings(all[0], all); len(got) != 4 {
		t.Errorf("from anchor: len = %d, want 4", len(got))
	}
	if got := SelectSiblings(all[5], all); got != nil {
		t.Errorf("standalone: got %v, want nil", got)
	}
}

func TestApplyEdit(t *testing.T) {
	parent := int64(1)
	tx := core.Transaction{ID: 3, Parent: &parent, Date: core.NewDate(2024, 3, 10), Description: "old"}
	in := baseInput()

	kept := ApplyEdit(tx, in, true)
	if !kept.Date.Equal(tx.Date) || kept.Description != "Rent" || kept.Parent == nil {
		t.Errorf("ApplyEdit(keepDate) = %+v", kept)
	}
	moved := ApplyEdit(tx, in, false)
	if !moved.Date.Equal(in.Date) {
		t.Errorf("ApplyEdit() date = %s, want %s", moved.Date, in.Date)
	}
}

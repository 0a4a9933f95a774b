package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easyfinances/internal/core"
	"easyfinances/internal/errs"
)

func fixedToday(d core.Date) func() core.Date {
	return func() core.Date { return d }
}

func rentInput(date core.Date) core.TransactionInput {
	return core.TransactionInput{
		Description: "Aluguel",
		Amount:      core.MoneyFromCents(150000),
		Date:        date,
		Category:    2,
		Account:     1,
	}
}

func TestCreateRecurringMaterialisesSeries(t *testing.T) {
	ctx := context.Background()
	b := NewSeeded()

	in := rentInput(core.NewDate(2024, 1, 31))
	in.IsRecurring = true
	end := core.NewDate(2024, 4, 30)
	in.RecurrenceEndDate = &end

	anchor, err := b.CreateTransaction(ctx, in)
	require.NoError(t, err)
	assert.True(t, anchor.IsRecurring)
	assert.Equal(t, core.Expense, anchor.Kind)
	assert.Equal(t, "Moradia", anchor.CategoryName)

	page, err := b.ListTransactions(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 4, page.Count)

	var got []string
	for _, tx := range page.Results {
		got = append(got, tx.Date.String())
		if tx.ID != anchor.ID {
			require.NotNil(t, tx.Parent)
			assert.Equal(t, anchor.ID, *tx.Parent)
		}
	}
	assert.Equal(t, []string{"2024-04-30", "2024-03-31", "2024-02-29", "2024-01-31"}, got)
}

func TestUpdateApplyToFutureTouchesOnlyLaterSiblings(t *testing.T) {
	ctx := context.Background()
	b := NewSeeded()

	in := rentInput(core.NewDate(2024, 1, 10))
	in.IsRecurring = true
	end := core.NewDate(2024, 4, 10)
	in.RecurrenceEndDate = &end
	_, err := b.CreateTransaction(ctx, in)
	require.NoError(t, err)

	page, err := b.ListTransactions(ctx, 1)
	require.NoError(t, err)
	var march core.Transaction
	for _, tx := range page.Results {
		if tx.Date.Equal(core.NewDate(2024, 3, 10)) {
			march = tx
		}
	}
	require.NotZero(t, march.ID)

	edit := rentInput(march.Date)
	edit.Amount = core.MoneyFromCents(160000)
	yes := true
	edit.ApplyToFuture = &yes
	_, err = b.UpdateTransaction(ctx, march.ID, edit)
	require.NoError(t, err)

	page, err = b.ListTransactions(ctx, 1)
	require.NoError(t, err)
	for _, tx := range page.Results {
		want := int64(150000)
		if !tx.Date.Before(march.Date) {
			want = 160000
		}
		assert.Equal(t, want, tx.Amount.Cents(), "date %s", tx.Date)
	}
}

func TestUpdateApplyToFutureOnStandaloneRejected(t *testing.T) {
	ctx := context.Background()
	b := NewSeeded()
	tx, err := b.CreateTransaction(ctx, rentInput(core.NewDate(2024, 1, 10)))
	require.NoError(t, err)

	edit := rentInput(tx.Date)
	yes := true
	edit.ApplyToFuture = &yes
	_, err = b.UpdateTransaction(ctx, tx.ID, edit)
	assert.True(t, errs.IsValidation(err), "got %v", err)
}

func TestListTransactionsPaging(t *testing.T) {
	ctx := context.Background()
	b := NewSeeded(WithPageSize(2))
	for d := 1; d <= 5; d++ {
		_, err := b.CreateTransaction(ctx, rentInput(core.NewDate(2024, 1, d)))
		require.NoError(t, err)
	}

	first, err := b.ListTransactions(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, first.Count)
	assert.True(t, first.HasNext())
	assert.Nil(t, first.Previous)

	last, err := b.ListTransactions(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, last.Results, 1)
	assert.False(t, last.HasNext())

	_, err = b.ListTransactions(ctx, 4)
	assert.True(t, errs.IsNotFound(err))
}

func TestDashboardNotifications(t *testing.T) {
	ctx := context.Background()
	today := core.NewDate(2024, 3, 1)
	b := NewSeeded(WithClock(fixedToday(today)))

	for _, d := range []core.Date{today.AddDays(-1), today, today.AddDays(1), today.AddDays(2)} {
		_, err := b.CreateTransaction(ctx, rentInput(d))
		require.NoError(t, err)
	}
	salary := rentInput(today)
	salary.Category = 1
	salary.Amount = core.MoneyFromCents(500000)
	_, err := b.CreateTransaction(ctx, salary)
	require.NoError(t, err)

	dash, err := b.Dashboard(ctx)
	require.NoError(t, err)
	// the salary is income and never due
	assert.Len(t, dash.Notifications.DueToday, 1)
	assert.Len(t, dash.Notifications.DueTomorrow, 1)
	assert.Len(t, dash.Upcoming, 4)
	assert.Equal(t, "5000.00", dash.Summary.MonthlyIncome.String())
	// the February rent belongs to the previous month
	assert.Equal(t, "4500.00", dash.Summary.MonthlyExpenses.String())
	assert.Equal(t, []string{"Moradia"}, dash.ExpenseChart.Labels)
}

func TestGoals(t *testing.T) {
	ctx := context.Background()
	b := NewSeeded()
	start, end := core.NewDate(2024, 1, 1), core.NewDate(2024, 12, 31)

	saving, err := core.NewSavingGoal("Viagem", core.MoneyFromCents(500000), start, end, core.Money{})
	require.NoError(t, err)
	created, err := b.CreateGoal(ctx, saving)
	require.NoError(t, err)

	updated, err := b.AddGoalProgress(ctx, created.ID, core.MoneyFromCents(2500))
	require.NoError(t, err)
	assert.Equal(t, int64(2500), updated.Spec.(core.SavingGoal).CurrentAmount.Cents())

	limit, err := core.NewSpendingLimit("Mercado", core.MoneyFromCents(80000), start, end, 3)
	require.NoError(t, err)
	limitGoal, err := b.CreateGoal(ctx, limit)
	require.NoError(t, err)
	_, err = b.AddGoalProgress(ctx, limitGoal.ID, core.MoneyFromCents(100))
	assert.True(t, errs.IsValidation(err))

	goals, err := b.ListGoals(ctx)
	require.NoError(t, err)
	assert.Len(t, goals, 2)
}

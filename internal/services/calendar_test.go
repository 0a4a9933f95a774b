package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easyfinances/internal/core"
)

func TestBuildMonth(t *testing.T) {
	upcoming := []core.Transaction{
		tx(1, core.NewDate(2024, 2, 10), core.Income),
		tx(2, core.NewDate(2024, 2, 10), core.Expense),
		tx(3, core.NewDate(2024, 2, 20), core.Expense),
		tx(4, core.NewDate(2024, 3, 1), core.Income),
	}
	holidays := []core.Holiday{
		{Date: core.NewDate(2024, 2, 13), Name: "Carnaval", Type: "national"},
		{Date: core.NewDate(2024, 3, 29), Name: "Sexta-feira Santa", Type: "national"},
	}

	days := BuildMonth(2024, 2, upcoming, holidays)
	require.Len(t, days, 29)
	assert.Equal(t, "2024-02-01", days[0].Date.String())
	assert.Equal(t, "2024-02-29", days[28].Date.String())

	assert.True(t, days[9].HasIncome)
	assert.True(t, days[9].HasExpense)
	assert.False(t, days[19].HasIncome)
	assert.True(t, days[19].HasExpense)
	require.Len(t, days[12].Holidays, 1)
	assert.Equal(t, "Carnaval", days[12].Holidays[0].Name)

	for i, d := range days {
		if i == 9 || i == 19 {
			continue
		}
		assert.False(t, d.HasIncome || d.HasExpense, "unexpected marker on %s", d.Date)
	}
}

func TestDaySelectionToggle(t *testing.T) {
	var sel DaySelection
	d1 := core.NewDate(2024, 3, 5)
	d2 := core.NewDate(2024, 3, 6)

	_, ok := sel.Selected()
	assert.False(t, ok)

	got, ok := sel.Toggle(d1)
	assert.True(t, ok)
	assert.True(t, got.Equal(d1))

	got, ok = sel.Toggle(d2)
	assert.True(t, ok)
	assert.True(t, got.Equal(d2))

	_, ok = sel.Toggle(d2)
	assert.False(t, ok)
	_, ok = sel.Selected()
	assert.False(t, ok)

	sel.Toggle(d1)
	sel.Clear()
	_, ok = sel.Selected()
	assert.False(t, ok)
}

func TestFilterByDay(t *testing.T) {
	txs := []core.Transaction{
		tx(1, core.NewDate(2024, 3, 5), core.Expense),
		tx(2, core.NewDate(2024, 3, 6), core.Expense),
		tx(3, core.NewDate(2024, 3, 5), core.Income),
	}

	assert.Equal(t, []int64{1, 3}, ids(FilterByDay(txs, core.NewDate(2024, 3, 5))))
	assert.Len(t, FilterByDay(txs, core.Date{}), 3)
	assert.Empty(t, FilterByDay(txs, core.NewDate(2024, 3, 7)))
}

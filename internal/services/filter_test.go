package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"easyfinances/internal/core"
	"easyfinances/internal/errs"
)

func TestTransactionFilter(t *testing.T) {
	txs := []core.Transaction{
		{ID: 1, Description: "Aluguel março", Date: core.NewDate(2024, 3, 5), Account: 1, Category: 2, Kind: core.Expense},
		{ID: 2, Description: "Salário", Date: core.NewDate(2024, 3, 5), Account: 1, Category: 1, Kind: core.Income},
		{ID: 3, Description: "Mercado", Date: core.NewDate(2024, 3, 12), Account: 2, Category: 3, Kind: core.Expense},
		{ID: 4, Description: "Aluguel abril", Date: core.NewDate(2024, 4, 5), Account: 1, Category: 2, Kind: core.Expense},
	}

	tests := []struct {
		name   string
		filter TransactionFilter
		want   []int64
	}{
		{"empty keeps everything", TransactionFilter{}, []int64{1, 2, 3, 4}},
		{"search is case insensitive", TransactionFilter{Search: "  ALUG "}, []int64{1, 4}},
		{"account", TransactionFilter{Account: 2}, []int64{3}},
		{"category", TransactionFilter{Category: 2}, []int64{1, 4}},
		{"kind", TransactionFilter{Kind: core.Income}, []int64{2}},
		{"inclusive dates", TransactionFilter{Start: core.NewDate(2024, 3, 5), End: core.NewDate(2024, 3, 12)}, []int64{1, 2, 3}},
		{"open end", TransactionFilter{Start: core.NewDate(2024, 3, 6)}, []int64{3, 4}},
		{"combined", TransactionFilter{Search: "aluguel", End: core.NewDate(2024, 3, 31)}, []int64{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(tt.filter.Apply(txs)))
		})
	}
}

func TestTransactionFilterValidate(t *testing.T) {
	assert.NoError(t, TransactionFilter{}.Validate())

	err := TransactionFilter{Kind: "transfer"}.Validate()
	assert.True(t, errs.IsValidation(err))
	assert.True(t, errors.Is(err, core.ErrInvalidKind))

	err = TransactionFilter{Start: core.NewDate(2024, 3, 2), End: core.NewDate(2024, 3, 1)}.Validate()
	assert.True(t, errors.Is(err, core.ErrEndBeforeStart))
}

func TestTransactionFilterIsEmpty(t *testing.T) {
	assert.True(t, TransactionFilter{Search: "   "}.IsEmpty())
	assert.False(t, TransactionFilter{Account: 1}.IsEmpty())
	assert.False(t, TransactionFilter{End: core.NewDate(2024, 1, 1)}.IsEmpty())
}

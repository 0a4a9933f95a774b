package core

// Summary holds the dashboard KPIs computed by the backend.
type Summary struct {
	ActualBalance      Money   `json:"actual_balance"`
	ProjectedBalance   Money   `json:"projected_balance"`
	MonthlyIncome      Money   `json:"monthly_income"`
	MonthlyExpenses    Money   `json:"monthly_expenses"`
	NetProfit          Money   `json:"net_profit"`
	NetProfitVariation float64 `json:"net_profit_variation"`
}

// ExpenseChart is the expenses-by-category series.
type ExpenseChart struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

// Notifications is the pair of due lists reported by the dashboard.
type Notifications struct {
	DueToday    []Transaction `json:"due_today"`
	DueTomorrow []Transaction `json:"due_tomorrow"`
}

type Dashboard struct {
	Summary       Summary       `json:"summary"`
	ExpenseChart  ExpenseChart  `json:"expense_chart"`
	Upcoming      []Transaction `json:"upcoming_transactions"`
	Notifications Notifications `json:"notifications"`
}

// Page is one page of a paginated collection.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// HasNext reports whether another page follows.
func (p Page[T]) HasNext() bool {
	return p.Next != nil && *p.Next != ""
}

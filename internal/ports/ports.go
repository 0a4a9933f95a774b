package ports

import (
	"context"

	"easyfinances/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionSource reads transactions from the backend.
	TransactionSource interface {
		ListTransactions(ctx context.Context, page int) (core.Page[core.Transaction], error)
		GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	}

	// TransactionWriter persists transactions. The backend materialises
	// follow-on occurrences for recurring creates and fans out edits that
	// carry apply_to_future.
	TransactionWriter interface {
		CreateTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, id int64, in core.TransactionInput) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id int64) error
	}

	// DashboardReader provides KPIs and the due-today/due-tomorrow lists.
	DashboardReader interface {
		Dashboard(ctx context.Context) (core.Dashboard, error)
	}

	// CatalogReader lists the categories and accounts a transaction can use.
	CatalogReader interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
		ListAccounts(ctx context.Context) ([]core.Account, error)
	}

	GoalStore interface {
		ListGoals(ctx context.Context) ([]core.Goal, error)
		CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error)
		AddGoalProgress(ctx context.Context, id int64, amount core.Money) (core.Goal, error)
	}

	// Authenticator exchanges credentials for a bearer token.
	Authenticator interface {
		Login(ctx context.Context, username, password string) error
		Logout(ctx context.Context) error
	}

	// HolidaySource returns the public holidays of a year.
	HolidaySource interface {
		Holidays(ctx context.Context, year int) ([]core.Holiday, error)
	}

	// KeyValueStore is string storage under fixed keys. Get reports ok=false
	// for a missing key; Remove of a missing key is not an error.
	KeyValueStore interface {
		Get(ctx context.Context, key string) (value string, ok bool, err error)
		Set(ctx context.Context, key, value string) error
		Remove(ctx context.Context, key string) error
	}
)

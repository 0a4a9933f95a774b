package http

import (
	"context"

	"easyfinances/internal/core"
	"easyfinances/internal/recurrence"
	"easyfinances/internal/services"
)

type homeService interface {
	Build(ctx context.Context, today core.Date, day *core.Date) (services.HomeView, error)
	Upcoming(ctx context.Context, today core.Date) ([]services.UpcomingItem, error)
	Month(ctx context.Context, year, month int, today core.Date) (services.MonthView, error)
	Notifications(ctx context.Context, today core.Date) (core.Notifications, bool, error)
	MarkAsPaid(ctx context.Context, today core.Date, id int64) (core.Notifications, error)
}

type notificationService interface {
	Dismiss(ctx context.Context) error
}

type sessionService interface {
	Login(ctx context.Context, username, password string) error
	Logout(ctx context.Context) error
}

type transactionService interface {
	Preview(in core.TransactionInput) (recurrence.CreatePlan, error)
	Create(ctx context.Context, in core.TransactionInput) (core.Transaction, error)
	Update(ctx context.Context, id int64, in core.TransactionInput, applyToFuture bool) (core.Transaction, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (core.Transaction, error)
	Search(ctx context.Context, page int, f services.TransactionFilter) (core.Page[core.Transaction], error)
}

type catalogService interface {
	ListCategories(ctx context.Context) ([]core.Category, error)
	ListAccounts(ctx context.Context) ([]core.Account, error)
}

type goalService interface {
	List(ctx context.Context) ([]core.Goal, error)
	Create(ctx context.Context, r services.GoalRequest) (core.Goal, error)
	AddProgress(ctx context.Context, id int64, amount core.Money) (core.Goal, error)
}

type Deps struct {
	ResponseHandler ResponseHandler

	// Today is the reference date when a request carries no today parameter.
	Today func() core.Date

	HomeSvc         homeService
	NotificationSvc notificationService
	SessionSvc      sessionService
	TransactionSvc  transactionService
	CatalogSvc      catalogService
	GoalSvc         goalService
}

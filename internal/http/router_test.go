package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"easyfinances/internal/backend/memory"
	"easyfinances/internal/cli"
	"easyfinances/internal/config"
	"easyfinances/internal/core"
	"easyfinances/internal/middleware/ratelimit"
	"easyfinances/internal/middleware/security"
	kv "easyfinances/internal/ports/memory"
)

var testToday = core.NewDate(2024, 3, 1)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

func newTestRouter(t *testing.T, cfg RouterConfig) (http.Handler, *cli.App) {
	t.Helper()
	clock := func() core.Date { return testToday }
	app := cli.Assemble(&config.Config{
		DataBackend:             config.BackendMemory,
		CacheTTL:                time.Minute,
		CacheSize:               16,
		UpcomingWindowDays:      30,
		RecurrenceHorizonMonths: 24,
	}, nil, cli.Components{
		Backend: memory.NewSeeded(memory.WithClock(clock)),
		Durable: kv.New(),
		Session: kv.New(),
		Today:   clock,
	})

	if cfg.Headers == (security.HeadersConfig{}) {
		cfg.Headers = security.DefaultHeadersConfig()
	}
	deps := &Deps{
		ResponseHandler: NewResponseHandler(),
		Today:           app.Today,
		HomeSvc:         app.Home,
		NotificationSvc: app.Reconciler,
		SessionSvc:      app.Session,
		TransactionSvc:  app.Transactions,
		CatalogSvc:      app.Backend,
		GoalSvc:         app.Goals,
	}
	return NewRouter(deps, cfg), app
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rec.Body.String())
	}
	if !env.Success {
		t.Fatalf("success = false, body %s", rec.Body.String())
	}
	if dst != nil {
		if err := json.Unmarshal(env.Data, dst); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var e ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode error: %v (body %s)", err, rec.Body.String())
	}
	return e.Code
}

func rentBody(date string) string {
	return `{"description":"Aluguel","amount":"1500","date":"` + date + `","category":2,"account":1}`
}

func createRent(t *testing.T, h http.Handler, date string) core.Transaction {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/transactions", rentBody(date))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var tx core.Transaction
	decodeData(t, rec, &tx)
	return tx
}

func TestHealthzAndHeaders(t *testing.T) {
	h, _ := newTestRouter(t, RouterConfig{})

	rec := do(t, h, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	decodeData(t, rec, nil)
}

func TestUnknownRouteIsJSON(t *testing.T) {
	h, _ := newTestRouter(t, RouterConfig{})

	rec := do(t, h, http.MethodGet, "/api/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "not_found" {
		t.Errorf("code = %q", code)
	}
}

func TestTransactionLifecycle(t *testing.T) {
	h, _ := newTestRouter(t, RouterConfig{})
	tx := createRent(t, h, "2024-03-10")
	path := "/api/transactions/" + strconv.FormatInt(tx.ID, 10)

	rec := do(t, h, http.MethodGet, "/api/transactions", "")
	var page core.Page[core.Transaction]
	decodeData(t, rec, &page)
	if page.Count != 1 || page.Results[0].Description != "Aluguel" {
		t.Fatalf("unexpected page %+v", page)
	}

	rec = do(t, h, http.MethodGet, "/api/transactions?search=mercado", "")
	decodeData(t, rec, &page)
	if page.Count != 0 || page.Results == nil {
		t.Errorf("filtered page = %+v, want empty results array", page)
	}

	rec = do(t, h, http.MethodPut, path,
		`{"description":"Aluguel","amount":"10","date":"2024-03-10","category":2,"account":1,"apply_to_future":true}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("apply_to_future on standalone: status = %d", rec.Code)
	}

	rec = do(t, h, http.MethodPut, path,
		`{"description":"Aluguel","amount":"1600","date":"2024-03-10","category":2,"account":1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body.String())
	}
	var updated core.Transaction
	decodeData(t, rec, &updated)
	if updated.Amount.String() != "1600.00" {
		t.Errorf("amount = %s", updated.Amount)
	}

	if rec = do(t, h, http.MethodDelete, path, ""); rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = do(t, h, http.MethodGet, path, "")
	if rec.Code != http.StatusNotFound || errorCode(t, rec) != "not_found" {
		t.Errorf("get after delete: status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestTransactionValidation(t *testing.T) {
	h, _ := newTestRouter(t, RouterConfig{})

	tests := []struct {
		name   string
		method string
		target string
		body   string
	}{
		{"bad type filter", http.MethodGet, "/api/transactions?type=gift", ""},
		{"bad page", http.MethodGet, "/api/transactions?page=0", ""},
		{"bad id", http.MethodGet, "/api/transactions/abc", ""},
		{"malformed body", http.MethodPost, "/api/transactions", `{"description":`},
		{"unknown field", http.MethodPost, "/api/transactions", `{"descr":"x"}`},
		{"empty description", http.MethodPost, "/api/transactions", `{"description":" ","amount":"1","date":"2024-03-10","category":2,"account":1}`},
		{"apply_to_future on create", http.MethodPost, "/api/transactions", `{"description":"x","amount":"1","date":"2024-03-10","category":2,"account":1,"apply_to_future":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.target, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			if code := errorCode(t, rec); code != "invalid_input" {
				t.Errorf("code = %q", code)
			}
		})
	}
}

func TestPreviewSendsNothing(t *testing.T) {
	h, app := newTestRouter(t, RouterConfig{})

	rec := do(t, h, http.MethodPost, "/api/transactions/preview",
		`{"description":"Aluguel","amount":"1500","date":"2024-01-31","category":2,"account":1,"is_recurring":true,"recurrence_end_date":"2024-04-30"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Occurrences []string `json:"occurrences"`
	}
	decodeData(t, rec, &resp)
	want := []string{"2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30"}
	if strings.Join(resp.Occurrences, ",") != strings.Join(want, ",") {
		t.Errorf("occurrences = %v, want %v", resp.Occurrences, want)
	}

	all, err := app.Transactions.All(context.Background())
	if err != nil || len(all) != 0 {
		t.Errorf("preview created %d transactions (err %v)", len(all), err)
	}
}

func TestNotificationsFlow(t *testing.T) {
	h, _ := newTestRouter(t, RouterConfig{})
	tx := createRent(t, h, "2024-03-01")

	var due struct {
		DueToday  []core.Transaction `json:"due_today"`
		ShowPopup bool               `json:"show_popup"`
	}
	decodeData(t, do(t, h, http.MethodGet, "/api/notifications", ""), &due)
	if len(due.DueToday) != 1 || !due.ShowPopup {
		t.Fatalf("first read = %+v", due)
	}

	rec := do(t, h, http.MethodPost, "/api/notifications/"+strconv.FormatInt(tx.ID, 10)+"/paid", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("paid status = %d, body %s", rec.Code, rec.Body.String())
	}
	var remaining core.Notifications
	decodeData(t, rec, &remaining)
	if len(remaining.DueToday) != 0 {
		t.Errorf("remaining due today = %+v", remaining.DueToday)
	}

	due.DueToday, due.ShowPopup = nil, false
	decodeData(t, do(t, h, http.MethodGet, "/api/notifications", ""), &due)
	if len(due.DueToday) != 0 {
		t.Errorf("paid notification still listed: %+v", due.DueToday)
	}

	if rec = do(t, h, http.MethodPost, "/api/notifications/dismiss", ""); rec.Code != http.StatusOK {
		t.Errorf("dismiss status = %d", rec.Code)
	}
	if rec = do(t, h, http.MethodPost, "/api/notifications/x/paid", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d", rec.Code)
	}
}

func TestMarkAsPaidBeforeAnyRead(t *testing.T) {
	h, _ := newTestRouter(t, RouterConfig{})
	paid := createRent(t, h, "2024-03-01")
	other := createRent(t, h, "2024-03-01")

	rec := do(t, h, http.MethodPost, "/api/notifications/"+strconv.FormatInt(paid.ID, 10)+"/paid", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("paid status = %d, body %s", rec.Code, rec.Body.String())
	}
	var remaining core.Notifications
	decodeData(t, rec, &remaining)
	if len(remaining.DueToday) != 1 || remaining.DueToday[0].ID != other.ID {
		t.Errorf("remaining due today = %+v, want only %d", remaining.DueToday, other.ID)
	}
}

func TestHomeAndCalendar(t *testing.T) {
	h, _ := newTestRouter(t, RouterConfig{})
	createRent(t, h, "2024-03-05")

	var view struct {
		Today    string `json:"today"`
		Upcoming []struct {
			DueLabel string `json:"due_label"`
		} `json:"upcoming"`
	}
	decodeData(t, do(t, h, http.MethodGet, "/api/home?today=2024-03-01", ""), &view)
	if view.Today != "2024-03-01" || len(view.Upcoming) != 1 || view.Upcoming[0].DueLabel != "due in 4 days" {
		t.Errorf("unexpected home view %+v", view)
	}

	decodeData(t, do(t, h, http.MethodGet, "/api/home?day=2024-03-06", ""), &view)
	if len(view.Upcoming) != 0 {
		t.Errorf("day filter kept %d items", len(view.Upcoming))
	}

	var month struct {
		Days []struct {
			Date       string `json:"date"`
			HasExpense bool   `json:"has_expense"`
		} `json:"days"`
	}
	decodeData(t, do(t, h, http.MethodGet, "/api/calendar/2024/3", ""), &month)
	if len(month.Days) != 31 || !month.Days[4].HasExpense {
		t.Errorf("unexpected month %+v", month)
	}

	for _, target := range []string{"/api/home?today=2024-02-30", "/api/calendar/2024/13", "/api/calendar/x/3"} {
		if rec := do(t, h, http.MethodGet, target, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", target, rec.Code)
		}
	}
}

func TestSessionAndCatalog(t *testing.T) {
	h, _ := newTestRouter(t, RouterConfig{})

	if rec := do(t, h, http.MethodPost, "/api/session/login", `{"username":"ana"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("missing password: status = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/session/login", `{"username":"ana","password":"secret"}`); rec.Code != http.StatusOK {
		t.Errorf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, h, http.MethodPost, "/api/session/logout", ""); rec.Code != http.StatusOK {
		t.Errorf("logout status = %d", rec.Code)
	}

	var categories []core.Category
	decodeData(t, do(t, h, http.MethodGet, "/api/categories", ""), &categories)
	if len(categories) != 4 {
		t.Errorf("categories = %d, want 4", len(categories))
	}
	var accounts []core.Account
	decodeData(t, do(t, h, http.MethodGet, "/api/accounts", ""), &accounts)
	if len(accounts) != 1 {
		t.Errorf("accounts = %d, want 1", len(accounts))
	}
}

func TestGoals(t *testing.T) {
	h, _ := newTestRouter(t, RouterConfig{})

	rec := do(t, h, http.MethodPost, "/api/goals",
		`{"name":"Viagem","goal_type":"saving_goal","target_amount":"1000","start_date":"2024-01-01","end_date":"2024-12-31","current_amount":"100"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var g struct {
		ID            int64  `json:"id"`
		CurrentAmount string `json:"current_amount"`
	}
	decodeData(t, rec, &g)

	rec = do(t, h, http.MethodPost, "/api/goals/"+strconv.FormatInt(g.ID, 10)+"/progress", `{"amount":"50"}`)
	decodeData(t, rec, &g)
	if g.CurrentAmount != "150.00" {
		t.Errorf("current_amount = %s, want 150.00", g.CurrentAmount)
	}

	var goals []json.RawMessage
	decodeData(t, do(t, h, http.MethodGet, "/api/goals", ""), &goals)
	if len(goals) != 1 {
		t.Errorf("goals = %d, want 1", len(goals))
	}

	rec = do(t, h, http.MethodPost, "/api/goals",
		`{"name":"X","goal_type":"wishlist","target_amount":"1","start_date":"2024-01-01","end_date":"2024-12-31"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown goal type: status = %d", rec.Code)
	}
}

func TestWritesAreRateLimited(t *testing.T) {
	limiter := ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: 1})
	defer limiter.Stop()
	h, _ := newTestRouter(t, RouterConfig{Limiter: limiter, Detector: security.NewDetector()})

	body := `{"username":"ana","password":"secret"}`
	if rec := do(t, h, http.MethodPost, "/api/session/login", body); rec.Code != http.StatusOK {
		t.Fatalf("first write: status = %d", rec.Code)
	}
	rec := do(t, h, http.MethodPost, "/api/session/login", body)
	if rec.Code != http.StatusTooManyRequests || errorCode(t, rec) != "rate_limited" {
		t.Fatalf("second write: status = %d, body %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
	for i := 0; i < 3; i++ {
		if rec := do(t, h, http.MethodGet, "/api/goals", ""); rec.Code != http.StatusOK {
			t.Fatalf("reads must not be limited: status = %d", rec.Code)
		}
	}
}

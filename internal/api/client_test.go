package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easyfinances/internal/core"
	"easyfinances/internal/errs"
	"easyfinances/internal/ports/memory"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *memory.Store) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	store := memory.New()
	c, err := NewClient(Config{BaseURL: srv.URL + "/api/", HTTPClient: srv.Client()}, store)
	require.NoError(t, err)
	return c, store
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{}, memory.New())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestLoginStoresToken(t *testing.T) {
	c, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/token/", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ana", body["username"])
		_, _ = io.WriteString(w, `{"access":"tok-1","refresh":"ref-1"}`)
	})

	require.NoError(t, c.Login(context.Background(), "ana", "secret"))
	v, ok, _ := store.Get(context.Background(), TokenKey)
	assert.True(t, ok)
	assert.Equal(t, "tok-1", v)

	require.NoError(t, c.Logout(context.Background()))
	_, ok, _ = store.Get(context.Background(), TokenKey)
	assert.False(t, ok)
}

func TestLoginRejectsEmptyCredentials(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	err := c.Login(context.Background(), "", "x")
	assert.True(t, errs.IsValidation(err))
}

func TestBearerTokenAttached(t *testing.T) {
	c, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-9", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"id":7,"description":"Aluguel","amount":"1500.00","date":"2024-03-05","category":2,"account":1,"category_type":"expense","is_recurring":true}`)
	})
	require.NoError(t, store.Set(context.Background(), TokenKey, "tok-9"))

	tx, err := c.GetTransaction(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), tx.ID)
	assert.Equal(t, "2024-03-05", tx.Date.String())
	assert.True(t, tx.IsPartOfSeries())
}

func TestUnauthorizedClearsToken(t *testing.T) {
	c, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"detail":"Given token not valid for any token type"}`)
	})
	require.NoError(t, store.Set(context.Background(), TokenKey, "expired"))

	_, err := c.Dashboard(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsUnauthorized(err))
	assert.Contains(t, err.Error(), "not valid")

	_, ok, _ := store.Get(context.Background(), TokenKey)
	assert.False(t, ok)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
		msg    string
	}{
		{"not found", http.StatusNotFound, `{"detail":"Not found."}`, errs.IsNotFound, "Not found."},
		{"validation", http.StatusBadRequest, `{"amount":["A valid number is required."]}`, errs.IsValidation, "amount: A valid number is required."},
		{"server error", http.StatusBadGateway, ``, errs.IsUnavailable, "Bad Gateway"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := c.GetTransaction(context.Background(), 1)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error type %T", err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestServerErrorIsTransient(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	_, err := c.Dashboard(context.Background())
	var ext *errs.ExternalServiceError
	require.ErrorAs(t, err, &ext)
	assert.True(t, ext.Transient)
	assert.Equal(t, http.StatusServiceUnavailable, ext.Status)
}

func TestCreateTransactionSendsOnlyApplicableFields(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, true, body["is_recurring"])
		assert.Equal(t, "monthly", body["recurrence_interval"])
		assert.NotContains(t, body, "recurrence_end_date")
		assert.NotContains(t, body, "apply_to_future")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":1,"description":"Aluguel","amount":"1500.00","date":"2024-01-31","category":2,"account":1,"is_recurring":true}`)
	})

	amount, _ := core.ParseMoney("1500")
	created, err := c.CreateTransaction(context.Background(), core.TransactionInput{
		Description:        "Aluguel",
		Amount:             amount,
		Date:               core.NewDate(2024, 1, 31),
		Category:           2,
		Account:            1,
		IsRecurring:        true,
		RecurrenceInterval: core.Monthly,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
}

func TestListAllTransactionsFollowsPages(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			_, _ = io.WriteString(w, `{"count":3,"next":"http://x/api/transactions/?page=2","previous":null,"results":[{"id":1,"amount":"1","date":"2024-01-01"},{"id":2,"amount":"1","date":"2024-01-02"}]}`)
		case "2":
			_, _ = io.WriteString(w, `{"count":3,"next":null,"previous":"http://x/api/transactions/","results":[{"id":3,"amount":"1","date":"2024-01-03"}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	all, err := c.ListAllTransactions(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(3), all[2].ID)
}

func TestBareArrayCollections(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/accounts/":
			_, _ = io.WriteString(w, `[{"id":1,"name":"Carteira","balance":"10.00"}]`)
		case "/api/transactions/":
			_, _ = io.WriteString(w, `[{"id":4,"amount":"2.50","date":"2024-02-01"}]`)
		}
	})

	accounts, err := c.ListAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, core.DefaultAccountType, accounts[0].Type)

	all, err := c.ListAllTransactions(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAddGoalProgress(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/goals/3/add_progress/", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "50.00", body["amount"])
		_, _ = io.WriteString(w, `{"id":3,"name":"Viagem","goal_type":"saving_goal","target_amount":"1000.00","current_amount":"150.00","start_date":"2024-01-01","end_date":"2024-12-31"}`)
	})

	g, err := c.AddGoalProgress(context.Background(), 3, core.MoneyFromCents(5000))
	require.NoError(t, err)
	saving, ok := g.Spec.(core.SavingGoal)
	require.True(t, ok)
	assert.Equal(t, "150.00", saving.CurrentAmount.String())
}

func TestDeleteNoContent(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})
	assert.NoError(t, c.DeleteTransaction(context.Background(), 5))
}

func TestPageNumber(t *testing.T) {
	link := func(s string) *string { return &s }
	tests := []struct {
		name string
		in   *string
		want int
		ok   bool
	}{
		{"nil", nil, 0, false},
		{"explicit", link("http://x/api/transactions/?page=3"), 3, true},
		{"first page omits param", link("http://x/api/transactions/"), 1, true},
		{"garbage", link("http://x/api/transactions/?page=abc"), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PageNumber(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Package http is the JSON API the web front end talks to. It exposes the
// client services over chi routes.
//
// This file holds the helpers that turn query strings, URL parameters and
// JSON bodies into domain values. Every parse failure is a validation
// error so it maps to 400.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"easyfinances/internal/core"
	"easyfinances/internal/errs"
	"easyfinances/internal/services"
)

const maxBodyBytes = 1 << 20

func invalid(format string, args ...any) error {
	return errs.Validation(fmt.Errorf(format, args...))
}

// ParseDateQuery reads an optional YYYY-MM-DD query value. ok is false when
// the parameter is absent.
func ParseDateQuery(query url.Values, name string) (d core.Date, ok bool, err error) {
	v := strings.TrimSpace(query.Get(name))
	if v == "" {
		return core.Date{}, false, nil
	}
	d, err = core.ParseDate(v)
	if err != nil {
		return core.Date{}, false, invalid("%s: %w", name, err)
	}
	return d, true, nil
}

// ParseToday resolves the reference date: the today parameter when given,
// otherwise the value of clock.
func ParseToday(query url.Values, clock func() core.Date) (core.Date, error) {
	d, ok, err := ParseDateQuery(query, "today")
	if err != nil || ok {
		return d, err
	}
	return clock(), nil
}

// ParseIDParam reads a positive integer chi URL parameter.
func ParseIDParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, invalid("invalid %s %q", name, raw)
	}
	return id, nil
}

func parseIntParam(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalid("invalid %s %q", name, raw)
	}
	return n, nil
}

// ParsePage reads the page parameter, defaulting to 1.
func ParsePage(query url.Values) (int, error) {
	v := strings.TrimSpace(query.Get("page"))
	if v == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(v)
	if err != nil || page < 1 {
		return 0, invalid("invalid page %q", v)
	}
	return page, nil
}

func parseInt64Query(query url.Values, name string) (int64, error) {
	v := strings.TrimSpace(query.Get(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, invalid("invalid %s %q", name, v)
	}
	return n, nil
}

// ParseTransactionFilter builds the list filter from the query string.
func ParseTransactionFilter(query url.Values) (services.TransactionFilter, error) {
	f := services.TransactionFilter{
		Search: sanitizeInput(query.Get("search")),
		Kind:   core.Kind(strings.TrimSpace(query.Get("type"))),
	}
	var err error
	if f.Account, err = parseInt64Query(query, "account"); err != nil {
		return f, err
	}
	if f.Category, err = parseInt64Query(query, "category"); err != nil {
		return f, err
	}
	if f.Start, _, err = ParseDateQuery(query, "start"); err != nil {
		return f, err
	}
	if f.End, _, err = ParseDateQuery(query, "end"); err != nil {
		return f, err
	}
	return f, f.Validate()
}

// DecodeJSON reads a single JSON value from the request body into dst.
// Unknown fields and trailing data are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return invalid("request body exceeds %d bytes", tooLarge.Limit)
		case errors.Is(err, io.EOF):
			return invalid("request body is empty")
		default:
			return invalid("invalid request body: %w", err)
		}
	}
	if dec.More() {
		return invalid("request body must hold a single JSON value")
	}
	return nil
}

// sanitizeInput trims whitespace and drops control characters.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

// Package holidays provides public holiday sources for the calendar view.
package holidays

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"easyfinances/internal/core"
	"easyfinances/internal/errs"
	"easyfinances/internal/ports"
)

const DefaultBrasilAPIURL = "https://brasilapi.com.br/api/feriados/v1"

// BrasilAPI fetches national holidays from BrasilAPI.
type BrasilAPI struct {
	httpClient *http.Client
	baseURL    string
}

var _ ports.HolidaySource = (*BrasilAPI)(nil)

// NewBrasilAPI builds the source. A nil client gets a pooled client with
// conservative timeouts.
func NewBrasilAPI(baseURL string, httpClient *http.Client) *BrasilAPI {
	if baseURL == "" {
		baseURL = DefaultBrasilAPIURL
	}
	if httpClient == nil {
		httpClient = newHTTPClientWithPooling()
	}
	return &BrasilAPI{httpClient: httpClient, baseURL: strings.TrimRight(baseURL, "/")}
}

type brasilAPIHoliday struct {
	Date string `json:"date"`
	Name string `json:"name"`
	Type string `json:"type"`
}

func (b *BrasilAPI) Holidays(ctx context.Context, year int) ([]core.Holiday, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/"+strconv.Itoa(year), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, errs.NewExternalServiceError("brasilapi", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return nil, errs.NewExternalServiceError("brasilapi", resp.StatusCode,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var raw []brasilAPIHoliday
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, errs.NewExternalServiceError("brasilapi", resp.StatusCode, fmt.Errorf("decode holidays: %w", err))
	}

	out := make([]core.Holiday, 0, len(raw))
	for _, h := range raw {
		d, err := core.ParseDate(h.Date)
		if err != nil {
			slog.WarnContext(ctx, "Skipping holiday with invalid date", "date", h.Date, "name", h.Name)
			continue
		}
		out = append(out, core.Holiday{Date: d, Name: h.Name, Type: h.Type})
	}
	return out, nil
}

// newHTTPClientWithPooling returns a client tuned for a handful of calls to
// one public API.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 20 * time.Second}
}

package holidays

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gcalendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"

	"easyfinances/internal/core"
	"easyfinances/internal/errs"
	"easyfinances/internal/ports"
)

// DefaultGoogleCalendarID is Google's public Brazilian holiday calendar.
const DefaultGoogleCalendarID = "pt-br.brazilian#holiday@group.v.calendar.google.com"

// GoogleCalendar reads holidays from a public Google calendar.
type GoogleCalendar struct {
	svc        *gcalendar.Service
	calendarID string
}

var _ ports.HolidaySource = (*GoogleCalendar)(nil)

// NewGoogleCalendar builds the source with an API key. Extra options are
// appended, so tests can redirect the endpoint.
func NewGoogleCalendar(ctx context.Context, apiKey, calendarID string, opts ...goption.ClientOption) (*GoogleCalendar, error) {
	if calendarID == "" {
		calendarID = DefaultGoogleCalendarID
	}
	all := make([]goption.ClientOption, 0, len(opts)+1)
	if apiKey != "" {
		all = append(all, goption.WithAPIKey(apiKey))
	}
	all = append(all, opts...)

	svc, err := gcalendar.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return &GoogleCalendar{svc: svc, calendarID: calendarID}, nil
}

func (g *GoogleCalendar) Holidays(ctx context.Context, year int) ([]core.Holiday, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	var out []core.Holiday
	call := g.svc.Events.List(g.calendarID).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(250)

	err := call.Pages(ctx, func(page *gcalendar.Events) error {
		for _, ev := range page.Items {
			if ev.Start == nil || ev.Start.Date == "" {
				continue
			}
			d, err := core.ParseDate(ev.Start.Date)
			if err != nil {
				slog.WarnContext(ctx, "Skipping calendar event with invalid date", "date", ev.Start.Date, "summary", ev.Summary)
				continue
			}
			out = append(out, core.Holiday{Date: d, Name: ev.Summary, Type: eventType(ev.Description)})
		}
		return nil
	})
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			return nil, errs.NewExternalServiceError("google-calendar", gerr.Code, err)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errs.NewExternalServiceError("google-calendar", 0, err)
	}
	return out, nil
}

// eventType maps the calendar's description line to the BrasilAPI vocabulary.
func eventType(description string) string {
	if strings.Contains(strings.ToLower(description), "public holiday") ||
		strings.Contains(strings.ToLower(description), "feriado") {
		return "national"
	}
	return "observance"
}

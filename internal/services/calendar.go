package services

import (
	"sync"

	"easyfinances/internal/core"
)

// DayMarker annotates one calendar day.
type DayMarker struct {
	Date       core.Date      `json:"date"`
	HasIncome  bool           `json:"has_income"`
	HasExpense bool           `json:"has_expense"`
	Holidays   []core.Holiday `json:"holidays,omitempty"`
}

// MonthView is a month of markers plus the degradation flag of the
// holiday source.
type MonthView struct {
	Year                int         `json:"year"`
	Month               int         `json:"month"`
	Days                []DayMarker `json:"days"`
	HolidaysUnavailable bool        `json:"holidays_unavailable"`
}

// BuildMonth returns one marker per day of the month. Transactions and
// holidays outside the month are ignored.
func BuildMonth(year, month int, upcoming []core.Transaction, holidays []core.Holiday) []DayMarker {
	n := core.DaysIn(year, month)
	days := make([]DayMarker, n)
	for i := range days {
		days[i].Date = core.NewDate(year, month, i+1)
	}

	inMonth := func(d core.Date) (int, bool) {
		if d.IsZero() || d.Year() != year || d.Month() != month {
			return 0, false
		}
		return d.Day() - 1, true
	}

	for _, t := range upcoming {
		i, ok := inMonth(t.Date)
		if !ok {
			continue
		}
		if t.Kind == core.Income {
			days[i].HasIncome = true
		} else {
			days[i].HasExpense = true
		}
	}
	for _, h := range holidays {
		if i, ok := inMonth(h.Date); ok {
			days[i].Holidays = append(days[i].Holidays, h)
		}
	}
	return days
}

// DaySelection is the selected calendar day. Selecting the selected day
// again clears it.
type DaySelection struct {
	mu       sync.Mutex
	selected core.Date
}

// Toggle selects d, or clears the selection when d is already selected.
// It returns the new selection.
func (s *DaySelection) Toggle(d core.Date) (core.Date, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.selected.IsZero() && s.selected.Equal(d) {
		s.selected = core.Date{}
		return core.Date{}, false
	}
	s.selected = d
	return d, !d.IsZero()
}

func (s *DaySelection) Selected() (core.Date, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected, !s.selected.IsZero()
}

func (s *DaySelection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = core.Date{}
}

// FilterByDay keeps the transactions dated day. A zero day keeps everything.
func FilterByDay(txs []core.Transaction, day core.Date) []core.Transaction {
	if day.IsZero() {
		return txs
	}
	out := make([]core.Transaction, 0)
	for _, t := range txs {
		if t.Date.Equal(day) {
			out = append(out, t)
		}
	}
	return out
}

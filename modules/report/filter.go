// Package report aggregates orders over a date range and exports them as CSV.
package report

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/000francisca0/Peluchemaniav3/domain/money"
	"github.com/000francisca0/Peluchemaniav3/domain/order"
)

// DateLayout is the layout of the from and to filter values.
const DateLayout = "2006-01-02"

// ErrInvalidDate is returned for filter dates that are not YYYY-MM-DD.
var ErrInvalidDate = errors.New("invalid date")

// Range is an inclusive calendar-date range. Zero bounds are open.
type Range struct {
	From time.Time
	To   time.Time
}

// ParseRange parses from and to in loc. Either may be empty. from starts at
// midnight; to covers its whole day.
func ParseRange(from, to string, loc *time.Location) (Range, error) {
	var r Range
	if from != "" {
		t, err := time.ParseInLocation(DateLayout, from, loc)
		if err != nil {
			return Range{}, fmt.Errorf("%w: from %q", ErrInvalidDate, from)
		}
		r.From = t
	}
	if to != "" {
		t, err := time.ParseInLocation(DateLayout, to, loc)
		if err != nil {
			return Range{}, fmt.Errorf("%w: to %q", ErrInvalidDate, to)
		}
		r.To = t
	}
	return r, nil
}

// Contains reports whether t falls inside the range.
func (r Range) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && !t.Before(r.To.AddDate(0, 0, 1)) {
		return false
	}
	return true
}

// Filter keeps the orders placed inside the range, newest first. orders is not modified.
func Filter(orders []order.Order, r Range) []order.Order {
	out := make([]order.Order, 0, len(orders))
	for _, o := range orders {
		if r.Contains(o.PlacedAt.Time) {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PlacedAt.After(out[j].PlacedAt.Time)
	})
	return out
}

// Summary is the revenue and order count of a filtered set.
type Summary struct {
	Revenue        float64 `json:"revenue"`
	RevenueDisplay string  `json:"revenue_display"`
	Count          int     `json:"count"`
}

// Summarize totals orders.
func Summarize(orders []order.Order) Summary {
	var s Summary
	for _, o := range orders {
		s.Revenue += o.Total
	}
	s.Count = len(orders)
	s.RevenueDisplay = money.FormatCLP(int64(math.Round(s.Revenue)))
	return s
}

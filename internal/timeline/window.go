// Package timeline implements the Gantt schedule engine: resolving the
// visible date window, mapping dates to pixel offsets, projecting the
// project/task tree into render-ready rows, tracking pointer gestures, and
// reconciling optimistic edits with the backend.
package timeline

import (
	"time"

	"github.com/PlanD600/pland-tui/internal/models"
)

// RangePolicy selects how the visible date window is derived.
type RangePolicy string

const (
	RangeAll          RangePolicy = "all"
	RangeCurrentYear  RangePolicy = "currentYear"
	RangeCurrentMonth RangePolicy = "currentMonth"
	RangeNext3Months  RangePolicy = "next3Months"
	RangeCustom       RangePolicy = "custom"
)

// RangePolicies lists the selectable policies in display order.
var RangePolicies = []RangePolicy{RangeCurrentMonth, RangeNext3Months, RangeCurrentYear, RangeAll, RangeCustom}

// Label returns the human-readable name of the policy.
func (p RangePolicy) Label() string {
	switch p {
	case RangeAll:
		return "All tasks"
	case RangeCurrentYear:
		return "Year"
	case RangeCurrentMonth:
		return "Month"
	case RangeNext3Months:
		return "3 Months"
	case RangeCustom:
		return "Custom"
	}
	return string(p)
}

const (
	// windowPadDays is added on each side of the resolved window.
	windowPadDays = 7
	// minWindowDays keeps a degenerate window renderable.
	minWindowDays = 30
)

// Window is the visible date range of the timeline.
type Window struct {
	Start     models.Date
	TotalDays int
}

// End returns the exclusive end of the window.
func (w Window) End() models.Date {
	return w.Start.AddDays(w.TotalDays)
}

// Contains reports whether d falls inside the window.
func (w Window) Contains(d models.Date) bool {
	return !d.Before(w.Start) && d.Before(w.End())
}

// ResolveWindow derives the visible window from the selection policy, the
// custom bounds (used only for RangeCustom), and the tasks currently in
// view. Any invalid resolution falls back to the current-month policy.
func ResolveWindow(policy RangePolicy, customStart, customEnd models.Date, tasks []models.Task, today models.Date) Window {
	start, end, ok := resolveBounds(policy, customStart, customEnd, tasks, today)
	if !ok {
		start, end, _ = resolveBounds(RangeCurrentMonth, models.Date{}, models.Date{}, nil, today)
	}

	start = start.AddDays(-windowPadDays)
	end = end.AddDays(windowPadDays)

	days := start.DaysUntil(end)
	if days < minWindowDays {
		days = minWindowDays
	}
	return Window{Start: start, TotalDays: days}
}

func resolveBounds(policy RangePolicy, customStart, customEnd models.Date, tasks []models.Task, today models.Date) (start, end models.Date, ok bool) {
	monthStart := models.NewDate(today.Year(), today.Month(), 1)

	switch policy {
	case RangeCurrentYear:
		return monthStart, addMonths(monthStart, 12), true

	case RangeCurrentMonth:
		return monthStart, addMonths(monthStart, 1).AddDays(-1), true

	case RangeNext3Months:
		// Through the end of the month three months out.
		return monthStart, addMonths(monthStart, 4).AddDays(-1), true

	case RangeCustom:
		if customStart.IsZero() || customEnd.IsZero() || customEnd.Before(customStart) {
			return models.Date{}, models.Date{}, false
		}
		return customStart, customEnd, true

	case RangeAll:
		var haveAny bool
		for _, t := range tasks {
			if !t.Dated() {
				continue
			}
			if !haveAny || t.StartDate.Before(start) {
				start = *t.StartDate
			}
			if !haveAny || t.EndDate.After(end) {
				end = *t.EndDate
			}
			haveAny = true
		}
		if !haveAny {
			return models.Date{}, models.Date{}, false
		}
		return start, end, true
	}

	return models.Date{}, models.Date{}, false
}

func addMonths(d models.Date, n int) models.Date {
	return models.NewDate(d.Year(), d.Month()+time.Month(n), d.Day())
}

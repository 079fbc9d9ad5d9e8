// Package recur computes successor due dates for recurring tasks.
package recur

import (
	"sort"
	"time"

	"github.com/evanmoss/taskweave/pkg/model"
)

// NextDueDate returns the due date that follows current under rule.
// The result is always strictly later than current.
//
// Monthly rules use time.AddDate month arithmetic, so a day-of-month
// that does not exist in the target month normalizes forward
// (Jan 31 + 1 month lands in early March).
func NextDueDate(current time.Time, rule model.RecurrenceRule) time.Time {
	interval := rule.Interval
	if interval < 1 {
		interval = 1
	}

	switch rule.Type {
	case model.RecurDaily:
		return current.AddDate(0, 0, interval)
	case model.RecurMonthly:
		return current.AddDate(0, interval, 0)
	case model.RecurWeekly:
		if len(rule.DaysOfWeek) == 0 {
			return current.AddDate(0, 0, 7*interval)
		}
		return nextWeekday(current, rule.DaysOfWeek, interval)
	}
	// Unknown types should have been rejected by Validate; fall back
	// to daily stepping so the result still moves forward.
	return current.AddDate(0, 0, interval)
}

// nextWeekday finds the next date strictly after current whose weekday
// is in days. While the current week still has a later weekday in the
// set, the date advances within the week; once the set is exhausted it
// jumps past (interval-1) full weeks and lands on the smallest weekday.
func nextWeekday(current time.Time, days []int, interval int) time.Time {
	sorted := append([]int(nil), days...)
	sort.Ints(sorted)

	weekday := int(current.Weekday())
	for _, d := range sorted {
		if d > weekday {
			return current.AddDate(0, 0, d-weekday)
		}
	}

	// End of the current week, skip the remaining interval, then the
	// smallest weekday in the set.
	step := (7 - weekday) + 7*(interval-1) + sorted[0]
	return current.AddDate(0, 0, step)
}

package model

// RecurrenceType names a recurrence pattern.
type RecurrenceType string

const (
	RecurDaily   RecurrenceType = "daily"
	RecurWeekly  RecurrenceType = "weekly"
	RecurMonthly RecurrenceType = "monthly"
)

// RecurrenceRule describes how a completed task spawns its next
// occurrence. Rules are immutable values: edits replace the whole
// rule, never patch it.
type RecurrenceRule struct {
	Type     RecurrenceType `json:"type"`
	Interval int            `json:"interval"` // every N units, >= 1
	// DaysOfWeek restricts weekly rules to specific weekdays,
	// 0=Sunday .. 6=Saturday. Ignored for other types.
	DaysOfWeek []int `json:"days_of_week,omitempty"`
}

// Validate checks the rule for malformed patterns before it is
// accepted into the store.
func (r RecurrenceRule) Validate() error {
	switch r.Type {
	case RecurDaily, RecurWeekly, RecurMonthly:
	default:
		return ErrBadRecurrence
	}
	if r.Interval < 1 {
		return ErrBadRecurrence
	}
	for _, d := range r.DaysOfWeek {
		if d < 0 || d > 6 {
			return ErrBadRecurrence
		}
	}
	return nil
}

// Clone returns a copy with its own weekday slice.
func (r RecurrenceRule) Clone() RecurrenceRule {
	c := r
	if r.DaysOfWeek != nil {
		c.DaysOfWeek = append([]int(nil), r.DaysOfWeek...)
	}
	return c
}

package calsync

import (
	"fmt"
	"strings"
	"time"

	"github.com/evanmoss/taskweave/pkg/model"
	"google.golang.org/api/calendar/v3"
)

const (
	dateLayout = "2006-01-02"

	// markerPrefix opens the attribution tag every managed event
	// carries in its description. The deletion safety check looks
	// for it before touching a remote event.
	markerPrefix = "[taskweave:"

	extendedPropertyKey = "taskweave_id"
)

// attributionTag builds the ownership marker for a task.
func attributionTag(taskID string) string {
	return markerPrefix + taskID + "]"
}

// IsOwned reports whether an event carries our ownership marker.
func IsOwned(event *calendar.Event) bool {
	if event == nil {
		return false
	}
	if strings.Contains(event.Description, markerPrefix) {
		return true
	}
	// Older events recorded ownership only in extended properties.
	if event.ExtendedProperties != nil && event.ExtendedProperties.Private != nil {
		return event.ExtendedProperties.Private[extendedPropertyKey] != ""
	}
	return false
}

// BuildEvent constructs the calendar event for a task. The caller
// guarantees the task has at least one date field (the reconciler's
// decision table guards this).
//
// Construction branches:
//   - complete planned window → timed event, or all-day when neither
//     bound carries a time-of-day component
//   - deadline only → single all-day event on that date
//   - planned start only → one-hour timed event from that start
//
// All-day bounds use exclusive end dates per the calendar contract.
func BuildEvent(task *model.Task) *calendar.Event {
	event := &calendar.Event{
		Summary:     eventSummary(task),
		ColorId:     colorForImportance(task.Importance),
		Description: eventDescription(task),
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{extendedPropertyKey: task.ID},
		},
	}

	switch {
	case task.IsScheduled():
		start, end := *task.PlannedStart, *task.PlannedEnd
		if hasClock(start) || hasClock(end) {
			event.Start = &calendar.EventDateTime{DateTime: start.UTC().Format(time.RFC3339)}
			event.End = &calendar.EventDateTime{DateTime: end.UTC().Format(time.RFC3339)}
		} else {
			event.Start = &calendar.EventDateTime{Date: start.Format(dateLayout)}
			event.End = &calendar.EventDateTime{Date: end.AddDate(0, 0, 1).Format(dateLayout)}
		}
	case task.Deadline != nil:
		day := *task.Deadline
		event.Start = &calendar.EventDateTime{Date: day.Format(dateLayout)}
		event.End = &calendar.EventDateTime{Date: day.AddDate(0, 0, 1).Format(dateLayout)}
	case task.PlannedStart != nil:
		start := *task.PlannedStart
		event.Start = &calendar.EventDateTime{DateTime: start.UTC().Format(time.RFC3339)}
		event.End = &calendar.EventDateTime{DateTime: start.Add(time.Hour).UTC().Format(time.RFC3339)}
	}

	return event
}

func eventSummary(task *model.Task) string {
	if task.Status.IsDone() {
		return "✓ " + task.Title
	}
	return task.Title
}

func eventDescription(task *model.Task) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Status: %s\n", task.Status))
	if task.Importance != nil {
		b.WriteString(fmt.Sprintf("Importance: %d\n", *task.Importance))
	}
	if task.EstimateMinutes != nil {
		b.WriteString(fmt.Sprintf("Estimate: %dm\n", *task.EstimateMinutes))
	}
	if task.ActualMinutes > 0 {
		b.WriteString(fmt.Sprintf("Spent: %dm\n", task.ActualMinutes))
	}
	if task.Description != "" {
		b.WriteString("\n")
		b.WriteString(task.Description)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(attributionTag(task.ID))
	return b.String()
}

func hasClock(t time.Time) bool {
	return t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 || t.Nanosecond() != 0
}

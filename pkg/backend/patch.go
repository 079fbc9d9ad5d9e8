package backend

import (
	"time"

	"github.com/evanmoss/taskweave/pkg/model"
)

// TaskPatch is a partial task update. Keys present with a nil value
// clear the field server-side; absent keys are left untouched.
type TaskPatch map[string]any

// NewTaskPatch returns an empty patch.
func NewTaskPatch() TaskPatch {
	return make(TaskPatch)
}

func (p TaskPatch) SetTitle(title string) TaskPatch {
	p["title"] = title
	return p
}

func (p TaskPatch) SetDescription(desc string) TaskPatch {
	p["description"] = desc
	return p
}

func (p TaskPatch) SetStatus(s model.Status) TaskPatch {
	p["status"] = s
	return p
}

func (p TaskPatch) SetParentID(id string) TaskPatch {
	if id == "" {
		p["parent_id"] = nil
	} else {
		p["parent_id"] = id
	}
	return p
}

func (p TaskPatch) SetImportance(v *int) TaskPatch {
	p["importance"] = v
	return p
}

func (p TaskPatch) SetEstimateMinutes(v *int) TaskPatch {
	p["estimate_minutes"] = v
	return p
}

func (p TaskPatch) SetActualMinutes(v int) TaskPatch {
	p["actual_minutes"] = v
	return p
}

func (p TaskPatch) SetDeadline(t *time.Time) TaskPatch {
	p["deadline"] = t
	return p
}

func (p TaskPatch) SetPlannedWindow(start, end *time.Time) TaskPatch {
	p["planned_start"] = start
	p["planned_end"] = end
	return p
}

func (p TaskPatch) SetCompletedAt(t *time.Time) TaskPatch {
	p["completed_at"] = t
	return p
}

func (p TaskPatch) SetRecurrence(r *model.RecurrenceRule) TaskPatch {
	p["recurrence"] = r
	return p
}

// SetLinkage records or clears the remote calendar linkage. Both
// halves always travel together.
func (p TaskPatch) SetLinkage(eventID, calendarID string) TaskPatch {
	if eventID == "" || calendarID == "" {
		p["gcal_event_id"] = nil
		p["gcal_calendar_id"] = nil
	} else {
		p["gcal_event_id"] = eventID
		p["gcal_calendar_id"] = calendarID
	}
	return p
}

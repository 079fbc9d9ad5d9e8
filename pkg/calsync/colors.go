package calsync

// Google Calendar event color identifiers.
const (
	colorLavender = "1"
	colorSage     = "2"
	colorBanana   = "5"
	colorTomato   = "11"
)

// colorForImportance buckets a task's importance into an event color
// so urgent work stands out on the calendar.
func colorForImportance(importance *int) string {
	if importance == nil {
		return colorLavender
	}
	switch {
	case *importance >= 80:
		return colorTomato
	case *importance >= 50:
		return colorBanana
	default:
		return colorSage
	}
}

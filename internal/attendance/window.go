package attendance

import (
	"time"

	"github.com/kozaktomas/face-clock/internal/database"
)

// DayWindow computes the boundaries of the current work day. Days start at
// midnight in the configured location, so a night-shift exit after midnight
// lands in a fresh day and resolves to an entry on the next punch.
type DayWindow struct {
	loc *time.Location
}

// NewDayWindow creates a day window for the given location. A nil location
// means UTC.
func NewDayWindow(loc *time.Location) DayWindow {
	if loc == nil {
		loc = time.UTC
	}
	return DayWindow{loc: loc}
}

// Bounds returns the inclusive range [midnight, now] of the day containing
// now, evaluated in the window's location.
func (w DayWindow) Bounds(now time.Time) (from, to time.Time) {
	local := now.In(w.loc)
	from = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, w.loc)
	return from, now
}

// NextKind returns the kind the next punch should record, given the
// employee's last event of the current day. No event yet means entry;
// otherwise the direction alternates.
func NextKind(last *database.AttendanceEvent) database.EventKind {
	if last == nil {
		return database.KindEntry
	}
	return last.Kind.Opposite()
}

package database

import (
	"context"
	"time"
)

// EmployeeReader provides read access to enrolled employees.
type EmployeeReader interface {
	// ListEnrolled returns all employees in enrollment order (oldest first).
	// The order is load-bearing: the matcher breaks distance ties by
	// scanning candidates in this order.
	ListEnrolled(ctx context.Context) ([]Employee, error)

	// Get returns the employee with the given ID, or nil when not found.
	Get(ctx context.Context, id string) (*Employee, error)

	// ListModelVersions summarizes enrollments per embedding model version.
	ListModelVersions(ctx context.Context) ([]ModelVersionCount, error)
}

// EmployeeWriter provides write access to enrolled employees.
type EmployeeWriter interface {
	// Create stores a new enrollment. The employee's ID must be set.
	Create(ctx context.Context, employee *Employee) error

	// DeleteByModelVersion removes every enrollment produced by the given
	// model version and returns the number of removed rows.
	DeleteByModelVersion(ctx context.Context, modelVersion string) (int64, error)
}

// EventReader provides read access to attendance events.
type EventReader interface {
	// FindLastInRange returns the employee's most recent event with
	// from <= occurred_at <= to, or nil when there is none.
	FindLastInRange(ctx context.Context, employeeID string, from, to time.Time) (*AttendanceEvent, error)

	// ListByEmployee returns the employee's events, newest first,
	// up to limit entries. limit <= 0 means no limit.
	ListByEmployee(ctx context.Context, employeeID string, limit int) ([]AttendanceEvent, error)

	// ListRange returns all events with from <= occurred_at <= to,
	// oldest first.
	ListRange(ctx context.Context, from, to time.Time) ([]AttendanceEvent, error)
}

// EventWriter provides write access to attendance events.
type EventWriter interface {
	// Append stores a new event. The event's ID must be set.
	Append(ctx context.Context, event *AttendanceEvent) error
}

// EmployeeStore combines employee read and write access.
type EmployeeStore interface {
	EmployeeReader
	EmployeeWriter
}

// EventStore combines event read and write access.
type EventStore interface {
	EventReader
	EventWriter
}

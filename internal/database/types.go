// Package database defines the storage types and repository interfaces for
// the attendance system. Concrete backends live in the postgres, mock and
// legacy subpackages.
package database

import "time"

// EventKind is the direction of an attendance event.
type EventKind string

const (
	KindEntry EventKind = "entry"
	KindExit  EventKind = "exit"
)

// Opposite returns the kind that follows k in the daily entry/exit cycle.
func (k EventKind) Opposite() EventKind {
	if k == KindEntry {
		return KindExit
	}
	return KindEntry
}

// Valid reports whether k is a known event kind.
func (k EventKind) Valid() bool {
	return k == KindEntry || k == KindExit
}

// Employee is an enrolled identity with its reference face embedding.
type Employee struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	Department   string
	PhotoRef     string // reference to the enrollment capture, informational
	ModelVersion string // embedding model that produced the vector
	Dim          int
	Embedding    []float32
	CreatedAt    time.Time
}

// AttendanceEvent is a single recorded punch.
type AttendanceEvent struct {
	ID           string
	EmployeeID   string
	EmployeeName string
	Kind         EventKind
	OccurredAt   time.Time
	ImageRef     string // reference to the capture that produced the punch
}

// ModelVersionCount summarizes how many enrollments use a given embedding
// model version.
type ModelVersionCount struct {
	ModelVersion string
	Dim          int
	Count        int
}

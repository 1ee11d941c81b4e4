package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kozaktomas/face-clock/internal/database"
)

// EventRepository provides PostgreSQL-backed attendance event storage.
type EventRepository struct {
	pool *Pool
}

// NewEventRepository creates a new PostgreSQL event repository.
func NewEventRepository(pool *Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

const eventColumns = "id, employee_id, employee_name, kind, occurred_at, image_ref"

// Append stores a new event.
func (r *EventRepository) Append(ctx context.Context, event *database.AttendanceEvent) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO attendance_events (id, employee_id, employee_name, kind, occurred_at, image_ref)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		event.ID,
		event.EmployeeID,
		event.EmployeeName,
		string(event.Kind),
		event.OccurredAt,
		event.ImageRef,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// FindLastInRange returns the employee's most recent event with
// from <= occurred_at <= to, or nil when there is none.
func (r *EventRepository) FindLastInRange(ctx context.Context, employeeID string, from, to time.Time) (*database.AttendanceEvent, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+eventColumns+`
		FROM attendance_events
		WHERE employee_id = $1 AND occurred_at >= $2 AND occurred_at <= $3
		ORDER BY occurred_at DESC
		LIMIT 1
	`, employeeID, from, to)

	event, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find last event: %w", err)
	}
	return event, nil
}

// ListByEmployee returns the employee's events, newest first.
func (r *EventRepository) ListByEmployee(ctx context.Context, employeeID string, limit int) ([]database.AttendanceEvent, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM attendance_events
		WHERE employee_id = $1
		ORDER BY occurred_at DESC
	`
	args := []any{employeeID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListRange returns all events within the range, oldest first.
func (r *EventRepository) ListRange(ctx context.Context, from, to time.Time) ([]database.AttendanceEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+eventColumns+`
		FROM attendance_events
		WHERE occurred_at >= $1 AND occurred_at <= $2
		ORDER BY occurred_at
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvent(s scanner) (*database.AttendanceEvent, error) {
	var e database.AttendanceEvent
	var kind string
	if err := s.Scan(
		&e.ID,
		&e.EmployeeID,
		&e.EmployeeName,
		&kind,
		&e.OccurredAt,
		&e.ImageRef,
	); err != nil {
		return nil, err
	}
	e.Kind = database.EventKind(kind)
	return &e, nil
}

func scanEvents(rows *sql.Rows) ([]database.AttendanceEvent, error) {
	var events []database.AttendanceEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

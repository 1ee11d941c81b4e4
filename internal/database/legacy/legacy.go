// Package legacy reads employee records and punch history from the previous
// attendance system's MySQL database. Read-only; the import command copies
// the data into PostgreSQL and re-enrolls faces from the stored photos.
package legacy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Pool manages a MySQL connection pool to the legacy system.
type Pool struct {
	db *sql.DB
}

// NewPool creates a new MySQL connection pool.
func NewPool(dsn string) (*Pool, error) {
	if dsn == "" {
		return nil, errors.New("legacy MySQL DSN is required")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	return &Pool{db: db}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("closing database connection: %w", err)
		}
	}
	return nil
}

// Employee is an employee record in the legacy system.
type Employee struct {
	ID         int64
	Name       string
	Email      string
	Phone      string
	Department string
	PhotoPath  string
}

// Punch is a raw punch record in the legacy system. Direction is "in" or
// "out" there; the importer maps it onto entry/exit.
type Punch struct {
	EmployeeID int64
	Direction  string
	PunchedAt  time.Time
}

// GetEmployees returns all employee records, oldest first. The order is kept
// on import so seniority translates into enrollment order.
func (p *Pool) GetEmployees(ctx context.Context) ([]Employee, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(email, ''), COALESCE(phone, ''), COALESCE(department, ''), COALESCE(photo_path, '')
		FROM employees
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query legacy employees: %w", err)
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Email, &e.Phone, &e.Department, &e.PhotoPath); err != nil {
			return nil, fmt.Errorf("scan legacy employee: %w", err)
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate legacy employees: %w", err)
	}
	return employees, nil
}

// GetPunches returns the punch history of one legacy employee, oldest first.
func (p *Pool) GetPunches(ctx context.Context, employeeID int64) ([]Punch, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT employee_id, direction, punched_at
		FROM punches
		WHERE employee_id = ?
		ORDER BY punched_at
	`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("query legacy punches: %w", err)
	}
	defer rows.Close()

	var punches []Punch
	for rows.Next() {
		var punch Punch
		if err := rows.Scan(&punch.EmployeeID, &punch.Direction, &punch.PunchedAt); err != nil {
			return nil, fmt.Errorf("scan legacy punch: %w", err)
		}
		punches = append(punches, punch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate legacy punches: %w", err)
	}
	return punches, nil
}

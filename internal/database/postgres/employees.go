package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/face-clock/internal/database"
	"github.com/pgvector/pgvector-go"
)

// EmployeeRepository provides PostgreSQL-backed employee storage.
type EmployeeRepository struct {
	pool *Pool
}

// NewEmployeeRepository creates a new PostgreSQL employee repository.
func NewEmployeeRepository(pool *Pool) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

const employeeColumns = "id, name, email, phone, department, photo_ref, model_version, dim, embedding, created_at"

// Create stores a new enrollment.
func (r *EmployeeRepository) Create(ctx context.Context, employee *database.Employee) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO employees (id, name, email, phone, department, photo_ref, model_version, dim, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		employee.ID,
		employee.Name,
		employee.Email,
		employee.Phone,
		employee.Department,
		employee.PhotoRef,
		employee.ModelVersion,
		employee.Dim,
		pgvector.NewVector(employee.Embedding),
		employee.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert employee: %w", err)
	}
	return nil
}

// ListEnrolled returns all employees in enrollment order. The order feeds
// the matcher's tie-break, so it must be stable across calls.
func (r *EmployeeRepository) ListEnrolled(ctx context.Context) ([]database.Employee, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+employeeColumns+`
		FROM employees
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query employees: %w", err)
	}
	defer rows.Close()

	return scanEmployees(rows)
}

// Get returns the employee with the given ID, or nil when not found.
func (r *EmployeeRepository) Get(ctx context.Context, id string) (*database.Employee, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+employeeColumns+`
		FROM employees
		WHERE id = $1
	`, id)

	employee, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	return employee, nil
}

// ListModelVersions summarizes enrollments per embedding model version.
func (r *EmployeeRepository) ListModelVersions(ctx context.Context) ([]database.ModelVersionCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT model_version, MAX(dim), COUNT(*)
		FROM employees
		GROUP BY model_version
		ORDER BY model_version
	`)
	if err != nil {
		return nil, fmt.Errorf("query model versions: %w", err)
	}
	defer rows.Close()

	var result []database.ModelVersionCount
	for rows.Next() {
		var c database.ModelVersionCount
		if err := rows.Scan(&c.ModelVersion, &c.Dim, &c.Count); err != nil {
			return nil, fmt.Errorf("scan model version: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate model versions: %w", err)
	}
	return result, nil
}

// DeleteByModelVersion removes every enrollment for the given model version.
func (r *EmployeeRepository) DeleteByModelVersion(ctx context.Context, modelVersion string) (int64, error) {
	result, err := r.pool.Exec(ctx, "DELETE FROM employees WHERE model_version = $1", modelVersion)
	if err != nil {
		return 0, fmt.Errorf("delete employees: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return removed, nil
}

// scanner abstracts sql.Row and sql.Rows for shared scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanEmployee(s scanner) (*database.Employee, error) {
	var e database.Employee
	var vec pgvector.Vector
	if err := s.Scan(
		&e.ID,
		&e.Name,
		&e.Email,
		&e.Phone,
		&e.Department,
		&e.PhotoRef,
		&e.ModelVersion,
		&e.Dim,
		&vec,
		&e.CreatedAt,
	); err != nil {
		return nil, err
	}
	e.Embedding = vec.Slice()
	return &e, nil
}

func scanEmployees(rows *sql.Rows) ([]database.Employee, error) {
	var employees []database.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		employees = append(employees, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate employees: %w", err)
	}
	return employees, nil
}

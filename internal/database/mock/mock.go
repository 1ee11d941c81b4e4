// Package mock provides in-memory implementations of the database interfaces
// for testing.
package mock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kozaktomas/face-clock/internal/database"
)

// MockEmployeeStore is an in-memory implementation of database.EmployeeStore.
type MockEmployeeStore struct {
	mu        sync.RWMutex
	employees []database.Employee

	// Error injection
	ListEnrolledError      error
	GetError               error
	CreateError            error
	DeleteError            error
	ListModelVersionsError error
}

// NewMockEmployeeStore creates a new mock employee store.
func NewMockEmployeeStore() *MockEmployeeStore {
	return &MockEmployeeStore{}
}

// AddEmployee adds an employee to the mock store, preserving insertion order.
func (m *MockEmployeeStore) AddEmployee(employee database.Employee) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if employee.CreatedAt.IsZero() {
		employee.CreatedAt = time.Now()
	}
	m.employees = append(m.employees, employee)
}

// ListEnrolled returns all employees in insertion order.
func (m *MockEmployeeStore) ListEnrolled(ctx context.Context) ([]database.Employee, error) {
	if m.ListEnrolledError != nil {
		return nil, m.ListEnrolledError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]database.Employee, len(m.employees))
	copy(result, m.employees)
	return result, nil
}

// Get returns the employee with the given ID, or nil when not found.
func (m *MockEmployeeStore) Get(ctx context.Context, id string) (*database.Employee, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.employees {
		if e.ID == id {
			emp := e
			return &emp, nil
		}
	}
	return nil, nil
}

// ListModelVersions summarizes enrollments per model version.
func (m *MockEmployeeStore) ListModelVersions(ctx context.Context) ([]database.ModelVersionCount, error) {
	if m.ListModelVersionsError != nil {
		return nil, m.ListModelVersionsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[string]*database.ModelVersionCount)
	for _, e := range m.employees {
		if c, ok := counts[e.ModelVersion]; ok {
			c.Count++
		} else {
			counts[e.ModelVersion] = &database.ModelVersionCount{
				ModelVersion: e.ModelVersion,
				Dim:          e.Dim,
				Count:        1,
			}
		}
	}

	var result []database.ModelVersionCount
	for _, c := range counts {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ModelVersion < result[j].ModelVersion
	})
	return result, nil
}

// Create stores a new enrollment.
func (m *MockEmployeeStore) Create(ctx context.Context, employee *database.Employee) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e := *employee
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	m.employees = append(m.employees, e)
	return nil
}

// DeleteByModelVersion removes every enrollment for the given model version.
func (m *MockEmployeeStore) DeleteByModelVersion(ctx context.Context, modelVersion string) (int64, error) {
	if m.DeleteError != nil {
		return 0, m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var kept []database.Employee
	var removed int64
	for _, e := range m.employees {
		if e.ModelVersion == modelVersion {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	m.employees = kept
	return removed, nil
}

// MockEventStore is an in-memory implementation of database.EventStore.
type MockEventStore struct {
	mu     sync.RWMutex
	events []database.AttendanceEvent

	// Error injection
	FindLastError  error
	ListError      error
	ListRangeError error
	AppendError    error

	// AppendDelay, when set, makes Append sleep while holding no lock.
	// Lets concurrency tests widen the read-then-append race window.
	AppendDelay time.Duration
}

// NewMockEventStore creates a new mock event store.
func NewMockEventStore() *MockEventStore {
	return &MockEventStore{}
}

// AddEvent adds an event to the mock store.
func (m *MockEventStore) AddEvent(event database.AttendanceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

// Events returns a copy of all stored events in insertion order.
func (m *MockEventStore) Events() []database.AttendanceEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]database.AttendanceEvent, len(m.events))
	copy(result, m.events)
	return result
}

// FindLastInRange returns the employee's most recent event within the range.
func (m *MockEventStore) FindLastInRange(ctx context.Context, employeeID string, from, to time.Time) (*database.AttendanceEvent, error) {
	if m.FindLastError != nil {
		return nil, m.FindLastError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var last *database.AttendanceEvent
	for i := range m.events {
		e := m.events[i]
		if e.EmployeeID != employeeID {
			continue
		}
		if e.OccurredAt.Before(from) || e.OccurredAt.After(to) {
			continue
		}
		if last == nil || e.OccurredAt.After(last.OccurredAt) {
			ev := e
			last = &ev
		}
	}
	return last, nil
}

// ListByEmployee returns the employee's events, newest first.
func (m *MockEventStore) ListByEmployee(ctx context.Context, employeeID string, limit int) ([]database.AttendanceEvent, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []database.AttendanceEvent
	for _, e := range m.events {
		if e.EmployeeID == employeeID {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].OccurredAt.After(result[j].OccurredAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ListRange returns all events within the range, oldest first.
func (m *MockEventStore) ListRange(ctx context.Context, from, to time.Time) ([]database.AttendanceEvent, error) {
	if m.ListRangeError != nil {
		return nil, m.ListRangeError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []database.AttendanceEvent
	for _, e := range m.events {
		if e.OccurredAt.Before(from) || e.OccurredAt.After(to) {
			continue
		}
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].OccurredAt.Before(result[j].OccurredAt)
	})
	return result, nil
}

// Append stores a new event.
func (m *MockEventStore) Append(ctx context.Context, event *database.AttendanceEvent) error {
	if m.AppendError != nil {
		return m.AppendError
	}
	if m.AppendDelay > 0 {
		time.Sleep(m.AppendDelay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *event)
	return nil
}

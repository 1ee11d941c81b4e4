package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kozaktomas/face-clock/internal/database"
)

func TestAttendanceLast_NoHistory(t *testing.T) {
	f := newTestFixture(t)
	handler := NewAttendanceHandler(f.engine, f.events, f.window)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/attendance/last/emp-1", nil), "employeeId", "emp-1")
	recorder := httptest.NewRecorder()
	handler.Last(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}

	var response map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if response["next_kind"] != "entry" {
		t.Errorf("expected next_kind 'entry', got '%v'", response["next_kind"])
	}
	if _, ok := response["last_event"]; ok {
		t.Error("expected no last_event without history")
	}
}

func TestAttendanceLast_AfterEntry(t *testing.T) {
	f := newTestFixture(t)
	f.events.AddEvent(database.AttendanceEvent{
		ID:           "evt-1",
		EmployeeID:   "emp-1",
		EmployeeName: "Jan Novak",
		Kind:         database.KindEntry,
		OccurredAt:   time.Now(),
	})
	handler := NewAttendanceHandler(f.engine, f.events, f.window)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/attendance/last/emp-1", nil), "employeeId", "emp-1")
	recorder := httptest.NewRecorder()
	handler.Last(recorder, req)

	var response map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if response["next_kind"] != "exit" {
		t.Errorf("expected next_kind 'exit', got '%v'", response["next_kind"])
	}
	if _, ok := response["last_event"]; !ok {
		t.Error("expected last_event in response")
	}
}

func TestAttendanceByEmployee_Limit(t *testing.T) {
	f := newTestFixture(t)
	base := time.Now().Add(-3 * time.Hour)
	for i := range 5 {
		kind := database.KindEntry
		if i%2 == 1 {
			kind = database.KindExit
		}
		f.events.AddEvent(database.AttendanceEvent{
			ID:           "evt",
			EmployeeID:   "emp-1",
			EmployeeName: "Jan Novak",
			Kind:         kind,
			OccurredAt:   base.Add(time.Duration(i) * time.Minute),
		})
	}
	handler := NewAttendanceHandler(f.engine, f.events, f.window)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/attendance/employee/emp-1?limit=3", nil), "employeeId", "emp-1")
	recorder := httptest.NewRecorder()
	handler.ByEmployee(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}

	var response struct {
		Events []EventResponse `json:"events"`
		Count  int             `json:"count"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if response.Count != 3 {
		t.Errorf("expected 3 events, got %d", response.Count)
	}
	// Newest first.
	if len(response.Events) == 3 && response.Events[0].OccurredAt.Before(response.Events[2].OccurredAt) {
		t.Error("expected newest-first ordering")
	}
}

func TestAttendanceByEmployee_InvalidLimit(t *testing.T) {
	f := newTestFixture(t)
	handler := NewAttendanceHandler(f.engine, f.events, f.window)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/attendance/employee/emp-1?limit=banana", nil), "employeeId", "emp-1")
	recorder := httptest.NewRecorder()
	handler.ByEmployee(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", recorder.Code)
	}
}

func TestAttendanceListRange_Explicit(t *testing.T) {
	f := newTestFixture(t)
	day := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	f.events.AddEvent(database.AttendanceEvent{
		ID: "in-range", EmployeeID: "emp-1", Kind: database.KindEntry,
		OccurredAt: day.Add(9 * time.Hour),
	})
	f.events.AddEvent(database.AttendanceEvent{
		ID: "out-of-range", EmployeeID: "emp-1", Kind: database.KindEntry,
		OccurredAt: day.Add(48 * time.Hour),
	})
	handler := NewAttendanceHandler(f.engine, f.events, f.window)

	target := "/api/v1/attendance?from=2025-03-14T00:00:00Z&to=2025-03-14T23:59:59Z"
	req := httptest.NewRequest(http.MethodGet, target, nil)
	recorder := httptest.NewRecorder()
	handler.ListRange(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}

	var response struct {
		Events []EventResponse `json:"events"`
		Count  int             `json:"count"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if response.Count != 1 || response.Events[0].ID != "in-range" {
		t.Errorf("expected only the in-range event, got %+v", response.Events)
	}
}

func TestAttendanceListRange_InvalidFrom(t *testing.T) {
	f := newTestFixture(t)
	handler := NewAttendanceHandler(f.engine, f.events, f.window)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance?from=yesterday", nil)
	recorder := httptest.NewRecorder()
	handler.ListRange(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", recorder.Code)
	}
}

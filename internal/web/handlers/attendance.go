package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-clock/internal/attendance"
	"github.com/kozaktomas/face-clock/internal/database"
)

// AttendanceHandler handles attendance history endpoints.
type AttendanceHandler struct {
	engine *attendance.Engine
	events database.EventReader
	window attendance.DayWindow
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(engine *attendance.Engine, events database.EventReader, window attendance.DayWindow) *AttendanceHandler {
	return &AttendanceHandler{engine: engine, events: events, window: window}
}

// EventResponse is the API shape of an attendance event.
type EventResponse struct {
	ID           string    `json:"id"`
	EmployeeID   string    `json:"employee_id"`
	EmployeeName string    `json:"employee_name"`
	Kind         string    `json:"kind"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func toEventResponse(e *database.AttendanceEvent) EventResponse {
	return EventResponse{
		ID:           e.ID,
		EmployeeID:   e.EmployeeID,
		EmployeeName: e.EmployeeName,
		Kind:         string(e.Kind),
		OccurredAt:   e.OccurredAt,
	}
}

// Last handles GET /api/v1/attendance/last/{employeeId}. It previews what
// the employee's next punch would record without writing anything.
func (h *AttendanceHandler) Last(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeId")

	kind, last, err := h.engine.Preview(r.Context(), employeeID)
	if err != nil {
		log.Printf("failed to preview attendance for %s: %v", sanitizeForLog(employeeID), err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	response := map[string]any{
		"employee_id": employeeID,
		"next_kind":   string(kind),
	}
	if last != nil {
		event := toEventResponse(last)
		response["last_event"] = event
	}
	respondJSON(w, http.StatusOK, response)
}

// ByEmployee handles GET /api/v1/attendance/employee/{employeeId}.
// Supports an optional ?limit= query parameter.
func (h *AttendanceHandler) ByEmployee(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeId")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondError(w, http.StatusBadRequest, "invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	events, err := h.events.ListByEmployee(r.Context(), employeeID, limit)
	if err != nil {
		log.Printf("failed to list attendance for %s: %v", sanitizeForLog(employeeID), err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondEventList(w, events)
}

// ListRange handles GET /api/v1/attendance. The ?from= and ?to= query
// parameters accept RFC 3339 timestamps; without them the current day
// is listed.
func (h *AttendanceHandler) ListRange(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.parseRange(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	events, err := h.events.ListRange(r.Context(), from, to)
	if err != nil {
		log.Printf("failed to list attendance range: %v", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondEventList(w, events)
}

func (h *AttendanceHandler) parseRange(r *http.Request) (from, to time.Time, err error) {
	q := r.URL.Query()
	from, to = h.window.Bounds(time.Now())

	if raw := q.Get("from"); raw != "" {
		from, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, errInvalidTimeParam("from")
		}
	}
	if raw := q.Get("to"); raw != "" {
		to, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, errInvalidTimeParam("to")
		}
	}
	return from, to, nil
}

type errInvalidTimeParam string

func (e errInvalidTimeParam) Error() string {
	return "invalid '" + string(e) + "' parameter, expected RFC 3339 timestamp"
}

func respondEventList(w http.ResponseWriter, events []database.AttendanceEvent) {
	result := make([]EventResponse, 0, len(events))
	for i := range events {
		result = append(result, toEventResponse(&events[i]))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"events": result,
		"count":  len(result),
	})
}

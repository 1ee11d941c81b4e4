package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-clock/internal/attendance"
	"github.com/kozaktomas/face-clock/internal/database"
)

// EmployeesHandler handles employee enrollment and listing.
type EmployeesHandler struct {
	engine    *attendance.Engine
	employees database.EmployeeReader
}

// NewEmployeesHandler creates a new employees handler.
func NewEmployeesHandler(engine *attendance.Engine, employees database.EmployeeReader) *EmployeesHandler {
	return &EmployeesHandler{engine: engine, employees: employees}
}

// EmployeeResponse is the API shape of an employee. The embedding stays
// server-side.
type EmployeeResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Department   string    `json:"department,omitempty"`
	ModelVersion string    `json:"model_version"`
	CreatedAt    time.Time `json:"created_at"`
}

func toEmployeeResponse(e *database.Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:           e.ID,
		Name:         e.Name,
		Email:        e.Email,
		Phone:        e.Phone,
		Department:   e.Department,
		ModelVersion: e.ModelVersion,
		CreatedAt:    e.CreatedAt,
	}
}

// EnrollResponse is returned by the enroll endpoint.
type EnrollResponse struct {
	Enrolled bool              `json:"enrolled"`
	Employee *EmployeeResponse `json:"employee,omitempty"`
	Reason   string            `json:"reason,omitempty"`
	Message  string            `json:"message,omitempty"`
}

// Enroll handles POST /api/v1/employees. The capture arrives as a multipart
// "file" part next to the form fields, or base64 in the JSON "photo" field.
func (h *EmployeesHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	req, err := parseEnrollRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "missing 'name' field")
		return
	}

	result, err := h.engine.Enroll(r.Context(), *req)
	if err != nil {
		log.Printf("enrollment fault for %s: %v", sanitizeForLog(req.Name), err)
		if errors.Is(err, attendance.ErrExtractor) {
			respondError(w, http.StatusBadGateway, "face extraction service unavailable")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if result.Rejected {
		respondJSON(w, http.StatusUnprocessableEntity, EnrollResponse{
			Enrolled: false,
			Reason:   string(result.Reason),
			Message:  result.Message,
		})
		return
	}

	employee := toEmployeeResponse(result.Employee)
	respondJSON(w, http.StatusCreated, EnrollResponse{
		Enrolled: true,
		Employee: &employee,
	})
}

// parseEnrollRequest reads the enrollment fields and capture from either a
// multipart form or a JSON body.
func parseEnrollRequest(r *http.Request) (*attendance.EnrollRequest, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		image, err := readCaptureImage(r)
		if err != nil {
			return nil, err
		}
		return &attendance.EnrollRequest{
			Name:       r.FormValue("name"),
			Email:      r.FormValue("email"),
			Phone:      r.FormValue("phone"),
			Department: r.FormValue("department"),
			Image:      image,
		}, nil
	}

	var payload struct {
		Name       string `json:"name"`
		Email      string `json:"email"`
		Phone      string `json:"phone"`
		Department string `json:"department"`
		Photo      string `json:"photo"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadSize)).Decode(&payload); err != nil {
		return nil, errors.New(errInvalidRequestBody)
	}
	if payload.Photo == "" {
		return nil, errors.New("missing 'photo' field")
	}
	image, err := base64.StdEncoding.DecodeString(payload.Photo)
	if err != nil {
		return nil, errors.New("invalid base64 in 'photo' field")
	}
	return &attendance.EnrollRequest{
		Name:       payload.Name,
		Email:      payload.Email,
		Phone:      payload.Phone,
		Department: payload.Department,
		Image:      image,
	}, nil
}

// List handles GET /api/v1/employees.
func (h *EmployeesHandler) List(w http.ResponseWriter, r *http.Request) {
	employees, err := h.employees.ListEnrolled(r.Context())
	if err != nil {
		log.Printf("failed to list employees: %v", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	result := make([]EmployeeResponse, 0, len(employees))
	for i := range employees {
		result = append(result, toEmployeeResponse(&employees[i]))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"employees": result,
		"count":     len(result),
	})
}

// Get handles GET /api/v1/employees/{id}.
func (h *EmployeesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	employee, err := h.employees.Get(r.Context(), id)
	if err != nil {
		log.Printf("failed to get employee %s: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if employee == nil {
		respondError(w, http.StatusNotFound, "employee not found")
		return
	}

	respondJSON(w, http.StatusOK, toEmployeeResponse(employee))
}

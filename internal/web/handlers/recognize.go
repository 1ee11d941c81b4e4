package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/kozaktomas/face-clock/internal/attendance"
)

// RecognizeHandler handles recognition punches from the kiosk.
type RecognizeHandler struct {
	engine *attendance.Engine
}

// NewRecognizeHandler creates a new recognize handler.
func NewRecognizeHandler(engine *attendance.Engine) *RecognizeHandler {
	return &RecognizeHandler{engine: engine}
}

// RecognizeResponse is the API shape of a recognition outcome.
type RecognizeResponse struct {
	Matched        bool    `json:"matched"`
	EmployeeID     string  `json:"employee_id,omitempty"`
	EmployeeName   string  `json:"employee_name,omitempty"`
	AttendanceType string  `json:"attendance_type,omitempty"`
	Distance       float64 `json:"distance"`
	Reason         string  `json:"reason"`
	Message        string  `json:"message"`
}

// Recognize handles POST /api/v1/attendance/recognize. Rejections and
// no-matches are 200 responses with matched=false; only infrastructure
// faults produce error statuses.
func (h *RecognizeHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	imageData, err := readCaptureImage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.engine.Recognize(r.Context(), imageData)
	if err != nil {
		log.Printf("recognition fault: %v", err)
		if errors.Is(err, attendance.ErrExtractor) {
			respondError(w, http.StatusBadGateway, "face extraction service unavailable")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, RecognizeResponse{
		Matched:        result.Matched,
		EmployeeID:     result.EmployeeID,
		EmployeeName:   result.EmployeeName,
		AttendanceType: string(result.AttendanceType),
		Distance:       result.Distance,
		Reason:         result.Reason,
		Message:        result.Message,
	})
}

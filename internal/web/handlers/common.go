// Package handlers implements the kiosk HTTP API.
package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// maxUploadSize bounds capture uploads. Kiosk captures are single camera
// frames, well under this.
const maxUploadSize = 10 << 20 // 10 MB

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// readCaptureImage extracts the capture bytes from a request. Kiosks send
// multipart uploads under the "file" part; the JSON alternative carries the
// capture base64-encoded in the "photo" field.
func readCaptureImage(r *http.Request) ([]byte, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			return nil, fmt.Errorf("parsing multipart form: %w", err)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, errors.New("missing 'file' upload")
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
		if err != nil {
			return nil, fmt.Errorf("reading upload: %w", err)
		}
		if len(data) == 0 {
			return nil, errors.New("empty upload")
		}
		return data, nil
	}

	var payload struct {
		Photo string `json:"photo"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadSize)).Decode(&payload); err != nil {
		return nil, errors.New(errInvalidRequestBody)
	}
	if payload.Photo == "" {
		return nil, errors.New("missing 'photo' field")
	}
	data, err := base64.StdEncoding.DecodeString(payload.Photo)
	if err != nil {
		return nil, errors.New("invalid base64 in 'photo' field")
	}
	return data, nil
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

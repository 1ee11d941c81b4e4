// Package attendance orchestrates the recognition pipeline: extract the face
// embedding, run the quality gate, match against the enrolled roster and
// record the resulting entry or exit event. The package distinguishes
// rejected captures (a normal outcome, returned as data) from faults
// (infrastructure errors, returned as wrapped errors).
package attendance

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/face-clock/internal/database"
	"github.com/kozaktomas/face-clock/internal/extractor"
	"github.com/kozaktomas/face-clock/internal/matcher"
	"github.com/kozaktomas/face-clock/internal/quality"
)

// Sentinel errors for fault classification. Handlers map these to transport
// status codes; everything else is a plain internal error.
var (
	// ErrExtractor marks failures of the face embedding service.
	ErrExtractor = errors.New("face extractor failure")
	// ErrStorage marks failures of the attendance database.
	ErrStorage = errors.New("attendance storage failure")
)

// FaceExtractor produces face detections with embeddings from a capture.
// Implemented by extractor.Client.
type FaceExtractor interface {
	DetectFaces(ctx context.Context, imageData []byte) (*extractor.FaceResponse, error)
}

// Result is the outcome of one recognition attempt. A rejection or a
// no-match is a successful resolution with Matched=false, not an error.
type Result struct {
	Matched        bool
	EmployeeID     string
	EmployeeName   string
	AttendanceType database.EventKind // set only when matched
	Distance       float64
	Reason         string
	Message        string
}

// EnrollRequest carries the data for a new enrollment.
type EnrollRequest struct {
	Name       string
	Email      string
	Phone      string
	Department string
	PhotoRef   string
	Image      []byte
}

// EnrollResult is the outcome of an enrollment attempt.
type EnrollResult struct {
	Employee *database.Employee // set only when accepted
	Rejected bool
	Reason   quality.Reason
	Message  string
}

// Engine wires the recognition pipeline together.
type Engine struct {
	extractor FaceExtractor
	gate      *quality.Gate
	matcher   *matcher.Matcher
	employees database.EmployeeStore
	events    database.EventStore
	window    DayWindow
	locks     *identityLocks

	modelVersion string

	// now is swapped out in tests
	now func() time.Time
}

// NewEngine creates an engine. modelVersion tags probes and enrollments with
// the embedding model in use.
func NewEngine(
	faceExtractor FaceExtractor,
	gate *quality.Gate,
	m *matcher.Matcher,
	employees database.EmployeeStore,
	events database.EventStore,
	window DayWindow,
	modelVersion string,
) *Engine {
	return &Engine{
		extractor:    faceExtractor,
		gate:         gate,
		matcher:      m,
		employees:    employees,
		events:       events,
		window:       window,
		locks:        newIdentityLocks(),
		modelVersion: modelVersion,
		now:          time.Now,
	}
}

// Recognize runs the full pipeline over a capture and, on a match, records
// the employee's next attendance event. The returned error is non-nil only
// for faults; in that case no event has been written.
func (e *Engine) Recognize(ctx context.Context, imageData []byte) (*Result, error) {
	resp, err := e.extractor.DetectFaces(ctx, imageData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractor, err)
	}

	assessment := e.gate.Assess(ctx, imageData, resp.Faces)
	if !assessment.Accepted {
		return &Result{
			Matched: false,
			Reason:  string(assessment.Reason),
			Message: quality.Message(assessment.Reason),
		}, nil
	}

	employees, err := e.employees.ListEnrolled(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	match := e.matcher.Match(e.matcher.NewProbe(resp.Faces[0].Embedding), toCandidates(employees))
	if !match.Matched {
		return &Result{
			Matched:  false,
			Distance: match.Distance,
			Reason:   string(match.Reason),
			Message:  "Face not recognized. Please contact your administrator if you are enrolled.",
		}, nil
	}

	kind, err := e.recordEvent(ctx, match.ID, match.Name, captureDigest(imageData))
	if err != nil {
		return nil, err
	}

	return &Result{
		Matched:        true,
		EmployeeID:     match.ID,
		EmployeeName:   match.Name,
		AttendanceType: kind,
		Distance:       match.Distance,
		Reason:         string(match.Reason),
		Message:        greeting(kind, match.Name),
	}, nil
}

// recordEvent resolves and appends the employee's next event under the
// per-identity lock. The lock covers the read of the last event and the
// append together, so two concurrent punches of the same person can never
// both observe the same last event.
func (e *Engine) recordEvent(ctx context.Context, employeeID, employeeName, imageRef string) (database.EventKind, error) {
	unlock := e.locks.lock(employeeID)
	defer unlock()

	now := e.now()
	from, to := e.window.Bounds(now)

	last, err := e.events.FindLastInRange(ctx, employeeID, from, to)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorage, err)
	}

	kind := NextKind(last)
	event := &database.AttendanceEvent{
		ID:           uuid.New().String(),
		EmployeeID:   employeeID,
		EmployeeName: employeeName,
		Kind:         kind,
		OccurredAt:   now,
		ImageRef:     imageRef,
	}
	if err := e.events.Append(ctx, event); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStorage, err)
	}

	return kind, nil
}

// Enroll extracts and validates a reference capture and stores the new
// employee. Quality rejections come back as data, faults as errors.
func (e *Engine) Enroll(ctx context.Context, req EnrollRequest) (*EnrollResult, error) {
	resp, err := e.extractor.DetectFaces(ctx, req.Image)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractor, err)
	}

	assessment := e.gate.Assess(ctx, req.Image, resp.Faces)
	if !assessment.Accepted {
		return &EnrollResult{
			Rejected: true,
			Reason:   assessment.Reason,
			Message:  quality.Message(assessment.Reason),
		}, nil
	}

	face := resp.Faces[0]
	employee := &database.Employee{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Department:   req.Department,
		PhotoRef:     req.PhotoRef,
		ModelVersion: e.modelVersion,
		Dim:          face.Dim,
		Embedding:    face.Embedding,
		CreatedAt:    e.now(),
	}
	if employee.Dim == 0 {
		employee.Dim = len(face.Embedding)
	}

	if err := e.employees.Create(ctx, employee); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	return &EnrollResult{Employee: employee}, nil
}

// Preview returns the kind the employee's next punch would record, without
// writing anything.
func (e *Engine) Preview(ctx context.Context, employeeID string) (database.EventKind, *database.AttendanceEvent, error) {
	from, to := e.window.Bounds(e.now())
	last, err := e.events.FindLastInRange(ctx, employeeID, from, to)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return NextKind(last), last, nil
}

func toCandidates(employees []database.Employee) []matcher.Candidate {
	candidates := make([]matcher.Candidate, 0, len(employees))
	for _, e := range employees {
		candidates = append(candidates, matcher.Candidate{
			ID:           e.ID,
			Name:         e.Name,
			ModelVersion: e.ModelVersion,
			Vector:       e.Embedding,
		})
	}
	return candidates
}

// captureDigest derives a stable reference for a capture without persisting
// it. Kiosks archive their frames locally; the digest ties an event back to
// the archived capture.
func captureDigest(imageData []byte) string {
	return fmt.Sprintf("sha256:%x", sha256.Sum256(imageData))
}

func greeting(kind database.EventKind, name string) string {
	if kind == database.KindEntry {
		return fmt.Sprintf("Welcome, %s!", name)
	}
	return fmt.Sprintf("Goodbye, %s!", name)
}

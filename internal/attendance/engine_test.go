package attendance

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kozaktomas/face-clock/internal/config"
	"github.com/kozaktomas/face-clock/internal/database"
	"github.com/kozaktomas/face-clock/internal/database/mock"
	"github.com/kozaktomas/face-clock/internal/extractor"
	"github.com/kozaktomas/face-clock/internal/matcher"
	"github.com/kozaktomas/face-clock/internal/quality"
)

const testModelVersion = "buffalo_l"

type fakeExtractor struct {
	resp *extractor.FaceResponse
	err  error
}

func (f *fakeExtractor) DetectFaces(ctx context.Context, imageData []byte) (*extractor.FaceResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func singleFaceResponse(embedding []float32) *extractor.FaceResponse {
	return &extractor.FaceResponse{
		FacesCount: 1,
		Model:      testModelVersion,
		Faces: []extractor.FaceDetection{
			{
				FaceIndex: 0,
				Dim:       len(embedding),
				Embedding: embedding,
				BBox:      []float64{10, 10, 110, 110},
				DetScore:  0.97,
			},
		},
	}
}

type engineFixture struct {
	engine    *Engine
	extractor *fakeExtractor
	employees *mock.MockEmployeeStore
	events    *mock.MockEventStore
}

// newEngineFixture builds an engine over mock stores. The capture bytes used
// in tests are not decodable images, so the local liveness heuristics degrade
// to accept and the gate decision rests on the detector output alone.
func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	m, err := matcher.New(matcher.Config{
		Threshold:    0.4,
		Metric:       matcher.MetricCosine,
		ModelVersion: testModelVersion,
	})
	if err != nil {
		t.Fatalf("failed to create matcher: %v", err)
	}

	gate := quality.NewGate(config.QualityConfig{
		MinConfidence: 0.9,
		MinFaceSize:   80,
		MinSharpness:  3.0,
		MinVariance:   150.0,
	}, nil)

	fake := &fakeExtractor{}
	employees := mock.NewMockEmployeeStore()
	events := mock.NewMockEventStore()

	engine := NewEngine(fake, gate, m, employees, events, NewDayWindow(time.UTC), testModelVersion)

	return &engineFixture{
		engine:    engine,
		extractor: fake,
		employees: employees,
		events:    events,
	}
}

func (f *engineFixture) enroll(id, name string, embedding []float32) {
	f.employees.AddEmployee(database.Employee{
		ID:           id,
		Name:         name,
		ModelVersion: testModelVersion,
		Dim:          len(embedding),
		Embedding:    embedding,
	})
}

func TestRecognize_EntryThenExit(t *testing.T) {
	f := newEngineFixture(t)
	v := []float32{0.1, 0.7, 0.2}
	f.enroll("emp-1", "Jan Novak", v)
	f.extractor.resp = singleFaceResponse(v)

	first, err := f.engine.Recognize(context.Background(), []byte("capture"))
	if err != nil {
		t.Fatalf("recognize failed: %v", err)
	}
	if !first.Matched {
		t.Fatalf("expected match, got reason '%s'", first.Reason)
	}
	if first.AttendanceType != database.KindEntry {
		t.Errorf("expected first punch to be entry, got %s", first.AttendanceType)
	}
	if first.EmployeeID != "emp-1" || first.EmployeeName != "Jan Novak" {
		t.Errorf("unexpected identity: %s / %s", first.EmployeeID, first.EmployeeName)
	}

	second, err := f.engine.Recognize(context.Background(), []byte("capture"))
	if err != nil {
		t.Fatalf("recognize failed: %v", err)
	}
	if second.AttendanceType != database.KindExit {
		t.Errorf("expected second punch to be exit, got %s", second.AttendanceType)
	}

	events := f.events.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Kind != database.KindEntry || events[1].Kind != database.KindExit {
		t.Errorf("unexpected event kinds: %s, %s", events[0].Kind, events[1].Kind)
	}
}

func TestRecognize_DailyAlternation(t *testing.T) {
	f := newEngineFixture(t)
	v := []float32{0.4, 0.4, 0.1}
	f.enroll("emp-1", "Jan Novak", v)
	f.extractor.resp = singleFaceResponse(v)

	for i := range 7 {
		result, err := f.engine.Recognize(context.Background(), []byte("capture"))
		if err != nil {
			t.Fatalf("punch %d failed: %v", i, err)
		}
		expected := database.KindEntry
		if i%2 == 1 {
			expected = database.KindExit
		}
		if result.AttendanceType != expected {
			t.Errorf("punch %d: expected %s, got %s", i, expected, result.AttendanceType)
		}
	}
}

func TestRecognize_NewDayStartsWithEntry(t *testing.T) {
	f := newEngineFixture(t)
	v := []float32{0.2, 0.2, 0.9}
	f.enroll("emp-1", "Jan Novak", v)
	f.extractor.resp = singleFaceResponse(v)

	// Last punch of the day is an entry at 23:50.
	day1 := time.Date(2025, 3, 14, 23, 50, 0, 0, time.UTC)
	f.engine.now = func() time.Time { return day1 }

	first, err := f.engine.Recognize(context.Background(), []byte("capture"))
	if err != nil {
		t.Fatalf("recognize failed: %v", err)
	}
	if first.AttendanceType != database.KindEntry {
		t.Fatalf("expected entry, got %s", first.AttendanceType)
	}

	// Ten minutes later it is a new day; yesterday's open entry must not
	// leak into today and the punch resolves to entry again.
	day2 := time.Date(2025, 3, 15, 0, 0, 1, 0, time.UTC)
	f.engine.now = func() time.Time { return day2 }

	second, err := f.engine.Recognize(context.Background(), []byte("capture"))
	if err != nil {
		t.Fatalf("recognize failed: %v", err)
	}
	if second.AttendanceType != database.KindEntry {
		t.Errorf("expected entry on new day, got %s", second.AttendanceType)
	}
}

func TestRecognize_NoMatchForUnknownFace(t *testing.T) {
	f := newEngineFixture(t)
	f.enroll("emp-1", "Jan Novak", []float32{1, 0, 0})
	f.extractor.resp = singleFaceResponse([]float32{0, 1, 0}) // orthogonal

	result, err := f.engine.Recognize(context.Background(), []byte("capture"))
	if err != nil {
		t.Fatalf("recognize failed: %v", err)
	}
	if result.Matched {
		t.Fatal("expected no match")
	}
	if result.Reason != matcher.ReasonNoMatch {
		t.Errorf("expected reason '%s', got '%s'", matcher.ReasonNoMatch, result.Reason)
	}
	if result.EmployeeID != "" || result.EmployeeName != "" {
		t.Error("unmatched result must not name anyone")
	}
	if len(f.events.Events()) != 0 {
		t.Error("no event must be written for an unmatched capture")
	}
}

func TestRecognize_EmptyRoster(t *testing.T) {
	f := newEngineFixture(t)
	f.extractor.resp = singleFaceResponse([]float32{1, 0, 0})

	result, err := f.engine.Recognize(context.Background(), []byte("capture"))
	if err != nil {
		t.Fatalf("recognize failed: %v", err)
	}
	if result.Matched {
		t.Fatal("expected no match for empty roster")
	}
	if result.Reason != matcher.ReasonNoEnrolledIdentities {
		t.Errorf("expected reason '%s', got '%s'", matcher.ReasonNoEnrolledIdentities, result.Reason)
	}
}

func TestRecognize_QualityRejection(t *testing.T) {
	f := newEngineFixture(t)
	f.enroll("emp-1", "Jan Novak", []float32{1, 0, 0})
	f.extractor.resp = &extractor.FaceResponse{FacesCount: 0, Model: testModelVersion}

	result, err := f.engine.Recognize(context.Background(), []byte("capture"))
	if err != nil {
		t.Fatalf("rejection must not be an error: %v", err)
	}
	if result.Matched {
		t.Fatal("expected rejection")
	}
	if result.Reason != string(quality.ReasonNoFaceDetected) {
		t.Errorf("expected reason '%s', got '%s'", quality.ReasonNoFaceDetected, result.Reason)
	}
	if result.Message == "" {
		t.Error("expected operator-facing message")
	}
	if len(f.events.Events()) != 0 {
		t.Error("no event must be written for a rejected capture")
	}
}

func TestRecognize_ExtractorFault(t *testing.T) {
	f := newEngineFixture(t)
	f.extractor.err = errors.New("connection refused")

	_, err := f.engine.Recognize(context.Background(), []byte("capture"))
	if err == nil {
		t.Fatal("expected fault")
	}
	if !errors.Is(err, ErrExtractor) {
		t.Errorf("expected ErrExtractor, got %v", err)
	}
}

func TestRecognize_StorageFaultOnRead(t *testing.T) {
	f := newEngineFixture(t)
	v := []float32{0.5, 0.5, 0.5}
	f.enroll("emp-1", "Jan Novak", v)
	f.extractor.resp = singleFaceResponse(v)
	f.events.FindLastError = errors.New("connection reset")

	_, err := f.engine.Recognize(context.Background(), []byte("capture"))
	if err == nil {
		t.Fatal("expected fault")
	}
	if !errors.Is(err, ErrStorage) {
		t.Errorf("expected ErrStorage, got %v", err)
	}
	if len(f.events.Events()) != 0 {
		t.Error("no event must be written when the read fails")
	}
}

func TestRecognize_StorageFaultOnAppend(t *testing.T) {
	f := newEngineFixture(t)
	v := []float32{0.5, 0.5, 0.5}
	f.enroll("emp-1", "Jan Novak", v)
	f.extractor.resp = singleFaceResponse(v)
	f.events.AppendError = errors.New("disk full")

	_, err := f.engine.Recognize(context.Background(), []byte("capture"))
	if err == nil {
		t.Fatal("expected fault")
	}
	if !errors.Is(err, ErrStorage) {
		t.Errorf("expected ErrStorage, got %v", err)
	}
	if len(f.events.Events()) != 0 {
		t.Error("failed append must leave no partial state")
	}
}

func TestRecognize_ConcurrentPunchesAlternate(t *testing.T) {
	f := newEngineFixture(t)
	v := []float32{0.3, 0.6, 0.1}
	f.enroll("emp-1", "Jan Novak", v)
	f.extractor.resp = singleFaceResponse(v)
	f.events.AppendDelay = time.Millisecond // widen the read-then-append window

	const punches = 20
	var wg sync.WaitGroup
	errs := make(chan error, punches)
	for range punches {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.engine.Recognize(context.Background(), []byte("capture")); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent recognize failed: %v", err)
	}

	// Events are stored in append order; the per-identity lock must make
	// them strictly alternate starting with entry.
	events := f.events.Events()
	if len(events) != punches {
		t.Fatalf("expected %d events, got %d", punches, len(events))
	}
	for i, e := range events {
		expected := database.KindEntry
		if i%2 == 1 {
			expected = database.KindExit
		}
		if e.Kind != expected {
			t.Fatalf("event %d: expected %s, got %s", i, expected, e.Kind)
		}
	}
}

func TestRecognize_IndependentEmployees(t *testing.T) {
	f := newEngineFixture(t)
	f.enroll("emp-1", "Jan Novak", []float32{1, 0, 0})
	f.enroll("emp-2", "Marie Annova", []float32{0, 1, 0})

	for i, v := range [][]float32{{1, 0, 0}, {0, 1, 0}} {
		f.extractor.resp = singleFaceResponse(v)
		result, err := f.engine.Recognize(context.Background(), []byte("capture"))
		if err != nil {
			t.Fatalf("recognize %d failed: %v", i, err)
		}
		if !result.Matched {
			t.Fatalf("expected match for employee %d", i)
		}
		// Each employee's first punch of the day is an entry, regardless of
		// what other employees did.
		if result.AttendanceType != database.KindEntry {
			t.Errorf("employee %d: expected entry, got %s", i, result.AttendanceType)
		}
	}
}

func TestEnroll_StoresEmployee(t *testing.T) {
	f := newEngineFixture(t)
	v := []float32{0.2, 0.8, 0.1}
	f.extractor.resp = singleFaceResponse(v)

	result, err := f.engine.Enroll(context.Background(), EnrollRequest{
		Name:       "Jan Novak",
		Email:      "jan@example.com",
		Department: "engineering",
		Image:      []byte("capture"),
	})
	if err != nil {
		t.Fatalf("enroll failed: %v", err)
	}
	if result.Rejected {
		t.Fatalf("expected accept, got reason '%s'", result.Reason)
	}
	if result.Employee.ID == "" {
		t.Error("expected generated employee ID")
	}
	if result.Employee.ModelVersion != testModelVersion {
		t.Errorf("expected model version '%s', got '%s'", testModelVersion, result.Employee.ModelVersion)
	}
	if result.Employee.Dim != len(v) {
		t.Errorf("expected dim %d, got %d", len(v), result.Employee.Dim)
	}

	stored, err := f.employees.ListEnrolled(context.Background())
	if err != nil {
		t.Fatalf("failed to list employees: %v", err)
	}
	if len(stored) != 1 || stored[0].Name != "Jan Novak" {
		t.Errorf("unexpected stored employees: %+v", stored)
	}
}

func TestEnroll_RejectsAmbiguousCapture(t *testing.T) {
	f := newEngineFixture(t)
	face := singleFaceResponse([]float32{1, 0, 0}).Faces[0]
	f.extractor.resp = &extractor.FaceResponse{
		FacesCount: 2,
		Model:      testModelVersion,
		Faces:      []extractor.FaceDetection{face, face},
	}

	result, err := f.engine.Enroll(context.Background(), EnrollRequest{Name: "Jan", Image: []byte("capture")})
	if err != nil {
		t.Fatalf("rejection must not be an error: %v", err)
	}
	if !result.Rejected {
		t.Fatal("expected rejection")
	}
	if result.Reason != quality.ReasonAmbiguousFace {
		t.Errorf("expected reason '%s', got '%s'", quality.ReasonAmbiguousFace, result.Reason)
	}
	if len(mustList(t, f.employees)) != 0 {
		t.Error("rejected enrollment must not be stored")
	}
}

func TestPreview_DoesNotWrite(t *testing.T) {
	f := newEngineFixture(t)

	kind, last, err := f.engine.Preview(context.Background(), "emp-1")
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if kind != database.KindEntry || last != nil {
		t.Errorf("expected (entry, nil), got (%s, %+v)", kind, last)
	}

	f.events.AddEvent(database.AttendanceEvent{
		ID:         "evt-1",
		EmployeeID: "emp-1",
		Kind:       database.KindEntry,
		OccurredAt: f.engine.now(),
	})

	kind, last, err = f.engine.Preview(context.Background(), "emp-1")
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if kind != database.KindExit || last == nil {
		t.Errorf("expected (exit, event), got (%s, %+v)", kind, last)
	}
	if len(f.events.Events()) != 1 {
		t.Error("preview must not append events")
	}
}

func mustList(t *testing.T, store *mock.MockEmployeeStore) []database.Employee {
	t.Helper()
	employees, err := store.ListEnrolled(context.Background())
	if err != nil {
		t.Fatalf("failed to list employees: %v", err)
	}
	return employees
}

func TestRecognize_SkipsForeignModelVersions(t *testing.T) {
	f := newEngineFixture(t)
	v := []float32{0.9, 0.1, 0.1}

	// Same vector enrolled under an old model version must never match.
	f.employees.AddEmployee(database.Employee{
		ID:           "legacy-1",
		Name:         "Old Enrollment",
		ModelVersion: "facenet128",
		Dim:          len(v),
		Embedding:    v,
	})
	f.extractor.resp = singleFaceResponse(v)

	result, err := f.engine.Recognize(context.Background(), []byte("capture"))
	if err != nil {
		t.Fatalf("recognize failed: %v", err)
	}
	if result.Matched {
		t.Error("expected no match across model versions")
	}
}

func TestGreeting(t *testing.T) {
	if got := greeting(database.KindEntry, "Jan"); got != fmt.Sprintf("Welcome, %s!", "Jan") {
		t.Errorf("unexpected entry greeting: %s", got)
	}
	if got := greeting(database.KindExit, "Jan"); got != fmt.Sprintf("Goodbye, %s!", "Jan") {
		t.Errorf("unexpected exit greeting: %s", got)
	}
}

func TestRecognize_EventReferencesCapture(t *testing.T) {
	f := newEngineFixture(t)
	v := []float32{0.6, 0.3, 0.1}
	f.enroll("emp-1", "Jan Novak", v)
	f.extractor.resp = singleFaceResponse(v)

	capture := []byte("capture")
	if _, err := f.engine.Recognize(context.Background(), capture); err != nil {
		t.Fatalf("recognize failed: %v", err)
	}

	events := f.events.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	expected := fmt.Sprintf("sha256:%x", sha256.Sum256(capture))
	if events[0].ImageRef != expected {
		t.Errorf("expected image ref '%s', got '%s'", expected, events[0].ImageRef)
	}
}

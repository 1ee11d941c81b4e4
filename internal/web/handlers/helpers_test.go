package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"testing"
	"time"

	"github.com/kozaktomas/face-clock/internal/attendance"
	"github.com/kozaktomas/face-clock/internal/config"
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
				Dim:       len(embedding),
				Embedding: embedding,
				BBox:      []float64{10, 10, 110, 110},
				DetScore:  0.97,
			},
		},
	}
}

type testFixture struct {
	engine    *attendance.Engine
	extractor *fakeExtractor
	employees *mock.MockEmployeeStore
	events    *mock.MockEventStore
	window    attendance.DayWindow
}

func newTestFixture(t *testing.T) *testFixture {
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
	window := attendance.NewDayWindow(time.UTC)

	engine := attendance.NewEngine(fake, gate, m, employees, events, window, testModelVersion)

	return &testFixture{
		engine:    engine,
		extractor: fake,
		employees: employees,
		events:    events,
		window:    window,
	}
}

// multipartUpload builds a multipart request body with the capture under the
// "file" part and any extra form fields.
func multipartUpload(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "capture.jpg")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte("fake image data")); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("failed to write form field: %v", err)
		}
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	return &buf, writer.FormDataContentType()
}

func newMultipartRequest(t *testing.T, method, target string, fields map[string]string) *http.Request {
	t.Helper()
	body, contentType := multipartUpload(t, fields)
	req, err := http.NewRequest(method, target, body)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", contentType)
	return req
}

package quality

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/kozaktomas/face-clock/internal/config"
	"github.com/kozaktomas/face-clock/internal/extractor"
)

func testQualityConfig() config.QualityConfig {
	return config.QualityConfig{
		MinConfidence: 0.9,
		MinFaceSize:   80,
		MinSharpness:  3.0,
		MinVariance:   150.0,
	}
}

// encodePNG encodes an image for use as a capture in tests.
func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

// checkerboardImage produces a high-variance, high-sharpness capture.
func checkerboardImage(t *testing.T, size int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, size, size))
	for y := range size {
		for x := range size {
			if (x+y)%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return encodePNG(t, img)
}

// flatImage produces a zero-variance capture, as a photographed printout
// under glare would.
func flatImage(t *testing.T, size int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, size, size))
	for y := range size {
		for x := range size {
			img.SetGray(x, y, color.Gray{Y: 128})
		}
	}
	return encodePNG(t, img)
}

func goodFace() extractor.FaceDetection {
	return extractor.FaceDetection{
		FaceIndex: 0,
		DetScore:  0.97,
		BBox:      []float64{10, 10, 110, 110},
		Embedding: []float32{0.1, 0.2, 0.3},
	}
}

type fakeSecondOpinion struct {
	live bool
	err  error
}

func (f *fakeSecondOpinion) Name() string { return "fake" }

func (f *fakeSecondOpinion) CheckLiveness(ctx context.Context, imageData []byte) (bool, error) {
	return f.live, f.err
}

func TestAssess_AcceptsGoodCapture(t *testing.T) {
	gate := NewGate(testQualityConfig(), nil)

	result := gate.Assess(context.Background(), checkerboardImage(t, 64), []extractor.FaceDetection{goodFace()})

	if !result.Accepted {
		t.Errorf("expected accept, got reject with reason '%s'", result.Reason)
	}
}

func TestAssess_NoFace(t *testing.T) {
	gate := NewGate(testQualityConfig(), nil)

	result := gate.Assess(context.Background(), checkerboardImage(t, 64), nil)

	if result.Accepted {
		t.Fatal("expected reject for zero faces")
	}
	if result.Reason != ReasonNoFaceDetected {
		t.Errorf("expected reason '%s', got '%s'", ReasonNoFaceDetected, result.Reason)
	}
}

func TestAssess_MultipleFaces(t *testing.T) {
	gate := NewGate(testQualityConfig(), nil)

	result := gate.Assess(context.Background(), checkerboardImage(t, 64), []extractor.FaceDetection{goodFace(), goodFace()})

	if result.Accepted {
		t.Fatal("expected reject for multiple faces")
	}
	if result.Reason != ReasonAmbiguousFace {
		t.Errorf("expected reason '%s', got '%s'", ReasonAmbiguousFace, result.Reason)
	}
}

func TestAssess_LowConfidence(t *testing.T) {
	gate := NewGate(testQualityConfig(), nil)
	face := goodFace()
	face.DetScore = 0.5

	result := gate.Assess(context.Background(), checkerboardImage(t, 64), []extractor.FaceDetection{face})

	if result.Accepted {
		t.Fatal("expected reject for low detector confidence")
	}
	if result.Reason != ReasonLowConfidence {
		t.Errorf("expected reason '%s', got '%s'", ReasonLowConfidence, result.Reason)
	}
}

func TestAssess_FaceTooSmall(t *testing.T) {
	gate := NewGate(testQualityConfig(), nil)
	face := goodFace()
	face.BBox = []float64{10, 10, 50, 50} // 40x40, below the 80px floor

	result := gate.Assess(context.Background(), checkerboardImage(t, 64), []extractor.FaceDetection{face})

	if result.Accepted {
		t.Fatal("expected reject for small face")
	}
	if result.Reason != ReasonFaceTooSmall {
		t.Errorf("expected reason '%s', got '%s'", ReasonFaceTooSmall, result.Reason)
	}
}

func TestAssess_FlatImageIsSpoof(t *testing.T) {
	gate := NewGate(testQualityConfig(), nil)

	result := gate.Assess(context.Background(), flatImage(t, 64), []extractor.FaceDetection{goodFace()})

	if result.Accepted {
		t.Fatal("expected reject for flat capture")
	}
	if result.Reason != ReasonPossibleSpoof {
		t.Errorf("expected reason '%s', got '%s'", ReasonPossibleSpoof, result.Reason)
	}
}

func TestAssess_UndecodableImageDegradesToAccept(t *testing.T) {
	gate := NewGate(testQualityConfig(), nil)

	// Liveness is best-effort: a capture the heuristics cannot read must not
	// block the clock when everything else checks out.
	result := gate.Assess(context.Background(), []byte("not an image"), []extractor.FaceDetection{goodFace()})

	if !result.Accepted {
		t.Errorf("expected accept when liveness heuristics are unavailable, got reason '%s'", result.Reason)
	}
}

func TestAssess_SecondOpinionSpoof(t *testing.T) {
	gate := NewGate(testQualityConfig(), &fakeSecondOpinion{live: false})

	result := gate.Assess(context.Background(), checkerboardImage(t, 64), []extractor.FaceDetection{goodFace()})

	if result.Accepted {
		t.Fatal("expected reject when the vision model flags a spoof")
	}
	if result.Reason != ReasonPossibleSpoof {
		t.Errorf("expected reason '%s', got '%s'", ReasonPossibleSpoof, result.Reason)
	}
}

func TestAssess_SecondOpinionErrorDegradesToAccept(t *testing.T) {
	gate := NewGate(testQualityConfig(), &fakeSecondOpinion{err: errors.New("provider down")})

	result := gate.Assess(context.Background(), checkerboardImage(t, 64), []extractor.FaceDetection{goodFace()})

	if !result.Accepted {
		t.Errorf("expected accept when the liveness provider fails, got reason '%s'", result.Reason)
	}
}

func TestAssess_MissingBBoxSkipsSizeCheck(t *testing.T) {
	gate := NewGate(testQualityConfig(), nil)
	face := goodFace()
	face.BBox = nil

	result := gate.Assess(context.Background(), checkerboardImage(t, 64), []extractor.FaceDetection{face})

	if !result.Accepted {
		t.Errorf("expected accept when bbox is missing, got reason '%s'", result.Reason)
	}
}

func TestMessage_KnownAndUnknownReasons(t *testing.T) {
	if Message(ReasonNoFaceDetected) == "" {
		t.Error("expected non-empty message for known reason")
	}
	if Message(Reason("bogus")) != "Capture rejected." {
		t.Error("expected fallback message for unknown reason")
	}
}

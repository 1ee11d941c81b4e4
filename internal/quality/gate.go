// Package quality rejects probe captures that should never reach matching:
// no face or several faces, weak detections, tiny faces, and obvious replay
// or printout spoofs. The gate is a pure evaluation over the capture and the
// detector output; it mutates nothing.
package quality

import (
	"context"
	"log"

	"github.com/kozaktomas/face-clock/internal/config"
	"github.com/kozaktomas/face-clock/internal/extractor"
)

// Reason identifies why a capture was rejected. Values are stable API
// strings surfaced to the kiosk.
type Reason string

const (
	ReasonNoFaceDetected Reason = "no_face_detected"
	ReasonAmbiguousFace  Reason = "ambiguous_face"
	ReasonLowConfidence  Reason = "low_confidence"
	ReasonFaceTooSmall   Reason = "face_too_small"
	ReasonPossibleSpoof  Reason = "possible_spoof"
)

// rejectMessages maps reasons to operator-facing text.
var rejectMessages = map[Reason]string{
	ReasonNoFaceDetected: "No face detected. Please face the camera and try again.",
	ReasonAmbiguousFace:  "More than one face detected. Please make sure only you are in the frame.",
	ReasonLowConfidence:  "Face detection confidence too low. Please improve lighting and try again.",
	ReasonFaceTooSmall:   "Face too small in the frame. Please step closer to the camera.",
	ReasonPossibleSpoof:  "Capture looks like a photo of a photo. Please try again with a live capture.",
}

// Message returns the operator-facing text for a reject reason.
func Message(r Reason) string {
	if msg, ok := rejectMessages[r]; ok {
		return msg
	}
	return "Capture rejected."
}

// Assessment is the gate's verdict for one capture.
type Assessment struct {
	Accepted bool
	Reason   Reason // set only when rejected
}

func accept() Assessment {
	return Assessment{Accepted: true}
}

func reject(r Reason) Assessment {
	return Assessment{Accepted: false, Reason: r}
}

// SecondOpinion asks an external vision model whether the capture shows a
// live person. Implementations live in the liveness package.
type SecondOpinion interface {
	Name() string
	CheckLiveness(ctx context.Context, imageData []byte) (bool, error)
}

// Gate evaluates capture quality before matching is attempted.
type Gate struct {
	cfg           config.QualityConfig
	secondOpinion SecondOpinion // optional, may be nil
}

// NewGate creates a gate. secondOpinion may be nil to disable the vision
// model check.
func NewGate(cfg config.QualityConfig, secondOpinion SecondOpinion) *Gate {
	return &Gate{cfg: cfg, secondOpinion: secondOpinion}
}

// Assess runs all quality checks over a capture and its detector output.
// Every check must pass for the capture to be accepted.
//
// The liveness heuristics are best-effort: internal errors (undecodable
// image, provider outage) degrade to accept rather than blocking the clock.
func (g *Gate) Assess(ctx context.Context, imageData []byte, faces []extractor.FaceDetection) Assessment {
	switch {
	case len(faces) == 0:
		return reject(ReasonNoFaceDetected)
	case len(faces) > 1:
		return reject(ReasonAmbiguousFace)
	}

	face := faces[0]
	if face.DetScore < g.cfg.MinConfidence {
		return reject(ReasonLowConfidence)
	}

	if w, h, ok := bboxSize(face.BBox); ok {
		if w < g.cfg.MinFaceSize || h < g.cfg.MinFaceSize {
			return reject(ReasonFaceTooSmall)
		}
	}

	if assessment := g.assessLiveness(ctx, imageData); !assessment.Accepted {
		return assessment
	}

	return accept()
}

// assessLiveness runs the local heuristics and the optional vision-model
// second opinion. Errors on either path degrade to accept.
func (g *Gate) assessLiveness(ctx context.Context, imageData []byte) Assessment {
	stats, err := computeImageStats(imageData)
	if err != nil {
		log.Printf("liveness heuristics unavailable, accepting capture: %v", err)
	} else if stats.Variance < g.cfg.MinVariance || stats.Sharpness < g.cfg.MinSharpness {
		return reject(ReasonPossibleSpoof)
	}

	if g.secondOpinion != nil {
		live, err := g.secondOpinion.CheckLiveness(ctx, imageData)
		if err != nil {
			log.Printf("liveness provider %s failed, accepting capture: %v", g.secondOpinion.Name(), err)
		} else if !live {
			return reject(ReasonPossibleSpoof)
		}
	}

	return accept()
}

// bboxSize returns the width and height of a [x1, y1, x2, y2] bounding box.
func bboxSize(bbox []float64) (w, h float64, ok bool) {
	if len(bbox) != 4 {
		return 0, 0, false
	}
	return bbox[2] - bbox[0], bbox[3] - bbox[1], true
}

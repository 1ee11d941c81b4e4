package matcher

import (
	"math"
	"testing"
)

func TestCosineDistance_IdenticalVectors(t *testing.T) {
	v := []float32{0.5, 0.3, 0.2, 0.8}

	dist := CosineDistance(v, v)

	if dist != 0 {
		t.Errorf("expected distance 0 for identical vectors, got %f", dist)
	}
}

func TestCosineDistance_OppositeVectors(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{-1, 0, 0}

	dist := CosineDistance(a, b)

	if math.Abs(dist-2.0) > 1e-9 {
		t.Errorf("expected distance 2 for opposite vectors, got %f", dist)
	}
}

func TestCosineDistance_OrthogonalVectors(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}

	dist := CosineDistance(a, b)

	if math.Abs(dist-1.0) > 1e-9 {
		t.Errorf("expected distance 1 for orthogonal vectors, got %f", dist)
	}
}

func TestCosineDistance_MismatchedLengths(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{1, 0, 0}

	dist := CosineDistance(a, b)

	if dist != 2.0 {
		t.Errorf("expected max distance 2 for mismatched lengths, got %f", dist)
	}
}

func TestCosineDistance_ZeroVector(t *testing.T) {
	a := []float32{0, 0, 0}
	b := []float32{1, 2, 3}

	dist := CosineDistance(a, b)

	if dist != 2.0 {
		t.Errorf("expected max distance 2 for zero vector, got %f", dist)
	}
}

func TestCosineDistance_ScaleInvariant(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{2, 4, 6} // same direction, different magnitude

	dist := CosineDistance(a, b)

	if math.Abs(dist) > 1e-6 {
		t.Errorf("expected distance ~0 for parallel vectors, got %f", dist)
	}
}

func TestEuclideanDistance_IdenticalVectors(t *testing.T) {
	v := []float32{0.1, 0.2, 0.3}

	dist := EuclideanDistance(v, v)

	if dist != 0 {
		t.Errorf("expected distance 0 for identical vectors, got %f", dist)
	}
}

func TestEuclideanDistance_KnownValue(t *testing.T) {
	a := []float32{0, 0}
	b := []float32{3, 4}

	dist := EuclideanDistance(a, b)

	if math.Abs(dist-5.0) > 1e-9 {
		t.Errorf("expected distance 5, got %f", dist)
	}
}

func TestEuclideanDistance_MismatchedLengths(t *testing.T) {
	dist := EuclideanDistance([]float32{1}, []float32{1, 2})

	if !math.IsInf(dist, 1) {
		t.Errorf("expected +Inf for mismatched lengths, got %f", dist)
	}
}

func TestEuclideanDistance_EmptyVectors(t *testing.T) {
	dist := EuclideanDistance(nil, nil)

	if !math.IsInf(dist, 1) {
		t.Errorf("expected +Inf for empty vectors, got %f", dist)
	}
}

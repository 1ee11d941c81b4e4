// Package matcher decides whether a probe face embedding belongs to an
// enrolled identity. The decision policy is deliberately simple and fully
// deterministic: a linear scan over candidates in enrollment order, strict
// threshold comparison, and first-enrolled-wins tie breaking.
package matcher

import (
	"fmt"
	"math"
)

// Metric selects the distance function. It must match the metric the
// embedding model was trained for and is fixed per deployment.
type Metric string

const (
	MetricCosine    Metric = "cosine"
	MetricEuclidean Metric = "euclidean"
)

// Match reasons returned to callers. These are stable API values, not
// display strings.
const (
	ReasonMatched              = "matched"
	ReasonNoMatch              = "no_match"
	ReasonNoEnrolledIdentities = "no_enrolled_identities"
)

// Config holds the matcher's decision parameters. It is passed in at
// construction so multiple model generations can be tested side by side;
// nothing is read from process-wide state.
type Config struct {
	Threshold    float64
	Metric       Metric
	ModelVersion string
}

// Probe is the embedding derived from one live recognition attempt.
type Probe struct {
	ModelVersion string
	Vector       []float32
}

// Candidate is one enrolled identity's stored embedding. Candidates must be
// supplied in enrollment order; the tie-break policy depends on it.
type Candidate struct {
	ID           string
	Name         string
	ModelVersion string
	Vector       []float32
}

// MatchResult is the matcher's decision.
type MatchResult struct {
	Matched     bool
	ID          string
	Name        string
	Distance    float64 // matched: accepted distance; otherwise minimum observed distance
	Reason      string
	Comparisons int // number of candidates actually compared
	Skipped     int // candidates skipped due to model version or dimensionality mismatch
}

// Matcher compares probes against enrolled candidates.
type Matcher struct {
	cfg      Config
	distance func(a, b []float32) float64
}

// New creates a matcher for the given configuration.
func New(cfg Config) (*Matcher, error) {
	m := &Matcher{cfg: cfg}
	switch cfg.Metric {
	case MetricCosine:
		m.distance = CosineDistance
	case MetricEuclidean:
		m.distance = EuclideanDistance
	default:
		return nil, fmt.Errorf("unknown distance metric %q", cfg.Metric)
	}
	if cfg.Threshold <= 0 {
		return nil, fmt.Errorf("threshold must be positive, got %f", cfg.Threshold)
	}
	return m, nil
}

// Threshold returns the configured maximum accepted distance.
func (m *Matcher) Threshold() float64 {
	return m.cfg.Threshold
}

// NewProbe tags a raw embedding with the configured model version, so the
// version filter in Match always reflects the model this matcher was built
// for.
func (m *Matcher) NewProbe(vector []float32) Probe {
	return Probe{ModelVersion: m.cfg.ModelVersion, Vector: vector}
}

// Match scans all candidates and returns at most one accepted identity.
//
// Candidates whose model version or dimensionality differ from the probe's
// are skipped, not treated as errors; this keeps legacy enrollments from a
// retired model from breaking recognition during a migration.
//
// A candidate is accepted only when its distance is strictly below the
// threshold. Among candidates at the same minimum distance the first one
// scanned wins; callers supply candidates in enrollment order, so the
// earliest-enrolled identity is selected. This is a documented policy, not
// an accident of iteration order.
func (m *Matcher) Match(probe Probe, candidates []Candidate) MatchResult {
	if len(candidates) == 0 {
		return MatchResult{
			Matched: false,
			Reason:  ReasonNoEnrolledIdentities,
		}
	}

	result := MatchResult{}
	bestIdx := -1
	bestDist := math.Inf(1)
	minSeen := math.Inf(1)

	for i := range candidates {
		c := &candidates[i]
		if c.ModelVersion != probe.ModelVersion || len(c.Vector) != len(probe.Vector) {
			result.Skipped++
			continue
		}

		dist := m.distance(probe.Vector, c.Vector)
		result.Comparisons++

		if dist < minSeen {
			minSeen = dist
		}
		// Strict inequality on both comparisons: a distance exactly at the
		// threshold is rejected, and an equal-distance later candidate never
		// displaces an earlier one.
		if dist < m.cfg.Threshold && dist < bestDist {
			bestDist = dist
			bestIdx = i
		}
	}

	if bestIdx >= 0 {
		c := &candidates[bestIdx]
		result.Matched = true
		result.ID = c.ID
		result.Name = c.Name
		result.Distance = bestDist
		result.Reason = ReasonMatched
		return result
	}

	result.Matched = false
	result.Reason = ReasonNoMatch
	if result.Comparisons > 0 {
		// Diagnostic only; the closest identity is never named.
		result.Distance = minSeen
	}
	return result
}

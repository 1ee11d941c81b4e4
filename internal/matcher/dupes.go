package matcher

import (
	"github.com/coder/hnsw"
)

// Graph parameters for the duplicate report index. The roster is small, so
// recall matters more than build time.
const dupeMaxNeighbors = 16

// DuplicatePair reports two enrollments whose embeddings are closer than the
// given threshold, which usually means the same person was enrolled twice.
type DuplicatePair struct {
	FirstID    string
	FirstName  string
	SecondID   string
	SecondName string
	Distance   float64
}

// FindDuplicatePairs builds an in-memory HNSW index over the candidates and
// reports all pairs closer than threshold under the matcher's metric.
//
// The ANN index is only used here, never on the recognition path: the match
// policy requires a deterministic full scan in enrollment order, which an
// approximate index cannot reproduce.
func (m *Matcher) FindDuplicatePairs(candidates []Candidate, threshold float64) []DuplicatePair {
	if len(candidates) < 2 {
		return nil
	}

	g := hnsw.NewGraph[int]()
	g.M = dupeMaxNeighbors
	g.Ml = 1.0 / float64(dupeMaxNeighbors) // Standard HNSW formula
	if m.cfg.Metric == MetricEuclidean {
		g.Distance = hnsw.EuclideanDistance
	} else {
		g.Distance = hnsw.CosineDistance
	}

	indexed := make([]int, 0, len(candidates))
	for i := range candidates {
		if len(candidates[i].Vector) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(i, candidates[i].Vector))
		indexed = append(indexed, i)
	}

	const k = 6 // self plus a handful of closest neighbors
	seen := make(map[[2]int]bool)
	var pairs []DuplicatePair

	for _, i := range indexed {
		neighbors := g.Search(candidates[i].Vector, k)
		for _, n := range neighbors {
			j := n.Key
			if j == i {
				continue
			}
			key := [2]int{min(i, j), max(i, j)}
			if seen[key] {
				continue
			}
			seen[key] = true

			// Recompute the exact distance; the graph's ranking is approximate.
			dist := m.distance(candidates[key[0]].Vector, candidates[key[1]].Vector)
			if dist >= threshold {
				continue
			}
			pairs = append(pairs, DuplicatePair{
				FirstID:    candidates[key[0]].ID,
				FirstName:  candidates[key[0]].Name,
				SecondID:   candidates[key[1]].ID,
				SecondName: candidates[key[1]].Name,
				Distance:   dist,
			})
		}
	}

	return pairs
}

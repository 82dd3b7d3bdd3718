// Package similarity provides the vector math behind the semantic cache
// tier: cosine similarity and best-match search over candidate embeddings.
// It is pure computation and never blocks.
package similarity

import (
	"math"

	"github.com/fluxai/flux-gateway/internal/models"
)

// Result describes the relationship between a query vector and one candidate
type Result struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// Cosine computes the cosine similarity between two vectors of equal length.
// The result is clamped into [-1, 1] to absorb floating-point error. An
// all-zero vector on either side yields 0 by convention. Vectors of
// different lengths produce a DimensionMismatchError; they are never
// truncated or padded.
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, &models.DimensionMismatchError{Want: len(a), Got: len(b)}
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return clamp(dot / (math.Sqrt(normA) * math.Sqrt(normB))), nil
}

// Normalize returns a unit-length copy of v. An all-zero vector is returned
// unchanged.
func Normalize(v []float64) []float64 {
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	if norm == 0 {
		return v
	}

	norm = math.Sqrt(norm)
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

// BatchCosine scores a query vector against every candidate. Candidates with
// a mismatched dimension score 0 and are reported in the returned index
// slice so the caller can log and exclude them.
func BatchCosine(query []float64, candidates [][]float64) (scores []float64, mismatched []int) {
	scores = make([]float64, len(candidates))
	for i, cand := range candidates {
		score, err := Cosine(query, cand)
		if err != nil {
			mismatched = append(mismatched, i)
			continue
		}
		scores[i] = score
	}
	return scores, mismatched
}

// FindBestMatch returns the highest-scoring candidate, provided its score
// meets or exceeds threshold. Nil candidates and candidates of mismatched
// dimension are skipped. The comparison is strict, so exact ties resolve to
// the first candidate encountered, keeping results deterministic.
func FindBestMatch(query []float64, candidates [][]float64, threshold float64) (Result, bool) {
	best := Result{Index: -1, Score: math.Inf(-1)}

	for i, cand := range candidates {
		if cand == nil {
			continue
		}
		score, err := Cosine(query, cand)
		if err != nil {
			continue
		}
		if score > best.Score {
			best = Result{Index: i, Score: score}
		}
	}

	if best.Index < 0 || best.Score < threshold {
		return Result{}, false
	}
	return best, true
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

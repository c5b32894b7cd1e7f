package quality

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ColumnSums returns the per-column sums of m.
func ColumnSums(m *mat.Dense) []float64 {
	rows, cols := m.Dims()
	sums := make([]float64, cols)
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, m)
		sums[j] = floats.Sum(col)
	}
	return sums
}

// Homogeneity measures how well each network's representative time course
// explains the signal it covers. For network k the representative time course
// is the weights-weighted spatial average of the signal; it is correlated
// against every spatial location's own time course and the correlations are
// reduced by the weights-weighted average. Scores are weighted averages of
// Pearson correlations, so they lie in [-1,1] for nonnegative weights.
//
// signal is [T,S], weights [S,K]. Networks with an all-zero weight column are
// rejected with ErrDegenerateNetwork.
func Homogeneity(signal, weights *mat.Dense, eps float64) ([]float64, error) {
	return HomogeneityWithNorm(signal, weights, ColumnSums(weights), eps)
}

// HomogeneityWithNorm is Homogeneity with an explicit per-network
// normalization constant for the representative time course. The control
// condition passes group weights with the personalized weights' column sums,
// keeping both scores on the same denominator so they isolate the signal
// source rather than the network footprint.
func HomogeneityWithNorm(signal, weights *mat.Dense, norm []float64, eps float64) ([]float64, error) {
	st, ss := signal.Dims()
	ws, wk := weights.Dims()
	if ss != ws {
		return nil, fmt.Errorf("%w: signal spans %d voxels, weights %d", ErrDimensionMismatch, ss, ws)
	}
	if len(norm) != wk {
		return nil, fmt.Errorf("%w: %d normalization constants for %d networks",
			ErrDimensionMismatch, len(norm), wk)
	}

	sums := ColumnSums(weights)
	for k := 0; k < wk; k++ {
		if norm[k] == 0 || sums[k] == 0 {
			return nil, fmt.Errorf("%w: network %d", ErrDegenerateNetwork, k+1)
		}
	}

	// Representative time courses, one per network: signal @ weights / norm.
	rep := mat.NewDense(st, wk, nil)
	rep.Mul(signal, weights)
	col := make([]float64, st)
	for k := 0; k < wk; k++ {
		mat.Col(col, k, rep)
		floats.Scale(1/norm[k], col)
		rep.SetCol(k, col)
	}

	corr, err := colCorr(rep, signal, eps) // [K,S]
	if err != nil {
		return nil, err
	}

	scores := make([]float64, wk)
	w := make([]float64, ws)
	row := make([]float64, ss)
	for k := 0; k < wk; k++ {
		mat.Col(w, k, weights)
		mat.Row(row, k, corr)
		scores[k] = floats.Dot(row, w) / sums[k]
	}
	return scores, nil
}

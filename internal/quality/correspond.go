// Package quality implements the quality-control measurements for
// personalized functional networks: spatial correspondence between
// personalized and group networks, mismatch detection, and functional
// homogeneity of each network's representative time course.
package quality

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// MismatchPair records one detected correspondence failure: a personalized
// network whose closest group network is not its nominal counterpart. Indices
// are 1-based to match the reporting convention of downstream consumers.
type MismatchPair struct {
	Personalized int `json:"personalized"`
	Group        int `json:"group"`
}

// colCorr returns the [Ka,Kb] Pearson correlation between every column of a
// and every column of b. Columns are mean-centered and scaled by their norm,
// floored at eps to keep zero-variance columns finite.
func colCorr(a, b *mat.Dense, eps float64) (*mat.Dense, error) {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br {
		return nil, fmt.Errorf("%w: %d vs %d rows", ErrDimensionMismatch, ar, br)
	}

	an := normalizeColumns(a, ar, ac, eps)
	bn := normalizeColumns(b, br, bc, eps)

	out := mat.NewDense(ac, bc, nil)
	out.Mul(an.T(), bn)
	return out, nil
}

func normalizeColumns(m *mat.Dense, rows, cols int, eps float64) *mat.Dense {
	out := mat.NewDense(rows, cols, nil)
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, m)
		mean := floats.Sum(col) / float64(rows)
		floats.AddConst(-mean, col)
		norm := math.Max(floats.Norm(col, 2), eps)
		floats.Scale(1/norm, col)
		out.SetCol(j, col)
	}
	return out
}

// Correlate computes the spatial correspondence matrix between two sets of
// functional networks, both [S,K] over the same space. Entry (i,j) is the
// Pearson correlation between column i of p and column j of g, so with
// personalized networks as p each row belongs to one personalized network.
func Correlate(p, g *mat.Dense, eps float64) (*mat.Dense, error) {
	pr, _ := p.Dims()
	gr, _ := g.Dims()
	if pr != gr {
		return nil, fmt.Errorf("%w: personalized networks span %d voxels, group networks %d",
			ErrDimensionMismatch, pr, gr)
	}
	return colCorr(p, g, eps)
}

// DetectMismatch evaluates a square correspondence matrix whose row i is
// personalized network i and column j is group network j.
//
// margin[i] is the gap between network i's self-correlation and its best
// competing correlation. A negative margin flags a mismatch; the mismatch
// target is the row argmax with ties broken by lowest index. Pairs are
// 1-based and ordered by personalized index. With K=1 there is no competitor,
// so the margin is +Inf and nothing can mismatch.
func DetectMismatch(corr *mat.Dense) (margin []float64, mismatches []MismatchPair, err error) {
	rows, cols := corr.Dims()
	if rows != cols {
		return nil, nil, fmt.Errorf("%w: correspondence matrix is %dx%d, want square",
			ErrDimensionMismatch, rows, cols)
	}

	margin = make([]float64, rows)
	mismatches = []MismatchPair{}

	if rows == 1 {
		margin[0] = math.Inf(1)
		return margin, mismatches, nil
	}

	for i := 0; i < rows; i++ {
		self := corr.At(i, i)
		best := math.Inf(-1)
		argmax := 0
		bestVal := math.Inf(-1)
		for j := 0; j < cols; j++ {
			v := corr.At(i, j)
			if v > bestVal {
				bestVal = v
				argmax = j
			}
			if j != i && v > best {
				best = v
			}
		}
		margin[i] = self - best
		if margin[i] < 0 {
			mismatches = append(mismatches, MismatchPair{Personalized: i + 1, Group: argmax + 1})
		}
	}
	return margin, mismatches, nil
}

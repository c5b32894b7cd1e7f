package quality

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// NormalizeData preprocesses a [T,S] signal matrix before concatenation.
//
// Algorithms shift or scale the raw values: "z" standard-scores each time
// point across space, "gp" shifts the whole matrix nonnegative, "vp" shifts
// each voxel's time course nonnegative. Normalizations rescale the result:
// "n2"/"n1" l2-/l1-normalize each time point, "rn1" l1-normalizes each voxel,
// "g" clips to the 0.1% tails and rescales globally, "vmax" min-max scales
// each voxel. The usual pairing for fMRI scans is "vp" with "vmax".
//
// The input is not modified. Unknown names are an error, as is any NaN in the
// result.
func NormalizeData(data *mat.Dense, algorithm, normalization string, eps float64) (*mat.Dense, error) {
	rows, cols := data.Dims()
	out := mat.DenseCopyOf(data)

	row := make([]float64, cols)
	col := make([]float64, rows)

	switch algorithm {
	case "z":
		for i := 0; i < rows; i++ {
			mat.Row(row, i, out)
			mean := floats.Sum(row) / float64(cols)
			floats.AddConst(-mean, row)
			sd := math.Max(stddev(row), eps)
			floats.Scale(1/sd, row)
			out.SetRow(i, row)
		}
	case "gp":
		if min := mat.Min(out); min < 0 {
			shift := -min
			for i := 0; i < rows; i++ {
				mat.Row(row, i, out)
				floats.AddConst(shift, row)
				out.SetRow(i, row)
			}
		}
	case "vp":
		for j := 0; j < cols; j++ {
			mat.Col(col, j, out)
			if min := floats.Min(col); min < 0 {
				floats.AddConst(-min, col)
				out.SetCol(j, col)
			}
		}
	default:
		return nil, fmt.Errorf("quality: unknown normalization algorithm %q", algorithm)
	}

	switch normalization {
	case "n2":
		for i := 0; i < rows; i++ {
			mat.Row(row, i, out)
			floats.Scale(1/(floats.Norm(row, 2)+eps), row)
			out.SetRow(i, row)
		}
	case "n1":
		for i := 0; i < rows; i++ {
			mat.Row(row, i, out)
			floats.Scale(1/(floats.Sum(row)+eps), row)
			out.SetRow(i, row)
		}
	case "rn1":
		for j := 0; j < cols; j++ {
			mat.Col(col, j, out)
			floats.Scale(1/(floats.Sum(col)+eps), col)
			out.SetCol(j, col)
		}
	case "g":
		sorted := make([]float64, 0, rows*cols)
		sorted = append(sorted, out.RawMatrix().Data...)
		sort.Float64s(sorted)
		const tail = 0.001
		lo := sorted[int(float64(len(sorted))*tail)]
		hi := sorted[int(float64(len(sorted))*(1-tail))]
		scale := math.Max(hi-lo, eps)
		for i := 0; i < rows; i++ {
			mat.Row(row, i, out)
			for j := range row {
				row[j] = (math.Min(math.Max(row[j], lo), hi) - lo) / scale
			}
			out.SetRow(i, row)
		}
	case "vmax":
		for j := 0; j < cols; j++ {
			mat.Col(col, j, out)
			lo := floats.Min(col)
			scale := math.Max(floats.Max(col)-lo, eps)
			floats.AddConst(-lo, col)
			floats.Scale(1/scale, col)
			out.SetCol(j, col)
		}
	default:
		return nil, fmt.Errorf("quality: unknown normalization %q", normalization)
	}

	if out.RawMatrix().Data != nil {
		for _, v := range out.RawMatrix().Data {
			if math.IsNaN(v) {
				return nil, fmt.Errorf("quality: NaN in normalized data")
			}
		}
	}
	return out, nil
}

func stddev(centered []float64) float64 {
	var ss float64
	for _, v := range centered {
		ss += v * v
	}
	return math.Sqrt(ss / float64(len(centered)))
}

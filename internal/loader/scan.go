package loader

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/pnetlab/pfnqc/internal/brainspace"
	"github.com/pnetlab/pfnqc/internal/quality"
)

// ReadLines reads a one-entry-per-line text file (scan lists, subject
// folders), skipping blank lines.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMissingInput, path, err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMissingInput, path, err)
	}
	return lines, nil
}

// LoadSignal loads every scan of one subject, compacts volumetric scans
// through the codec, optionally normalizes each scan, and concatenates them
// along the time axis into one [T,S] matrix. Scans whose spatial dimension
// disagrees are rejected.
//
// normalization is "" or "none" to skip, or "vp-vmax" for voxel-wise
// nonnegative shift followed by voxel-wise min-max scaling.
func LoadSignal(scans []string, codec brainspace.Codec, normalization string, eps float64) (*mat.Dense, error) {
	if len(scans) == 0 {
		return nil, fmt.Errorf("%w: empty scan list", ErrMissingInput)
	}

	var parts []*mat.Dense
	total, space := 0, 0
	for _, path := range scans {
		arr, err := ReadArray(path)
		if err != nil {
			return nil, err
		}
		part, err := codec.CompactSignal(arr)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", path, err)
		}

		switch normalization {
		case "", "none":
		case "vp-vmax":
			part, err = quality.NormalizeData(part, "vp", "vmax", eps)
			if err != nil {
				return nil, fmt.Errorf("scan %s: %w", path, err)
			}
		default:
			return nil, fmt.Errorf("loader: unsupported normalization %q", normalization)
		}

		rows, cols := part.Dims()
		if space == 0 {
			space = cols
		} else if cols != space {
			return nil, fmt.Errorf("%w: scan %s spans %d voxels, previous scans %d",
				brainspace.ErrShapeMismatch, path, cols, space)
		}
		parts = append(parts, part)
		total += rows
	}

	out := mat.NewDense(total, space, nil)
	offset := 0
	for _, part := range parts {
		rows, _ := part.Dims()
		for i := 0; i < rows; i++ {
			out.SetRow(offset+i, mat.Row(nil, i, part))
		}
		offset += rows
	}
	return out, nil
}

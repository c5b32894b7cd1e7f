// Package brainspace converts brain-imaging data between its two
// representations: dense volumetric grids and compact matrices holding only
// in-mask voxels. Both directions share a single column-major linearization
// (first axis fastest-varying), so encode/decode round-trips are lossless and
// index-stable.
package brainspace

import "fmt"

// Mask is an immutable occupancy mask over a fixed (X,Y,Z) grid. It is built
// once per analysis and shared read-only by codecs and the runner.
type Mask struct {
	nx, ny, nz int
	in         []bool
	indices    []int
}

// NewMask builds a mask from occupancy values laid out column-major
// (linear index = x + nx*(y + ny*z)). Any value > 0 marks an in-mask voxel.
func NewMask(nx, ny, nz int, occupancy []float64) (*Mask, error) {
	if nx <= 0 || ny <= 0 || nz <= 0 {
		return nil, fmt.Errorf("%w: invalid mask dims (%d,%d,%d)", ErrShapeMismatch, nx, ny, nz)
	}
	if len(occupancy) != nx*ny*nz {
		return nil, fmt.Errorf("%w: mask has %d values for dims (%d,%d,%d)",
			ErrShapeMismatch, len(occupancy), nx, ny, nz)
	}
	m := &Mask{
		nx: nx,
		ny: ny,
		nz: nz,
		in: make([]bool, len(occupancy)),
	}
	for i, v := range occupancy {
		if v > 0 {
			m.in[i] = true
			m.indices = append(m.indices, i)
		}
	}
	return m, nil
}

// Shape returns the grid dimensions (X,Y,Z).
func (m *Mask) Shape() (nx, ny, nz int) { return m.nx, m.ny, m.nz }

// Count returns the number of in-mask voxels.
func (m *Mask) Count() int { return len(m.indices) }

// Contains reports whether voxel (x,y,z) is in-mask.
func (m *Mask) Contains(x, y, z int) bool {
	return m.in[x+m.nx*(y+m.ny*z)]
}

// Indices returns the ordered column-major linear indices of in-mask voxels.
func (m *Mask) Indices() []int {
	out := make([]int, len(m.indices))
	copy(out, m.indices)
	return out
}

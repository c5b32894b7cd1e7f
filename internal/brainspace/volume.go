package brainspace

import "fmt"

// Volume is a dense 4D array over a volumetric grid. The trailing axis F is
// the feature axis: scan time points for signal data, networks for weight
// maps.
type Volume struct {
	// NX, NY, NZ are the spatial grid dimensions, NF the feature count.
	NX, NY, NZ, NF int

	// Data holds the values column-major with the feature axis slowest:
	// index = x + NX*(y + NY*(z + NZ*f)). The spatial part of this layout is
	// the same linearization the mask uses.
	Data []float64
}

// NewVolume allocates a zero-filled volume.
func NewVolume(nx, ny, nz, nf int) *Volume {
	return &Volume{
		NX:   nx,
		NY:   ny,
		NZ:   nz,
		NF:   nf,
		Data: make([]float64, nx*ny*nz*nf),
	}
}

// At returns the value at spatial position (x,y,z) and feature f.
func (v *Volume) At(x, y, z, f int) float64 {
	return v.Data[x+v.NX*(y+v.NY*(z+v.NZ*f))]
}

// Set stores a value at spatial position (x,y,z) and feature f.
func (v *Volume) Set(x, y, z, f int, value float64) {
	v.Data[x+v.NX*(y+v.NY*(z+v.NZ*f))] = value
}

func (v *Volume) checkSpatial(m *Mask) error {
	nx, ny, nz := m.Shape()
	if v.NX != nx || v.NY != ny || v.NZ != nz {
		return fmt.Errorf("%w: volume dims (%d,%d,%d) vs mask dims (%d,%d,%d)",
			ErrShapeMismatch, v.NX, v.NY, v.NZ, nx, ny, nz)
	}
	if len(v.Data) != v.NX*v.NY*v.NZ*v.NF {
		return fmt.Errorf("%w: volume has %d values for dims (%d,%d,%d,%d)",
			ErrShapeMismatch, len(v.Data), v.NX, v.NY, v.NZ, v.NF)
	}
	return nil
}

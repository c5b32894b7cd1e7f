package brainspace

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Array holds scan or network data in whichever representation it was loaded:
// a compact 2D matrix or a dense 4D volume. Exactly one field is set.
type Array struct {
	Mat *mat.Dense
	Vol *Volume
}

// Codec converts between dense and compact brain-space representations.
// Signal data is time-major ([T,S] compact), weight data is space-major
// ([S,K] compact). The variant is selected once per analysis from the brain
// template's data type: VolumetricCodec for gridded data, IdentityCodec for
// surface data whose space axis is already compact. Callers request the
// transform unconditionally and never branch on data type themselves.
type Codec interface {
	// CompactSignal returns the [T,S] compact form of signal data.
	CompactSignal(a Array) (*mat.Dense, error)
	// CompactWeights returns the [S,K] compact form of network weights.
	CompactWeights(a Array) (*mat.Dense, error)
	// ExpandSignal inverts CompactSignal.
	ExpandSignal(m *mat.Dense) (Array, error)
	// ExpandWeights inverts CompactWeights.
	ExpandWeights(m *mat.Dense) (Array, error)
}

// VolumetricCodec gathers in-mask voxels of dense volumes into compact
// matrices and scatters them back, leaving masked-out voxels at zero. Encode
// and decode walk the mask's index list in the same order, which is what
// makes the round-trip exact.
type VolumetricCodec struct {
	mask *Mask
}

// NewVolumetricCodec returns a codec bound to the analysis mask.
func NewVolumetricCodec(mask *Mask) (*VolumetricCodec, error) {
	if mask == nil {
		return nil, ErrNilMask
	}
	return &VolumetricCodec{mask: mask}, nil
}

// Mask returns the codec's mask.
func (c *VolumetricCodec) Mask() *Mask { return c.mask }

// EncodeSignal converts a (X,Y,Z,T) volume to a [T,S] matrix.
func (c *VolumetricCodec) EncodeSignal(v *Volume) (*mat.Dense, error) {
	if err := v.checkSpatial(c.mask); err != nil {
		return nil, err
	}
	plane := v.NX * v.NY * v.NZ
	out := mat.NewDense(v.NF, c.mask.Count(), nil)
	for f := 0; f < v.NF; f++ {
		base := plane * f
		for si, idx := range c.mask.indices {
			out.Set(f, si, v.Data[base+idx])
		}
	}
	return out, nil
}

// DecodeSignal converts a [T,S] matrix back to a (X,Y,Z,T) volume.
func (c *VolumetricCodec) DecodeSignal(m *mat.Dense) (*Volume, error) {
	rows, cols := m.Dims()
	if cols != c.mask.Count() {
		return nil, fmt.Errorf("%w: compact signal has %d space columns, mask has %d voxels",
			ErrShapeMismatch, cols, c.mask.Count())
	}
	nx, ny, nz := c.mask.Shape()
	v := NewVolume(nx, ny, nz, rows)
	plane := nx * ny * nz
	for f := 0; f < rows; f++ {
		base := plane * f
		for si, idx := range c.mask.indices {
			v.Data[base+idx] = m.At(f, si)
		}
	}
	return v, nil
}

// EncodeWeights converts a (X,Y,Z,K) volume to a [S,K] matrix.
func (c *VolumetricCodec) EncodeWeights(v *Volume) (*mat.Dense, error) {
	if err := v.checkSpatial(c.mask); err != nil {
		return nil, err
	}
	plane := v.NX * v.NY * v.NZ
	out := mat.NewDense(c.mask.Count(), v.NF, nil)
	for k := 0; k < v.NF; k++ {
		base := plane * k
		for si, idx := range c.mask.indices {
			out.Set(si, k, v.Data[base+idx])
		}
	}
	return out, nil
}

// DecodeWeights converts a [S,K] matrix back to a (X,Y,Z,K) volume.
func (c *VolumetricCodec) DecodeWeights(m *mat.Dense) (*Volume, error) {
	rows, cols := m.Dims()
	if rows != c.mask.Count() {
		return nil, fmt.Errorf("%w: compact weights have %d space rows, mask has %d voxels",
			ErrShapeMismatch, rows, c.mask.Count())
	}
	nx, ny, nz := c.mask.Shape()
	v := NewVolume(nx, ny, nz, cols)
	plane := nx * ny * nz
	for k := 0; k < cols; k++ {
		base := plane * k
		for si, idx := range c.mask.indices {
			v.Data[base+idx] = m.At(si, k)
		}
	}
	return v, nil
}

// CompactSignal encodes a volume, or validates and passes through signal data
// that is already compact.
func (c *VolumetricCodec) CompactSignal(a Array) (*mat.Dense, error) {
	switch {
	case a.Vol != nil:
		return c.EncodeSignal(a.Vol)
	case a.Mat != nil:
		_, cols := a.Mat.Dims()
		if cols != c.mask.Count() {
			return nil, fmt.Errorf("%w: signal has %d space columns, mask has %d voxels",
				ErrShapeMismatch, cols, c.mask.Count())
		}
		return a.Mat, nil
	default:
		return nil, ErrEmptyArray
	}
}

// CompactWeights encodes a volume, or validates and passes through weights
// that are already compact.
func (c *VolumetricCodec) CompactWeights(a Array) (*mat.Dense, error) {
	switch {
	case a.Vol != nil:
		return c.EncodeWeights(a.Vol)
	case a.Mat != nil:
		rows, _ := a.Mat.Dims()
		if rows != c.mask.Count() {
			return nil, fmt.Errorf("%w: weights have %d space rows, mask has %d voxels",
				ErrShapeMismatch, rows, c.mask.Count())
		}
		return a.Mat, nil
	default:
		return nil, ErrEmptyArray
	}
}

// ExpandSignal decodes compact signal data back to its dense volume.
func (c *VolumetricCodec) ExpandSignal(m *mat.Dense) (Array, error) {
	v, err := c.DecodeSignal(m)
	if err != nil {
		return Array{}, err
	}
	return Array{Vol: v}, nil
}

// ExpandWeights decodes compact weights back to their dense volume.
func (c *VolumetricCodec) ExpandWeights(m *mat.Dense) (Array, error) {
	v, err := c.DecodeWeights(m)
	if err != nil {
		return Array{}, err
	}
	return Array{Vol: v}, nil
}

// IdentityCodec is the surface-space codec: every space index is already
// compact, so both directions pass matrices through unchanged. Volumes are a
// caller error since surface data never has a grid representation.
type IdentityCodec struct{}

func (IdentityCodec) passthrough(a Array) (*mat.Dense, error) {
	if a.Vol != nil {
		return nil, fmt.Errorf("%w: surface data has no volumetric form", ErrShapeMismatch)
	}
	if a.Mat == nil {
		return nil, ErrEmptyArray
	}
	return a.Mat, nil
}

func (c IdentityCodec) CompactSignal(a Array) (*mat.Dense, error)  { return c.passthrough(a) }
func (c IdentityCodec) CompactWeights(a Array) (*mat.Dense, error) { return c.passthrough(a) }

func (IdentityCodec) ExpandSignal(m *mat.Dense) (Array, error)  { return Array{Mat: m}, nil }
func (IdentityCodec) ExpandWeights(m *mat.Dense) (Array, error) { return Array{Mat: m}, nil }

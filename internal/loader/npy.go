package loader

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/kshedden/gonpy"
	"gonum.org/v1/gonum/mat"

	"github.com/pnetlab/pfnqc/internal/brainspace"
)

// openNpy opens a .npy or .npy.gz file and returns a reader positioned on the
// array header. The returned closer releases both the file and any gzip
// stream.
func openNpy(path string) (*gonpy.NpyReader, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrMissingInput, path, err)
	}

	var src io.Reader = f
	closer := f.Close
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, nil, fmt.Errorf("%w: %s: %v", ErrMissingInput, path, err)
		}
		src = gz
		closer = func() error {
			gz.Close()
			return f.Close()
		}
	}

	r, err := gonpy.NewReader(src)
	if err != nil {
		closer()
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrMissingInput, path, err)
	}
	return r, closer, nil
}

func readFloats(r *gonpy.NpyReader, path string) ([]float64, error) {
	switch r.Dtype {
	case "f8":
		return r.GetFloat64()
	case "f4":
		f32, err := r.GetFloat32()
		if err != nil {
			return nil, err
		}
		out := make([]float64, len(f32))
		for i, v := range f32 {
			out[i] = float64(v)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s: unsupported dtype %q", ErrMissingInput, path, r.Dtype)
	}
}

// ReadMatrix loads a 2D .npy or .npy.gz file.
func ReadMatrix(path string) (*mat.Dense, error) {
	r, closer, err := openNpy(path)
	if err != nil {
		return nil, err
	}
	defer closer()

	if len(r.Shape) != 2 {
		return nil, fmt.Errorf("%w: %s: want 2D array, got %dD", ErrMissingInput, path, len(r.Shape))
	}
	data, err := readFloats(r, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMissingInput, path, err)
	}

	rows, cols := r.Shape[0], r.Shape[1]
	out := mat.NewDense(rows, cols, nil)
	if r.ColumnMajor {
		for j := 0; j < cols; j++ {
			for i := 0; i < rows; i++ {
				out.Set(i, j, data[i+rows*j])
			}
		}
	} else {
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				out.Set(i, j, data[i*cols+j])
			}
		}
	}
	return out, nil
}

// ReadVolume loads a 4D .npy or .npy.gz file into a dense volume.
func ReadVolume(path string) (*brainspace.Volume, error) {
	r, closer, err := openNpy(path)
	if err != nil {
		return nil, err
	}
	defer closer()

	if len(r.Shape) != 4 {
		return nil, fmt.Errorf("%w: %s: want 4D array, got %dD", ErrMissingInput, path, len(r.Shape))
	}
	data, err := readFloats(r, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMissingInput, path, err)
	}

	nx, ny, nz, nf := r.Shape[0], r.Shape[1], r.Shape[2], r.Shape[3]
	v := brainspace.NewVolume(nx, ny, nz, nf)
	if r.ColumnMajor {
		// Fortran order matches the volume's own layout.
		copy(v.Data, data)
		return v, nil
	}
	i := 0
	for x := 0; x < nx; x++ {
		for y := 0; y < ny; y++ {
			for z := 0; z < nz; z++ {
				for f := 0; f < nf; f++ {
					v.Set(x, y, z, f, data[i])
					i++
				}
			}
		}
	}
	return v, nil
}

// ReadArray loads a .npy file as whichever brain-space representation its
// rank implies: 2D as a compact matrix, 4D as a dense volume.
func ReadArray(path string) (brainspace.Array, error) {
	r, closer, err := openNpy(path)
	if err != nil {
		return brainspace.Array{}, err
	}
	rank := len(r.Shape)
	closer()

	switch rank {
	case 2:
		m, err := ReadMatrix(path)
		if err != nil {
			return brainspace.Array{}, err
		}
		return brainspace.Array{Mat: m}, nil
	case 4:
		v, err := ReadVolume(path)
		if err != nil {
			return brainspace.Array{}, err
		}
		return brainspace.Array{Vol: v}, nil
	default:
		return brainspace.Array{}, fmt.Errorf("%w: %s: want 2D or 4D array, got %dD",
			ErrMissingInput, path, rank)
	}
}

// ReadMask loads a 3D .npy occupancy array; values > 0 are in-mask.
func ReadMask(path string) (*brainspace.Mask, error) {
	r, closer, err := openNpy(path)
	if err != nil {
		return nil, err
	}
	defer closer()

	if len(r.Shape) != 3 {
		return nil, fmt.Errorf("%w: %s: want 3D mask, got %dD", ErrMissingInput, path, len(r.Shape))
	}
	data, err := readFloats(r, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMissingInput, path, err)
	}

	nx, ny, nz := r.Shape[0], r.Shape[1], r.Shape[2]
	occ := data
	if !r.ColumnMajor {
		occ = make([]float64, len(data))
		i := 0
		for x := 0; x < nx; x++ {
			for y := 0; y < ny; y++ {
				for z := 0; z < nz; z++ {
					occ[x+nx*(y+ny*z)] = data[i]
					i++
				}
			}
		}
	}
	return brainspace.NewMask(nx, ny, nz, occ)
}

// WriteMatrix saves a matrix as .npy, as float32 or float64 per bits.
func WriteMatrix(path string, m *mat.Dense, bits int) error {
	rows, cols := m.Dims()
	w, err := gonpy.NewFileWriter(path)
	if err != nil {
		return fmt.Errorf("loader: open %s: %w", path, err)
	}
	w.Shape = []int{rows, cols}
	w.Version = 2

	data := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		data = append(data, mat.Row(nil, i, m)...)
	}
	if bits == 32 {
		f32 := make([]float32, len(data))
		for i, v := range data {
			f32[i] = float32(v)
		}
		return w.WriteFloat32(f32)
	}
	return w.WriteFloat64(data)
}

package loader

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"

	"github.com/pnetlab/pfnqc/internal/brainspace"
)

// Supported brain-space data types.
const (
	DataTypeVolume  = "Volume"
	DataTypeSurface = "Surface"
)

// Template describes the brain space of an analysis: surface data is already
// compact, volumetric data carries a mask that defines the usable voxels.
type Template struct {
	DataType   string `json:"data_type"`
	DataFormat string `json:"data_format,omitempty"`
	// MaskFile points at the 3D occupancy .npy, absolute or relative to the
	// template file. Required for volumetric data.
	MaskFile string `json:"mask_file,omitempty"`
}

// LoadTemplate reads and validates a template JSON file.
func LoadTemplate(path string) (*Template, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMissingInput, path, err)
	}
	var t Template
	if err := sonic.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMissingInput, path, err)
	}
	switch t.DataType {
	case DataTypeVolume:
		if t.MaskFile == "" {
			return nil, fmt.Errorf("%w: %s: volumetric template without mask_file", ErrMissingInput, path)
		}
	case DataTypeSurface:
	default:
		return nil, fmt.Errorf("%w: %s: unknown data type %q", ErrMissingInput, path, t.DataType)
	}
	return &t, nil
}

// SaveTemplate writes a template as JSON.
func SaveTemplate(path string, t *Template) error {
	raw, err := sonic.Marshal(t)
	if err != nil {
		return fmt.Errorf("loader: marshal template: %w", err)
	}
	return os.WriteFile(path, raw, 0o644)
}

// BuildCodec returns the codec variant the template calls for, loading the
// mask for volumetric data. baseDir resolves a relative MaskFile, typically
// the template's own directory.
func (t *Template) BuildCodec(baseDir string) (brainspace.Codec, error) {
	if t.DataType == DataTypeSurface {
		return brainspace.IdentityCodec{}, nil
	}
	maskPath := t.MaskFile
	if !filepath.IsAbs(maskPath) {
		maskPath = filepath.Join(baseDir, maskPath)
	}
	mask, err := ReadMask(maskPath)
	if err != nil {
		return nil, err
	}
	return brainspace.NewVolumetricCodec(mask)
}

package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Manifest is the YAML description of one QC batch: where the shared inputs
// live, how subjects are grouped, and the numeric options threaded through
// every component.
type Manifest struct {
	// ResultDir receives one sub-folder per subject plus the final report.
	ResultDir string `yaml:"resultDir"`

	// Template is the brain template JSON (data type, mask).
	Template string `yaml:"template"`

	// GroupFN is the group functional network .npy, compact [S,K] or dense
	// 4D depending on data type.
	GroupFN string `yaml:"groupFN"`

	// PersonalizedDir holds one sub-folder per subject, each with a FN.npy.
	PersonalizedDir string `yaml:"personalizedDir"`

	// ScanList is a text file with one scan path per line.
	ScanList string `yaml:"scanList"`

	// SubjectFolders is a text file parallel to ScanList naming the subject
	// folder each scan belongs to.
	SubjectFolders string `yaml:"subjectFolders"`

	// CombineScan concatenates all scans sharing a subject folder into one
	// time series; otherwise every scan line is its own QC unit.
	CombineScan bool `yaml:"combineScan"`

	// Precision is "double" or "single" and governs the numerical floor and
	// output float width.
	Precision string `yaml:"precision"`

	// Normalization is applied per scan before concatenation: "none" or
	// "vp-vmax".
	Normalization string `yaml:"normalization"`

	// Workers sizes the subject worker pool.
	Workers int `yaml:"workers"`
}

// DefaultManifest returns a manifest with default numeric options.
func DefaultManifest() *Manifest {
	return &Manifest{
		Precision:     "double",
		Normalization: "none",
		Workers:       runtime.NumCPU(),
	}
}

// LoadManifest reads a YAML manifest, applying defaults for omitted options.
func LoadManifest(path string) (*Manifest, error) {
	m := DefaultManifest()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read manifest: %w", err)
	}
	if err := yaml.Unmarshal(raw, m); err != nil {
		return nil, fmt.Errorf("config: parse manifest: %w", err)
	}
	if m.Workers <= 0 {
		m.Workers = runtime.NumCPU()
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks that every required path is present.
func (m *Manifest) Validate() error {
	for _, f := range []struct{ name, value string }{
		{"resultDir", m.ResultDir},
		{"template", m.Template},
		{"groupFN", m.GroupFN},
		{"personalizedDir", m.PersonalizedDir},
		{"scanList", m.ScanList},
		{"subjectFolders", m.SubjectFolders},
	} {
		if f.value == "" {
			return fmt.Errorf("config: manifest field %s is required", f.name)
		}
	}
	return nil
}

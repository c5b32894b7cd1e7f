package runner

import (
	"errors"

	"github.com/pnetlab/pfnqc/internal/brainspace"
	"github.com/pnetlab/pfnqc/internal/loader"
	"github.com/pnetlab/pfnqc/internal/quality"
)

// Result is the per-subject QC record persisted as Result.json.
type Result struct {
	Subject string `json:"subject"`

	// SpatialCorrespondence is [K,K]; row i is personalized network i,
	// column j is group network j.
	SpatialCorrespondence [][]float64 `json:"spatial_correspondence"`

	// DeltaSpatialCorrespondence is the per-network margin between self-
	// correlation and the best competing correlation.
	DeltaSpatialCorrespondence []float64 `json:"delta_spatial_correspondence"`

	// MissMatch lists personalized networks whose closest group network is
	// not their nominal counterpart, 1-based.
	MissMatch []quality.MismatchPair `json:"miss_match"`

	FunctionalHomogeneity        []float64 `json:"functional_homogeneity"`
	FunctionalHomogeneityControl []float64 `json:"functional_homogeneity_control"`
}

// Failure records a subject that could not be processed. This is a distinct
// category from a mismatch finding, which is data, not an error.
type Failure struct {
	Subject string `json:"subject"`
	Reason  string `json:"reason"`
	Error   string `json:"error"`
}

// Summary classifies a finished batch.
type Summary struct {
	// Total is the number of QC units (scans or combined-scan subjects).
	Total int `json:"total"`
	// Mismatched counts units that processed but showed >= 1 mismatch.
	Mismatched int `json:"mismatched"`
	// Errored counts units that failed to process at all.
	Errored int `json:"errored"`
	// Message is the fixed qualitative interpretation of the run.
	Message string `json:"message"`
}

// Failure reasons, mirroring the error taxonomy.
const (
	reasonMissingInput      = "missing_input"
	reasonDegenerateNetwork = "degenerate_network"
	reasonShapeMismatch     = "shape_mismatch"
	reasonInternal          = "internal"
)

func classify(err error) string {
	switch {
	case errors.Is(err, loader.ErrMissingInput):
		return reasonMissingInput
	case errors.Is(err, quality.ErrDegenerateNetwork):
		return reasonDegenerateNetwork
	case errors.Is(err, brainspace.ErrShapeMismatch):
		return reasonShapeMismatch
	default:
		return reasonInternal
	}
}

package quality

import (
	"fmt"
	"strings"
)

// Precision selects the numeric floor used in every correlation and
// normalization denominator, and the float width of persisted outputs.
// Computation itself is always float64.
type Precision string

const (
	PrecisionSingle Precision = "single"
	PrecisionDouble Precision = "double"
)

const (
	epsSingle = 1.1920928955078125e-07 // float32 machine epsilon
	epsDouble = 2.220446049250313e-16  // float64 machine epsilon
)

// ParsePrecision accepts MATLAB ("single", "double") and NumPy ("float32",
// "float64") spellings, case-insensitively.
func ParsePrecision(s string) (Precision, error) {
	switch strings.ToLower(s) {
	case "single", "float32":
		return PrecisionSingle, nil
	case "double", "float64", "":
		return PrecisionDouble, nil
	default:
		return "", fmt.Errorf("quality: unknown data precision %q", s)
	}
}

// Eps returns the machine epsilon of the selected precision.
func (p Precision) Eps() float64 {
	if p == PrecisionSingle {
		return epsSingle
	}
	return epsDouble
}

// Bits returns the float width for persisted outputs.
func (p Precision) Bits() int {
	if p == PrecisionSingle {
		return 32
	}
	return 64
}

package quality

import "errors"

var (
	// ErrDegenerateNetwork reports a network whose weight column sums to
	// zero. Its representative time course is undefined, so the subject's
	// record cannot be computed.
	ErrDegenerateNetwork = errors.New("quality: degenerate network, weight column sums to zero")

	// ErrDimensionMismatch reports matrices whose shared dimension disagrees.
	ErrDimensionMismatch = errors.New("quality: dimension mismatch")
)

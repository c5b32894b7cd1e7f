package brainspace

import "errors"

var (
	// ErrShapeMismatch reports dense/mask/compact dimension disagreement.
	ErrShapeMismatch = errors.New("brainspace: shape mismatch")

	// ErrNilMask reports a volumetric codec constructed without a mask.
	ErrNilMask = errors.New("brainspace: nil mask")

	// ErrEmptyArray reports an Array holding neither a matrix nor a volume.
	ErrEmptyArray = errors.New("brainspace: empty array")
)

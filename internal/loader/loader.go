// Package loader reads and writes the on-disk artifacts of a QC run:
// NumPy-format matrices and volumes (plain or gzip-compressed), scan-list
// text files, and brain template descriptors. It is the only package that
// touches scan files; everything downstream works on in-memory matrices.
package loader

import "errors"

// ErrMissingInput reports a subject input file that is absent or unreadable.
// The runner records it against that subject and continues the batch.
var ErrMissingInput = errors.New("loader: missing or unreadable input")

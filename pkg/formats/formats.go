// Package formats provides parsers for Build engine file formats.
package formats

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// Note: ART (tile archive) is implemented in art.go
// Note: PALETTE.DAT is implemented in palette.go
// Note: MAP (level) is implemented in mapfile.go

// FormatError reports a file that cannot be decoded: it is shorter than its
// structure requires, carries a wrong signature, or has an impossible count.
// It is fatal for the file being parsed only.
type FormatError struct {
	Format string // "GRP", "ART", "PALETTE", "MAP"
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %v", e.Format, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func formatErr(format string, err error) error {
	return &FormatError{Format: format, Err: err}
}

// InBounds reports whether idx is a valid index into a collection of n elements.
func InBounds[T constraints.Integer](idx T, n int) bool {
	return idx >= 0 && int64(idx) < int64(n)
}

package sector

import (
	"errors"
	"fmt"
)

// Sentinel causes carried by GeometryError.
var (
	ErrWallRange     = errors.New("wall range outside wall array")
	ErrPoint2Range   = errors.New("point2 outside wall array")
	ErrLoopNotClosed = errors.New("wall loop does not close")
	ErrTooFewPoints  = errors.New("loop has fewer than 3 usable points")
)

// GeometryError reports a sector whose outline cannot be reconstructed.
// It is recovered per sector: the affected surfaces are skipped.
type GeometryError struct {
	Sector int
	Wall   int // wall where the failure was detected, -1 if not specific
	Err    error
}

func (e *GeometryError) Error() string {
	if e.Wall < 0 {
		return fmt.Sprintf("sector %d: %v", e.Sector, e.Err)
	}
	return fmt.Sprintf("sector %d wall %d: %v", e.Sector, e.Wall, e.Err)
}

func (e *GeometryError) Unwrap() error {
	return e.Err
}

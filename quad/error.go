package quad

import (
	"fmt"
)

// epsilonRelative is the tolerance of degeneracy checks relative to the
// squared size of the quad.
const epsilonRelative = 1e-9

type ErrDegenerate struct {
	Quad   Quad
	Reason string
}

func (e ErrDegenerate) Error() string {
	return fmt.Sprintf("degenerate quad %s: %s", e.Quad, e.Reason)
}

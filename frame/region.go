package frame

import (
	"github.com/xaionaro-go/quadcrop/format"
	"github.com/xaionaro-go/quadcrop/quad"
)

// Region is a host-resident quadrilateral flowing through a structured-value
// port. It is passed by value, so a consumer can never mutate the sender's
// copy.
type Region struct {
	Format format.Format
	Quad   quad.Quad
}

// NewRegion wraps q, tagging it as a rectangle if it is axis-aligned.
func NewRegion(q quad.Quad) Region {
	kind := format.ObjectKindQuad
	if q.IsRectangle() {
		kind = format.ObjectKindRectangle
	}
	return Region{
		Format: format.NewObject(kind),
		Quad:   q,
	}
}

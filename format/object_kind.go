package format

import (
	"fmt"
)

// ObjectKind identifies the concrete type of a host-resident structured value.
type ObjectKind int

const (
	ObjectKindUnspecified = ObjectKind(iota)
	// ObjectKindQuad is a quad.Quad.
	ObjectKindQuad
	// ObjectKindRectangle is an axis-aligned quad.Quad.
	ObjectKindRectangle
	// ObjectKindPoint is a single quad.Point.
	ObjectKindPoint
)

func (k ObjectKind) String() string {
	switch k {
	case ObjectKindUnspecified:
		return "unspecified"
	case ObjectKindQuad:
		return "quad"
	case ObjectKindRectangle:
		return "rectangle"
	case ObjectKindPoint:
		return "point"
	default:
		return fmt.Sprintf("unknown_object_kind_%d", int(k))
	}
}

// Parent returns the kind k specializes, or ObjectKindUnspecified.
func (k ObjectKind) Parent() ObjectKind {
	switch k {
	case ObjectKindRectangle:
		return ObjectKindQuad
	default:
		return ObjectKindUnspecified
	}
}

// IsA reports whether a value of kind k may be used where kind other is
// expected: either they are the same kind or k specializes other.
func (k ObjectKind) IsA(other ObjectKind) bool {
	for cur := k; cur != ObjectKindUnspecified; cur = cur.Parent() {
		if cur == other {
			return true
		}
	}
	return false
}

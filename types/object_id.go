// Package types contains the small cross-package types of quadcrop.
package types

import (
	"fmt"
	"unsafe"
)

// ObjectID is a unique identifier of a live object (a kernel, a node,
// a frame); it is meant for logs and statistics, not for persistence.
type ObjectID uint64

func (id ObjectID) String() string {
	return fmt.Sprintf("0x%x", uint64(id))
}

type GetObjectIDer interface {
	GetObjectID() ObjectID
}

func GetObjectID[T any](obj *T) ObjectID {
	if obj == nil {
		return 0
	}
	return ObjectID(uintptr(unsafe.Pointer(obj)))
}

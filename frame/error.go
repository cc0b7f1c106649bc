package frame

import (
	"fmt"

	"github.com/xaionaro-go/quadcrop/format"
)

type ErrFrameFreed struct {
	Frame *Frame
}

func (e ErrFrameFreed) Error() string {
	return fmt.Sprintf("%s is already freed", e.Frame)
}

type ErrUnsupportedFormat struct {
	Format format.Format
}

func (e ErrUnsupportedFormat) Error() string {
	return fmt.Sprintf("unable to allocate a frame of %s: only sized device-resident RGBA byte images are supported", e.Format)
}

type ErrAllocate struct {
	Format format.Format
	Err    error
}

func (e ErrAllocate) Error() string {
	return fmt.Sprintf("unable to allocate a frame of %s: %v", e.Format, e.Err)
}

func (e ErrAllocate) Unwrap() error {
	return e.Err
}

type ErrForeignFrame struct {
	Frame *Frame
}

func (e ErrForeignFrame) Error() string {
	return fmt.Sprintf("%s was not allocated by this manager", e.Frame)
}

package device

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

type ErrOutOfMemory struct {
	Requested uint64
	Allocated uint64
	Limit     uint64
}

func (e ErrOutOfMemory) Error() string {
	return fmt.Sprintf(
		"out of device memory: requested %s while %s of %s is allocated",
		humanize.IBytes(e.Requested), humanize.IBytes(e.Allocated), humanize.IBytes(e.Limit),
	)
}

type ErrInvalidSize struct {
	Width  int
	Height int
}

func (e ErrInvalidSize) Error() string {
	return fmt.Sprintf("invalid buffer size %dx%d", e.Width, e.Height)
}

type ErrForeignBuffer struct {
	Buffer Buffer
}

func (e ErrForeignBuffer) Error() string {
	return fmt.Sprintf("buffer %s does not belong to this device", e.Buffer)
}

type ErrBufferFreed struct {
	Buffer Buffer
}

func (e ErrBufferFreed) Error() string {
	return fmt.Sprintf("buffer %s is already freed", e.Buffer)
}

type ErrClosed struct{}

func (ErrClosed) Error() string {
	return "the device is closed"
}

type ErrNoSourceRegion struct{}

func (ErrNoSourceRegion) Error() string {
	return "the source region is not set"
}

// Package device is the accelerator substrate: it owns device-resident pixel
// buffers and the resampling programs executed over them.
package device

import (
	"context"
	"fmt"
	"image"

	"github.com/xaionaro-go/quadcrop/quad"
	"github.com/xaionaro-go/quadcrop/types"
)

// Buffer is an RGBA pixel buffer resident in device memory. Host code may
// not read it directly: use Abstract.Download.
type Buffer interface {
	fmt.Stringer
	Width() int
	Height() int
}

// Program is a compiled resampling program: it samples the configured
// source region of a buffer into another buffer.
//
// A Program is not safe for concurrent use.
type Program interface {
	fmt.Stringer
	types.Closer

	// SetSourceRegion sets the region (normalized source coordinates)
	// sampled by the following Process calls.
	SetSourceRegion(quad.Quad) error

	// Process fills the whole dst with the source region of src. It returns
	// only once dst is safe to hand over to another party.
	Process(ctx context.Context, src, dst Buffer) error
}

type Abstract interface {
	fmt.Stringer
	types.Closer

	NewBuffer(ctx context.Context, width, height int) (Buffer, error)
	FreeBuffer(ctx context.Context, buf Buffer) error
	Upload(ctx context.Context, img image.Image) (Buffer, error)
	Download(ctx context.Context, buf Buffer) (*image.RGBA, error)

	NewProgram(ctx context.Context) (Program, error)
}

// Package frame implements reference-counted image frames resident in device
// memory, host-resident region values, and the frame manager allocating them.
package frame

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/quadcrop/device"
	"github.com/xaionaro-go/quadcrop/format"
	"github.com/xaionaro-go/quadcrop/helpers/closuresignaler"
	"github.com/xaionaro-go/quadcrop/logger"
	"github.com/xaionaro-go/quadcrop/types"
	"go.uber.org/atomic"
)

type freer interface {
	freeFrame(ctx context.Context, f *Frame) error
}

// Frame is a handle to a device buffer tagged with its format.
//
// Every party holding a frame owns one reference: Retain before handing
// the frame over, Release when done. The buffer is returned to the device
// when the last reference is released.
type Frame struct {
	format format.Format
	buffer device.Buffer
	owner  freer
	refs   atomic.Int32
	freed  *closuresignaler.ClosureSignaler
}

func newFrame(f format.Format, buf device.Buffer, owner freer) *Frame {
	frame := &Frame{
		format: f,
		buffer: buf,
		owner:  owner,
		freed:  closuresignaler.New(),
	}
	frame.refs.Store(1)
	return frame
}

func (f *Frame) GetObjectID() types.ObjectID {
	return types.GetObjectID(f)
}

func (f *Frame) String() string {
	return fmt.Sprintf("Frame(%s; %s)", f.GetObjectID(), f.format)
}

// Format returns a copy of the format of the frame.
func (f *Frame) Format() format.Format {
	return f.format
}

func (f *Frame) Buffer() device.Buffer {
	return f.buffer
}

func (f *Frame) RefCount() int32 {
	return f.refs.Load()
}

// Retain acquires one more reference.
func (f *Frame) Retain() error {
	for {
		refs := f.refs.Load()
		if refs <= 0 {
			return ErrFrameFreed{Frame: f}
		}
		if f.refs.CompareAndSwap(refs, refs+1) {
			return nil
		}
	}
}

// Release drops one reference; the last one frees the buffer.
func (f *Frame) Release(ctx context.Context) error {
	refs := f.refs.Dec()
	switch {
	case refs > 0:
		return nil
	case refs < 0:
		f.refs.Inc()
		return ErrFrameFreed{Frame: f}
	}

	logger.Tracef(ctx, "freeing %s", f)
	err := f.owner.freeFrame(ctx, f)
	f.freed.Close()
	return err
}

// Freed returns a channel closed once the last reference is released.
func (f *Frame) Freed() <-chan struct{} {
	return f.freed.CloseChan()
}

func (f *Frame) IsFreed() bool {
	return f.freed.IsClosed()
}

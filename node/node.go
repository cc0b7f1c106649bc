// Package node hosts a crop kernel inside a graph: it negotiates the formats
// of the connections, collects the inputs, dispatches the kernel honoring the
// status it returns, and fans the outputs out to the consumers.
package node

import (
	"context"
	"fmt"

	"github.com/go-ng/xatomic"
	"github.com/xaionaro-go/quadcrop/device"
	"github.com/xaionaro-go/quadcrop/format"
	"github.com/xaionaro-go/quadcrop/frame"
	"github.com/xaionaro-go/quadcrop/kernel"
	"github.com/xaionaro-go/quadcrop/logger"
	"github.com/xaionaro-go/quadcrop/types"
	"github.com/xaionaro-go/xsync"
	"go.uber.org/atomic"
)

// Consumer receives a published frame together with one reference to it,
// which it must Release once done. Consumers are called synchronously from
// the invocation and must not call back into the node.
type Consumer func(ctx context.Context, f *frame.Frame)

type Node struct {
	Kernel kernel.Abstract
	Frames frame.Manager

	Locker        xsync.Mutex
	processLocker xsync.Mutex

	inputFormats [2]*format.Format
	image        *frame.Frame
	region       *frame.Region
	fresh        [2]bool
	status       kernel.Status
	outstanding  []*frame.Frame
	pushTo       []Consumer
	closed       bool
	isServing    atomic.Bool

	changeChan *chan struct{}

	Statistics Statistics
}

var _ kernel.Publisher = (*Node)(nil)

// New prepares k on dev and returns a node hosting it.
func New(
	ctx context.Context,
	k kernel.Abstract,
	dev device.Abstract,
	frames frame.Manager,
) (*Node, error) {
	if err := k.Prepare(ctx, dev); err != nil {
		return nil, fmt.Errorf("unable to prepare %s: %w", k, err)
	}
	return &Node{
		Kernel:     k,
		Frames:     frames,
		changeChan: ptr(make(chan struct{})),
	}, nil
}

func (n *Node) GetObjectID() types.ObjectID {
	return types.GetObjectID(n)
}

func (n *Node) String() string {
	return fmt.Sprintf("Node(%s)", n.Kernel)
}

func (n *Node) notifyChange() {
	close(*xatomic.SwapPointer(&n.changeChan, ptr(make(chan struct{}))))
}

func (n *Node) getChangeChan() <-chan struct{} {
	return *xatomic.LoadPointer(&n.changeChan)
}

// Connect declares that data of format f will be sent to the input port.
// The connection is refused with kernel.ErrFormatIncompatible if the kernel
// does not accept the format.
func (n *Node) Connect(
	ctx context.Context,
	port int,
	f format.Format,
) (_err error) {
	logger.Debugf(ctx, "Connect(%d, %s)", port, f)
	defer func() { logger.Debugf(ctx, "/Connect(%d, %s): %v", port, f, _err) }()
	if !n.Kernel.AcceptsInputFormat(port, f) {
		return kernel.ErrFormatIncompatible{Port: port, Format: f}
	}
	n.Locker.Do(ctx, func() {
		n.inputFormats[port] = &f
	})
	return nil
}

// OutputFormat returns the format of the output port, as derived from the
// format connected to the image port.
func (n *Node) OutputFormat(ctx context.Context) (format.Format, bool) {
	inputFormat := xsync.DoR1(ctx, &n.Locker, func() *format.Format {
		return n.inputFormats[kernel.PortImage]
	})
	if inputFormat == nil {
		return format.Format{}, false
	}
	return n.Kernel.OutputFormat(*inputFormat), true
}

// AddPushTo subscribes a consumer to the output port.
func (n *Node) AddPushTo(ctx context.Context, consumer Consumer) {
	n.Locker.Do(ctx, func() {
		n.pushTo = append(n.pushTo, consumer)
	})
}

// PushImage hands an image to the node; the node acquires its own reference.
func (n *Node) PushImage(
	ctx context.Context,
	f *frame.Frame,
) (_err error) {
	logger.Tracef(ctx, "PushImage(%s)", f)
	defer func() { logger.Tracef(ctx, "/PushImage(%s): %v", f, _err) }()

	if !n.Kernel.AcceptsInputFormat(kernel.PortImage, f.Format()) {
		return kernel.ErrFormatIncompatible{Port: kernel.PortImage, Format: f.Format()}
	}
	if err := f.Retain(); err != nil {
		return err
	}
	prev, err := xsync.DoR2(ctx, &n.Locker, func() (*frame.Frame, error) {
		if n.closed {
			return nil, ErrClosed{}
		}
		prev := n.image
		n.image = f
		n.fresh[kernel.PortImage] = true
		return prev, nil
	})
	if err != nil {
		_ = f.Release(ctx)
		return err
	}
	if prev != nil {
		n.Statistics.DroppedImages.Inc()
		if err := prev.Release(ctx); err != nil {
			logger.Errorf(ctx, "unable to release the replaced %s: %v", prev, err)
		}
	}
	n.notifyChange()
	return nil
}

// PushRegion hands a region to the node.
func (n *Node) PushRegion(
	ctx context.Context,
	r frame.Region,
) error {
	if !n.Kernel.AcceptsInputFormat(kernel.PortRegion, r.Format) {
		return kernel.ErrFormatIncompatible{Port: kernel.PortRegion, Format: r.Format}
	}
	if err := xsync.DoR1(ctx, &n.Locker, func() error {
		if n.closed {
			return ErrClosed{}
		}
		n.region = &r
		n.fresh[kernel.PortRegion] = true
		return nil
	}); err != nil {
		return err
	}
	n.notifyChange()
	return nil
}

// Publish implements kernel.Publisher.
func (n *Node) Publish(
	ctx context.Context,
	port int,
	f *frame.Frame,
) error {
	if port != kernel.PortImage {
		return fmt.Errorf("unknown output port %d", port)
	}
	consumers := xsync.DoR1(ctx, &n.Locker, func() []Consumer {
		return n.pushTo
	})
	if f.IsFreed() {
		return frame.ErrFrameFreed{Frame: f}
	}

	// every consumer's reference is acquired before anyone sees the frame,
	// so a failure publishes nothing
	for retained := range consumers {
		if err := f.Retain(); err != nil {
			for ; retained > 0; retained-- {
				_ = f.Release(ctx)
			}
			return err
		}
	}

	n.Locker.Do(ctx, func() {
		n.outstanding = append(n.outstanding, f)
		if count := uint64(len(n.outstanding)); count > n.Statistics.MaxOutstandingOutputs.Load() {
			n.Statistics.MaxOutstandingOutputs.Store(count)
		}
	})
	for _, consumer := range consumers {
		consumer(ctx, f)
	}
	n.Statistics.Published.Inc()
	return nil
}

// OutstandingOutputs returns the amount of published frames not freed yet.
func (n *Node) OutstandingOutputs(ctx context.Context) int {
	return xsync.DoR1(ctx, &n.Locker, func() int {
		n.pruneOutstandingLocked()
		return len(n.outstanding)
	})
}

func (n *Node) pruneOutstandingLocked() {
	alive := n.outstanding[:0]
	for _, f := range n.outstanding {
		if !f.IsFreed() {
			alive = append(alive, f)
		}
	}
	clear(n.outstanding[len(alive):])
	n.outstanding = alive
}

// IsReady reports whether the conditions requested by the last invocation
// are met.
func (n *Node) IsReady(ctx context.Context) bool {
	return xsync.DoR1(ctx, &n.Locker, n.isReadyLocked)
}

func (n *Node) isReadyLocked() bool {
	if n.closed || n.image == nil || n.region == nil {
		return false
	}
	if n.status.Has(kernel.StatusWaitForAllInputs) && !(n.fresh[kernel.PortImage] && n.fresh[kernel.PortRegion]) {
		return false
	}
	if n.status.Has(kernel.StatusWaitForFreeOutputs) {
		n.pruneOutstandingLocked()
		if len(n.outstanding) > 0 {
			return false
		}
	}
	return true
}

// Step invokes the kernel once if the node is ready; ran reports whether
// the kernel was invoked.
func (n *Node) Step(ctx context.Context) (ran bool, err error) {
	return xsync.DoA1R2(ctx, &n.processLocker, n.stepLocked, ctx)
}

func (n *Node) stepLocked(ctx context.Context) (bool, error) {
	var in kernel.Inputs
	ready := xsync.DoR1(ctx, &n.Locker, func() bool {
		if !n.isReadyLocked() {
			return false
		}
		in = kernel.Inputs{Image: n.image, Region: *n.region}
		n.image = nil
		n.fresh = [2]bool{}
		return true
	})
	if !ready {
		return false, nil
	}
	assert(ctx, in.Image != nil, "a ready node has no image")
	defer func() {
		if err := in.Image.Release(ctx); err != nil {
			logger.Errorf(ctx, "unable to release the consumed %s: %v", in.Image, err)
		}
	}()

	n.Statistics.Invocations.Inc()
	status, err := n.Kernel.Process(ctx, n.Frames, in, n)
	n.Locker.Do(ctx, func() {
		n.status = status
	})
	if err != nil {
		n.Statistics.Failures.Inc()
		return true, err
	}
	return true, nil
}

// outstandingFreedChan returns a channel closed when the oldest outstanding
// output is freed, or nil if nothing is outstanding.
func (n *Node) outstandingFreedChan(ctx context.Context) <-chan struct{} {
	return xsync.DoR1(ctx, &n.Locker, func() <-chan struct{} {
		n.pruneOutstandingLocked()
		if len(n.outstanding) == 0 {
			return nil
		}
		return n.outstanding[0].Freed()
	})
}

// Close tears the kernel down and drops the pending inputs.
func (n *Node) Close(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Close")
	defer func() { logger.Debugf(ctx, "/Close: %v", _err) }()

	image, alreadyClosed := xsync.DoR2(ctx, &n.Locker, func() (*frame.Frame, bool) {
		if n.closed {
			return nil, true
		}
		n.closed = true
		image := n.image
		n.image = nil
		n.region = nil
		return image, false
	})
	if alreadyClosed {
		return nil
	}
	defer n.notifyChange()
	if image != nil {
		if err := image.Release(ctx); err != nil {
			logger.Errorf(ctx, "unable to release the pending %s: %v", image, err)
		}
	}
	return n.Kernel.Close(ctx)
}

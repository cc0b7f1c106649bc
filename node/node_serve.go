package node

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/facebookincubator/go-belt"
	"github.com/xaionaro-go/quadcrop/logger"
	"github.com/xaionaro-go/xsync"
)

// Serve invokes the kernel every time the node becomes ready, until ctx is
// cancelled or the node is closed. Invocation failures are sent to errCh
// (if not nil) and do not stop the loop.
func (n *Node) Serve(
	ctx context.Context,
	errCh chan<- Error,
) (_err error) {
	ctx = belt.WithField(ctx, "node_ptr", fmt.Sprintf("%p", n))
	ctx = belt.WithField(ctx, "kernel", n.Kernel.String())
	ctx = xsync.WithNoLogging(ctx, true)
	logger.Debugf(ctx, "Serve")
	defer func() { logger.Debugf(ctx, "/Serve: %v", _err) }()

	if !n.isServing.CompareAndSwap(false, true) {
		return ErrAlreadyServing{}
	}
	defer n.isServing.Store(false)

	sendErr := func(err error) {
		logger.Debugf(ctx, "Serve: sendErr(%v)", err)
		if errCh == nil {
			return
		}
		select {
		case errCh <- Error{Node: n, Err: err}:
		default:
			logger.Errorf(ctx, "error queue is full, cannot send error: '%v'", err)
		}
	}

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		logger.Errorf(ctx, "got panic in %s: %v:\n%s\n", n, r, debug.Stack())
		_err = fmt.Errorf("got panic: %v", r)
	}()

	for {
		// Both wakeup sources are taken before Step: anything happening
		// after Step observed the state closes one of them.
		changeCh := n.getChangeChan()
		freedCh := n.outstandingFreedChan(ctx)
		ran, err := n.Step(ctx)
		if err != nil {
			sendErr(err)
		}
		if ran {
			continue
		}
		if xsync.DoR1(ctx, &n.Locker, func() bool { return n.closed }) {
			return ErrClosed{}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changeCh:
		case <-freedCh:
		}
	}
}

func (n *Node) IsServing() bool {
	return n.isServing.Load()
}

// Package closuresignaler signals, once, that something has been closed
// (a kernel torn down, a frame freed).
package closuresignaler

import (
	"sync"
)

type ClosureSignaler struct {
	closeOnce sync.Once
	c         chan struct{}
}

func New() *ClosureSignaler {
	return &ClosureSignaler{
		c: make(chan struct{}),
	}
}

// CloseChan returns a channel closed by the first Close call.
func (c *ClosureSignaler) CloseChan() <-chan struct{} {
	return c.c
}

// Close reports whether this call was the one that closed the signaler.
func (c *ClosureSignaler) Close() bool {
	closed := false
	c.closeOnce.Do(func() {
		close(c.c)
		closed = true
	})
	return closed
}

func (c *ClosureSignaler) IsClosed() bool {
	select {
	case <-c.c:
		return true
	default:
		return false
	}
}

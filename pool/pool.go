// Package pool provides a generic object pool used to recycle buffer storage.
package pool

import (
	"runtime"
	"sync"

	"go.uber.org/atomic"
)

// ReuseMemory may be disabled to make every Get allocate (useful to hunt
// use-after-release bugs).
var ReuseMemory = true

type Pool[T any] struct {
	sync.Pool
	ResetFunc func(*T)

	AllocCount atomic.Uint64
	GetCount   atomic.Uint64
	PutCount   atomic.Uint64
}

// NewPool returns a pool allocating with allocFunc. freeFunc (if not nil) is
// called by the garbage collector for items dropped by the pool.
func NewPool[T any](
	allocFunc func() *T,
	resetFunc func(*T),
	freeFunc func(*T),
) *Pool[T] {
	p := &Pool[T]{
		ResetFunc: resetFunc,
	}
	p.Pool.New = func() any {
		p.AllocCount.Inc()
		v := allocFunc()
		if freeFunc != nil {
			runtime.SetFinalizer(v, func(v *T) {
				freeFunc(v)
			})
		}
		return v
	}
	return p
}

func (p *Pool[T]) Get() *T {
	p.GetCount.Inc()
	if !ReuseMemory {
		return p.Pool.New().(*T)
	}
	return p.Pool.Get().(*T)
}

func (p *Pool[T]) Put(items ...*T) {
	if !ReuseMemory {
		return
	}
	for _, item := range items {
		if p.ResetFunc != nil {
			p.ResetFunc(item)
		}
		p.PutCount.Inc()
		p.Pool.Put(item)
	}
}

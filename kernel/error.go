package kernel

import (
	"fmt"

	"github.com/xaionaro-go/quadcrop/format"
	"github.com/xaionaro-go/quadcrop/quad"
)

// ErrFormatIncompatible is returned when a format offered to (or found on)
// an input port is rejected by AcceptsInputFormat.
type ErrFormatIncompatible struct {
	Port   int
	Format format.Format
}

func (e ErrFormatIncompatible) Error() string {
	return fmt.Sprintf("port %d ('%s') does not accept %s", e.Port, portName(e.Port), e.Format)
}

type ErrDegenerateRegion struct {
	Quad quad.Quad
	Err  error
}

func (e ErrDegenerateRegion) Error() string {
	return fmt.Sprintf("unable to sample region %s: %v", e.Quad, e.Err)
}

func (e ErrDegenerateRegion) Unwrap() error {
	return e.Err
}

type ErrAllocationFailure struct {
	Format format.Format
	Err    error
}

func (e ErrAllocationFailure) Error() string {
	return fmt.Sprintf("unable to allocate an output frame of %s: %v", e.Format, e.Err)
}

func (e ErrAllocationFailure) Unwrap() error {
	return e.Err
}

type ErrResamplingFailure struct {
	Err error
}

func (e ErrResamplingFailure) Error() string {
	return fmt.Sprintf("resampling failed: %v", e.Err)
}

func (e ErrResamplingFailure) Unwrap() error {
	return e.Err
}

type ErrMissingInput struct {
	Port int
}

func (e ErrMissingInput) Error() string {
	return fmt.Sprintf("no data on port %d ('%s')", e.Port, portName(e.Port))
}

type ErrNotPrepared struct{}

func (ErrNotPrepared) Error() string {
	return "the kernel is not prepared"
}

type ErrClosed struct{}

func (ErrClosed) Error() string {
	return "the kernel is closed"
}

// ErrReentrantProcess is returned if Process is called while another Process
// call is in flight.
type ErrReentrantProcess struct{}

func (ErrReentrantProcess) Error() string {
	return "Process is already running"
}

type ErrUnknownParam struct {
	Name string
}

func (e ErrUnknownParam) Error() string {
	return fmt.Sprintf("unknown parameter '%s'", e.Name)
}

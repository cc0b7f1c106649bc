package kernel

import (
	"strings"
)

// Status is the set of conditions the host must wait for before invoking
// Process again.
type Status uint

const (
	// StatusWaitForAllInputs: every input port must receive fresh data.
	StatusWaitForAllInputs = Status(1 << iota)
	// StatusWaitForFreeOutputs: the previously published outputs must be
	// freed by the downstream consumers.
	StatusWaitForFreeOutputs
)

const StatusReady = Status(0)

func (s Status) Has(flag Status) bool {
	return s&flag == flag
}

func (s Status) String() string {
	if s == StatusReady {
		return "ready"
	}
	var flags []string
	if s.Has(StatusWaitForAllInputs) {
		flags = append(flags, "wait_for_all_inputs")
		s &^= StatusWaitForAllInputs
	}
	if s.Has(StatusWaitForFreeOutputs) {
		flags = append(flags, "wait_for_free_outputs")
		s &^= StatusWaitForFreeOutputs
	}
	if s != 0 {
		flags = append(flags, "unknown")
	}
	return strings.Join(flags, "|")
}

type State uint32

const (
	StateUninitialized = State(iota)
	StatePrepared
	StateReady
	StateExecuting
	StateTornDown
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StatePrepared:
		return "prepared"
	case StateReady:
		return "ready"
	case StateExecuting:
		return "executing"
	case StateTornDown:
		return "torn_down"
	default:
		return "unknown"
	}
}

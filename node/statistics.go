package node

import (
	"go.uber.org/atomic"
)

type Statistics struct {
	Invocations           atomic.Uint64
	Failures              atomic.Uint64
	Published             atomic.Uint64
	DroppedImages         atomic.Uint64
	MaxOutstandingOutputs atomic.Uint64
}

type StatisticsSnapshot struct {
	Invocations           uint64 `json:"invocations"`
	Failures              uint64 `json:"failures"`
	Published             uint64 `json:"published"`
	DroppedImages         uint64 `json:"dropped_images"`
	MaxOutstandingOutputs uint64 `json:"max_outstanding_outputs"`
}

func (s *Statistics) Snapshot() StatisticsSnapshot {
	return StatisticsSnapshot{
		Invocations:           s.Invocations.Load(),
		Failures:              s.Failures.Load(),
		Published:             s.Published.Load(),
		DroppedImages:         s.DroppedImages.Load(),
		MaxOutstandingOutputs: s.MaxOutstandingOutputs.Load(),
	}
}

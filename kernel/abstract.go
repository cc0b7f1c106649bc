package kernel

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/quadcrop/device"
	"github.com/xaionaro-go/quadcrop/format"
	"github.com/xaionaro-go/quadcrop/frame"
	"github.com/xaionaro-go/quadcrop/types"
)

// Abstract is a kernel as seen by its host.
type Abstract interface {
	fmt.Stringer
	types.Closer

	InputNames() []string
	OutputNames() []string
	AcceptsInputFormat(port int, f format.Format) bool
	OutputFormat(input format.Format) format.Format

	Prepare(ctx context.Context, dev device.Abstract) error
	Process(ctx context.Context, frames frame.Manager, in Inputs, out Publisher) (Status, error)
}

var _ Abstract = (*Crop)(nil)

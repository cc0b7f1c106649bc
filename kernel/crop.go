// Package kernel contains the crop kernel: it samples a quadrilateral region
// of an image into a new image of the configured size.
package kernel

import (
	"context"
	"errors"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/xaionaro-go/quadcrop/device"
	"github.com/xaionaro-go/quadcrop/frame"
	"github.com/xaionaro-go/quadcrop/logger"
	"github.com/xaionaro-go/quadcrop/quad"
	"github.com/xaionaro-go/quadcrop/types"
	"github.com/xaionaro-go/xsync"
	"go.uber.org/atomic"
)

// Inputs are the data available on the input ports for one invocation.
// The image is borrowed: the kernel never retains it beyond Process.
type Inputs struct {
	Image  *frame.Frame
	Region frame.Region
}

// Publisher sends a frame to the consumers of an output port. The publisher
// acquires its own references; the caller keeps its one.
type Publisher interface {
	Publish(ctx context.Context, port int, f *frame.Frame) error
}

// Crop is not reentrant: the host must not call Process concurrently.
type Crop struct {
	Locker xsync.Mutex
	config Config

	state   atomic.Uint32
	program device.Program

	Statistics Statistics
}

type Statistics struct {
	Processed         atomic.Uint64
	Failed            atomic.Uint64
	DegenerateRegions atomic.Uint64
}

func NewCrop(opts ...Option) (*Crop, error) {
	cfg := Options(opts).Config()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Crop{
		config: cfg,
	}, nil
}

func (c *Crop) GetObjectID() types.ObjectID {
	return types.GetObjectID(c)
}

func (c *Crop) String() string {
	cfg := c.GetConfig()
	return fmt.Sprintf("Crop(%dx%d)", cfg.OutputWidth, cfg.OutputHeight)
}

func (c *Crop) State() State {
	return State(c.state.Load())
}

func (c *Crop) GetConfig() Config {
	return xsync.DoR1(xsync.WithNoLogging(context.TODO(), true), &c.Locker, func() Config {
		return c.config
	})
}

// UpdateConfig replaces the configuration; it takes effect on the next
// Process call.
func (c *Crop) UpdateConfig(ctx context.Context, cfg Config) (_err error) {
	logger.Debugf(ctx, "UpdateConfig: %s", spew.Sdump(cfg))
	defer func() { logger.Debugf(ctx, "/UpdateConfig: %v", _err) }()
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.Locker.Do(ctx, func() {
		c.config = cfg
	})
	return nil
}

// SetParam updates a single parameter by its name (ParamOutputWidth or
// ParamOutputHeight).
func (c *Crop) SetParam(ctx context.Context, name string, value int) error {
	cfg := c.GetConfig()
	switch name {
	case ParamOutputWidth:
		cfg.OutputWidth = value
	case ParamOutputHeight:
		cfg.OutputHeight = value
	default:
		return ErrUnknownParam{Name: name}
	}
	return c.UpdateConfig(ctx, cfg)
}

// Prepare compiles the resampling program on dev; the program is reused by
// every following Process call. Calling it again is a no-op.
func (c *Crop) Prepare(
	ctx context.Context,
	dev device.Abstract,
) (_err error) {
	logger.Debugf(ctx, "Prepare(%s)", dev)
	defer func() { logger.Debugf(ctx, "/Prepare(%s): %v", dev, _err) }()

	switch c.State() {
	case StateUninitialized:
	case StateTornDown:
		return ErrClosed{}
	default:
		return nil
	}

	program, err := dev.NewProgram(ctx)
	if err != nil {
		return fmt.Errorf("unable to create the resampling program: %w", err)
	}
	c.program = program
	if !c.state.CompareAndSwap(uint32(StateUninitialized), uint32(StatePrepared)) {
		_ = program.Close(ctx)
		return fmt.Errorf("the state changed concurrently to %s", c.State())
	}
	return nil
}

func (c *Crop) enterProcess() error {
	for {
		state := c.State()
		switch state {
		case StatePrepared, StateReady:
		case StateUninitialized:
			return ErrNotPrepared{}
		case StateExecuting:
			return ErrReentrantProcess{}
		case StateTornDown:
			return ErrClosed{}
		}
		if c.state.CompareAndSwap(uint32(state), uint32(StateExecuting)) {
			return nil
		}
	}
}

// Process samples in.Region of in.Image into a newly allocated frame of the
// derived format and publishes it to PortImage.
//
// On success the returned status asks the host to wait for fresh data on
// every input and for the published frame to be freed. On failure nothing
// is published.
func (c *Crop) Process(
	ctx context.Context,
	frames frame.Manager,
	in Inputs,
	out Publisher,
) (_ret Status, _err error) {
	logger.Tracef(ctx, "Process")
	defer func() { logger.Tracef(ctx, "/Process: %s %v", _ret, _err) }()

	if err := c.enterProcess(); err != nil {
		return StatusReady, err
	}
	defer c.state.CompareAndSwap(uint32(StateExecuting), uint32(StateReady))

	if err := c.process(ctx, frames, in, out); err != nil {
		c.Statistics.Failed.Inc()
		var errDegenerate ErrDegenerateRegion
		if errors.As(err, &errDegenerate) {
			c.Statistics.DegenerateRegions.Inc()
		}
		return StatusWaitForAllInputs, err
	}
	c.Statistics.Processed.Inc()
	return StatusWaitForAllInputs | StatusWaitForFreeOutputs, nil
}

func (c *Crop) process(
	ctx context.Context,
	frames frame.Manager,
	in Inputs,
	out Publisher,
) (_err error) {
	if in.Image == nil {
		return ErrMissingInput{Port: PortImage}
	}
	inputFormat := in.Image.Format()
	if !c.AcceptsInputFormat(PortImage, inputFormat) {
		return ErrFormatIncompatible{Port: PortImage, Format: inputFormat}
	}
	if !c.AcceptsInputFormat(PortRegion, in.Region.Format) {
		return ErrFormatIncompatible{Port: PortRegion, Format: in.Region.Format}
	}
	region := in.Region.Quad

	outputFormat := c.OutputFormat(inputFormat)
	output, err := frames.NewFrame(ctx, outputFormat)
	if err != nil {
		return ErrAllocationFailure{Format: outputFormat, Err: err}
	}
	defer func() {
		if err := output.Release(ctx); err != nil {
			logger.Errorf(ctx, "unable to release %s: %v", output, err)
		}
	}()

	if err := c.program.SetSourceRegion(region); err != nil {
		return samplingError(region, err)
	}
	if err := c.program.Process(ctx, in.Image.Buffer(), output.Buffer()); err != nil {
		return samplingError(region, err)
	}

	if err := out.Publish(ctx, PortImage, output); err != nil {
		return fmt.Errorf("unable to publish %s: %w", output, err)
	}
	return nil
}

func samplingError(region quad.Quad, err error) error {
	var errDegenerate quad.ErrDegenerate
	if errors.As(err, &errDegenerate) {
		return ErrDegenerateRegion{Quad: region, Err: err}
	}
	return ErrResamplingFailure{Err: err}
}

// Close releases the resampling program; the kernel may not be used
// afterwards.
func (c *Crop) Close(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Close")
	defer func() { logger.Debugf(ctx, "/Close: %v", _err) }()

	prev := State(c.state.Swap(uint32(StateTornDown)))
	if prev == StateTornDown || c.program == nil {
		return nil
	}
	if prev == StateExecuting {
		logger.Warnf(ctx, "closing %s while Process is running", c)
	}
	if err := c.program.Close(ctx); err != nil {
		return fmt.Errorf("unable to close the resampling program: %w", err)
	}
	return nil
}

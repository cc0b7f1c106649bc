package kernel

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/quadcrop/device"
	"github.com/xaionaro-go/quadcrop/format"
	"github.com/xaionaro-go/quadcrop/frame"
	"github.com/xaionaro-go/quadcrop/quad"
)

type testEnv struct {
	Device    *device.Software
	Dummy     *DummyDevice
	Frames    *frame.DeviceManager
	Publisher *DummyPublisher
	Crop      *Crop
}

func newTestEnv(t *testing.T, devOpts []device.Option, opts ...Option) *testEnv {
	t.Helper()
	ctx := context.Background()

	dev := device.NewSoftware(devOpts...)
	dummy := &DummyDevice{Abstract: dev}
	c, err := NewCrop(opts...)
	require.NoError(t, err)
	require.NoError(t, c.Prepare(ctx, dummy))
	t.Cleanup(func() { _ = c.Close(ctx) })

	return &testEnv{
		Device:    dev,
		Dummy:     dummy,
		Frames:    frame.NewDeviceManager(dummy),
		Publisher: &DummyPublisher{},
		Crop:      c,
	}
}

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: uint8(x ^ y), A: 255})
		}
	}
	return img
}

func (env *testEnv) upload(t *testing.T, img image.Image) *frame.Frame {
	t.Helper()
	f, err := env.Frames.Upload(context.Background(), img)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Release(context.Background()) })
	return f
}

func (env *testEnv) process(in Inputs) (Status, error) {
	return env.Crop.Process(context.Background(), env.Frames, in, env.Publisher)
}

func TestCropIdentity(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	src := testImage(200, 100)
	in := env.upload(t, src)

	status, err := env.process(Inputs{Image: in, Region: frame.NewRegion(quad.Full())})
	require.NoError(t, err)
	require.Equal(t, StatusWaitForAllInputs|StatusWaitForFreeOutputs, status)
	require.Len(t, env.Publisher.Published, 1)

	out := env.Publisher.Published[0]
	require.Equal(t, in.Format(), out.Format())
	require.Equal(t, int32(1), out.RefCount(), "the kernel must release its own reference")

	img, err := env.Frames.Download(ctx, out)
	require.NoError(t, err)
	require.Equal(t, src.Pix, img.Pix)

	require.NoError(t, env.Publisher.ReleaseAll(ctx))
	require.True(t, out.IsFreed())
	require.Equal(t, uint64(1), env.Crop.Statistics.Processed.Load())
}

func TestCropLeftHalf(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil, OptionOutputWidth(100))
	src := testImage(200, 100)
	in := env.upload(t, src)

	_, err := env.process(Inputs{Image: in, Region: frame.NewRegion(quad.FromRectangle(0, 0, 0.5, 1))})
	require.NoError(t, err)

	out := env.Publisher.Published[0]
	require.Equal(t, 100, out.Format().Width)
	require.Equal(t, 100, out.Format().Height)

	img, err := env.Frames.Download(ctx, out)
	require.NoError(t, err)
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			require.Equal(t, src.RGBAAt(x, y), img.RGBAAt(x, y), "pixel (%d,%d)", x, y)
		}
	}
	require.NoError(t, env.Publisher.ReleaseAll(ctx))
}

func TestCropDegenerateRegion(t *testing.T) {
	env := newTestEnv(t, nil)
	in := env.upload(t, testImage(8, 8))

	p := quad.Point{X: 0.5, Y: 0.5}
	status, err := env.process(Inputs{Image: in, Region: frame.NewRegion(quad.New(p, p, p, p))})

	var errDegenerate ErrDegenerateRegion
	require.True(t, errors.As(err, &errDegenerate), "%v", err)
	var errQuad quad.ErrDegenerate
	require.True(t, errors.As(err, &errQuad))
	require.Equal(t, StatusWaitForAllInputs, status)
	require.Empty(t, env.Publisher.Published)
	require.Equal(t, uint64(1), env.Frames.OutstandingFrames(), "only the input frame may stay allocated")
	require.Equal(t, uint64(1), env.Crop.Statistics.DegenerateRegions.Load())
	require.Equal(t, StateReady, env.Crop.State())
}

func TestCropAllocationFailure(t *testing.T) {
	env := newTestEnv(t, []device.Option{device.OptionMemoryLimit(8 * 8 * 4)}, OptionOutputWidth(16))
	in := env.upload(t, testImage(8, 8))

	_, err := env.process(Inputs{Image: in, Region: frame.NewRegion(quad.Full())})
	var errAllocation ErrAllocationFailure
	require.True(t, errors.As(err, &errAllocation), "%v", err)
	require.Equal(t, 16, errAllocation.Format.Width)
	var errOOM device.ErrOutOfMemory
	require.True(t, errors.As(err, &errOOM))
	require.Empty(t, env.Publisher.Published)
}

func TestCropOversizedOutput(t *testing.T) {
	env := newTestEnv(t, nil, OptionOutputWidth(1<<30), OptionOutputHeight(1<<30))
	in := env.upload(t, testImage(8, 8))

	status, err := env.process(Inputs{Image: in, Region: frame.NewRegion(quad.Full())})
	var errAllocation ErrAllocationFailure
	require.True(t, errors.As(err, &errAllocation), "%v", err)
	var errSize device.ErrInvalidSize
	require.True(t, errors.As(err, &errSize))
	require.Equal(t, StatusWaitForAllInputs, status)
	require.Empty(t, env.Publisher.Published)
	require.Equal(t, uint64(1), env.Frames.OutstandingFrames())
}

func TestCropResamplingFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	in := env.upload(t, testImage(8, 8))
	env.Dummy.ProcessFn = func(ctx context.Context, src, dst device.Buffer) error {
		return fmt.Errorf("device lost")
	}

	_, err := env.process(Inputs{Image: in, Region: frame.NewRegion(quad.Full())})
	var errResampling ErrResamplingFailure
	require.True(t, errors.As(err, &errResampling), "%v", err)
	require.Empty(t, env.Publisher.Published)
	require.Equal(t, uint64(1), env.Frames.OutstandingFrames())
	require.Equal(t, uint64(1), env.Crop.Statistics.Failed.Load())
}

func TestCropPublishFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	in := env.upload(t, testImage(8, 8))
	env.Publisher.PublishFn = func(ctx context.Context, port int, f *frame.Frame) error {
		return fmt.Errorf("downstream is gone")
	}

	_, err := env.process(Inputs{Image: in, Region: frame.NewRegion(quad.Full())})
	require.Error(t, err)
	require.Equal(t, uint64(1), env.Frames.OutstandingFrames())
}

func TestCropInvalidInputs(t *testing.T) {
	env := newTestEnv(t, nil)
	in := env.upload(t, testImage(8, 8))

	_, err := env.process(Inputs{Region: frame.NewRegion(quad.Full())})
	require.ErrorIs(t, err, ErrMissingInput{Port: PortImage})

	_, err = env.process(Inputs{Image: in, Region: frame.Region{Quad: quad.Full()}})
	var errFormat ErrFormatIncompatible
	require.True(t, errors.As(err, &errFormat))
	require.Equal(t, PortRegion, errFormat.Port)
}

func TestCropLifecycle(t *testing.T) {
	ctx := context.Background()
	dev := &DummyDevice{Abstract: device.NewSoftware()}
	frames := frame.NewDeviceManager(dev)
	c, err := NewCrop()
	require.NoError(t, err)
	require.Equal(t, StateUninitialized, c.State())

	in, err := frames.Upload(ctx, testImage(4, 4))
	require.NoError(t, err)
	defer in.Release(ctx)
	inputs := Inputs{Image: in, Region: frame.NewRegion(quad.Full())}

	_, err = c.Process(ctx, frames, inputs, &DummyPublisher{})
	require.ErrorIs(t, err, ErrNotPrepared{})

	require.NoError(t, c.Prepare(ctx, dev))
	require.NoError(t, c.Prepare(ctx, dev))
	require.Equal(t, 1, dev.NewProgramCallCount)
	require.Equal(t, StatePrepared, c.State())

	publisher := &DummyPublisher{}
	for i := 0; i < 3; i++ {
		_, err = c.Process(ctx, frames, inputs, publisher)
		require.NoError(t, err)
		require.Equal(t, StateReady, c.State())
		require.NoError(t, publisher.ReleaseAll(ctx))
	}
	require.Equal(t, 1, dev.NewProgramCallCount)

	// a nested call from inside the program must be refused
	var nestedErr error
	dev.ProcessFn = func(ctx context.Context, src, dst device.Buffer) error {
		_, nestedErr = c.Process(ctx, frames, inputs, &DummyPublisher{})
		return nil
	}
	_, err = c.Process(ctx, frames, inputs, publisher)
	require.NoError(t, err)
	require.ErrorIs(t, nestedErr, ErrReentrantProcess{})
	require.NoError(t, publisher.ReleaseAll(ctx))
	dev.ProcessFn = nil

	require.NoError(t, c.Close(ctx))
	require.NoError(t, c.Close(ctx))
	require.Equal(t, StateTornDown, c.State())
	_, err = c.Process(ctx, frames, inputs, publisher)
	require.ErrorIs(t, err, ErrClosed{})
	require.ErrorIs(t, c.Prepare(ctx, dev), ErrClosed{})
}

func TestCropConfig(t *testing.T) {
	ctx := context.Background()

	_, err := NewCrop(OptionOutputWidth(0))
	var errConfig ErrInvalidConfig
	require.True(t, errors.As(err, &errConfig))
	require.Equal(t, ParamOutputWidth, errConfig.Param)

	c, err := NewCrop()
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), c.GetConfig())

	require.NoError(t, c.SetParam(ctx, ParamOutputWidth, 50))
	require.Equal(t, Config{OutputWidth: 50, OutputHeight: Inherit}, c.GetConfig())
	out := c.OutputFormat(format.NewImageSized(format.ColorSpaceRGBA, format.TargetDevice, 200, 100))
	require.Equal(t, 50, out.Width)
	require.Equal(t, 100, out.Height)

	require.True(t, errors.As(c.SetParam(ctx, ParamOutputHeight, -5), &errConfig))
	require.Equal(t, ParamOutputHeight, errConfig.Param)
	require.Equal(t, Config{OutputWidth: 50, OutputHeight: Inherit}, c.GetConfig())

	require.ErrorIs(t, c.SetParam(ctx, "scale", 2), ErrUnknownParam{Name: "scale"})

	require.NoError(t, c.UpdateConfig(ctx, DefaultConfig()))
	require.Equal(t, DefaultConfig(), c.GetConfig())
}

func TestStatusString(t *testing.T) {
	require.Equal(t, "ready", StatusReady.String())
	require.Equal(t, "wait_for_all_inputs|wait_for_free_outputs", (StatusWaitForAllInputs | StatusWaitForFreeOutputs).String())
	require.True(t, (StatusWaitForAllInputs | StatusWaitForFreeOutputs).Has(StatusWaitForFreeOutputs))
	require.False(t, StatusWaitForAllInputs.Has(StatusWaitForFreeOutputs))
}

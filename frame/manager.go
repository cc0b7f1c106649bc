package frame

import (
	"context"
	"fmt"
	"image"

	"github.com/dustin/go-humanize"
	"github.com/xaionaro-go/quadcrop/device"
	"github.com/xaionaro-go/quadcrop/format"
	"github.com/xaionaro-go/quadcrop/logger"
	"go.uber.org/atomic"
)

// Manager allocates frames. A frame is returned with one reference owned by
// the caller; it is released with Frame.Release.
type Manager interface {
	NewFrame(ctx context.Context, f format.Format) (*Frame, error)
	Upload(ctx context.Context, img image.Image) (*Frame, error)
	Download(ctx context.Context, f *Frame) (*image.RGBA, error)
}

// DeviceManager allocates frames in the memory of a device.
type DeviceManager struct {
	Device device.Abstract

	allocatedCount atomic.Uint64
	freedCount     atomic.Uint64
	liveBytes      atomic.Int64
}

var _ Manager = (*DeviceManager)(nil)

func NewDeviceManager(dev device.Abstract) *DeviceManager {
	return &DeviceManager{
		Device: dev,
	}
}

func (m *DeviceManager) String() string {
	return fmt.Sprintf("DeviceManager(%s)", m.Device)
}

func isAllocatable(f format.Format) bool {
	return f.Width > 0 && f.Height > 0 &&
		f.IsCompatibleWith(format.NewImage(format.ColorSpaceRGBA, format.TargetDevice))
}

func (m *DeviceManager) NewFrame(
	ctx context.Context,
	f format.Format,
) (_ret *Frame, _err error) {
	logger.Tracef(ctx, "NewFrame(%s)", f)
	defer func() { logger.Tracef(ctx, "/NewFrame(%s): %v %v", f, _ret, _err) }()

	if !isAllocatable(f) {
		return nil, ErrUnsupportedFormat{Format: f}
	}
	buf, err := m.Device.NewBuffer(ctx, f.Width, f.Height)
	if err != nil {
		return nil, ErrAllocate{Format: f, Err: err}
	}
	return m.track(f, buf), nil
}

func (m *DeviceManager) Upload(
	ctx context.Context,
	img image.Image,
) (_ret *Frame, _err error) {
	logger.Tracef(ctx, "Upload")
	defer func() { logger.Tracef(ctx, "/Upload: %v %v", _ret, _err) }()

	bounds := img.Bounds()
	f := format.NewImageSized(format.ColorSpaceRGBA, format.TargetDevice, bounds.Dx(), bounds.Dy())
	buf, err := m.Device.Upload(ctx, img)
	if err != nil {
		return nil, ErrAllocate{Format: f, Err: err}
	}
	return m.track(f, buf), nil
}

func (m *DeviceManager) track(f format.Format, buf device.Buffer) *Frame {
	m.allocatedCount.Inc()
	m.liveBytes.Add(int64(f.Size()))
	return newFrame(f, buf, m)
}

func (m *DeviceManager) Download(
	ctx context.Context,
	f *Frame,
) (*image.RGBA, error) {
	if f.owner != m {
		return nil, ErrForeignFrame{Frame: f}
	}
	if f.IsFreed() {
		return nil, ErrFrameFreed{Frame: f}
	}
	return m.Device.Download(ctx, f.buffer)
}

func (m *DeviceManager) freeFrame(ctx context.Context, f *Frame) error {
	m.freedCount.Inc()
	m.liveBytes.Sub(int64(f.format.Size()))
	if err := m.Device.FreeBuffer(ctx, f.buffer); err != nil {
		logger.Errorf(ctx, "unable to free the buffer of %s: %v", f, err)
		return fmt.Errorf("unable to free the buffer: %w", err)
	}
	return nil
}

// OutstandingFrames returns the amount of frames allocated and not freed yet.
func (m *DeviceManager) OutstandingFrames() uint64 {
	return m.allocatedCount.Load() - m.freedCount.Load()
}

type ManagerStatistics struct {
	Allocated uint64
	Freed     uint64
	LiveBytes int64
}

func (s ManagerStatistics) String() string {
	return fmt.Sprintf(
		"allocated:%d freed:%d live:%s",
		s.Allocated, s.Freed, humanize.IBytes(uint64(max(s.LiveBytes, 0))),
	)
}

func (m *DeviceManager) GetStatistics() ManagerStatistics {
	return ManagerStatistics{
		Allocated: m.allocatedCount.Load(),
		Freed:     m.freedCount.Load(),
		LiveBytes: m.liveBytes.Load(),
	}
}

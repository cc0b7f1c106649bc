package device

import (
	"context"
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/clone"
	"github.com/xaionaro-go/quadcrop/helpers/closuresignaler"
	"github.com/xaionaro-go/quadcrop/logger"
	"github.com/xaionaro-go/quadcrop/pool"
	"github.com/xaionaro-go/xsync"
	"go.uber.org/atomic"
)

// Software is an accelerator emulated in host memory. It keeps the contract
// of a real device (buffers are reachable only via Upload/Download, programs
// are compiled once and reused), so it is used wherever no GPU is available.
type Software struct {
	*closuresignaler.ClosureSignaler
	Config Config

	locker xsync.Mutex
	pools  map[int]*pool.Pool[[]byte]

	allocatedBytes atomic.Uint64
	buffersCount   atomic.Int64
	programsCount  atomic.Int64
}

var _ Abstract = (*Software)(nil)

func NewSoftware(opts ...Option) *Software {
	return &Software{
		ClosureSignaler: closuresignaler.New(),
		Config:          Options(opts).Config(),
		pools:           map[int]*pool.Pool[[]byte]{},
	}
}

func (d *Software) String() string {
	return "SoftwareDevice"
}

func (d *Software) Close(ctx context.Context) error {
	logger.Debugf(ctx, "Close")
	defer func() { logger.Debugf(ctx, "/Close") }()
	d.ClosureSignaler.Close()
	return nil
}

// AllocatedBytes returns the amount of bytes currently held by live buffers.
func (d *Software) AllocatedBytes() uint64 {
	return d.allocatedBytes.Load()
}

// BuffersCount returns the amount of live buffers.
func (d *Software) BuffersCount() int64 {
	return d.buffersCount.Load()
}

func (d *Software) storagePool(ctx context.Context, size int) *pool.Pool[[]byte] {
	return xsync.DoR1(xsync.WithNoLogging(ctx, true), &d.locker, func() *pool.Pool[[]byte] {
		p, ok := d.pools[size]
		if !ok {
			p = pool.NewPool(
				func() *[]byte {
					b := make([]byte, size)
					return &b
				},
				nil,
				nil,
			)
			d.pools[size] = p
		}
		return p
	})
}

func (d *Software) NewBuffer(
	ctx context.Context,
	width, height int,
) (_ret Buffer, _err error) {
	logger.Tracef(ctx, "NewBuffer(%d, %d)", width, height)
	defer func() { logger.Tracef(ctx, "/NewBuffer(%d, %d): %v %v", width, height, _ret, _err) }()
	return d.newBuffer(ctx, width, height)
}

func (d *Software) newBuffer(
	ctx context.Context,
	width, height int,
) (*softwareBuffer, error) {
	if d.IsClosed() {
		return nil, ErrClosed{}
	}
	size, err := bufferSize(width, height)
	if err != nil {
		return nil, err
	}
	allocated := d.allocatedBytes.Add(uint64(size))
	if limit := d.Config.MemoryLimit; limit > 0 && allocated > limit {
		d.allocatedBytes.Sub(uint64(size))
		return nil, ErrOutOfMemory{
			Requested: uint64(size),
			Allocated: allocated - uint64(size),
			Limit:     limit,
		}
	}

	storage := d.storagePool(ctx, size).Get()
	clear(*storage)
	d.buffersCount.Inc()
	return &softwareBuffer{
		device:  d,
		storage: storage,
		img: &image.RGBA{
			Pix:    *storage,
			Stride: width * 4,
			Rect:   image.Rect(0, 0, width, height),
		},
	}, nil
}

func (d *Software) FreeBuffer(
	ctx context.Context,
	buf Buffer,
) (_err error) {
	logger.Tracef(ctx, "FreeBuffer(%s)", buf)
	defer func() { logger.Tracef(ctx, "/FreeBuffer(%s): %v", buf, _err) }()

	b, err := d.ownBuffer(buf)
	if err != nil {
		return err
	}
	if !b.freed.CompareAndSwap(false, true) {
		return ErrBufferFreed{Buffer: buf}
	}

	size := len(*b.storage)
	d.storagePool(ctx, size).Put(b.storage)
	d.allocatedBytes.Sub(uint64(size))
	d.buffersCount.Dec()
	b.img = nil
	b.storage = nil
	return nil
}

func (d *Software) ownBuffer(buf Buffer) (*softwareBuffer, error) {
	b, ok := buf.(*softwareBuffer)
	if !ok || b.device != d {
		return nil, ErrForeignBuffer{Buffer: buf}
	}
	if b.freed.Load() {
		return nil, ErrBufferFreed{Buffer: buf}
	}
	return b, nil
}

func (d *Software) Upload(
	ctx context.Context,
	img image.Image,
) (_ret Buffer, _err error) {
	logger.Tracef(ctx, "Upload")
	defer func() { logger.Tracef(ctx, "/Upload: %v %v", _ret, _err) }()

	bounds := img.Bounds()
	buf, err := d.newBuffer(ctx, bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}

	rgba, ok := img.(*image.RGBA)
	if !ok {
		rgba = clone.AsRGBA(img)
	}
	rowSize := bounds.Dx() * 4
	for y := 0; y < bounds.Dy(); y++ {
		srcOffset := rgba.PixOffset(rgba.Rect.Min.X, rgba.Rect.Min.Y+y)
		copy(buf.img.Pix[y*buf.img.Stride:y*buf.img.Stride+rowSize], rgba.Pix[srcOffset:srcOffset+rowSize])
	}
	return buf, nil
}

func (d *Software) Download(
	ctx context.Context,
	buf Buffer,
) (_ret *image.RGBA, _err error) {
	logger.Tracef(ctx, "Download(%s)", buf)
	defer func() { logger.Tracef(ctx, "/Download(%s): %v", buf, _err) }()

	b, err := d.ownBuffer(buf)
	if err != nil {
		return nil, err
	}
	result := image.NewRGBA(b.img.Rect)
	copy(result.Pix, b.img.Pix)
	return result, nil
}

func (d *Software) NewProgram(
	ctx context.Context,
) (_ret Program, _err error) {
	logger.Debugf(ctx, "NewProgram")
	defer func() { logger.Debugf(ctx, "/NewProgram: %v %v", _ret, _err) }()
	if d.IsClosed() {
		return nil, ErrClosed{}
	}
	d.programsCount.Inc()
	return &softwareProgram{
		device: d,
		filter: d.Config.Filter,
	}, nil
}

type softwareBuffer struct {
	device  *Software
	storage *[]byte
	img     *image.RGBA
	freed   atomic.Bool
}

var _ Buffer = (*softwareBuffer)(nil)

func (b *softwareBuffer) String() string {
	return fmt.Sprintf("SoftwareBuffer(%p)", b)
}

func (b *softwareBuffer) Width() int {
	if b.img == nil {
		return 0
	}
	return b.img.Rect.Dx()
}

func (b *softwareBuffer) Height() int {
	if b.img == nil {
		return 0
	}
	return b.img.Rect.Dy()
}

//go:build with_cv
// +build with_cv

package device

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/clone"
	"github.com/xaionaro-go/quadcrop/helpers/closuresignaler"
	"github.com/xaionaro-go/quadcrop/logger"
	"github.com/xaionaro-go/quadcrop/quad"
	"github.com/xaionaro-go/quadcrop/sampler"
	"go.uber.org/atomic"
	"gocv.io/x/gocv"
)

// OpenCV keeps buffers in OpenCV matrices and resamples them with
// cv::warpPerspective (which may be offloaded to OpenCL by OpenCV).
type OpenCV struct {
	*closuresignaler.ClosureSignaler
	Config Config

	allocatedBytes atomic.Uint64
}

var _ Abstract = (*OpenCV)(nil)

func NewOpenCV(opts ...Option) *OpenCV {
	return &OpenCV{
		ClosureSignaler: closuresignaler.New(),
		Config:          Options(opts).Config(),
	}
}

func (d *OpenCV) String() string {
	return "OpenCVDevice"
}

func (d *OpenCV) Close(ctx context.Context) error {
	d.ClosureSignaler.Close()
	return nil
}

func (d *OpenCV) NewBuffer(
	ctx context.Context,
	width, height int,
) (Buffer, error) {
	if d.IsClosed() {
		return nil, ErrClosed{}
	}
	bytes, err := bufferSize(width, height)
	if err != nil {
		return nil, err
	}
	size := uint64(bytes)
	allocated := d.allocatedBytes.Add(size)
	if limit := d.Config.MemoryLimit; limit > 0 && allocated > limit {
		d.allocatedBytes.Sub(size)
		return nil, ErrOutOfMemory{Requested: size, Allocated: allocated - size, Limit: limit}
	}
	return &openCVBuffer{
		device: d,
		mat:    gocv.Zeros(height, width, gocv.MatTypeCV8UC4),
	}, nil
}

func (d *OpenCV) ownBuffer(buf Buffer) (*openCVBuffer, error) {
	b, ok := buf.(*openCVBuffer)
	if !ok || b.device != d {
		return nil, ErrForeignBuffer{Buffer: buf}
	}
	if b.freed.Load() {
		return nil, ErrBufferFreed{Buffer: buf}
	}
	return b, nil
}

func (d *OpenCV) FreeBuffer(
	ctx context.Context,
	buf Buffer,
) error {
	b, err := d.ownBuffer(buf)
	if err != nil {
		return err
	}
	if !b.freed.CompareAndSwap(false, true) {
		return ErrBufferFreed{Buffer: buf}
	}
	d.allocatedBytes.Sub(uint64(b.mat.Rows() * b.mat.Cols() * 4))
	return b.mat.Close()
}

func (d *OpenCV) Upload(
	ctx context.Context,
	img image.Image,
) (_ret Buffer, _err error) {
	logger.Tracef(ctx, "Upload")
	defer func() { logger.Tracef(ctx, "/Upload: %v", _err) }()
	if d.IsClosed() {
		return nil, ErrClosed{}
	}

	bounds := img.Bounds()
	if _, err := bufferSize(bounds.Dx(), bounds.Dy()); err != nil {
		return nil, err
	}
	mat, err := gocv.ImageToMatRGBA(clone.AsRGBA(img))
	if err != nil {
		return nil, fmt.Errorf("unable to convert the image to an OpenCV matrix: %w", err)
	}
	size := uint64(mat.Rows() * mat.Cols() * 4)
	allocated := d.allocatedBytes.Add(size)
	if limit := d.Config.MemoryLimit; limit > 0 && allocated > limit {
		d.allocatedBytes.Sub(size)
		mat.Close()
		return nil, ErrOutOfMemory{Requested: size, Allocated: allocated - size, Limit: limit}
	}
	return &openCVBuffer{device: d, mat: mat}, nil
}

func (d *OpenCV) Download(
	ctx context.Context,
	buf Buffer,
) (*image.RGBA, error) {
	b, err := d.ownBuffer(buf)
	if err != nil {
		return nil, err
	}
	img, err := b.mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("unable to convert the OpenCV matrix to an image: %w", err)
	}
	rgba := clone.AsRGBA(img)
	if rgba.Rect.Min != (image.Point{}) {
		rgba.Rect = rgba.Rect.Sub(rgba.Rect.Min)
	}
	return rgba, nil
}

func (d *OpenCV) NewProgram(ctx context.Context) (Program, error) {
	if d.IsClosed() {
		return nil, ErrClosed{}
	}
	interpolation := gocv.InterpolationLinear
	if d.Config.Filter == sampler.FilterNearest {
		interpolation = gocv.InterpolationNearestNeighbor
	}
	return &openCVProgram{device: d, interpolation: interpolation}, nil
}

type openCVBuffer struct {
	device *OpenCV
	mat    gocv.Mat
	freed  atomic.Bool
}

func (b *openCVBuffer) String() string {
	return fmt.Sprintf("OpenCVBuffer(%p)", b)
}

func (b *openCVBuffer) Width() int {
	return b.mat.Cols()
}

func (b *openCVBuffer) Height() int {
	return b.mat.Rows()
}

type openCVProgram struct {
	device        *OpenCV
	interpolation gocv.InterpolationFlags
	region        *quad.Quad
}

func (p *openCVProgram) String() string {
	return "OpenCVProgram"
}

func (p *openCVProgram) Close(ctx context.Context) error {
	return nil
}

func (p *openCVProgram) SetSourceRegion(q quad.Quad) error {
	if _, err := quad.UnitSquareTo(q); err != nil {
		return err
	}
	p.region = &q
	return nil
}

func (p *openCVProgram) Process(
	ctx context.Context,
	src, dst Buffer,
) (_err error) {
	logger.Tracef(ctx, "Process(%s, %s)", src, dst)
	defer func() { logger.Tracef(ctx, "/Process(%s, %s): %v", src, dst, _err) }()
	if p.region == nil {
		return ErrNoSourceRegion{}
	}
	srcBuf, err := p.device.ownBuffer(src)
	if err != nil {
		return fmt.Errorf("invalid source buffer: %w", err)
	}
	dstBuf, err := p.device.ownBuffer(dst)
	if err != nil {
		return fmt.Errorf("invalid destination buffer: %w", err)
	}

	// pixel centers: normalized u corresponds to u*width-0.5
	sw, sh := float64(srcBuf.Width()), float64(srcBuf.Height())
	dw, dh := float32(dstBuf.Width()), float32(dstBuf.Height())
	var srcPts []gocv.Point2f
	for _, pt := range p.region.Points() {
		srcPts = append(srcPts, gocv.Point2f{
			X: float32(pt.X*sw - 0.5),
			Y: float32(pt.Y*sh - 0.5),
		})
	}
	dstPts := []gocv.Point2f{
		{X: -0.5, Y: -0.5},
		{X: dw - 0.5, Y: -0.5},
		{X: -0.5, Y: dh - 0.5},
		{X: dw - 0.5, Y: dh - 0.5},
	}

	srcVec := gocv.NewPoint2fVectorFromPoints(srcPts)
	defer srcVec.Close()
	dstVec := gocv.NewPoint2fVectorFromPoints(dstPts)
	defer dstVec.Close()

	m := gocv.GetPerspectiveTransform2f(srcVec, dstVec)
	defer m.Close()
	if m.Empty() {
		return quad.ErrDegenerate{Quad: *p.region, Reason: "OpenCV was unable to build the transform"}
	}

	gocv.WarpPerspectiveWithParams(
		srcBuf.mat, &dstBuf.mat, m,
		image.Pt(dstBuf.Width(), dstBuf.Height()),
		p.interpolation, gocv.BorderReplicate, color.RGBA{},
	)
	return nil
}

// Package avframe moves images between libav frames and crop frames, so the
// crop node can be fed by (and feed) a libav based media pipeline.
package avframe

import (
	"context"
	"fmt"
	"image"

	"github.com/asticode/go-astiav"
	"github.com/xaionaro-go/quadcrop/format"
	"github.com/xaionaro-go/quadcrop/frame"
	"github.com/xaionaro-go/quadcrop/logger"
	"github.com/xaionaro-go/quadcrop/pool"
)

// Pool recycles the libav frames returned by Download.
var Pool = pool.NewPool(
	astiav.AllocFrame,
	func(f *astiav.Frame) { f.Unref() },
	func(f *astiav.Frame) { f.Free() },
)

type ErrUnsupportedPixelFormat struct {
	PixelFormat astiav.PixelFormat
}

func (e ErrUnsupportedPixelFormat) Error() string {
	return fmt.Sprintf("pixel format %s is not supported, only %s is", e.PixelFormat, astiav.PixelFormatRgba)
}

// Format returns the format of a libav video frame.
func Format(f *astiav.Frame) format.Format {
	result := format.NewImageSized(format.ColorSpaceUnspecified, format.TargetHost, f.Width(), f.Height())
	switch f.PixelFormat() {
	case astiav.PixelFormatRgba:
		result.ColorSpace = format.ColorSpaceRGBA
	case astiav.PixelFormatRgb24:
		result.ColorSpace = format.ColorSpaceRGB
	case astiav.PixelFormatGray8:
		result.ColorSpace = format.ColorSpaceGray
	case astiav.PixelFormatYuv420P:
		result.ColorSpace = format.ColorSpaceYUV
	}
	return result
}

// Upload copies an RGBA libav frame into a new frame allocated by frames.
// There is no pixel format conversion: other formats are refused.
func Upload(
	ctx context.Context,
	frames frame.Manager,
	f *astiav.Frame,
) (_ret *frame.Frame, _err error) {
	logger.Tracef(ctx, "Upload")
	defer func() { logger.Tracef(ctx, "/Upload: %v %v", _ret, _err) }()

	if pixFmt := f.PixelFormat(); pixFmt != astiav.PixelFormatRgba {
		return nil, ErrUnsupportedPixelFormat{PixelFormat: pixFmt}
	}
	var img image.RGBA
	if err := f.Data().ToImage(&img); err != nil {
		return nil, fmt.Errorf("unable to convert the frame to RGBA: %w", err)
	}
	return frames.Upload(ctx, &img)
}

// Download copies a crop frame into a libav RGBA frame taken from Pool.
// The caller returns it with Pool.Put.
func Download(
	ctx context.Context,
	frames frame.Manager,
	src *frame.Frame,
) (_ret *astiav.Frame, _err error) {
	logger.Tracef(ctx, "Download(%s)", src)
	defer func() { logger.Tracef(ctx, "/Download(%s): %v", src, _err) }()

	img, err := frames.Download(ctx, src)
	if err != nil {
		return nil, err
	}

	f := Pool.Get()
	defer func() {
		if _err != nil {
			Pool.Put(f)
		}
	}()
	bounds := img.Bounds()
	f.SetWidth(bounds.Dx())
	f.SetHeight(bounds.Dy())
	f.SetPixelFormat(astiav.PixelFormatRgba)
	if err := f.AllocBuffer(0); err != nil {
		return nil, fmt.Errorf("unable to allocate frame buffer: %w", err)
	}
	if err := f.Data().FromImage(img); err != nil {
		return nil, fmt.Errorf("unable to copy the image into the frame: %w", err)
	}
	return f, nil
}

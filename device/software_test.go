package device

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/quadcrop/quad"
)

func TestSoftwareUploadDownload(t *testing.T) {
	ctx := context.Background()
	d := NewSoftware()
	defer d.Close(ctx)

	img := image.NewNRGBA(image.Rect(10, 10, 13, 12))
	img.SetNRGBA(10, 10, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	img.SetNRGBA(12, 11, color.NRGBA{R: 4, G: 5, B: 6, A: 255})

	buf, err := d.Upload(ctx, img)
	require.NoError(t, err)
	require.Equal(t, 3, buf.Width())
	require.Equal(t, 2, buf.Height())
	require.Equal(t, uint64(3*2*4), d.AllocatedBytes())

	out, err := d.Download(ctx, buf)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 3, 2), out.Rect)
	require.Equal(t, color.RGBA{R: 1, G: 2, B: 3, A: 255}, out.RGBAAt(0, 0))
	require.Equal(t, color.RGBA{R: 4, G: 5, B: 6, A: 255}, out.RGBAAt(2, 1))

	// the downloaded image is a copy
	out.SetRGBA(0, 0, color.RGBA{})
	again, err := d.Download(ctx, buf)
	require.NoError(t, err)
	require.Equal(t, color.RGBA{R: 1, G: 2, B: 3, A: 255}, again.RGBAAt(0, 0))

	require.NoError(t, d.FreeBuffer(ctx, buf))
	require.Zero(t, d.AllocatedBytes())
	require.Zero(t, d.BuffersCount())

	var errFreed ErrBufferFreed
	require.True(t, errors.As(d.FreeBuffer(ctx, buf), &errFreed))
	_, err = d.Download(ctx, buf)
	require.True(t, errors.As(err, &errFreed))
}

func TestSoftwareMemoryLimit(t *testing.T) {
	ctx := context.Background()
	d := NewSoftware(OptionMemoryLimit(100 * 100 * 4))

	a, err := d.NewBuffer(ctx, 100, 50)
	require.NoError(t, err)
	b, err := d.NewBuffer(ctx, 100, 50)
	require.NoError(t, err)

	_, err = d.NewBuffer(ctx, 1, 1)
	var errOOM ErrOutOfMemory
	require.True(t, errors.As(err, &errOOM), "%v", err)
	require.Equal(t, uint64(4), errOOM.Requested)
	require.Equal(t, uint64(100*100*4), errOOM.Allocated)

	require.NoError(t, d.FreeBuffer(ctx, a))
	c, err := d.NewBuffer(ctx, 1, 1)
	require.NoError(t, err)

	require.NoError(t, d.FreeBuffer(ctx, b))
	require.NoError(t, d.FreeBuffer(ctx, c))
	require.Zero(t, d.AllocatedBytes())
}

func TestSoftwareInvalidBuffers(t *testing.T) {
	ctx := context.Background()
	d0, d1 := NewSoftware(), NewSoftware()

	_, err := d0.NewBuffer(ctx, 0, 10)
	var errSize ErrInvalidSize
	require.True(t, errors.As(err, &errSize))

	buf, err := d1.NewBuffer(ctx, 1, 1)
	require.NoError(t, err)
	var errForeign ErrForeignBuffer
	require.True(t, errors.As(d0.FreeBuffer(ctx, buf), &errForeign))

	require.NoError(t, d0.Close(ctx))
	_, err = d0.NewBuffer(ctx, 1, 1)
	require.ErrorIs(t, err, ErrClosed{})
	_, err = d0.NewProgram(ctx)
	require.ErrorIs(t, err, ErrClosed{})
}

func TestSoftwareProgram(t *testing.T) {
	ctx := context.Background()
	d := NewSoftware()

	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for x := 0; x < 4; x++ {
		for y := 0; y < 2; y++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 50), G: uint8(y * 100), A: 255})
		}
	}
	src, err := d.Upload(ctx, img)
	require.NoError(t, err)
	dst, err := d.NewBuffer(ctx, 2, 2)
	require.NoError(t, err)

	prog, err := d.NewProgram(ctx)
	require.NoError(t, err)
	defer prog.Close(ctx)

	require.ErrorIs(t, prog.Process(ctx, src, dst), ErrNoSourceRegion{})

	require.NoError(t, prog.SetSourceRegion(quad.FromRectangle(0.5, 0, 0.5, 1)))
	require.NoError(t, prog.Process(ctx, src, dst))

	out, err := d.Download(ctx, dst)
	require.NoError(t, err)
	for x := 0; x < 2; x++ {
		for y := 0; y < 2; y++ {
			require.Equal(t, img.RGBAAt(x+2, y), out.RGBAAt(x, y))
		}
	}

	p := quad.Point{X: 0.1, Y: 0.1}
	var errDegenerate quad.ErrDegenerate
	require.True(t, errors.As(prog.SetSourceRegion(quad.New(p, p, p, p)), &errDegenerate))

	require.Error(t, prog.Process(ctx, src, src))
	require.NoError(t, d.FreeBuffer(ctx, src))
	require.Error(t, prog.Process(ctx, src, dst))
}

func TestSoftwareOversizedBuffers(t *testing.T) {
	ctx := context.Background()
	d := NewSoftware()

	for _, tc := range []struct {
		name   string
		width  int
		height int
	}{
		{"width_over_limit", MaxDimension + 1, 1},
		{"height_over_limit", 1, MaxDimension + 1},
		{"both_huge", math.MaxInt32, math.MaxInt32},
		{"product_overflow", math.MaxInt / 2, 4},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := d.NewBuffer(ctx, tc.width, tc.height)
			var errSize ErrInvalidSize
			require.True(t, errors.As(err, &errSize), "%v", err)
			require.Equal(t, tc.width, errSize.Width)
		})
	}
	require.Zero(t, d.AllocatedBytes())
	require.Zero(t, d.BuffersCount())

	buf, err := d.NewBuffer(ctx, MaxDimension, 1)
	require.NoError(t, err)
	require.NoError(t, d.FreeBuffer(ctx, buf))
}

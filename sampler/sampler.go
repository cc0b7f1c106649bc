// Package sampler is the reference implementation of quad-to-rectangle
// resampling: every destination pixel is mapped through the projective
// transform of the quad and the source is filtered at the resulting point.
package sampler

import (
	"fmt"
	"image"
	"math"

	"github.com/xaionaro-go/quadcrop/quad"
)

type Filter int

const (
	FilterBilinear = Filter(iota)
	FilterNearest
)

func (f Filter) String() string {
	switch f {
	case FilterBilinear:
		return "bilinear"
	case FilterNearest:
		return "nearest"
	default:
		return fmt.Sprintf("unknown_filter_%d", int(f))
	}
}

type ErrEmptyImage struct {
	Role   string
	Bounds image.Rectangle
}

func (e ErrEmptyImage) Error() string {
	return fmt.Sprintf("the %s image is empty: %v", e.Role, e.Bounds)
}

// Sample fills dst with the content of region q (normalized coordinates) of
// src. Sample points outside src are clamped to its edges.
//
// If q is degenerate, quad.ErrDegenerate is returned and dst is left intact.
func Sample(
	dst *image.RGBA,
	src *image.RGBA,
	q quad.Quad,
	filter Filter,
) error {
	if dst.Rect.Empty() {
		return ErrEmptyImage{Role: "destination", Bounds: dst.Rect}
	}
	if src.Rect.Empty() {
		return ErrEmptyImage{Role: "source", Bounds: src.Rect}
	}

	h, err := quad.UnitSquareTo(q)
	if err != nil {
		return err
	}

	var sample func(src *image.RGBA, s, t float64, out []uint8)
	switch filter {
	case FilterBilinear:
		sample = sampleBilinear
	case FilterNearest:
		sample = sampleNearest
	default:
		return fmt.Errorf("unknown filter: %v", filter)
	}

	dw, dh := dst.Rect.Dx(), dst.Rect.Dy()
	for j := 0; j < dh; j++ {
		v := (float64(j) + 0.5) / float64(dh)
		row := dst.Pix[j*dst.Stride:]
		for i := 0; i < dw; i++ {
			u := (float64(i) + 0.5) / float64(dw)
			s, t, ok := h.Apply(u, v)
			if !ok {
				return quad.ErrDegenerate{Quad: q, Reason: "the transform diverges inside the region"}
			}
			sample(src, s, t, row[i*4:i*4+4])
		}
	}
	return nil
}

func sampleNearest(src *image.RGBA, s, t float64, out []uint8) {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	x := clamp(int(math.Floor(s*float64(w))), 0, w-1)
	y := clamp(int(math.Floor(t*float64(h))), 0, h-1)
	copy(out, src.Pix[y*src.Stride+x*4:y*src.Stride+x*4+4])
}

// sampleBilinear interpolates between the 4 pixels whose centers surround
// (s, t); pixel centers are at (i+0.5)/w.
func sampleBilinear(src *image.RGBA, s, t float64, out []uint8) {
	w, h := src.Rect.Dx(), src.Rect.Dy()

	fx := s*float64(w) - 0.5
	fy := t*float64(h) - 0.5

	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	x1 := clamp(x0+1, 0, w-1)
	y1 := clamp(y0+1, 0, h-1)
	x0 = clamp(x0, 0, w-1)
	y0 = clamp(y0, 0, h-1)

	p00 := src.Pix[y0*src.Stride+x0*4:]
	p10 := src.Pix[y0*src.Stride+x1*4:]
	p01 := src.Pix[y1*src.Stride+x0*4:]
	p11 := src.Pix[y1*src.Stride+x1*4:]
	for c := 0; c < 4; c++ {
		top := float64(p00[c])*(1-tx) + float64(p10[c])*tx
		bottom := float64(p01[c])*(1-tx) + float64(p11[c])*tx
		out[c] = uint8(clamp(int(math.Round(top*(1-ty)+bottom*ty)), 0, 255))
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

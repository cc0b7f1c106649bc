// Package format describes the shape, element type and residency of the data
// flowing through a port.
package format

import (
	"fmt"
	"strings"
)

// Target is where the data lives.
type Target int

const (
	TargetUnspecified = Target(iota)
	// TargetHost is ordinary process memory (structured values, CPU images).
	TargetHost
	// TargetDevice is accelerator memory, not directly readable by host code.
	TargetDevice
)

func (t Target) String() string {
	switch t {
	case TargetUnspecified:
		return "unspecified"
	case TargetHost:
		return "host"
	case TargetDevice:
		return "device"
	default:
		return fmt.Sprintf("unknown_target_%d", int(t))
	}
}

type BaseType int

const (
	BaseTypeUnspecified = BaseType(iota)
	BaseTypeByte
	BaseTypeFloat
	// BaseTypeObject is a structured value rather than numeric samples.
	BaseTypeObject
)

func (t BaseType) String() string {
	switch t {
	case BaseTypeUnspecified:
		return "unspecified"
	case BaseTypeByte:
		return "byte"
	case BaseTypeFloat:
		return "float"
	case BaseTypeObject:
		return "object"
	default:
		return fmt.Sprintf("unknown_base_type_%d", int(t))
	}
}

type ColorSpace int

const (
	ColorSpaceUnspecified = ColorSpace(iota)
	ColorSpaceGray
	ColorSpaceRGB
	ColorSpaceRGBA
	ColorSpaceYUV
)

func (c ColorSpace) String() string {
	switch c {
	case ColorSpaceUnspecified:
		return "unspecified"
	case ColorSpaceGray:
		return "gray"
	case ColorSpaceRGB:
		return "rgb"
	case ColorSpaceRGBA:
		return "rgba"
	case ColorSpaceYUV:
		return "yuv"
	default:
		return fmt.Sprintf("unknown_color_space_%d", int(c))
	}
}

// Channels returns the amount of samples per pixel, or 0 if unknown.
func (c ColorSpace) Channels() int {
	switch c {
	case ColorSpaceGray:
		return 1
	case ColorSpaceRGB, ColorSpaceYUV:
		return 3
	case ColorSpaceRGBA:
		return 4
	default:
		return 0
	}
}

// Format is a value type: copies are independent, so deriving a format from
// another one never affects the buffer the original is attached to.
//
// Zero values of every field mean "unspecified".
type Format struct {
	Width          int
	Height         int
	ColorSpace     ColorSpace
	BytesPerSample int
	Target         Target
	BaseType       BaseType
	ObjectKind     ObjectKind
}

// NewImage returns the format of a byte image of the given color space
// without fixing the dimensions.
func NewImage(colorSpace ColorSpace, target Target) Format {
	return Format{
		ColorSpace:     colorSpace,
		BytesPerSample: colorSpace.Channels(),
		Target:         target,
		BaseType:       BaseTypeByte,
	}
}

// NewImageSized is NewImage with the dimensions set.
func NewImageSized(colorSpace ColorSpace, target Target, width, height int) Format {
	return NewImage(colorSpace, target).WithDimensions(width, height)
}

// NewObject returns the format of a host-resident structured value.
func NewObject(kind ObjectKind) Format {
	return Format{
		Target:     TargetHost,
		BaseType:   BaseTypeObject,
		ObjectKind: kind,
	}
}

// WithDimensions returns a copy of the format with the given dimensions.
func (f Format) WithDimensions(width, height int) Format {
	f.Width = width
	f.Height = height
	return f
}

// Channels returns the amount of samples per pixel, or 0 if unknown.
func (f Format) Channels() int {
	return f.ColorSpace.Channels()
}

// Size returns the amount of bytes required to store an image of this
// format, or 0 if any of the attributes required to compute it is unspecified.
func (f Format) Size() int {
	if f.Width <= 0 || f.Height <= 0 || f.BytesPerSample <= 0 {
		return 0
	}
	return f.Width * f.Height * f.BytesPerSample
}

func (f Format) String() string {
	var parts []string
	if f.Width != 0 || f.Height != 0 {
		parts = append(parts, fmt.Sprintf("%dx%d", f.Width, f.Height))
	}
	if f.ColorSpace != ColorSpaceUnspecified {
		parts = append(parts, f.ColorSpace.String())
	}
	if f.BytesPerSample != 0 {
		parts = append(parts, fmt.Sprintf("bps=%d", f.BytesPerSample))
	}
	if f.BaseType != BaseTypeUnspecified {
		parts = append(parts, f.BaseType.String())
	}
	if f.ObjectKind != ObjectKindUnspecified {
		parts = append(parts, f.ObjectKind.String())
	}
	if f.Target != TargetUnspecified {
		parts = append(parts, "@"+f.Target.String())
	}
	if len(parts) == 0 {
		return "Format(any)"
	}
	return "Format(" + strings.Join(parts, ",") + ")"
}

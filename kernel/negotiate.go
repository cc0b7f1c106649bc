package kernel

import (
	"github.com/xaionaro-go/quadcrop/format"
)

const (
	PortImage = iota
	PortRegion
)

const (
	PortNameImage  = "image"
	PortNameRegion = "region"
)

func portName(port int) string {
	switch port {
	case PortImage:
		return PortNameImage
	case PortRegion:
		return PortNameRegion
	default:
		return "unknown"
	}
}

func (c *Crop) InputNames() []string {
	return []string{PortNameImage, PortNameRegion}
}

func (c *Crop) OutputNames() []string {
	return []string{PortNameImage}
}

// AcceptsInputFormat reports whether f may be connected to the input port.
//
// There is no conversion path: images must already be RGBA in device memory,
// regions must be host-resident quads.
func (c *Crop) AcceptsInputFormat(port int, f format.Format) bool {
	switch port {
	case PortImage:
		return f.IsCompatibleWith(format.NewImage(format.ColorSpaceRGBA, format.TargetDevice))
	case PortRegion:
		return f.IsCompatibleWith(format.NewObject(format.ObjectKindQuad))
	default:
		return false
	}
}

// OutputFormat derives the format of the output port from the format of the
// image input, according to the current configuration.
func (c *Crop) OutputFormat(input format.Format) format.Format {
	return outputFormat(c.GetConfig(), input)
}

func outputFormat(cfg Config, input format.Format) format.Format {
	width, height := input.Width, input.Height
	if w := cfg.Width(); w.IsSet() {
		width = w.Get()
	}
	if h := cfg.Height(); h.IsSet() {
		height = h.Get()
	}
	return input.WithDimensions(width, height)
}

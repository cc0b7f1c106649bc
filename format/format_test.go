package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsCompatibleWith(t *testing.T) {
	deviceRGBA := NewImage(ColorSpaceRGBA, TargetDevice)

	for _, tc := range []struct {
		name        string
		format      Format
		requirement Format
		expected    bool
	}{
		{"sized_device_rgba", NewImageSized(ColorSpaceRGBA, TargetDevice, 200, 100), deviceRGBA, true},
		{"host_rgba", NewImageSized(ColorSpaceRGBA, TargetHost, 200, 100), deviceRGBA, false},
		{"device_rgb", NewImageSized(ColorSpaceRGB, TargetDevice, 200, 100), deviceRGBA, false},
		{"device_gray", NewImageSized(ColorSpaceGray, TargetDevice, 200, 100), deviceRGBA, false},
		{"unspecified_target", NewImage(ColorSpaceRGBA, TargetUnspecified), deviceRGBA, false},
		{"float_samples", Format{ColorSpace: ColorSpaceRGBA, BytesPerSample: 4, Target: TargetDevice, BaseType: BaseTypeFloat}, deviceRGBA, false},
		{"anything_vs_any", NewObject(ObjectKindPoint), Format{}, true},
		{"width_mismatch", NewImageSized(ColorSpaceRGBA, TargetDevice, 200, 100), deviceRGBA.WithDimensions(100, 0), false},
		{"quad_vs_quad", NewObject(ObjectKindQuad), NewObject(ObjectKindQuad), true},
		{"rectangle_vs_quad", NewObject(ObjectKindRectangle), NewObject(ObjectKindQuad), true},
		{"quad_vs_rectangle", NewObject(ObjectKindQuad), NewObject(ObjectKindRectangle), false},
		{"point_vs_quad", NewObject(ObjectKindPoint), NewObject(ObjectKindQuad), false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, tc.format.IsCompatibleWith(tc.requirement), "%s vs %s", tc.format, tc.requirement)
		})
	}
}

func TestWithDimensionsDoesNotMutate(t *testing.T) {
	orig := NewImageSized(ColorSpaceRGBA, TargetDevice, 200, 100)
	derived := orig.WithDimensions(50, 100)

	require.Equal(t, 200, orig.Width)
	require.Equal(t, 50, derived.Width)
	require.Equal(t, orig.ColorSpace, derived.ColorSpace)
	require.Equal(t, orig.Target, derived.Target)
	require.Equal(t, 50*100*4, derived.Size())
}

func TestString(t *testing.T) {
	require.Equal(t, "Format(any)", Format{}.String())
	require.Equal(t, "Format(2x3,rgba,bps=4,byte,@device)", NewImageSized(ColorSpaceRGBA, TargetDevice, 2, 3).String())
	require.Equal(t, "Format(object,quad,@host)", NewObject(ObjectKindQuad).String())
}

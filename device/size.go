package device

import (
	"math"
)

// MaxDimension is the largest width or height of a buffer (the limit of
// cv::warpPerspective, applied to every device).
const MaxDimension = math.MaxInt16

// bufferSize returns the size in bytes of a width x height RGBA buffer.
func bufferSize(width, height int) (int, error) {
	if width <= 0 || height <= 0 ||
		width > MaxDimension || height > MaxDimension ||
		width > math.MaxInt/4/height {
		return 0, ErrInvalidSize{Width: width, Height: height}
	}
	return width * height * 4, nil
}

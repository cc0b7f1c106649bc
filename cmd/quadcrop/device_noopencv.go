//go:build !with_cv
// +build !with_cv

package main

import (
	"fmt"

	"github.com/xaionaro-go/quadcrop/device"
)

func newOpenCVDevice(opts ...device.Option) (device.Abstract, error) {
	return nil, fmt.Errorf("built without OpenCV support (use the 'with_cv' build tag)")
}

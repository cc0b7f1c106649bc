//go:build with_cv
// +build with_cv

package main

import (
	"github.com/xaionaro-go/quadcrop/device"
)

func newOpenCVDevice(opts ...device.Option) (device.Abstract, error) {
	return device.NewOpenCV(opts...), nil
}

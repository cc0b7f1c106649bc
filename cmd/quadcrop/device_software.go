package main

import (
	"fmt"

	"github.com/xaionaro-go/quadcrop/device"
)

const (
	deviceSoftware = "software"
	deviceOpenCV   = "opencv"
)

func newDevice(name string, opts ...device.Option) (device.Abstract, error) {
	switch name {
	case deviceSoftware:
		return device.NewSoftware(opts...), nil
	case deviceOpenCV:
		return newOpenCVDevice(opts...)
	default:
		return nil, fmt.Errorf("unknown device '%s'", name)
	}
}

package kernel

import (
	"context"

	"github.com/xaionaro-go/quadcrop/device"
	"github.com/xaionaro-go/quadcrop/frame"
	"github.com/xaionaro-go/quadcrop/quad"
)

type DummyPublisher struct {
	PublishFn func(ctx context.Context, port int, f *frame.Frame) error

	Published []*frame.Frame
}

var _ Publisher = (*DummyPublisher)(nil)

func (p *DummyPublisher) Publish(ctx context.Context, port int, f *frame.Frame) error {
	if p.PublishFn != nil {
		if err := p.PublishFn(ctx, port, f); err != nil {
			return err
		}
	}
	if err := f.Retain(); err != nil {
		return err
	}
	p.Published = append(p.Published, f)
	return nil
}

func (p *DummyPublisher) ReleaseAll(ctx context.Context) error {
	for _, f := range p.Published {
		if err := f.Release(ctx); err != nil {
			return err
		}
	}
	p.Published = p.Published[:0]
	return nil
}

// DummyDevice counts the programs requested from the wrapped device and
// allows to intercept program calls.
type DummyDevice struct {
	device.Abstract

	NewProgramCallCount int
	ProcessFn           func(ctx context.Context, src, dst device.Buffer) error
}

func (d *DummyDevice) NewProgram(ctx context.Context) (device.Program, error) {
	d.NewProgramCallCount++
	program, err := d.Abstract.NewProgram(ctx)
	if err != nil {
		return nil, err
	}
	return &DummyProgram{Program: program, Device: d}, nil
}

type DummyProgram struct {
	device.Program
	Device *DummyDevice

	SetSourceRegionCallCount int
	ProcessCallCount         int
	CloseCallCount           int
}

func (p *DummyProgram) SetSourceRegion(q quad.Quad) error {
	p.SetSourceRegionCallCount++
	return p.Program.SetSourceRegion(q)
}

func (p *DummyProgram) Process(ctx context.Context, src, dst device.Buffer) error {
	p.ProcessCallCount++
	if p.Device.ProcessFn != nil {
		return p.Device.ProcessFn(ctx, src, dst)
	}
	return p.Program.Process(ctx, src, dst)
}

func (p *DummyProgram) Close(ctx context.Context) error {
	p.CloseCallCount++
	return p.Program.Close(ctx)
}

package device

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/quadcrop/logger"
	"github.com/xaionaro-go/quadcrop/quad"
	"github.com/xaionaro-go/quadcrop/sampler"
)

type softwareProgram struct {
	device *Software
	filter sampler.Filter
	region *quad.Quad
	closed bool
}

var _ Program = (*softwareProgram)(nil)

func (p *softwareProgram) String() string {
	return fmt.Sprintf("SoftwareProgram(%s)", p.filter)
}

func (p *softwareProgram) Close(ctx context.Context) error {
	if p.closed {
		return nil
	}
	p.closed = true
	p.device.programsCount.Dec()
	return nil
}

func (p *softwareProgram) SetSourceRegion(q quad.Quad) error {
	if err := q.Validate(); err != nil {
		return err
	}
	p.region = &q
	return nil
}

func (p *softwareProgram) Process(
	ctx context.Context,
	src, dst Buffer,
) (_err error) {
	logger.Tracef(ctx, "Process(%s, %s)", src, dst)
	defer func() { logger.Tracef(ctx, "/Process(%s, %s): %v", src, dst, _err) }()

	if p.closed {
		return fmt.Errorf("the program is closed")
	}
	if p.region == nil {
		return ErrNoSourceRegion{}
	}
	srcBuf, err := p.device.ownBuffer(src)
	if err != nil {
		return fmt.Errorf("invalid source buffer: %w", err)
	}
	dstBuf, err := p.device.ownBuffer(dst)
	if err != nil {
		return fmt.Errorf("invalid destination buffer: %w", err)
	}
	if srcBuf == dstBuf {
		return fmt.Errorf("sampling a buffer into itself is not supported")
	}
	return sampler.Sample(dstBuf.img, srcBuf.img, *p.region, p.filter)
}

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/quadcrop/device"
	"github.com/xaionaro-go/quadcrop/frame"
	"github.com/xaionaro-go/quadcrop/kernel"
	"github.com/xaionaro-go/quadcrop/node"
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "syntax: %s [options] <image> [<image> ...]\n", os.Args[0])
		pflag.PrintDefaults()
	}

	loggerLevel := logger.LevelWarning
	pflag.Var(&loggerLevel, "log-level", "Log level")
	configPath := pflag.String("config", "", "path to a YAML config file")
	outputWidth := pflag.Int("owidth", kernel.Inherit, "output width (-1 to inherit the input width)")
	outputHeight := pflag.Int("oheight", kernel.Inherit, "output height (-1 to inherit the input height)")
	quadFlag := pflag.String("quad", "", "the region as 'x0,y0,x1,y1,x2,y2,x3,y3' (top-left, top-right, bottom-left, bottom-right)")
	pixelCoords := pflag.Bool("pixel-coords", false, "the region is in pixels instead of normalized coordinates")
	deviceName := pflag.String("device", deviceSoftware, "the device to process on: software, opencv")
	filterName := pflag.String("filter", "", "the interpolation filter: bilinear, nearest")
	memoryLimit := pflag.Uint64("memory-limit", 0, "maximal amount of device memory in bytes (0 is unlimited)")
	outputDir := pflag.String("out-dir", "", "the directory to write the cropped images to")
	pflag.Parse()
	if len(pflag.Args()) == 0 {
		pflag.Usage()
		os.Exit(1)
	}

	l := logrus.Default().WithLevel(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	ctx, cancelFn := context.WithCancel(ctx)
	defer cancelFn()
	logger.Default = func() logger.Logger {
		return l
	}
	defer belt.Flush(ctx)

	cfg := defaultConfig()
	if *configPath != "" {
		if err := loadConfig(*configPath, &cfg); err != nil {
			l.Fatal(err)
		}
	}
	pflag.Visit(func(f *pflag.Flag) {
		var err error
		switch f.Name {
		case "owidth":
			cfg.Crop.OutputWidth = *outputWidth
		case "oheight":
			cfg.Crop.OutputHeight = *outputHeight
		case "quad":
			cfg.Quad, err = parseQuad(*quadFlag)
		case "pixel-coords":
			cfg.PixelCoords = *pixelCoords
		case "device":
			cfg.Device = *deviceName
		case "filter":
			cfg.Filter = *filterName
		case "memory-limit":
			cfg.MemoryLimit = *memoryLimit
		case "out-dir":
			cfg.OutputDir = *outputDir
		}
		if err != nil {
			l.Fatalf("invalid value of --%s: %v", f.Name, err)
		}
	})

	if err := run(ctx, cfg, pflag.Args()); err != nil {
		l.Fatal(err)
	}
}

func run(
	ctx context.Context,
	cfg Config,
	inputPaths []string,
) (_err error) {
	logger.Debugf(ctx, "run")
	defer func() { logger.Debugf(ctx, "/run: %v", _err) }()

	filter, err := parseFilter(cfg.Filter)
	if err != nil {
		return err
	}
	dev, err := newDevice(cfg.Device, device.OptionMemoryLimit(cfg.MemoryLimit), device.OptionFilter(filter))
	if err != nil {
		return err
	}
	defer dev.Close(ctx)

	k, err := kernel.NewCrop(
		kernel.OptionOutputWidth(cfg.Crop.OutputWidth),
		kernel.OptionOutputHeight(cfg.Crop.OutputHeight),
	)
	if err != nil {
		return err
	}
	frames := frame.NewDeviceManager(dev)
	n, err := node.New(ctx, k, dev, frames)
	if err != nil {
		return err
	}
	defer n.Close(ctx)

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("unable to create '%s': %w", cfg.OutputDir, err)
	}

	saved := make(chan error, 1)
	var outputPath string
	n.AddPushTo(ctx, func(ctx context.Context, f *frame.Frame) {
		defer f.Release(ctx)
		img, err := frames.Download(ctx, f)
		if err != nil {
			saved <- fmt.Errorf("unable to download %s: %w", f, err)
			return
		}
		if err := imgio.Save(outputPath, img, imgio.PNGEncoder()); err != nil {
			saved <- fmt.Errorf("unable to save '%s': %w", outputPath, err)
			return
		}
		saved <- nil
	})

	errCh := make(chan node.Error, 1)
	observability.Go(ctx, func(ctx context.Context) {
		err := n.Serve(ctx, errCh)
		logger.Debugf(ctx, "Serve: %v", err)
	})

	pb := progressbar.Default(int64(len(inputPaths)))
	defer pb.Close()

	var failed int
	for _, inputPath := range inputPaths {
		outputPath = outputPathFor(cfg.OutputDir, inputPath)
		err := cropFile(ctx, cfg, n, frames, inputPath, saved, errCh)
		if err != nil {
			logger.Errorf(ctx, "unable to crop '%s': %v", inputPath, err)
			failed++
		}
		pb.Add(1)
	}
	logger.Infof(ctx, "node statistics: %+v", n.Statistics.Snapshot())
	logger.Infof(ctx, "frame statistics: %s", frames.GetStatistics())

	if failed > 0 {
		return fmt.Errorf("failed to crop %d of %d images", failed, len(inputPaths))
	}
	return nil
}

func outputPathFor(outputDir, inputPath string) string {
	base := filepath.Base(inputPath)
	return filepath.Join(outputDir, strings.TrimSuffix(base, filepath.Ext(base))+".crop.png")
}

func cropFile(
	ctx context.Context,
	cfg Config,
	n *node.Node,
	frames frame.Manager,
	inputPath string,
	saved <-chan error,
	errCh <-chan node.Error,
) (_err error) {
	logger.Debugf(ctx, "cropFile(%s)", inputPath)
	defer func() { logger.Debugf(ctx, "/cropFile(%s): %v", inputPath, _err) }()

	img, err := imgio.Open(inputPath)
	if err != nil {
		return err
	}
	bounds := img.Bounds()
	q, err := cfg.region(bounds.Dx(), bounds.Dy())
	if err != nil {
		return err
	}

	f, err := frames.Upload(ctx, img)
	if err != nil {
		return err
	}
	err = n.PushImage(ctx, f)
	f.Release(ctx)
	if err != nil {
		return err
	}
	if err := n.PushRegion(ctx, frame.NewRegion(q)); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-saved:
		return err
	case err := <-errCh:
		return err
	}
}

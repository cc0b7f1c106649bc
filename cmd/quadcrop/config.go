package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xaionaro-go/quadcrop/kernel"
	"github.com/xaionaro-go/quadcrop/quad"
	"github.com/xaionaro-go/quadcrop/sampler"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Crop        kernel.Config `yaml:"crop"`
	Quad        []float64     `yaml:"quad"`
	PixelCoords bool          `yaml:"pixel_coords"`
	Device      string        `yaml:"device"`
	Filter      string        `yaml:"filter"`
	MemoryLimit uint64        `yaml:"memory_limit"`
	OutputDir   string        `yaml:"output_dir"`
}

func defaultConfig() Config {
	return Config{
		Crop:      kernel.DefaultConfig(),
		Device:    deviceSoftware,
		Filter:    sampler.FilterBilinear.String(),
		OutputDir: ".",
	}
}

func loadConfig(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to read '%s': %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("unable to parse '%s': %w", path, err)
	}
	return nil
}

// parseQuad parses "x0,y0,x1,y1,x2,y2,x3,y3" in the order
// top-left, top-right, bottom-left, bottom-right.
func parseQuad(s string) ([]float64, error) {
	words := strings.Split(s, ",")
	if len(words) != 8 {
		return nil, fmt.Errorf("expected 8 comma-separated numbers, got %d", len(words))
	}
	result := make([]float64, 0, 8)
	for _, word := range words {
		v, err := strconv.ParseFloat(strings.TrimSpace(word), 64)
		if err != nil {
			return nil, fmt.Errorf("unable to parse '%s': %w", word, err)
		}
		result = append(result, v)
	}
	return result, nil
}

// region returns the quad to crop from an image of the given size.
func (cfg Config) region(width, height int) (quad.Quad, error) {
	if len(cfg.Quad) == 0 {
		return quad.Full(), nil
	}
	if len(cfg.Quad) != 8 {
		return quad.Quad{}, fmt.Errorf("a quad has 8 coordinates, got %d", len(cfg.Quad))
	}
	c := cfg.Quad
	q := quad.New(
		quad.Point{X: c[0], Y: c[1]},
		quad.Point{X: c[2], Y: c[3]},
		quad.Point{X: c[4], Y: c[5]},
		quad.Point{X: c[6], Y: c[7]},
	)
	if cfg.PixelCoords {
		q = quad.FromPixels(q, width, height)
	}
	return q, nil
}

func parseFilter(s string) (sampler.Filter, error) {
	for _, filter := range []sampler.Filter{sampler.FilterBilinear, sampler.FilterNearest} {
		if filter.String() == s {
			return filter, nil
		}
	}
	return 0, fmt.Errorf("unknown filter '%s'", s)
}

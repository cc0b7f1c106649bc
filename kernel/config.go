package kernel

import (
	"fmt"

	"github.com/xaionaro-go/typing"
)

// Inherit is the value of an output dimension meaning "same as the input".
const Inherit = -1

// Names of the updatable parameters, as used by graph descriptions.
const (
	ParamOutputWidth  = "owidth"
	ParamOutputHeight = "oheight"
)

type Config struct {
	// OutputWidth is the width of the produced images, or Inherit.
	OutputWidth int `yaml:"owidth"`
	// OutputHeight is the height of the produced images, or Inherit.
	OutputHeight int `yaml:"oheight"`
}

func DefaultConfig() Config {
	return Config{
		OutputWidth:  Inherit,
		OutputHeight: Inherit,
	}
}

type ErrInvalidConfig struct {
	Param string
	Value int
}

func (e ErrInvalidConfig) Error() string {
	return fmt.Sprintf("invalid value of '%s': %d (expected a positive value or %d)", e.Param, e.Value, Inherit)
}

func (cfg Config) Validate() error {
	if cfg.OutputWidth != Inherit && cfg.OutputWidth <= 0 {
		return ErrInvalidConfig{Param: ParamOutputWidth, Value: cfg.OutputWidth}
	}
	if cfg.OutputHeight != Inherit && cfg.OutputHeight <= 0 {
		return ErrInvalidConfig{Param: ParamOutputHeight, Value: cfg.OutputHeight}
	}
	return nil
}

func dimension(v int) typing.Optional[int] {
	if v == Inherit {
		return typing.Optional[int]{}
	}
	return typing.Opt(v)
}

// Width returns the configured output width, unset if inherited.
func (cfg Config) Width() typing.Optional[int] {
	return dimension(cfg.OutputWidth)
}

// Height returns the configured output height, unset if inherited.
func (cfg Config) Height() typing.Optional[int] {
	return dimension(cfg.OutputHeight)
}

type Option interface {
	apply(*Config)
}

type Options []Option

func (s Options) apply(cfg *Config) {
	for _, opt := range s {
		opt.apply(cfg)
	}
}

func (s Options) Config() Config {
	cfg := DefaultConfig()
	s.apply(&cfg)
	return cfg
}

type OptionOutputWidth int

func (opt OptionOutputWidth) apply(cfg *Config) {
	cfg.OutputWidth = int(opt)
}

type OptionOutputHeight int

func (opt OptionOutputHeight) apply(cfg *Config) {
	cfg.OutputHeight = int(opt)
}

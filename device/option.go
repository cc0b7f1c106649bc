package device

import (
	"github.com/xaionaro-go/quadcrop/sampler"
)

type Config struct {
	// MemoryLimit is the maximal amount of bytes allocated at once;
	// zero means unlimited.
	MemoryLimit uint64
	Filter      sampler.Filter
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
	cfg := Config{}
	s.apply(&cfg)
	return cfg
}

type OptionMemoryLimit uint64

func (opt OptionMemoryLimit) apply(cfg *Config) {
	cfg.MemoryLimit = uint64(opt)
}

type OptionFilter sampler.Filter

func (opt OptionFilter) apply(cfg *Config) {
	cfg.Filter = sampler.Filter(opt)
}

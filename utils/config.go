package utils

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the content of a yaml configuration file. Every field that is set
// overrides the corresponding command line option.
type Config struct {
	Function     *string `yaml:"fun"`
	Domain       *string `yaml:"domain"`
	Token        *string `yaml:"token"`
	OpenCalls    *string `yaml:"open-calls"`
	K            *uint   `yaml:"k"`
	Widen        *int    `yaml:"widening-threshold"`
	GLB          *int    `yaml:"glb-threshold"`
	MaxDisjuncts *int    `yaml:"max-disjuncts"`
	Optimize     *bool   `yaml:"optimize"`
	InferTypes   *bool   `yaml:"infer-types"`
	Dump         *string `yaml:"dump"`
	Format       *string `yaml:"format"`
	LogLevel     *string `yaml:"log-level"`
	GoPath       *string `yaml:"gopath"`
	ModulePath   *string `yaml:"modulepath"`
}

// LoadConfig reads a yaml configuration file.
func LoadConfig(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file %s: %w", filename, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file %s: %w", filename, err)
	}

	if cfg.LogLevel != nil && ParseLogLevel(*cfg.LogLevel) == 0 {
		return nil, fmt.Errorf("invalid log-level %q in %s", *cfg.LogLevel, filename)
	}
	return cfg, nil
}

func (c *Config) apply(o *options) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&o.function, c.Function)
	set(&o.domain, c.Domain)
	set(&o.token, c.Token)
	set(&o.openCalls, c.OpenCalls)
	set(&o.dump, c.Dump)
	set(&o.outputFormat, c.Format)
	set(&o.logLevel, c.LogLevel)
	set(&o.gopath, c.GoPath)
	set(&o.modulePath, c.ModulePath)

	if c.K != nil {
		o.k = *c.K
	}
	if c.Widen != nil {
		o.widen = *c.Widen
	}
	if c.GLB != nil {
		o.glb = *c.GLB
	}
	if c.MaxDisjuncts != nil {
		o.maxDisjuncts = *c.MaxDisjuncts
	}
	if c.Optimize != nil {
		o.optimize = *c.Optimize
	}
	if c.InferTypes != nil {
		o.inferTypes = *c.InferTypes
	}
}

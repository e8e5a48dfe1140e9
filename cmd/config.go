package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config holds defaults for the build flags, read from a yaml file.
// Flags given on the command line take precedence.
type Config struct {
	Namespace    string `yaml:"namespace"`
	Output       string `yaml:"output"`
	Python       bool   `yaml:"python"`
	TagWarnings  bool   `yaml:"tagWarnings"`
	TypeMembers  bool   `yaml:"typeMembers"`
	AppendSuffix bool   `yaml:"appendSuffix"`
	Verbosity    int    `yaml:"verbosity"`
}

func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	cfg := &Config{}
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyTo(flags *pflag.FlagSet, o *buildOptions) {
	unset := func(name string) bool {
		f := flags.Lookup(name)
		return f == nil || !f.Changed
	}
	if unset("namespace") {
		o.namespace = c.Namespace
	}
	if unset("output") {
		o.output = c.Output
	}
	if unset("python") {
		o.python = c.Python
	}
	if unset("tag-warnings") {
		o.tagWarnings = c.TagWarnings
	}
	if unset("type-members") {
		o.typeMembers = c.TypeMembers
	}
	if unset("append-suffix") {
		o.appendSuffix = c.AppendSuffix
	}
	if unset("verbose") {
		o.verbosity = c.Verbosity
	}
}

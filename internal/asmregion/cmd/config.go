package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the optional configuration file. Command line flags take
// precedence over every field.
type Config struct {
	ISA     string `yaml:"isa" json:"isa,omitempty" jsonschema:"title=ISA,description=Instruction set of the input,enum=x86,enum=aarch64"`
	Format  string `yaml:"format" json:"format,omitempty" jsonschema:"title=Format,description=Output format,enum=text,enum=json,enum=markdown"`
	NoColor bool   `yaml:"noColor" json:"noColor,omitempty" jsonschema:"title=No Color,description=Disable coloured output"`
	Debug   bool   `yaml:"debug" json:"debug,omitempty" jsonschema:"title=Debug,description=Enable debug logging"`
	Width   int    `yaml:"width" json:"width,omitempty" jsonschema:"title=Width,description=Wrap width for markdown output,minimum=20"`
}

// LoadConfig reads a YAML config file. Unknown keys are rejected and an
// empty file yields the zero Config.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

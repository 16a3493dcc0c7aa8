// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/exportlib/pkg/export"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// Defaults used when neither a config file nor a flag sets a value.
const (
	DefaultFilename    = "librustcraft_test.so"
	DefaultSource      = "./tests/target/debug"
	DefaultDestination = "build/out"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse decodes the config from bytes. Unset keys are left empty.
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📚 Config describes a single export
type Config struct {
	Filename    string `json:"filename,omitempty" yaml:"filename,omitempty"`       // artifact base name
	Source      string `json:"source,omitempty" yaml:"source,omitempty"`           // target directory
	Destination string `json:"destination,omitempty" yaml:"destination,omitempty"` // output directory
}

// 🏭 Default returns the built-in export
func Default() *Config {
	return &Config{
		Filename:    DefaultFilename,
		Source:      DefaultSource,
		Destination: DefaultDestination,
	}
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	cfg.Merge(Default())

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	logger.Debug().Str("config", cfg.String()).Msg("configuration loaded")

	return cfg, nil
}

// 🔀 Merge fills every empty field of cfg from other
func (cfg *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if cfg.Filename == "" {
		cfg.Filename = other.Filename
	}
	if cfg.Source == "" {
		cfg.Source = other.Source
	}
	if cfg.Destination == "" {
		cfg.Destination = other.Destination
	}
}

// 🔍 Validate checks if the configuration is valid
func (cfg *Config) Validate() error {
	if err := export.ValidateFilename(cfg.Filename); err != nil {
		return errors.Errorf("filename: %w", err)
	}
	if strings.TrimSpace(cfg.Source) == "" {
		return errors.Errorf("source is required")
	}
	if strings.TrimSpace(cfg.Destination) == "" {
		return errors.Errorf("destination is required")
	}

	cfg.Source = filepath.Clean(cfg.Source)
	cfg.Destination = filepath.Clean(cfg.Destination)

	return nil
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	return fmt.Sprintf("%s -> %s", filepath.Join(cfg.Source, cfg.Filename), cfg.Destination)
}

// 🔧 YAMLParser implements the Parser interface for YAML files
type YAMLParser struct{}

func init() {
	Register(&YAMLParser{})
}

func (p *YAMLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml")
}

func (p *YAMLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(strings.NewReader(string(data)))
	decoder.KnownFields(true)
	// an empty document is a valid config that keeps every default
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	return &cfg, nil
}

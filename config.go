// Copyright 2020-2021 Dolthub, Inc.
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

package sqle

import (
	"io/ioutil"
	"os"

	"github.com/spf13/cast"
	"gopkg.in/src-d/go-errors.v1"
	yaml "gopkg.in/yaml.v2"
)

const (
	// MemoryDriver keeps the catalog in memory.
	MemoryDriver = "memory"
	// BoltDriver stores the catalog in a boltdb file.
	BoltDriver = "bolt"

	// GroupingIDInt32Env overrides Config.GroupingIDAsInt32.
	GroupingIDInt32Env = "SQLCAT_GROUPING_ID_INT32"
	// ParallelismEnv overrides Config.Parallelism.
	ParallelismEnv = "SQLCAT_PARALLELISM"
)

var (
	// ErrInvalidConfig is returned when a configuration can't be used.
	ErrInvalidConfig = errors.NewKind("invalid configuration: %s")
	// ErrUnknownCatalogDriver is returned for a catalog driver that does
	// not exist.
	ErrUnknownCatalogDriver = errors.NewKind("unknown catalog driver %q")
)

// CatalogConfig tells where tables are stored.
type CatalogConfig struct {
	Name   string `yaml:"name"`
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// Config of an Engine.
type Config struct {
	// GroupingIDAsInt32 makes grouping ids 32-bit integers instead of
	// 64-bit ones.
	GroupingIDAsInt32 bool `yaml:"grouping_id_as_int32"`
	// Parallelism is the number of writers of CREATE TABLE AS SELECT.
	Parallelism int `yaml:"parallelism"`
	// Debug enables the analyzer debug logs.
	Debug   bool          `yaml:"debug"`
	Catalog CatalogConfig `yaml:"catalog"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() *Config {
	return &Config{
		Parallelism: 1,
		Catalog: CatalogConfig{
			Name:   "default",
			Driver: MemoryDriver,
		},
	}
}

// LoadConfig reads the configuration at the given path. Environment
// overrides are applied on top of the file.
func LoadConfig(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, ErrInvalidConfig.Wrap(err, path)
	}
	return ParseConfig(data)
}

// ParseConfig parses a YAML configuration. Missing keys keep the default
// values.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, ErrInvalidConfig.Wrap(err, "malformed yaml")
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WriteConfig writes the configuration to the given path.
func WriteConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return ioutil.WriteFile(path, data, 0640)
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv(GroupingIDInt32Env); ok {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return ErrInvalidConfig.Wrap(err, GroupingIDInt32Env)
		}
		c.GroupingIDAsInt32 = b
	}

	if v, ok := os.LookupEnv(ParallelismEnv); ok {
		n, err := cast.ToIntE(v)
		if err != nil {
			return ErrInvalidConfig.Wrap(err, ParallelismEnv)
		}
		c.Parallelism = n
	}
	return nil
}

// Validate checks the configuration can be used to build an engine.
func (c *Config) Validate() error {
	if c.Parallelism < 1 {
		return ErrInvalidConfig.New("parallelism must be at least 1")
	}

	switch c.Catalog.Driver {
	case MemoryDriver:
	case BoltDriver:
		if c.Catalog.Path == "" {
			return ErrInvalidConfig.New("bolt catalog needs a path")
		}
	default:
		return ErrUnknownCatalogDriver.New(c.Catalog.Driver)
	}
	return nil
}

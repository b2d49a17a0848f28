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
	"io"

	"github.com/sirupsen/logrus"

	"github.com/sandexp/lotus-sub002/boltcatalog"
	"github.com/sandexp/lotus-sub002/memory"
	"github.com/sandexp/lotus-sub002/sql"
	"github.com/sandexp/lotus-sub002/sql/analyzer"
	"github.com/sandexp/lotus-sub002/sql/plan"
)

// Engine analyzes and runs plans against a catalog.
type Engine struct {
	Catalog  sql.StagingTableCatalog
	Analyzer *analyzer.Analyzer
}

// New creates a new Engine over the given catalog.
func New(c sql.StagingTableCatalog, cfg *Config) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	b := analyzer.NewBuilder(c).
		WithParallelism(cfg.Parallelism).
		WithGroupingIDAsInt32(cfg.GroupingIDAsInt32)
	if cfg.Debug {
		b = b.WithDebug()
	}

	return &Engine{Catalog: c, Analyzer: b.Build()}
}

// NewFromConfig opens the catalog described by the configuration and
// creates an engine over it.
func NewFromConfig(cfg *Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var c sql.StagingTableCatalog
	switch cfg.Catalog.Driver {
	case BoltDriver:
		bc, err := boltcatalog.Open(cfg.Catalog.Path, &boltcatalog.Options{Name: cfg.Catalog.Name})
		if err != nil {
			return nil, err
		}
		c = bc
	default:
		c = memory.NewCatalog(cfg.Catalog.Name)
	}

	logrus.WithFields(logrus.Fields{
		"catalog": c.Name(),
		"driver":  cfg.Catalog.Driver,
	}).Debug("engine created")
	return New(c, cfg), nil
}

// Analyze resolves the given plan.
func (e *Engine) Analyze(ctx *sql.Context, n sql.Node) (sql.Node, error) {
	return e.Analyzer.Analyze(ctx, n)
}

// Query analyzes the given plan, runs it and returns all its rows.
func (e *Engine) Query(ctx *sql.Context, n sql.Node) (sql.Schema, []sql.Row, error) {
	analyzed, err := e.Analyze(ctx, n)
	if err != nil {
		return nil, nil, err
	}

	rows, err := sql.NodeToRows(ctx, analyzed)
	if err != nil {
		return nil, nil, err
	}

	return analyzed.Schema(), rows, nil
}

// CreateTableAsSelect creates or replaces the table with the rows of the
// query, atomically.
func (e *Engine) CreateTableAsSelect(
	ctx *sql.Context,
	id sql.Identifier,
	query sql.Node,
	mode plan.CreateTableMode,
	partitioning []sql.Transform,
	properties map[string]string,
) error {
	ctas := plan.NewCreateTableAsSelect(nil, id, query, mode)
	ctas.Partitioning = partitioning
	ctas.Properties = properties

	_, _, err := e.Query(ctx, ctas)
	return err
}

// Close releases the catalog, if it holds any resource.
func (e *Engine) Close() error {
	if c, ok := e.Catalog.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

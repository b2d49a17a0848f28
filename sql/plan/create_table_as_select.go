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

package plan

import (
	"fmt"
	"io"
	"strings"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"
	errors "gopkg.in/src-d/go-errors.v1"

	"github.com/sandexp/lotus-sub002/sql"
)

// ErrNotStagingCatalog is returned when a table is created from a query in
// a catalog that can't stage tables.
var ErrNotStagingCatalog = errors.NewKind("catalog %s does not support staged table creation")

// CreateTableMode tells what a CreateTableAsSelect does with an existing
// table.
type CreateTableMode int

const (
	// CreateMode fails if the table exists.
	CreateMode CreateTableMode = iota
	// ReplaceMode fails if the table does not exist.
	ReplaceMode
	// CreateOrReplaceMode replaces the table if it exists.
	CreateOrReplaceMode
)

func (m CreateTableMode) String() string {
	switch m {
	case ReplaceMode:
		return "REPLACE TABLE"
	case CreateOrReplaceMode:
		return "CREATE OR REPLACE TABLE"
	default:
		return "CREATE TABLE"
	}
}

// CreateTableAsSelect creates or replaces a table with the result of a
// query. Table metadata and data become visible at once: the table is staged,
// the rows are written by Parallelism concurrent writers, and the staged
// table is committed only if every writer succeeded. Otherwise it is aborted.
type CreateTableAsSelect struct {
	UnaryNode
	catalog      sql.StagingTableCatalog
	Table        sql.Identifier
	Partitioning []sql.Transform
	Properties   map[string]string
	Mode         CreateTableMode
	IfNotExists  bool
	Parallelism  int
}

var _ sql.Node = (*CreateTableAsSelect)(nil)
var _ sql.Databaser = (*CreateTableAsSelect)(nil)

// NewCreateTableAsSelect creates a new CreateTableAsSelect node. The
// catalog is usually set later by the analyzer.
func NewCreateTableAsSelect(
	catalog sql.StagingTableCatalog,
	table sql.Identifier,
	query sql.Node,
	mode CreateTableMode,
) *CreateTableAsSelect {
	return &CreateTableAsSelect{
		UnaryNode:   UnaryNode{Child: query},
		catalog:     catalog,
		Table:       table,
		Mode:        mode,
		Parallelism: 1,
	}
}

// Catalog implements the sql.Databaser interface.
func (c *CreateTableAsSelect) Catalog() sql.TableCatalog {
	if c.catalog == nil {
		return nil
	}
	return c.catalog
}

// WithCatalog implements the sql.Databaser interface.
func (c *CreateTableAsSelect) WithCatalog(catalog sql.TableCatalog) (sql.Node, error) {
	sc, ok := catalog.(sql.StagingTableCatalog)
	if !ok {
		return nil, ErrNotStagingCatalog.New(catalog.Name())
	}

	nc := *c
	nc.catalog = sc
	return &nc, nil
}

// WithParallelism returns a copy of the node writing with n writers.
func (c *CreateTableAsSelect) WithParallelism(n int) *CreateTableAsSelect {
	nc := *c
	nc.Parallelism = n
	return &nc
}

// Resolved implements the Resolvable interface.
func (c *CreateTableAsSelect) Resolved() bool {
	return c.catalog != nil && c.Child.Resolved()
}

// Schema implements the Node interface.
func (*CreateTableAsSelect) Schema() sql.Schema { return nil }

// TableSchema returns the schema of the table being created: the output of
// the query, bound to the table.
func (c *CreateTableAsSelect) TableSchema() sql.Schema {
	s := c.Child.Schema().WithSource(c.Table.Name(), false)
	for _, col := range s {
		col.ID = 0
	}
	return s
}

// WithChildren implements the Node interface.
func (c *CreateTableAsSelect) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvalidChildrenNumber.New(c, len(children), 1)
	}

	nc := *c
	nc.UnaryNode = UnaryNode{Child: children[0]}
	return &nc, nil
}

// RowIter implements the Node interface. The table is written before the
// iterator is returned, which produces no rows.
func (c *CreateTableAsSelect) RowIter(ctx *sql.Context, row sql.Row) (sql.RowIter, error) {
	if err := c.Execute(ctx); err != nil {
		return nil, err
	}
	return sql.RowsToRowIter(), nil
}

// Execute creates or replaces the table with the rows of the query.
func (c *CreateTableAsSelect) Execute(ctx *sql.Context) (err error) {
	if c.catalog == nil {
		return ErrNotStagingCatalog.New("<nil>")
	}

	span, ctx := ctx.Span("plan.CreateTableAsSelect", opentracing.Tags{
		"table":       c.Table.String(),
		"mode":        c.Mode.String(),
		"parallelism": c.parallelism(),
	})
	defer func() {
		if err != nil {
			span.SetTag("error", true)
			span.LogKV("event", "error", "message", err.Error())
		}
		span.Finish()
	}()

	logger := ctx.GetLogger().WithFields(logrus.Fields{
		"table": c.Table.Quoted(),
		"mode":  c.Mode.String(),
	})

	if c.Mode == CreateMode && c.IfNotExists && c.catalog.TableExists(ctx, c.Table) {
		logger.Debug("table already exists, skipping creation")
		return nil
	}

	staged, err := c.stage(ctx)
	if err != nil {
		return c.wrap(err)
	}

	logger = logger.WithField("writers", c.parallelism())
	logger.Debug("table staged, writing rows")

	if err := c.writeRows(ctx, staged); err != nil {
		logger.WithError(err).Warn("writing rows failed, aborting staged table")
		return c.abort(ctx, staged, c.wrap(err))
	}

	if err := staged.CommitStagedChanges(ctx); err != nil {
		logger.WithError(err).Warn("commit failed, aborting staged table")
		return c.abort(ctx, staged, c.wrap(err))
	}

	logger.Debug("staged table committed")
	return nil
}

func (c *CreateTableAsSelect) stage(ctx *sql.Context) (sql.StagedTable, error) {
	schema := c.TableSchema()
	switch c.Mode {
	case ReplaceMode:
		return c.catalog.StageReplace(ctx, c.Table, schema, c.Partitioning, c.Properties)
	case CreateOrReplaceMode:
		return c.catalog.StageCreateOrReplace(ctx, c.Table, schema, c.Partitioning, c.Properties)
	default:
		return c.catalog.StageCreate(ctx, c.Table, schema, c.Partitioning, c.Properties)
	}
}

func (c *CreateTableAsSelect) parallelism() int {
	if c.Parallelism < 1 {
		return 1
	}
	return c.Parallelism
}

// writeRows reads the query and distributes its rows among the writers of
// the staged table. It returns once every writer has finished.
func (c *CreateTableAsSelect) writeRows(ctx *sql.Context, staged sql.StagedTable) error {
	iter, err := c.Child.RowIter(ctx, nil)
	if err != nil {
		return err
	}

	eg, egCtx := ctx.NewErrgroup()
	rows := make(chan sql.Row)

	eg.Go(func() error {
		defer close(rows)
		for {
			row, err := iter.Next()
			if err == io.EOF {
				return iter.Close()
			}
			if err != nil {
				_ = iter.Close()
				return err
			}

			select {
			case rows <- row:
			case <-egCtx.Done():
				_ = iter.Close()
				return egCtx.Err()
			}
		}
	})

	for i := 0; i < c.parallelism(); i++ {
		taskID := i
		eg.Go(func() error {
			return writeTask(egCtx, staged, taskID, rows)
		})
	}

	return eg.Wait()
}

func writeTask(ctx *sql.Context, staged sql.StagedTable, taskID int, rows <-chan sql.Row) error {
	w, err := staged.NewWriter(ctx, taskID)
	if err != nil {
		return err
	}

	fail := func(err error) error {
		if aerr := w.Abort(ctx); aerr != nil {
			ctx.GetLogger().WithError(aerr).WithField("task", taskID).Warn("unable to abort writer")
		}
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return fail(ctx.Err())
		case row, ok := <-rows:
			if !ok {
				if err := ctx.Err(); err != nil {
					return fail(err)
				}
				return w.Commit(ctx)
			}
			if err := w.Write(ctx, row); err != nil {
				return fail(err)
			}
		}
	}
}

// abort aborts the staged table after cause made the creation fail. A
// failing abort is reported along with the cause.
func (c *CreateTableAsSelect) abort(ctx *sql.Context, staged sql.StagedTable, cause error) error {
	if err := staged.AbortStagedChanges(ctx); err != nil {
		ctx.GetLogger().WithError(err).WithField("table", c.Table.Quoted()).Error("unable to abort staged table")
		return sql.ErrAbortFailed.Wrap(cause, c.Table.Quoted(), err)
	}
	return cause
}

// wrap turns errors that are not error kinds, such as the ones of the query
// iterator or a cancelled context, into ErrStagedWriteFailed keeping them as
// cause.
func (c *CreateTableAsSelect) wrap(err error) error {
	if _, ok := err.(*errors.Error); ok {
		return err
	}
	return sql.ErrStagedWriteFailed.Wrap(err, c.Table.Quoted())
}

func (c *CreateTableAsSelect) String() string {
	pr := sql.NewTreePrinter()
	ifNotExists := ""
	if c.IfNotExists {
		ifNotExists = " IF NOT EXISTS"
	}
	_ = pr.WriteNode("%s%s %s AS SELECT", c.Mode, ifNotExists, c.Table)
	children := []string{c.Child.String()}
	if len(c.Partitioning) > 0 {
		children = append([]string{fmt.Sprintf("PartitionedBy(%s)", transformsString(c.Partitioning))}, children...)
	}
	_ = pr.WriteChildren(children...)
	return pr.String()
}

func transformsString(ts []sql.Transform) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

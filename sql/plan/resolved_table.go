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

	"github.com/sandexp/lotus-sub002/sql"
)

// ResolvedTable represents a resolved SQL Table. Every resolution of a
// table gets output attributes with new expression ids, so a table read
// twice in the same plan yields distinct attributes.
type ResolvedTable struct {
	sql.Table
	ID     sql.Identifier
	schema sql.Schema
}

var _ sql.Node = (*ResolvedTable)(nil)

// NewResolvedTable creates a new instance of ResolvedTable.
func NewResolvedTable(id sql.Identifier, table sql.Table) *ResolvedTable {
	return &ResolvedTable{
		Table:  table,
		ID:     id,
		schema: table.Schema().WithSource(table.Name(), true),
	}
}

// Schema implements the Node interface.
func (t *ResolvedTable) Schema() sql.Schema {
	return t.schema
}

// Resolved implements the Resolvable interface.
func (*ResolvedTable) Resolved() bool {
	return true
}

// Children implements the Node interface.
func (*ResolvedTable) Children() []sql.Node { return nil }

// RowIter implements the RowIter interface.
func (t *ResolvedTable) RowIter(ctx *sql.Context, row sql.Row) (sql.RowIter, error) {
	st, ok := t.Table.(sql.ScannableTable)
	if !ok {
		return nil, sql.ErrTableNotScannable.New(t.ID)
	}

	span, ctx := ctx.Span("plan.ResolvedTable")
	iter, err := st.Rows(ctx)
	if err != nil {
		span.Finish()
		return nil, err
	}

	return newSpanIter(span, iter), nil
}

// WithChildren implements the Node interface.
func (t *ResolvedTable) WithChildren(children ...sql.Node) (sql.Node, error) {
	return NillaryWithChildren(t, children...)
}

func (t *ResolvedTable) String() string {
	return fmt.Sprintf("ResolvedTable(%s)", t.ID)
}

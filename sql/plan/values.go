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

// Values is a relation made of literal rows.
type Values struct {
	schema sql.Schema
	rows   []sql.Row
}

var _ sql.Node = (*Values)(nil)

// NewValues creates a relation with the given rows. Columns of the schema
// without an expression id get a new one. Every row must fit the schema, and
// its values are converted to the column types.
func NewValues(schema sql.Schema, rows ...sql.Row) (*Values, error) {
	s := schema.Copy()
	for _, c := range s {
		if c.ID == 0 {
			c.ID = sql.NewExprID()
		}
	}

	converted := make([]sql.Row, len(rows))
	for i, row := range rows {
		r, err := s.ConvertRow(row)
		if err != nil {
			return nil, err
		}
		converted[i] = r
	}

	return &Values{schema: s, rows: converted}, nil
}

// Rows returns the literal rows.
func (v *Values) Rows() []sql.Row { return v.rows }

// Schema implements the Node interface.
func (v *Values) Schema() sql.Schema { return v.schema }

// Resolved implements the Resolvable interface.
func (*Values) Resolved() bool { return true }

// Children implements the Node interface.
func (*Values) Children() []sql.Node { return nil }

// RowIter implements the Node interface.
func (v *Values) RowIter(ctx *sql.Context, row sql.Row) (sql.RowIter, error) {
	rows := make([]sql.Row, len(v.rows))
	for i, r := range v.rows {
		rows[i] = r.Copy()
	}
	return sql.RowsToRowIter(rows...), nil
}

// WithChildren implements the Node interface.
func (v *Values) WithChildren(children ...sql.Node) (sql.Node, error) {
	return NillaryWithChildren(v, children...)
}

func (v *Values) String() string {
	return fmt.Sprintf("Values(%d rows)", len(v.rows))
}

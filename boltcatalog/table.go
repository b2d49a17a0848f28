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

package boltcatalog

import (
	"fmt"

	"github.com/boltdb/bolt"

	"github.com/sandexp/lotus-sub002/sql"
)

// Table is a table of a bolt catalog. Its rows are read from the file on
// every scan.
type Table struct {
	catalog      *Catalog
	id           sql.Identifier
	meta         *tableMeta
	schema       sql.Schema
	partitioning []sql.Transform
}

var _ sql.ScannableTable = (*Table)(nil)

func newTable(c *Catalog, m *tableMeta) (*Table, error) {
	schema, err := m.schema()
	if err != nil {
		return nil, err
	}

	partitioning, err := m.partitioning()
	if err != nil {
		return nil, err
	}

	return &Table{
		catalog:      c,
		id:           m.identifier(),
		meta:         m,
		schema:       schema,
		partitioning: partitioning,
	}, nil
}

// Name implements the sql.Table interface.
func (t *Table) Name() string { return t.id.Name() }

// Identifier returns the identifier of the table in its catalog.
func (t *Table) Identifier() sql.Identifier { return t.id }

// Schema implements the sql.Table interface.
func (t *Table) Schema() sql.Schema { return t.schema }

// Partitioning implements the sql.Table interface.
func (t *Table) Partitioning() []sql.Transform { return t.partitioning }

// Properties implements the sql.Table interface.
func (t *Table) Properties() map[string]string { return t.meta.Properties }

// Capabilities implements the sql.Table interface.
func (*Table) Capabilities() sql.CapabilitySet {
	return sql.NewCapabilitySet(sql.BatchRead)
}

// Rows implements the sql.ScannableTable interface.
func (t *Table) Rows(ctx *sql.Context) (sql.RowIter, error) {
	var rows []sql.Row
	err := t.catalog.view(t.id.Quoted(), func(tx *bolt.Tx) error {
		b := tx.Bucket(dataBucket).Bucket(tableKey(t.id))
		if b == nil {
			return sql.NewNoSuchTable(t.id)
		}

		return b.ForEach(func(k, v []byte) error {
			row, err := decodeRow(t.schema, v)
			if err != nil {
				return err
			}
			rows = append(rows, row)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return sql.RowsToRowIter(rows...), nil
}

func (t *Table) String() string {
	return fmt.Sprintf("%s(bolt %s)", t.id.Quoted(), t.catalog.path)
}

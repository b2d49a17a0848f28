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

package memory

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/mitchellh/hashstructure"

	"github.com/sandexp/lotus-sub002/sql"
)

// Table represents an in-memory table. Rows are kept in partitions derived
// from the partitioning of the table.
type Table struct {
	name         string
	schema       sql.Schema
	partitioning []sql.Transform
	properties   map[string]string

	mu         sync.RWMutex
	keys       []string
	partitions map[string][]sql.Row
}

var _ sql.ScannableTable = (*Table)(nil)

// NewTable creates a new Table with the given name and schema.
func NewTable(name string, schema sql.Schema) *Table {
	return NewPartitionedTable(name, schema, nil, nil)
}

// NewPartitionedTable creates a new Table with the given name, schema,
// partitioning and properties.
func NewPartitionedTable(name string, schema sql.Schema, partitioning []sql.Transform, properties map[string]string) *Table {
	return &Table{
		name:         name,
		schema:       schema.Copy(),
		partitioning: append([]sql.Transform(nil), partitioning...),
		properties:   sql.CopyProperties(properties),
		partitions:   map[string][]sql.Row{},
	}
}

// Name implements the sql.Table interface.
func (t *Table) Name() string {
	return t.name
}

// Schema implements the sql.Table interface.
func (t *Table) Schema() sql.Schema {
	return t.schema
}

// Partitioning implements the sql.Table interface.
func (t *Table) Partitioning() []sql.Transform {
	return t.partitioning
}

// Properties implements the sql.Table interface.
func (t *Table) Properties() map[string]string {
	return t.properties
}

// Capabilities implements the sql.Table interface.
func (*Table) Capabilities() sql.CapabilitySet {
	return sql.NewCapabilitySet(sql.BatchRead, sql.BatchWrite, sql.Truncate)
}

// PartitionKeys returns the keys of the non empty partitions, in creation
// order.
func (t *Table) PartitionKeys() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	keys := make([]string, len(t.keys))
	copy(keys, t.keys)
	return keys
}

// PartitionRows returns a copy of the rows of a partition.
func (t *Table) PartitionRows(key string) []sql.Row {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rows := make([]sql.Row, len(t.partitions[key]))
	copy(rows, t.partitions[key])
	return rows
}

// Rows implements the sql.ScannableTable interface.
func (t *Table) Rows(*sql.Context) (sql.RowIter, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	// The partitions could be altered by other operations taking place
	// during iteration, so make a copy of the rows as they exist now.
	var rows []sql.Row
	for _, k := range t.keys {
		for _, r := range t.partitions[k] {
			rows = append(rows, r.Copy())
		}
	}
	return sql.RowsToRowIter(rows...), nil
}

// NumRows returns the number of rows of the table.
func (t *Table) NumRows() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var count int
	for _, rows := range t.partitions {
		count += len(rows)
	}
	return count
}

// Insert adds the given rows to the table. Rows must match the schema.
func (t *Table) Insert(ctx *sql.Context, rows ...sql.Row) error {
	keys := make([]string, len(rows))
	converted := make([]sql.Row, len(rows))
	for i, row := range rows {
		row, err := t.schema.ConvertRow(row)
		if err != nil {
			return err
		}

		key, err := t.partitionKey(row)
		if err != nil {
			return err
		}
		keys[i] = key
		converted[i] = row
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for i, row := range converted {
		if _, ok := t.partitions[keys[i]]; !ok {
			t.keys = append(t.keys, keys[i])
		}
		t.partitions[keys[i]] = append(t.partitions[keys[i]], row)
	}
	return nil
}

// Truncate removes all the rows of the table.
func (t *Table) Truncate(*sql.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.keys = nil
	t.partitions = map[string][]sql.Row{}
	return nil
}

// partitionKey returns the partition of the row: one per distinct value
// for identity transforms, one per bucket for bucket transforms.
func (t *Table) partitionKey(row sql.Row) (string, error) {
	if len(t.partitioning) == 0 {
		return "0", nil
	}

	parts := make([]string, len(t.partitioning))
	for i, tr := range t.partitioning {
		values := make([]interface{}, 0, len(tr.References()))
		for _, ref := range tr.References() {
			idx := t.schema.IndexOf(ref, "")
			if idx < 0 {
				return "", sql.ErrUnsupportedTransform.New(tr)
			}
			values = append(values, row[idx])
		}

		switch tr := tr.(type) {
		case sql.BucketTransform:
			hash, err := hashstructure.Hash(values, nil)
			if err != nil {
				return "", err
			}
			parts[i] = "bucket=" + strconv.FormatUint(hash%uint64(tr.NumBuckets), 10)
		default:
			parts[i] = fmt.Sprintf("%s=%v", tr.References()[0], values[0])
		}
	}
	return strings.Join(parts, "/"), nil
}

func (t *Table) String() string {
	keys := t.PartitionKeys()
	sort.Strings(keys)
	return fmt.Sprintf("%s(%s)", t.name, strings.Join(keys, ", "))
}

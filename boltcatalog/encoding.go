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
	"bytes"
	"encoding/binary"
	"encoding/gob"

	"github.com/spf13/cast"

	"github.com/sandexp/lotus-sub002/sql"
)

// tableMeta is the persisted description of a table.
type tableMeta struct {
	Namespace    []string
	Name         string
	Columns      []columnMeta
	Partitioning []transformMeta
	Properties   map[string]string
}

type columnMeta struct {
	Name     string
	Type     string
	Nullable bool
}

type transformMeta struct {
	Name       string
	Columns    []string
	NumBuckets int
}

type namespaceMeta struct {
	Namespace  []string
	Properties map[string]string
}

// encodedRow keeps every value as text. Values are converted back with the
// type of their column.
type encodedRow struct {
	Values []string
	Nulls  []bool
}

func newTableMeta(id sql.Identifier, schema sql.Schema, partitioning []sql.Transform, properties map[string]string) *tableMeta {
	m := &tableMeta{
		Namespace:  id.Namespace(),
		Name:       id.Name(),
		Properties: sql.CopyProperties(properties),
	}

	for _, c := range schema {
		m.Columns = append(m.Columns, columnMeta{Name: c.Name, Type: c.Type.String(), Nullable: c.Nullable})
	}

	for _, t := range partitioning {
		switch t := t.(type) {
		case sql.IdentityTransform:
			m.Partitioning = append(m.Partitioning, transformMeta{Name: t.Name(), Columns: []string{t.Column}})
		case sql.BucketTransform:
			m.Partitioning = append(m.Partitioning, transformMeta{Name: t.Name(), Columns: t.References(), NumBuckets: t.NumBuckets})
		}
	}

	return m
}

func (m *tableMeta) identifier() sql.Identifier {
	return sql.NewIdentifier(m.Namespace, m.Name)
}

func (m *tableMeta) schema() (sql.Schema, error) {
	schema := make(sql.Schema, len(m.Columns))
	for i, c := range m.Columns {
		typ, err := sql.TypeFromName(c.Type)
		if err != nil {
			return nil, err
		}
		schema[i] = &sql.Column{Name: c.Name, Type: typ, Nullable: c.Nullable, Source: m.Name}
	}
	return schema, nil
}

func (m *tableMeta) partitioning() ([]sql.Transform, error) {
	var res []sql.Transform
	for _, t := range m.Partitioning {
		switch t.Name {
		case "identity":
			if len(t.Columns) != 1 {
				return nil, sql.ErrUnsupportedTransform.New(t.Name)
			}
			res = append(res, sql.Identity(t.Columns[0]))
		case "bucket":
			res = append(res, sql.Bucket(t.NumBuckets, t.Columns...))
		default:
			return nil, sql.ErrUnsupportedTransform.New(t.Name)
		}
	}
	return res, nil
}

func encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

func encodeRow(row sql.Row) ([]byte, error) {
	r := encodedRow{
		Values: make([]string, len(row)),
		Nulls:  make([]bool, len(row)),
	}

	for i, v := range row {
		if v == nil {
			r.Nulls[i] = true
			continue
		}

		s, err := cast.ToStringE(v)
		if err != nil {
			return nil, err
		}
		r.Values[i] = s
	}

	return encode(r)
}

func decodeRow(schema sql.Schema, data []byte) (sql.Row, error) {
	var r encodedRow
	if err := decode(data, &r); err != nil {
		return nil, err
	}

	if len(r.Values) != len(schema) {
		return nil, sql.ErrUnexpectedRowLength.New(len(schema), len(r.Values))
	}

	row := make(sql.Row, len(schema))
	for i, c := range schema {
		if r.Nulls[i] {
			continue
		}

		v, err := c.Type.Convert(r.Values[i])
		if err != nil {
			return nil, err
		}
		row[i] = v
	}

	return row, nil
}

func rowKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

// stagedRowKey orders staged rows by writer task first so that a commit
// copies them in task order.
func stagedRowKey(taskID int, seq uint64) []byte {
	key := make([]byte, 12)
	binary.BigEndian.PutUint32(key, uint32(taskID))
	binary.BigEndian.PutUint64(key[4:], seq)
	return key
}

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

package sql

import (
	"fmt"
	"strings"
	"sync/atomic"

	"gopkg.in/src-d/go-errors.v1"
)

var (
	// ErrUnexpectedType is thrown when a received type is not the expected
	ErrUnexpectedType = errors.NewKind("value at %d has unexpected type: %s")
)

// ExprID uniquely identifies an attribute across a whole process. Two
// attributes with the same name are still different if their ids differ.
type ExprID uint64

var lastExprID uint64

// NewExprID allocates a new, never used before, expression id.
func NewExprID() ExprID {
	return ExprID(atomic.AddUint64(&lastExprID, 1))
}

// Column is the definition of a table column, and also an output attribute
// of a node in the plan tree.
type Column struct {
	// Name is the name of the column.
	Name string
	// Type is the data type of the column.
	Type Type
	// Nullable is true if the column can contain NULL values, or false
	// otherwise.
	Nullable bool
	// Source is the name of the table this column came from.
	Source string
	// ID is the expression id of the attribute. Table definitions leave it
	// zero, nodes reading the table assign fresh ones.
	ID ExprID
}

// Check ensures the value is correct for this column.
func (c *Column) Check(v interface{}) bool {
	if v == nil {
		return c.Nullable
	}

	_, err := c.Type.Convert(v)
	return err == nil
}

// Equals checks whether two columns are equal, ignoring their expression ids.
func (c *Column) Equals(c2 *Column) bool {
	return c.Name == c2.Name &&
		c.Source == c2.Source &&
		c.Nullable == c2.Nullable &&
		c.Type == c2.Type
}

func (c *Column) String() string {
	var null string
	if !c.Nullable {
		null = " NOT NULL"
	}
	return fmt.Sprintf("%s %s%s", c.Name, c.Type, null)
}

// Schema is the definition of a table, and the output of a node.
type Schema []*Column

// CheckRow checks the row conforms to the schema.
func (s Schema) CheckRow(row Row) error {
	_, err := s.ConvertRow(row)
	return err
}

// ConvertRow checks the row conforms to the schema and returns a copy of it
// with every value converted to the Go representation of its column type.
// Rows must go through it before being stored, so equal SQL values are also
// equal Go values.
func (s Schema) ConvertRow(row Row) (Row, error) {
	expected := len(s)
	got := len(row)
	if expected != got {
		return nil, ErrUnexpectedRowLength.New(expected, got)
	}

	res := make(Row, len(row))
	for idx, f := range s {
		v := row[idx]
		if v == nil {
			if !f.Nullable {
				return nil, ErrUnexpectedType.New(idx, fmt.Sprintf("%T", v))
			}
			continue
		}

		cv, err := f.Type.Convert(v)
		if err != nil {
			return nil, ErrUnexpectedType.New(idx, fmt.Sprintf("%T", v))
		}
		res[idx] = cv
	}

	return res, nil
}

// Contains returns whether the schema contains a column with the given name.
func (s Schema) Contains(column string, source string) bool {
	return s.IndexOf(column, source) >= 0
}

// IndexOf returns the index of the given column in the schema or -1 if it's
// not present.
func (s Schema) IndexOf(column, source string) int {
	column = strings.ToLower(column)
	source = strings.ToLower(source)
	for i, col := range s {
		if strings.ToLower(col.Name) == column && (source == "" || strings.ToLower(col.Source) == source) {
			return i
		}
	}
	return -1
}

// Equals checks whether the given schema is equal to this one, ignoring
// expression ids.
func (s Schema) Equals(s2 Schema) bool {
	if len(s) != len(s2) {
		return false
	}

	for i := range s {
		if !s[i].Equals(s2[i]) {
			return false
		}
	}

	return true
}

// Copy returns a deep copy of the schema.
func (s Schema) Copy() Schema {
	res := make(Schema, len(s))
	for i, c := range s {
		cc := *c
		res[i] = &cc
	}
	return res
}

// WithSource returns a copy of the schema with every column bound to the
// given source and, when fresh is true, new expression ids.
func (s Schema) WithSource(source string, fresh bool) Schema {
	res := s.Copy()
	for _, c := range res {
		c.Source = source
		if fresh {
			c.ID = NewExprID()
		}
	}
	return res
}

// AttributeSet is a deduplicated view of the output attributes of a node,
// keyed by expression id.
type AttributeSet map[ExprID]*Column

// NewAttributeSet builds the attribute set of the given schema. Columns
// without an expression id are skipped.
func NewAttributeSet(s Schema) AttributeSet {
	set := make(AttributeSet, len(s))
	for _, c := range s {
		if c.ID == 0 {
			continue
		}
		if _, ok := set[c.ID]; !ok {
			set[c.ID] = c
		}
	}
	return set
}

// Contains returns whether the attribute with the given id is in the set.
func (s AttributeSet) Contains(id ExprID) bool {
	_, ok := s[id]
	return ok
}

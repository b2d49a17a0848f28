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

package expression

import (
	"fmt"
	"math"
	"strings"

	"github.com/sandexp/lotus-sub002/sql"
)

// Cube is the CUBE(e1, ..., en) grouping placeholder. It expands to every
// subset of its expressions.
type Cube struct {
	exprs []sql.Expression
}

var _ sql.GroupingPlaceholder = (*Cube)(nil)

// NewCube creates a new Cube placeholder.
func NewCube(exprs ...sql.Expression) *Cube {
	return &Cube{exprs: exprs}
}

// Resolved implements the sql.GroupingPlaceholder interface. A placeholder
// is never resolved.
func (*Cube) Resolved() bool { return false }

// Exprs implements the sql.GroupingPlaceholder interface.
func (c *Cube) Exprs() []sql.Expression { return c.exprs }

// WithExprs implements the sql.GroupingPlaceholder interface.
func (c *Cube) WithExprs(exprs ...sql.Expression) (sql.GroupingPlaceholder, error) {
	if len(exprs) != len(c.exprs) {
		return nil, sql.ErrInvalidChildrenNumber.New(c, len(exprs), len(c.exprs))
	}
	return NewCube(exprs...), nil
}

// NumGroupingSets implements the sql.GroupingPlaceholder interface.
func (c *Cube) NumGroupingSets() uint64 {
	if len(c.exprs) >= 64 {
		return math.MaxUint64
	}
	return 1 << uint(len(c.exprs))
}

// GroupingSets implements the sql.GroupingPlaceholder interface. Masks are
// returned in ascending order: the set with all the expressions first, the
// grand total last.
func (c *Cube) GroupingSets() []uint64 {
	n := c.NumGroupingSets()
	sets := make([]uint64, 0, n)
	for mask := uint64(0); mask < n; mask++ {
		sets = append(sets, mask)
	}
	return sets
}

func (c *Cube) String() string {
	return fmt.Sprintf("CUBE(%s)", exprsString(c.exprs))
}

// Rollup is the ROLLUP(e1, ..., en) grouping placeholder. It expands to the
// n+1 prefixes of its expressions.
type Rollup struct {
	exprs []sql.Expression
}

var _ sql.GroupingPlaceholder = (*Rollup)(nil)

// NewRollup creates a new Rollup placeholder.
func NewRollup(exprs ...sql.Expression) *Rollup {
	return &Rollup{exprs: exprs}
}

// Resolved implements the sql.GroupingPlaceholder interface. A placeholder
// is never resolved.
func (*Rollup) Resolved() bool { return false }

// Exprs implements the sql.GroupingPlaceholder interface.
func (r *Rollup) Exprs() []sql.Expression { return r.exprs }

// WithExprs implements the sql.GroupingPlaceholder interface.
func (r *Rollup) WithExprs(exprs ...sql.Expression) (sql.GroupingPlaceholder, error) {
	if len(exprs) != len(r.exprs) {
		return nil, sql.ErrInvalidChildrenNumber.New(r, len(exprs), len(r.exprs))
	}
	return NewRollup(exprs...), nil
}

// NumGroupingSets implements the sql.GroupingPlaceholder interface.
func (r *Rollup) NumGroupingSets() uint64 {
	return uint64(len(r.exprs)) + 1
}

// GroupingSets implements the sql.GroupingPlaceholder interface. The
// longest prefix comes first, the empty one last.
func (r *Rollup) GroupingSets() []uint64 {
	n := uint(len(r.exprs))
	sets := make([]uint64, 0, n+1)
	for dropped := uint(0); dropped <= n; dropped++ {
		sets = append(sets, (uint64(1)<<dropped)-1)
	}
	return sets
}

func (r *Rollup) String() string {
	return fmt.Sprintf("ROLLUP(%s)", exprsString(r.exprs))
}

// Grouping is the GROUPING(e) function: 1 if e was aggregated away in the
// grouping set of the row, 0 otherwise. It must be rewritten by the analyzer.
type Grouping struct {
	UnaryExpression
}

// NewGrouping creates a new Grouping expression.
func NewGrouping(e sql.Expression) *Grouping {
	return &Grouping{UnaryExpression{e}}
}

// Resolved implements the Expression interface.
func (*Grouping) Resolved() bool { return false }

// IsNullable implements the Expression interface.
func (*Grouping) IsNullable() bool { return false }

// Type implements the Expression interface.
func (*Grouping) Type() sql.Type { return sql.Int8 }

// Eval implements the Expression interface.
func (g *Grouping) Eval(*sql.Context, sql.Row) (interface{}, error) {
	return nil, sql.ErrGroupingOutsideGroupingSets.New(g)
}

// WithChildren implements the Expression interface.
func (g *Grouping) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvalidChildrenNumber.New(g, len(children), 1)
	}
	return NewGrouping(children[0]), nil
}

func (g *Grouping) String() string {
	return fmt.Sprintf("grouping(%s)", g.Child)
}

// GroupingID is the GROUPING_ID(e1, ..., en) function: the grouping id bitmask
// of the row. Without arguments it refers to all the grouping expressions.
// It must be rewritten by the analyzer.
type GroupingID struct {
	exprs []sql.Expression
}

// NewGroupingID creates a new GroupingID expression.
func NewGroupingID(exprs ...sql.Expression) *GroupingID {
	return &GroupingID{exprs: exprs}
}

// Resolved implements the Expression interface.
func (*GroupingID) Resolved() bool { return false }

// IsNullable implements the Expression interface.
func (*GroupingID) IsNullable() bool { return false }

// Type implements the Expression interface. The actual width is decided by
// the analyzer.
func (*GroupingID) Type() sql.Type { return sql.Int64 }

// Children implements the Expression interface.
func (g *GroupingID) Children() []sql.Expression { return g.exprs }

// Eval implements the Expression interface.
func (g *GroupingID) Eval(*sql.Context, sql.Row) (interface{}, error) {
	return nil, sql.ErrGroupingOutsideGroupingSets.New(g)
}

// WithChildren implements the Expression interface.
func (g *GroupingID) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != len(g.exprs) {
		return nil, sql.ErrInvalidChildrenNumber.New(g, len(children), len(g.exprs))
	}
	return NewGroupingID(children...), nil
}

func (g *GroupingID) String() string {
	return fmt.Sprintf("grouping_id(%s)", exprsString(g.exprs))
}

// GroupingBit extracts one bit of a grouping id. It is what Grouping
// becomes once the analyzer knows the grouping id attribute.
type GroupingBit struct {
	UnaryExpression
	shift uint
}

// NewGroupingBit returns the bit at the given position of the grouping id,
// counting from the least significant one.
func NewGroupingBit(groupingID sql.Expression, shift uint) *GroupingBit {
	return &GroupingBit{UnaryExpression{groupingID}, shift}
}

// Shift returns the position of the extracted bit.
func (g *GroupingBit) Shift() uint { return g.shift }

// IsNullable implements the Expression interface.
func (*GroupingBit) IsNullable() bool { return false }

// Type implements the Expression interface.
func (*GroupingBit) Type() sql.Type { return sql.Int8 }

// Eval implements the Expression interface.
func (g *GroupingBit) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	v, err := g.Child.Eval(ctx, row)
	if err != nil {
		return nil, err
	}

	gid, err := sql.Int64.Convert(v)
	if err != nil {
		return nil, err
	}

	if gid == nil {
		return nil, nil
	}

	return int8((gid.(int64) >> g.shift) & 1), nil
}

// WithChildren implements the Expression interface.
func (g *GroupingBit) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvalidChildrenNumber.New(g, len(children), 1)
	}
	return NewGroupingBit(children[0], g.shift), nil
}

func (g *GroupingBit) String() string {
	return fmt.Sprintf("(%s >> %d) & 1", g.Child, g.shift)
}

func exprsString(exprs []sql.Expression) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

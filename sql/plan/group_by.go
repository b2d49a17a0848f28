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
	"reflect"
	"strings"

	"github.com/mitchellh/hashstructure"
	opentracing "github.com/opentracing/opentracing-go"

	"github.com/sandexp/lotus-sub002/sql"
	"github.com/sandexp/lotus-sub002/sql/expression"
)

// GroupBy groups the rows by some expressions. When Placeholder is set the
// grouping is a CUBE or ROLLUP that the analyzer has yet to expand, and
// GroupByExprs is empty.
type GroupBy struct {
	UnaryNode
	SelectedExprs []sql.Expression
	GroupByExprs  []sql.Expression
	Placeholder   sql.GroupingPlaceholder
}

var _ sql.Node = (*GroupBy)(nil)
var _ sql.Expressioner = (*GroupBy)(nil)

// NewGroupBy creates a new GroupBy node. Like Project, GroupBy is a
// top-level node, and contains all the fields that will appear in the
// output of the query. Some of these fields may be aggregate functions,
// some may be columns or other expressions.
func NewGroupBy(selectedExprs, groupByExprs []sql.Expression, child sql.Node) *GroupBy {
	return &GroupBy{
		UnaryNode:     UnaryNode{Child: child},
		SelectedExprs: selectedExprs,
		GroupByExprs:  groupByExprs,
	}
}

// NewGroupingSetsGroupBy creates a GroupBy node grouping by a CUBE or
// ROLLUP placeholder.
func NewGroupingSetsGroupBy(selectedExprs []sql.Expression, placeholder sql.GroupingPlaceholder, child sql.Node) *GroupBy {
	return &GroupBy{
		UnaryNode:     UnaryNode{Child: child},
		SelectedExprs: selectedExprs,
		Placeholder:   placeholder,
	}
}

// Resolved implements the Resolvable interface. A node with a grouping
// placeholder is never resolved.
func (g *GroupBy) Resolved() bool {
	return g.Placeholder == nil &&
		g.UnaryNode.Child.Resolved() &&
		sql.ExpressionsResolved(g.SelectedExprs...) &&
		sql.ExpressionsResolved(g.GroupByExprs...)
}

// Schema implements the Node interface.
func (g *GroupBy) Schema() sql.Schema {
	var s = make(sql.Schema, len(g.SelectedExprs))
	for i, e := range g.SelectedExprs {
		s[i] = expression.ExpressionToColumn(e)
	}
	return s
}

// RowIter implements the Node interface.
func (g *GroupBy) RowIter(ctx *sql.Context, row sql.Row) (sql.RowIter, error) {
	if g.Placeholder != nil {
		return nil, sql.ErrPlaceholderEval.New(g.Placeholder)
	}

	span, ctx := ctx.Span("plan.GroupBy", opentracing.Tags{
		"groupings":  len(g.GroupByExprs),
		"aggregates": len(g.SelectedExprs),
	})

	i, err := g.Child.RowIter(ctx, row)
	if err != nil {
		span.Finish()
		return nil, err
	}

	selected, aggs := splitAggregations(g.SelectedExprs, len(g.Child.Schema()))
	return newSpanIter(span, &groupByIter{
		ctx:      ctx,
		selected: selected,
		aggs:     aggs,
		grouping: g.GroupByExprs,
		width:    len(g.Child.Schema()),
		child:    i,
		index:    make(map[uint64][]int),
	}), nil
}

// WithChildren implements the Node interface.
func (g *GroupBy) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvalidChildrenNumber.New(g, len(children), 1)
	}

	ng := *g
	ng.UnaryNode = UnaryNode{Child: children[0]}
	return &ng, nil
}

// Expressions implements the Expressioner interface. The expressions of the
// grouping placeholder, if any, come last.
func (g *GroupBy) Expressions() []sql.Expression {
	var exprs []sql.Expression
	exprs = append(exprs, g.SelectedExprs...)
	exprs = append(exprs, g.GroupByExprs...)
	if g.Placeholder != nil {
		exprs = append(exprs, g.Placeholder.Exprs()...)
	}
	return exprs
}

// WithExpressions implements the Expressioner interface.
func (g *GroupBy) WithExpressions(exprs ...sql.Expression) (sql.Node, error) {
	expected := len(g.Expressions())
	if len(exprs) != expected {
		return nil, sql.ErrInvalidChildrenNumber.New(g, len(exprs), expected)
	}

	ns, ng := len(g.SelectedExprs), len(g.GroupByExprs)

	selected := make([]sql.Expression, ns)
	copy(selected, exprs[:ns])

	var grouping []sql.Expression
	if ng > 0 {
		grouping = make([]sql.Expression, ng)
		copy(grouping, exprs[ns:ns+ng])
	}

	node := NewGroupBy(selected, grouping, g.Child)
	if g.Placeholder != nil {
		p, err := g.Placeholder.WithExprs(exprs[ns+ng:]...)
		if err != nil {
			return nil, err
		}
		node.Placeholder = p
	}

	return node, nil
}

func (g *GroupBy) String() string {
	pr := sql.NewTreePrinter()
	_ = pr.WriteNode("GroupBy")

	var selectedExprs = make([]string, len(g.SelectedExprs))
	for i, e := range g.SelectedExprs {
		selectedExprs[i] = e.String()
	}

	var grouping []string
	if g.Placeholder != nil {
		grouping = append(grouping, g.Placeholder.String())
	}
	for _, e := range g.GroupByExprs {
		grouping = append(grouping, e.String())
	}

	_ = pr.WriteChildren(
		fmt.Sprintf("SelectedExprs(%s)", strings.Join(selectedExprs, ", ")),
		fmt.Sprintf("Grouping(%s)", strings.Join(grouping, ", ")),
		g.Child.String(),
	)
	return pr.String()
}

// splitAggregations replaces every aggregation of the given expressions by
// a field placed after the first width fields of the row, in order of
// appearance, and returns the replaced aggregations.
func splitAggregations(exprs []sql.Expression, width int) ([]sql.Expression, []sql.Aggregation) {
	var aggs []sql.Aggregation
	result := make([]sql.Expression, len(exprs))
	for i, e := range exprs {
		// The transformation never fails.
		result[i], _ = expression.TransformDownUntil(
			e,
			func(sql.Expression) bool { return false },
			func(e sql.Expression) (sql.Expression, error) {
				agg, ok := e.(sql.Aggregation)
				if !ok {
					return e, nil
				}
				aggs = append(aggs, agg)
				return expression.NewGetField(width+len(aggs)-1, agg.Type(), agg.String(), agg.IsNullable()), nil
			},
		)
	}
	return result, aggs
}

type group struct {
	key     []interface{}
	first   sql.Row
	buffers []sql.Row
}

type groupByIter struct {
	ctx      *sql.Context
	selected []sql.Expression
	aggs     []sql.Aggregation
	grouping []sql.Expression
	width    int
	child    sql.RowIter

	computed bool
	groups   []*group
	index    map[uint64][]int
	pos      int
}

func (i *groupByIter) Next() (sql.Row, error) {
	if !i.computed {
		i.computed = true
		if err := i.compute(); err != nil {
			return nil, err
		}
	}

	if i.pos >= len(i.groups) {
		return nil, io.EOF
	}

	g := i.groups[i.pos]
	i.pos++

	results := make(sql.Row, len(i.aggs))
	for j, agg := range i.aggs {
		v, err := agg.Eval(i.ctx, g.buffers[j])
		if err != nil {
			return nil, err
		}
		results[j] = v
	}

	return ProjectRow(i.ctx, i.selected, g.first.Append(results))
}

func (i *groupByIter) compute() error {
	for {
		row, err := i.child.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		key := make([]interface{}, len(i.grouping))
		for j, e := range i.grouping {
			key[j], err = e.Eval(i.ctx, row)
			if err != nil {
				return err
			}
		}

		g, err := i.get(key, row)
		if err != nil {
			return err
		}

		for j, agg := range i.aggs {
			if err := agg.Update(i.ctx, g.buffers[j], row); err != nil {
				return err
			}
		}
	}

	// A global aggregation returns a single row even without input.
	if len(i.grouping) == 0 && len(i.groups) == 0 {
		_, err := i.get(nil, make(sql.Row, i.width))
		return err
	}

	return nil
}

func (i *groupByIter) get(key []interface{}, row sql.Row) (*group, error) {
	hash, err := hashKey(key)
	if err != nil {
		return nil, err
	}

	for _, idx := range i.index[hash] {
		if keysEqual(i.groups[idx].key, key) {
			return i.groups[idx], nil
		}
	}

	g := &group{key: key, first: row, buffers: make([]sql.Row, len(i.aggs))}
	for j, agg := range i.aggs {
		g.buffers[j] = agg.NewBuffer()
	}

	i.index[hash] = append(i.index[hash], len(i.groups))
	i.groups = append(i.groups, g)
	return g, nil
}

func (i *groupByIter) Close() error {
	i.groups = nil
	i.index = nil
	return i.child.Close()
}

// hashKey hashes a list of values. Equal values always have the same hash,
// but different values may collide and must be compared with keysEqual.
func hashKey(values []interface{}) (uint64, error) {
	return hashstructure.Hash(values, nil)
}

func keysEqual(a, b []interface{}) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !valuesEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// valuesEqual compares two key values without panicking on uncomparable
// types such as []byte.
func valuesEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}
	if !ta.Comparable() {
		return reflect.DeepEqual(a, b)
	}
	return a == b
}

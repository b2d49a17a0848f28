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
)

// Nameable is something that has a name.
type Nameable interface {
	// Name returns the name.
	Name() string
}

// Tableable is something that has a table.
type Tableable interface {
	// Table returns the table name.
	Table() string
}

// Resolvable is something that can be resolved or not.
type Resolvable interface {
	// Resolved returns whether the node is resolved.
	Resolved() bool
}

// Expression is a combination of one or more SQL expressions.
type Expression interface {
	Resolvable
	fmt.Stringer
	// Type returns the expression type.
	Type() Type
	// IsNullable returns whether the expression can be null.
	IsNullable() bool
	// Eval evaluates the given row and returns a result.
	Eval(*Context, Row) (interface{}, error)
	// Children returns the children expressions of this expression.
	Children() []Expression
	// WithChildren returns a copy of the expression with children replaced.
	// It will return an error if the number of children is different than
	// the current number of children. They must be given in the same order
	// as they are returned by Children.
	WithChildren(...Expression) (Expression, error)
}

// Aggregation implements an aggregation expression, where an
// aggregation buffer is created for each grouping (NewBuffer) and rows in the
// grouping are fed to the buffer (Update). Multiple buffers can be merged
// (Merge), making partial aggregations possible.
// Note that Eval must be called with the final aggregation buffer in order to
// get the final result.
type Aggregation interface {
	Expression
	// NewBuffer creates a new aggregation buffer and returns it as a Row.
	NewBuffer() Row
	// Update updates the given buffer with the given row.
	Update(ctx *Context, buffer, row Row) error
	// Merge merges a partial buffer into a global one.
	Merge(ctx *Context, buffer, partial Row) error
}

// Node is a node in the execution plan tree.
type Node interface {
	Resolvable
	fmt.Stringer
	// Schema of the node. Its columns are the output attributes of the node.
	Schema() Schema
	// Children nodes.
	Children() []Node
	// RowIter produces a row iterator from this node. The given row is the
	// row of an outer scope, if any.
	RowIter(*Context, Row) (RowIter, error)
	// WithChildren returns a copy of the node with children replaced.
	// It will return an error if the number of children is different than
	// the current number of children. They must be given in the same order
	// as they are returned by Children.
	WithChildren(...Node) (Node, error)
}

// Expressioner is a node that contains expressions.
type Expressioner interface {
	// Expressions returns the list of expressions contained by the node.
	Expressions() []Expression
	// WithExpressions returns a copy of the node with expressions replaced.
	// It will return an error if the number of expressions is different than
	// the current number of expressions. They must be given in the same order
	// as they are returned by Expressions.
	WithExpressions(...Expression) (Node, error)
}

// Databaser is a node that targets a table catalog.
type Databaser interface {
	// Catalog the node targets.
	Catalog() TableCatalog
	// WithCatalog returns a new node instance with the catalog replaced with
	// the one given as parameter.
	WithCatalog(TableCatalog) (Node, error)
}

// TransformNodeFunc is a function that given a node will return that node
// as is or transformed along with an error, if any.
type TransformNodeFunc func(Node) (Node, error)

// TransformExprFunc is a function that given an expression will return that
// expression as is or transformed along with an error, if any.
type TransformExprFunc func(Expression) (Expression, error)

// Inspect traverses the expression tree in depth-first order: it starts by
// calling f(expr); expr must not be nil. If f returns true, Inspect invokes f
// recursively for each of the children of expr, followed by a call of f(nil).
func Inspect(expr Expression, f func(expr Expression) bool) {
	if expr == nil {
		return
	}

	if !f(expr) {
		return
	}

	for _, child := range expr.Children() {
		Inspect(child, f)
	}
}

// ExpressionsResolved returns whether all the given expressions are resolved.
func ExpressionsResolved(exprs ...Expression) bool {
	for _, e := range exprs {
		if !e.Resolved() {
			return false
		}
	}

	return true
}

// GroupingPlaceholder is a CUBE or ROLLUP grouping specification. It is not
// an Expression: it can't be evaluated and is never resolved, so only the
// analyzer can consume it by expanding it into concrete grouping sets.
type GroupingPlaceholder interface {
	Resolvable
	fmt.Stringer
	// Exprs returns the grouping expressions, in declaration order.
	Exprs() []Expression
	// WithExprs returns a copy of the placeholder with the given grouping
	// expressions.
	WithExprs(...Expression) (GroupingPlaceholder, error)
	// NumGroupingSets returns how many grouping sets the placeholder
	// expands to, saturating at math.MaxUint64.
	NumGroupingSets() uint64
	// GroupingSets returns one mask per grouping set, in a stable order. Bit
	// (n-1-i) of a mask is set when the i-th expression is not part of the
	// grouping set.
	GroupingSets() []uint64
}

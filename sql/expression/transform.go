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
	"reflect"

	"github.com/sandexp/lotus-sub002/sql"
)

// TransformUp applies a transformation function to the given expression from the
// bottom up.
func TransformUp(e sql.Expression, f sql.TransformExprFunc) (sql.Expression, error) {
	children := e.Children()
	if len(children) == 0 {
		return f(e)
	}

	newChildren := make([]sql.Expression, len(children))
	for i, c := range children {
		c, err := TransformUp(c, f)
		if err != nil {
			return nil, err
		}
		newChildren[i] = c
	}

	e, err := e.WithChildren(newChildren...)
	if err != nil {
		return nil, err
	}

	return f(e)
}

// TransformDownUntil applies a transformation function to the given
// expression from the top down. If stop returns true for an expression, that
// expression is kept as is and its children are not visited.
func TransformDownUntil(e sql.Expression, stop func(sql.Expression) bool, f sql.TransformExprFunc) (sql.Expression, error) {
	if stop(e) {
		return e, nil
	}

	e, err := f(e)
	if err != nil {
		return nil, err
	}

	children := e.Children()
	if len(children) == 0 {
		return e, nil
	}

	newChildren := make([]sql.Expression, len(children))
	for i, c := range children {
		c, err := TransformDownUntil(c, stop, f)
		if err != nil {
			return nil, err
		}
		newChildren[i] = c
	}

	return e.WithChildren(newChildren...)
}

// SemanticEquals returns whether both expressions compute the same value.
// Attributes are compared by expression id, everything else structurally.
func SemanticEquals(a, b sql.Expression) bool {
	if fa, ok := a.(*GetField); ok {
		fb, ok := b.(*GetField)
		return ok && fa.exprID == fb.exprID
	}

	if reflect.TypeOf(a) != reflect.TypeOf(b) || a.String() != b.String() {
		return false
	}

	ca, cb := a.Children(), b.Children()
	if len(ca) != len(cb) {
		return false
	}

	for i := range ca {
		if !SemanticEquals(ca[i], cb[i]) {
			return false
		}
	}

	return true
}

// IndexOf returns the position of the first expression of the list
// semantically equal to e, or -1.
func IndexOf(exprs []sql.Expression, e sql.Expression) int {
	for i, candidate := range exprs {
		if SemanticEquals(candidate, e) {
			return i
		}
	}
	return -1
}

// Distinct returns the expressions of the list without semantic
// duplicates, keeping the first occurrence.
func Distinct(exprs []sql.Expression) []sql.Expression {
	var res []sql.Expression
	for _, e := range exprs {
		if IndexOf(res, e) < 0 {
			res = append(res, e)
		}
	}
	return res
}

// ExpressionToColumn converts the expression to the column it produces in
// a node output. Expressions that have a Name() and Table() use them,
// attributes and aliases keep their expression ids.
func ExpressionToColumn(e sql.Expression) *sql.Column {
	var name string
	if n, ok := e.(sql.Nameable); ok {
		name = n.Name()
	} else {
		name = e.String()
	}

	var table string
	if t, ok := e.(sql.Tableable); ok {
		table = t.Table()
	}

	var id sql.ExprID
	switch e := e.(type) {
	case *GetField:
		id = e.ID()
	case *Alias:
		id = e.ID()
	}

	return &sql.Column{
		Name:     name,
		Type:     e.Type(),
		Nullable: e.IsNullable(),
		Source:   table,
		ID:       id,
	}
}

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

	"github.com/sandexp/lotus-sub002/sql"
)

// Equals is a comparison that checks an expression is equal to another.
type Equals struct {
	BinaryExpression
}

// NewEquals returns a new Equals expression.
func NewEquals(left sql.Expression, right sql.Expression) *Equals {
	return &Equals{BinaryExpression{Left: left, Right: right}}
}

// Type implements the Expression interface.
func (e *Equals) Type() sql.Type {
	return sql.Boolean
}

// Eval implements the Expression interface. Comparing with NULL yields NULL.
func (e *Equals) Eval(ctx *sql.Context, row sql.Row) (interface{}, error) {
	left, err := e.Left.Eval(ctx, row)
	if err != nil {
		return nil, err
	}

	right, err := e.Right.Eval(ctx, row)
	if err != nil {
		return nil, err
	}

	if left == nil || right == nil {
		return nil, nil
	}

	cmp, err := e.Left.Type().Compare(left, right)
	if err != nil {
		return nil, err
	}

	return cmp == 0, nil
}

// WithChildren implements the Expression interface.
func (e *Equals) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvalidChildrenNumber.New(e, len(children), 2)
	}
	return NewEquals(children[0], children[1]), nil
}

func (e *Equals) String() string {
	return fmt.Sprintf("%s = %s", e.Left, e.Right)
}

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
	"io"

	errors "gopkg.in/src-d/go-errors.v1"

	"github.com/sandexp/lotus-sub002/sql"
)

// ErrUnionSchemasMatch is returned when both sides of a union have a
// different number of columns.
var ErrUnionSchemasMatch = errors.NewKind("the sides of a union must have the same number of columns, got %d and %d")

// Union is a node that returns everything in Left and then everything in
// Right. Columns are matched by position.
type Union struct {
	BinaryNode
	Distinct bool
}

var _ sql.Node = (*Union)(nil)

// NewUnion creates a new Union node with the given children.
func NewUnion(left, right sql.Node, distinct bool) *Union {
	return &Union{
		BinaryNode: BinaryNode{Left: left, Right: right},
		Distinct:   distinct,
	}
}

// Schema implements the Node interface. The output attributes are the ones
// of the left side, nullable if either side is.
func (u *Union) Schema() sql.Schema {
	ls := u.Left.Schema()
	rs := u.Right.Schema()
	ret := make(sql.Schema, len(ls))
	for i := range ls {
		c := *ls[i]
		if i < len(rs) {
			c.Nullable = ls[i].Nullable || rs[i].Nullable
		}
		ret[i] = &c
	}
	return ret
}

// RowIter implements the Node interface.
func (u *Union) RowIter(ctx *sql.Context, row sql.Row) (sql.RowIter, error) {
	if l, r := len(u.Left.Schema()), len(u.Right.Schema()); l != r {
		return nil, ErrUnionSchemasMatch.New(l, r)
	}

	span, ctx := ctx.Span("plan.Union")
	li, err := u.Left.RowIter(ctx, row)
	if err != nil {
		span.Finish()
		return nil, err
	}

	var iter sql.RowIter = &unionIter{
		cur: li,
		nextIter: func(ctx *sql.Context) (sql.RowIter, error) {
			return u.Right.RowIter(ctx, row)
		},
		ctx: ctx,
	}

	if u.Distinct {
		iter = &distinctIter{child: iter, seen: make(map[uint64][]sql.Row)}
	}

	return newSpanIter(span, iter), nil
}

// WithChildren implements the Node interface.
func (u *Union) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvalidChildrenNumber.New(u, len(children), 2)
	}
	return NewUnion(children[0], children[1], u.Distinct), nil
}

func (u *Union) String() string {
	pr := sql.NewTreePrinter()
	if u.Distinct {
		_ = pr.WriteNode("Union distinct")
	} else {
		_ = pr.WriteNode("Union all")
	}
	_ = pr.WriteChildren(u.Left.String(), u.Right.String())
	return pr.String()
}

type unionIter struct {
	cur      sql.RowIter
	nextIter func(ctx *sql.Context) (sql.RowIter, error)
	ctx      *sql.Context
}

func (ui *unionIter) Next() (sql.Row, error) {
	res, err := ui.cur.Next()
	if err == io.EOF {
		if ui.nextIter == nil {
			return nil, io.EOF
		}
		err = ui.cur.Close()
		if err != nil {
			return nil, err
		}
		ui.cur, err = ui.nextIter(ui.ctx)
		ui.nextIter = nil
		if err != nil {
			ui.cur = sql.RowsToRowIter()
			return nil, err
		}
		return ui.cur.Next()
	}
	return res, err
}

func (ui *unionIter) Close() error {
	if ui.cur != nil {
		return ui.cur.Close()
	}
	return nil
}

// distinctIter removes duplicated rows from its child.
type distinctIter struct {
	child sql.RowIter
	seen  map[uint64][]sql.Row
}

func (di *distinctIter) Next() (sql.Row, error) {
	for {
		row, err := di.child.Next()
		if err != nil {
			return nil, err
		}

		hash, err := hashKey(row)
		if err != nil {
			return nil, err
		}

		dup := false
		for _, r := range di.seen[hash] {
			if keysEqual(r, row) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}

		di.seen[hash] = append(di.seen[hash], row)
		return row, nil
	}
}

func (di *distinctIter) Close() error {
	di.seen = nil
	return di.child.Close()
}

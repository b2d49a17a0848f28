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

	"github.com/sandexp/lotus-sub002/sql"
)

// CrossJoin is a cross join between two tables. Its output is the output of
// the left side followed by the output of the right side.
type CrossJoin struct {
	BinaryNode
}

var _ sql.Node = (*CrossJoin)(nil)

// NewCrossJoin creates a new cross join node from two tables.
func NewCrossJoin(left sql.Node, right sql.Node) *CrossJoin {
	return &CrossJoin{BinaryNode{Left: left, Right: right}}
}

// Schema implements the Node interface.
func (p *CrossJoin) Schema() sql.Schema {
	return append(p.Left.Schema().Copy(), p.Right.Schema().Copy()...)
}

// RowIter implements the Node interface.
func (p *CrossJoin) RowIter(ctx *sql.Context, row sql.Row) (sql.RowIter, error) {
	span, ctx := ctx.Span("plan.CrossJoin")

	li, err := p.Left.RowIter(ctx, row)
	if err != nil {
		span.Finish()
		return nil, err
	}

	return newSpanIter(span, &crossJoinIterator{
		l:   li,
		rp:  p.Right,
		ctx: ctx,
		row: row,
	}), nil
}

// WithChildren implements the Node interface.
func (p *CrossJoin) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 2 {
		return nil, sql.ErrInvalidChildrenNumber.New(p, len(children), 2)
	}

	return NewCrossJoin(children[0], children[1]), nil
}

func (p *CrossJoin) String() string {
	pr := sql.NewTreePrinter()
	_ = pr.WriteNode("CrossJoin")
	_ = pr.WriteChildren(p.Left.String(), p.Right.String())
	return pr.String()
}

type crossJoinIterator struct {
	l   sql.RowIter
	rp  sql.Node
	ctx *sql.Context
	row sql.Row

	// rows of the right side, read once
	right  []sql.Row
	loaded bool

	leftRow sql.Row
	pos     int
}

func (i *crossJoinIterator) Next() (sql.Row, error) {
	if !i.loaded {
		ri, err := i.rp.RowIter(i.ctx, i.row)
		if err != nil {
			return nil, err
		}

		i.right, err = sql.RowIterToRows(ri)
		if err != nil {
			return nil, err
		}
		i.loaded = true
	}

	if len(i.right) == 0 {
		return nil, io.EOF
	}

	if i.leftRow == nil || i.pos >= len(i.right) {
		r, err := i.l.Next()
		if err != nil {
			return nil, err
		}
		i.leftRow = r
		i.pos = 0
	}

	rightRow := i.right[i.pos]
	i.pos++
	return i.leftRow.Append(rightRow), nil
}

func (i *crossJoinIterator) Close() error {
	i.right = nil
	return i.l.Close()
}

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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sandexp/lotus-sub002/sql"
	"github.com/sandexp/lotus-sub002/sql/expression"
	"github.com/sandexp/lotus-sub002/sql/expression/function/aggregation"
)

func salesValues(t *testing.T) *Values {
	t.Helper()
	v, err := NewValues(sql.Schema{
		{Name: "name", Type: sql.Text, Source: "sales"},
		{Name: "region", Type: sql.Text, Source: "sales", Nullable: true},
		{Name: "amount", Type: sql.Int64, Source: "sales", Nullable: true},
	},
		sql.NewRow("alice", "east", int64(10)),
		sql.NewRow("bob", "west", int64(20)),
		sql.NewRow("alice", "west", int64(5)),
		sql.NewRow("bob", nil, nil),
	)
	require.NoError(t, err)
	return v
}

func TestGroupBy(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()

	child := salesValues(t)
	fields := expression.SchemaToGetFields(child.Schema())

	p := NewGroupBy(
		[]sql.Expression{
			fields[0],
			expression.NewAlias("total", aggregation.NewSum(fields[2])),
			expression.NewAlias("cnt", aggregation.NewCountStar()),
		},
		[]sql.Expression{fields[0]},
		child,
	)
	require.True(p.Resolved())
	require.Equal([]string{"name", "total", "cnt"}, columnNames(p.Schema()))

	rows, err := sql.NodeToRows(ctx, p)
	require.NoError(err)
	require.Equal([]sql.Row{
		{"alice", float64(15), int64(2)},
		{"bob", float64(20), int64(2)},
	}, rows)
}

func TestGroupByNullKeys(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()

	child := salesValues(t)
	fields := expression.SchemaToGetFields(child.Schema())

	p := NewGroupBy(
		[]sql.Expression{fields[1], aggregation.NewCount(fields[2])},
		[]sql.Expression{fields[1]},
		child,
	)

	rows, err := sql.NodeToRows(ctx, p)
	require.NoError(err)
	require.Equal([]sql.Row{
		{"east", int64(1)},
		{"west", int64(2)},
		{nil, int64(0)},
	}, rows)
}

func TestGroupByGlobalAggregation(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()

	empty, err := NewValues(sql.Schema{{Name: "a", Type: sql.Int64, Nullable: true}})
	require.NoError(err)
	fields := expression.SchemaToGetFields(empty.Schema())

	p := NewGroupBy(
		[]sql.Expression{aggregation.NewCountStar(), aggregation.NewSum(fields[0])},
		nil,
		empty,
	)

	rows, err := sql.NodeToRows(ctx, p)
	require.NoError(err)
	require.Equal([]sql.Row{{int64(0), nil}}, rows)
}

func TestGroupByPlaceholder(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()

	child := salesValues(t)
	fields := expression.SchemaToGetFields(child.Schema())

	p := NewGroupingSetsGroupBy(
		[]sql.Expression{fields[0], fields[1], aggregation.NewSum(fields[2])},
		expression.NewCube(fields[0], fields[1]),
		child,
	)
	require.False(p.Resolved())

	_, err := p.RowIter(ctx, nil)
	require.True(sql.ErrPlaceholderEval.Is(err))

	exprs := p.Expressions()
	require.Len(exprs, 5)

	n, err := p.WithExpressions(exprs...)
	require.NoError(err)
	require.Equal(p.String(), n.String())
	require.Contains(n.String(), "Grouping(CUBE(sales.name, sales.region))")

	_, err = p.WithExpressions(exprs[:4]...)
	require.Error(err)
}

func columnNames(s sql.Schema) []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

func TestKeysEqual(t *testing.T) {
	require := require.New(t)

	require.True(keysEqual([]interface{}{"a", nil, int64(1)}, []interface{}{"a", nil, int64(1)}))
	require.True(keysEqual([]interface{}{[]byte("a")}, []interface{}{[]byte("a")}))
	require.False(keysEqual([]interface{}{[]byte("a")}, []interface{}{[]byte("b")}))
	require.False(keysEqual([]interface{}{int64(1)}, []interface{}{int32(1)}))
	require.False(keysEqual([]interface{}{nil}, []interface{}{int64(0)}))
	require.False(keysEqual([]interface{}{"a"}, []interface{}{"a", "b"}))
}

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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sandexp/lotus-sub002/sql"
)

func TestAlias(t *testing.T) {
	require := require.New(t)

	field := NewGetField(0, sql.Int64, "age", true)
	a := NewAlias("years", field)
	require.Equal("years", a.Name())
	require.Equal(sql.Int64, a.Type())
	require.True(a.IsNullable())
	require.Equal(int64(3), eval(t, a, sql.NewRow(int64(3))))
	require.Equal("age as years", a.String())

	other := NewAlias("years", field)
	require.NotEqual(a.ID(), other.ID())

	moved, err := a.WithChildren(field.WithIndex(4))
	require.NoError(err)
	require.Equal(a.ID(), moved.(*Alias).ID())

	col := ExpressionToColumn(a)
	require.Equal("years", col.Name)
	require.Equal(a.ID(), col.ID)
}

func TestLiteral(t *testing.T) {
	require := require.New(t)

	l := NewLiteral(int64(7), sql.Int64)
	require.True(l.Resolved())
	require.False(l.IsNullable())
	require.Equal(int64(7), eval(t, l, nil))
	require.Equal("7", l.String())
	require.Equal(`"a"`, NewLiteral("a", sql.Text).String())

	null := NewNullLiteral(sql.Text)
	require.True(null.IsNullable())
	require.Nil(eval(t, null, nil))
	require.Equal("NULL", null.String())
	require.Equal(sql.Text, null.Type())
}

func TestUnaryAndBinary(t *testing.T) {
	require := require.New(t)

	a := NewGetField(0, sql.Int64, "a", false)
	b := NewGetField(1, sql.Int64, "b", true)

	require.True(IsUnary(NewIsNull(a)))
	require.True(IsBinary(NewEquals(a, b)))
	require.False(IsUnary(a))
	require.True(NewEquals(a, b).IsNullable())
	require.False(NewEquals(a, a).IsNullable())
}

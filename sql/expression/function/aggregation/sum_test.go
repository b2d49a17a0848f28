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

package aggregation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sandexp/lotus-sub002/sql"
	"github.com/sandexp/lotus-sub002/sql/expression"
)

func TestSum(t *testing.T) {
	testCases := []struct {
		name     string
		rows     []sql.Row
		expected interface{}
	}{
		{"no rows", nil, nil},
		{"only nulls", []sql.Row{{nil}, {nil}}, nil},
		{"ints", []sql.Row{{int64(1)}, {int64(2)}, {nil}, {int64(3)}}, float64(6)},
		{"strings", []sql.Row{{"1.5"}, {"2"}}, float64(3.5)},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			ctx := sql.NewEmptyContext()

			sum := NewSum(expression.NewGetField(0, sql.Int64, "a", true))
			buf := sum.NewBuffer()
			for _, row := range tt.rows {
				require.NoError(sum.Update(ctx, buf, row))
			}

			require.Equal(tt.expected, eval(t, sum, buf))
		})
	}
}

func TestSum_Merge(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()

	sum := NewSum(expression.NewGetField(0, sql.Int64, "a", true))
	b1, b2 := sum.NewBuffer(), sum.NewBuffer()
	require.NoError(sum.Update(ctx, b1, sql.NewRow(int64(2))))
	require.NoError(sum.Merge(ctx, b1, b2))
	require.Equal(float64(2), eval(t, sum, b1))

	require.NoError(sum.Update(ctx, b2, sql.NewRow(int64(5))))
	require.NoError(sum.Merge(ctx, b1, b2))
	require.Equal(float64(7), eval(t, sum, b1))
}

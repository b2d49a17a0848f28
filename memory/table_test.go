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

package memory

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sandexp/lotus-sub002/sql"
)

func TestTablePartitions(t *testing.T) {
	testCases := []struct {
		name         string
		partitioning []sql.Transform
		partitions   int
	}{
		{"unpartitioned", nil, 1},
		{"identity", []sql.Transform{sql.Identity("city")}, 3},
		{"single bucket", []sql.Transform{sql.Bucket(1, "name")}, 1},
	}

	rows := []sql.Row{
		{"alice", "SF", int64(30)},
		{"bob", "NY", int64(40)},
		{"carol", "SF", nil},
		{"dave", nil, int64(50)},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			ctx := sql.NewEmptyContext()

			table := NewPartitionedTable("people", peopleSchema, tt.partitioning, nil)
			require.NoError(table.Insert(ctx, rows...))
			require.Len(table.PartitionKeys(), tt.partitions)
			require.Equal(len(rows), table.NumRows())

			iter, err := table.Rows(ctx)
			require.NoError(err)
			result, err := sql.RowIterToRows(iter)
			require.NoError(err)
			require.ElementsMatch(rows, result)
		})
	}
}

func TestTableIdentityPartitionKeys(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()

	table := NewPartitionedTable("people", peopleSchema, []sql.Transform{sql.Identity("city")}, nil)
	require.NoError(table.Insert(ctx,
		sql.NewRow("alice", "SF", int64(30)),
		sql.NewRow("bob", "NY", int64(40)),
		sql.NewRow("carol", "SF", nil),
	))

	require.Equal([]string{"city=SF", "city=NY"}, table.PartitionKeys())
	require.Len(table.PartitionRows("city=SF"), 2)
	require.Equal("people(city=NY, city=SF)", table.String())
}

func TestTableInsertChecksSchema(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()

	table := NewTable("people", peopleSchema)
	require.Error(table.Insert(ctx, sql.NewRow("alice")))
	require.Equal(0, table.NumRows())

	require.NoError(table.Insert(ctx, sql.NewRow("alice", nil, nil)))
	require.NoError(table.Truncate(ctx))
	require.Equal(0, table.NumRows())
	require.Empty(table.PartitionKeys())
}

func TestTableCapabilities(t *testing.T) {
	require := require.New(t)

	caps := NewTable("t", peopleSchema).Capabilities()
	require.True(caps.Has(sql.BatchRead))
	require.True(caps.Has(sql.BatchWrite))
	require.False(caps.Has(sql.AcceptAnySchema))
}

func TestTableInsertConvertsValues(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()

	table := NewTable("people", peopleSchema)
	require.NoError(table.Insert(ctx,
		sql.NewRow([]byte("alice"), "SF", 30),
		sql.NewRow("bob", []byte("NY"), int32(40)),
	))

	iter, err := table.Rows(ctx)
	require.NoError(err)
	rows, err := sql.RowIterToRows(iter)
	require.NoError(err)
	require.Equal([]sql.Row{
		{"alice", "SF", int64(30)},
		{"bob", "NY", int64(40)},
	}, rows)
}

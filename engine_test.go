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

package sqle_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	sqle "github.com/sandexp/lotus-sub002"
	"github.com/sandexp/lotus-sub002/memory"
	"github.com/sandexp/lotus-sub002/sql"
	"github.com/sandexp/lotus-sub002/sql/expression"
	"github.com/sandexp/lotus-sub002/sql/expression/function/aggregation"
	"github.com/sandexp/lotus-sub002/sql/plan"
)

var peopleID = sql.NewIdentifier([]string{"db"}, "people")

func peopleValues(t *testing.T) *plan.Values {
	t.Helper()
	v, err := plan.NewValues(sql.Schema{
		{Name: "name", Type: sql.Text, Source: "people"},
		{Name: "age", Type: sql.Int64, Source: "people"},
	},
		sql.NewRow("Alice", int64(2)),
		sql.NewRow("Bob", int64(5)),
		sql.NewRow("Carol", int64(7)),
	)
	require.NoError(t, err)
	return v
}

func TestEngineQueryGroupingSets(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()

	e := sqle.New(memory.NewCatalog("test"), nil)

	v := peopleValues(t)
	fields := expression.SchemaToGetFields(v.Schema())
	name := fields[0]

	schema, rows, err := e.Query(ctx, plan.NewGroupingSetsGroupBy(
		[]sql.Expression{
			name,
			expression.NewAlias("g", expression.NewGrouping(name)),
			expression.NewAlias("count", aggregation.NewCountStar()),
		},
		expression.NewRollup(name),
		v,
	))
	require.NoError(err)
	require.Len(schema, 3)
	require.ElementsMatch([]sql.Row{
		{"Alice", int8(0), int64(1)},
		{"Bob", int8(0), int64(1)},
		{"Carol", int8(0), int64(1)},
		{nil, int8(1), int64(3)},
	}, rows)
}

func TestEngineFilterGrandTotal(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()

	e := sqle.New(memory.NewCatalog("test"), nil)

	v := peopleValues(t)
	fields := expression.SchemaToGetFields(v.Schema())
	name, age := fields[0], fields[1]

	rollup := plan.NewGroupingSetsGroupBy(
		[]sql.Expression{name, expression.NewAlias("total", aggregation.NewSum(age))},
		expression.NewRollup(name),
		v,
	)
	_, rows, err := e.Query(ctx, plan.NewFilter(
		expression.NewIsNull(expression.NewGetField(0, sql.Text, "name", true)),
		rollup,
	))
	require.NoError(err)
	require.Equal([]sql.Row{{nil, float64(14)}}, rows)
}

func TestEngineGroupingIDType(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()

	cfg := sqle.DefaultConfig()
	cfg.GroupingIDAsInt32 = true
	e := sqle.New(memory.NewCatalog("test"), cfg)

	v := peopleValues(t)
	fields := expression.SchemaToGetFields(v.Schema())

	schema, rows, err := e.Query(ctx, plan.NewGroupingSetsGroupBy(
		[]sql.Expression{expression.NewAlias("gid", expression.NewGroupingID())},
		expression.NewCube(fields...),
		v,
	))
	require.NoError(err)
	require.Equal(sql.Int32, schema[0].Type)
	require.Len(rows, 3+3+3+1)
}

func TestEngineGroupingErrors(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()

	e := sqle.New(memory.NewCatalog("test"), nil)
	v := peopleValues(t)
	fields := expression.SchemaToGetFields(v.Schema())

	_, _, err := e.Query(ctx, plan.NewProject(
		[]sql.Expression{expression.NewGrouping(fields[0])},
		v,
	))
	require.Error(err)
	require.True(sql.ErrGroupingOutsideGroupingSets.Is(err))
}

func TestEngineCreateTableAsSelect(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()

	cfg := sqle.DefaultConfig()
	cfg.Parallelism = 3
	c := memory.NewCatalog("test")
	e := sqle.New(c, cfg)

	err := e.CreateTableAsSelect(ctx, peopleID, peopleValues(t), plan.CreateMode, nil, map[string]string{"owner": "alice"})
	require.NoError(err)

	_, rows, err := e.Query(ctx, plan.NewUnresolvedTable(peopleID))
	require.NoError(err)
	require.ElementsMatch([]sql.Row{
		{"Alice", int64(2)},
		{"Bob", int64(5)},
		{"Carol", int64(7)},
	}, rows)

	table, err := c.LoadTable(ctx, peopleID)
	require.NoError(err)
	require.Equal("alice", table.Properties()["owner"])

	err = e.CreateTableAsSelect(ctx, peopleID, peopleValues(t), plan.CreateMode, nil, nil)
	require.True(sql.IsTableAlreadyExists(err))

	missing := sql.NewIdentifier([]string{"db"}, "missing")
	err = e.CreateTableAsSelect(ctx, missing, peopleValues(t), plan.ReplaceMode, nil, nil)
	require.True(sql.IsNoSuchTable(err))
	require.False(c.TableExists(ctx, missing))

	v, err := plan.NewValues(sql.Schema{{Name: "id", Type: sql.Int64}}, sql.NewRow(int64(1)))
	require.NoError(err)
	require.NoError(e.CreateTableAsSelect(ctx, peopleID, v, plan.ReplaceMode, nil, nil))

	_, rows, err = e.Query(ctx, plan.NewUnresolvedTable(peopleID))
	require.NoError(err)
	require.Equal([]sql.Row{{int64(1)}}, rows)
}

func TestEngineBoltCatalog(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()

	cfg := sqle.DefaultConfig()
	cfg.Parallelism = 2
	cfg.Catalog = sqle.CatalogConfig{
		Name:   "persistent",
		Driver: sqle.BoltDriver,
		Path:   filepath.Join(t.TempDir(), "catalog.db"),
	}

	e, err := sqle.NewFromConfig(cfg)
	require.NoError(err)
	require.Equal("persistent", e.Catalog.Name())

	require.NoError(e.CreateTableAsSelect(ctx, peopleID, peopleValues(t), plan.CreateMode, nil, nil))
	require.NoError(e.Close())

	e, err = sqle.NewFromConfig(cfg)
	require.NoError(err)
	defer func() { require.NoError(e.Close()) }()

	_, rows, err := e.Query(ctx, plan.NewUnresolvedTable(peopleID))
	require.NoError(err)
	require.ElementsMatch([]sql.Row{
		{"Alice", int64(2)},
		{"Bob", int64(5)},
		{"Carol", int64(7)},
	}, rows)
}

func TestNewFromConfigInvalid(t *testing.T) {
	require := require.New(t)

	cfg := sqle.DefaultConfig()
	cfg.Catalog.Driver = "pilosa"
	_, err := sqle.NewFromConfig(cfg)
	require.True(sqle.ErrUnknownCatalogDriver.Is(err))

	cfg = sqle.DefaultConfig()
	cfg.Catalog.Driver = sqle.BoltDriver
	_, err = sqle.NewFromConfig(cfg)
	require.True(sqle.ErrInvalidConfig.Is(err))
}

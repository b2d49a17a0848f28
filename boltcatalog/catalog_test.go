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

package boltcatalog

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/boltdb/bolt"
	"github.com/stretchr/testify/require"

	"github.com/sandexp/lotus-sub002/sql"
	"github.com/sandexp/lotus-sub002/sql/plan"
)

var peopleSchema = sql.Schema{
	{Name: "name", Type: sql.Text},
	{Name: "age", Type: sql.Int32, Nullable: true},
	{Name: "score", Type: sql.Float64, Nullable: true},
	{Name: "active", Type: sql.Boolean},
}

func openCatalog(t *testing.T) (*Catalog, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")
	c, err := Open(path, &Options{Name: "test"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, path
}

func scan(t *testing.T, ctx *sql.Context, table sql.Table) []sql.Row {
	t.Helper()
	iter, err := table.(sql.ScannableTable).Rows(ctx)
	require.NoError(t, err)
	rows, err := sql.RowIterToRows(iter)
	require.NoError(t, err)
	return rows
}

func writeRows(t *testing.T, ctx *sql.Context, staged sql.StagedTable, taskID int, rows ...sql.Row) {
	t.Helper()
	w, err := staged.NewWriter(ctx, taskID)
	require.NoError(t, err)
	for _, row := range rows {
		require.NoError(t, w.Write(ctx, row))
	}
	require.NoError(t, w.Commit(ctx))
}

func TestCatalogTables(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()
	c, path := openCatalog(t)

	id := sql.NewIdentifier([]string{"db"}, "people")
	require.False(c.TableExists(ctx, id))

	_, err := c.LoadTable(ctx, id)
	require.True(sql.ErrNoSuchTable.Is(err))

	partitioning := []sql.Transform{sql.Identity("active"), sql.Bucket(4, "name")}
	table, err := c.CreateTable(ctx, id, peopleSchema, partitioning, map[string]string{"owner": "alice"})
	require.NoError(err)
	require.Equal("people", table.Name())
	require.True(c.TableExists(ctx, id))

	_, err = c.CreateTable(ctx, id, peopleSchema, nil, nil)
	require.True(sql.ErrTableAlreadyExists.Is(err))
	require.Equal("Table db.people already exists", err.Error())

	ids, err := c.ListTables(ctx, []string{"db"})
	require.NoError(err)
	require.Equal([]sql.Identifier{id}, ids)

	_, err = c.ListTables(ctx, []string{"nope"})
	require.True(sql.ErrNoSuchNamespace.Is(err))

	require.NoError(c.Close())
	c, err = Open(path, nil)
	require.NoError(err)
	defer c.Close()

	loaded, err := c.LoadTable(ctx, id)
	require.NoError(err)
	require.True(sql.TablesEqual(table, loaded))
	require.Equal(map[string]string{"owner": "alice"}, loaded.Properties())
	require.Equal(partitioning, loaded.Partitioning())
	require.Equal(sql.Int32, loaded.Schema()[1].Type)
	require.Empty(scan(t, ctx, loaded))

	dropped, err := c.DropTable(ctx, id)
	require.NoError(err)
	require.True(dropped)

	dropped, err = c.DropTable(ctx, id)
	require.NoError(err)
	require.False(dropped)

	_, err = loaded.(*Table).Rows(ctx)
	require.True(sql.ErrNoSuchTable.Is(err))
}

func TestCatalogInvalidPartitioning(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()
	c, _ := openCatalog(t)

	id := sql.NewIdentifier(nil, "t")
	_, err := c.CreateTable(ctx, id, peopleSchema, []sql.Transform{sql.Identity("missing")}, nil)
	require.True(sql.ErrUnsupportedTransform.Is(err))

	_, err = c.StageCreate(ctx, id, peopleSchema, []sql.Transform{sql.Bucket(0, "name")}, nil)
	require.True(sql.ErrInvalidBucketCount.Is(err))
	require.False(c.TableExists(ctx, id))
}

func TestCatalogConcurrentCreate(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()
	c, _ := openCatalog(t)

	id := sql.NewIdentifier([]string{"db"}, "t")

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.CreateTable(ctx, id, peopleSchema, nil, nil)
		}(i)
	}
	wg.Wait()

	var winners int
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		require.True(sql.ErrTableAlreadyExists.Is(err))
	}
	require.Equal(1, winners)
}

func TestCatalogNamespaces(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()
	c, _ := openCatalog(t)

	require.NoError(c.CreateNamespace(ctx, []string{"b"}, map[string]string{"k": "v"}))
	err := c.CreateNamespace(ctx, []string{"b"}, nil)
	require.True(sql.ErrNamespaceAlreadyExists.Is(err))

	props, err := c.NamespaceProperties(ctx, []string{"b"})
	require.NoError(err)
	require.Equal(map[string]string{"k": "v"}, props)

	_, err = c.CreateTable(ctx, sql.NewIdentifier([]string{"a", "x"}, "t"), peopleSchema, nil, nil)
	require.NoError(err)
	_, err = c.CreateTable(ctx, sql.NewIdentifier(nil, "root"), peopleSchema, nil, nil)
	require.NoError(err)

	namespaces, err := c.ListNamespaces(ctx)
	require.NoError(err)
	require.Equal([][]string{{"a", "x"}, {"b"}}, namespaces)

	err = c.CreateNamespace(ctx, []string{"a", "x"}, nil)
	require.True(sql.ErrNamespaceAlreadyExists.Is(err))

	ids, err := c.ListTables(ctx, []string{"b"})
	require.NoError(err)
	require.Empty(ids)

	_, err = c.DropNamespace(ctx, []string{"a", "x"})
	require.True(sql.ErrNamespaceNotEmpty.Is(err))

	dropped, err := c.DropNamespace(ctx, []string{"b"})
	require.NoError(err)
	require.True(dropped)

	dropped, err = c.DropNamespace(ctx, []string{"b"})
	require.NoError(err)
	require.False(dropped)

	_, err = c.NamespaceProperties(ctx, []string{"b"})
	require.True(sql.ErrNoSuchNamespace.Is(err))
}

func TestStagedCreate(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()
	c, _ := openCatalog(t)

	id := sql.NewIdentifier([]string{"db"}, "people")
	staged, err := c.StageCreate(ctx, id, peopleSchema, nil, nil)
	require.NoError(err)
	require.Equal(sql.Staged, staged.State())

	writeRows(t, ctx, staged, 1,
		sql.NewRow("carol", int32(40), nil, int8(0)),
	)
	writeRows(t, ctx, staged, 0,
		sql.NewRow("alice", int32(2), 1.5, int8(1)),
		sql.NewRow("bob", nil, -0.25, int8(0)),
	)

	// Nothing is visible before the commit.
	require.False(c.TableExists(ctx, id))
	pending, err := c.PendingStages()
	require.NoError(err)
	require.Equal([]string{staged.(*StagedTable).StageID()}, pending)

	require.NoError(staged.CommitStagedChanges(ctx))
	require.Equal(sql.Committed, staged.State())

	table, err := c.LoadTable(ctx, id)
	require.NoError(err)
	require.Equal([]sql.Row{
		{"alice", int32(2), 1.5, int8(1)},
		{"bob", nil, -0.25, int8(0)},
		{"carol", int32(40), nil, int8(0)},
	}, scan(t, ctx, table))

	pending, err = c.PendingStages()
	require.NoError(err)
	require.Empty(pending)

	require.Panics(func() { _ = staged.CommitStagedChanges(ctx) })
	require.Panics(func() { _ = staged.AbortStagedChanges(ctx) })

	_, err = staged.NewWriter(ctx, 3)
	require.True(sql.ErrWriterClosed.Is(err))

	_, err = c.StageCreate(ctx, id, peopleSchema, nil, nil)
	require.True(sql.ErrTableAlreadyExists.Is(err))
}

func TestStagedAbort(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()
	c, _ := openCatalog(t)

	id := sql.NewIdentifier(nil, "people")
	staged, err := c.StageCreate(ctx, id, peopleSchema, nil, nil)
	require.NoError(err)

	writeRows(t, ctx, staged, 0, sql.NewRow("alice", int32(2), nil, int8(1)))

	w, err := staged.NewWriter(ctx, 1)
	require.NoError(err)
	require.NoError(w.Write(ctx, sql.NewRow("bob", nil, nil, int8(0))))

	require.NoError(staged.AbortStagedChanges(ctx))
	require.Equal(sql.Aborted, staged.State())
	require.False(c.TableExists(ctx, id))

	// A writer committing after the abort fails.
	require.True(sql.ErrWriterClosed.Is(w.Commit(ctx)))

	pending, err := c.PendingStages()
	require.NoError(err)
	require.Empty(pending)

	require.Panics(func() { _ = staged.CommitStagedChanges(ctx) })
}

func TestStagedWriterRejectsBadRows(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()
	c, _ := openCatalog(t)

	staged, err := c.StageCreate(ctx, sql.NewIdentifier(nil, "people"), peopleSchema, nil, nil)
	require.NoError(err)

	w, err := staged.NewWriter(ctx, 0)
	require.NoError(err)
	require.Error(w.Write(ctx, sql.NewRow("alice")))
	require.Error(w.Write(ctx, sql.NewRow(nil, nil, nil, int8(0))))
	require.NoError(w.Abort(ctx))
	require.True(sql.ErrWriterClosed.Is(w.Write(ctx, sql.NewRow("alice", nil, nil, int8(0)))))

	require.NoError(staged.AbortStagedChanges(ctx))
}

func TestStagedCreateRace(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()
	c, _ := openCatalog(t)

	id := sql.NewIdentifier(nil, "people")
	staged, err := c.StageCreate(ctx, id, peopleSchema, nil, nil)
	require.NoError(err)
	writeRows(t, ctx, staged, 0, sql.NewRow("alice", nil, nil, int8(1)))

	winner, err := c.CreateTable(ctx, id, peopleSchema, nil, map[string]string{"winner": "yes"})
	require.NoError(err)

	err = staged.CommitStagedChanges(ctx)
	require.True(sql.ErrTableAlreadyExists.Is(err))
	require.Equal(sql.CommitFailed, staged.State())

	// The catalog still holds the winner, untouched.
	table, err := c.LoadTable(ctx, id)
	require.NoError(err)
	require.Equal(winner.Properties(), table.Properties())
	require.Empty(scan(t, ctx, table))

	require.NoError(staged.AbortStagedChanges(ctx))
	pending, err := c.PendingStages()
	require.NoError(err)
	require.Empty(pending)
}

func TestStagedReplace(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()
	c, _ := openCatalog(t)

	id := sql.NewIdentifier(nil, "people")
	_, err := c.StageReplace(ctx, id, peopleSchema, nil, nil)
	require.True(sql.ErrNoSuchTable.Is(err))

	first, err := c.StageCreateOrReplace(ctx, id, peopleSchema, nil, nil)
	require.NoError(err)
	writeRows(t, ctx, first, 0, sql.NewRow("alice", nil, nil, int8(1)))
	require.NoError(first.CommitStagedChanges(ctx))

	schema := sql.Schema{{Name: "n", Type: sql.Int64}}
	second, err := c.StageReplace(ctx, id, schema, nil, nil)
	require.NoError(err)
	writeRows(t, ctx, second, 0, sql.NewRow(int64(1)), sql.NewRow(int64(2)))

	// Readers keep seeing the old table until the commit.
	table, err := c.LoadTable(ctx, id)
	require.NoError(err)
	require.Len(scan(t, ctx, table), 1)

	require.NoError(second.CommitStagedChanges(ctx))

	table, err = c.LoadTable(ctx, id)
	require.NoError(err)
	require.Equal(sql.Int64, table.Schema()[0].Type)
	require.Equal([]sql.Row{{int64(1)}, {int64(2)}}, scan(t, ctx, table))

	third, err := c.StageReplace(ctx, id, schema, nil, nil)
	require.NoError(err)

	dropped, err := c.DropTable(ctx, id)
	require.NoError(err)
	require.True(dropped)

	err = third.CommitStagedChanges(ctx)
	require.True(sql.ErrNoSuchTable.Is(err))
	require.False(c.TableExists(ctx, id))
	require.NoError(third.AbortStagedChanges(ctx))
}

func TestCreateTableAsSelect(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()
	c, _ := openCatalog(t)

	var rows []sql.Row
	for i := 0; i < 100; i++ {
		rows = append(rows, sql.NewRow(int64(i)))
	}
	values, err := plan.NewValues(sql.Schema{{Name: "n", Type: sql.Int64}}, rows...)
	require.NoError(err)

	id := sql.NewIdentifier([]string{"db"}, "numbers")
	ctas := plan.NewCreateTableAsSelect(c, id, values, plan.CreateMode).WithParallelism(4)
	require.NoError(ctas.Execute(ctx))

	table, err := c.LoadTable(ctx, id)
	require.NoError(err)
	require.ElementsMatch(rows, scan(t, ctx, table))

	pending, err := c.PendingStages()
	require.NoError(err)
	require.Empty(pending)
}

func TestOpenLocked(t *testing.T) {
	require := require.New(t)
	_, path := openCatalog(t)

	_, err := Open(path, &Options{Timeout: 20 * time.Millisecond, Retries: 2})
	require.Error(err)
	require.True(sql.ErrCatalogStorage.Is(err))
	require.Equal(bolt.ErrTimeout, err.(interface{ Cause() error }).Cause())
}

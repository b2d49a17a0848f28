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

package legacy

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	errors "gopkg.in/src-d/go-errors.v1"

	"github.com/sandexp/lotus-sub002/sql"
)

func salesDescriptor() *CatalogTable {
	return &CatalogTable{
		Database: "db1",
		Name:     "sales",
		Schema: sql.Schema{
			{Name: "id", Type: sql.Int64},
			{Name: "region", Type: sql.Text, Nullable: true},
			{Name: "day", Type: sql.Text},
		},
		PartitionColumns: []string{"day", "region"},
		Bucket:           &BucketSpec{NumBuckets: 8, BucketColumns: []string{"id"}},
		Storage: StorageFormat{
			LocationURI: "file:/warehouse/sales",
			Properties:  map[string]string{"compression": "snappy"},
		},
		Properties: map[string]string{"owner": "bob"},
	}
}

func TestV1Table(t *testing.T) {
	require := require.New(t)

	desc := salesDescriptor()
	table := NewV1Table(desc)

	require.Equal("sales", table.Name())
	require.True(table.Capabilities().IsEmpty())
	require.True(IsV1Table(table))
	require.Same(desc, table.Descriptor())

	require.Equal([]sql.Transform{
		sql.Identity("day"),
		sql.Identity("region"),
		sql.Bucket(8, "id"),
	}, table.Partitioning())

	require.Equal(map[string]string{
		"owner":       "bob",
		"compression": "snappy",
		"path":        "file:/warehouse/sales",
	}, table.Properties())

	require.Equal(map[string]string{
		"compression": "snappy",
		"path":        "file:/warehouse/sales",
	}, table.Options())

	for _, c := range table.Schema() {
		require.Equal("sales", c.Source)
	}

	// The descriptor is left as it was.
	require.Equal(map[string]string{"owner": "bob"}, desc.Properties)
	require.Equal(map[string]string{"compression": "snappy"}, desc.Storage.Properties)
	require.Equal("", desc.Schema[0].Source)
	require.Equal("V1Table(db1.sales)", table.String())
}

func TestV1TableLazy(t *testing.T) {
	require := require.New(t)

	desc := salesDescriptor()
	table := NewV1Table(desc)

	var wg sync.WaitGroup
	props := make([]map[string]string, 8)
	for i := range props {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			props[i] = table.Properties()
		}(i)
	}
	wg.Wait()

	// Computed once: later changes of the descriptor are not seen.
	desc.Properties["owner"] = "alice"
	desc.Storage.LocationURI = ""
	require.Equal("bob", table.Properties()["owner"])
	require.Equal("file:/warehouse/sales", table.Properties()[PathProperty])
	for _, p := range props {
		require.Equal(table.Properties(), p)
	}
}

func TestV1TableWithoutLocation(t *testing.T) {
	require := require.New(t)

	table := NewV1Table(&CatalogTable{Database: "db", Name: "t"})
	require.Empty(table.Partitioning())
	require.Empty(table.Properties())
	require.Empty(table.Options())
	require.Empty(table.Schema())
}

func newSessionCatalog(t *testing.T) *SessionCatalog {
	t.Helper()
	external := NewInMemoryExternalCatalog()
	require.NoError(t, external.CreateDatabase("db1", nil, false))
	return NewSessionCatalog("legacy", external, "db1")
}

func TestSessionCatalogTables(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()
	c := newSessionCatalog(t)

	schema := sql.Schema{
		{Name: "id", Type: sql.Int64},
		{Name: "day", Type: sql.Text},
	}

	table, err := c.CreateTable(ctx,
		sql.NewIdentifier(nil, "t1"),
		schema,
		[]sql.Transform{sql.Identity("day"), sql.Bucket(4, "id")},
		map[string]string{LocationProperty: "s3://bucket/t1", "owner": "alice"},
	)
	require.NoError(err)
	require.True(IsV1Table(table))
	require.Equal(map[string]string{"owner": "alice", "path": "s3://bucket/t1"}, table.Properties())

	desc := table.(*V1Table).Descriptor()
	require.Equal("db1", desc.Database)
	require.Equal([]string{"day"}, desc.PartitionColumns)
	require.Equal(&BucketSpec{NumBuckets: 4, BucketColumns: []string{"id"}}, desc.Bucket)

	_, err = c.CreateTable(ctx, sql.NewIdentifier([]string{"db1"}, "t1"), schema, nil, nil)
	require.True(sql.ErrTableAlreadyExistsInDatabase.Is(err))
	require.True(sql.IsTableAlreadyExists(err))
	require.Equal("Table or view 't1' already exists in database 'db1'", err.Error())

	loaded, err := c.LoadTable(ctx, sql.NewIdentifier([]string{"db1"}, "t1"))
	require.NoError(err)
	require.True(sql.TablesEqual(table, loaded))

	_, err = c.LoadTable(ctx, sql.NewIdentifier(nil, "t2"))
	require.True(sql.IsNoSuchTable(err))
	require.Equal("Table or view 't2' not found in database 'db1'", err.Error())

	_, err = c.LoadTable(ctx, sql.NewIdentifier([]string{"a", "b"}, "t1"))
	require.True(sql.ErrNoSuchTable.Is(err))
	require.True(sql.ErrNoSuchNamespace.Is(err.(*errors.Error).Cause()))

	ids, err := c.ListTables(ctx, nil)
	require.NoError(err)
	require.Equal([]sql.Identifier{sql.NewIdentifier([]string{"db1"}, "t1")}, ids)

	_, err = c.ListTables(ctx, []string{"nope"})
	require.True(sql.ErrNoSuchNamespace.Is(err))

	require.True(c.TableExists(ctx, sql.NewIdentifier(nil, "t1")))

	dropped, err := c.DropTable(ctx, sql.NewIdentifier(nil, "t1"))
	require.NoError(err)
	require.True(dropped)
	require.False(c.TableExists(ctx, sql.NewIdentifier(nil, "t1")))
}

func TestSessionCatalogUnsupportedTransforms(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()
	c := newSessionCatalog(t)

	schema := sql.Schema{{Name: "id", Type: sql.Int64}}
	_, err := c.CreateTable(ctx, sql.NewIdentifier(nil, "t"), schema,
		[]sql.Transform{sql.Bucket(2, "id"), sql.Bucket(4, "id")}, nil)
	require.True(sql.ErrUnsupportedTransform.Is(err))

	_, err = c.CreateTable(ctx, sql.NewIdentifier(nil, "t"), schema,
		[]sql.Transform{sql.Identity("missing")}, nil)
	require.True(sql.ErrUnsupportedTransform.Is(err))

	require.False(c.TableExists(ctx, sql.NewIdentifier(nil, "t")))
}

func TestSessionCatalogConcurrentCreate(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()
	c := newSessionCatalog(t)

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.CreateTable(ctx, sql.NewIdentifier(nil, "t"), sql.Schema{{Name: "id", Type: sql.Int64}}, nil, nil)
		}(i)
	}
	wg.Wait()

	var winners int
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		require.True(sql.ErrTableAlreadyExistsInDatabase.Is(err))
	}
	require.Equal(1, winners)
}

func TestSessionCatalogNamespaces(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()
	c := newSessionCatalog(t)

	require.NoError(c.CreateNamespace(ctx, []string{"db2"}, nil))

	err := c.CreateNamespace(ctx, []string{"db1"}, nil)
	require.True(sql.ErrDatabaseAlreadyExists.Is(err))
	require.True(sql.IsNamespaceAlreadyExists(err))
	require.Equal("Database 'db1' already exists", err.Error())

	err = c.CreateNamespace(ctx, []string{"a", "b"}, nil)
	require.True(sql.ErrUnsupportedNamespace.Is(err))

	namespaces, err := c.ListNamespaces(ctx)
	require.NoError(err)
	require.Equal([][]string{{"db1"}, {"db2"}}, namespaces)

	_, err = c.CreateTable(ctx, sql.NewIdentifier([]string{"db2"}, "t"), sql.Schema{{Name: "id", Type: sql.Int64}}, nil, nil)
	require.NoError(err)

	_, err = c.DropNamespace(ctx, []string{"db2"})
	require.True(sql.ErrNamespaceNotEmpty.Is(err))

	dropped, err := c.DropNamespace(ctx, []string{"db1"})
	require.NoError(err)
	require.True(dropped)

	require.True(sql.ErrNoSuchNamespace.Is(c.SetCurrentDatabase("db1")))
	require.NoError(c.SetCurrentDatabase("db2"))
	require.True(c.TableExists(ctx, sql.NewIdentifier(nil, "t")))
}

func TestSessionCatalogTempViews(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()
	c := newSessionCatalog(t)

	view := NewV1Table(&CatalogTable{Name: "v"})
	require.NoError(c.CreateTempView("v", view, false))

	err := c.CreateTempView("v", view, false)
	require.True(sql.ErrTempTableAlreadyExists.Is(err))
	require.Equal("Temporary view 'v' already exists", err.Error())
	require.NoError(c.CreateTempView("v", view, true))

	loaded, err := c.LoadTable(ctx, sql.NewIdentifier(nil, "v"))
	require.NoError(err)
	require.Same(view, loaded)

	// Qualified identifiers skip temporary views.
	_, err = c.LoadTable(ctx, sql.NewIdentifier([]string{"db1"}, "v"))
	require.True(sql.IsNoSuchTable(err))

	require.True(c.DropTempView("v"))
	require.False(c.DropTempView("v"))
}

func TestExternalCatalogPartitions(t *testing.T) {
	require := require.New(t)

	c := NewInMemoryExternalCatalog()
	require.NoError(c.CreateDatabase("db1", nil, false))
	require.NoError(c.CreateDatabase("db1", nil, true))
	require.NoError(c.CreateTable(salesDescriptor(), false))
	require.NoError(c.CreateTable(salesDescriptor(), true))

	p1 := sql.NewPartitionSpec("a", "1")
	p2 := sql.NewPartitionSpec("a", "2")
	require.NoError(c.CreatePartitions("db1", "sales", []sql.PartitionSpec{p1}, false))

	err := c.CreatePartitions("db1", "sales", []sql.PartitionSpec{p1}, false)
	require.True(sql.ErrPartitionAlreadyExists.Is(err))
	require.Equal("Partition already exists in table 'sales' database 'db1':\na -> 1", err.Error())

	require.NoError(c.CreatePartitions("db1", "sales", []sql.PartitionSpec{p2}, false))

	err = c.CreatePartitions("db1", "sales", []sql.PartitionSpec{p1, p2, sql.NewPartitionSpec("a", "3")}, false)
	require.True(sql.ErrPartitionsAlreadyExists.Is(err))
	require.Equal("The following partitions already exists in table 'sales' database 'db1':\na -> 1\n===\na -> 2", err.Error())

	// Nothing was added by the failed call.
	parts, err := c.ListPartitions("db1", "sales")
	require.NoError(err)
	require.Equal([]sql.PartitionSpec{p1, p2}, parts)

	require.NoError(c.CreatePartitions("db1", "sales", []sql.PartitionSpec{p1, sql.NewPartitionSpec("a", "3")}, true))
	parts, err = c.ListPartitions("db1", "sales")
	require.NoError(err)
	require.Len(parts, 3)

	_, err = c.ListPartitions("db1", "nope")
	require.True(sql.ErrNoSuchTableInDatabase.Is(err))
}

func TestExternalCatalogFunctions(t *testing.T) {
	require := require.New(t)

	c := NewInMemoryExternalCatalog()
	require.NoError(c.CreateDatabase("db1", nil, false))

	require.False(c.FunctionExists("db1", "f"))
	require.NoError(c.CreateFunction("db1", "f"))
	require.True(c.FunctionExists("db1", "f"))

	err := c.CreateFunction("db1", "f")
	require.True(sql.ErrFunctionAlreadyExists.Is(err))
	require.Equal("Function 'f' already exists in database 'db1'", err.Error())

	require.True(sql.ErrNoSuchNamespace.Is(c.CreateFunction("db2", "f")))
}

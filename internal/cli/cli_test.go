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

package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sandexp/lotus-sub002/sql"
)

func run(t *testing.T, catalog string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--catalog", catalog}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"create", "drop", "list", "namespaces", "ctas", "scan"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			require.Equal(t, name, sub.Name())
		})
	}
}

func TestCommands(t *testing.T) {
	require := require.New(t)
	catalog := filepath.Join(t.TempDir(), "catalog.db")

	out, err := run(t, catalog, "create", "db.people",
		"--column", "name:text",
		"--column", "age:bigint:null",
		"--partition", "bucket:4:name",
		"--property", "owner=alice",
	)
	require.NoError(err)
	require.Contains(out, "created db.people")

	_, err = run(t, catalog, "create", "db.people", "--column", "name:text")
	require.Error(err)
	require.True(sql.IsTableAlreadyExists(err))

	out, err = run(t, catalog, "ctas", "db.adults",
		"--column", "name:text",
		"--column", "age:bigint:null",
		"--row", "Alice,30",
		"--row", "Bob,",
	)
	require.NoError(err)
	require.Equal("create table db.adults with 2 rows\n", out)

	_, err = run(t, catalog, "ctas", "db.adults", "--column", "name:text", "--row", "Carol")
	require.True(sql.IsTableAlreadyExists(err))

	out, err = run(t, catalog, "ctas", "db.adults", "--mode", "replace", "--column", "name:text", "--row", "Carol")
	require.NoError(err)
	require.Equal("replace table db.adults with 1 rows\n", out)

	out, err = run(t, catalog, "scan", "db.adults")
	require.NoError(err)
	require.Equal("Carol\n", out)

	out, err = run(t, catalog, "list", "db")
	require.NoError(err)
	require.Equal("db.adults\ndb.people\n", out)

	require.NoError(func() error { _, err := run(t, catalog, "namespaces", "create", "empty"); return err }())

	out, err = run(t, catalog, "namespaces")
	require.NoError(err)
	require.Equal("db\nempty\n", out)

	out, err = run(t, catalog, "drop", "db.people")
	require.NoError(err)
	require.Equal("dropped db.people\n", out)

	_, err = run(t, catalog, "drop", "db.people")
	require.True(sql.IsNoSuchTable(err))

	_, err = run(t, catalog, "namespaces", "drop", "empty")
	require.NoError(err)
}

func TestParseHelpers(t *testing.T) {
	require := require.New(t)

	id, err := parseIdentifier("a.b.t")
	require.NoError(err)
	require.Equal(sql.NewIdentifier([]string{"a", "b"}, "t"), id)

	_, err = parseIdentifier("a..t")
	require.True(ErrInvalidArgument.Is(err))

	schema, err := parseSchema("t", []string{"id:bigint", "name:text:null"})
	require.NoError(err)
	require.Equal(sql.Schema{
		{Name: "id", Type: sql.Int64, Source: "t"},
		{Name: "name", Type: sql.Text, Nullable: true, Source: "t"},
	}, schema)

	_, err = parseSchema("t", []string{"id:uuid"})
	require.True(sql.ErrTypeNotSupported.Is(err))

	row, err := parseRow(schema, "1,")
	require.NoError(err)
	require.Equal(sql.NewRow(int64(1), nil), row)

	_, err = parseRow(schema, "1")
	require.True(sql.ErrUnexpectedRowLength.Is(err))

	transforms, err := parsePartitioning([]string{"identity:name", "bucket:2:id,name"})
	require.NoError(err)
	require.Equal([]sql.Transform{sql.Identity("name"), sql.Bucket(2, "id", "name")}, transforms)

	_, err = parsePartitioning([]string{"years:ts"})
	require.Error(err)

	_, err = parseMode("upsert")
	require.True(ErrInvalidArgument.Is(err))

	require.Equal("NULL", formatValue(nil))
}

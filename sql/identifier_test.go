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

package sql

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIdentifierQuoted(t *testing.T) {
	testCases := []struct {
		namespace []string
		name      string
		expected  string
	}{
		{nil, "t", "t"},
		{[]string{"db"}, "t_1", "db.t_1"},
		{[]string{"a", "b"}, "c", "a.b.c"},
		{[]string{"my db"}, "t", "`my db`.t"},
		{[]string{"db"}, "a.b", "db.`a.b`"},
		{[]string{"db"}, "we`ird", "db.`we``ird`"},
		{[]string{""}, "t", "``.t"},
	}

	for _, tt := range testCases {
		t.Run(tt.expected, func(t *testing.T) {
			require.Equal(t, tt.expected, NewIdentifier(tt.namespace, tt.name).Quoted())
		})
	}
}

func TestIdentifierQuotedIsUnique(t *testing.T) {
	require := require.New(t)

	ids := []Identifier{
		NewIdentifier([]string{"a"}, "b.c"),
		NewIdentifier([]string{"a", "b"}, "c"),
		NewIdentifier([]string{"a.b"}, "c"),
		NewIdentifier(nil, "a.b.c"),
	}

	seen := map[string]Identifier{}
	for _, id := range ids {
		prev, ok := seen[id.Quoted()]
		require.False(ok, "%s collides with %v", id.Quoted(), prev)
		seen[id.Quoted()] = id
	}
}

func TestIdentifierIsImmutable(t *testing.T) {
	require := require.New(t)

	ns := []string{"db"}
	id := NewIdentifier(ns, "t")
	ns[0] = "other"
	require.Equal("db.t", id.Quoted())

	got := id.Namespace()
	got[0] = "other"
	require.Equal([]string{"db"}, id.Namespace())
	require.True(id.Equals(NewIdentifier([]string{"db"}, "t")))
	require.False(id.Equals(NewIdentifier([]string{"db", "x"}, "t")))
}

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

func TestIsNull(t *testing.T) {
	require := require.New(t)

	get0 := NewGetField(0, sql.Text, "col1", true)
	e := NewIsNull(get0)
	require.Equal(sql.Boolean, e.Type())
	require.False(e.IsNullable())
	require.True(e.Resolved())
	require.Equal(true, eval(t, e, sql.NewRow(nil)))
	require.Equal(false, eval(t, e, sql.NewRow("")))
	require.Equal("col1 IS NULL", e.String())

	// A grouping function below IS NULL keeps it unresolved.
	require.False(NewIsNull(NewGrouping(get0)).Resolved())

	_, err := e.WithChildren()
	require.True(sql.ErrInvalidChildrenNumber.Is(err))
}

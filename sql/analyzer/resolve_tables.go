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

package analyzer

import (
	"github.com/sandexp/lotus-sub002/sql"
	"github.com/sandexp/lotus-sub002/sql/plan"
)

func resolveTables(ctx *sql.Context, a *Analyzer, n sql.Node) (sql.Node, error) {
	a.Log("resolve table, node of type: %T", n)
	return plan.TransformUp(n, func(n sql.Node) (sql.Node, error) {
		t, ok := n.(*plan.UnresolvedTable)
		if !ok {
			return n, nil
		}

		if a.Catalog == nil {
			return nil, plan.ErrUnresolvedTable.New(t.ID)
		}

		table, err := a.Catalog.LoadTable(ctx, t.ID)
		if err != nil {
			return nil, err
		}

		a.Log("table resolved: %s", t.ID)
		return plan.NewResolvedTable(t.ID, table), nil
	})
}

// resolveCatalog sets the catalog of the analyzer on the nodes targeting a
// catalog that have none yet.
func resolveCatalog(ctx *sql.Context, a *Analyzer, n sql.Node) (sql.Node, error) {
	if a.Catalog == nil {
		return n, nil
	}

	a.Log("resolve catalog, node of type: %T", n)
	return plan.TransformUp(n, func(n sql.Node) (sql.Node, error) {
		d, ok := n.(sql.Databaser)
		if !ok || d.Catalog() != nil {
			return n, nil
		}

		a.Log("set catalog %s on node of type %T", a.Catalog.Name(), n)
		return d.WithCatalog(a.Catalog)
	})
}

// parallelizeWrites sets the parallelism of the analyzer on the statements
// writing tables with a single writer.
func parallelizeWrites(ctx *sql.Context, a *Analyzer, n sql.Node) (sql.Node, error) {
	if a.Parallelism <= 1 {
		return n, nil
	}

	return plan.TransformUp(n, func(n sql.Node) (sql.Node, error) {
		c, ok := n.(*plan.CreateTableAsSelect)
		if !ok || c.Parallelism > 1 {
			return n, nil
		}

		a.Log("writing %s with %d writers", c.Table, a.Parallelism)
		return c.WithParallelism(a.Parallelism), nil
	})
}

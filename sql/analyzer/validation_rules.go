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
	errors "gopkg.in/src-d/go-errors.v1"

	"github.com/sandexp/lotus-sub002/sql"
	"github.com/sandexp/lotus-sub002/sql/expression"
	"github.com/sandexp/lotus-sub002/sql/plan"
)

// ErrValidationResolved is returned when the plan can not be resolved.
var ErrValidationResolved = errors.NewKind("plan is not resolved because of node '%T'")

func validateIsResolved(ctx *sql.Context, a *Analyzer, n sql.Node) (sql.Node, error) {
	if !n.Resolved() {
		return nil, ErrValidationResolved.New(unresolvedNode(n))
	}

	return n, nil
}

// unresolvedNode returns the deepest unresolved node of the plan.
func unresolvedNode(n sql.Node) sql.Node {
	for _, c := range n.Children() {
		if !c.Resolved() {
			return unresolvedNode(c)
		}
	}
	return n
}

// validateGroupingSets checks no grouping function is left outside of a
// grouping sets aggregation once they have been expanded. Aggregations
// whose grouping sets could not be expanded are reported by
// validate_resolved.
func validateGroupingSets(ctx *sql.Context, a *Analyzer, n sql.Node) (sql.Node, error) {
	var err error
	plan.Inspect(n, func(n sql.Node) bool {
		if err != nil {
			return false
		}

		if g, ok := n.(*plan.GroupBy); ok && g.Placeholder != nil {
			return true
		}

		e, ok := n.(sql.Expressioner)
		if !ok {
			return true
		}

		for _, expr := range e.Expressions() {
			sql.Inspect(expr, func(expr sql.Expression) bool {
				switch expr.(type) {
				case *expression.Grouping, *expression.GroupingID:
					if err == nil {
						err = sql.ErrGroupingOutsideGroupingSets.New(expr)
					}
					return false
				}
				return true
			})
		}
		return err == nil
	})

	if err != nil {
		return nil, err
	}
	return n, nil
}

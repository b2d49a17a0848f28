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
	"strings"

	"github.com/sandexp/lotus-sub002/sql"
	"github.com/sandexp/lotus-sub002/sql/expression"
	"github.com/sandexp/lotus-sub002/sql/plan"
)

const (
	// MaxGroupingSets is the maximum number of grouping sets a CUBE or
	// ROLLUP may expand to.
	MaxGroupingSets = 1 << 16

	maxGroupingExprs32 = 30
	maxGroupingExprs64 = 62

	// groupingIDName is the name of the synthesized grouping id attribute.
	groupingIDName = "grouping_id"
)

// resolveGroupingSets expands the aggregations grouped by a CUBE or ROLLUP
// into a union of aggregations, one per grouping set. Every branch groups a
// projection of the child where the grouping expressions missing from the
// set are NULL, and a grouping id literal tells which ones they are.
func resolveGroupingSets(ctx *sql.Context, a *Analyzer, n sql.Node) (sql.Node, error) {
	return plan.TransformUp(n, func(n sql.Node) (sql.Node, error) {
		g, ok := n.(*plan.GroupBy)
		if !ok || g.Placeholder == nil || !groupingSetsReady(g) {
			return n, nil
		}

		a.Log("expanding %s into %d grouping sets", g.Placeholder, g.Placeholder.NumGroupingSets())
		return expandGroupingSets(g, a.GroupingIDAsInt32)
	})
}

// groupingSetsReady returns whether everything but the grouping
// placeholder and the grouping functions of the node is resolved.
func groupingSetsReady(g *plan.GroupBy) bool {
	if !g.Child.Resolved() || !sql.ExpressionsResolved(g.Placeholder.Exprs()...) {
		return false
	}

	for _, e := range g.SelectedExprs {
		if !resolvedExceptGrouping(e) {
			return false
		}
	}
	return true
}

func resolvedExceptGrouping(e sql.Expression) bool {
	switch e.(type) {
	case *expression.Grouping, *expression.GroupingID:
		return sql.ExpressionsResolved(e.Children()...)
	}

	children := e.Children()
	if len(children) == 0 {
		return e.Resolved()
	}

	for _, c := range children {
		if !resolvedExceptGrouping(c) {
			return false
		}
	}
	return true
}

func expandGroupingSets(g *plan.GroupBy, int32GroupingID bool) (sql.Node, error) {
	p := g.Placeholder
	exprs := p.Exprs()
	n := len(exprs)

	gidType, limit, bits, width := sql.Int64, maxGroupingExprs64, 63, "64-bit"
	if int32GroupingID {
		gidType, limit, bits, width = sql.Int32, maxGroupingExprs32, 31, "32-bit"
	}

	if distinct := len(expression.Distinct(exprs)); distinct > limit {
		return nil, sql.ErrTooManyGroupingExpressions.New(limit, width, distinct)
	}

	// Duplicated expressions take a bit each.
	if n > bits {
		return nil, sql.ErrTooManyGroupingExpressions.New(limit, width, n)
	}

	if sets := p.NumGroupingSets(); sets > MaxGroupingSets {
		return nil, sql.ErrTooManyGroupingSets.New(p, sets, MaxGroupingSets)
	}

	childSchema := g.Child.Schema()
	childWidth := len(childSchema)
	childFields := expression.SchemaToGetFields(childSchema)

	// The grouping attributes have the same expression ids in every branch,
	// so the union and the aggregations above the projections agree on them.
	attrs := make([]*expression.Alias, n)
	attrFields := make([]sql.Expression, n)
	for i, e := range exprs {
		attrs[i] = expression.NewAlias(expressionName(e), e)
		attrFields[i] = expression.NewGetFieldFromColumn(
			childWidth+i,
			expression.ExpressionToColumn(attrs[i]),
		).WithNullable(true)
	}

	gid := expression.NewAlias(groupingIDName, expression.NewLiteral(gidType.Zero(), gidType))
	gidField := expression.NewGetFieldFromColumn(childWidth+n, expression.ExpressionToColumn(gid))

	selected, err := rewriteSelected(g.SelectedExprs, exprs, attrFields, gidField)
	if err != nil {
		return nil, err
	}

	grouping := make([]sql.Expression, 0, n+1)
	grouping = append(grouping, attrFields...)
	grouping = append(grouping, gidField)

	var result sql.Node
	for _, mask := range p.GroupingSets() {
		projections := make([]sql.Expression, 0, childWidth+n+1)
		projections = append(projections, childFields...)

		for i, attr := range attrs {
			if mask&(uint64(1)<<uint(n-1-i)) == 0 {
				projections = append(projections, attr)
				continue
			}

			null, err := attr.WithChildren(expression.NewNullLiteral(exprs[i].Type()))
			if err != nil {
				return nil, err
			}
			projections = append(projections, null)
		}

		value, err := gidType.Convert(mask)
		if err != nil {
			return nil, err
		}

		gidValue, err := gid.WithChildren(expression.NewLiteral(value, gidType))
		if err != nil {
			return nil, err
		}
		projections = append(projections, gidValue)

		branch := plan.NewGroupBy(selected, grouping, plan.NewProject(projections, g.Child))
		if result == nil {
			result = branch
		} else {
			result = plan.NewUnion(result, branch, false)
		}
	}

	return result, nil
}

// rewriteSelected binds the selected expressions of a grouping sets
// aggregation to the projected grouping attributes. Aggregations keep
// reading the columns of the child.
func rewriteSelected(selected, exprs, attrFields []sql.Expression, gidField sql.Expression) ([]sql.Expression, error) {
	n := len(exprs)
	isAggregation := func(e sql.Expression) bool {
		_, ok := e.(sql.Aggregation)
		return ok
	}

	result := make([]sql.Expression, len(selected))
	for i, e := range selected {
		ne, err := expression.TransformDownUntil(e, isAggregation, func(e sql.Expression) (sql.Expression, error) {
			switch e := e.(type) {
			case *expression.Grouping:
				idx := expression.IndexOf(exprs, e.Child)
				if idx < 0 {
					return nil, sql.ErrGroupingColumnNotFound.New(e.Child, exprsList(exprs))
				}
				return expression.NewGroupingBit(gidField, uint(n-1-idx)), nil
			case *expression.GroupingID:
				if err := checkGroupingIDArgs(e.Children(), exprs); err != nil {
					return nil, err
				}
				return gidField, nil
			}

			if idx := expression.IndexOf(exprs, e); idx >= 0 {
				return attrFields[idx], nil
			}
			return e, nil
		})
		if err != nil {
			return nil, err
		}
		result[i] = ne
	}

	return result, nil
}

// checkGroupingIDArgs checks the arguments of grouping_id are the grouping
// expressions, in any order. No arguments stand for all of them.
func checkGroupingIDArgs(args, exprs []sql.Expression) error {
	if len(args) == 0 {
		return nil
	}

	for _, arg := range args {
		if expression.IndexOf(exprs, arg) < 0 {
			return sql.ErrGroupingIDMismatch.New(exprsList(args), exprsList(exprs), arg)
		}
	}

	for _, e := range exprs {
		if expression.IndexOf(args, e) < 0 {
			return sql.ErrGroupingIDMismatch.New(exprsList(args), exprsList(exprs), e)
		}
	}

	return nil
}

func expressionName(e sql.Expression) string {
	if n, ok := e.(sql.Nameable); ok {
		return n.Name()
	}
	return e.String()
}

func exprsList(exprs []sql.Expression) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ",")
}

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
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	sqle "github.com/sandexp/lotus-sub002"
	"github.com/sandexp/lotus-sub002/sql"
	"github.com/sandexp/lotus-sub002/sql/plan"
)

type tableOptions struct {
	columns      []string
	partitioning []string
	properties   []string
}

func (o *tableOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&o.columns, "column", nil, "column as name:type[:null], repeatable")
	cmd.Flags().StringArrayVar(&o.partitioning, "partition", nil, "identity:col or bucket:n:cols, repeatable")
	cmd.Flags().StringArrayVar(&o.properties, "property", nil, "table property as key=value, repeatable")
}

func (o *tableOptions) parse(id sql.Identifier) (sql.Schema, []sql.Transform, map[string]string, error) {
	schema, err := parseSchema(id.Name(), o.columns)
	if err != nil {
		return nil, nil, nil, err
	}

	partitioning, err := parsePartitioning(o.partitioning)
	if err != nil {
		return nil, nil, nil, err
	}

	props, err := parseProperties(o.properties)
	if err != nil {
		return nil, nil, nil, err
	}
	return schema, partitioning, props, nil
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &tableOptions{}

	cmd := &cobra.Command{
		Use:   "create <table>",
		Short: "Create an empty table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIdentifier(args[0])
			if err != nil {
				return err
			}

			schema, partitioning, props, err := opts.parse(id)
			if err != nil {
				return err
			}

			return rootOpts.withEngine(cmd, func(ctx *sql.Context, e *sqle.Engine) error {
				table, err := e.Catalog.CreateTable(ctx, id, schema, partitioning, props)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", table)
				return nil
			})
		},
	}
	opts.addFlags(cmd)

	return cmd
}

// NewDropCommand creates the drop command.
func NewDropCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "drop <table>",
		Short: "Drop a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIdentifier(args[0])
			if err != nil {
				return err
			}

			return rootOpts.withEngine(cmd, func(ctx *sql.Context, e *sqle.Engine) error {
				dropped, err := e.Catalog.DropTable(ctx, id)
				if err != nil {
					return err
				}
				if !dropped {
					return sql.NewNoSuchTable(id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "dropped %s\n", id.Quoted())
				return nil
			})
		},
	}
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list [namespace]",
		Short: "List the tables of a namespace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var namespace []string
			if len(args) == 1 {
				namespace = parseNamespace(args[0])
			}

			return rootOpts.withEngine(cmd, func(ctx *sql.Context, e *sqle.Engine) error {
				ids, err := e.Catalog.ListTables(ctx, namespace)
				if err != nil {
					return err
				}

				names := make([]string, len(ids))
				for i, id := range ids {
					names[i] = id.Quoted()
				}
				sort.Strings(names)

				for _, n := range names {
					fmt.Fprintln(cmd.OutOrStdout(), n)
				}
				return nil
			})
		},
	}
}

// NewScanCommand creates the scan command, which prints the rows of a
// table.
func NewScanCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "scan <table>",
		Short: "Print the rows of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIdentifier(args[0])
			if err != nil {
				return err
			}

			return rootOpts.withEngine(cmd, func(ctx *sql.Context, e *sqle.Engine) error {
				_, rows, err := e.Query(ctx, plan.NewUnresolvedTable(id))
				if err != nil {
					return err
				}

				for _, row := range rows {
					values := make([]string, len(row))
					for i, v := range row {
						values[i] = formatValue(v)
					}
					fmt.Fprintln(cmd.OutOrStdout(), strings.Join(values, ","))
				}
				return nil
			})
		},
	}
}

// NewNamespacesCommand creates the namespaces command and its create and
// drop subcommands.
func NewNamespacesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "namespaces",
		Short: "List the namespaces of the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withEngine(cmd, func(ctx *sql.Context, e *sqle.Engine) error {
				namespaces, err := e.Catalog.ListNamespaces(ctx)
				if err != nil {
					return err
				}
				for _, ns := range namespaces {
					fmt.Fprintln(cmd.OutOrStdout(), sql.QuoteNamespace(ns))
				}
				return nil
			})
		},
	}

	var properties []string
	create := &cobra.Command{
		Use:   "create <namespace>",
		Short: "Create a namespace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			props, err := parseProperties(properties)
			if err != nil {
				return err
			}

			return rootOpts.withEngine(cmd, func(ctx *sql.Context, e *sqle.Engine) error {
				nc, err := namespaceCatalog(e)
				if err != nil {
					return err
				}
				return nc.CreateNamespace(ctx, parseNamespace(args[0]), props)
			})
		},
	}
	create.Flags().StringArrayVar(&properties, "property", nil, "namespace property as key=value, repeatable")

	drop := &cobra.Command{
		Use:   "drop <namespace>",
		Short: "Drop an empty namespace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withEngine(cmd, func(ctx *sql.Context, e *sqle.Engine) error {
				nc, err := namespaceCatalog(e)
				if err != nil {
					return err
				}

				ns := parseNamespace(args[0])
				dropped, err := nc.DropNamespace(ctx, ns)
				if err != nil {
					return err
				}
				if !dropped {
					return sql.NewNoSuchNamespace(ns)
				}
				return nil
			})
		},
	}

	cmd.AddCommand(create, drop)
	return cmd
}

func namespaceCatalog(e *sqle.Engine) (sql.NamespaceCatalog, error) {
	nc, ok := e.Catalog.(sql.NamespaceCatalog)
	if !ok {
		return nil, fmt.Errorf("catalog %s does not support namespaces", e.Catalog.Name())
	}
	return nc, nil
}

// NewCTASCommand creates the ctas command, which creates a table from the
// given rows through a staged commit.
func NewCTASCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &tableOptions{}
	var rows []string
	var mode string

	cmd := &cobra.Command{
		Use:   "ctas <table>",
		Short: "Create or replace a table with the given rows",
		Long: `Create or replace a table with the given rows.

Rows are comma separated values in column order. The table only
becomes visible once every row was written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIdentifier(args[0])
			if err != nil {
				return err
			}

			m, err := parseMode(mode)
			if err != nil {
				return err
			}

			schema, partitioning, props, err := opts.parse(id)
			if err != nil {
				return err
			}

			values := make([]sql.Row, len(rows))
			for i, r := range rows {
				if values[i], err = parseRow(schema, r); err != nil {
					return err
				}
			}

			query, err := plan.NewValues(schema, values...)
			if err != nil {
				return err
			}

			return rootOpts.withEngine(cmd, func(ctx *sql.Context, e *sqle.Engine) error {
				if err := e.CreateTableAsSelect(ctx, id, query, m, partitioning, props); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s with %d rows\n", strings.ToLower(m.String()), id.Quoted(), len(values))
				return nil
			})
		},
	}
	opts.addFlags(cmd)
	cmd.Flags().StringArrayVar(&rows, "row", nil, "comma separated row values, repeatable")
	cmd.Flags().StringVar(&mode, "mode", "create", "create, replace or create-or-replace")

	return cmd
}

func parseMode(mode string) (plan.CreateTableMode, error) {
	switch mode {
	case "create":
		return plan.CreateMode, nil
	case "replace":
		return plan.ReplaceMode, nil
	case "create-or-replace":
		return plan.CreateOrReplaceMode, nil
	default:
		return 0, ErrInvalidArgument.New("mode", mode, "create, replace or create-or-replace")
	}
}

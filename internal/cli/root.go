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

// Package cli implements the sqlcat command line.
package cli

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sqle "github.com/sandexp/lotus-sub002"
	"github.com/sandexp/lotus-sub002/sql"
)

// RootOptions holds the global flags of every command.
type RootOptions struct {
	ConfigPath  string
	CatalogPath string
	Verbose     bool
}

// NewRootCommand creates the root command of sqlcat.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "sqlcat",
		Short: "Manage the tables of a catalog",
		Long: `Manage the tables of a catalog.

Tables created from rows are staged first and only become visible
once every row was written.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.Verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path of the YAML configuration")
	cmd.PersistentFlags().StringVar(&opts.CatalogPath, "catalog", "", "path of a bolt catalog, overrides the configuration")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewDropCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewNamespacesCommand(opts))
	cmd.AddCommand(NewCTASCommand(opts))
	cmd.AddCommand(NewScanCommand(opts))

	return cmd
}

// Config returns the configuration selected by the flags.
func (o *RootOptions) Config() (*sqle.Config, error) {
	var cfg *sqle.Config
	var err error
	if o.ConfigPath != "" {
		cfg, err = sqle.LoadConfig(o.ConfigPath)
	} else {
		cfg, err = sqle.ParseConfig(nil)
	}
	if err != nil {
		return nil, err
	}

	if o.CatalogPath != "" {
		cfg.Catalog.Driver = sqle.BoltDriver
		cfg.Catalog.Path = o.CatalogPath
	}
	if o.Verbose {
		cfg.Debug = true
	}
	return cfg, nil
}

// withEngine runs fn with an engine over the configured catalog.
func (o *RootOptions) withEngine(cmd *cobra.Command, fn func(*sql.Context, *sqle.Engine) error) (err error) {
	cfg, err := o.Config()
	if err != nil {
		return err
	}

	e, err := sqle.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := e.Close(); err == nil {
			err = cerr
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(sql.NewContext(ctx), e)
}

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

package sqle_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	sqle "github.com/sandexp/lotus-sub002"
)

func TestParseConfig(t *testing.T) {
	require := require.New(t)

	cfg, err := sqle.ParseConfig([]byte(`
grouping_id_as_int32: true
parallelism: 4
debug: true
catalog:
  name: warehouse
  driver: bolt
  path: /tmp/warehouse.db
`))
	require.NoError(err)
	require.Equal(&sqle.Config{
		GroupingIDAsInt32: true,
		Parallelism:       4,
		Debug:             true,
		Catalog: sqle.CatalogConfig{
			Name:   "warehouse",
			Driver: sqle.BoltDriver,
			Path:   "/tmp/warehouse.db",
		},
	}, cfg)
}

func TestParseConfigDefaults(t *testing.T) {
	require := require.New(t)

	cfg, err := sqle.ParseConfig([]byte("debug: true\n"))
	require.NoError(err)
	require.True(cfg.Debug)
	require.Equal(1, cfg.Parallelism)
	require.Equal(sqle.MemoryDriver, cfg.Catalog.Driver)
	require.False(cfg.GroupingIDAsInt32)
}

func TestParseConfigErrors(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
		err  func(error) bool
	}{
		{"malformed", "parallelism: [", sqle.ErrInvalidConfig.Is},
		{"parallelism", "parallelism: 0", sqle.ErrInvalidConfig.Is},
		{"driver", "catalog:\n  driver: redis", sqle.ErrUnknownCatalogDriver.Is},
		{"bolt without path", "catalog:\n  driver: bolt", sqle.ErrInvalidConfig.Is},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sqle.ParseConfig([]byte(tt.yaml))
			require.Error(t, err)
			require.True(t, tt.err(err), err.Error())
		})
	}
}

func TestConfigEnvOverrides(t *testing.T) {
	require := require.New(t)

	t.Setenv(sqle.GroupingIDInt32Env, "true")
	t.Setenv(sqle.ParallelismEnv, "8")

	cfg, err := sqle.ParseConfig([]byte("parallelism: 2\n"))
	require.NoError(err)
	require.True(cfg.GroupingIDAsInt32)
	require.Equal(8, cfg.Parallelism)

	t.Setenv(sqle.ParallelismEnv, "many")
	_, err = sqle.ParseConfig(nil)
	require.True(sqle.ErrInvalidConfig.Is(err))
}

func TestLoadConfig(t *testing.T) {
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "sqlcat.yml")
	cfg := sqle.DefaultConfig()
	cfg.Parallelism = 6
	require.NoError(sqle.WriteConfig(path, cfg))

	loaded, err := sqle.LoadConfig(path)
	require.NoError(err)
	require.Equal(cfg, loaded)

	_, err = sqle.LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	require.True(sqle.ErrInvalidConfig.Is(err))
}

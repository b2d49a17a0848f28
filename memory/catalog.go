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

package memory

import (
	"sort"
	"strings"
	"sync"

	"github.com/sandexp/lotus-sub002/sql"
)

// Catalog is an in-memory catalog of tables grouped in namespaces. Tables
// can be created atomically together with their data through staging.
type Catalog struct {
	name string

	mu         sync.RWMutex
	tables     map[string]*catalogEntry
	namespaces map[string]namespaceEntry
}

type catalogEntry struct {
	id    sql.Identifier
	table *Table
}

type namespaceEntry struct {
	namespace  []string
	properties map[string]string
}

var _ sql.StagingTableCatalog = (*Catalog)(nil)
var _ sql.NamespaceCatalog = (*Catalog)(nil)

// NewCatalog creates a new empty catalog with the given name.
func NewCatalog(name string) *Catalog {
	return &Catalog{
		name:       name,
		tables:     map[string]*catalogEntry{},
		namespaces: map[string]namespaceEntry{},
	}
}

// Name implements the sql.Nameable interface.
func (c *Catalog) Name() string {
	return c.name
}

func tableKey(id sql.Identifier) string {
	return id.Quoted()
}

func namespaceKey(namespace []string) string {
	return sql.QuoteNamespace(namespace)
}

// LoadTable implements the sql.TableCatalog interface.
func (c *Catalog) LoadTable(ctx *sql.Context, id sql.Identifier) (sql.Table, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.tables[tableKey(id)]
	if !ok {
		return nil, sql.NewNoSuchTable(id)
	}
	return e.table, nil
}

// TableExists implements the sql.TableCatalog interface.
func (c *Catalog) TableExists(ctx *sql.Context, id sql.Identifier) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.tables[tableKey(id)]
	return ok
}

// ListTables implements the sql.TableCatalog interface.
func (c *Catalog) ListTables(ctx *sql.Context, namespace []string) ([]sql.Identifier, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	key := namespaceKey(namespace)
	_, explicit := c.namespaces[key]

	var ids []sql.Identifier
	for _, e := range c.tables {
		if namespaceKey(e.id.Namespace()) == key {
			ids = append(ids, e.id)
		}
	}

	if len(ids) == 0 && !explicit && len(namespace) > 0 {
		return nil, sql.NewNoSuchNamespace(namespace)
	}

	sort.Slice(ids, func(i, j int) bool {
		return ids[i].Name() < ids[j].Name()
	})
	return ids, nil
}

// CreateTable implements the sql.TableCatalog interface.
func (c *Catalog) CreateTable(
	ctx *sql.Context,
	id sql.Identifier,
	schema sql.Schema,
	partitioning []sql.Transform,
	properties map[string]string,
) (sql.Table, error) {
	if err := sql.ValidatePartitioning(schema, partitioning); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := tableKey(id)
	if _, ok := c.tables[key]; ok {
		return nil, sql.NewTableAlreadyExists(id)
	}

	table := NewPartitionedTable(id.Name(), schema, partitioning, properties)
	c.tables[key] = &catalogEntry{id: id, table: table}
	ctx.GetLogger().WithField("table", id.Quoted()).Debug("table created")
	return table, nil
}

// DropTable implements the sql.TableCatalog interface.
func (c *Catalog) DropTable(ctx *sql.Context, id sql.Identifier) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := tableKey(id)
	if _, ok := c.tables[key]; !ok {
		return false, nil
	}

	delete(c.tables, key)
	return true, nil
}

// ListNamespaces implements the sql.TableCatalog interface. It returns the
// namespaces created explicitly and the ones holding tables, sorted.
func (c *Catalog) ListNamespaces(ctx *sql.Context) ([][]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := map[string][]string{}
	for k, ns := range c.namespaces {
		seen[k] = ns.namespace
	}
	for _, e := range c.tables {
		if ns := e.id.Namespace(); len(ns) > 0 {
			seen[namespaceKey(ns)] = ns
		}
	}

	res := make([][]string, 0, len(seen))
	for _, ns := range seen {
		res = append(res, ns)
	}
	sortNamespaces(res)
	return res, nil
}

// CreateNamespace implements the sql.NamespaceCatalog interface.
func (c *Catalog) CreateNamespace(ctx *sql.Context, namespace []string, properties map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := namespaceKey(namespace)
	if _, ok := c.namespaces[key]; ok || c.hasTablesIn(key) {
		return sql.NewNamespaceAlreadyExists(namespace)
	}

	c.namespaces[key] = namespaceEntry{
		namespace:  append([]string(nil), namespace...),
		properties: sql.CopyProperties(properties),
	}
	return nil
}

// DropNamespace implements the sql.NamespaceCatalog interface.
func (c *Catalog) DropNamespace(ctx *sql.Context, namespace []string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := namespaceKey(namespace)
	if c.hasTablesIn(key) {
		return false, sql.ErrNamespaceNotEmpty.New(key)
	}

	if _, ok := c.namespaces[key]; !ok {
		return false, nil
	}

	delete(c.namespaces, key)
	return true, nil
}

func (c *Catalog) hasTablesIn(key string) bool {
	for _, e := range c.tables {
		if namespaceKey(e.id.Namespace()) == key {
			return true
		}
	}
	return false
}

// StageCreate implements the sql.StagingTableCatalog interface.
func (c *Catalog) StageCreate(
	ctx *sql.Context,
	id sql.Identifier,
	schema sql.Schema,
	partitioning []sql.Transform,
	properties map[string]string,
) (sql.StagedTable, error) {
	if c.TableExists(ctx, id) {
		return nil, sql.NewTableAlreadyExists(id)
	}
	return c.stage(ctx, stageCreate, id, schema, partitioning, properties)
}

// StageReplace implements the sql.StagingTableCatalog interface.
func (c *Catalog) StageReplace(
	ctx *sql.Context,
	id sql.Identifier,
	schema sql.Schema,
	partitioning []sql.Transform,
	properties map[string]string,
) (sql.StagedTable, error) {
	if !c.TableExists(ctx, id) {
		return nil, sql.NewNoSuchTable(id)
	}
	return c.stage(ctx, stageReplace, id, schema, partitioning, properties)
}

// StageCreateOrReplace implements the sql.StagingTableCatalog interface.
func (c *Catalog) StageCreateOrReplace(
	ctx *sql.Context,
	id sql.Identifier,
	schema sql.Schema,
	partitioning []sql.Transform,
	properties map[string]string,
) (sql.StagedTable, error) {
	return c.stage(ctx, stageCreateOrReplace, id, schema, partitioning, properties)
}

func (c *Catalog) stage(
	ctx *sql.Context,
	mode stageMode,
	id sql.Identifier,
	schema sql.Schema,
	partitioning []sql.Transform,
	properties map[string]string,
) (sql.StagedTable, error) {
	if err := sql.ValidatePartitioning(schema, partitioning); err != nil {
		return nil, err
	}
	return newStagedTable(ctx, c, mode, id, NewPartitionedTable(id.Name(), schema, partitioning, properties)), nil
}

// publish makes the staged table visible under its identifier, if the
// staging mode allows it given the current content of the catalog.
func (c *Catalog) publish(mode stageMode, id sql.Identifier, table *Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := tableKey(id)
	_, exists := c.tables[key]
	switch {
	case mode == stageCreate && exists:
		return sql.NewTableAlreadyExists(id)
	case mode == stageReplace && !exists:
		return sql.NewNoSuchTable(id)
	}

	c.tables[key] = &catalogEntry{id: id, table: table}
	return nil
}

func sortNamespaces(namespaces [][]string) {
	sort.Slice(namespaces, func(i, j int) bool {
		return strings.Join(namespaces[i], "\x00") < strings.Join(namespaces[j], "\x00")
	})
}

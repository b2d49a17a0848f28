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

package legacy

import (
	"sort"
	"sync"

	"github.com/sandexp/lotus-sub002/sql"
)

// ExternalCatalog stores legacy descriptors grouped in databases.
// Conflicts and missing objects are reported with the database scoped
// error forms.
type ExternalCatalog interface {
	CreateDatabase(db string, properties map[string]string, ignoreIfExists bool) error
	// DropDatabase drops an empty database and returns whether it existed.
	DropDatabase(db string) (bool, error)
	DatabaseExists(db string) bool
	ListDatabases() []string

	CreateTable(desc *CatalogTable, ignoreIfExists bool) error
	GetTable(db, table string) (*CatalogTable, error)
	TableExists(db, table string) bool
	DropTable(db, table string) (bool, error)
	ListTables(db string) ([]string, error)

	// CreatePartitions adds partitions to a table. If any of them exists,
	// nothing is added.
	CreatePartitions(db, table string, specs []sql.PartitionSpec, ignoreIfExists bool) error
	ListPartitions(db, table string) ([]sql.PartitionSpec, error)

	CreateFunction(db, name string) error
	FunctionExists(db, name string) bool
}

type database struct {
	properties map[string]string
	tables     map[string]*tableEntry
	functions  map[string]struct{}
}

type tableEntry struct {
	desc       *CatalogTable
	partitions []sql.PartitionSpec
}

// InMemoryExternalCatalog is an ExternalCatalog kept in memory.
type InMemoryExternalCatalog struct {
	mu        sync.RWMutex
	databases map[string]*database
}

var _ ExternalCatalog = (*InMemoryExternalCatalog)(nil)

// NewInMemoryExternalCatalog returns an empty external catalog.
func NewInMemoryExternalCatalog() *InMemoryExternalCatalog {
	return &InMemoryExternalCatalog{databases: map[string]*database{}}
}

func (c *InMemoryExternalCatalog) CreateDatabase(db string, properties map[string]string, ignoreIfExists bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.databases[db]; ok {
		if ignoreIfExists {
			return nil
		}
		return sql.NewDatabaseAlreadyExists(db)
	}

	c.databases[db] = &database{
		properties: sql.CopyProperties(properties),
		tables:     map[string]*tableEntry{},
		functions:  map[string]struct{}{},
	}
	return nil
}

func (c *InMemoryExternalCatalog) DropDatabase(db string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, ok := c.databases[db]
	if !ok {
		return false, nil
	}
	if len(d.tables) > 0 {
		return false, sql.ErrNamespaceNotEmpty.New(db)
	}

	delete(c.databases, db)
	return true, nil
}

func (c *InMemoryExternalCatalog) DatabaseExists(db string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.databases[db]
	return ok
}

func (c *InMemoryExternalCatalog) ListDatabases() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	dbs := make([]string, 0, len(c.databases))
	for db := range c.databases {
		dbs = append(dbs, db)
	}
	sort.Strings(dbs)
	return dbs
}

func (c *InMemoryExternalCatalog) database(db string) (*database, error) {
	d, ok := c.databases[db]
	if !ok {
		return nil, sql.NewNoSuchNamespace([]string{db})
	}
	return d, nil
}

func (c *InMemoryExternalCatalog) CreateTable(desc *CatalogTable, ignoreIfExists bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, err := c.database(desc.Database)
	if err != nil {
		return err
	}

	if _, ok := d.tables[desc.Name]; ok {
		if ignoreIfExists {
			return nil
		}
		return sql.NewTableAlreadyExistsInDatabase(desc.Database, desc.Name)
	}

	d.tables[desc.Name] = &tableEntry{desc: desc}
	return nil
}

func (c *InMemoryExternalCatalog) table(db, table string) (*tableEntry, error) {
	d, err := c.database(db)
	if err != nil {
		return nil, err
	}

	e, ok := d.tables[table]
	if !ok {
		return nil, sql.NewNoSuchTableInDatabase(db, table)
	}
	return e, nil
}

func (c *InMemoryExternalCatalog) GetTable(db, table string) (*CatalogTable, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, err := c.table(db, table)
	if err != nil {
		return nil, err
	}
	return e.desc, nil
}

func (c *InMemoryExternalCatalog) TableExists(db, table string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, err := c.table(db, table)
	return err == nil
}

func (c *InMemoryExternalCatalog) DropTable(db, table string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, err := c.database(db)
	if err != nil {
		return false, err
	}

	if _, ok := d.tables[table]; !ok {
		return false, nil
	}
	delete(d.tables, table)
	return true, nil
}

func (c *InMemoryExternalCatalog) ListTables(db string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, err := c.database(db)
	if err != nil {
		return nil, err
	}

	tables := make([]string, 0, len(d.tables))
	for t := range d.tables {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	return tables, nil
}

func (c *InMemoryExternalCatalog) CreatePartitions(db, table string, specs []sql.PartitionSpec, ignoreIfExists bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, err := c.table(db, table)
	if err != nil {
		return err
	}

	var existing, added []sql.PartitionSpec
	for _, spec := range specs {
		if hasPartition(e.partitions, spec) || hasPartition(added, spec) {
			existing = append(existing, spec)
			continue
		}
		added = append(added, spec)
	}

	if len(existing) > 0 && !ignoreIfExists {
		if len(existing) == 1 {
			return sql.NewPartitionAlreadyExists(db, table, existing[0])
		}
		return sql.NewPartitionsAlreadyExists(db, table, existing...)
	}

	e.partitions = append(e.partitions, added...)
	return nil
}

func hasPartition(specs []sql.PartitionSpec, spec sql.PartitionSpec) bool {
	for _, s := range specs {
		if s.String() == spec.String() {
			return true
		}
	}
	return false
}

func (c *InMemoryExternalCatalog) ListPartitions(db, table string) ([]sql.PartitionSpec, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, err := c.table(db, table)
	if err != nil {
		return nil, err
	}
	return append([]sql.PartitionSpec(nil), e.partitions...), nil
}

func (c *InMemoryExternalCatalog) CreateFunction(db, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, err := c.database(db)
	if err != nil {
		return err
	}

	if _, ok := d.functions[name]; ok {
		return sql.NewFunctionAlreadyExists(db, name)
	}
	d.functions[name] = struct{}{}
	return nil
}

func (c *InMemoryExternalCatalog) FunctionExists(db, name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, ok := c.databases[db]
	if !ok {
		return false
	}
	_, ok = d.functions[name]
	return ok
}

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
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/sandexp/lotus-sub002/sql"
)

// LocationProperty is the table property turned into the storage location
// of a created table.
const LocationProperty = "location"

// SessionCatalog is a sql.TableCatalog over an ExternalCatalog. Identifiers
// have at most one namespace part, the database; identifiers without one
// use the current database. Temporary views shadow tables of the current
// database.
type SessionCatalog struct {
	name     string
	external ExternalCatalog

	mu        sync.RWMutex
	currentDB string
	tempViews map[string]sql.Table
}

var _ sql.NamespaceCatalog = (*SessionCatalog)(nil)

// NewSessionCatalog returns a session catalog using the given database
// when identifiers have no namespace.
func NewSessionCatalog(name string, external ExternalCatalog, currentDB string) *SessionCatalog {
	return &SessionCatalog{
		name:      name,
		external:  external,
		currentDB: currentDB,
		tempViews: map[string]sql.Table{},
	}
}

// Name implements the sql.Nameable interface.
func (c *SessionCatalog) Name() string { return c.name }

// CurrentDatabase returns the database of identifiers without namespace.
func (c *SessionCatalog) CurrentDatabase() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentDB
}

// SetCurrentDatabase changes the database of identifiers without namespace.
func (c *SessionCatalog) SetCurrentDatabase(db string) error {
	if !c.external.DatabaseExists(db) {
		return sql.NewNoSuchNamespace([]string{db})
	}

	c.mu.Lock()
	c.currentDB = db
	c.mu.Unlock()
	return nil
}

func (c *SessionCatalog) database(namespace []string) (string, error) {
	switch len(namespace) {
	case 0:
		return c.CurrentDatabase(), nil
	case 1:
		return namespace[0], nil
	default:
		return "", sql.NewNoSuchNamespace(namespace)
	}
}

// CreateTempView registers a temporary view under the given name.
func (c *SessionCatalog) CreateTempView(name string, table sql.Table, replace bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.tempViews[name]; ok && !replace {
		return sql.NewTempTableAlreadyExists(name)
	}
	c.tempViews[name] = table
	return nil
}

// DropTempView removes a temporary view and returns whether it existed.
func (c *SessionCatalog) DropTempView(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.tempViews[name]
	delete(c.tempViews, name)
	return ok
}

func (c *SessionCatalog) tempView(id sql.Identifier) (sql.Table, bool) {
	if len(id.Namespace()) > 0 {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tempViews[id.Name()]
	return t, ok
}

// LoadTable implements the sql.TableCatalog interface.
func (c *SessionCatalog) LoadTable(ctx *sql.Context, id sql.Identifier) (sql.Table, error) {
	if t, ok := c.tempView(id); ok {
		return t, nil
	}

	db, err := c.database(id.Namespace())
	if err != nil {
		return nil, sql.WrapNoSuchTable(err, id)
	}

	desc, err := c.external.GetTable(db, id.Name())
	if err != nil {
		return nil, err
	}
	return NewV1Table(desc), nil
}

// TableExists implements the sql.TableCatalog interface.
func (c *SessionCatalog) TableExists(ctx *sql.Context, id sql.Identifier) bool {
	if _, ok := c.tempView(id); ok {
		return true
	}

	db, err := c.database(id.Namespace())
	if err != nil {
		return false
	}
	return c.external.TableExists(db, id.Name())
}

// ListTables implements the sql.TableCatalog interface.
func (c *SessionCatalog) ListTables(ctx *sql.Context, namespace []string) ([]sql.Identifier, error) {
	db, err := c.database(namespace)
	if err != nil {
		return nil, err
	}

	names, err := c.external.ListTables(db)
	if err != nil {
		return nil, err
	}

	ids := make([]sql.Identifier, len(names))
	for i, n := range names {
		ids[i] = sql.NewIdentifier([]string{db}, n)
	}
	return ids, nil
}

// CreateTable implements the sql.TableCatalog interface. Identity
// transforms become partition columns and a single bucket transform the
// bucket spec.
func (c *SessionCatalog) CreateTable(
	ctx *sql.Context,
	id sql.Identifier,
	schema sql.Schema,
	partitioning []sql.Transform,
	properties map[string]string,
) (sql.Table, error) {
	db, err := c.database(id.Namespace())
	if err != nil {
		return nil, err
	}

	if err := sql.ValidatePartitioning(schema, partitioning); err != nil {
		return nil, err
	}

	partitionColumns, bucket, err := convertTransforms(partitioning)
	if err != nil {
		return nil, err
	}

	props := sql.CopyProperties(properties)
	location := props[LocationProperty]
	delete(props, LocationProperty)

	desc := &CatalogTable{
		Database:         db,
		Name:             id.Name(),
		Schema:           schema.WithSource(id.Name(), false),
		PartitionColumns: partitionColumns,
		Bucket:           bucket,
		Storage:          StorageFormat{LocationURI: location},
		Properties:       props,
	}

	if err := c.external.CreateTable(desc, false); err != nil {
		return nil, err
	}

	ctx.GetLogger().WithFields(logrus.Fields{
		"database": db,
		"table":    id.Name(),
	}).Debug("legacy table created")
	return NewV1Table(desc), nil
}

func convertTransforms(partitioning []sql.Transform) ([]string, *BucketSpec, error) {
	var columns []string
	var bucket *BucketSpec
	for _, t := range partitioning {
		switch t := t.(type) {
		case sql.IdentityTransform:
			columns = append(columns, t.Column)
		case sql.BucketTransform:
			if bucket != nil {
				return nil, nil, sql.ErrUnsupportedTransform.New(fmt.Sprintf("more than one bucket transform: %s", t))
			}
			bucket = &BucketSpec{NumBuckets: t.NumBuckets, BucketColumns: t.References()}
		default:
			return nil, nil, sql.ErrUnsupportedTransform.New(t.String())
		}
	}
	return columns, bucket, nil
}

// DropTable implements the sql.TableCatalog interface.
func (c *SessionCatalog) DropTable(ctx *sql.Context, id sql.Identifier) (bool, error) {
	db, err := c.database(id.Namespace())
	if err != nil {
		return false, err
	}
	return c.external.DropTable(db, id.Name())
}

// ListNamespaces implements the sql.TableCatalog interface. Every database
// is a namespace.
func (c *SessionCatalog) ListNamespaces(ctx *sql.Context) ([][]string, error) {
	dbs := c.external.ListDatabases()
	res := make([][]string, len(dbs))
	for i, db := range dbs {
		res[i] = []string{db}
	}
	return res, nil
}

// CreateNamespace implements the sql.NamespaceCatalog interface.
func (c *SessionCatalog) CreateNamespace(ctx *sql.Context, namespace []string, properties map[string]string) error {
	if len(namespace) != 1 {
		return sql.ErrUnsupportedNamespace.New(sql.QuoteNamespace(namespace))
	}
	return c.external.CreateDatabase(namespace[0], properties, false)
}

// DropNamespace implements the sql.NamespaceCatalog interface.
func (c *SessionCatalog) DropNamespace(ctx *sql.Context, namespace []string) (bool, error) {
	if len(namespace) != 1 {
		return false, nil
	}
	return c.external.DropDatabase(namespace[0])
}

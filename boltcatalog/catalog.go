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

// Package boltcatalog implements a table catalog persisted in a boltdb file.
//
// Buckets:
// - tables: quoted identifier -> table metadata
// - data: quoted identifier -> bucket of rows keyed by sequence
// - staging: stage id -> bucket of rows keyed by writer task and sequence
// - namespaces: quoted namespace -> namespace metadata
package boltcatalog

import (
	"bytes"
	"sort"
	"strings"
	"time"

	"github.com/boltdb/bolt"
	"github.com/sirupsen/logrus"
	errors "gopkg.in/src-d/go-errors.v1"

	"github.com/sandexp/lotus-sub002/sql"
)

var (
	tablesBucket     = []byte("tables")
	dataBucket       = []byte("data")
	stagingBucket    = []byte("staging")
	namespacesBucket = []byte("namespaces")
)

const (
	defaultTimeout = time.Second
	defaultRetries = 3
)

// Options of a bolt catalog.
type Options struct {
	// Name of the catalog. Defaults to the file name.
	Name string
	// Timeout waiting for the file lock held by another process.
	Timeout time.Duration
	// Retries of the open after a lock timeout.
	Retries int
}

// Catalog is a catalog of tables stored in a boltdb file. Every operation
// runs in its own transaction, so concurrent creations of the same table
// have a single winner.
type Catalog struct {
	name string
	path string
	db   *bolt.DB
}

var _ sql.StagingTableCatalog = (*Catalog)(nil)
var _ sql.NamespaceCatalog = (*Catalog)(nil)

// Open opens or creates the catalog stored at path.
func Open(path string, opts *Options) (*Catalog, error) {
	if opts == nil {
		opts = &Options{}
	}

	name := opts.Name
	if name == "" {
		name = path
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	retries := opts.Retries
	if retries <= 0 {
		retries = defaultRetries
	}

	var db *bolt.DB
	var err error
	for i := 0; i < retries; i++ {
		db, err = bolt.Open(path, 0640, &bolt.Options{Timeout: timeout})
		if err != bolt.ErrTimeout {
			break
		}
		logrus.WithField("path", path).Warn("catalog file is locked, retrying")
	}
	if err != nil {
		return nil, sql.ErrCatalogStorage.Wrap(err, path)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{tablesBucket, dataBucket, stagingBucket, namespacesBucket} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, sql.ErrCatalogStorage.Wrap(err, path)
	}

	return &Catalog{name: name, path: path, db: db}, nil
}

// Close closes the underlying file.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Name implements the sql.Nameable interface.
func (c *Catalog) Name() string {
	return c.name
}

func tableKey(id sql.Identifier) []byte {
	return []byte(id.Quoted())
}

func namespaceKey(namespace []string) []byte {
	return []byte(sql.QuoteNamespace(namespace))
}

// storageError wraps failures of the storage layer. Errors of a known kind
// are returned untouched.
func storageError(err error, subject string) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*errors.Error); ok {
		return err
	}
	return sql.ErrCatalogStorage.Wrap(err, subject)
}

func (c *Catalog) view(subject string, fn func(*bolt.Tx) error) error {
	return storageError(c.db.View(fn), subject)
}

func (c *Catalog) update(subject string, fn func(*bolt.Tx) error) error {
	return storageError(c.db.Update(fn), subject)
}

func getMeta(tx *bolt.Tx, id sql.Identifier) (*tableMeta, error) {
	data := tx.Bucket(tablesBucket).Get(tableKey(id))
	if data == nil {
		return nil, nil
	}

	var m tableMeta
	if err := decode(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func putMeta(tx *bolt.Tx, m *tableMeta) error {
	data, err := encode(m)
	if err != nil {
		return err
	}
	return tx.Bucket(tablesBucket).Put(tableKey(m.identifier()), data)
}

// LoadTable implements the sql.TableCatalog interface.
func (c *Catalog) LoadTable(ctx *sql.Context, id sql.Identifier) (sql.Table, error) {
	var m *tableMeta
	err := c.view(id.Quoted(), func(tx *bolt.Tx) error {
		var err error
		m, err = getMeta(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	if m == nil {
		return nil, sql.NewNoSuchTable(id)
	}
	return newTable(c, m)
}

// TableExists implements the sql.TableCatalog interface.
func (c *Catalog) TableExists(ctx *sql.Context, id sql.Identifier) bool {
	var exists bool
	err := c.view(id.Quoted(), func(tx *bolt.Tx) error {
		exists = tx.Bucket(tablesBucket).Get(tableKey(id)) != nil
		return nil
	})
	if err != nil {
		ctx.GetLogger().WithError(err).Warn("unable to check table existence")
	}
	return exists
}

// ListTables implements the sql.TableCatalog interface.
func (c *Catalog) ListTables(ctx *sql.Context, namespace []string) ([]sql.Identifier, error) {
	key := string(namespaceKey(namespace))

	var ids []sql.Identifier
	var explicit bool
	err := c.view(key, func(tx *bolt.Tx) error {
		explicit = tx.Bucket(namespacesBucket).Get([]byte(key)) != nil
		return tx.Bucket(tablesBucket).ForEach(func(k, v []byte) error {
			var m tableMeta
			if err := decode(v, &m); err != nil {
				return err
			}
			if sql.QuoteNamespace(m.Namespace) == key {
				ids = append(ids, m.identifier())
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
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

	m := newTableMeta(id, schema, partitioning, properties)
	err := c.update(id.Quoted(), func(tx *bolt.Tx) error {
		if tx.Bucket(tablesBucket).Get(tableKey(id)) != nil {
			return sql.NewTableAlreadyExists(id)
		}

		if err := putMeta(tx, m); err != nil {
			return err
		}

		_, err := tx.Bucket(dataBucket).CreateBucketIfNotExists(tableKey(id))
		return err
	})
	if err != nil {
		return nil, err
	}

	ctx.GetLogger().WithField("table", id.Quoted()).Debug("table created")
	return newTable(c, m)
}

// DropTable implements the sql.TableCatalog interface.
func (c *Catalog) DropTable(ctx *sql.Context, id sql.Identifier) (bool, error) {
	var dropped bool
	err := c.update(id.Quoted(), func(tx *bolt.Tx) error {
		tables := tx.Bucket(tablesBucket)
		if tables.Get(tableKey(id)) == nil {
			return nil
		}

		if err := tables.Delete(tableKey(id)); err != nil {
			return err
		}

		if err := tx.Bucket(dataBucket).DeleteBucket(tableKey(id)); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}

		dropped = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if dropped {
		ctx.GetLogger().WithField("table", id.Quoted()).Debug("table dropped")
	}
	return dropped, nil
}

// ListNamespaces implements the sql.TableCatalog interface. It returns the
// namespaces created explicitly and the ones holding tables, sorted.
func (c *Catalog) ListNamespaces(ctx *sql.Context) ([][]string, error) {
	seen := map[string][]string{}
	err := c.view(c.name, func(tx *bolt.Tx) error {
		err := tx.Bucket(namespacesBucket).ForEach(func(k, v []byte) error {
			var m namespaceMeta
			if err := decode(v, &m); err != nil {
				return err
			}
			seen[string(k)] = m.Namespace
			return nil
		})
		if err != nil {
			return err
		}

		return tx.Bucket(tablesBucket).ForEach(func(k, v []byte) error {
			var m tableMeta
			if err := decode(v, &m); err != nil {
				return err
			}
			if len(m.Namespace) > 0 {
				seen[sql.QuoteNamespace(m.Namespace)] = m.Namespace
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	res := make([][]string, 0, len(seen))
	for _, ns := range seen {
		res = append(res, ns)
	}
	sort.Slice(res, func(i, j int) bool {
		return strings.Join(res[i], "\x00") < strings.Join(res[j], "\x00")
	})
	return res, nil
}

func hasTablesIn(tx *bolt.Tx, namespace []string) (bool, error) {
	key := sql.QuoteNamespace(namespace)
	var found bool
	err := tx.Bucket(tablesBucket).ForEach(func(k, v []byte) error {
		if found {
			return nil
		}
		var m tableMeta
		if err := decode(v, &m); err != nil {
			return err
		}
		found = sql.QuoteNamespace(m.Namespace) == key
		return nil
	})
	return found, err
}

// CreateNamespace implements the sql.NamespaceCatalog interface.
func (c *Catalog) CreateNamespace(ctx *sql.Context, namespace []string, properties map[string]string) error {
	key := namespaceKey(namespace)
	return c.update(string(key), func(tx *bolt.Tx) error {
		if tx.Bucket(namespacesBucket).Get(key) != nil {
			return sql.NewNamespaceAlreadyExists(namespace)
		}

		found, err := hasTablesIn(tx, namespace)
		if err != nil {
			return err
		}
		if found {
			return sql.NewNamespaceAlreadyExists(namespace)
		}

		data, err := encode(namespaceMeta{Namespace: namespace, Properties: sql.CopyProperties(properties)})
		if err != nil {
			return err
		}
		return tx.Bucket(namespacesBucket).Put(key, data)
	})
}

// DropNamespace implements the sql.NamespaceCatalog interface.
func (c *Catalog) DropNamespace(ctx *sql.Context, namespace []string) (bool, error) {
	key := namespaceKey(namespace)
	var dropped bool
	err := c.update(string(key), func(tx *bolt.Tx) error {
		found, err := hasTablesIn(tx, namespace)
		if err != nil {
			return err
		}
		if found {
			return sql.ErrNamespaceNotEmpty.New(string(key))
		}

		b := tx.Bucket(namespacesBucket)
		if b.Get(key) == nil {
			return nil
		}

		dropped = true
		return b.Delete(key)
	})
	return dropped, err
}

// NamespaceProperties returns the properties a namespace was created with.
func (c *Catalog) NamespaceProperties(ctx *sql.Context, namespace []string) (map[string]string, error) {
	key := namespaceKey(namespace)
	var props map[string]string
	err := c.view(string(key), func(tx *bolt.Tx) error {
		data := tx.Bucket(namespacesBucket).Get(key)
		if data == nil {
			return sql.NewNoSuchNamespace(namespace)
		}

		var m namespaceMeta
		if err := decode(data, &m); err != nil {
			return err
		}
		props = m.Properties
		return nil
	})
	return props, err
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

	s, err := newStagedTable(ctx, c, mode, newTableMeta(id, schema, partitioning, properties))
	if err != nil {
		return nil, err
	}

	err = c.update(id.Quoted(), func(tx *bolt.Tx) error {
		_, err := tx.Bucket(stagingBucket).CreateBucket([]byte(s.stageID))
		return err
	})
	if err != nil {
		return nil, err
	}

	return s, nil
}

// PendingStages returns the ids of the stages neither committed nor
// aborted, such as the ones left by a crashed process.
func (c *Catalog) PendingStages() ([]string, error) {
	var ids []string
	err := c.view(c.name, func(tx *bolt.Tx) error {
		return tx.Bucket(stagingBucket).ForEach(func(k, v []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	sort.Strings(ids)
	return ids, err
}

// PurgeStages deletes the data of the given stages.
func (c *Catalog) PurgeStages(ids ...string) error {
	return c.update(c.name, func(tx *bolt.Tx) error {
		staging := tx.Bucket(stagingBucket)
		for _, id := range ids {
			if err := staging.DeleteBucket([]byte(id)); err != nil && err != bolt.ErrBucketNotFound {
				return err
			}
		}
		return nil
	})
}

// publish moves the rows of a stage into the data of the table and writes
// its metadata, in a single transaction.
func (c *Catalog) publish(tx *bolt.Tx, mode stageMode, m *tableMeta, stageID string) error {
	id := m.identifier()
	exists := tx.Bucket(tablesBucket).Get(tableKey(id)) != nil
	switch {
	case mode == stageCreate && exists:
		return sql.NewTableAlreadyExists(id)
	case mode == stageReplace && !exists:
		return sql.NewNoSuchTable(id)
	}

	staged := tx.Bucket(stagingBucket).Bucket([]byte(stageID))
	if staged == nil {
		return bolt.ErrBucketNotFound
	}

	data := tx.Bucket(dataBucket)
	if err := data.DeleteBucket(tableKey(id)); err != nil && err != bolt.ErrBucketNotFound {
		return err
	}

	rows, err := data.CreateBucket(tableKey(id))
	if err != nil {
		return err
	}

	err = staged.ForEach(func(k, v []byte) error {
		seq, err := rows.NextSequence()
		if err != nil {
			return err
		}
		return rows.Put(rowKey(seq), bytes.Clone(v))
	})
	if err != nil {
		return err
	}

	if err := putMeta(tx, m); err != nil {
		return err
	}

	return tx.Bucket(stagingBucket).DeleteBucket([]byte(stageID))
}

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

// Package legacy adapts tables described by an external, database-scoped
// catalog to the sql.TableCatalog interface.
package legacy

import (
	"fmt"
	"sync"

	"github.com/sandexp/lotus-sub002/sql"
)

// PathProperty is the property holding the storage location of a table.
const PathProperty = "path"

// BucketSpec describes how the rows of a legacy table are bucketed.
type BucketSpec struct {
	NumBuckets    int
	BucketColumns []string
	SortColumns   []string
}

// StorageFormat describes where and how the data of a legacy table is
// stored.
type StorageFormat struct {
	LocationURI string
	Properties  map[string]string
}

// CatalogTable is the descriptor of a table in an external catalog.
type CatalogTable struct {
	Database         string
	Name             string
	Schema           sql.Schema
	PartitionColumns []string
	Bucket           *BucketSpec
	Storage          StorageFormat
	Properties       map[string]string
}

// Identifier returns the identifier of the table.
func (t *CatalogTable) Identifier() sql.Identifier {
	return sql.NewIdentifier([]string{t.Database}, t.Name)
}

// V1Table exposes a legacy descriptor as a sql.Table. Everything is derived
// from the descriptor the first time it is asked for, and the descriptor is
// never modified.
type V1Table struct {
	desc *CatalogTable

	schemaOnce sync.Once
	schema     sql.Schema

	partitioningOnce sync.Once
	partitioning     []sql.Transform

	propertiesOnce sync.Once
	properties     map[string]string
}

var _ sql.Table = (*V1Table)(nil)

// NewV1Table returns a table over the given descriptor.
func NewV1Table(desc *CatalogTable) *V1Table {
	return &V1Table{desc: desc}
}

// Descriptor returns the underlying legacy descriptor.
func (t *V1Table) Descriptor() *CatalogTable {
	return t.desc
}

// Name implements the sql.Table interface.
func (t *V1Table) Name() string {
	return t.desc.Name
}

// Schema implements the sql.Table interface.
func (t *V1Table) Schema() sql.Schema {
	t.schemaOnce.Do(func() {
		t.schema = t.desc.Schema.WithSource(t.desc.Name, false)
	})
	return t.schema
}

// Partitioning implements the sql.Table interface. Partition columns
// become identity transforms, followed by the bucket spec if any.
func (t *V1Table) Partitioning() []sql.Transform {
	t.partitioningOnce.Do(func() {
		for _, c := range t.desc.PartitionColumns {
			t.partitioning = append(t.partitioning, sql.Identity(c))
		}
		if b := t.desc.Bucket; b != nil {
			t.partitioning = append(t.partitioning, sql.Bucket(b.NumBuckets, b.BucketColumns...))
		}
	})
	return t.partitioning
}

// Properties implements the sql.Table interface. The storage location is
// exposed under the "path" key.
func (t *V1Table) Properties() map[string]string {
	t.propertiesOnce.Do(func() {
		props := sql.CopyProperties(t.desc.Properties)
		for k, v := range t.Options() {
			props[k] = v
		}
		t.properties = props
	})
	return t.properties
}

// Options returns the storage properties of the table, with its location
// under the "path" key.
func (t *V1Table) Options() map[string]string {
	opts := sql.CopyProperties(t.desc.Storage.Properties)
	if t.desc.Storage.LocationURI != "" {
		opts[PathProperty] = t.desc.Storage.LocationURI
	}
	return opts
}

// Capabilities implements the sql.Table interface. Legacy tables never
// report any capability, callers must handle them explicitly.
func (*V1Table) Capabilities() sql.CapabilitySet {
	return sql.NewCapabilitySet()
}

func (t *V1Table) String() string {
	return fmt.Sprintf("V1Table(%s)", t.desc.Identifier().Quoted())
}

// IsV1Table returns whether the table is backed by a legacy descriptor.
func IsV1Table(t sql.Table) bool {
	_, ok := t.(*V1Table)
	return ok
}

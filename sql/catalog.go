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

package sql

import (
	"sort"
	"strings"
)

// Capability is something a table declares it supports. The executor uses
// them to decide which strategies apply to a table.
type Capability string

const (
	// BatchRead tables can produce all their rows.
	BatchRead Capability = "BATCH_READ"
	// BatchWrite tables accept appended rows.
	BatchWrite Capability = "BATCH_WRITE"
	// Truncate tables can be emptied.
	Truncate Capability = "TRUNCATE"
	// OverwriteByFilter tables can replace the rows matching a filter.
	OverwriteByFilter Capability = "OVERWRITE_BY_FILTER"
	// OverwriteDynamic tables can replace whole partitions.
	OverwriteDynamic Capability = "OVERWRITE_DYNAMIC"
	// AcceptAnySchema tables accept rows of any schema.
	AcceptAnySchema Capability = "ACCEPT_ANY_SCHEMA"
)

// CapabilitySet is the set of capabilities of a table. An empty set means
// no capability is confirmed, it never means that all of them are.
type CapabilitySet map[Capability]struct{}

// NewCapabilitySet creates a set with the given capabilities.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	set := make(CapabilitySet, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

// Has returns whether the set contains the given capability.
func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// IsEmpty returns whether no capability is confirmed.
func (s CapabilitySet) IsEmpty() bool {
	return len(s) == 0
}

// Sorted returns the capabilities in lexicographic order.
func (s CapabilitySet) Sorted() []Capability {
	caps := make([]Capability, 0, len(s))
	for c := range s {
		caps = append(caps, c)
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i] < caps[j] })
	return caps
}

func (s CapabilitySet) String() string {
	caps := s.Sorted()
	parts := make([]string, len(caps))
	for i, c := range caps {
		parts[i] = string(c)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Table is a table known to a catalog.
type Table interface {
	Nameable
	// Schema returns the ordered columns of the table.
	Schema() Schema
	// Partitioning returns how rows are laid out physically.
	Partitioning() []Transform
	// Properties returns the string properties of the table.
	Properties() map[string]string
	// Capabilities returns what the table supports.
	Capabilities() CapabilitySet
}

// ScannableTable is a table whose rows can be read.
type ScannableTable interface {
	Table
	// Rows returns an iterator over all the rows of the table.
	Rows(*Context) (RowIter, error)
}

// TableCatalog holds tables addressed by identifiers.
type TableCatalog interface {
	Nameable
	// LoadTable returns the table with the given identifier, or an
	// ErrNoSuchTable error.
	LoadTable(ctx *Context, id Identifier) (Table, error)
	// TableExists returns whether a table exists for the given identifier.
	TableExists(ctx *Context, id Identifier) bool
	// ListTables returns the identifiers of the tables in a namespace.
	ListTables(ctx *Context, namespace []string) ([]Identifier, error)
	// CreateTable creates a new table. At most one concurrent call for the
	// same identifier succeeds, the rest fail with ErrTableAlreadyExists.
	CreateTable(ctx *Context, id Identifier, schema Schema, partitioning []Transform, properties map[string]string) (Table, error)
	// DropTable drops a table and returns whether it existed.
	DropTable(ctx *Context, id Identifier) (bool, error)
	// ListNamespaces returns all the namespaces of the catalog.
	ListNamespaces(ctx *Context) ([][]string, error)
}

// NamespaceCatalog is a catalog where namespaces can be managed explicitly.
type NamespaceCatalog interface {
	TableCatalog
	// CreateNamespace creates a namespace or fails with
	// ErrNamespaceAlreadyExists.
	CreateNamespace(ctx *Context, namespace []string, properties map[string]string) error
	// DropNamespace drops an empty namespace and returns whether it existed.
	DropNamespace(ctx *Context, namespace []string) (bool, error)
}

// StagingTableCatalog is a catalog able to create and replace tables
// atomically together with the data written into them.
type StagingTableCatalog interface {
	TableCatalog
	// StageCreate prepares the creation of a table. The table is not
	// visible until the staged changes are committed. It fails with
	// ErrTableAlreadyExists if the table already exists.
	StageCreate(ctx *Context, id Identifier, schema Schema, partitioning []Transform, properties map[string]string) (StagedTable, error)
	// StageReplace prepares the replacement of an existing table. It fails
	// with ErrNoSuchTable if the table does not exist.
	StageReplace(ctx *Context, id Identifier, schema Schema, partitioning []Transform, properties map[string]string) (StagedTable, error)
	// StageCreateOrReplace prepares the creation of a table, replacing it if
	// it already exists.
	StageCreateOrReplace(ctx *Context, id Identifier, schema Schema, partitioning []Transform, properties map[string]string) (StagedTable, error)
}

// TablesEqual returns whether both tables have the same name, schema and
// partitioning.
func TablesEqual(a, b Table) bool {
	if a.Name() != b.Name() || !a.Schema().Equals(b.Schema()) {
		return false
	}

	pa, pb := a.Partitioning(), b.Partitioning()
	if len(pa) != len(pb) {
		return false
	}
	for i := range pa {
		if pa[i].String() != pb[i].String() {
			return false
		}
	}
	return true
}

// CopyProperties returns a copy of the given properties map, never nil.
func CopyProperties(props map[string]string) map[string]string {
	res := make(map[string]string, len(props))
	for k, v := range props {
		res[k] = v
	}
	return res
}

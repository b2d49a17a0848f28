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
	"fmt"
	"strings"

	"gopkg.in/src-d/go-errors.v1"
)

// Analysis errors report semantic conflicts and user mistakes found while
// resolving a plan or talking to a catalog. Their messages are user facing
// and must not change.
var (
	// ErrNamespaceAlreadyExists is returned when creating a namespace that
	// already exists.
	ErrNamespaceAlreadyExists = errors.NewKind("Namespace '%s' already exists")

	// ErrDatabaseAlreadyExists is the single level namespace flavour of
	// ErrNamespaceAlreadyExists.
	ErrDatabaseAlreadyExists = errors.NewKind("Database '%s' already exists")

	// ErrTableAlreadyExistsInDatabase is returned when a table or view
	// already exists in a database of a legacy catalog.
	ErrTableAlreadyExistsInDatabase = errors.NewKind("Table or view '%s' already exists in database '%s'")

	// ErrTableAlreadyExists is returned when a table already exists for an
	// identifier.
	ErrTableAlreadyExists = errors.NewKind("Table %s already exists")

	// ErrTempTableAlreadyExists is returned when a temporary view already
	// exists.
	ErrTempTableAlreadyExists = errors.NewKind("Temporary view '%s' already exists")

	// ErrPartitionAlreadyExists is returned when adding a partition that is
	// already present.
	ErrPartitionAlreadyExists = errors.NewKind("Partition already exists in table '%s' database '%s':\n%s")

	// ErrPartitionsAlreadyExists is returned when adding several partitions
	// and some of them are already present.
	ErrPartitionsAlreadyExists = errors.NewKind("The following partitions already exists in table '%s' database '%s':\n%s")

	// ErrFunctionAlreadyExists is returned when registering a function twice.
	ErrFunctionAlreadyExists = errors.NewKind("Function '%s' already exists in database '%s'")

	// ErrNoSuchTable is returned when an identifier does not name any table.
	ErrNoSuchTable = errors.NewKind("Table %s not found")

	// ErrNoSuchTableInDatabase is the legacy catalog flavour of ErrNoSuchTable.
	ErrNoSuchTableInDatabase = errors.NewKind("Table or view '%s' not found in database '%s'")

	// ErrNoSuchNamespace is returned when a namespace does not exist.
	ErrNoSuchNamespace = errors.NewKind("Namespace '%s' not found")

	// ErrGroupingIDMismatch is returned when the arguments of grouping_id are
	// not the grouping columns of the enclosing CUBE or ROLLUP.
	ErrGroupingIDMismatch = errors.NewKind("Columns of grouping_id (%s) does not match grouping columns (%s): %s")

	// ErrGroupingColumnNotFound is returned when the argument of grouping is
	// not a grouping column.
	ErrGroupingColumnNotFound = errors.NewKind("Column of grouping (%s) can't be found in grouping columns %s")

	// ErrGroupingOutsideGroupingSets is returned when grouping or grouping_id
	// is used in a query without CUBE or ROLLUP.
	ErrGroupingOutsideGroupingSets = errors.NewKind("%s can only be used with GroupingSets/Cube/Rollup")

	// ErrTooManyGroupingExpressions is returned when the grouping id cannot
	// hold one bit per grouping expression.
	ErrTooManyGroupingExpressions = errors.NewKind("Grouping sets size cannot be greater than %d for a %s grouping_id, got %d")

	// ErrTooManyGroupingSets is returned when a CUBE would expand to more
	// grouping sets than allowed.
	ErrTooManyGroupingSets = errors.NewKind("%s expands to %d grouping sets, the maximum is %d")

	// ErrAbortFailed is returned when aborting a staged table fails. Its cause
	// is the failure that triggered the abort, if any.
	ErrAbortFailed = errors.NewKind("abort of staged table %s failed: %s")
)

var analysisErrors = []*errors.Kind{
	ErrNamespaceAlreadyExists,
	ErrDatabaseAlreadyExists,
	ErrTableAlreadyExistsInDatabase,
	ErrTableAlreadyExists,
	ErrTempTableAlreadyExists,
	ErrPartitionAlreadyExists,
	ErrPartitionsAlreadyExists,
	ErrFunctionAlreadyExists,
	ErrNoSuchTable,
	ErrNoSuchTableInDatabase,
	ErrNoSuchNamespace,
	ErrGroupingIDMismatch,
	ErrGroupingColumnNotFound,
	ErrGroupingOutsideGroupingSets,
	ErrTooManyGroupingExpressions,
	ErrTooManyGroupingSets,
}

// IsAnalysisError returns whether the error is one of the analysis errors.
func IsAnalysisError(err error) bool {
	for _, k := range analysisErrors {
		if k.Is(err) {
			return true
		}
	}
	return false
}

// IsTableAlreadyExists returns whether the error reports an existing table,
// in any of its forms.
func IsTableAlreadyExists(err error) bool {
	return ErrTableAlreadyExists.Is(err) || ErrTableAlreadyExistsInDatabase.Is(err)
}

// IsNoSuchTable returns whether the error reports a missing table, in any of
// its forms.
func IsNoSuchTable(err error) bool {
	return ErrNoSuchTable.Is(err) || ErrNoSuchTableInDatabase.Is(err)
}

// IsNamespaceAlreadyExists returns whether the error reports an existing
// namespace or database.
func IsNamespaceAlreadyExists(err error) bool {
	return ErrNamespaceAlreadyExists.Is(err) || ErrDatabaseAlreadyExists.Is(err)
}

// NewNamespaceAlreadyExists returns the error for an existing namespace.
func NewNamespaceAlreadyExists(namespace []string) *errors.Error {
	return ErrNamespaceAlreadyExists.New(QuoteNamespace(namespace))
}

// NewDatabaseAlreadyExists returns the error for an existing database.
func NewDatabaseAlreadyExists(db string) *errors.Error {
	return ErrDatabaseAlreadyExists.New(db)
}

// NewTableAlreadyExists returns the error for an existing table.
func NewTableAlreadyExists(id Identifier) *errors.Error {
	return ErrTableAlreadyExists.New(id.Quoted())
}

// WrapTableAlreadyExists is NewTableAlreadyExists keeping the failure that
// revealed the conflict.
func WrapTableAlreadyExists(cause error, id Identifier) *errors.Error {
	return ErrTableAlreadyExists.Wrap(cause, id.Quoted())
}

// NewTableAlreadyExistsInDatabase returns the error for an existing table in
// a database.
func NewTableAlreadyExistsInDatabase(db, table string) *errors.Error {
	return ErrTableAlreadyExistsInDatabase.New(table, db)
}

// NewTempTableAlreadyExists returns the error for an existing temporary view.
func NewTempTableAlreadyExists(table string) *errors.Error {
	return ErrTempTableAlreadyExists.New(table)
}

// NewPartitionAlreadyExists returns the error for a single existing partition.
func NewPartitionAlreadyExists(db, table string, spec PartitionSpec) *errors.Error {
	return ErrPartitionAlreadyExists.New(table, db, spec.Lines())
}

// NewPartitionsAlreadyExists returns the error for several existing
// partitions.
func NewPartitionsAlreadyExists(db, table string, specs ...PartitionSpec) *errors.Error {
	return ErrPartitionsAlreadyExists.New(table, db, FormatPartitionSpecs(specs...))
}

// NewFunctionAlreadyExists returns the error for an existing function.
func NewFunctionAlreadyExists(db, fn string) *errors.Error {
	return ErrFunctionAlreadyExists.New(fn, db)
}

// NewNoSuchTable returns the error for a missing table.
func NewNoSuchTable(id Identifier) *errors.Error {
	return ErrNoSuchTable.New(id.Quoted())
}

// WrapNoSuchTable is NewNoSuchTable keeping the failure that revealed the
// missing table.
func WrapNoSuchTable(cause error, id Identifier) *errors.Error {
	return ErrNoSuchTable.Wrap(cause, id.Quoted())
}

// NewNoSuchTableInDatabase returns the error for a missing table in a
// database.
func NewNoSuchTableInDatabase(db, table string) *errors.Error {
	return ErrNoSuchTableInDatabase.New(table, db)
}

// NewNoSuchNamespace returns the error for a missing namespace.
func NewNoSuchNamespace(namespace []string) *errors.Error {
	return ErrNoSuchNamespace.New(QuoteNamespace(namespace))
}

// PartitionValue is a single key of a partition spec.
type PartitionValue struct {
	Key   string
	Value string
}

func (v PartitionValue) String() string {
	return fmt.Sprintf("%s -> %s", v.Key, v.Value)
}

// PartitionSpec is an ordered list of partition key values.
type PartitionSpec []PartitionValue

// NewPartitionSpec builds a spec from alternating keys and values.
func NewPartitionSpec(kv ...string) PartitionSpec {
	spec := make(PartitionSpec, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		spec = append(spec, PartitionValue{Key: kv[i], Value: kv[i+1]})
	}
	return spec
}

// Lines renders one "key -> value" pair per line.
func (s PartitionSpec) Lines() string {
	return s.join("\n")
}

// String renders the spec as comma separated "key -> value" pairs.
func (s PartitionSpec) String() string {
	return s.join(", ")
}

func (s PartitionSpec) join(sep string) string {
	parts := make([]string, len(s))
	for i, v := range s {
		parts[i] = v.String()
	}
	return strings.Join(parts, sep)
}

// FormatPartitionSpecs renders several partition specs separated by a line
// with three equal signs.
func FormatPartitionSpecs(specs ...PartitionSpec) string {
	parts := make([]string, len(specs))
	for i, s := range specs {
		parts[i] = s.String()
	}
	return strings.Join(parts, "\n===\n")
}

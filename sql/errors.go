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

import "gopkg.in/src-d/go-errors.v1"

var (
	// ErrInvalidType is thrown when there is an unexpected type at some part of
	// the execution tree.
	ErrInvalidType = errors.NewKind("invalid type: %s")

	// ErrUnexpectedRowLength is thrown when the obtained row has more columns than the schema
	ErrUnexpectedRowLength = errors.NewKind("expected %d values, got %d")

	// ErrInvalidChildrenNumber is returned when the WithChildren method of a
	// node or expression is called with an invalid number of arguments.
	ErrInvalidChildrenNumber = errors.NewKind("%T: invalid children number, got %d, expected %d")

	// ErrInvalidChildType is returned when the WithChildren method of a
	// node or expression is called with an invalid child type. This error is indicative of a bug.
	ErrInvalidChildType = errors.NewKind("%T: invalid child type, got %T, expected %T")

	// ErrPlaceholderEval is returned when something tries to evaluate a
	// CUBE or ROLLUP placeholder, which only the analyzer may consume.
	ErrPlaceholderEval = errors.NewKind("%s is a grouping placeholder and cannot be evaluated")

	// ErrTableNotScannable is returned when a plan reads from a table that
	// cannot produce rows.
	ErrTableNotScannable = errors.NewKind("table %s does not support reading rows")

	// ErrUnsupportedTransform is returned when a catalog cannot store the
	// given partition transform.
	ErrUnsupportedTransform = errors.NewKind("unsupported partition transform: %s")

	// ErrInvalidBucketCount is returned when a bucket transform has a number of
	// buckets lower than one.
	ErrInvalidBucketCount = errors.NewKind("invalid number of buckets %d for bucket(%s)")

	// ErrCatalogStorage wraps any failure coming from the storage layer
	// behind a catalog.
	ErrCatalogStorage = errors.NewKind("catalog storage failure for %s")

	// ErrStagedTableFinalized is the panic value used when a staged table is
	// committed or aborted after reaching a terminal state.
	ErrStagedTableFinalized = errors.NewKind("staged table %s is %s, cannot %s")

	// ErrWriterClosed is returned when a staged writer is used after being
	// committed or aborted.
	ErrWriterClosed = errors.NewKind("writer %d of staged table %s is already closed")

	// ErrNamespaceNotEmpty is returned when dropping a namespace that still
	// holds tables.
	ErrNamespaceNotEmpty = errors.NewKind("namespace %s is not empty")

	// ErrUnsupportedNamespace is returned when a catalog cannot hold the
	// given namespace.
	ErrUnsupportedNamespace = errors.NewKind("unsupported namespace %s")

	// ErrStagedWriteFailed wraps a failure that is not an error kind, raised
	// while creating a table from a query.
	ErrStagedWriteFailed = errors.NewKind("creating table %s failed")
)

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
)

// Transform describes how the rows of a table are partitioned. The only
// variants are IdentityTransform and BucketTransform.
type Transform interface {
	fmt.Stringer
	// Name of the transform function.
	Name() string
	// References returns the columns the transform reads.
	References() []string
	transform()
}

// IdentityTransform partitions rows by the raw value of a column.
type IdentityTransform struct {
	Column string
}

var _ Transform = IdentityTransform{}

// Identity returns an identity transform over the given column.
func Identity(column string) IdentityTransform {
	return IdentityTransform{Column: column}
}

// Name implements the Transform interface.
func (IdentityTransform) Name() string { return "identity" }

// References implements the Transform interface.
func (t IdentityTransform) References() []string { return []string{t.Column} }

func (t IdentityTransform) String() string {
	return fmt.Sprintf("identity(%s)", QuoteIfNeeded(t.Column))
}

func (IdentityTransform) transform() {}

// BucketTransform hashes rows into a fixed number of buckets using the
// values of some columns.
type BucketTransform struct {
	NumBuckets int
	Columns    []string
}

var _ Transform = BucketTransform{}

// Bucket returns a bucket transform.
func Bucket(numBuckets int, columns ...string) BucketTransform {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return BucketTransform{NumBuckets: numBuckets, Columns: cols}
}

// Name implements the Transform interface.
func (BucketTransform) Name() string { return "bucket" }

// References implements the Transform interface.
func (t BucketTransform) References() []string {
	cols := make([]string, len(t.Columns))
	copy(cols, t.Columns)
	return cols
}

func (t BucketTransform) String() string {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = QuoteIfNeeded(c)
	}
	return fmt.Sprintf("bucket(%d, %s)", t.NumBuckets, strings.Join(cols, ", "))
}

func (BucketTransform) transform() {}

// ValidatePartitioning checks that every transform references columns of
// the schema and that bucket counts are positive.
func ValidatePartitioning(schema Schema, partitioning []Transform) error {
	for _, t := range partitioning {
		if b, ok := t.(BucketTransform); ok && b.NumBuckets < 1 {
			return ErrInvalidBucketCount.New(b.NumBuckets, strings.Join(b.Columns, ", "))
		}

		for _, ref := range t.References() {
			if !schema.Contains(ref, "") {
				return ErrUnsupportedTransform.New(fmt.Sprintf("%s references unknown column %s", t, ref))
			}
		}
	}
	return nil
}

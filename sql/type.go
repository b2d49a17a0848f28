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

	"github.com/spf13/cast"
	errors "gopkg.in/src-d/go-errors.v1"
	"gopkg.in/src-d/go-vitess.v0/sqltypes"
	"gopkg.in/src-d/go-vitess.v0/vt/proto/query"
)

var (
	// ErrTypeNotSupported is returned when a type is not supported.
	ErrTypeNotSupported = errors.NewKind("Type not supported: %s")

	// ErrConvertingToType is returned when a value cannot be converted to a type.
	ErrConvertingToType = errors.NewKind("value %v is not a valid %s")
)

// Type represents a SQL type.
type Type interface {
	fmt.Stringer
	// Type returns the query.Type for the given Type.
	Type() query.Type
	// Convert a value of a compatible type to the most accurate type.
	Convert(interface{}) (interface{}, error)
	// Compare returns an integer comparing two values.
	// The result will be 0 if a==b, -1 if a < b, and +1 if a > b.
	// Nulls sort before any other value.
	Compare(interface{}, interface{}) (int, error)
	// Zero returns the golang zero value for this type.
	Zero() interface{}
}

var (
	// Null represents the null type.
	Null Type = nullT{}
	// Int8 is an integer of 8 bits. Boolean values use it.
	Int8 = numberT{t: sqltypes.Int8}
	// Int32 is an integer of 32 bits.
	Int32 = numberT{t: sqltypes.Int32}
	// Int64 is an integer of 64 bits.
	Int64 = numberT{t: sqltypes.Int64}
	// Float64 is a floating point number of 64 bits.
	Float64 = numberT{t: sqltypes.Float64}
	// Text is a string type.
	Text Type = textT{}
	// Boolean is a synonym for Int8.
	Boolean Type = Int8
)

// TypeFromName returns the type with the given name, as printed by its
// String method.
func TypeFromName(name string) (Type, error) {
	switch strings.ToUpper(name) {
	case "NULL":
		return Null, nil
	case "TINYINT", "BOOLEAN":
		return Int8, nil
	case "INT":
		return Int32, nil
	case "BIGINT":
		return Int64, nil
	case "DOUBLE":
		return Float64, nil
	case "TEXT":
		return Text, nil
	default:
		return nil, ErrTypeNotSupported.New(name)
	}
}

// IsNumber checks if t is a number type.
func IsNumber(t Type) bool {
	_, ok := t.(numberT)
	return ok
}

// IsText checks if t is a text type.
func IsText(t Type) bool {
	return t == Text
}

type nullT struct{}

func (t nullT) String() string { return "NULL" }

// Type implements Type interface.
func (t nullT) Type() query.Type {
	return sqltypes.Null
}

// Convert implements Type interface.
func (t nullT) Convert(v interface{}) (interface{}, error) {
	if v != nil {
		return nil, ErrConvertingToType.New(v, t)
	}

	return nil, nil
}

// Compare implements Type interface. Note that while this returns 0 (equals)
// for ordering purposes, in SQL NULL != NULL.
func (t nullT) Compare(a interface{}, b interface{}) (int, error) {
	return 0, nil
}

// Zero implements Type interface.
func (t nullT) Zero() interface{} {
	return nil
}

type numberT struct {
	t query.Type
}

func (t numberT) String() string {
	switch t.t {
	case sqltypes.Int8:
		return "TINYINT"
	case sqltypes.Int32:
		return "INT"
	case sqltypes.Int64:
		return "BIGINT"
	default:
		return "DOUBLE"
	}
}

// Type implements Type interface.
func (t numberT) Type() query.Type {
	return t.t
}

// Convert implements Type interface.
func (t numberT) Convert(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}

	var (
		res interface{}
		err error
	)
	switch t.t {
	case sqltypes.Int8:
		res, err = cast.ToInt8E(v)
	case sqltypes.Int32:
		res, err = cast.ToInt32E(v)
	case sqltypes.Int64:
		res, err = cast.ToInt64E(v)
	case sqltypes.Float64:
		res, err = cast.ToFloat64E(v)
	default:
		return nil, ErrTypeNotSupported.New(t.t.String())
	}

	if err != nil {
		return nil, ErrConvertingToType.Wrap(err, v, t)
	}

	return res, nil
}

// Compare implements Type interface.
func (t numberT) Compare(a interface{}, b interface{}) (int, error) {
	if cmp, ok := compareNulls(a, b); ok {
		return cmp, nil
	}

	if t.t == sqltypes.Float64 {
		ca, err := cast.ToFloat64E(a)
		if err != nil {
			return 0, ErrConvertingToType.Wrap(err, a, t)
		}
		cb, err := cast.ToFloat64E(b)
		if err != nil {
			return 0, ErrConvertingToType.Wrap(err, b, t)
		}
		return compareOrdered(ca < cb, ca > cb), nil
	}

	ca, err := cast.ToInt64E(a)
	if err != nil {
		return 0, ErrConvertingToType.Wrap(err, a, t)
	}
	cb, err := cast.ToInt64E(b)
	if err != nil {
		return 0, ErrConvertingToType.Wrap(err, b, t)
	}

	return compareOrdered(ca < cb, ca > cb), nil
}

// Zero implements Type interface.
func (t numberT) Zero() interface{} {
	switch t.t {
	case sqltypes.Int8:
		return int8(0)
	case sqltypes.Int32:
		return int32(0)
	case sqltypes.Int64:
		return int64(0)
	default:
		return float64(0)
	}
}

type textT struct{}

func (t textT) String() string { return "TEXT" }

// Type implements Type interface.
func (t textT) Type() query.Type {
	return sqltypes.Text
}

// Convert implements Type interface.
func (t textT) Convert(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}

	s, err := cast.ToStringE(v)
	if err != nil {
		return nil, ErrConvertingToType.Wrap(err, v, t)
	}

	return s, nil
}

// Compare implements Type interface.
func (t textT) Compare(a interface{}, b interface{}) (int, error) {
	if cmp, ok := compareNulls(a, b); ok {
		return cmp, nil
	}

	ca, err := cast.ToStringE(a)
	if err != nil {
		return 0, ErrConvertingToType.Wrap(err, a, t)
	}
	cb, err := cast.ToStringE(b)
	if err != nil {
		return 0, ErrConvertingToType.Wrap(err, b, t)
	}

	return strings.Compare(ca, cb), nil
}

// Zero implements Type interface.
func (t textT) Zero() interface{} {
	return ""
}

func compareNulls(a, b interface{}) (int, bool) {
	switch {
	case a == nil && b == nil:
		return 0, true
	case a == nil:
		return -1, true
	case b == nil:
		return 1, true
	default:
		return 0, false
	}
}

func compareOrdered(less, greater bool) int {
	switch {
	case less:
		return -1
	case greater:
		return 1
	default:
		return 0
	}
}

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

package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/src-d/go-errors.v1"

	"github.com/sandexp/lotus-sub002/sql"
)

// ErrInvalidArgument is returned when a command line argument can't be
// parsed.
var ErrInvalidArgument = errors.NewKind("invalid %s %q, expected %s")

// parseIdentifier splits a dotted name: every part but the last one is
// the namespace.
func parseIdentifier(s string) (sql.Identifier, error) {
	parts := strings.Split(s, ".")
	for _, p := range parts {
		if p == "" {
			return sql.Identifier{}, ErrInvalidArgument.New("table name", s, "dot separated parts")
		}
	}
	return sql.NewIdentifier(parts[:len(parts)-1], parts[len(parts)-1]), nil
}

func parseNamespace(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ".")
}

// parseSchema parses columns given as name:type or name:type:null.
func parseSchema(table string, columns []string) (sql.Schema, error) {
	schema := make(sql.Schema, 0, len(columns))
	for _, c := range columns {
		parts := strings.Split(c, ":")
		if len(parts) < 2 || len(parts) > 3 || parts[0] == "" {
			return nil, ErrInvalidArgument.New("column", c, "name:type[:null]")
		}

		typ, err := sql.TypeFromName(parts[1])
		if err != nil {
			return nil, err
		}

		nullable := false
		if len(parts) == 3 {
			if parts[2] != "null" {
				return nil, ErrInvalidArgument.New("column", c, "name:type[:null]")
			}
			nullable = true
		}

		schema = append(schema, &sql.Column{
			Name:     parts[0],
			Type:     typ,
			Nullable: nullable,
			Source:   table,
		})
	}
	return schema, nil
}

// parsePartitioning parses transforms given as identity:col or
// bucket:n:col1,col2.
func parsePartitioning(specs []string) ([]sql.Transform, error) {
	var transforms []sql.Transform
	for _, s := range specs {
		parts := strings.Split(s, ":")
		switch {
		case len(parts) == 2 && parts[0] == "identity":
			transforms = append(transforms, sql.Identity(parts[1]))
		case len(parts) == 3 && parts[0] == "bucket":
			n, err := strconv.Atoi(parts[1])
			if err != nil {
				return nil, ErrInvalidArgument.New("bucket count", parts[1], "an integer")
			}
			transforms = append(transforms, sql.Bucket(n, strings.Split(parts[2], ",")...))
		default:
			return nil, ErrInvalidArgument.New("partitioning", s, "identity:col or bucket:n:cols")
		}
	}
	return transforms, nil
}

// parseProperties parses key=value pairs.
func parseProperties(props []string) (map[string]string, error) {
	res := make(map[string]string, len(props))
	for _, p := range props {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 || kv[0] == "" {
			return nil, ErrInvalidArgument.New("property", p, "key=value")
		}
		res[kv[0]] = kv[1]
	}
	return res, nil
}

// parseRow parses comma separated values into a row of the schema. An
// empty value of a nullable column is NULL.
func parseRow(schema sql.Schema, s string) (sql.Row, error) {
	values := strings.Split(s, ",")
	if len(values) != len(schema) {
		return nil, sql.ErrUnexpectedRowLength.New(len(schema), len(values))
	}

	row := make(sql.Row, len(values))
	for i, v := range values {
		col := schema[i]
		if v == "" && col.Nullable {
			continue
		}

		val, err := col.Type.Convert(v)
		if err != nil {
			return nil, err
		}
		row[i] = val
	}
	return row, nil
}

func formatValue(v interface{}) string {
	if v == nil {
		return "NULL"
	}
	return cast.ToString(v)
}

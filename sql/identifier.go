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
	"strings"
)

// Identifier names a table inside a catalog: a namespace path plus a name.
// It is a value type, namespaces are copied on construction.
type Identifier struct {
	namespace []string
	name      string
}

// NewIdentifier creates a new identifier for the given name in the given
// namespace.
func NewIdentifier(namespace []string, name string) Identifier {
	ns := make([]string, len(namespace))
	copy(ns, namespace)
	return Identifier{namespace: ns, name: name}
}

// Namespace returns a copy of the namespace path of the identifier.
func (i Identifier) Namespace() []string {
	ns := make([]string, len(i.namespace))
	copy(ns, i.namespace)
	return ns
}

// Name returns the last part of the identifier.
func (i Identifier) Name() string {
	return i.name
}

// Quoted returns the external form of the identifier: every namespace part
// and the name, quoted if needed, joined with dots.
func (i Identifier) Quoted() string {
	parts := make([]string, 0, len(i.namespace)+1)
	for _, p := range i.namespace {
		parts = append(parts, QuoteIfNeeded(p))
	}
	parts = append(parts, QuoteIfNeeded(i.name))
	return strings.Join(parts, ".")
}

// Equals returns whether both identifiers name the same table.
func (i Identifier) Equals(other Identifier) bool {
	if i.name != other.name || len(i.namespace) != len(other.namespace) {
		return false
	}

	for idx := range i.namespace {
		if i.namespace[idx] != other.namespace[idx] {
			return false
		}
	}

	return true
}

// String implements the fmt.Stringer interface.
func (i Identifier) String() string {
	return i.Quoted()
}

// QuoteIfNeeded wraps the given part in backticks, doubling the backticks it
// contains, unless it only has letters, digits and underscores.
func QuoteIfNeeded(part string) string {
	if part != "" && isPlainIdentifier(part) {
		return part
	}

	return "`" + strings.Replace(part, "`", "``", -1) + "`"
}

// QuoteNamespace returns the dotted, quoted form of a namespace path.
func QuoteNamespace(namespace []string) string {
	parts := make([]string, len(namespace))
	for i, p := range namespace {
		parts[i] = QuoteIfNeeded(p)
	}
	return strings.Join(parts, ".")
}

func isPlainIdentifier(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return false
		}
	}
	return true
}

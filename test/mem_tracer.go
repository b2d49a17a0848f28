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

// Package test holds helpers shared by the tests of several packages.
package test

import (
	"sync"

	opentracing "github.com/opentracing/opentracing-go"
)

// MemTracer is a tracer that remembers the name of every span it starts.
type MemTracer struct {
	opentracing.NoopTracer

	mu    sync.Mutex
	spans []string
}

var _ opentracing.Tracer = (*MemTracer)(nil)

// StartSpan implements the opentracing.Tracer interface.
func (t *MemTracer) StartSpan(operationName string, opts ...opentracing.StartSpanOption) opentracing.Span {
	t.mu.Lock()
	t.spans = append(t.spans, operationName)
	t.mu.Unlock()
	return t.NoopTracer.StartSpan(operationName, opts...)
}

// Spans returns the names of the started spans, in order.
func (t *MemTracer) Spans() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.spans...)
}

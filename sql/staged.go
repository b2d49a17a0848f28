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
	"sync/atomic"
)

// StagedState is the state of a staged table.
type StagedState int32

const (
	// Staged tables accept writers and wait for a commit or an abort.
	Staged StagedState = iota
	// Committing tables are being published.
	Committing
	// CommitFailed tables failed to publish and can only be aborted.
	CommitFailed
	// Aborting tables are discarding their staged data.
	Aborting
	// Committed tables are visible in their catalog. Terminal.
	Committed
	// Aborted tables were discarded. Terminal.
	Aborted
)

func (s StagedState) String() string {
	switch s {
	case Staged:
		return "staged"
	case Committing:
		return "committing"
	case CommitFailed:
		return "commit failed"
	case Aborting:
		return "aborting"
	case Committed:
		return "committed"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// IsTerminal returns whether no transition can leave the state.
func (s StagedState) IsTerminal() bool {
	return s == Committed || s == Aborted
}

// StagedTable is a table being created or replaced atomically together with
// its data. It is owned by a single coordinator, which must call exactly one
// of CommitStagedChanges or AbortStagedChanges. The only exception is a
// failed commit, which must be followed by an abort.
type StagedTable interface {
	Table
	// NewWriter returns a writer for a task producing part of the data of
	// the table. Writers may run concurrently.
	NewWriter(ctx *Context, taskID int) (StagedWriter, error)
	// CommitStagedChanges publishes the table and all the data of the
	// committed writers at once. On failure the catalog is left untouched.
	CommitStagedChanges(ctx *Context) error
	// AbortStagedChanges discards the staged table and the data of all its
	// writers.
	AbortStagedChanges(ctx *Context) error
	// State returns the state of the staged table.
	State() StagedState
}

// StagedWriter writes part of the data of a staged table. Its output is not
// visible to anyone until the staged table is committed.
type StagedWriter interface {
	// Write adds a row to the output of this writer.
	Write(ctx *Context, row Row) error
	// Commit hands the output of this writer to the staged table.
	Commit(ctx *Context) error
	// Abort discards the output of this writer.
	Abort(ctx *Context) error
}

// StageTracker keeps the state of a staged table and enforces its
// protocol. Protocol violations are programming errors and panic.
type StageTracker struct {
	name  string
	state int32
}

// NewStageTracker returns a tracker in the Staged state.
func NewStageTracker(name string) *StageTracker {
	return &StageTracker{name: name, state: int32(Staged)}
}

// State returns the current state.
func (t *StageTracker) State() StagedState {
	return StagedState(atomic.LoadInt32(&t.state))
}

// BeginCommit moves the tracker from Staged to Committing.
func (t *StageTracker) BeginCommit() {
	t.transition("commit", Committing, Staged)
}

// EndCommit finishes a commit started with BeginCommit.
func (t *StageTracker) EndCommit(err error) {
	if err != nil {
		t.transition("fail commit", CommitFailed, Committing)
		return
	}
	t.transition("finish commit", Committed, Committing)
}

// BeginAbort moves the tracker from Staged or CommitFailed to Aborting.
func (t *StageTracker) BeginAbort() {
	t.transition("abort", Aborting, Staged, CommitFailed)
}

// EndAbort finishes an abort started with BeginAbort. The tracker ends up
// Aborted even if the abort failed: nothing else may be attempted.
func (t *StageTracker) EndAbort() {
	t.transition("finish abort", Aborted, Aborting)
}

// CheckWritable returns nil if writers may still be created or used.
func (t *StageTracker) CheckWritable(taskID int) error {
	if t.State() != Staged {
		return ErrWriterClosed.New(taskID, t.name)
	}
	return nil
}

func (t *StageTracker) transition(op string, to StagedState, from ...StagedState) {
	for _, f := range from {
		if atomic.CompareAndSwapInt32(&t.state, int32(f), int32(to)) {
			return
		}
	}
	panic(ErrStagedTableFinalized.New(t.name, t.State(), op))
}

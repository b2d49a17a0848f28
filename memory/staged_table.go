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

package memory

import (
	"sort"
	"sync"

	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"

	"github.com/sandexp/lotus-sub002/sql"
)

type stageMode int

const (
	stageCreate stageMode = iota
	stageReplace
	stageCreateOrReplace
)

// StagedTable is a table staged in a Catalog. The rows handed over by its
// writers are kept apart until the table is committed.
type StagedTable struct {
	*Table
	catalog *Catalog
	mode    stageMode
	id      sql.Identifier
	stageID string
	tracker *sql.StageTracker
	log     *logrus.Entry

	mu      sync.Mutex
	pending map[int][]sql.Row
}

var _ sql.StagedTable = (*StagedTable)(nil)

func newStagedTable(ctx *sql.Context, c *Catalog, mode stageMode, id sql.Identifier, table *Table) *StagedTable {
	stageID := uuid.Must(uuid.NewV4()).String()
	return &StagedTable{
		Table:   table,
		catalog: c,
		mode:    mode,
		id:      id,
		stageID: stageID,
		tracker: sql.NewStageTracker(id.Quoted()),
		log: ctx.GetLogger().WithFields(logrus.Fields{
			"table": id.Quoted(),
			"stage": stageID,
		}),
		pending: map[int][]sql.Row{},
	}
}

// StageID returns the unique id of this staging.
func (s *StagedTable) StageID() string { return s.stageID }

// State implements the sql.StagedTable interface.
func (s *StagedTable) State() sql.StagedState { return s.tracker.State() }

// NewWriter implements the sql.StagedTable interface.
func (s *StagedTable) NewWriter(ctx *sql.Context, taskID int) (sql.StagedWriter, error) {
	if err := s.tracker.CheckWritable(taskID); err != nil {
		return nil, err
	}
	return &stagedWriter{staged: s, taskID: taskID}, nil
}

// CommitStagedChanges implements the sql.StagedTable interface.
func (s *StagedTable) CommitStagedChanges(ctx *sql.Context) error {
	rows := s.beginCommit()
	err := s.commit(ctx, rows)
	s.tracker.EndCommit(err)
	if err != nil {
		s.log.WithError(err).Debug("staged table commit failed")
		return err
	}

	s.log.Debug("staged table committed")
	return nil
}

// beginCommit moves the table to Committing and returns the rows handed over
// by the writers ordered by task. Writers check the state under the same
// lock, so none can hand over rows after the snapshot.
func (s *StagedTable) beginCommit() []sql.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracker.BeginCommit()

	tasks := make([]int, 0, len(s.pending))
	for task := range s.pending {
		tasks = append(tasks, task)
	}
	sort.Ints(tasks)

	var rows []sql.Row
	for _, task := range tasks {
		rows = append(rows, s.pending[task]...)
	}
	return rows
}

func (s *StagedTable) commit(ctx *sql.Context, rows []sql.Row) error {
	table := NewPartitionedTable(s.Table.Name(), s.Table.Schema(), s.Table.Partitioning(), s.Table.Properties())
	if err := table.Insert(ctx, rows...); err != nil {
		return err
	}

	return s.catalog.publish(s.mode, s.id, table)
}

// AbortStagedChanges implements the sql.StagedTable interface.
func (s *StagedTable) AbortStagedChanges(ctx *sql.Context) error {
	s.beginAbort()
	defer s.tracker.EndAbort()

	s.log.Debug("staged table aborted")
	return nil
}

func (s *StagedTable) beginAbort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracker.BeginAbort()
	s.pending = nil
}

type stagedWriter struct {
	staged *StagedTable
	taskID int
	rows   []sql.Row
	closed bool
}

func (w *stagedWriter) Write(ctx *sql.Context, row sql.Row) error {
	if w.closed {
		return sql.ErrWriterClosed.New(w.taskID, w.staged.id.Quoted())
	}
	row, err := w.staged.Schema().ConvertRow(row)
	if err != nil {
		return err
	}
	w.rows = append(w.rows, row)
	return nil
}

func (w *stagedWriter) Commit(ctx *sql.Context) error {
	if w.closed {
		return sql.ErrWriterClosed.New(w.taskID, w.staged.id.Quoted())
	}
	w.closed = true

	w.staged.mu.Lock()
	defer w.staged.mu.Unlock()
	if err := w.staged.tracker.CheckWritable(w.taskID); err != nil {
		return err
	}
	if w.staged.pending == nil {
		return sql.ErrWriterClosed.New(w.taskID, w.staged.id.Quoted())
	}
	w.staged.pending[w.taskID] = append(w.staged.pending[w.taskID], w.rows...)
	w.rows = nil
	return nil
}

func (w *stagedWriter) Abort(ctx *sql.Context) error {
	w.closed = true
	w.rows = nil
	return nil
}

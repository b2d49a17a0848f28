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

package boltcatalog

import (
	"github.com/boltdb/bolt"
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

// StagedTable is a table staged in a bolt catalog. Committed writers store
// their rows in the staging bucket of the table, which is moved to the
// table data on commit.
type StagedTable struct {
	*Table
	mode    stageMode
	stageID string
	tracker *sql.StageTracker
	log     *logrus.Entry
}

var _ sql.StagedTable = (*StagedTable)(nil)

func newStagedTable(ctx *sql.Context, c *Catalog, mode stageMode, m *tableMeta) (*StagedTable, error) {
	t, err := newTable(c, m)
	if err != nil {
		return nil, err
	}

	id := m.identifier()
	stageID := uuid.Must(uuid.NewV4()).String()
	return &StagedTable{
		Table:   t,
		mode:    mode,
		stageID: stageID,
		tracker: sql.NewStageTracker(id.Quoted()),
		log: ctx.GetLogger().WithFields(logrus.Fields{
			"table": id.Quoted(),
			"stage": stageID,
		}),
	}, nil
}

// StageID returns the name of the staging bucket.
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
	s.tracker.BeginCommit()

	err := s.catalog.update(s.id.Quoted(), func(tx *bolt.Tx) error {
		return s.catalog.publish(tx, s.mode, s.meta, s.stageID)
	})
	s.tracker.EndCommit(err)
	if err != nil {
		s.log.WithError(err).Debug("staged table commit failed")
		return err
	}

	s.log.Debug("staged table committed")
	return nil
}

// AbortStagedChanges implements the sql.StagedTable interface.
func (s *StagedTable) AbortStagedChanges(ctx *sql.Context) error {
	s.tracker.BeginAbort()
	defer s.tracker.EndAbort()

	err := s.catalog.PurgeStages(s.stageID)
	if err != nil {
		s.log.WithError(err).Warn("unable to delete staged rows")
		return err
	}

	s.log.Debug("staged table aborted")
	return nil
}

type stagedWriter struct {
	staged *StagedTable
	taskID int
	rows   [][]byte
	closed bool
}

func (w *stagedWriter) Write(ctx *sql.Context, row sql.Row) error {
	if w.closed {
		return sql.ErrWriterClosed.New(w.taskID, w.staged.id.Quoted())
	}
	row, err := w.staged.schema.ConvertRow(row)
	if err != nil {
		return err
	}

	data, err := encodeRow(row)
	if err != nil {
		return sql.ErrCatalogStorage.Wrap(err, w.staged.id.Quoted())
	}
	w.rows = append(w.rows, data)
	return nil
}

// Commit stores the rows of the writer in the staging bucket. It fails if
// the staged table was aborted or committed in the meantime.
func (w *stagedWriter) Commit(ctx *sql.Context) error {
	if w.closed {
		return sql.ErrWriterClosed.New(w.taskID, w.staged.id.Quoted())
	}
	w.closed = true

	if err := w.staged.tracker.CheckWritable(w.taskID); err != nil {
		return err
	}

	rows := w.rows
	w.rows = nil
	return w.staged.catalog.update(w.staged.id.Quoted(), func(tx *bolt.Tx) error {
		b := tx.Bucket(stagingBucket).Bucket([]byte(w.staged.stageID))
		if b == nil {
			return sql.ErrWriterClosed.New(w.taskID, w.staged.id.Quoted())
		}

		for _, data := range rows {
			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			if err := b.Put(stagedRowKey(w.taskID, seq), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (w *stagedWriter) Abort(ctx *sql.Context) error {
	w.closed = true
	w.rows = nil
	return nil
}

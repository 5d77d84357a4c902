// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"context"
	"database/sql"
	"math"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/vechain/nftstake/ledger"
	"github.com/vechain/nftstake/xenv"
)

const (
	insertEventQuery = "INSERT OR REPLACE INTO event(seq, blockTime, program, name, subject, object, amount) VALUES(?,?,?,?,?,?,?)"
	eventSelectQuery = "SELECT seq, blockTime, program, name, subject, object, amount FROM event"
)

type LogDB struct {
	path          string
	db            *sql.DB
	driverVersion string
	stmtCache     *stmtCache
}

// New create or open log db at given path.
func New(path string) (logDB *LogDB, err error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	defer func() {
		if logDB == nil {
			db.Close()
		}
	}()

	// a single connection keeps ":memory:" databases shared across calls
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, errors.Wrap(err, "create schema")
	}

	driverVer, _, _ := sqlite3.Version()
	return &LogDB{
		path:          path,
		db:            db,
		driverVersion: driverVer,
		stmtCache:     newStmtCache(db),
	}, nil
}

// NewMem create a log db in ram.
func NewMem() (*LogDB, error) {
	return New(":memory:")
}

// Close close the log db.
func (db *LogDB) Close() error {
	db.stmtCache.Clear()
	return db.db.Close()
}

func (db *LogDB) Path() string {
	return db.path
}

func (db *LogDB) DriverVersion() string {
	return db.driverVersion
}

// FilterEvents returns events matching the filter. A nil filter returns all
// events in ascending order.
func (db *LogDB) FilterEvents(ctx context.Context, filter *EventFilter) ([]*Event, error) {
	if filter == nil {
		return db.queryEvents(ctx, eventSelectQuery+" ORDER BY seq ASC")
	}
	metricsHandleEventsFilter(filter)

	var args []any
	stmt := eventSelectQuery + " WHERE 1"

	if filter.Range != nil {
		if filter.Range.Unit == Time {
			args = append(args, clampInt64(filter.Range.From))
			stmt += " AND blockTime >= ?"
			if filter.Range.To >= filter.Range.From {
				args = append(args, clampInt64(filter.Range.To))
				stmt += " AND blockTime <= ?"
			}
		} else {
			if filter.Range.From > math.MaxUint32 {
				return nil, nil
			}
			args = append(args, firstSequence(uint32(filter.Range.From)))
			stmt += " AND seq >= ?"
			if filter.Range.To >= filter.Range.From {
				to := min(filter.Range.To, math.MaxUint32)
				args = append(args, lastSequence(uint32(to)))
				stmt += " AND seq <= ?"
			}
		}
	}

	for i, criteria := range filter.CriteriaSet {
		if i == 0 {
			stmt += " AND (( 1"
		} else {
			stmt += " OR ( 1"
		}
		if criteria.Program != nil {
			args = append(args, criteria.Program.Bytes())
			stmt += " AND program = ?"
		}
		if criteria.Name != "" {
			args = append(args, criteria.Name)
			stmt += " AND name = ?"
		}
		if criteria.Subject != nil {
			args = append(args, criteria.Subject.Bytes())
			stmt += " AND subject = ?"
		}
		if criteria.Object != nil {
			args = append(args, criteria.Object.Bytes())
			stmt += " AND object = ?"
		}
		stmt += " )"
		if i == len(filter.CriteriaSet)-1 {
			stmt += " )"
		}
	}

	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC"
	} else {
		stmt += " ORDER BY seq ASC"
	}

	if filter.Options != nil {
		stmt += " LIMIT ?, ?"
		args = append(args, clampInt64(filter.Options.Offset), clampInt64(filter.Options.Limit))
	}
	return db.queryEvents(ctx, stmt, args...)
}

// NewestBlockNumber returns the block number of the newest stored event.
func (db *LogDB) NewestBlockNumber() (uint32, error) {
	var seq sql.NullInt64
	if err := db.db.QueryRow("SELECT MAX(seq) FROM event").Scan(&seq); err != nil {
		return 0, err
	}
	if !seq.Valid {
		return 0, nil
	}
	return sequence(seq.Int64).BlockNumber(), nil
}

// Truncate removes events of blocks numbered from `from` on.
func (db *LogDB) Truncate(from uint32) error {
	_, err := db.db.Exec("DELETE FROM event WHERE seq >= ?", firstSequence(from))
	return err
}

// Prepare returns a batch collecting the events of one block.
func (db *LogDB) Prepare(blockCtx *xenv.BlockContext) *BlockBatch {
	return &BlockBatch{
		db:       db,
		blockCtx: blockCtx,
	}
}

func (db *LogDB) queryEvents(ctx context.Context, query string, args ...any) ([]*Event, error) {
	stmt, err := db.stmtCache.Prepare(query)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			seq       sequence
			blockTime int64
			program   []byte
			name      string
			subject   []byte
			object    []byte
			amount    int64
		)
		if err := rows.Scan(
			&seq,
			&blockTime,
			&program,
			&name,
			&subject,
			&object,
			&amount,
		); err != nil {
			return nil, err
		}
		events = append(events, &Event{
			BlockNumber: seq.BlockNumber(),
			Index:       seq.Index(),
			BlockTime:   uint64(blockTime),
			Program:     ledger.BytesToAddress(program),
			Name:        name,
			Subject:     ledger.BytesToAddress(subject),
			Object:      ledger.BytesToAddress(object),
			// stored as the two's complement int64 bit pattern
			Amount: uint64(amount),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func clampInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}

// BlockBatch collects events of one block and writes them in one db transaction.
type BlockBatch struct {
	db       *LogDB
	blockCtx *xenv.BlockContext
	events   []*Event
}

// Insert appends events in emission order.
func (bb *BlockBatch) Insert(events []*xenv.Event) *BlockBatch {
	for _, ev := range events {
		bb.events = append(bb.events, newEvent(bb.blockCtx, uint32(len(bb.events)), ev))
	}
	return bb
}

// Len returns the number of collected events.
func (bb *BlockBatch) Len() int {
	return len(bb.events)
}

func (bb *BlockBatch) execInTx(proc func(*sql.Tx) error) (err error) {
	tx, err := bb.db.db.Begin()
	if err != nil {
		return err
	}
	if err := proc(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Commit writes the collected events.
func (bb *BlockBatch) Commit() error {
	if len(bb.events) == 0 {
		return nil
	}
	insert, err := bb.db.stmtCache.Prepare(insertEventQuery)
	if err != nil {
		return err
	}
	return bb.execInTx(func(tx *sql.Tx) error {
		stmt := tx.Stmt(insert)
		for _, ev := range bb.events {
			if _, err := stmt.Exec(
				newSequence(ev.BlockNumber, ev.Index),
				clampInt64(ev.BlockTime),
				ev.Program.Bytes(),
				ev.Name,
				ev.Subject.Bytes(),
				ev.Object.Bytes(),
				int64(ev.Amount),
			); err != nil {
				return errors.Wrapf(err, "insert event %v/%v", ev.BlockNumber, ev.Index)
			}
		}
		return nil
	})
}

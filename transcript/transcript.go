// Package transcript records rule-dispatch outcomes in a SQLite
// database, one row per module per dispatch. It implements
// vm.DispatchTracer so the core stays storage-free; hosts wire a
// Store into a Runtime when they want a durable transcript.
package transcript

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tliron/commonlog"

	_ "modernc.org/sqlite"

	"github.com/parlorlang/parlor/vm"
	"github.com/parlorlang/parlor/vm/wire"
)

var log = commonlog.GetLogger("parlor.transcript")

// Store is a SQLite-backed dispatch transcript.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Entry is one recorded dispatch.
type Entry struct {
	ID        int64
	RuntimeID string
	Module    string
	Input     []string
	Matched   int
	Result    string // rendered result
	ResultRaw []byte // canonical CBOR of the result, nil when not portable
	Steps     uint64
	CreatedAt time.Time
}

// Open opens (creating if needed) a transcript store at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS dispatches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		runtime_id TEXT NOT NULL,
		module TEXT NOT NULL,
		input TEXT NOT NULL,
		matched INTEGER NOT NULL,
		result TEXT NOT NULL,
		result_raw BLOB,
		steps INTEGER NOT NULL,
		created_at TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordDispatch implements vm.DispatchTracer. Recording is best
// effort: a storage failure is logged, never surfaced into the
// dispatch itself.
func (s *Store) RecordDispatch(rec vm.DispatchRecord) {
	if err := s.record(rec); err != nil {
		log.Errorf("recording dispatch for %s: %s", rec.Module, err.Error())
	}
}

func (s *Store) record(rec vm.DispatchRecord) error {
	input, err := json.Marshal(rec.Input)
	if err != nil {
		return err
	}

	// Funcs have no wire form; the rendered column still captures them.
	raw, err := wire.MarshalValue(rec.Result)
	if err != nil && !errors.Is(err, wire.ErrFuncNotPortable) {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.Exec(
		`INSERT INTO dispatches (runtime_id, module, input, matched, result, result_raw, steps, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RuntimeID,
		rec.Module.String(),
		string(input),
		rec.Matched,
		rec.Result.String(),
		raw,
		int64(rec.Steps),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// Recent returns the most recent entries, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT id, runtime_id, module, input, matched, result, result_raw, steps, created_at
		 FROM dispatches ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var input, createdAt string
		var steps int64
		if err := rows.Scan(&e.ID, &e.RuntimeID, &e.Module, &input, &e.Matched,
			&e.Result, &e.ResultRaw, &steps, &createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(input), &e.Input); err != nil {
			return nil, fmt.Errorf("corrupt input column in row %d: %w", e.ID, err)
		}
		e.Steps = uint64(steps)
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

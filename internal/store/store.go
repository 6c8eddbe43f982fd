// Package store keeps a ledger of graded sheets in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ironsheep/omr-grader/internal/grading"
)

// ErrNotFound is returned when no sheet has been recorded for a path.
var ErrNotFound = errors.New("sheet not found")

// Status of a recorded sheet.
const (
	StatusGraded = "graded"
	StatusFailed = "failed"
)

// Sheet is one row of the ledger.
type Sheet struct {
	ID        int64     `json:"id"`
	Path      string    `json:"path"`
	Status    string    `json:"status"`
	SheetID   string    `json:"sheet_id,omitempty"`
	Score     *int      `json:"score,omitempty"`
	Total     int       `json:"total"`
	Blank     int       `json:"blank"`
	Ambiguous int       `json:"ambiguous"`
	Stage     string    `json:"stage,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Overlay   string    `json:"overlay,omitempty"`
	GradedAt  time.Time `json:"graded_at"`
	Answers   []Answer  `json:"answers,omitempty"`
}

// Answer is the recorded outcome of one question.
type Answer struct {
	Question  string             `json:"question"`
	Selection string             `json:"selection"`
	Expected  string             `json:"expected,omitempty"`
	Fills     map[string]float64 `json:"fills"`
}

// Store wraps the SQLite connection with serialized writes.
type Store struct {
	conn *sql.DB
	mu   sync.RWMutex
	now  func() time.Time
}

// Open creates or opens the ledger at path.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	s := &Store{conn: conn, now: time.Now}

	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sheets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL,
		status TEXT NOT NULL,
		sheet_id TEXT NOT NULL DEFAULT '',
		score INTEGER,
		total INTEGER NOT NULL DEFAULT 0,
		blank INTEGER NOT NULL DEFAULT 0,
		ambiguous INTEGER NOT NULL DEFAULT 0,
		stage TEXT NOT NULL DEFAULT '',
		reason TEXT NOT NULL DEFAULT '',
		overlay TEXT NOT NULL DEFAULT '',
		graded_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS answers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sheet_row INTEGER NOT NULL,
		question TEXT NOT NULL,
		selection TEXT NOT NULL,
		expected TEXT NOT NULL DEFAULT '',
		fills TEXT NOT NULL,
		FOREIGN KEY (sheet_row) REFERENCES sheets(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_sheets_path ON sheets(path);
	CREATE INDEX IF NOT EXISTS idx_answers_sheet_row ON answers(sheet_row);
	`

	_, err := s.conn.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// RecordGraded stores a successful result together with its per-question
// answers and returns the new row id. overlay may be empty.
func (s *Store) RecordGraded(ctx context.Context, path string, res *grading.Result, overlay string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	blank, amb := res.Count()
	var score sql.NullInt64
	if res.Score != nil {
		score = sql.NullInt64{Int64: int64(*res.Score), Valid: true}
	}

	r, err := tx.ExecContext(ctx,
		`INSERT INTO sheets (path, status, sheet_id, score, total, blank, ambiguous, overlay, graded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		path, StatusGraded, res.SheetID, score, res.Total(), blank, amb, overlay, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to insert sheet: %w", err)
	}
	id, err := r.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO answers (sheet_row, question, selection, expected, fills) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare answer insert: %w", err)
	}
	defer stmt.Close()

	for _, q := range res.Questions {
		fills, err := json.Marshal(res.Fills[q])
		if err != nil {
			return 0, fmt.Errorf("failed to encode fills for %s: %w", q, err)
		}
		if _, err := stmt.ExecContext(ctx, id, q, string(res.Selections[q]), res.Expected(q), string(fills)); err != nil {
			return 0, fmt.Errorf("failed to insert answer %s: %w", q, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return id, nil
}

// RecordFailed stores a sheet that could not be graded.
func (s *Store) RecordFailed(ctx context.Context, path, stage, reason string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.conn.ExecContext(ctx,
		`INSERT INTO sheets (path, status, stage, reason, graded_at) VALUES (?, ?, ?, ?, ?)`,
		path, StatusFailed, stage, reason, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to insert sheet: %w", err)
	}
	return r.LastInsertId()
}

const sheetColumns = `id, path, status, sheet_id, score, total, blank, ambiguous, stage, reason, overlay, graded_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanSheet(row scanner) (*Sheet, error) {
	var sh Sheet
	var score sql.NullInt64
	if err := row.Scan(&sh.ID, &sh.Path, &sh.Status, &sh.SheetID, &score, &sh.Total,
		&sh.Blank, &sh.Ambiguous, &sh.Stage, &sh.Reason, &sh.Overlay, &sh.GradedAt); err != nil {
		return nil, err
	}
	if score.Valid {
		v := int(score.Int64)
		sh.Score = &v
	}
	return &sh, nil
}

// Get returns the most recent record for path, including its answers.
func (s *Store) Get(ctx context.Context, path string) (*Sheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.conn.QueryRowContext(ctx,
		`SELECT `+sheetColumns+` FROM sheets WHERE path = ? ORDER BY id DESC LIMIT 1`, path)
	sh, err := scanSheet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sheet: %w", err)
	}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT question, selection, expected, fills FROM answers WHERE sheet_row = ? ORDER BY id`, sh.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query answers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a Answer
		var fills string
		if err := rows.Scan(&a.Question, &a.Selection, &a.Expected, &fills); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		if err := json.Unmarshal([]byte(fills), &a.Fills); err != nil {
			return nil, fmt.Errorf("corrupt fills for %s: %w", a.Question, err)
		}
		sh.Answers = append(sh.Answers, a)
	}
	return sh, rows.Err()
}

// Recent lists up to limit records, newest first, without answers.
func (s *Store) Recent(ctx context.Context, limit int) ([]Sheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+sheetColumns+` FROM sheets ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sheets: %w", err)
	}
	defer rows.Close()

	sheets := []Sheet{}
	for rows.Next() {
		sh, err := scanSheet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sheet: %w", err)
		}
		sheets = append(sheets, *sh)
	}
	return sheets, rows.Err()
}

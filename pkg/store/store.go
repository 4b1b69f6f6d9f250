// Package store persists encoded batches in SQLite: one row per run, the
// run's vocabulary, and the template of every input row.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/touchstone-templates/pkg/corpus"
	"github.com/hazyhaar/touchstone-templates/pkg/template"
	"github.com/hazyhaar/touchstone-templates/pkg/vocab"
)

// ErrRunNotFound is returned for a run id (or kind) with no stored run.
var ErrRunNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	kind                 TEXT NOT NULL,
	source               TEXT NOT NULL DEFAULT '',
	lexicon              TEXT NOT NULL DEFAULT '',
	row_count            INTEGER NOT NULL,
	encoded              INTEGER NOT NULL,
	unknown              INTEGER NOT NULL,
	decomposition_failed INTEGER NOT NULL,
	invalid_input        INTEGER NOT NULL,
	unk_tokens           INTEGER NOT NULL,
	created_at           INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS vocabulary (
	run_id   INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	token_id INTEGER NOT NULL,
	token    TEXT NOT NULL,
	PRIMARY KEY (run_id, token_id)
);
CREATE TABLE IF NOT EXISTS row_templates (
	run_id     INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	row_index  INTEGER NOT NULL,
	row_id     TEXT NOT NULL DEFAULT '',
	subject    TEXT NOT NULL,
	identifier TEXT NOT NULL,
	firm       TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL,
	template   TEXT,
	sequence   TEXT,
	error      TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, row_index)
);
CREATE INDEX IF NOT EXISTS idx_runs_kind ON runs(kind, id);
`

// Run describes one stored batch.
type Run struct {
	ID        int64          `json:"id"`
	Kind      corpus.Kind    `json:"kind"`
	Source    string         `json:"source"`  // input file or other origin
	Lexicon   string         `json:"lexicon"` // lexicon id@version
	Summary   corpus.Summary `json:"summary"`
	UnkTokens int            `json:"unk_tokens"`
	CreatedAt int64          `json:"created_at"`
}

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun stores res in one transaction and returns the new run id.
func (s *Store) SaveRun(ctx context.Context, res *corpus.Result, source, lexicon string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	sum := res.Summary
	r, err := tx.ExecContext(ctx, `INSERT INTO runs
		(kind, source, lexicon, row_count, encoded, unknown, decomposition_failed, invalid_input, unk_tokens, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(res.Kind), source, lexicon, sum.Rows, sum.Encoded, sum.Unknown,
		sum.DecompositionFailed, sum.InvalidInput, res.Stats.UnkTokens, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := r.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	vstmt, err := tx.PrepareContext(ctx, `INSERT INTO vocabulary (run_id, token_id, token) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare vocabulary: %w", err)
	}
	defer vstmt.Close()
	for i, tok := range res.Vocabulary.Tokens() {
		if _, err := vstmt.ExecContext(ctx, runID, i+1, tok); err != nil {
			return 0, fmt.Errorf("insert token %q: %w", tok, err)
		}
	}

	rstmt, err := tx.PrepareContext(ctx, `INSERT INTO row_templates
		(run_id, row_index, row_id, subject, identifier, firm, status, template, sequence, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare rows: %w", err)
	}
	defer rstmt.Close()
	for _, row := range res.Rows {
		tpl, err := nullJSON(row.Template)
		if err != nil {
			return 0, err
		}
		seq, err := nullJSON(row.Sequence)
		if err != nil {
			return 0, err
		}
		if _, err := rstmt.ExecContext(ctx, runID, row.Index, row.ID, row.Subject, row.Identifier,
			row.Firm, string(row.Status), tpl, seq, row.Error); err != nil {
			return 0, fmt.Errorf("insert row %d: %w", row.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit run: %w", err)
	}
	return runID, nil
}

const runColumns = `id, kind, source, lexicon, row_count, encoded, unknown,
	decomposition_failed, invalid_input, unk_tokens, created_at`

func scanRun(sc interface{ Scan(...any) error }) (Run, error) {
	var r Run
	var kind string
	err := sc.Scan(&r.ID, &kind, &r.Source, &r.Lexicon, &r.Summary.Rows, &r.Summary.Encoded,
		&r.Summary.Unknown, &r.Summary.DecompositionFailed, &r.Summary.InvalidInput,
		&r.UnkTokens, &r.CreatedAt)
	r.Kind = corpus.Kind(kind)
	return r, err
}

// GetRun returns one run.
func (s *Store) GetRun(ctx context.Context, id int64) (Run, error) {
	r, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %d: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %d: %w", id, err)
	}
	return r, nil
}

// LatestRun returns the most recent run of kind.
func (s *Store) LatestRun(ctx context.Context, kind corpus.Kind) (Run, error) {
	r, err := scanRun(s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE kind = ? ORDER BY id DESC LIMIT 1`, string(kind)))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("latest %s run: %w", kind, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("latest %s run: %w", kind, err)
	}
	return r, nil
}

// ListRuns returns every run, oldest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LoadVocabulary rebuilds the vocabulary of a run.
func (s *Store) LoadVocabulary(ctx context.Context, runID int64) (*vocab.Vocabulary, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT token_id, token FROM vocabulary WHERE run_id = ? ORDER BY token_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var id int
		var tok string
		if err := rows.Scan(&id, &tok); err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		if id != len(tokens)+1 {
			return nil, fmt.Errorf("run %d: vocabulary gap at id %d", runID, len(tokens)+1)
		}
		tokens = append(tokens, tok)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return vocab.FromTokens(tokens)
}

// RowTemplates returns the stored rows of a run in row order.
func (s *Store) RowTemplates(ctx context.Context, runID int64) ([]corpus.RowResult, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT row_index, row_id, subject, identifier, firm,
		status, template, sequence, error
		FROM row_templates WHERE run_id = ? ORDER BY row_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("row templates: %w", err)
	}
	defer rows.Close()

	var out []corpus.RowResult
	for rows.Next() {
		var r corpus.RowResult
		var status string
		var tpl, seq sql.NullString
		if err := rows.Scan(&r.Index, &r.ID, &r.Subject, &r.Identifier, &r.Firm,
			&status, &tpl, &seq, &r.Error); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		r.Status = corpus.Status(status)
		if tpl.Valid {
			var t template.Template
			if err := json.Unmarshal([]byte(tpl.String), &t); err != nil {
				return nil, fmt.Errorf("row %d template: %w", r.Index, err)
			}
			r.Template = t
		}
		if seq.Valid {
			if err := json.Unmarshal([]byte(seq.String), &r.Sequence); err != nil {
				return nil, fmt.Errorf("row %d sequence: %w", r.Index, err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Sequences returns the id sequences of a run's encoded rows, in row order.
func (s *Store) Sequences(ctx context.Context, runID int64) ([][]int, error) {
	rows, err := s.RowTemplates(ctx, runID)
	if err != nil {
		return nil, err
	}
	var out [][]int
	for _, r := range rows {
		if r.Status == corpus.StatusOK {
			out = append(out, r.Sequence)
		}
	}
	return out, nil
}

// nullJSON encodes v as JSON text, or NULL for a nil slice.
func nullJSON(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	if string(b) == "null" {
		return nil, nil
	}
	return string(b), nil
}

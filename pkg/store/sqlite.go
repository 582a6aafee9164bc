package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite is a History persisted in a SQLite database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and ensures the
// schema exists. Use ":memory:" for a throwaway database.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite takes one writer at a time, and each ":memory:" connection
	// would be a separate database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS evaluations (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		expression TEXT NOT NULL,
		result_type TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL,
		results TEXT NOT NULL DEFAULT '[]',
		postfix TEXT NOT NULL DEFAULT '[]',
		error TEXT NOT NULL DEFAULT '',
		create_time INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create evaluations table: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Save records an evaluation, replacing any previous one with the same name.
func (s *SQLite) Save(ev *Evaluation) error {
	results, err := json.Marshal(ev.Results)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	postfix, err := json.Marshal(ev.Postfix)
	if err != nil {
		return fmt.Errorf("encode postfix: %w", err)
	}

	_, err = s.db.Exec(`INSERT INTO evaluations
		(name, expression, result_type, state, results, postfix, error, create_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			expression = excluded.expression,
			result_type = excluded.result_type,
			state = excluded.state,
			results = excluded.results,
			postfix = excluded.postfix,
			error = excluded.error`,
		ev.Name, ev.Expression, ev.ResultType, string(ev.State),
		string(results), string(postfix), ev.Error, ev.CreateTime.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save evaluation '%s': %w", ev.Name, err)
	}
	return nil
}

const selectColumns = `SELECT name, expression, result_type, state, results, postfix, error, create_time FROM evaluations`

// Get retrieves an evaluation by its full name.
func (s *SQLite) Get(name string) (*Evaluation, error) {
	row := s.db.QueryRow(selectColumns+` WHERE name = ?`, name)
	ev, err := scanEvaluation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: '%s'", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return ev, nil
}

// List returns up to limit evaluations, newest first. limit <= 0 returns all.
func (s *SQLite) List(limit int) ([]*Evaluation, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.Query(selectColumns+` ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}
	defer rows.Close()

	var result []*Evaluation
	for rows.Next() {
		ev, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, ev)
	}
	return result, rows.Err()
}

// Delete removes an evaluation.
func (s *SQLite) Delete(name string) error {
	res, err := s.db.Exec(`DELETE FROM evaluations WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete evaluation '%s': %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: '%s'", ErrNotFound, name)
	}
	return nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvaluation(row scanner) (*Evaluation, error) {
	var (
		ev               Evaluation
		state            string
		results, postfix string
		created          int64
	)
	if err := row.Scan(&ev.Name, &ev.Expression, &ev.ResultType, &state,
		&results, &postfix, &ev.Error, &created); err != nil {
		return nil, err
	}
	ev.State = EvaluationState(state)
	ev.CreateTime = time.Unix(0, created).UTC()

	if err := json.Unmarshal([]byte(results), &ev.Results); err != nil {
		return nil, fmt.Errorf("decode results of '%s': %w", ev.Name, err)
	}
	if err := json.Unmarshal([]byte(postfix), &ev.Postfix); err != nil {
		return nil, fmt.Errorf("decode postfix of '%s': %w", ev.Name, err)
	}
	return &ev, nil
}

package research

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure-Go sqlite driver

	"github.com/YuminosukeSato/gridflow/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS results (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	research      TEXT NOT NULL,
	experiment_id TEXT NOT NULL,
	update_num    INTEGER NOT NULL,
	rep           INTEGER NOT NULL,
	iteration     INTEGER NOT NULL,
	unit          TEXT NOT NULL,
	metric        TEXT NOT NULL,
	value         REAL,
	config_alias  TEXT NOT NULL,
	config_json   TEXT NOT NULL,
	note          TEXT NOT NULL DEFAULT '',
	created_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_results_research ON results(research);
CREATE INDEX IF NOT EXISTS idx_results_unit_metric ON results(unit, metric);
`

// Store persists result rows in a sqlite database. Writes are serialized
// through a mutex so concurrent experiment workers can share one store.
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// OpenStore opens (creating if needed) a result database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.NewStorageError("OpenStore", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.NewStorageError("OpenStore", path, err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.Close(); err != nil {
		return errors.NewStorageError("Close", s.path, err)
	}
	return nil
}

// SaveRows inserts rows in one transaction.
func (s *Store) SaveRows(ctx context.Context, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStorageError("SaveRows", s.path, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO results
		(research, experiment_id, update_num, rep, iteration, unit, metric, value, config_alias, config_json, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return errors.NewStorageError("SaveRows", s.path, err)
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err := stmt.ExecContext(ctx,
			row.Research, row.ExperimentID, row.Update, row.Rep, row.Iteration,
			row.Unit, row.Metric, row.Value, row.ConfigAlias, row.ConfigJSON,
			row.Note, row.Timestamp.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			_ = tx.Rollback()
			return errors.NewStorageError("SaveRows", s.path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewStorageError("SaveRows", s.path, err)
	}
	return nil
}

// LoadResults reads rows back into a result table. An empty research name
// loads everything.
func (s *Store) LoadResults(ctx context.Context, research string) (*Results, error) {
	query := `
		SELECT research, experiment_id, update_num, rep, iteration, unit, metric, value, config_alias, config_json, note, created_at
		FROM results`
	args := []interface{}{}
	if research != "" {
		query += ` WHERE research = ?`
		args = append(args, research)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewStorageError("LoadResults", s.path, err)
	}
	defer rows.Close()

	out := NewResults()
	for rows.Next() {
		var row Row
		var createdAt string
		if err := rows.Scan(
			&row.Research, &row.ExperimentID, &row.Update, &row.Rep, &row.Iteration,
			&row.Unit, &row.Metric, &row.Value, &row.ConfigAlias, &row.ConfigJSON,
			&row.Note, &createdAt,
		); err != nil {
			return nil, errors.NewStorageError("LoadResults", s.path, err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			row.Timestamp = ts
		}
		out.Append(row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("LoadResults", s.path, err)
	}
	return out, nil
}

// ResearchInfo summarizes one research stored in the database.
type ResearchInfo struct {
	Name        string
	Experiments int
	Updates     int
	Rows        int
}

// Researches lists the researches present in the store.
func (s *Store) Researches(ctx context.Context) ([]ResearchInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT research,
		       COUNT(DISTINCT experiment_id),
		       COUNT(DISTINCT update_num),
		       COUNT(*)
		FROM results
		GROUP BY research
		ORDER BY research`)
	if err != nil {
		return nil, errors.NewStorageError("Researches", s.path, err)
	}
	defer rows.Close()

	var out []ResearchInfo
	for rows.Next() {
		var info ResearchInfo
		if err := rows.Scan(&info.Name, &info.Experiments, &info.Updates, &info.Rows); err != nil {
			return nil, errors.NewStorageError("Researches", s.path, err)
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("Researches", s.path, err)
	}
	return out, nil
}

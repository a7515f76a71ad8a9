package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS chart_runs (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp      INTEGER NOT NULL,
			period         TEXT NOT NULL,
			reference_date TEXT NOT NULL,
			provider       TEXT,
			symbols_ok     INTEGER,
			symbols_failed INTEGER,
			status         TEXT,
			json_path      TEXT,
			artifacts      TEXT,
			error          TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ref ON chart_runs(reference_date, period)`,

		`CREATE TABLE IF NOT EXISTS uploads (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			period     TEXT NOT NULL,
			local_path TEXT,
			url        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_uploads_ts ON uploads(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(evt *RunEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO chart_runs
		(timestamp, period, reference_date, provider, symbols_ok, symbols_failed, status, json_path, artifacts, error)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.Period, evt.ReferenceDate, evt.Provider,
		evt.SymbolsOK, evt.SymbolsFailed, evt.Status,
		evt.JSONPath, evt.Artifacts, evt.Error,
	)
	return err
}

func (r *SQLiteRecorder) RecordUpload(evt *UploadEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO uploads (timestamp, period, local_path, url) VALUES (?,?,?,?)`,
		time.Now().Unix(), evt.Period, evt.LocalPath, evt.URL,
	)
	return err
}

// CountRuns returns the number of recorded units with the given status; an empty status counts all.
func (r *SQLiteRecorder) CountRuns(status string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	var err error
	if status == "" {
		err = r.db.QueryRow(`SELECT COUNT(*) FROM chart_runs`).Scan(&n)
	} else {
		err = r.db.QueryRow(`SELECT COUNT(*) FROM chart_runs WHERE status = ?`, status).Scan(&n)
	}
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}

package report

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sharphuman/hr-passive-cv/internal/sourcing"
)

// Store archives ranked reports in a local SQLite database. It is the
// spreadsheet-like report sink: every saved run gets a locator the caller
// can hand to a human.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens or creates the archive database, creating the schema when
// missing.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening archive database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating archive schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			role TEXT NOT NULL,
			location TEXT,
			work_style TEXT,
			min_score INTEGER NOT NULL,
			candidate_count INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS run_candidates (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			position INTEGER NOT NULL,
			name TEXT,
			link TEXT NOT NULL,
			snippet TEXT,
			score INTEGER NOT NULL,
			reason TEXT,
			flag TEXT,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_run_candidates_link ON run_candidates(link)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	return nil
}

// SaveReport persists a ranked report and returns its locator. The save is
// transactional: a failed run leaves no partial rows behind.
func (s *Store) SaveReport(ctx context.Context, rep *Report, job *sourcing.JobRequest) (string, error) {
	if rep == nil || len(rep.Items) == 0 {
		return "", fmt.Errorf("report is empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	location := ""
	workStyle := ""
	if job != nil {
		location = job.Location
		workStyle = job.WorkStyle
	}

	createdAt := rep.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (role, location, work_style, min_score, candidate_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rep.Role, location, workStyle, rep.MinScore, len(rep.Items),
		createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("reading run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_candidates (run_id, position, name, link, snippet, score, reason, flag)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for position, candidate := range rep.Items {
		reason := ""
		flag := ""
		if candidate.AI != nil {
			reason = candidate.AI.Reason
			flag = candidate.AI.Flag
		}

		if _, err := stmt.ExecContext(ctx,
			runID, position+1, candidate.Name, candidate.Link,
			candidate.Snippet, candidate.Score(), reason, flag,
		); err != nil {
			return "", fmt.Errorf("inserting candidate %s: %w", candidate.Link, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}

	return fmt.Sprintf("sqlite:%s#run/%d", s.path, runID), nil
}

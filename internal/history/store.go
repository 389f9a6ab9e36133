// Package history keeps a SQLite log of computed scores.
package history

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/spigell/ats-scorer/internal/logger"
	"github.com/spigell/ats-scorer/internal/scoring"
)

const schema = `CREATE TABLE IF NOT EXISTS scores (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id           TEXT,
	candidate        TEXT NOT NULL,
	job_hash         TEXT NOT NULL,
	score            REAL NOT NULL,
	tfidf_similarity REAL NOT NULL,
	key_match_ratio  REAL NOT NULL,
	error            TEXT,
	created_at       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS scores_created_at ON scores(created_at);`

type Record struct {
	ID              int64     `json:"id"`
	RunID           string    `json:"run_id,omitempty"`
	Candidate       string    `json:"candidate"`
	JobHash         string    `json:"job_hash"`
	Score           float64   `json:"score"`
	TFIDFSimilarity float64   `json:"tfidf_similarity"`
	KeyMatchRatio   float64   `json:"key_match_ratio"`
	Error           string    `json:"error,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type Store struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string, log *zap.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("history: mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	// SQLite has a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: init schema: %w", err)
	}

	return &Store{
		db:     db,
		logger: logger.WithFields(log, zap.String("component", "history"), zap.String("path", path)),
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores records in one transaction and fills in their ids.
func (s *Store) Save(ctx context.Context, records ...*Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("history: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO scores
		(run_id, candidate, job_hash, score, tfidf_similarity, key_match_ratio, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("history: prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if r.CreatedAt.IsZero() {
			r.CreatedAt = s.now()
		}
		res, err := stmt.ExecContext(ctx,
			r.RunID, r.Candidate, r.JobHash, r.Score, r.TFIDFSimilarity, r.KeyMatchRatio, r.Error,
			r.CreatedAt.Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("history: insert %s: %w", r.Candidate, err)
		}
		if r.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("history: insert id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("history: commit: %w", err)
	}

	s.logger.Debug("scores saved", zap.Int("records", len(records)))
	return nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, COALESCE(run_id, ''), candidate, job_hash, score, tfidf_similarity, key_match_ratio, COALESCE(error, ''), created_at
		FROM scores
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var created string
		if err := rows.Scan(&r.ID, &r.RunID, &r.Candidate, &r.JobHash, &r.Score, &r.TFIDFSimilarity, &r.KeyMatchRatio, &r.Error, &created); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("history: parse time %q: %w", created, err)
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

// JobHash identifies a job description without storing its text.
func JobHash(jobDescription string) string {
	sum := sha256.Sum256([]byte(jobDescription))
	return hex.EncodeToString(sum[:12])
}

// NewRecord describes one scoring outcome. A nil breakdown with a non-nil
// err records a failed résumé with a zero score.
func NewRecord(runID, candidate, jobDescription string, b *scoring.Breakdown, err error) *Record {
	r := &Record{RunID: runID, Candidate: candidate, JobHash: JobHash(jobDescription)}
	if b != nil {
		r.Score = b.Score
		r.TFIDFSimilarity = b.TFIDFSimilarity
		r.KeyMatchRatio = b.KeyMatchRatio
	}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

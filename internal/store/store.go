// Package store handles SQLite persistence of student results.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/gradepoint/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrBatchNotFound is returned when a batch id matches no stored results.
var ErrBatchNotFound = errors.New("batch not found")

// ResultSource supplies a consistent snapshot of result rows.
type ResultSource interface {
	// ListResults returns a student's rows in recording order. Last is
	// applied by the caller.
	ListResults(ctx context.Context, q model.ResultQuery) ([]model.StudentResult, error)
	ListStudents(ctx context.Context) ([]model.StudentAggregate, error)
}

// Store wraps SQLite access for result data.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ ResultSource = (*Store)(nil)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS results (
			id INTEGER PRIMARY KEY,
			student TEXT NOT NULL,
			course_code TEXT NOT NULL,
			grade TEXT NOT NULL,
			unit INTEGER NOT NULL,
			batch_id TEXT NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS courses (
			code TEXT PRIMARY KEY,
			title TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_results_student ON results(student, recorded_at);`,
		`CREATE INDEX IF NOT EXISTS idx_results_batch ON results(batch_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertResults stores rows as one batch and returns the batch id.
func (s *Store) InsertResults(ctx context.Context, rows []model.StudentResult) (batchID string, err error) {
	if len(rows) == 0 {
		return "", fmt.Errorf("no results to insert")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO results (student, course_code, grade, unit, batch_id, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()

	batchID = uuid.NewString()
	now := s.now()
	for _, r := range rows {
		recordedAt := r.RecordedAt
		if recordedAt.IsZero() {
			recordedAt = now
		}
		if _, err = stmt.ExecContext(ctx,
			r.Student,
			r.CourseCode,
			r.Grade,
			r.Unit,
			batchID,
			recordedAt.UTC().Format(timeLayout),
		); err != nil {
			return "", err
		}
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return batchID, nil
}

// DeleteBatch removes every row of an import batch.
func (s *Store) DeleteBatch(ctx context.Context, batchID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM results WHERE batch_id = ?`, batchID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: %s", ErrBatchNotFound, batchID)
	}
	return n, nil
}

// ListResults returns result rows filtered by student and since.
func (s *Store) ListResults(ctx context.Context, q model.ResultQuery) ([]model.StudentResult, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if q.Student != "" {
		clauses = append(clauses, "student = ?")
		args = append(args, q.Student)
	}
	if q.Since != nil {
		clauses = append(clauses, "recorded_at >= ?")
		args = append(args, q.Since.UTC().Format(timeLayout))
	}
	query := fmt.Sprintf(`SELECT id, student, course_code, grade, unit, batch_id, recorded_at
		FROM results
		WHERE %s
		ORDER BY recorded_at ASC, id ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var results []model.StudentResult
	for rows.Next() {
		var r model.StudentResult
		var recordedAt string
		if err := rows.Scan(&r.ID, &r.Student, &r.CourseCode, &r.Grade, &r.Unit, &r.BatchID, &recordedAt); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(timeLayout, recordedAt)
		if err != nil {
			return nil, err
		}
		r.RecordedAt = parsed
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// ListStudents returns every student with at least one stored result.
func (s *Store) ListStudents(ctx context.Context) ([]model.StudentAggregate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT student, COUNT(*) AS results, MAX(recorded_at) AS last_at
		FROM results
		GROUP BY student
		ORDER BY student ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.StudentAggregate
	for rows.Next() {
		var agg model.StudentAggregate
		var lastAt string
		if err := rows.Scan(&agg.Student, &agg.Results, &lastAt); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(timeLayout, lastAt)
		if err != nil {
			return nil, err
		}
		agg.LastAt = parsed
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpsertCourses stores or replaces course titles.
func (s *Store) UpsertCourses(ctx context.Context, courses []model.Course) (err error) {
	if len(courses) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()
	for _, c := range courses {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO courses (code, title) VALUES (?, ?)
			 ON CONFLICT(code) DO UPDATE SET title = excluded.title`,
			c.Code, c.Title); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// CourseTitles returns all known course titles keyed by code.
func (s *Store) CourseTitles(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT code, title FROM courses`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	titles := map[string]string{}
	for rows.Next() {
		var code, title string
		if err := rows.Scan(&code, &title); err != nil {
			return nil, err
		}
		titles[code] = title
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return titles, nil
}

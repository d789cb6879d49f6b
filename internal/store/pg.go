package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/verte-zerg/gradepoint/internal/model"
)

// PGSource reads results from the portal's Postgres results_pg table.
// It is read-only; rows carry no batch id and are ordered by id.
type PGSource struct {
	pool  *pgxpool.Pool
	table string
}

var _ ResultSource = (*PGSource)(nil)

// OpenPG connects to databaseURL and verifies the connection.
func OpenPG(ctx context.Context, databaseURL string) (*PGSource, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("database url is empty")
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pg pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping pg: %w", err)
	}
	return &PGSource{pool: pool, table: "results_pg"}, nil
}

// Close releases the pool.
func (p *PGSource) Close() {
	p.pool.Close()
}

// ListResults returns results_pg rows for the query. Since is ignored because
// results_pg has no timestamp column; a NULL unit scans as zero.
func (p *PGSource) ListResults(ctx context.Context, q model.ResultQuery) ([]model.StudentResult, error) {
	query, args := pgResultsQuery(p.table, q)
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", p.table, err)
	}
	defer rows.Close()

	var results []model.StudentResult
	for rows.Next() {
		var (
			r    model.StudentResult
			unit *int32
		)
		if err := rows.Scan(&r.ID, &r.Student, &r.CourseCode, &r.Grade, &unit); err != nil {
			return nil, err
		}
		if unit != nil {
			r.Unit = int(*unit)
		}
		r.CourseCode = strings.ToUpper(strings.TrimSpace(r.CourseCode))
		r.Grade = strings.ToUpper(strings.TrimSpace(r.Grade))
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// ListStudents returns each student_id with its row count.
func (p *PGSource) ListStudents(ctx context.Context) ([]model.StudentAggregate, error) {
	rows, err := p.pool.Query(ctx, fmt.Sprintf(
		`SELECT student_id::text, COUNT(*) FROM %s GROUP BY 1 ORDER BY 1`,
		pgx.Identifier{p.table}.Sanitize()))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", p.table, err)
	}
	aggs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.StudentAggregate, error) {
		var agg model.StudentAggregate
		var count int64
		if err := row.Scan(&agg.Student, &count); err != nil {
			return agg, err
		}
		agg.Results = int(count)
		return agg, nil
	})
	if err != nil {
		return nil, err
	}
	return aggs, nil
}

func pgResultsQuery(table string, q model.ResultQuery) (string, []any) {
	clauses := []string{"TRUE"}
	args := []any{}
	if q.Student != "" {
		args = append(args, q.Student)
		clauses = append(clauses, fmt.Sprintf("student_id::text = $%d", len(args)))
	}
	query := fmt.Sprintf(`SELECT id::int8, student_id::text, course_code, grade, unit::int4
		FROM %s
		WHERE %s
		ORDER BY id ASC`, pgx.Identifier{table}.Sanitize(), strings.Join(clauses, " AND "))
	return query, args
}

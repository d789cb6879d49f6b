// Package report builds and renders transcript reports from stored results.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/verte-zerg/gradepoint/internal/grading"
	"github.com/verte-zerg/gradepoint/internal/model"
	"github.com/verte-zerg/gradepoint/internal/store"
)

// TitleSource is implemented by sources that know course titles.
type TitleSource interface {
	CourseTitles(ctx context.Context) (map[string]string, error)
}

// Row is one listed result with its contribution to the transcript.
type Row struct {
	CourseCode    string
	Title         string
	Grade         string
	Unit          int
	Point         float64
	QualityPoints float64
	Remark        grading.Remark
	Counted       bool
	BatchID       string
	RecordedAt    time.Time
}

// Report contains precomputed data for transcript rendering.
type Report struct {
	Student     string
	Rows        []Row
	Summary     grading.Summary
	Standing    grading.Standing
	Progression []float64
	MaxPoint    float64
}

// BuildReport reads one snapshot of a student's results and computes the
// transcript over it.
func BuildReport(ctx context.Context, src store.ResultSource, eng *grading.Engine, q model.ResultQuery) (Report, error) {
	if q.Student == "" {
		return Report{}, fmt.Errorf("student is required")
	}
	results, err := src.ListResults(ctx, q)
	if err != nil {
		return Report{}, fmt.Errorf("failed to load results: %w", err)
	}
	if q.Last > 0 && len(results) > q.Last {
		results = results[len(results)-q.Last:]
	}

	titles := map[string]string{}
	if ts, ok := src.(TitleSource); ok {
		titles, err = ts.CourseTitles(ctx)
		if err != nil {
			return Report{}, fmt.Errorf("failed to load course titles: %w", err)
		}
	}

	records := model.Records(results)
	remarks := eng.Remarks(records)
	rows := make([]Row, len(results))
	for i, r := range results {
		cr := remarks[i]
		rows[i] = Row{
			CourseCode:    r.CourseCode,
			Title:         titles[r.CourseCode],
			Grade:         r.Grade,
			Unit:          r.Unit,
			Point:         cr.Point,
			QualityPoints: cr.QualityPoints,
			Remark:        cr.Remark,
			Counted:       cr.Counted,
			BatchID:       r.BatchID,
			RecordedAt:    r.RecordedAt,
		}
	}

	summary := eng.ComputeTranscript(records)
	return Report{
		Student:     q.Student,
		Rows:        rows,
		Summary:     summary,
		Standing:    eng.Standing(summary.CGPA),
		Progression: Progression(records, eng),
		MaxPoint:    eng.Scale().MaxPoint,
	}, nil
}

// Progression returns the cumulative CGPA after each record in order.
// Excluded records repeat the previous value.
func Progression(records []grading.ResultRecord, eng *grading.Engine) []float64 {
	out := make([]float64, len(records))
	for i := range records {
		out[i] = eng.ComputeTranscript(records[:i+1]).CGPA
	}
	return out
}

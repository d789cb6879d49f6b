package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/gradepoint/internal/grading"
	"github.com/verte-zerg/gradepoint/internal/model"
	"github.com/verte-zerg/gradepoint/internal/store"
)

const standingsWorkers = 4

// StudentStanding is one student's transcript summary in a ranking.
type StudentStanding struct {
	Student  string
	Results  int
	LastAt   time.Time
	Summary  grading.Summary
	Standing grading.Standing
}

// BuildStandings computes every student's summary and ranks them by CGPA,
// highest first, ties broken by student id. limit > 0 truncates the list.
func BuildStandings(ctx context.Context, src store.ResultSource, eng *grading.Engine, limit int) ([]StudentStanding, error) {
	students, err := src.ListStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}

	out := make([]StudentStanding, len(students))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(standingsWorkers)
	for i, agg := range students {
		g.Go(func() error {
			rows, err := src.ListResults(gctx, model.ResultQuery{Student: agg.Student})
			if err != nil {
				return fmt.Errorf("failed to load results for %s: %w", agg.Student, err)
			}
			summary := eng.ComputeTranscript(model.Records(rows))
			out[i] = StudentStanding{
				Student:  agg.Student,
				Results:  agg.Results,
				LastAt:   agg.LastAt,
				Summary:  summary,
				Standing: eng.Standing(summary.CGPA),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Summary.CGPA == out[j].Summary.CGPA {
			return out[i].Student < out[j].Student
		}
		return out[i].Summary.CGPA > out[j].Summary.CGPA
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

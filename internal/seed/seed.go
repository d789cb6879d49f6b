// Package seed builds plausible demo result rows.
package seed

import (
	"math/rand"
	"time"

	"github.com/verte-zerg/gradepoint/internal/model"
)

var (
	gradeWeights = []struct {
		grade  string
		weight float64
	}{
		{"A", 0.18},
		{"B", 0.27},
		{"C", 0.25},
		{"D", 0.14},
		{"E", 0.08},
		{"F", 0.08},
	}
	unitChoices = []int{1, 2, 2, 3, 3, 3, 4}
)

// Generator produces randomized result rows.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a deterministic Generator.
func NewSeeded(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Generate picks count courses for student. Each course keeps one unit value;
// a failed course may be retaken later with a fresh grade.
func (g *Generator) Generate(student string, courses []string, count int, start time.Time) []model.StudentResult {
	if len(courses) == 0 || count <= 0 {
		return nil
	}
	units := make(map[string]int, len(courses))
	failed := []string{}
	result := make([]model.StudentResult, 0, count)
	for i := 0; i < count; i++ {
		var code string
		if len(failed) > 0 && g.rnd.Float64() < 0.5 {
			code = failed[0]
			failed = failed[1:]
		} else {
			code = courses[g.rnd.Intn(len(courses))]
		}
		unit, ok := units[code]
		if !ok {
			unit = unitChoices[g.rnd.Intn(len(unitChoices))]
			units[code] = unit
		}
		grade := g.pickGrade()
		if grade == "F" {
			failed = append(failed, code)
		}
		result = append(result, model.StudentResult{
			Student:    student,
			CourseCode: code,
			Grade:      grade,
			Unit:       unit,
			RecordedAt: start.Add(time.Duration(i) * time.Hour),
		})
	}
	return result
}

func (g *Generator) pickGrade() string {
	r := g.rnd.Float64()
	acc := 0.0
	for _, w := range gradeWeights {
		acc += w.weight
		if r <= acc {
			return w.grade
		}
	}
	return gradeWeights[len(gradeWeights)-1].grade
}

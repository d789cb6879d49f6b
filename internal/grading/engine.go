package grading

import (
	"math"

	"github.com/shopspring/decimal"
)

// MaxUnit is the largest credit-unit value a single record may carry. Records
// above it are excluded like non-positive ones.
const MaxUnit = 100

// PendingRemark is reported for grades outside the scale's vocabulary.
var PendingRemark = Remark{Label: "Pending", Severity: SeverityNeutral}

// ResultRecord is a single normalized course result.
type ResultRecord struct {
	CourseCode string
	Grade      string
	Unit       int
}

// Summary is the transcript computed from a full record set.
type Summary struct {
	TotalQualityPoints float64
	TotalUnits         int
	// CGPA keeps full precision; use Rounded for display.
	CGPA           float64
	Classification Classification
	Counted        int
	Excluded       int
}

// Rounded returns the CGPA rounded half-up to two decimal places.
func (s Summary) Rounded() float64 {
	return RoundCGPA(s.CGPA)
}

// RoundCGPA rounds v half-up to two decimal places for display.
func RoundCGPA(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// CourseRemark describes how one record contributed to a transcript.
type CourseRemark struct {
	Record        ResultRecord
	Remark        Remark
	Point         float64
	QualityPoints float64
	Graded        bool
	Counted       bool
}

// Engine applies a fixed Scale. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	scale Scale
}

// NewEngine validates scale and binds a private copy of it.
func NewEngine(scale Scale) (*Engine, error) {
	if err := scale.Validate(); err != nil {
		return nil, err
	}
	return &Engine{scale: scale.clone()}, nil
}

// Default returns an engine over DefaultScale.
func Default() *Engine {
	return &Engine{scale: DefaultScale().clone()}
}

// Scale returns a copy of the bound scale.
func (e *Engine) Scale() Scale {
	return e.scale.clone()
}

// GradePoint returns the point value of grade. ok is false when the grade is
// not in the vocabulary, which is distinct from a zero-point grade.
func (e *Engine) GradePoint(grade string) (point float64, ok bool) {
	point, ok = e.scale.Points[normalizeGrade(grade)]
	return point, ok
}

// QualityPoints returns point*unit for a record, or ok=false when the record
// is excluded from averaging.
func (e *Engine) QualityPoints(r ResultRecord) (float64, bool) {
	point, ok := e.GradePoint(r.Grade)
	if !ok || !countableUnit(r.Unit) {
		return 0, false
	}
	return point * float64(r.Unit), true
}

// ComputeTranscript sums every countable record, retakes included.
func (e *Engine) ComputeTranscript(records []ResultRecord) Summary {
	var (
		qp      = decimal.Zero
		units   int
		counted int
	)
	for _, r := range records {
		point, ok := e.GradePoint(r.Grade)
		if !ok || !countableUnit(r.Unit) {
			continue
		}
		// Exact decimal accumulation keeps the sum independent of record order.
		qp = qp.Add(decimal.NewFromFloat(point).Mul(decimal.NewFromInt(int64(r.Unit))))
		units += r.Unit
		counted++
	}

	summary := Summary{
		TotalQualityPoints: qp.InexactFloat64(),
		TotalUnits:         units,
		Counted:            counted,
		Excluded:           len(records) - counted,
	}
	if units > 0 {
		summary.CGPA = summary.TotalQualityPoints / float64(units)
	}
	summary.Classification = e.Classify(summary.CGPA)
	return summary
}

func countableUnit(unit int) bool {
	return unit > 0 && unit <= MaxUnit
}

// Classify maps an unrounded CGPA onto the scale's bands. Bands are
// lower-bound inclusive; anything below every cut lands in the floor band.
func (e *Engine) Classify(cgpa float64) Classification {
	for _, b := range e.scale.Bands {
		if cgpa >= b.Min {
			return b.Label
		}
	}
	return e.scale.Bands[len(e.scale.Bands)-1].Label
}

// LowestBand returns the floor classification.
func (e *Engine) LowestBand() Classification {
	return e.scale.Bands[len(e.scale.Bands)-1].Label
}

// RemarkFor returns the remark for grade, or PendingRemark when ungraded.
func (e *Engine) RemarkFor(grade string) Remark {
	g := normalizeGrade(grade)
	point, ok := e.scale.Points[g]
	if !ok {
		return PendingRemark
	}
	if r, ok := e.scale.Remarks[g]; ok {
		return r
	}
	if point == 0 {
		return Remark{Label: g, Severity: SeverityFail}
	}
	return Remark{Label: g, Severity: SeverityPass}
}

// Remarks lists every record in input order, excluded ones included.
func (e *Engine) Remarks(records []ResultRecord) []CourseRemark {
	out := make([]CourseRemark, 0, len(records))
	for _, r := range records {
		point, graded := e.GradePoint(r.Grade)
		qp, counted := e.QualityPoints(r)
		out = append(out, CourseRemark{
			Record:        r,
			Remark:        e.RemarkFor(r.Grade),
			Point:         point,
			QualityPoints: qp,
			Graded:        graded,
			Counted:       counted,
		})
	}
	return out
}

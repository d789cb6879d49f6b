// Package grading computes grade points, CGPA and degree classification from
// normalized result records.
package grading

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidScale is returned when a grading scale fails validation.
var ErrInvalidScale = errors.New("invalid grading scale")

// Classification is a degree-classification label.
type Classification string

// Default classification labels.
const (
	FirstClass       Classification = "First Class"
	SecondClassUpper Classification = "Second Class Upper"
	SecondClassLower Classification = "Second Class Lower"
	ThirdClass       Classification = "Third Class"
	PassClass        Classification = "Pass"
)

// Severity is the presentation tier of a remark.
type Severity int

// Remark severities.
const (
	SeverityNeutral Severity = iota
	SeverityPass
	SeverityWarn
	SeverityFail
)

func (s Severity) String() string {
	switch s {
	case SeverityPass:
		return "pass"
	case SeverityWarn:
		return "warn"
	case SeverityFail:
		return "fail"
	default:
		return "neutral"
	}
}

// Remark is the human-readable verdict for a single grade.
type Remark struct {
	Label    string   `validate:"required"`
	Severity Severity `validate:"gte=0,lte=3"`
}

// Band is one classification interval. A band covers [Min, previous band's Min).
type Band struct {
	Min   float64        `validate:"gte=0"`
	Label Classification `validate:"required"`
}

// StandingRule holds the cut points used for academic standing advice.
type StandingRule struct {
	WarningBelow float64 `validate:"gte=0"`
	AtRiskBelow  float64 `validate:"gtefield=WarningBelow"`
}

// Scale is the grading configuration bound into an Engine.
//
// Bands are ordered from the highest lower bound to the lowest; the last band
// is the floor and must start at zero.
type Scale struct {
	Points   map[string]float64 `validate:"required,min=1,dive,keys,required,endkeys,gte=0"`
	Bands    []Band             `validate:"required,min=1,dive"`
	Remarks  map[string]Remark  `validate:"omitempty,dive"`
	MaxPoint float64            `validate:"gt=0"`
	Standing StandingRule
}

// DefaultScale returns the five-point A-F scale.
func DefaultScale() Scale {
	return Scale{
		Points: map[string]float64{
			"A": 5,
			"B": 4,
			"C": 3,
			"D": 2,
			"E": 1,
			"F": 0,
		},
		Bands: []Band{
			{Min: 4.5, Label: FirstClass},
			{Min: 3.5, Label: SecondClassUpper},
			{Min: 2.5, Label: SecondClassLower},
			{Min: 1.5, Label: ThirdClass},
			{Min: 0, Label: PassClass},
		},
		Remarks: map[string]Remark{
			"A": {Label: "Excellent", Severity: SeverityPass},
			"B": {Label: "Very Good", Severity: SeverityPass},
			"C": {Label: "Good", Severity: SeverityPass},
			"D": {Label: "Fair", Severity: SeverityWarn},
			"E": {Label: "Pass", Severity: SeverityWarn},
			"F": {Label: "Fail", Severity: SeverityFail},
		},
		MaxPoint: 5,
		Standing: StandingRule{WarningBelow: 2.5, AtRiskBelow: 3.0},
	}
}

// ExtendedScale returns the default scale plus the finer A- and B+ bands.
func ExtendedScale() Scale {
	s := DefaultScale()
	s.Points["A-"] = 4.5
	s.Points["B+"] = 4
	s.Remarks["A-"] = Remark{Label: "Excellent", Severity: SeverityPass}
	s.Remarks["B+"] = Remark{Label: "Very Good", Severity: SeverityPass}
	return s
}

// ScaleByName resolves a named scale ("default" or "extended").
func ScaleByName(name string) (Scale, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default":
		return DefaultScale(), nil
	case "extended":
		return ExtendedScale(), nil
	default:
		return Scale{}, fmt.Errorf("%w: unknown scale %q (use default or extended)", ErrInvalidScale, name)
	}
}

// Validate checks the scale's structure and ordering.
func (s Scale) Validate() error {
	if err := validator.New().Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScale, err)
	}
	if err := uniqueGrades(s.Points); err != nil {
		return err
	}
	if err := uniqueGrades(s.Remarks); err != nil {
		return err
	}
	for grade, point := range s.Points {
		if point > s.MaxPoint {
			return fmt.Errorf("%w: grade %q worth %.2f exceeds max point %.2f", ErrInvalidScale, grade, point, s.MaxPoint)
		}
	}
	for i := 1; i < len(s.Bands); i++ {
		if s.Bands[i].Min >= s.Bands[i-1].Min {
			return fmt.Errorf("%w: band %q must start below %q", ErrInvalidScale, s.Bands[i].Label, s.Bands[i-1].Label)
		}
	}
	if floor := s.Bands[len(s.Bands)-1]; floor.Min != 0 {
		return fmt.Errorf("%w: lowest band %q must start at 0", ErrInvalidScale, floor.Label)
	}
	if s.Bands[0].Min > s.MaxPoint {
		return fmt.Errorf("%w: band %q starts above max point", ErrInvalidScale, s.Bands[0].Label)
	}
	return nil
}

// Grades lists the recognized grade tokens, best first.
func (s Scale) Grades() []string {
	out := make([]string, 0, len(s.Points))
	for g := range s.Points {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		pi, pj := s.Points[out[i]], s.Points[out[j]]
		if pi == pj {
			return out[i] < out[j]
		}
		return pi > pj
	})
	return out
}

func (s Scale) clone() Scale {
	out := Scale{
		Points:   make(map[string]float64, len(s.Points)),
		Bands:    append([]Band(nil), s.Bands...),
		Remarks:  make(map[string]Remark, len(s.Remarks)),
		MaxPoint: s.MaxPoint,
		Standing: s.Standing,
	}
	for g, p := range s.Points {
		out.Points[normalizeGrade(g)] = p
	}
	for g, r := range s.Remarks {
		out.Remarks[normalizeGrade(g)] = r
	}
	return out
}

// uniqueGrades rejects keys that collapse onto the same grade token.
func uniqueGrades[V any](m map[string]V) error {
	seen := make(map[string]string, len(m))
	for k := range m {
		g := normalizeGrade(k)
		if g == "" {
			return fmt.Errorf("%w: blank grade key", ErrInvalidScale)
		}
		if prev, ok := seen[g]; ok {
			return fmt.Errorf("%w: grades %q and %q name the same grade", ErrInvalidScale, prev, k)
		}
		seen[g] = k
	}
	return nil
}

func normalizeGrade(grade string) string {
	return strings.ToUpper(strings.TrimSpace(grade))
}

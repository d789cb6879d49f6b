package grading

// Standing is coarse academic-standing advice derived from a CGPA.
type Standing int

// Standing levels, worst first.
const (
	StandingWarning Standing = iota
	StandingAtRisk
	StandingGood
)

func (s Standing) String() string {
	switch s {
	case StandingWarning:
		return "Warning: below minimum threshold"
	case StandingAtRisk:
		return "At risk of lower class"
	default:
		return "Good standing"
	}
}

// Severity maps the standing onto a remark severity.
func (s Standing) Severity() Severity {
	switch s {
	case StandingWarning:
		return SeverityFail
	case StandingAtRisk:
		return SeverityWarn
	default:
		return SeverityPass
	}
}

// Standing classifies cgpa against the scale's standing rule.
func (e *Engine) Standing(cgpa float64) Standing {
	switch {
	case cgpa < e.scale.Standing.WarningBelow:
		return StandingWarning
	case cgpa < e.scale.Standing.AtRiskBelow:
		return StandingAtRisk
	default:
		return StandingGood
	}
}

// Project returns the CGPA after nextUnits more units at expectedGPA, given
// currentCGPA over completedUnits. Negative unit counts are treated as zero.
func Project(currentCGPA float64, completedUnits int, expectedGPA float64, nextUnits int) float64 {
	if completedUnits < 0 {
		completedUnits = 0
	}
	if nextUnits < 0 {
		nextUnits = 0
	}
	total := completedUnits + nextUnits
	if total == 0 {
		return 0
	}
	quality := currentCGPA*float64(completedUnits) + expectedGPA*float64(nextUnits)
	return quality / float64(total)
}

// ProjectFrom projects forward from an existing summary.
func (e *Engine) ProjectFrom(s Summary, expectedGPA float64, nextUnits int) float64 {
	return Project(s.CGPA, s.TotalUnits, expectedGPA, nextUnits)
}

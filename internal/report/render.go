package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

const sparkChars = " .:-=+*#%@"

// Sparkline renders a single-line ASCII sparkline of values on [lo, hi].
func Sparkline(values []float64, lo, hi float64) string {
	if len(values) == 0 {
		return ""
	}
	if hi-lo < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - lo) / (hi - lo)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = min(max(idx, 0), len(sparkChars)-1)
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints the transcript summary block.
func RenderSummary(w io.Writer, r Report) error {
	s := r.Summary
	lines := []string{
		fmt.Sprintf("Transcript: %s", r.Student),
		fmt.Sprintf("Courses: %d counted, %d excluded", s.Counted, s.Excluded),
		fmt.Sprintf("Units: %d", s.TotalUnits),
		fmt.Sprintf("Quality Points: %.2f", s.TotalQualityPoints),
		fmt.Sprintf("CGPA: %.2f", s.Rounded()),
		fmt.Sprintf("Class: %s", s.Classification),
		fmt.Sprintf("Standing: %s", r.Standing),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderResults prints one line per result, excluded rows included.
func RenderResults(w io.Writer, rows []Row) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No results found.")
		return err
	}
	headers := []string{"Code", "Title", "Unit", "Grade", "QP", "Remark"}
	tableRows := make([][]string, 0, len(rows))
	for _, r := range rows {
		qp := "-"
		if r.Counted {
			qp = fmt.Sprintf("%.2f", r.QualityPoints)
		}
		grade := r.Grade
		if grade == "" {
			grade = "-"
		}
		tableRows = append(tableRows, []string{
			r.CourseCode,
			r.Title,
			strconv.Itoa(r.Unit),
			grade,
			qp,
			r.Remark.Label,
		})
	}
	lines := formatTable(headers, tableRows, map[int]bool{2: true, 4: true})
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderStandings prints a ranked table of student summaries.
func RenderStandings(w io.Writer, standings []StudentStanding) error {
	if len(standings) == 0 {
		_, err := fmt.Fprintln(w, "No students found.")
		return err
	}
	headers := []string{"Rank", "Student", "Courses", "Units", "CGPA", "Class", "Standing"}
	rows := make([][]string, 0, len(standings))
	for i, s := range standings {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			s.Student,
			strconv.Itoa(s.Results),
			strconv.Itoa(s.Summary.TotalUnits),
			fmt.Sprintf("%.2f", s.Summary.Rounded()),
			string(s.Summary.Classification),
			s.Standing.String(),
		})
	}
	for _, line := range formatTable(headers, rows, map[int]bool{0: true, 2: true, 3: true, 4: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderProgression prints the cumulative CGPA as a sparkline followed by a
// plot sized to totalWidth (0 detects the terminal).
func RenderProgression(w io.Writer, values []float64, maxPoint float64, totalWidth, height int, useColor bool) error {
	if len(values) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "Progression: %s\n", Sparkline(values, 0, maxPoint)); err != nil {
		return err
	}
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	return PlotCGPA(w, values, maxPoint, width, height, useColor)
}

type jsonRow struct {
	CourseCode    string    `json:"courseCode"`
	Title         string    `json:"title,omitempty"`
	Grade         string    `json:"grade"`
	Unit          int       `json:"unit"`
	QualityPoints float64   `json:"qualityPoints"`
	Counted       bool      `json:"counted"`
	Remark        string    `json:"remark"`
	Severity      string    `json:"severity"`
	BatchID       string    `json:"batchId,omitempty"`
	RecordedAt    time.Time `json:"recordedAt"`
}

type jsonReport struct {
	Student            string    `json:"student"`
	CGPA               float64   `json:"cgpa"`
	CGPARounded        float64   `json:"cgpaRounded"`
	Classification     string    `json:"classification"`
	Standing           string    `json:"standing"`
	TotalUnits         int       `json:"totalUnits"`
	TotalQualityPoints float64   `json:"totalQualityPoints"`
	Counted            int       `json:"counted"`
	Excluded           int       `json:"excluded"`
	Results            []jsonRow `json:"results"`
	Progression        []float64 `json:"progression"`
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, r Report) error {
	out := jsonReport{
		Student:            r.Student,
		CGPA:               r.Summary.CGPA,
		CGPARounded:        r.Summary.Rounded(),
		Classification:     string(r.Summary.Classification),
		Standing:           r.Standing.String(),
		TotalUnits:         r.Summary.TotalUnits,
		TotalQualityPoints: r.Summary.TotalQualityPoints,
		Counted:            r.Summary.Counted,
		Excluded:           r.Summary.Excluded,
		Results:            make([]jsonRow, len(r.Rows)),
		Progression:        r.Progression,
	}
	if out.Progression == nil {
		out.Progression = []float64{}
	}
	for i, row := range r.Rows {
		out.Results[i] = jsonRow{
			CourseCode:    row.CourseCode,
			Title:         row.Title,
			Grade:         row.Grade,
			Unit:          row.Unit,
			QualityPoints: row.QualityPoints,
			Counted:       row.Counted,
			Remark:        row.Remark.Label,
			Severity:      row.Remark.Severity.String(),
			BatchID:       row.BatchID,
			RecordedAt:    row.RecordedAt,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

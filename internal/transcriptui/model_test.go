package transcriptui

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/gradepoint/internal/grading"
	"github.com/verte-zerg/gradepoint/internal/model"
)

type fakeSource struct {
	rows []model.StudentResult
	err  error
}

func (f *fakeSource) ListResults(_ context.Context, q model.ResultQuery) ([]model.StudentResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.StudentResult
	for _, r := range f.rows {
		if q.Student == "" || r.Student == q.Student {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeSource) ListStudents(context.Context) ([]model.StudentAggregate, error) {
	return nil, f.err
}

func newTestModel(t *testing.T, src *fakeSource) *Model {
	t.Helper()
	m := NewModel(src, grading.Default(), model.ResultQuery{Student: "U1"})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelRendersOverviewAndResults(t *testing.T) {
	m := newTestModel(t, &fakeSource{rows: []model.StudentResult{
		{Student: "U1", CourseCode: "CSC101", Grade: "A", Unit: 3},
		{Student: "U1", CourseCode: "MTH101", Grade: "C", Unit: 3},
		{Student: "U2", CourseCode: "CSC101", Grade: "F", Unit: 3},
	}})

	view := m.View()
	if !strings.Contains(view, "4.00") || !strings.Contains(view, "Second Class Upper") {
		t.Fatalf("expected overview cards, got:\n%s", view)
	}
	if len(strings.Split(view, "\n")) != 30 {
		t.Fatalf("expected view to fill the window height")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.activeTab != tabResults {
		t.Fatalf("expected results tab, got %d", m.activeTab)
	}
	view = m.View()
	if !strings.Contains(view, "CSC101") || !strings.Contains(view, "Excellent") {
		t.Fatalf("expected results table, got:\n%s", view)
	}
	if len(m.report.Rows) != 2 {
		t.Fatalf("expected only U1 rows, got %d", len(m.report.Rows))
	}
}

func TestModelTabsWrap(t *testing.T) {
	m := newTestModel(t, &fakeSource{})
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if m.activeTab != tabProjection {
		t.Fatalf("expected wrap to projection tab, got %d", m.activeTab)
	}
	m.Update(runes("l"))
	if m.activeTab != tabOverview {
		t.Fatalf("expected wrap to overview tab, got %d", m.activeTab)
	}
}

func TestModelProjection(t *testing.T) {
	m := newTestModel(t, &fakeSource{rows: []model.StudentResult{
		{Student: "U1", CourseCode: "CSC101", Grade: "A", Unit: 3},
		{Student: "U1", CourseCode: "MTH101", Grade: "C", Unit: 3},
	}})
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.projectMode {
		t.Fatalf("expected projection form to open")
	}

	m.Update(runes("6"))
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m.Update(runes("9"))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.projectMode || m.projectError == "" {
		t.Fatalf("expected out-of-range expected GPA to be rejected")
	}

	m.projectInputs[projectExpected].SetValue("5")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.projectMode {
		t.Fatalf("expected projection form to close, error: %s", m.projectError)
	}
	if m.projected == nil || math.Abs(m.projected.cgpa-4.5) > 1e-9 {
		t.Fatalf("expected projected cgpa 4.5, got %+v", m.projected)
	}
	if m.projected.class != grading.FirstClass {
		t.Fatalf("expected first class, got %s", m.projected.class)
	}
	if !strings.Contains(m.View(), "Projected CGPA") {
		t.Fatalf("expected projection cards in view")
	}
}

func TestModelFilter(t *testing.T) {
	m := newTestModel(t, &fakeSource{})
	m.Update(runes("/"))
	if !m.filterMode {
		t.Fatalf("expected filter mode")
	}
	if got := m.filterInputs[filterStudent].Value(); got != "U1" {
		t.Fatalf("expected student prefilled, got %q", got)
	}
	m.Update(runes("q"))
	if !m.filterMode {
		t.Fatalf("q should be typed into the filter, not quit")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.filterMode {
		t.Fatalf("expected esc to cancel filter")
	}
}

func TestParseFilter(t *testing.T) {
	inputs := []textinputValues{
		{student: "U9", since: "2024-02-01", last: "3"},
	}
	for _, in := range inputs {
		q, err := parseFilter(in.models())
		if err != nil {
			t.Fatalf("parse filter: %v", err)
		}
		if q.Student != "U9" || q.Last != 3 || q.Since == nil || q.Since.Format("2006-01-02") != "2024-02-01" {
			t.Fatalf("unexpected query: %+v", q)
		}
	}

	bad := []textinputValues{
		{student: ""},
		{student: "U1", since: "02/01/2024"},
		{student: "U1", last: "-1"},
	}
	for _, in := range bad {
		if _, err := parseFilter(in.models()); err == nil {
			t.Fatalf("expected error for %+v", in)
		}
	}
}

func TestModelShowsLoadError(t *testing.T) {
	m := newTestModel(t, &fakeSource{err: errors.New("database is locked")})
	if !strings.Contains(m.View(), "database is locked") {
		t.Fatalf("expected error in footer, got:\n%s", m.View())
	}
}

type textinputValues struct {
	student, since, last string
}

func (v textinputValues) models() []textinput.Model {
	inputs := []textinput.Model{newInput("Student: "), newInput("Since: "), newInput("Last: ")}
	inputs[filterStudent].SetValue(v.student)
	inputs[filterSince].SetValue(v.since)
	inputs[filterLast].SetValue(v.last)
	return inputs
}

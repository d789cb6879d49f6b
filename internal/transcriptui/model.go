// Package transcriptui provides the Bubble Tea transcript viewer.
package transcriptui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/gradepoint/internal/grading"
	"github.com/verte-zerg/gradepoint/internal/model"
	"github.com/verte-zerg/gradepoint/internal/report"
	"github.com/verte-zerg/gradepoint/internal/store"
)

const (
	tabOverview = iota
	tabResults
	tabProjection
)

const plotHeight = 8

const (
	filterStudent = iota
	filterSince
	filterLast
)

const (
	projectNextUnits = iota
	projectExpected
)

// Model implements the Bubble Tea transcript UI.
type Model struct {
	src   store.ResultSource
	eng   *grading.Engine
	query model.ResultQuery

	report report.Report
	loaded bool
	errMsg string

	tabs      []string
	activeTab int
	viewports []viewport.Model
	results   table.Model

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string

	projectMode   bool
	projectInputs []textinput.Model
	projectIndex  int
	projectError  string
	projected     *projection
}

type projection struct {
	nextUnits int
	expected  float64
	cgpa      float64
	class     grading.Classification
	standing  grading.Standing
}

// NewModel constructs a transcript UI model and loads the initial report.
func NewModel(src store.ResultSource, eng *grading.Engine, q model.ResultQuery) *Model {
	m := &Model{
		src:   src,
		eng:   eng,
		query: q,
		tabs:  []string{"Overview", "Results", "Projection"},
	}
	m.filterInputs = []textinput.Model{
		newInput("Student: "),
		newInput("Since (YYYY-MM-DD): "),
		newInput("Last: "),
	}
	m.projectInputs = []textinput.Model{
		newInput("Next units: "),
		newInput("Expected GPA: "),
	}
	m.results = table.New(
		table.WithColumns(resultColumns()),
		table.WithHeight(1),
	)
	m.results.SetStyles(resultsTableStyles())
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		if m.projectMode {
			return m.updateProject(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "/":
			return m.startFilter()
		case "enter":
			if m.activeTab == tabProjection {
				return m.startProject()
			}
			return m, nil
		case "g", "home":
			if m.activeTab == tabResults {
				m.results.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabResults {
				m.results.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		}
		var cmd tea.Cmd
		if m.activeTab == tabResults {
			m.results, cmd = m.results.Update(msg)
			return m, cmd
		}
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.projectMode {
		return fitLines(m.renderProjectModal(), m.width, m.height)
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func newInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(lipgloss.Height(activeNavStyle.Render("X")), 1)
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = max(m.height-headerHeight-footerHeight, 1)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	m.results.SetWidth(m.width)
	m.results.SetHeight(max(bodyHeight-1, 1))
	for i := range m.filterInputs {
		m.filterInputs[i].Width = max(10, m.width-lipgloss.Width(m.filterInputs[i].Prompt)-2)
	}
	for i := range m.projectInputs {
		m.projectInputs[i].Width = max(10, modalWidth(m.width)-6-lipgloss.Width(m.projectInputs[i].Prompt))
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	m.activeTab = (m.activeTab + delta + count) % count
	if m.activeTab == tabResults {
		m.results.Focus()
	} else {
		m.results.Blur()
	}
}

func (m *Model) refreshReport() {
	r, err := report.BuildReport(context.Background(), m.src, m.eng, m.query)
	if err != nil {
		m.errMsg = err.Error()
		m.loaded = false
		m.renderTabContents()
		return
	}
	m.errMsg = ""
	m.loaded = true
	m.report = r
	m.projected = nil
	m.results.SetRows(resultRows(r.Rows))
	m.results.GotoTop()
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	if !m.loaded {
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load transcript.")
		}
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.report, width))
	m.viewports[tabProjection].SetContent(m.renderProjection())
}

func (m *Model) renderHeader() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	tabs := padLines(lipgloss.JoinHorizontal(lipgloss.Top, parts...), m.width)
	return tabs + "\n" + padLines(m.renderFilterSummary(), m.width)
}

func (m *Model) renderFilterSummary() string {
	since := "any"
	if m.query.Since != nil {
		since = m.query.Since.Format("2006-01-02")
	}
	last := "all"
	if m.query.Last > 0 {
		last = strconv.Itoa(m.query.Last)
	}
	summary := fmt.Sprintf("Student: %s  since=%s  last=%s", m.query.Student, since, last)
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	help := "Nav: left/right  Scroll: up/down/pgup/pgdn  Filter: /  Quit: q"
	if m.activeTab == tabProjection {
		help = "Nav: left/right  Project: enter  Filter: /  Quit: q"
	}
	help = headerStyle.Render(truncateLine(help, m.width))
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(truncateLine(m.errMsg, m.width))
	}
	return help
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		lines := []string{"Filter (enter to apply, esc to cancel)"}
		for _, input := range m.filterInputs {
			lines = append(lines, input.View())
		}
		if m.filterError != "" {
			lines = append(lines, errorStyle.Render(m.filterError))
		}
		return fitLines(strings.Join(lines, "\n"), m.width, height)
	}
	if m.activeTab == tabResults {
		if !m.loaded || len(m.report.Rows) == 0 {
			return fitLines("No results found.", m.width, height)
		}
		return fitLines(m.results.View(), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func renderOverview(r report.Report, width int) string {
	if len(r.Rows) == 0 {
		return "No results found."
	}
	s := r.Summary
	cards := []string{
		metricCard("CGPA", fmt.Sprintf("%.2f", s.Rounded())),
		metricCard("Class", string(s.Classification)),
		metricCard("Units", strconv.Itoa(s.TotalUnits)),
		metricCard("Quality Points", fmt.Sprintf("%.2f", s.TotalQualityPoints)),
		metricCard("Standing", severityText(r.Standing.Severity(), r.Standing.String())),
	}
	var summary string
	if width < 80 {
		summary = strings.Join(cards, "\n")
	} else {
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4])
		summary = lipgloss.JoinVertical(lipgloss.Left, row1, row2)
	}
	if s.Excluded > 0 {
		summary += "\n" + headerStyle.Render(fmt.Sprintf("%d result(s) excluded from CGPA (ungraded or no units).", s.Excluded))
	}

	var buf bytes.Buffer
	if err := report.RenderProgression(&buf, r.Progression, r.MaxPoint, width, plotHeight, true); err != nil {
		return summary + "\n\n" + fmt.Sprintf("Failed to render progression: %v", err)
	}
	return strings.TrimRight(summary+"\n\n"+buf.String(), "\n")
}

func resultColumns() []table.Column {
	return []table.Column{
		{Title: "Code", Width: 9},
		{Title: "Title", Width: 24},
		{Title: "Unit", Width: 4},
		{Title: "Grade", Width: 5},
		{Title: "QP", Width: 6},
		{Title: "Remark", Width: 10},
		{Title: "Status", Width: 7},
	}
}

func resultRows(rows []report.Row) []table.Row {
	out := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		qp := "-"
		if r.Counted {
			qp = fmt.Sprintf("%.2f", r.QualityPoints)
		}
		out = append(out, table.Row{
			r.CourseCode,
			r.Title,
			strconv.Itoa(r.Unit),
			r.Grade,
			qp,
			r.Remark.Label,
			r.Remark.Severity.String(),
		})
	}
	return out
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.filterInputs[filterStudent].SetValue(m.query.Student)
	m.filterInputs[filterSince].SetValue("")
	if m.query.Since != nil {
		m.filterInputs[filterSince].SetValue(m.query.Since.Format("2006-01-02"))
	}
	m.filterInputs[filterLast].SetValue("")
	if m.query.Last > 0 {
		m.filterInputs[filterLast].SetValue(strconv.Itoa(m.query.Last))
	}
	return m, focusIndex(m.filterInputs, &m.filterIndex, 0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		q, err := parseFilter(m.filterInputs)
		if err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.query = q
		m.filterMode = false
		m.filterError = ""
		m.refreshReport()
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, focusIndex(m.filterInputs, &m.filterIndex, m.filterIndex+1)
	case tea.KeyShiftTab:
		return m, focusIndex(m.filterInputs, &m.filterIndex, m.filterIndex-1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func parseFilter(inputs []textinput.Model) (model.ResultQuery, error) {
	student := strings.TrimSpace(inputs[filterStudent].Value())
	if student == "" {
		return model.ResultQuery{}, fmt.Errorf("student is required")
	}
	q := model.ResultQuery{Student: student}
	if v := strings.TrimSpace(inputs[filterSince].Value()); v != "" {
		parsed, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			return model.ResultQuery{}, fmt.Errorf("invalid since date (expected YYYY-MM-DD)")
		}
		q.Since = &parsed
	}
	if v := strings.TrimSpace(inputs[filterLast].Value()); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return model.ResultQuery{}, fmt.Errorf("invalid last value (use 0 or positive integer)")
		}
		q.Last = parsed
	}
	return q, nil
}

func focusIndex(inputs []textinput.Model, index *int, idx int) tea.Cmd {
	count := len(inputs)
	if count == 0 {
		return nil
	}
	idx = (idx + count) % count
	*index = idx
	var cmd tea.Cmd
	for i := range inputs {
		if i == idx {
			cmd = inputs[i].Focus()
		} else {
			inputs[i].Blur()
		}
	}
	return cmd
}

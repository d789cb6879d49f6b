package transcriptui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func (m *Model) startProject() (tea.Model, tea.Cmd) {
	m.projectMode = true
	m.projectError = ""
	return m, focusIndex(m.projectInputs, &m.projectIndex, 0)
}

func (m *Model) updateProject(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.projectMode = false
		m.projectError = ""
		return m, nil
	case tea.KeyEnter:
		p, err := m.project()
		if err != nil {
			m.projectError = err.Error()
			return m, nil
		}
		m.projected = p
		m.projectMode = false
		m.projectError = ""
		m.renderTabContents()
		return m, nil
	case tea.KeyTab, tea.KeyDown:
		return m, focusIndex(m.projectInputs, &m.projectIndex, m.projectIndex+1)
	case tea.KeyShiftTab, tea.KeyUp:
		return m, focusIndex(m.projectInputs, &m.projectIndex, m.projectIndex-1)
	}
	var cmd tea.Cmd
	m.projectInputs[m.projectIndex], cmd = m.projectInputs[m.projectIndex].Update(msg)
	return m, cmd
}

func (m *Model) project() (*projection, error) {
	next, err := strconv.Atoi(strings.TrimSpace(m.projectInputs[projectNextUnits].Value()))
	if err != nil || next <= 0 {
		return nil, fmt.Errorf("next units must be a positive integer")
	}
	maxPoint := m.eng.Scale().MaxPoint
	expected, err := strconv.ParseFloat(strings.TrimSpace(m.projectInputs[projectExpected].Value()), 64)
	if err != nil || expected < 0 || expected > maxPoint {
		return nil, fmt.Errorf("expected GPA must be between 0 and %.1f", maxPoint)
	}
	cgpa := m.eng.ProjectFrom(m.report.Summary, expected, next)
	return &projection{
		nextUnits: next,
		expected:  expected,
		cgpa:      cgpa,
		class:     m.eng.Classify(cgpa),
		standing:  m.eng.Standing(cgpa),
	}, nil
}

func (m *Model) renderProjection() string {
	s := m.report.Summary
	lines := []string{
		fmt.Sprintf("Current CGPA: %.2f over %d units (%s)", s.Rounded(), s.TotalUnits, s.Classification),
		"",
	}
	if m.projected == nil {
		lines = append(lines, headerStyle.Render("Press Enter to project the next semester."))
		return strings.Join(lines, "\n")
	}
	p := m.projected
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		metricCard("Projected CGPA", fmt.Sprintf("%.2f", p.cgpa)),
		metricCard("Class", string(p.class)),
		metricCard("Standing", severityText(p.standing.Severity(), p.standing.String())),
	)
	lines = append(lines,
		fmt.Sprintf("After %d more units at %.2f:", p.nextUnits, p.expected),
		cards,
	)
	return strings.Join(lines, "\n")
}

func (m *Model) renderProjectModal() string {
	body := []string{cardValueStyle.Render("Project Next Semester")}
	for _, input := range m.projectInputs {
		body = append(body, input.View())
	}
	body = append(body, headerStyle.Render("Enter to apply / Esc to cancel"))
	if m.projectError != "" {
		body = append(body, errorStyle.Render(m.projectError))
	}
	box := modalStyle.Width(modalWidth(m.width)).Render(strings.Join(body, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

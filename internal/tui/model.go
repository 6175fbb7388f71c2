package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joshharrison/pertloom/internal/forecast"
	"github.com/joshharrison/pertloom/internal/pert"
	"github.com/joshharrison/pertloom/internal/session"
	"github.com/joshharrison/pertloom/internal/task"
)

var (
	titleStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	headerStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Bold(true)
	itemStyle         = lipgloss.NewStyle().PaddingLeft(2)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("12")).Bold(true)
	resultStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	undefinedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	statusStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	errorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type mode int

const (
	modeList mode = iota
	modeTaskForm
	modeTargetForm
)

// TargetStep is how far +/- move the target time.
const TargetStep = 1.0

var fieldLabels = []string{"name", "optimistic", "realistic", "pessimistic"}

// Model is the interactive task editor. It edits the Session in place.
type Model struct {
	sess     *session.Session
	decimals int

	mode    mode
	cursor  int
	editing int // row being edited, -1 when adding

	inputs      []textinput.Model
	focus       int
	targetInput textinput.Model

	target   float64
	result   *pert.Result
	status   string
	isError  bool
	quitting bool
}

// NewModel creates a Model over sess with an initial target time.
func NewModel(sess *session.Session, target float64, decimals int) Model {
	inputs := make([]textinput.Model, len(fieldLabels))
	for i, l := range fieldLabels {
		in := textinput.New()
		in.Placeholder = l
		in.Prompt = fmt.Sprintf("%-13s", l+":")
		in.CharLimit = 64
		inputs[i] = in
	}

	ti := textinput.New()
	ti.Prompt = "target time: "
	ti.CharLimit = 32

	return Model{
		sess:        sess,
		decimals:    decimals,
		editing:     -1,
		inputs:      inputs,
		targetInput: ti,
		target:      target,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch m.mode {
	case modeTaskForm:
		return m.updateTaskForm(key)
	case modeTargetForm:
		return m.updateTargetForm(key)
	}
	return m.updateList(key)
}

func (m Model) updateList(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := m.sess.Len()

	switch key.String() {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < n-1 {
			m.cursor++
		}

	case "a":
		m.editing = -1
		return m, m.openTaskForm(task.Task{})

	case "e", "enter":
		t, err := m.sess.Get(m.cursor)
		if err != nil {
			m.setError("no task selected")
			return m, nil
		}
		m.editing = m.cursor
		return m, m.openTaskForm(t)

	case "d", "x":
		t, err := m.sess.Get(m.cursor)
		if err != nil {
			m.setError("no task selected")
			return m, nil
		}
		if err := m.sess.RemoveAt(m.cursor); err != nil {
			m.setError(err.Error())
			return m, nil
		}
		if m.cursor >= m.sess.Len() && m.cursor > 0 {
			m.cursor--
		}
		m.result = nil
		m.setStatus(fmt.Sprintf("deleted %s", t.Name))

	case "r":
		m.sess.Reset()
		m.cursor = 0
		m.result = nil
		m.setStatus("all tasks removed")

	case "+", "=":
		m.target += TargetStep
		m.result = nil

	case "-", "_":
		m.target -= TargetStep
		m.result = nil

	case "t":
		m.mode = modeTargetForm
		m.targetInput.SetValue(strconv.FormatFloat(m.target, 'g', -1, 64))
		m.targetInput.CursorEnd()
		return m, m.targetInput.Focus()

	case "c":
		r := m.sess.Calculate(m.target)
		m.result = &r
		m.setStatus("")
	}

	return m, nil
}

func (m *Model) openTaskForm(t task.Task) tea.Cmd {
	m.mode = modeTaskForm
	m.focus = 0
	values := []string{"", "", "", ""}
	if m.editing >= 0 {
		values = []string{t.Name, formatNumber(t.Optimistic), formatNumber(t.Realistic), formatNumber(t.Pessimistic)}
	}
	for i := range m.inputs {
		m.inputs[i].SetValue(values[i])
		m.inputs[i].CursorEnd()
		m.inputs[i].Blur()
	}
	return m.inputs[0].Focus()
}

func (m Model) updateTaskForm(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "esc":
		m.closeTaskForm()
		m.setStatus("cancelled")
		return m, nil

	case "tab", "down":
		return m, m.moveFocus(1)

	case "shift+tab", "up":
		return m, m.moveFocus(-1)

	case "enter":
		if m.focus < len(m.inputs)-1 {
			return m, m.moveFocus(1)
		}
		m.submitTaskForm()
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(key)
	return m, cmd
}

func (m *Model) moveFocus(delta int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + len(m.inputs)) % len(m.inputs)
	return m.inputs[m.focus].Focus()
}

func (m *Model) submitTaskForm() {
	t, err := m.taskFromInputs()
	if err != nil {
		m.setError(err.Error())
		return
	}

	if m.editing >= 0 {
		if err := m.sess.ReplaceAt(m.editing, t); err != nil {
			m.setError(err.Error())
			return
		}
		m.setStatus(fmt.Sprintf("updated %s", t.Name))
	} else {
		index, err := m.sess.Add(t)
		if err != nil {
			m.setError(err.Error())
			return
		}
		m.cursor = index
		m.setStatus(fmt.Sprintf("added %s", t.Name))
	}
	m.result = nil
	m.closeTaskForm()
}

func (m *Model) closeTaskForm() {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	m.mode = modeList
	m.editing = -1
}

func (m Model) taskFromInputs() (task.Task, error) {
	var nums [3]float64
	for i := range nums {
		field := fieldLabels[i+1]
		raw := strings.TrimSpace(m.inputs[i+1].Value())
		if raw == "" {
			return task.Task{}, fmt.Errorf("%s time is required", field)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return task.Task{}, fmt.Errorf("%s time %q is not a number", field, raw)
		}
		nums[i] = v
	}
	return task.Parse(m.inputs[0].Value(), nums[0], nums[1], nums[2])
}

func (m Model) updateTargetForm(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "esc":
		m.targetInput.Blur()
		m.mode = modeList
		return m, nil

	case "enter":
		raw := strings.TrimSpace(m.targetInput.Value())
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			m.setError(fmt.Sprintf("target %q is not a number", raw))
			return m, nil
		}
		m.target = v
		m.result = nil
		m.targetInput.Blur()
		m.mode = modeList
		m.setStatus(fmt.Sprintf("target set to %s", formatNumber(v)))
		return m, nil
	}

	var cmd tea.Cmd
	m.targetInput, cmd = m.targetInput.Update(key)
	return m, cmd
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.isError = false
}

func (m *Model) setError(s string) {
	m.status = s
	m.isError = true
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("PERT completion estimator"))
	s.WriteString("\n\n")

	switch m.mode {
	case modeTaskForm:
		m.viewTaskForm(&s)
	case modeTargetForm:
		s.WriteString(m.targetInput.View())
		s.WriteString("\n\n")
		s.WriteString(helpStyle.Render("(enter to apply, esc to cancel)"))
		s.WriteString("\n")
	default:
		m.viewList(&s)
	}

	if m.status != "" {
		s.WriteString("\n")
		if m.isError {
			s.WriteString(errorStyle.Render(m.status))
		} else {
			s.WriteString(statusStyle.Render(m.status))
		}
		s.WriteString("\n")
	}
	return s.String()
}

func (m Model) viewList(s *strings.Builder) {
	tasks := m.sess.Snapshot()

	s.WriteString(headerStyle.Render(fmt.Sprintf("  %-24s %8s %8s %8s %8s %8s %8s",
		"Task", "O", "R", "P", "t", "σ", "V")))
	s.WriteString("\n")

	if len(tasks) == 0 {
		s.WriteString(itemStyle.Render("no tasks yet, press a to add one"))
		s.WriteString("\n")
	}
	for i, t := range tasks {
		line := fmt.Sprintf("%-24s %8s %8s %8s %8s %8s %8s",
			truncate(t.Name, 24),
			formatNumber(t.Optimistic), formatNumber(t.Realistic), formatNumber(t.Pessimistic),
			forecast.Fixed(t.ExpectedTime(), 3),
			forecast.Fixed(t.StandardDeviation(), 3),
			forecast.Fixed(t.Variance(), 3))
		if m.cursor == i {
			s.WriteString(selectedItemStyle.Render("> " + line))
		} else {
			s.WriteString(itemStyle.Render("  " + line))
		}
		s.WriteString("\n")
	}

	summary := pert.Aggregate(tasks)
	s.WriteString("\n")
	s.WriteString(fmt.Sprintf("  ∑t %s   ∑V %s   target %s\n",
		forecast.Fixed(summary.Expected, 3),
		forecast.Fixed(summary.Variance, 3),
		formatNumber(m.target)))

	if m.result != nil {
		label := fmt.Sprintf("  P(finish by %s) = %s", formatNumber(m.result.Target), m.result.Format(m.decimals))
		if m.result.Defined {
			s.WriteString(resultStyle.Render(label))
		} else {
			s.WriteString(undefinedStyle.Render(label + "  (total variance is zero)"))
		}
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("(a add, e edit, d delete, r reset, +/- or t target, c calculate, q quit)"))
	s.WriteString("\n")
}

func (m Model) viewTaskForm(s *strings.Builder) {
	heading := "Add task"
	if m.editing >= 0 {
		heading = fmt.Sprintf("Edit task %d", m.editing+1)
	}
	s.WriteString(headerStyle.Render(heading))
	s.WriteString("\n\n")
	for _, in := range m.inputs {
		s.WriteString(in.View())
		s.WriteString("\n")
	}
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("(tab to move, enter on the last field to save, esc to cancel)"))
	s.WriteString("\n")
}

// Target returns the current target time.
func (m Model) Target() float64 {
	return m.target
}

// Result returns the last calculation, or nil if none is current.
func (m Model) Result() *pert.Result {
	return m.result
}

// Run starts the editor over sess and blocks until the user quits.
func Run(sess *session.Session, target float64, decimals int) error {
	p := tea.NewProgram(NewModel(sess, target, decimals))
	_, err := p.Run()
	return err
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

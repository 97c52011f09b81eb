// Package tui is an interactive terminal explorer: pick a model, edit its
// parameters, solve it and read the plot and indicators.
package tui

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/popdyn/internal/config"
	"github.com/san-kum/popdyn/internal/experiment"
	"github.com/san-kum/popdyn/internal/field"
	"github.com/san-kum/popdyn/internal/viz"
)

const solveTimeout = 30 * time.Second

var modelInfo = map[string]string{
	"sir":                  "epidemic, frequency-dependent",
	"seir":                 "epidemic with incubation",
	"rumor":                "rumor spreading, mass action",
	"harvest":              "logistic growth with harvest",
	"logistic":             "bounded growth, closed form",
	"exponential":          "unbounded growth, closed form",
	experiment.FieldModel: "planar direction field",
}

var integratorCycle = []string{"rk45", "rk4", "euler"}

const (
	stateMenu = iota
	stateConfig
	stateResult
)

type solvedMsg struct {
	resp *experiment.Response
	err  error
}

type fieldMsg struct {
	sample *field.Sample
	err    error
}

type model struct {
	reg *experiment.Registry

	state, cursor int
	entries       []string
	selected      string

	req      experiment.Request
	fieldReq *experiment.FieldRequest

	paramNames  []string
	paramCursor int
	editing     bool
	editBuf     string
	presets     []string
	presetIdx   int

	solving bool
	resp    *experiment.Response
	sample  *field.Sample
	err     error

	width, height int
}

func newModel(reg *experiment.Registry) model {
	return model{
		reg:     reg,
		state:   stateMenu,
		entries: append(reg.ListModels(), experiment.FieldModel),
		width:   100,
		height:  30,
	}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case solvedMsg:
		m.solving = false
		m.resp, m.sample, m.err = msg.resp, nil, msg.err
		m.state = stateResult
	case fieldMsg:
		m.solving = false
		m.resp, m.sample, m.err = nil, msg.sample, msg.err
		m.state = stateResult
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateConfig:
		return m.configKey(msg)
	case stateResult:
		return m.resultKey(msg)
	}
	return m, nil
}

func (m model) menuKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
	case "t":
		viz.SetTheme(viz.NextTheme())
	case "enter", " ":
		m.selected = m.entries[m.cursor]
		m.state, m.paramCursor, m.err = stateConfig, 0, nil
		m.presets = config.ListPresets(m.selected)
		m.presetIdx = -1
		m.load(m.selected, "")
	}
	return m, nil
}

// load replaces the current request with the defaults or a preset.
func (m *model) load(name, preset string) {
	var err error
	if name == experiment.FieldModel {
		if preset == "" {
			m.fieldReq = m.reg.NewField()
		} else {
			m.fieldReq, err = m.reg.FieldPreset(preset)
		}
		m.req = nil
	} else {
		if preset == "" {
			m.req, err = m.reg.New(name)
		} else {
			m.req, err = m.reg.Preset(name, preset)
		}
		m.fieldReq = nil
	}
	m.err = err
	m.paramNames = m.names()
	if m.paramCursor >= len(m.paramNames) {
		m.paramCursor = 0
	}
}

func (m model) names() []string {
	if m.fieldReq != nil {
		return []string{"expr_dx", "expr_dy", "range_x", "range_y", "resolution"}
	}
	if m.req == nil {
		return nil
	}
	params := m.req.GetParams()
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m model) value(name string) string {
	if m.fieldReq != nil {
		f := m.fieldReq
		switch name {
		case "expr_dx":
			return f.DX
		case "expr_dy":
			return f.DY
		case "range_x":
			return strconv.FormatFloat(f.RangeX, 'g', 6, 64)
		case "range_y":
			return strconv.FormatFloat(f.RangeY, 'g', 6, 64)
		case "resolution":
			return strconv.Itoa(f.Resolution)
		}
		return ""
	}
	return strconv.FormatFloat(m.req.GetParams()[name], 'g', 6, 64)
}

func (m *model) setValue(name, raw string) error {
	if m.fieldReq != nil {
		return setFieldParam(m.fieldReq, name, raw)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("%s: %q is not a number", name, raw)
	}
	return m.req.SetParam(name, v)
}

func setFieldParam(f *experiment.FieldRequest, name, raw string) error {
	switch name {
	case "expr_dx":
		f.DX = raw
		return nil
	case "expr_dy":
		f.DY = raw
		return nil
	case "resolution":
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("resolution: %q is not an integer", raw)
		}
		f.Resolution = n
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("%s: %q is not a number", name, raw)
	}
	switch name {
	case "range_x":
		f.RangeX = v
	case "range_y":
		f.RangeY = v
	default:
		return fmt.Errorf("unknown parameter %q", name)
	}
	return nil
}

func (m model) configKey(msg tea.KeyMsg) (model, tea.Cmd) {
	if m.editing {
		switch msg.Type {
		case tea.KeyEnter:
			m.err = m.setValue(m.paramNames[m.paramCursor], m.editBuf)
			m.editing, m.editBuf = false, ""
			// Setting one parameter can change others (population rescales).
			m.paramNames = m.names()
		case tea.KeyEsc:
			m.editing, m.editBuf = false, ""
		case tea.KeyBackspace:
			if r := []rune(m.editBuf); len(r) > 0 {
				m.editBuf = string(r[:len(r)-1])
			}
		case tea.KeySpace:
			m.editBuf += " "
		case tea.KeyRunes:
			m.editBuf += string(msg.Runes)
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "esc":
		m.state = stateMenu
	case "up", "k":
		if m.paramCursor > 0 {
			m.paramCursor--
		}
	case "down", "j":
		if m.paramCursor < len(m.paramNames)-1 {
			m.paramCursor++
		}
	case "enter", "e":
		if len(m.paramNames) > 0 {
			m.editing, m.editBuf = true, m.value(m.paramNames[m.paramCursor])
		}
	case "p":
		if len(m.presets) > 0 {
			m.presetIdx = (m.presetIdx + 1) % len(m.presets)
			m.load(m.selected, m.presets[m.presetIdx])
		}
	case "d":
		m.presetIdx = -1
		m.load(m.selected, "")
	case "i":
		if m.req != nil {
			opts := m.req.SolverOptions()
			opts.Integrator = nextIntegrator(opts.Integrator)
		}
	case "s":
		return m, m.solve()
	}
	return m, nil
}

func (m model) resultKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc", "e":
		m.state = stateConfig
	case "t":
		viz.SetTheme(viz.NextTheme())
	case "r":
		return m, m.solve()
	}
	return m, nil
}

func (m *model) solve() tea.Cmd {
	m.solving = true
	if m.fieldReq != nil {
		req := *m.fieldReq
		return func() tea.Msg {
			s, err := req.Evaluate()
			return fieldMsg{sample: s, err: err}
		}
	}
	if m.req == nil {
		m.solving = false
		return nil
	}
	req := m.req.Clone()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), solveTimeout)
		defer cancel()
		resp, err := req.Solve(ctx)
		return solvedMsg{resp: resp, err: err}
	}
}

func nextIntegrator(current string) string {
	if current == "" {
		current = config.DefaultIntegrator
	}
	for i, name := range integratorCycle {
		if name == current {
			return integratorCycle[(i+1)%len(integratorCycle)]
		}
	}
	return integratorCycle[0]
}

func (m model) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateConfig:
		return m.viewConfig()
	case stateResult:
		return m.viewResult()
	}
	return ""
}

func (m model) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n\n    " + viz.Title.Render("POPDYN") + "\n    " + viz.Subtle.Render("population dynamics explorer") + "\n    " + viz.Separator(28) + "\n\n")
	for i, name := range m.entries {
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", viz.Selected.Render("▸"), viz.Selected.Render(fmt.Sprintf("%-12s", name)), viz.MetricValue.Render(modelInfo[name])))
		} else {
			b.WriteString(fmt.Sprintf("      %s  %s\n", viz.Subtle.Render(fmt.Sprintf("%-12s", name)), viz.Subtle.Render(modelInfo[name])))
		}
	}
	b.WriteString("\n    " + viz.Hints("j/k", "navigate", "enter", "select", "t", "theme", "q", "quit") + "\n")
	return b.String()
}

func (m model) viewConfig() string {
	var b strings.Builder
	b.WriteString("\n\n    " + viz.Title.Render(strings.ToUpper(m.selected)) + "\n    " + viz.Subtle.Render(modelInfo[m.selected]))
	if m.presetIdx >= 0 && m.presetIdx < len(m.presets) {
		b.WriteString(viz.Subtle.Render("  preset ") + viz.MetricValue.Render(m.presets[m.presetIdx]))
	}
	if m.req != nil {
		integ := m.req.SolverOptions().Integrator
		if integ == "" {
			integ = m.reg.Config().Solver.Integrator
		}
		b.WriteString(viz.Subtle.Render("  integrator ") + viz.MetricValue.Render(integ))
	}
	b.WriteString("\n    " + viz.Separator(28) + "\n\n")

	for i, name := range m.paramNames {
		val := m.value(name)
		if m.editing && i == m.paramCursor {
			val = m.editBuf + "_"
		}
		if i == m.paramCursor {
			b.WriteString(fmt.Sprintf("    %s %s %s\n", viz.Selected.Render("▸"), viz.Selected.Render(fmt.Sprintf("%-12s", name)), viz.MetricValue.Render(val)))
		} else {
			b.WriteString(fmt.Sprintf("      %s %s\n", viz.Subtle.Render(fmt.Sprintf("%-12s", name)), viz.MetricLabel.Render(val)))
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + viz.ErrorText.Render(m.err.Error()) + "\n")
	}
	if m.solving {
		b.WriteString("\n    " + viz.Subtle.Render("solving...") + "\n")
	}
	b.WriteString("\n    " + viz.Hints("j/k", "select", "enter", "edit", "p", "preset", "d", "defaults", "i", "integrator", "s", "solve", "esc", "back") + "\n")
	return b.String()
}

func (m model) viewResult() string {
	var b strings.Builder
	b.WriteString("\n")
	switch {
	case m.err != nil:
		b.WriteString("  " + viz.ErrorText.Render(m.err.Error()) + "\n")
	case m.resp != nil:
		b.WriteString(viz.Trajectory(m.resp, max(m.width-20, 20), max(m.height-18, 8)) + "\n\n")
		b.WriteString(viz.Summary(m.resp))
	case m.sample != nil:
		b.WriteString(viz.Field(m.sample, max(m.width-10, 20), max(m.height-8, 10)) + "\n")
	}
	b.WriteString("\n  " + viz.Hints("e", "edit", "r", "re-run", "t", "theme", "q", "quit") + "\n")
	return b.String()
}

// Run starts the explorer on the alternate screen.
func Run(reg *experiment.Registry) error {
	_, err := tea.NewProgram(newModel(reg), tea.WithAltScreen()).Run()
	return err
}

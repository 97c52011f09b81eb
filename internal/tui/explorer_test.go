package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/popdyn/internal/experiment"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m model, msgs ...tea.Msg) (model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(model)
	}
	return m, cmd
}

func selectEntry(t *testing.T, m model, name string) model {
	t.Helper()
	for i, e := range m.entries {
		if e == name {
			m.cursor = i
			m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
			return m
		}
	}
	t.Fatalf("entry %q not in menu %v", name, m.entries)
	return m
}

func TestMenuListsModelsAndField(t *testing.T) {
	m := newModel(experiment.NewRegistry(nil))
	if got := m.entries[len(m.entries)-1]; got != experiment.FieldModel {
		t.Errorf("last entry = %q, want field", got)
	}
	if len(m.entries) != 7 {
		t.Errorf("entries = %v", m.entries)
	}

	m, _ = press(t, m, runes("j"), runes("j"), runes("k"))
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}
	if !strings.Contains(m.View(), "POPDYN") {
		t.Error("menu view missing title")
	}
}

func TestQuitFromMenu(t *testing.T) {
	m := newModel(experiment.NewRegistry(nil))
	_, cmd := press(t, m, runes("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestEditParameter(t *testing.T) {
	m := selectEntry(t, newModel(experiment.NewRegistry(nil)), "sir")
	if m.state != stateConfig {
		t.Fatalf("state = %d, want config", m.state)
	}
	if m.paramNames[0] != "beta" {
		t.Fatalf("first parameter = %q, want beta", m.paramNames[0])
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.editing {
		t.Fatal("enter did not start editing")
	}
	for range m.editBuf {
		m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	}
	m, _ = press(t, m, runes("0"), runes("."), runes("5"), tea.KeyMsg{Type: tea.KeyEnter})

	if m.err != nil {
		t.Fatalf("edit failed: %v", m.err)
	}
	if got := m.req.GetParams()["beta"]; got != 0.5 {
		t.Errorf("beta = %v, want 0.5", got)
	}
}

func TestEditRejectsGarbage(t *testing.T) {
	m := selectEntry(t, newModel(experiment.NewRegistry(nil)), "sir")
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter}, runes("x"), tea.KeyMsg{Type: tea.KeyEnter})
	if m.err == nil {
		t.Error("expected a parse error")
	}
}

func TestEscCancelsEdit(t *testing.T) {
	m := selectEntry(t, newModel(experiment.NewRegistry(nil)), "sir")
	before := m.req.GetParams()["beta"]
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter}, runes("9"), tea.KeyMsg{Type: tea.KeyEsc})
	if m.editing {
		t.Error("still editing after esc")
	}
	if got := m.req.GetParams()["beta"]; got != before {
		t.Errorf("beta = %v, want unchanged %v", got, before)
	}
}

func TestCycleIntegratorAndPreset(t *testing.T) {
	m := selectEntry(t, newModel(experiment.NewRegistry(nil)), "sir")

	m, _ = press(t, m, runes("i"))
	if got := m.req.SolverOptions().Integrator; got != "rk4" {
		t.Errorf("integrator = %q, want rk4", got)
	}

	m, _ = press(t, m, runes("p"))
	if got := m.presets[m.presetIdx]; got != "classic" {
		t.Errorf("preset = %q, want classic", got)
	}
	if got := m.req.GetParams()["population"]; got != 1000 {
		t.Errorf("population = %v, want 1000", got)
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.state != stateMenu {
		t.Errorf("state = %d, want menu", m.state)
	}
}

func TestSolveShowsResult(t *testing.T) {
	m := selectEntry(t, newModel(experiment.NewRegistry(nil)), "sir")
	m, cmd := press(t, m, runes("s"))
	if cmd == nil {
		t.Fatal("s returned no command")
	}
	if !m.solving {
		t.Error("not marked as solving")
	}

	m, _ = press(t, m, cmd())
	if m.state != stateResult {
		t.Fatalf("state = %d, want result", m.state)
	}
	if m.err != nil {
		t.Fatalf("solve failed: %v", m.err)
	}
	if m.resp == nil || m.resp.Model != "sir" {
		t.Fatalf("resp = %+v", m.resp)
	}
	if m.View() == "" {
		t.Error("empty result view")
	}

	m, _ = press(t, m, runes("e"))
	if m.state != stateConfig {
		t.Errorf("state = %d, want config", m.state)
	}
}

func TestFieldMode(t *testing.T) {
	m := selectEntry(t, newModel(experiment.NewRegistry(nil)), experiment.FieldModel)
	if m.fieldReq == nil {
		t.Fatal("no field request")
	}
	if m.paramNames[0] != "expr_dx" {
		t.Fatalf("params = %v", m.paramNames)
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	for range m.editBuf {
		m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	}
	m, _ = press(t, m, runes("X"), tea.KeyMsg{Type: tea.KeySpace}, runes("*"), runes("2"), tea.KeyMsg{Type: tea.KeyEnter})
	if m.fieldReq.DX != "X *2" {
		t.Errorf("dx = %q", m.fieldReq.DX)
	}

	m, cmd := press(t, m, runes("s"))
	m, _ = press(t, m, cmd())
	if m.err != nil {
		t.Fatalf("evaluate failed: %v", m.err)
	}
	if m.sample == nil {
		t.Fatal("no field sample")
	}
}

func TestNextIntegrator(t *testing.T) {
	cases := map[string]string{"": "rk4", "rk45": "rk4", "rk4": "euler", "euler": "rk45", "bogus": "rk45"}
	for in, want := range cases {
		if got := nextIntegrator(in); got != want {
			t.Errorf("nextIntegrator(%q) = %q, want %q", in, got, want)
		}
	}
}

package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Shared styles, rebuilt from the current theme by SetTheme.
var (
	Title       lipgloss.Style
	Subtle      lipgloss.Style
	Selected    lipgloss.Style
	MetricLabel lipgloss.Style
	MetricValue lipgloss.Style
	KeyHint     lipgloss.Style
	KeyName     lipgloss.Style
	ErrorText   lipgloss.Style
	Good        lipgloss.Style
	Warn        lipgloss.Style
	Panel       lipgloss.Style
)

func init() {
	applyTheme(CurrentTheme)
}

func applyTheme(t Theme) {
	Title = lipgloss.NewStyle().Bold(true).Foreground(t.Primary)
	Subtle = lipgloss.NewStyle().Foreground(t.Muted)
	Selected = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)
	MetricLabel = lipgloss.NewStyle().Foreground(t.Muted)
	MetricValue = lipgloss.NewStyle().Bold(true).Foreground(t.Secondary)
	KeyHint = lipgloss.NewStyle().Italic(true).Foreground(t.Muted)
	KeyName = lipgloss.NewStyle().Bold(true).Foreground(t.Primary)
	ErrorText = lipgloss.NewStyle().Bold(true).Foreground(t.Error)
	Good = lipgloss.NewStyle().Bold(true).Foreground(t.Success)
	Warn = lipgloss.NewStyle().Bold(true).Foreground(t.Warning)
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Muted).
		Padding(0, 1)
}

// SparklineChart renders a one-line sparkline of values, sampled down to
// width characters.
func SparklineChart(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	step := len(values) / width
	if step < 1 {
		step = 1
	}

	var b strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / rng
		idx := int(norm * float64(len(chars)-1))
		idx = max(0, min(idx, len(chars)-1))
		b.WriteRune(chars[idx])
	}
	return b.String()
}

// Hints renders key bindings as "key action" pairs.
func Hints(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(KeyName.Render(pairs[i]) + " " + KeyHint.Render(pairs[i+1]))
	}
	return b.String()
}

func Separator(width int) string {
	if width < 8 {
		return Subtle.Render(strings.Repeat("─", max(width, 0)))
	}
	mid := width / 2
	return Subtle.Render(strings.Repeat("─", mid-3) + " ◆ " + strings.Repeat("─", width-mid-3))
}

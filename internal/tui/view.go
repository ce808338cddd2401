package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/docker/go-units"

	"github.com/liangyou/mcvm/internal/browser"
	"github.com/liangyou/mcvm/pkg/models"
)

var (
	accentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	dimStyle      = lipgloss.NewStyle().Faint(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	stableStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	dialogStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("196")).
			Padding(1, 2)
)

const helpList = "↑/↓ move • enter select • / filter • r refresh • esc back • q quit"

// View 实现 tea.Model。
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.heading()))
	b.WriteString("\n\n")

	if m.state.Blocked() {
		b.WriteString(dialogStyle.Render(m.state.Dialog + "\n\n" + dimStyle.Render("enter to dismiss")))
		b.WriteString("\n")
		return b.String()
	}

	switch m.state.Screen {
	case browser.ScreenSources:
		m.renderSources(&b)
	case browser.ScreenGames:
		m.renderEntries(&b, m.state.VisibleGames(), m.state.Pending(browser.KindGames))
	case browser.ScreenVariants:
		m.renderEntries(&b, m.state.VisibleVariants(), m.state.Pending(browser.KindVariants))
	case browser.ScreenDetails:
		m.renderDetails(&b)
	case browser.ScreenSave:
		m.renderSave(&b)
	case browser.ScreenDownload:
		m.renderDownload(&b)
	}

	if m.state.Status != "" {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(m.state.Status))
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) heading() string {
	parts := []string{"mcvm"}
	if m.state.Screen > browser.ScreenSources && m.state.SourceTitle != "" {
		parts = append(parts, m.state.SourceTitle)
	}
	if m.state.Screen > browser.ScreenGames && m.state.Game != "" {
		parts = append(parts, m.state.Game)
	}
	if m.state.Screen > browser.ScreenVariants && m.state.Variant.Label() != "" {
		parts = append(parts, m.state.Variant.Label())
	}
	return strings.Join(parts, " › ")
}

func (m Model) renderSources(b *strings.Builder) {
	for i, src := range m.sources {
		b.WriteString(m.line(i, src.Title))
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("↑/↓ move • enter select • q quit"))
}

func (m Model) renderEntries(b *strings.Builder, list []models.Entry, loading bool) {
	if m.filtering || m.state.Filter != "" {
		b.WriteString(m.filter.View())
		b.WriteString("\n\n")
	}
	if loading {
		b.WriteString(m.spinner.View() + " Loading...\n")
		return
	}
	if len(list) == 0 {
		b.WriteString(dimStyle.Render("No versions.") + "\n")
	}

	cursor := m.cursors[m.state.Screen]
	start, end := window(cursor, len(list), m.listHeight())
	for i := start; i < end; i++ {
		e := list[i]
		label := e.Label()
		if e.Stable {
			label += " " + stableStyle.Render("stable")
		} else if e.Kind != "" {
			label += " " + dimStyle.Render(e.Kind)
		}
		b.WriteString(m.line(i, label))
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(helpList))
}

func (m Model) renderDetails(b *strings.Builder) {
	switch {
	case m.state.Pending(browser.KindDetails):
		b.WriteString(m.spinner.View() + " Loading details...\n")
	case m.state.DetailErr != "":
		b.WriteString(errorStyle.Render(m.state.DetailErr) + "\n")
	default:
		d := m.state.Details
		if d.Title != "" {
			b.WriteString(selectedStyle.Render(d.Title) + "\n\n")
		}
		for _, line := range d.Lines {
			b.WriteString(line + "\n")
		}
		if m.state.ShowTechnical {
			b.WriteString("\n")
			for _, line := range d.Technical {
				b.WriteString(dimStyle.Render(line) + "\n")
			}
		}
		for _, a := range d.Artifacts {
			size := ""
			if a.Size > 0 {
				size = " (" + units.HumanSize(float64(a.Size)) + ")"
			}
			b.WriteString(fmt.Sprintf("\n• %s %s%s", a.Name, dimStyle.Render(a.FileName), size))
		}
		if len(d.Artifacts) > 0 {
			b.WriteString("\n")
		}
	}
	if m.state.Pending(browser.KindInstaller) {
		b.WriteString("\n" + m.spinner.View() + " Resolving installer...\n")
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("d download • t technical details • esc back • q quit"))
}

func (m Model) renderSave(b *strings.Builder) {
	a := m.state.Artifact
	b.WriteString(fmt.Sprintf("%s\n%s\n\n", a.Name, dimStyle.Render(a.URL)))
	b.WriteString(m.save.View())
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("enter save • esc cancel"))
}

func (m Model) renderDownload(b *strings.Builder) {
	d := m.state.Download
	b.WriteString(fmt.Sprintf("Downloading %s\n→ %s\n\n", d.Artifact.Name, d.Dest))
	p := d.Progress
	if f := p.Fraction(); f >= 0 {
		b.WriteString(m.bar.ViewAs(f))
		b.WriteString(fmt.Sprintf("\n%s / %s", units.BytesSize(float64(p.Downloaded)), units.BytesSize(float64(p.Total))))
	} else {
		b.WriteString(m.spinner.View() + " " + units.BytesSize(float64(p.Downloaded)))
	}
	b.WriteString("\n")
}

func (m Model) line(i int, text string) string {
	if i == m.cursors[m.state.Screen] {
		return selectedStyle.Render("› "+text) + "\n"
	}
	return "  " + text + "\n"
}

func (m Model) listHeight() int {
	h := m.height - 8
	if m.filtering || m.state.Filter != "" {
		h -= 2
	}
	if h < 3 {
		h = 3
	}
	return h
}

// window 返回以 cursor 为中心、长度不超过 size 的可见区间。
func window(cursor, n, size int) (int, int) {
	if n <= size {
		return 0, n
	}
	start := cursor - size/2
	if start < 0 {
		start = 0
	}
	if start+size > n {
		start = n - size
	}
	return start, start + size
}

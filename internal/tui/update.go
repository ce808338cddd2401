package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/liangyou/mcvm/internal/browser"
	"github.com/liangyou/mcvm/internal/download"
)

// Update 实现 tea.Model。
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.bar.Width = clamp(msg.Width-10, 10, 80)
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case selectSourceMsg:
		return m.selectSource(msg.Name, msg.Title)
	case gamesMsg:
		m.state = m.state.ApplyGames(msg.req, msg.list, msg.err)
		m.clampCursor(browser.ScreenGames, len(m.state.VisibleGames()))
		return m, nil
	case variantsMsg:
		m.state = m.state.ApplyVariants(msg.req, msg.list, msg.err)
		m.clampCursor(browser.ScreenVariants, len(m.state.VisibleVariants()))
		return m, nil
	case detailsMsg:
		m.state = m.state.ApplyDetails(msg.req, msg.details, msg.err)
		return m, nil
	case installerMsg:
		m.state = m.state.ApplyInstaller(msg.req, msg.artifact, msg.err)
		if m.state.Screen == browser.ScreenSave {
			m.save.SetValue(m.defaultSavePath(m.state.SaveName))
			m.save.CursorEnd()
			return m, m.save.Focus()
		}
		return m, nil
	case progressMsg:
		m.state = m.state.ApplyProgress(msg.p)
		return m, waitJob(msg.job)
	case doneMsg:
		m.state = m.state.FinishDownload(msg.res)
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}
	if m.state.Blocked() {
		if key == "enter" || key == "esc" {
			m.state = m.state.Acknowledge()
		}
		return m, nil
	}
	if m.filtering {
		return m.handleFilterKey(msg)
	}
	switch m.state.Screen {
	case browser.ScreenSave:
		return m.handleSaveKey(msg)
	case browser.ScreenDownload:
		if key == "q" {
			return m, tea.Quit
		}
		return m, nil
	}

	switch key {
	case "q":
		return m, tea.Quit
	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case "home", "g":
		m.cursors[m.state.Screen] = 0
	case "end", "G":
		m.cursors[m.state.Screen] = m.listLen() - 1
		m.clampCursor(m.state.Screen, m.listLen())
	case "esc", "backspace", "left", "h":
		m.state = m.state.Back()
	case "/":
		if m.state.Screen == browser.ScreenGames || m.state.Screen == browser.ScreenVariants {
			m.filtering = true
			m.filter.SetValue(m.state.Filter)
			return m, m.filter.Focus()
		}
	case "r":
		next, req, ok := m.state.Refresh()
		if ok {
			m.catalog.Invalidate()
			m.state = next
			return m, m.fetch(req)
		}
	case "t":
		m.state = m.state.ToggleTechnical()
	case "d":
		return m.requestInstaller()
	case "enter", "right", "l":
		return m.activate()
	}
	return m, nil
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.filtering = false
		m.filter.Blur()
		return m, nil
	case "esc":
		m.filtering = false
		m.filter.Blur()
		m.filter.SetValue("")
		m.state = m.state.SetFilter("")
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.state = m.state.SetFilter(m.filter.Value())
	m.cursors[m.state.Screen] = 0
	return m, cmd
}

func (m Model) handleSaveKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.save.Blur()
		m.state = m.state.CancelSave()
		return m, nil
	case "enter":
		dest := download.ResolveDest(m.save.Value(), m.downloadDir, m.state.SaveName)
		next, ok := m.state.StartDownload(dest)
		if !ok {
			return m, nil
		}
		m.save.Blur()
		m.state = next
		a := next.Download.Artifact
		job := m.downloader.Start(m.ctx, download.Request{
			URL:          a.URL,
			Dest:         dest,
			Checksum:     a.Checksum,
			ChecksumType: a.ChecksumType,
			Size:         a.Size,
		})
		return m, waitJob(job)
	}
	var cmd tea.Cmd
	m.save, cmd = m.save.Update(msg)
	return m, cmd
}

func (m Model) activate() (tea.Model, tea.Cmd) {
	i := m.cursors[m.state.Screen]
	switch m.state.Screen {
	case browser.ScreenSources:
		if i < len(m.sources) {
			return m.selectSource(m.sources[i].Name, m.sources[i].Title)
		}
	case browser.ScreenGames:
		games := m.state.VisibleGames()
		if i < len(games) {
			next, req, ok := m.state.SelectGame(games[i].ID)
			if ok {
				m.state = next
				m.cursors[browser.ScreenVariants] = 0
				return m, m.fetch(req)
			}
		}
	case browser.ScreenVariants:
		variants := m.state.VisibleVariants()
		if i < len(variants) {
			next, req, ok := m.state.SelectVariant(variants[i])
			if ok {
				m.state = next
				return m, m.fetch(req)
			}
		}
	case browser.ScreenDetails:
		return m.requestInstaller()
	}
	return m, nil
}

func (m Model) selectSource(name, title string) (tea.Model, tea.Cmd) {
	next, req, ok := m.state.SelectSource(name, title)
	if !ok {
		return m, nil
	}
	m.state = next
	m.cursors[browser.ScreenGames] = 0
	m.filter.SetValue("")
	return m, m.fetch(req)
}

func (m Model) requestInstaller() (tea.Model, tea.Cmd) {
	next, req, ok := m.state.RequestInstaller()
	if !ok {
		return m, nil
	}
	m.state = next
	return m, m.fetch(req)
}

func (m Model) listLen() int {
	switch m.state.Screen {
	case browser.ScreenSources:
		return len(m.sources)
	case browser.ScreenGames:
		return len(m.state.VisibleGames())
	case browser.ScreenVariants:
		return len(m.state.VisibleVariants())
	}
	return 0
}

func (m *Model) moveCursor(delta int) {
	m.cursors[m.state.Screen] += delta
	m.clampCursor(m.state.Screen, m.listLen())
}

func (m *Model) clampCursor(screen browser.Screen, n int) {
	m.cursors[screen] = clamp(m.cursors[screen], 0, n-1)
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package tui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/liangyou/mcvm/internal/browser"
	"github.com/liangyou/mcvm/internal/catalog"
	"github.com/liangyou/mcvm/internal/download"
	"github.com/liangyou/mcvm/pkg/models"
)

type fakeCatalog struct {
	games        []models.Entry
	variants     []models.Entry
	details      models.Details
	artifact     models.Artifact
	gamesErr     error
	installerErr error
	invalidated  int
}

func (f *fakeCatalog) Sources() []catalog.SourceInfo {
	return []catalog.SourceInfo{{Name: "vanilla", Title: "Minecraft"}, {Name: "fabric", Title: "Fabric"}}
}

func (f *fakeCatalog) Games(context.Context, string, catalog.Query) ([]models.Entry, error) {
	return f.games, f.gamesErr
}

func (f *fakeCatalog) Variants(context.Context, string, string, catalog.Query) ([]models.Entry, error) {
	return f.variants, nil
}

func (f *fakeCatalog) Details(_ context.Context, _, _ string, v models.Entry) (models.Details, error) {
	return f.details, nil
}

func (f *fakeCatalog) Installer(context.Context, string, string, models.Entry) (models.Artifact, error) {
	return f.artifact, f.installerErr
}

func (f *fakeCatalog) Invalidate() {
	f.invalidated++
}

func newFake() *fakeCatalog {
	return &fakeCatalog{
		games: []models.Entry{
			{ID: "1.21.1", Version: "1.21.1", Stable: true},
			{ID: "1.20.4", Version: "1.20.4", Stable: true},
			{ID: "24w14a", Version: "24w14a", Kind: "snapshot"},
		},
		variants: []models.Entry{
			{ID: "0.16.5", Version: "0.16.5", Stable: true},
			{ID: "0.16.4", Version: "0.16.4", Stable: true},
		},
		details: models.Details{Title: "Fabric 0.16.5", Lines: []string{"Loader: 0.16.5"}, Technical: []string{"Maven: net.fabricmc:fabric-loader:0.16.5"}},
	}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

// settle 执行命令并把结果消息交给 Update，直到不再产生命令。
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for i := 0; cmd != nil && i < 1000; i++ {
		msg := cmd()
		if msg == nil {
			return m
		}
		m, cmd = send(t, m, msg)
	}
	return m
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var cmd tea.Cmd
		m, cmd = send(t, m, keyMsg(k))
		m = settle(t, m, cmd)
	}
	return m
}

func TestModelNavigatesToDetails(t *testing.T) {
	t.Parallel()
	m := New(context.Background(), newFake(), download.New())

	m = press(t, m, "down", "enter")
	require.Equal(t, browser.ScreenGames, m.State().Screen)
	require.Equal(t, "fabric", m.State().Source)
	require.Len(t, m.State().Games, 3)

	m = press(t, m, "down", "enter")
	require.Equal(t, browser.ScreenVariants, m.State().Screen)
	require.Equal(t, "1.20.4", m.State().Game)
	require.Len(t, m.State().Variants, 2)

	m = press(t, m, "enter")
	require.Equal(t, browser.ScreenDetails, m.State().Screen)
	require.Equal(t, "Fabric 0.16.5", m.State().Details.Title)
	require.Contains(t, m.View(), "Loader: 0.16.5")
	require.NotContains(t, m.View(), "Maven:")

	m = press(t, m, "t")
	require.True(t, m.State().ShowTechnical)
	require.Contains(t, m.View(), "Maven:")

	m = press(t, m, "esc", "esc")
	require.Equal(t, browser.ScreenGames, m.State().Screen)
}

func TestModelDiscardsResultAfterBack(t *testing.T) {
	t.Parallel()
	m := New(context.Background(), newFake(), download.New())

	m, cmd := send(t, m, keyMsg("enter"))
	require.NotNil(t, cmd)
	require.True(t, m.State().Pending(browser.KindGames))

	m = press(t, m, "esc")
	require.Equal(t, browser.ScreenSources, m.State().Screen)

	m = settle(t, m, cmd)
	require.Empty(t, m.State().Games)
}

func TestModelErrorDialog(t *testing.T) {
	t.Parallel()
	fake := newFake()
	fake.gamesErr = errors.New("boom")
	m := New(context.Background(), fake, download.New())

	m = press(t, m, "enter")
	require.True(t, m.State().Blocked())
	require.Contains(t, m.View(), "boom")

	// 对话框打开时其他按键无效。
	m = press(t, m, "esc")
	require.False(t, m.State().Blocked())
	require.Equal(t, browser.ScreenGames, m.State().Screen)
}

func TestModelFilter(t *testing.T) {
	t.Parallel()
	m := New(context.Background(), newFake(), download.New())
	m = press(t, m, "enter", "/", "1", ".", "2", "0")
	require.Equal(t, "1.20", m.State().Filter)
	require.Len(t, m.State().VisibleGames(), 1)

	m = press(t, m, "enter")
	require.False(t, m.filtering)
	m = press(t, m, "enter")
	require.Equal(t, "1.20.4", m.State().Game)
}

func TestModelRefresh(t *testing.T) {
	t.Parallel()
	fake := newFake()
	m := New(context.Background(), fake, download.New())
	m = press(t, m, "enter")
	fake.games = fake.games[:1]

	m = press(t, m, "r")
	require.Equal(t, 1, fake.invalidated)
	require.Len(t, m.State().Games, 1)
}

func TestModelInstallerError(t *testing.T) {
	t.Parallel()
	fake := newFake()
	fake.installerErr = errors.New("no installer")
	m := New(context.Background(), fake, download.New())
	m = press(t, m, "enter", "enter", "enter", "d")
	require.True(t, m.State().Blocked())
	require.Equal(t, browser.ScreenDetails, m.State().Screen)
}

func TestModelDownloadFlow(t *testing.T) {
	t.Parallel()
	payload := strings.Repeat("x", 4096)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)

	fake := newFake()
	fake.artifact = models.Artifact{Name: "Installer", URL: srv.URL + "/fabric-installer-1.0.1.jar", FileName: "fabric-installer-1.0.1.jar"}
	dir := t.TempDir()
	m := New(context.Background(), fake, download.New(download.WithReportInterval(0)), WithDownloadDir(dir))

	m = press(t, m, "enter", "enter", "enter", "d")
	require.Equal(t, browser.ScreenSave, m.State().Screen)
	require.Equal(t, filepath.Join(dir, "fabric-installer-1.0.1.jar"), m.save.Value())

	m = press(t, m, "enter")
	require.Equal(t, browser.ScreenDetails, m.State().Screen)
	require.False(t, m.State().Download.Active)
	require.Contains(t, m.State().Status, "Saved to")

	data, err := os.ReadFile(filepath.Join(dir, "fabric-installer-1.0.1.jar"))
	require.NoError(t, err)
	require.Equal(t, payload, string(data))
}

func TestModelCancelSave(t *testing.T) {
	t.Parallel()
	fake := newFake()
	fake.artifact = models.Artifact{Name: "Installer", URL: "https://example.invalid/a.jar"}
	m := New(context.Background(), fake, download.New())
	m = press(t, m, "enter", "enter", "enter", "d")
	require.Equal(t, "a.jar", m.State().SaveName)

	m = press(t, m, "esc")
	require.Equal(t, browser.ScreenDetails, m.State().Screen)
	require.Empty(t, m.State().SaveName)
	require.False(t, m.State().Blocked())
}

func TestModelInitialSource(t *testing.T) {
	t.Parallel()
	m := New(context.Background(), newFake(), download.New(), WithInitialSource("fabric"))
	m = settle(t, m, func() tea.Msg { return selectSourceMsg{Name: "fabric", Title: "Fabric"} })
	require.Equal(t, "fabric", m.State().Source)
	require.Len(t, m.State().Games, 3)
	require.NotNil(t, m.Init())
}

func TestModelQuit(t *testing.T) {
	t.Parallel()
	m := New(context.Background(), newFake(), download.New())
	_, cmd := send(t, m, keyMsg("q"))
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
}

func TestWindow(t *testing.T) {
	t.Parallel()
	tests := []struct {
		cursor, n, size int
		start, end      int
	}{
		{0, 5, 10, 0, 5},
		{0, 20, 10, 0, 10},
		{10, 20, 10, 5, 15},
		{19, 20, 10, 10, 20},
	}
	for _, tt := range tests {
		start, end := window(tt.cursor, tt.n, tt.size)
		require.Equal(t, tt.start, start)
		require.Equal(t, tt.end, end)
	}
}

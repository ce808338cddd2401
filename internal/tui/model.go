// Package tui 是基于 bubbletea 的交互式目录浏览器。
package tui

import (
	"context"
	"path/filepath"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"

	"github.com/liangyou/mcvm/internal/browser"
	"github.com/liangyou/mcvm/internal/catalog"
	"github.com/liangyou/mcvm/internal/download"
	"github.com/liangyou/mcvm/pkg/models"
)

// Catalog 是界面需要的目录能力，由 catalog.Service 实现。
type Catalog interface {
	Sources() []catalog.SourceInfo
	Games(ctx context.Context, source string, q catalog.Query) ([]models.Entry, error)
	Variants(ctx context.Context, source, game string, q catalog.Query) ([]models.Entry, error)
	Details(ctx context.Context, source, game string, variant models.Entry) (models.Details, error)
	Installer(ctx context.Context, source, game string, variant models.Entry) (models.Artifact, error)
	Invalidate()
}

// Downloader 由 download.Downloader 实现。
type Downloader interface {
	Start(ctx context.Context, req download.Request) *download.Job
}

type (
	gamesMsg struct {
		req  browser.Request
		list []models.Entry
		err  error
	}
	variantsMsg struct {
		req  browser.Request
		list []models.Entry
		err  error
	}
	detailsMsg struct {
		req     browser.Request
		details models.Details
		err     error
	}
	installerMsg struct {
		req      browser.Request
		artifact models.Artifact
		err      error
	}
	progressMsg struct {
		job *download.Job
		p   download.Progress
	}
	doneMsg struct {
		res download.Result
	}
)

// Model 实现 tea.Model。所有界面状态保存在 browser.ViewState 中，这里只保存光标与输入控件。
type Model struct {
	ctx         context.Context
	catalog     Catalog
	downloader  Downloader
	downloadDir string
	initial     string

	state   browser.ViewState
	sources []catalog.SourceInfo
	cursors [browser.ScreenDownload + 1]int

	filtering bool
	filter    textinput.Model
	save      textinput.Model
	spinner   spinner.Model
	bar       progress.Model

	width, height int
}

// Option 配置 Model。
type Option func(*Model)

// WithInitialSource 启动后直接进入指定生态。
func WithInitialSource(name string) Option {
	return func(m *Model) {
		m.initial = name
	}
}

// WithDownloadDir 设置保存提示的默认目录。
func WithDownloadDir(dir string) Option {
	return func(m *Model) {
		m.downloadDir = dir
	}
}

// New 创建界面模型。
func New(ctx context.Context, cat Catalog, dl Downloader, opts ...Option) Model {
	filter := textinput.New()
	filter.Prompt = "/ "
	filter.Placeholder = "filter versions"
	filter.Cursor.SetMode(cursor.CursorStatic)

	save := textinput.New()
	save.Prompt = "Save as: "
	save.Width = 60
	save.Cursor.SetMode(cursor.CursorStatic)

	m := Model{
		ctx:        ctx,
		catalog:    cat,
		downloader: dl,
		state:      browser.New(),
		sources:    cat.Sources(),
		filter:     filter,
		save:       save,
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(accentStyle)),
		bar:        progress.New(progress.WithDefaultGradient(), progress.WithWidth(50)),
		width:      80,
		height:     24,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// State 返回当前的浏览状态。
func (m Model) State() browser.ViewState {
	return m.state
}

// Init 实现 tea.Model。
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick}
	for _, src := range m.sources {
		if m.initial != "" && src.Name == m.initial {
			// Init 不能返回新的模型，选择动作交给 Update 处理。
			cmds = append(cmds, func() tea.Msg { return selectSourceMsg(src) })
		}
	}
	return tea.Batch(cmds...)
}

type selectSourceMsg catalog.SourceInfo

// Run 启动全屏界面，直到用户退出或 ctx 被取消。
func Run(ctx context.Context, m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) fetch(req browser.Request) tea.Cmd {
	ctx, cat := m.ctx, m.catalog
	switch req.Kind {
	case browser.KindGames:
		return func() tea.Msg {
			list, err := cat.Games(ctx, req.Source, catalog.Query{})
			return gamesMsg{req: req, list: list, err: err}
		}
	case browser.KindVariants:
		return func() tea.Msg {
			list, err := cat.Variants(ctx, req.Source, req.Game, catalog.Query{})
			return variantsMsg{req: req, list: list, err: err}
		}
	case browser.KindDetails:
		return func() tea.Msg {
			d, err := cat.Details(ctx, req.Source, req.Game, req.Variant)
			return detailsMsg{req: req, details: d, err: err}
		}
	case browser.KindInstaller:
		return func() tea.Msg {
			a, err := cat.Installer(ctx, req.Source, req.Game, req.Variant)
			return installerMsg{req: req, artifact: a, err: err}
		}
	}
	return nil
}

// waitJob 读取下一条进度；进度通道关闭后读取最终结果。
func waitJob(job *download.Job) tea.Cmd {
	return func() tea.Msg {
		if p, ok := <-job.Progress(); ok {
			return progressMsg{job: job, p: p}
		}
		return doneMsg{res: <-job.Done()}
	}
}

func (m Model) defaultSavePath(name string) string {
	if m.downloadDir == "" {
		return name
	}
	return filepath.Join(m.downloadDir, name)
}

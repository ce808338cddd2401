// Package cli 定义 mcvm 的命令行界面。
package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/liangyou/mcvm/internal/catalog"
	"github.com/liangyou/mcvm/internal/download"
	"github.com/liangyou/mcvm/pkg/models"
)

// CatalogService 描述目录查询能力，由 catalog.Service 实现。
type CatalogService interface {
	Sources() []catalog.SourceInfo
	Games(ctx context.Context, source string, q catalog.Query) ([]models.Entry, error)
	Variants(ctx context.Context, source, game string, q catalog.Query) ([]models.Entry, error)
	ResolveVariant(ctx context.Context, source, game, id string) (models.Entry, error)
	Details(ctx context.Context, source, game string, variant models.Entry) (models.Details, error)
	Installer(ctx context.Context, source, game string, variant models.Entry) (models.Artifact, error)
}

// DownloadService 描述下载能力，由 download.Downloader 实现。
type DownloadService interface {
	Download(ctx context.Context, req download.Request, onProgress func(download.Progress)) (download.Result, error)
}

// BrowseFunc 启动交互式浏览器，source 非空时直接进入该生态。
type BrowseFunc func(ctx context.Context, source string) error

// GlobalOptions 是所有子命令共享的参数。
type GlobalOptions struct {
	ConfigPath string
	Mirror     string
	LogLevel   string
	NoColor    bool
}

// Services 是命令执行所需的依赖。
type Services struct {
	Catalog     CatalogService
	Downloader  DownloadService
	Browse      BrowseFunc
	DownloadDir string
}

// Factory 根据全局参数构建依赖，只在需要访问目录的命令中调用。
type Factory func(ctx context.Context, opts GlobalOptions) (*Services, error)

// App 负责 CLI 命令解析与分发。
type App struct {
	out      io.Writer
	errOut   io.Writer
	version  string
	factory  Factory
	terminal func() bool

	opts     GlobalOptions
	services *Services
}

// NewApp 创建 CLI 应用实例。
func NewApp(out io.Writer, factory Factory, version string) *App {
	if out == nil {
		out = os.Stdout
	}
	return &App{
		out:      out,
		errOut:   os.Stderr,
		version:  version,
		factory:  factory,
		terminal: func() bool { return isTerminal(out) },
	}
}

// Run 解析参数并执行命令。
func (a *App) Run(ctx context.Context, args []string) error {
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	return root.ExecuteContext(ctx)
}

func (a *App) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "mcvm",
		Short:         "Browse and download Minecraft and mod loader versions",
		Version:       a.version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("mcvm version {{.Version}}\n")

	flags := root.PersistentFlags()
	flags.StringVar(&a.opts.ConfigPath, "config", "", "config file (default is $XDG_CONFIG_HOME/mcvm/config.yaml)")
	flags.StringVar(&a.opts.Mirror, "mirror", "", "mirror mode: auto, official or bmclapi")
	flags.StringVar(&a.opts.LogLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.BoolVar(&a.opts.NoColor, "no-color", false, "disable colored output")

	root.AddCommand(
		a.sourcesCommand(),
		a.gamesCommand(),
		a.variantsCommand(),
		a.infoCommand(),
		a.downloadCommand(),
		a.browseCommand(),
		a.versionCommand(),
	)
	return root
}

// setup 延迟构建依赖，同一次执行中只构建一次。
func (a *App) setup(cmd *cobra.Command) (*Services, error) {
	if a.services != nil {
		return a.services, nil
	}
	applyColor(a.opts.NoColor)
	if a.factory == nil {
		return nil, errUnavailable
	}
	svc, err := a.factory(cmd.Context(), a.opts)
	if err != nil {
		return nil, err
	}
	a.services = svc
	return svc, nil
}

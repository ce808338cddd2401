package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/liangyou/mcvm/internal/catalog"
	"github.com/liangyou/mcvm/internal/cli"
	"github.com/liangyou/mcvm/internal/config"
	"github.com/liangyou/mcvm/internal/download"
	"github.com/liangyou/mcvm/internal/logging"
	"github.com/liangyou/mcvm/internal/region"
	"github.com/liangyou/mcvm/internal/remote"
	"github.com/liangyou/mcvm/internal/sources"
	"github.com/liangyou/mcvm/internal/tui"
)

const appVersion = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp(os.Stdout, newServices, appVersion)
	if err := app.Run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// newServices 读取配置并组装目录、镜像与下载依赖。
func newServices(ctx context.Context, opts cli.GlobalOptions) (*cli.Services, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	cfg, err = config.Override(cfg, opts.Mirror, opts.LogLevel)
	if err != nil {
		return nil, err
	}
	if err := logging.Setup(cfg.LogLevel, os.Stderr); err != nil {
		return nil, err
	}

	mirror, err := region.Resolve(ctx, cfg.Mirror, region.NewDetector())
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"code": "mirror_selected", "mirror": mirror.Name}).Debug("Mirror selected")

	fetcher := remote.NewClient(remote.WithTimeout(cfg.Timeout), remote.WithUserAgent(cfg.UserAgent))
	registry := sources.NewRegistry(fetcher, mirror)
	svc := catalog.NewService(registry, catalog.WithTTL(cfg.CacheTTL), catalog.WithSupplements(cfg.Supplements))
	downloader := download.New(download.WithUserAgent(cfg.UserAgent))

	browse := func(ctx context.Context, source string) error {
		// 全屏界面期间日志写入文件。
		if f, path, err := logging.OpenFile(); err == nil {
			defer f.Close()
			logrus.SetOutput(f)
			defer logrus.SetOutput(os.Stderr)
			logrus.WithField("path", path).Debug("Logging to file")
		}
		go func() {
			if err := svc.Warm(ctx); err != nil {
				logrus.WithError(err).WithField("code", "catalog_warm").Debug("Prefetch failed")
			}
		}()
		model := tui.New(ctx, svc, downloader,
			tui.WithInitialSource(source),
			tui.WithDownloadDir(cfg.DownloadDir),
		)
		return tui.Run(ctx, model)
	}

	return &cli.Services{
		Catalog:     svc,
		Downloader:  downloader,
		Browse:      browse,
		DownloadDir: cfg.DownloadDir,
	}, nil
}

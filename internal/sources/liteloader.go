package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/liangyou/mcvm/internal/region"
	"github.com/liangyou/mcvm/internal/remote"
	"github.com/liangyou/mcvm/pkg/models"
)

const (
	liteloaderArtifact = "com.mumfrey:liteloader"
	liteloaderGroup    = "com/mumfrey/liteloader"
)

type liteloaderBuild struct {
	Version string `json:"version"`
	File    string `json:"file"`
	MD5     string `json:"md5"`
	Stream  string `json:"stream"`
	Tweak   string `json:"tweakClass"`
}

type liteloaderGame struct {
	Repo struct {
		URL string `json:"url"`
	} `json:"repo"`
	Artefacts map[string]map[string]liteloaderBuild `json:"artefacts"`
	Snapshots map[string]map[string]liteloaderBuild `json:"snapshots"`
}

type liteloaderIndex struct {
	Versions map[string]liteloaderGame `json:"versions"`
}

// LiteLoader 读取 versions.json，安装器来自 Jenkins，核心文件来自 maven。
type LiteLoader struct {
	fetcher remote.Fetcher
	index   string
	jenkins string
}

// NewLiteLoader 创建 LiteLoader 生态。
func NewLiteLoader(fetcher remote.Fetcher, mirror region.Mirror) *LiteLoader {
	return &LiteLoader{fetcher: fetcher, index: mirror.LiteLoaderVersions, jenkins: mirror.LiteLoaderJenkins}
}

func (l *LiteLoader) Name() string  { return "liteloader" }
func (l *LiteLoader) Title() string { return "LiteLoader" }

func (l *LiteLoader) GameVersions(ctx context.Context) ([]models.Entry, error) {
	index, err := l.fetch(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Entry, 0, len(index.Versions))
	for game := range index.Versions {
		stable := !strings.Contains(game, "-")
		out = append(out, models.Entry{
			ID:      game,
			Version: game,
			Kind:    stabilityLabel(stable),
			Stable:  stable,
			Source:  l.Name(),
		})
	}
	return out, nil
}

// Variants 合并正式构建与快照构建，跳过 latest 别名，ID 重复时保留正式构建。
func (l *LiteLoader) Variants(ctx context.Context, game string) ([]models.Entry, error) {
	index, err := l.fetch(ctx)
	if err != nil {
		return nil, err
	}
	info, ok := index.Versions[game]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "liteloader: game version %q", game)
	}

	var out []models.Entry
	seen := make(map[string]struct{})
	for _, stream := range []struct {
		builds map[string]map[string]liteloaderBuild
		stable bool
	}{{info.Artefacts, true}, {info.Snapshots, false}} {
		for id, build := range stream.builds[liteloaderArtifact] {
			if id == "latest" || build.Version == "" || build.File == "" {
				continue
			}
			if _, dup := seen[build.Version]; dup {
				continue
			}
			seen[build.Version] = struct{}{}
			out = append(out, models.Entry{
				ID:           build.Version,
				Version:      build.Version,
				Kind:         stabilityLabel(stream.stable),
				Stable:       stream.stable,
				FileName:     build.File,
				Checksum:     build.MD5,
				ChecksumType: "md5",
				DownloadURL:  mavenURL(info.Repo.URL, build),
				Source:       l.Name(),
				Game:         game,
				Extra: map[string]string{
					"jenkins":    l.jenkinsURL(game),
					"tweakClass": build.Tweak,
				},
			})
		}
	}
	return out, nil
}

func (l *LiteLoader) Details(ctx context.Context, game string, variant models.Entry) (models.Details, error) {
	installer, err := l.ResolveInstaller(ctx, game, variant)
	if err != nil {
		return models.Details{}, err
	}
	core := models.Artifact{
		Name:         "liteloader-core",
		Version:      variant.Label(),
		URL:          variant.DownloadURL,
		FileName:     variant.FileName,
		Checksum:     variant.Checksum,
		ChecksumType: variant.ChecksumType,
		Stable:       variant.Stable,
		Note:         "The maven core mod link may be unavailable; prefer the installer.",
	}
	d := models.Details{
		Title: fmt.Sprintf("LiteLoader %s", variant.Label()),
		Lines: []string{
			"Minecraft Version: " + game,
			"LiteLoader Version: " + variant.Label(),
			"File Name: " + valueOr(variant.FileName, "N/A"),
			"MD5: " + valueOr(variant.Checksum, "N/A"),
			"",
			"Maven Download URL (core mod): " + valueOr(variant.DownloadURL, "N/A"),
			"Jenkins Installer URL (recommended): " + installer.URL,
		},
		Artifacts: []models.Artifact{installer},
	}
	if core.URL != "" {
		d.Artifacts = append(d.Artifacts, core)
	}
	if tweak := variant.Extra["tweakClass"]; tweak != "" {
		d.Technical = append(d.Technical, "Tweak Class: "+tweak)
	}
	return d, nil
}

// ResolveInstaller 返回 Jenkins 上对应基础游戏版本的安装器。
func (l *LiteLoader) ResolveInstaller(_ context.Context, game string, variant models.Entry) (models.Artifact, error) {
	if game == "" {
		return models.Artifact{}, errors.Wrap(ErrNoInstaller, "liteloader: empty game version")
	}
	link := l.jenkinsURL(game)
	return models.Artifact{
		Name:     "liteloader-installer",
		Version:  variant.Label(),
		URL:      link,
		FileName: baseName(link),
		Stable:   variant.Stable,
	}, nil
}

func (l *LiteLoader) jenkinsURL(game string) string {
	base, _, _ := strings.Cut(game, "-")
	job := url.PathEscape("LiteLoaderInstaller " + base)
	return fmt.Sprintf("%s%s/lastSuccessfulBuild/artifact/build/libs/liteloader-installer-%s-00-SNAPSHOT.jar",
		l.jenkins, job, base)
}

func (l *LiteLoader) fetch(ctx context.Context) (*liteloaderIndex, error) {
	var index liteloaderIndex
	if err := l.fetcher.GetJSON(ctx, l.index, &index); err != nil {
		return nil, errors.Wrap(err, "liteloader: fetch versions index")
	}
	return &index, nil
}

// mavenURL 拼出核心文件在 maven 仓库中的地址，仓库地址缺失时返回空串。
func mavenURL(repo string, build liteloaderBuild) string {
	repo = strings.ReplaceAll(repo, `\`, "")
	if repo == "" {
		return ""
	}
	if !strings.HasSuffix(repo, "/") {
		repo += "/"
	}
	return fmt.Sprintf("%s%s/%s/%s", repo, liteloaderGroup, build.Version, build.File)
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

package sources

import (
	"context"
	"fmt"
	"net/url"

	"github.com/pkg/errors"

	"github.com/liangyou/mcvm/internal/ordering"
	"github.com/liangyou/mcvm/internal/region"
	"github.com/liangyou/mcvm/internal/remote"
	"github.com/liangyou/mcvm/pkg/models"
)

type metaGameVersion struct {
	Version string `json:"version"`
	Stable  bool   `json:"stable"`
}

type metaComponent struct {
	Version   string `json:"version"`
	Maven     string `json:"maven"`
	Separator string `json:"separator"`
	Build     int    `json:"build"`
	Stable    *bool  `json:"stable"`
}

type metaLoader struct {
	Loader       metaComponent  `json:"loader"`
	Intermediary *metaComponent `json:"intermediary"`
	Hashed       *metaComponent `json:"hashed"`
}

type metaInstaller struct {
	URL     string `json:"url"`
	Maven   string `json:"maven"`
	Version string `json:"version"`
	Stable  bool   `json:"stable"`
}

// metaSource 实现 Fabric 与 Quilt 共用的 meta API（versions/game、versions/loader、versions/installer）。
type metaSource struct {
	name    string
	title   string
	base    string
	fetcher remote.Fetcher
	mirror  region.Mirror

	// stableGamesOnly 只列出稳定的游戏版本。
	stableGamesOnly bool
	// newestInstaller 为真时按版本号取最新的稳定安装器，没有稳定版时退回最新版本。
	newestInstaller bool
	// upstreamOrder 为真时保持接口返回的顺序。
	upstreamOrder bool
}

// NewFabric 创建 Fabric 生态。
func NewFabric(fetcher remote.Fetcher, mirror region.Mirror) Source {
	return &metaSource{
		name:          "fabric",
		title:         "Fabric",
		base:          mirror.FabricMeta,
		fetcher:       fetcher,
		mirror:        mirror,
		upstreamOrder: true,
	}
}

// NewQuilt 创建 Quilt 生态。
func NewQuilt(fetcher remote.Fetcher, mirror region.Mirror) Source {
	return &metaSource{
		name:            "quilt",
		title:           "Quilt",
		base:            mirror.QuiltMeta,
		fetcher:         fetcher,
		mirror:          mirror,
		stableGamesOnly: true,
		newestInstaller: true,
	}
}

func (m *metaSource) Name() string  { return m.name }
func (m *metaSource) Title() string { return m.title }

func (m *metaSource) UpstreamOrder() bool { return m.upstreamOrder }

func (m *metaSource) GameVersions(ctx context.Context) ([]models.Entry, error) {
	var games []metaGameVersion
	if err := m.fetcher.GetJSON(ctx, m.base+"/versions/game", &games); err != nil {
		return nil, errors.Wrapf(err, "%s: fetch game versions", m.name)
	}
	out := make([]models.Entry, 0, len(games))
	for _, g := range games {
		if m.stableGamesOnly && !g.Stable {
			continue
		}
		out = append(out, models.Entry{
			ID:      g.Version,
			Version: g.Version,
			Kind:    stabilityLabel(g.Stable),
			Stable:  g.Stable,
			Source:  m.name,
		})
	}
	return out, nil
}

func (m *metaSource) Variants(ctx context.Context, game string) ([]models.Entry, error) {
	var loaders []metaLoader
	if err := m.fetcher.GetJSON(ctx, m.base+"/versions/loader/"+url.PathEscape(game), &loaders); err != nil {
		return nil, errors.Wrapf(err, "%s: fetch loader versions for %s", m.name, game)
	}
	out := make([]models.Entry, 0, len(loaders))
	for _, l := range loaders {
		if l.Loader.Version == "" {
			continue
		}
		// Quilt 的 loader 没有 stable 字段，缺省视为不稳定。
		stable := l.Loader.Stable != nil && *l.Loader.Stable
		extra := map[string]string{"maven": l.Loader.Maven}
		if l.Intermediary != nil {
			extra["intermediary"] = l.Intermediary.Maven
		}
		if l.Hashed != nil {
			extra["hashed"] = l.Hashed.Maven
		}
		out = append(out, models.Entry{
			ID:      l.Loader.Version,
			Version: l.Loader.Version,
			Kind:    stabilityLabel(stable),
			Stable:  stable,
			Source:  m.name,
			Game:    game,
			Extra:   extra,
		})
	}
	return out, nil
}

func (m *metaSource) Details(ctx context.Context, game string, variant models.Entry) (models.Details, error) {
	d := models.Details{Title: fmt.Sprintf("%s %s for Minecraft %s", m.title, variant.Label(), game)}
	d.Lines = append(d.Lines,
		"Minecraft Version: "+game,
		"Loader Version: "+variant.Label(),
		"Stability: "+stabilityLabel(variant.Stable),
	)
	for _, key := range []string{"maven", "intermediary", "hashed"} {
		if coord := variant.Extra[key]; coord != "" {
			d.Technical = append(d.Technical, fmt.Sprintf("%s: %s", capitalize(key), coord))
		}
	}

	installer, err := m.ResolveInstaller(ctx, game, variant)
	switch {
	case errors.Is(err, ErrNoInstaller):
		d.Lines = append(d.Lines, "", fmt.Sprintf("No %s installer is currently published.", m.title))
	case err != nil:
		return models.Details{}, err
	default:
		d.Lines = append(d.Lines, "",
			fmt.Sprintf("Ready to download the universal %s Installer %s.", m.title, installer.Version),
			fmt.Sprintf("It can create client profiles or set up a server for Minecraft %s.", game),
		)
		if installer.Note != "" {
			d.Lines = append(d.Lines, installer.Note)
		}
		d.Technical = append(d.Technical, "Installer URL: "+installer.URL)
		d.Artifacts = append(d.Artifacts, installer)
	}
	return d, nil
}

// ResolveInstaller 返回通用安装器，安装器与游戏版本和 loader 版本无关。
func (m *metaSource) ResolveInstaller(ctx context.Context, _ string, _ models.Entry) (models.Artifact, error) {
	var installers []metaInstaller
	if err := m.fetcher.GetJSON(ctx, m.base+"/versions/installer", &installers); err != nil {
		return models.Artifact{}, errors.Wrapf(err, "%s: fetch installers", m.name)
	}
	if m.newestInstaller {
		ordering.SortDescending(installers, func(i metaInstaller) string { return i.Version })
	}

	for _, inst := range installers {
		if inst.Stable && inst.URL != "" {
			return m.installerArtifact(inst, ""), nil
		}
	}
	if m.newestInstaller {
		for _, inst := range installers {
			if inst.URL != "" {
				note := fmt.Sprintf("No stable installer found, using the newest (potentially unstable) installer %s.", inst.Version)
				return m.installerArtifact(inst, note), nil
			}
		}
	}
	return models.Artifact{}, errors.Wrapf(ErrNoInstaller, "%s: no stable installer", m.name)
}

func (m *metaSource) installerArtifact(inst metaInstaller, note string) models.Artifact {
	return models.Artifact{
		Name:     m.name + "-installer",
		Version:  inst.Version,
		URL:      m.mirror.Rewrite(inst.URL),
		FileName: baseName(inst.URL),
		Stable:   inst.Stable,
		Note:     note,
	}
}

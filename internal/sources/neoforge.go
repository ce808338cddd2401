package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/liangyou/mcvm/internal/region"
	"github.com/liangyou/mcvm/internal/remote"
	"github.com/liangyou/mcvm/pkg/models"
)

var prereleaseMarkers = []string{"beta", "rc", "pre", "alpha"}

// mavenMetadata 对应 maven-metadata.xml。标签不带命名空间，带或不带 POM 命名空间的文档都能解析。
type mavenMetadata struct {
	Latest   string   `xml:"versioning>latest"`
	Release  string   `xml:"versioning>release"`
	Versions []string `xml:"versioning>versions>version"`
}

// NeoForge 读取 NeoForged maven 仓库的版本元数据。
type NeoForge struct {
	fetcher remote.Fetcher
	base    string
}

// NewNeoForge 创建 NeoForge 生态。
func NewNeoForge(fetcher remote.Fetcher, mirror region.Mirror) *NeoForge {
	return &NeoForge{fetcher: fetcher, base: strings.TrimRight(mirror.NeoForgeMaven, "/")}
}

func (n *NeoForge) Name() string  { return "neoforge" }
func (n *NeoForge) Title() string { return "NeoForge" }

// GameVersions 返回有 NeoForge 构建的游戏版本，只要有一个稳定构建即视为稳定。
func (n *NeoForge) GameVersions(ctx context.Context) ([]models.Entry, error) {
	groups, order, err := n.grouped(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Entry, 0, len(order))
	for _, game := range order {
		stable := false
		for _, v := range groups[game] {
			stable = stable || v.Stable
		}
		out = append(out, models.Entry{
			ID:      game,
			Version: game,
			Kind:    stabilityLabel(stable),
			Stable:  stable,
			Source:  n.Name(),
			Extra:   map[string]string{"builds": fmt.Sprint(len(groups[game]))},
		})
	}
	return out, nil
}

func (n *NeoForge) Variants(ctx context.Context, game string) ([]models.Entry, error) {
	groups, _, err := n.grouped(ctx)
	if err != nil {
		return nil, err
	}
	variants, ok := groups[game]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "neoforge: no builds for %q", game)
	}
	return variants, nil
}

func (n *NeoForge) Details(ctx context.Context, game string, variant models.Entry) (models.Details, error) {
	installer, err := n.ResolveInstaller(ctx, game, variant)
	if err != nil {
		return models.Details{}, err
	}
	stability := "Stable"
	if !variant.Stable {
		stability = "Experimental"
	}
	return models.Details{
		Title: fmt.Sprintf("NeoForge %s", variant.Label()),
		Lines: []string{
			"Minecraft Version: " + game,
			"NeoForge Version: " + variant.Label(),
			"Stability: " + stability,
		},
		Technical: []string{
			"Maven: net.neoforged:neoforge:" + variant.Label(),
			"Installer URL: " + installer.URL,
		},
		Artifacts: []models.Artifact{installer},
	}, nil
}

// ResolveInstaller 按 maven 目录结构拼出安装器地址。
func (n *NeoForge) ResolveInstaller(_ context.Context, _ string, variant models.Entry) (models.Artifact, error) {
	v := variant.Label()
	if v == "" {
		return models.Artifact{}, errors.Wrap(ErrNoInstaller, "neoforge: empty version")
	}
	name := fmt.Sprintf("neoforge-%s-installer.jar", v)
	return models.Artifact{
		Name:     "neoforge-installer",
		Version:  v,
		URL:      fmt.Sprintf("%s/%s/%s", n.base, v, name),
		FileName: name,
		Stable:   variant.Stable,
	}, nil
}

// grouped 按对应的游戏版本分组，order 为首次出现顺序。
func (n *NeoForge) grouped(ctx context.Context) (map[string][]models.Entry, []string, error) {
	var meta mavenMetadata
	if err := n.fetcher.GetXML(ctx, n.base+"/maven-metadata.xml", &meta); err != nil {
		return nil, nil, errors.Wrap(err, "neoforge: fetch maven metadata")
	}

	groups := make(map[string][]models.Entry)
	var order []string
	for _, raw := range meta.Versions {
		v := strings.TrimSpace(raw)
		game := neoForgeGame(v)
		if game == "" {
			continue
		}
		if _, seen := groups[game]; !seen {
			order = append(order, game)
		}
		stable := !containsPrerelease(v)
		groups[game] = append(groups[game], models.Entry{
			ID:      v,
			Version: v,
			Kind:    stabilityLabel(stable),
			Stable:  stable,
			Source:  n.Name(),
			Game:    game,
		})
	}
	return groups, order, nil
}

// neoForgeGame 推导 NeoForge 版本对应的游戏版本：
// "1.20.1-47.1.7" 取连字符前的部分；"21.1.77" 对应 1.21.1，"21.0.0-beta" 对应 1.21；
// "0.25w14craftmine.3-beta" 这类快照构建对应 25w14craftmine。
func neoForgeGame(version string) string {
	head, _, hasSuffix := strings.Cut(version, "-")
	if hasSuffix && strings.HasPrefix(head, "1.") {
		return head
	}
	parts := strings.Split(head, ".")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return ""
	}
	if parts[0] == "0" {
		return parts[1]
	}
	if parts[1] == "0" {
		return "1." + parts[0]
	}
	return "1." + parts[0] + "." + parts[1]
}

func containsPrerelease(version string) bool {
	lower := strings.ToLower(version)
	for _, marker := range prereleaseMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

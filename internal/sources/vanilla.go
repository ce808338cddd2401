package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/pkg/errors"

	"github.com/liangyou/mcvm/internal/region"
	"github.com/liangyou/mcvm/internal/remote"
	"github.com/liangyou/mcvm/pkg/models"
)

// 原版每个版本可下载的文件，按展示顺序排列。
var vanillaArtifacts = []string{"client", "server", "client_mappings", "server_mappings"}

type vanillaManifest struct {
	Latest struct {
		Release  string `json:"release"`
		Snapshot string `json:"snapshot"`
	} `json:"latest"`
	Versions []struct {
		ID          string    `json:"id"`
		Type        string    `json:"type"`
		URL         string    `json:"url"`
		ReleaseTime time.Time `json:"releaseTime"`
		SHA1        string    `json:"sha1"`
	} `json:"versions"`
}

type vanillaFile struct {
	URL  string `json:"url"`
	SHA1 string `json:"sha1"`
	Size int64  `json:"size"`
}

type vanillaVersion struct {
	ID              string                 `json:"id"`
	Type            string                 `json:"type"`
	ReleaseTime     time.Time              `json:"releaseTime"`
	MainClass       string                 `json:"mainClass"`
	ComplianceLevel *int                   `json:"complianceLevel"`
	AssetIndex      *vanillaFile           `json:"assetIndex"`
	Downloads       map[string]vanillaFile `json:"downloads"`
	Libraries       []struct{}             `json:"libraries"`
}

// Vanilla 读取 Mojang 的版本清单。
type Vanilla struct {
	fetcher remote.Fetcher
	mirror  region.Mirror
}

// NewVanilla 创建原版生态。
func NewVanilla(fetcher remote.Fetcher, mirror region.Mirror) *Vanilla {
	return &Vanilla{fetcher: fetcher, mirror: mirror}
}

func (v *Vanilla) Name() string  { return "vanilla" }
func (v *Vanilla) Title() string { return "Minecraft" }

// UpstreamOrder 报告清单已按发布时间从新到旧排列。早期版本号格式各异，不能按文本重新排序。
func (v *Vanilla) UpstreamOrder() bool { return true }

// GameVersions 返回清单中的全部版本，正式版标记为稳定。
func (v *Vanilla) GameVersions(ctx context.Context) ([]models.Entry, error) {
	manifest, err := v.manifest(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Entry, 0, len(manifest.Versions))
	for _, item := range manifest.Versions {
		out = append(out, models.Entry{
			ID:           item.ID,
			Version:      item.ID,
			Kind:         item.Type,
			Stable:       item.Type == "release",
			DownloadURL:  v.mirror.Rewrite(item.URL),
			Checksum:     item.SHA1,
			ChecksumType: "sha1",
			ReleaseTime:  item.ReleaseTime,
			Source:       v.Name(),
		})
	}
	return out, nil
}

// Variants 返回该版本可下载的文件。文件没有版本号，Version 留空以保持展示顺序。
func (v *Vanilla) Variants(ctx context.Context, game string) ([]models.Entry, error) {
	doc, err := v.version(ctx, game)
	if err != nil {
		return nil, err
	}
	var out []models.Entry
	for _, name := range vanillaArtifacts {
		file, ok := doc.Downloads[name]
		if !ok || file.URL == "" {
			continue
		}
		out = append(out, models.Entry{
			ID:           name,
			Kind:         doc.Type,
			Stable:       true,
			FileName:     baseName(file.URL),
			Checksum:     file.SHA1,
			ChecksumType: "sha1",
			DownloadURL:  v.mirror.Rewrite(file.URL),
			Size:         file.Size,
			ReleaseTime:  doc.ReleaseTime,
			Source:       v.Name(),
			Game:         game,
		})
	}
	return out, nil
}

// Details 在选择时读取单个版本的 JSON。variant 为空时只展示游戏版本本身。
func (v *Vanilla) Details(ctx context.Context, game string, _ models.Entry) (models.Details, error) {
	doc, err := v.version(ctx, game)
	if err != nil {
		return models.Details{}, err
	}

	d := models.Details{Title: fmt.Sprintf("Minecraft %s", doc.ID)}
	d.Lines = append(d.Lines,
		"ID: "+doc.ID,
		"Type: "+doc.Type,
		"Release Time: "+doc.ReleaseTime.Format(time.RFC3339),
	)
	if doc.MainClass != "" {
		d.Lines = append(d.Lines, "Main Class: "+doc.MainClass)
	}
	if doc.ComplianceLevel != nil {
		d.Lines = append(d.Lines, fmt.Sprintf("Compliance Level: %d", *doc.ComplianceLevel))
	}
	for _, name := range []string{"client", "server"} {
		if file, ok := doc.Downloads[name]; ok && file.URL != "" {
			d.Lines = append(d.Lines, fmt.Sprintf("%s Jar Size: %s (%d bytes)", capitalize(name), units.BytesSize(float64(file.Size)), file.Size))
		}
	}

	if doc.AssetIndex != nil {
		d.Technical = append(d.Technical,
			"AssetIndex URL: "+doc.AssetIndex.URL,
			"AssetIndex SHA1: "+doc.AssetIndex.SHA1,
		)
	}
	for _, name := range []string{"client", "server"} {
		if file, ok := doc.Downloads[name]; ok && file.URL != "" {
			d.Technical = append(d.Technical,
				capitalize(name)+" URL: "+file.URL,
				capitalize(name)+" SHA1: "+file.SHA1,
			)
		}
	}
	d.Technical = append(d.Technical, fmt.Sprintf("Libraries Count: %d", len(doc.Libraries)))

	for _, name := range vanillaArtifacts {
		if file, ok := doc.Downloads[name]; ok && file.URL != "" {
			d.Artifacts = append(d.Artifacts, v.artifact(doc, name, file))
		}
	}
	return d, nil
}

// ResolveInstaller 返回所选文件，未选择时默认客户端。
func (v *Vanilla) ResolveInstaller(ctx context.Context, game string, variant models.Entry) (models.Artifact, error) {
	doc, err := v.version(ctx, game)
	if err != nil {
		return models.Artifact{}, err
	}
	name := variant.ID
	if name == "" {
		name = "client"
	}
	file, ok := doc.Downloads[name]
	if !ok || file.URL == "" {
		return models.Artifact{}, errors.Wrapf(ErrNoInstaller, "vanilla: %s has no %s download", game, name)
	}
	return v.artifact(doc, name, file), nil
}

func (v *Vanilla) artifact(doc *vanillaVersion, name string, file vanillaFile) models.Artifact {
	return models.Artifact{
		Name:         name,
		Version:      doc.ID,
		URL:          v.mirror.Rewrite(file.URL),
		FileName:     baseName(file.URL),
		Checksum:     file.SHA1,
		ChecksumType: "sha1",
		Size:         file.Size,
		Stable:       doc.Type == "release",
	}
}

func (v *Vanilla) manifest(ctx context.Context) (*vanillaManifest, error) {
	var manifest vanillaManifest
	if err := v.fetcher.GetJSON(ctx, v.mirror.VanillaManifest, &manifest); err != nil {
		return nil, errors.Wrap(err, "vanilla: fetch version manifest")
	}
	return &manifest, nil
}

func (v *Vanilla) version(ctx context.Context, game string) (*vanillaVersion, error) {
	manifest, err := v.manifest(ctx)
	if err != nil {
		return nil, err
	}
	for _, item := range manifest.Versions {
		if item.ID != game {
			continue
		}
		var doc vanillaVersion
		if err := v.fetcher.GetJSON(ctx, v.mirror.Rewrite(item.URL), &doc); err != nil {
			return nil, errors.Wrapf(err, "vanilla: fetch version %s", game)
		}
		return &doc, nil
	}
	return nil, errors.Wrapf(ErrNotFound, "vanilla: game version %q", game)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

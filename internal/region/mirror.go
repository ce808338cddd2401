package region

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// 镜像模式，对应配置项 mirror。
const (
	ModeAuto     = "auto"
	ModeOfficial = "official"
	ModeBMCLAPI  = "bmclapi"
)

// Mirror 描述各生态元数据与下载地址的根路径。
type Mirror struct {
	Name               string
	VanillaManifest    string
	FabricMeta         string
	QuiltMeta          string
	NeoForgeMaven      string
	LiteLoaderVersions string
	LiteLoaderJenkins  string

	// rewrites 将清单中出现的官方下载地址前缀替换为镜像地址。
	rewrites map[string]string
}

const bmclapiBase = "https://bmclapi2.bangbang93.com"

var (
	// OfficialMirror 使用各项目的官方地址。
	OfficialMirror = Mirror{
		Name:               ModeOfficial,
		VanillaManifest:    "https://piston-meta.mojang.com/mc/game/version_manifest_v2.json",
		FabricMeta:         "https://meta.fabricmc.net/v2",
		QuiltMeta:          "https://meta.quiltmc.org/v3",
		NeoForgeMaven:      "https://maven.neoforged.net/releases/net/neoforged/neoforge",
		LiteLoaderVersions: "http://dl.liteloader.com/versions/versions.json",
		LiteLoaderJenkins:  "http://jenkins.liteloader.com/job/",
	}
	// BMCLAPIMirror 为国内用户提供 Mojang、Fabric 与 NeoForge 的镜像，Quilt 与 LiteLoader 仍走官方地址。
	BMCLAPIMirror = Mirror{
		Name:               ModeBMCLAPI,
		VanillaManifest:    bmclapiBase + "/mc/game/version_manifest_v2.json",
		FabricMeta:         bmclapiBase + "/fabric-meta/v2",
		QuiltMeta:          OfficialMirror.QuiltMeta,
		NeoForgeMaven:      bmclapiBase + "/maven/net/neoforged/neoforge",
		LiteLoaderVersions: OfficialMirror.LiteLoaderVersions,
		LiteLoaderJenkins:  OfficialMirror.LiteLoaderJenkins,
		rewrites: map[string]string{
			"https://piston-meta.mojang.com":       bmclapiBase,
			"https://piston-data.mojang.com":       bmclapiBase,
			"https://launchermeta.mojang.com":      bmclapiBase,
			"https://launcher.mojang.com":          bmclapiBase,
			"https://maven.fabricmc.net":           bmclapiBase + "/maven",
			"https://maven.neoforged.net/releases": bmclapiBase + "/maven",
		},
	}
)

// Rewrite 返回 url 在该镜像下的地址，无对应规则时原样返回。
func (m Mirror) Rewrite(url string) string {
	for prefix, replacement := range m.rewrites {
		if strings.HasPrefix(url, prefix+"/") {
			return replacement + url[len(prefix):]
		}
	}
	return url
}

// SelectMirror 根据国家代码返回镜像配置。
func SelectMirror(countryCode string) Mirror {
	if strings.EqualFold(strings.TrimSpace(countryCode), "CN") {
		return BMCLAPIMirror
	}
	return OfficialMirror
}

// CountryDetector 由 Detector 实现。
type CountryDetector interface {
	CountryCode(ctx context.Context) (string, error)
}

// Resolve 按配置模式选择镜像。auto 模式下探测失败时回退到官方地址。
func Resolve(ctx context.Context, mode string, detector CountryDetector) (Mirror, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeAuto:
		if detector == nil {
			return OfficialMirror, nil
		}
		code, err := detector.CountryCode(ctx)
		if err != nil {
			logrus.WithError(err).WithField("code", "mirror_auto_fallback").
				Info("Could not detect region, using official endpoints")
			return OfficialMirror, nil
		}
		return SelectMirror(code), nil
	case ModeOfficial:
		return OfficialMirror, nil
	case ModeBMCLAPI:
		return BMCLAPIMirror, nil
	default:
		return Mirror{}, errors.Errorf("region: unknown mirror mode %q", mode)
	}
}

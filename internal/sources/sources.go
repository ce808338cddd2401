// Package sources 为每个生态（原版与各加载器）提供统一的目录访问接口。
package sources

import (
	"context"
	"path"
	"strings"

	"github.com/pkg/errors"

	"github.com/liangyou/mcvm/internal/region"
	"github.com/liangyou/mcvm/internal/remote"
	"github.com/liangyou/mcvm/pkg/models"
)

var (
	// ErrUnknownSource 表示注册表中没有该名称的生态。
	ErrUnknownSource = errors.New("sources: unknown source")
	// ErrNoInstaller 表示上游没有可用的安装器。
	ErrNoInstaller = errors.New("sources: no installer available")
	// ErrNotFound 表示请求的游戏版本或变体不存在。
	ErrNotFound = errors.New("sources: not found")
)

// Source 描述一个生态的目录能力。返回的列表顺序无关紧要，排序由调用方负责。
type Source interface {
	Name() string
	Title() string
	GameVersions(ctx context.Context) ([]models.Entry, error)
	Variants(ctx context.Context, game string) ([]models.Entry, error)
	Details(ctx context.Context, game string, variant models.Entry) (models.Details, error)
	ResolveInstaller(ctx context.Context, game string, variant models.Entry) (models.Artifact, error)
}

// Ordered 由上游已按从新到旧排列列表的生态实现，目录对其保持上游顺序而不重新排序。
type Ordered interface {
	UpstreamOrder() bool
}

// Registry 按固定顺序保存所有生态。
type Registry struct {
	order  []Source
	byName map[string]Source
}

// NewRegistry 使用同一个 fetcher 与镜像创建全部内置生态。
func NewRegistry(fetcher remote.Fetcher, mirror region.Mirror) *Registry {
	return NewRegistryOf(
		NewVanilla(fetcher, mirror),
		NewFabric(fetcher, mirror),
		NewQuilt(fetcher, mirror),
		NewNeoForge(fetcher, mirror),
		NewLiteLoader(fetcher, mirror),
	)
}

// NewRegistryOf 由给定的生态创建注册表，主要用于测试。
func NewRegistryOf(list ...Source) *Registry {
	r := &Registry{byName: make(map[string]Source, len(list))}
	for _, s := range list {
		r.order = append(r.order, s)
		r.byName[s.Name()] = s
	}
	return r
}

// All 返回全部生态。
func (r *Registry) All() []Source {
	return append([]Source(nil), r.order...)
}

// Names 返回全部生态名称。
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	for i, s := range r.order {
		names[i] = s.Name()
	}
	return names
}

// Get 按名称查找生态，大小写不敏感。
func (r *Registry) Get(name string) (Source, error) {
	if s, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return s, nil
	}
	return nil, errors.Wrapf(ErrUnknownSource, "%q (available: %s)", name, strings.Join(r.Names(), ", "))
}

func stabilityLabel(stable bool) string {
	if stable {
		return "stable"
	}
	return "unstable"
}

// baseName 返回 URL 路径的最后一段。
func baseName(rawURL string) string {
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		rawURL = rawURL[:i]
	}
	name := path.Base(rawURL)
	if name == "." || name == "/" {
		return ""
	}
	return name
}

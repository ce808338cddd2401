// Package catalog 聚合各生态的版本目录：排序、合并补充条目、过滤并在内存中缓存。
package catalog

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/liangyou/mcvm/internal/ordering"
	"github.com/liangyou/mcvm/internal/sources"
	"github.com/liangyou/mcvm/pkg/models"
)

const (
	defaultTTL   = 10 * time.Minute
	warmParallel = 4
	keySeparator = "\x00"
)

// SourceLookup 由 sources.Registry 实现。
type SourceLookup interface {
	Get(name string) (sources.Source, error)
	All() []sources.Source
}

// SourceInfo 描述一个可浏览的生态。
type SourceInfo struct {
	Name  string `json:"name" yaml:"name"`
	Title string `json:"title" yaml:"title"`
}

// Query 描述列表过滤条件，零值表示不过滤。
type Query struct {
	Filter     string // 版本号子串，大小写不敏感
	Constraint string // semver 约束，如 ">=1.20, <1.21"；无法解析为 semver 的条目会被排除
	StableOnly bool
	Limit      int
}

// Service 提供带缓存的目录访问。
type Service struct {
	lookup      SourceLookup
	cache       *gocache.Cache
	group       singleflight.Group
	supplements map[string][]models.Hint
}

// Option 用于配置 Service。
type Option func(*Service)

// WithTTL 设置目录缓存的有效期。
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.cache = gocache.New(ttl, 2*ttl)
		}
	}
}

// WithSupplements 设置补充条目。键为生态名时合并进游戏版本列表，
// 为 "生态/游戏版本" 时合并进该游戏版本的变体列表。
func WithSupplements(supplements map[string][]models.Hint) Option {
	return func(s *Service) {
		s.supplements = supplements
	}
}

// NewService 创建目录服务。
func NewService(lookup SourceLookup, opts ...Option) *Service {
	s := &Service{
		lookup: lookup,
		cache:  gocache.New(defaultTTL, 2*defaultTTL),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sources 返回全部生态。
func (s *Service) Sources() []SourceInfo {
	all := s.lookup.All()
	out := make([]SourceInfo, len(all))
	for i, src := range all {
		out[i] = SourceInfo{Name: src.Name(), Title: src.Title()}
	}
	return out
}

// Title 返回生态的展示名称。
func (s *Service) Title(source string) (string, error) {
	src, err := s.lookup.Get(source)
	if err != nil {
		return "", err
	}
	return src.Title(), nil
}

// Games 返回从新到旧排列的游戏版本。
func (s *Service) Games(ctx context.Context, source string, q Query) ([]models.Entry, error) {
	src, err := s.lookup.Get(source)
	if err != nil {
		return nil, err
	}
	list, err := s.memoList(ctx, src, cacheKey("games", src.Name()), src.Name(), src.GameVersions)
	if err != nil {
		return nil, err
	}
	return Apply(list, q)
}

// Variants 返回某个游戏版本从新到旧排列的变体。
func (s *Service) Variants(ctx context.Context, source, game string, q Query) ([]models.Entry, error) {
	src, err := s.lookup.Get(source)
	if err != nil {
		return nil, err
	}
	fetch := func(ctx context.Context) ([]models.Entry, error) {
		return src.Variants(ctx, game)
	}
	list, err := s.memoList(ctx, src, cacheKey("variants", src.Name(), game), src.Name()+"/"+game, fetch)
	if err != nil {
		return nil, err
	}
	return Apply(list, q)
}

// ResolveVariant 按 ID 查找变体；id 为空时返回最新的稳定变体，没有稳定变体时返回最新变体。
func (s *Service) ResolveVariant(ctx context.Context, source, game, id string) (models.Entry, error) {
	variants, err := s.Variants(ctx, source, game, Query{})
	if err != nil {
		return models.Entry{}, err
	}
	if len(variants) == 0 {
		return models.Entry{}, errors.Wrapf(sources.ErrNotFound, "catalog: %s %s has no variants", source, game)
	}
	if id == "" {
		if i := slices.IndexFunc(variants, func(e models.Entry) bool { return e.Stable }); i >= 0 {
			return variants[i], nil
		}
		return variants[0], nil
	}
	if i := slices.IndexFunc(variants, func(e models.Entry) bool { return e.ID == id }); i >= 0 {
		return variants[i], nil
	}
	return models.Entry{}, errors.Wrapf(sources.ErrNotFound, "catalog: %s %s variant %q", source, game, id)
}

// Details 返回所选条目的详细信息。
func (s *Service) Details(ctx context.Context, source, game string, variant models.Entry) (models.Details, error) {
	src, err := s.lookup.Get(source)
	if err != nil {
		return models.Details{}, err
	}
	key := cacheKey("details", src.Name(), game, variant.ID)
	v, err := s.memo(ctx, key, func(ctx context.Context) (any, error) {
		return src.Details(ctx, game, variant)
	})
	if err != nil {
		return models.Details{}, err
	}
	return v.(models.Details), nil
}

// Installer 解析所选条目的下载文件，不做缓存。
func (s *Service) Installer(ctx context.Context, source, game string, variant models.Entry) (models.Artifact, error) {
	src, err := s.lookup.Get(source)
	if err != nil {
		return models.Artifact{}, err
	}
	return src.ResolveInstaller(ctx, game, variant)
}

// Warm 并发预取各生态的游戏版本列表，names 为空时预取全部。
func (s *Service) Warm(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		for _, src := range s.lookup.All() {
			names = append(names, src.Name())
		}
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(warmParallel)
	for _, name := range names {
		g.Go(func() error {
			if _, err := s.Games(ctx, name, Query{}); err != nil {
				return errors.Wrapf(err, "catalog: warm %s", name)
			}
			return nil
		})
	}
	return g.Wait()
}

// Invalidate 清空缓存。
func (s *Service) Invalidate() {
	s.cache.Flush()
}

// memoList 缓存排序并合并补充条目后的列表。实现 sources.Ordered 且返回真的生态保持上游顺序。
func (s *Service) memoList(ctx context.Context, src sources.Source, key, supplementKey string, fetch func(context.Context) ([]models.Entry, error)) ([]models.Entry, error) {
	v, err := s.memo(ctx, key, func(ctx context.Context) (any, error) {
		list, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if o, ok := src.(sources.Ordered); !ok || !o.UpstreamOrder() {
			ordering.SortDescending(list, func(e models.Entry) string { return e.Version })
		}
		if hints := s.supplements[supplementKey]; len(hints) > 0 {
			list = ordering.Merge(list, hints)
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]models.Entry)), nil
}

func (s *Service) memo(ctx context.Context, key string, fetch func(context.Context) (any, error)) (any, error) {
	if v, ok := s.cache.Get(key); ok {
		return v, nil
	}
	v, err, shared := s.group.Do(key, func() (any, error) {
		if v, ok := s.cache.Get(key); ok {
			return v, nil
		}
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		s.cache.SetDefault(key, v)
		return v, nil
	})
	logrus.WithFields(logrus.Fields{
		"code":   "catalog_fetch",
		"key":    strings.ReplaceAll(key, keySeparator, "/"),
		"shared": shared,
	}).Debug("Catalog cache miss")
	return v, err
}

func cacheKey(parts ...string) string {
	return strings.Join(parts, keySeparator)
}

// Apply 依次应用子串过滤、稳定性过滤、semver 约束与数量限制，不修改输入。
func Apply(list []models.Entry, q Query) ([]models.Entry, error) {
	var constraint *semver.Constraints
	if c := strings.TrimSpace(q.Constraint); c != "" {
		parsed, err := semver.NewConstraint(c)
		if err != nil {
			return nil, errors.Wrapf(err, "catalog: invalid constraint %q", c)
		}
		constraint = parsed
	}
	filter := strings.ToLower(strings.TrimSpace(q.Filter))

	out := make([]models.Entry, 0, len(list))
	for _, e := range list {
		if filter != "" && !strings.Contains(strings.ToLower(e.Label()), filter) {
			continue
		}
		if q.StableOnly && !e.Stable {
			continue
		}
		if constraint != nil {
			v, err := semver.NewVersion(e.Version)
			if err != nil || !constraint.Check(v) {
				continue
			}
		}
		out = append(out, e)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

// Package config 读取可选的 YAML 配置文件并合并默认值。
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/liangyou/mcvm/internal/region"
	"github.com/liangyou/mcvm/pkg/models"
)

const (
	appDir   = "mcvm"
	fileName = "config.yaml"

	defaultTimeout   = 30 * time.Second
	defaultCacheTTL  = 10 * time.Minute
	defaultUserAgent = "mcvm/0.1 (+https://github.com/liangyou/mcvm)"
	defaultLogLevel  = "warn"
)

// fileConfig 是配置文件的磁盘格式，时长使用 Go 的 duration 写法（如 30s、5m）。
type fileConfig struct {
	Mirror      string                   `yaml:"mirror"`
	Timeout     string                   `yaml:"timeout"`
	CacheTTL    string                   `yaml:"cache_ttl"`
	UserAgent   string                   `yaml:"user_agent"`
	DownloadDir string                   `yaml:"download_dir"`
	LogLevel    string                   `yaml:"log_level"`
	Supplements map[string][]models.Hint `yaml:"supplements"`
}

// Default 返回默认配置。
func Default() models.Config {
	return models.Config{
		Mirror:    region.ModeAuto,
		Timeout:   defaultTimeout,
		CacheTTL:  defaultCacheTTL,
		UserAgent: defaultUserAgent,
		LogLevel:  defaultLogLevel,
	}
}

// DefaultPath 返回用户配置目录下的 mcvm/config.yaml。
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "config: locate user config dir")
	}
	return filepath.Join(dir, appDir, fileName), nil
}

// Load 读取配置文件。path 为空时使用默认路径，文件不存在时返回默认配置。
func Load(path string) (models.Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			logrus.WithError(err).Debug("No user config dir, using defaults")
			return Default(), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logrus.WithField("path", path).Debug("Config file not found, using defaults")
		return Default(), nil
	}
	if err != nil {
		return models.Config{}, errors.Wrapf(err, "config: read %s", path)
	}

	cfg, err := Parse(data)
	if err != nil {
		return models.Config{}, errors.Wrapf(err, "config: %s", path)
	}
	return cfg, nil
}

// Parse 解析 YAML 内容，未设置的字段取默认值。
func Parse(data []byte) (models.Config, error) {
	var raw fileConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return models.Config{}, errors.Wrap(err, "config: decode yaml")
	}

	cfg := Default()
	if raw.Mirror != "" {
		cfg.Mirror = strings.ToLower(strings.TrimSpace(raw.Mirror))
	}
	if raw.Timeout != "" {
		d, err := parseDuration("timeout", raw.Timeout)
		if err != nil {
			return models.Config{}, err
		}
		cfg.Timeout = d
	}
	if raw.CacheTTL != "" {
		d, err := parseDuration("cache_ttl", raw.CacheTTL)
		if err != nil {
			return models.Config{}, err
		}
		cfg.CacheTTL = d
	}
	if raw.UserAgent != "" {
		cfg.UserAgent = raw.UserAgent
	}
	if raw.DownloadDir != "" {
		cfg.DownloadDir = expandHome(raw.DownloadDir)
	}
	if raw.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(raw.LogLevel))
	}
	cfg.Supplements = normalizeSupplements(raw.Supplements)

	if err := Validate(cfg); err != nil {
		return models.Config{}, err
	}
	return cfg, nil
}

// Override 用命令行参数覆盖配置并重新校验，空值表示不覆盖。取值与配置文件一样不区分大小写。
func Override(cfg models.Config, mirror, logLevel string) (models.Config, error) {
	if m := strings.ToLower(strings.TrimSpace(mirror)); m != "" {
		cfg.Mirror = m
	}
	if l := strings.ToLower(strings.TrimSpace(logLevel)); l != "" {
		cfg.LogLevel = l
	}
	if err := Validate(cfg); err != nil {
		return models.Config{}, err
	}
	return cfg, nil
}

// Validate 检查配置取值是否合法。
func Validate(cfg models.Config) error {
	switch cfg.Mirror {
	case region.ModeAuto, region.ModeOfficial, region.ModeBMCLAPI:
	default:
		return errors.Errorf("config: mirror must be one of auto, official, bmclapi (got %q)", cfg.Mirror)
	}
	if cfg.Timeout <= 0 {
		return errors.New("config: timeout must be positive")
	}
	if cfg.CacheTTL <= 0 {
		return errors.New("config: cache_ttl must be positive")
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return errors.Wrap(err, "config: log_level")
	}
	for key, hints := range cfg.Supplements {
		for i, h := range hints {
			if strings.TrimSpace(h.ID) == "" {
				return errors.Errorf("config: supplements.%s[%d]: id is required", key, i)
			}
		}
	}
	return nil
}

func parseDuration(field, value string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, errors.Wrapf(err, "config: %s", field)
	}
	return d, nil
}

// normalizeSupplements 统一键的大小写，缺省 Version 取 ID，并标记来源。
func normalizeSupplements(in map[string][]models.Hint) map[string][]models.Hint {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string][]models.Hint, len(in))
	for key, hints := range in {
		source, game, _ := strings.Cut(strings.TrimSpace(key), "/")
		norm := strings.ToLower(source)
		if game != "" {
			norm += "/" + game
		}
		list := make([]models.Hint, len(hints))
		for i, h := range hints {
			if h.Version == "" {
				h.Version = h.ID
			}
			if h.Source == "" {
				h.Source = "config"
			}
			list[i] = h
		}
		out[norm] = append(out[norm], list...)
	}
	return out
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

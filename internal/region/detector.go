// Package region 探测用户所在地区并据此选择 Minecraft 元数据镜像。
package region

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const defaultTimeout = 3 * time.Second

var (
	defaultEndpoints = []string{"https://ipinfo.io/country", "https://ipapi.co/json"}

	errEmptyCountry = errors.New("region: empty country code")
)

// HTTPClient 最小化 HTTP 客户端接口，便于测试替换。
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Detector 依次查询地理位置接口，返回第一个成功的国家代码。
type Detector struct {
	endpoints []string
	client    HTTPClient
	timeout   time.Duration

	once sync.Once
	code string
	err  error
}

// Option 用于配置 Detector。
type Option func(*Detector)

// WithEndpoints 替换默认的探测接口列表，按顺序尝试。
func WithEndpoints(endpoints ...string) Option {
	return func(d *Detector) {
		if len(endpoints) > 0 {
			d.endpoints = endpoints
		}
	}
}

// WithHTTPClient 设置自定义 HTTP 客户端。
func WithHTTPClient(client HTTPClient) Option {
	return func(d *Detector) {
		if client != nil {
			d.client = client
		}
	}
}

// WithTimeout 设置每个接口的请求超时时间。
func WithTimeout(timeout time.Duration) Option {
	return func(d *Detector) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// NewDetector 创建 Detector 实例。
func NewDetector(opts ...Option) *Detector {
	d := &Detector{
		endpoints: defaultEndpoints,
		client:    http.DefaultClient,
		timeout:   defaultTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// CountryCode 返回大写的 ISO 国家代码（如 CN、US）。结果只探测一次，失败也会被记住。
func (d *Detector) CountryCode(ctx context.Context) (string, error) {
	d.once.Do(func() {
		d.code, d.err = d.lookup(ctx)
	})
	return d.code, d.err
}

func (d *Detector) lookup(ctx context.Context) (string, error) {
	var failures []string
	for _, endpoint := range d.endpoints {
		code, err := d.fetchCountry(ctx, endpoint)
		if err == nil {
			return code, nil
		}
		logrus.WithError(err).WithFields(logrus.Fields{
			"code": "region_lookup_failed",
			"url":  endpoint,
		}).Debug("Country lookup failed")
		failures = append(failures, err.Error())
	}
	if len(failures) == 0 {
		return "", errors.New("region: no lookup endpoints configured")
	}
	return "", errors.Errorf("region: country lookup failed: %s", strings.Join(failures, "; "))
}

func (d *Detector) fetchCountry(ctx context.Context, endpoint string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", errors.Wrap(err, "region: build request")
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "region: request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("region: unexpected status %d from %s", resp.StatusCode, endpoint)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return "", errors.Wrap(err, "region: read body")
	}
	return parseCountry(data)
}

// parseCountry 同时接受纯文本（ipinfo）与带 country_code/country 字段的 JSON（ipapi）。
func parseCountry(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if bytes.HasPrefix(data, []byte("{")) {
		var payload struct {
			CountryCode string `json:"country_code"`
			Country     string `json:"country"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return "", errors.Wrap(err, "region: decode response")
		}
		data = []byte(payload.CountryCode)
		if len(data) == 0 {
			data = []byte(payload.Country)
		}
	}
	code := strings.ToUpper(strings.TrimSpace(string(data)))
	if code == "" {
		return "", errEmptyCountry
	}
	return code, nil
}

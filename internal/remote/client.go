package remote

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/die-net/lrucache"
	"github.com/gregjones/httpcache"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "mcvm/0.1"
	maxCacheSize     = 64 * 1024 * 1024
	maxCacheAge      = 24 * time.Hour
	maxManifestBytes = 64 * 1024 * 1024
)

// Fetcher 定义获取远程清单的能力，各生态适配器依赖该接口。
type Fetcher interface {
	GetJSON(ctx context.Context, url string, v any) error
	GetXML(ctx context.Context, url string, v any) error
}

// HTTPClient 描述最小化的 HTTP 客户端接口，方便测试时替换。
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError 表示上游返回了非 200 状态码。
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote: unexpected status %d from %s", e.StatusCode, e.URL)
}

// Option 用于配置 Client。
type Option func(*Client)

// WithHTTPClient 设置 HTTP 客户端，传入后不再启用内置的响应缓存。
func WithHTTPClient(h HTTPClient) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithTimeout 设置单次请求超时时间。
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithUserAgent 设置请求头中的 User-Agent。
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// Client 实现 Fetcher 接口。
type Client struct {
	httpClient HTTPClient
	timeout    time.Duration
	userAgent  string
}

// NewClient 创建远程清单客户端，默认在内存中按 HTTP 缓存语义复用响应。
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: NewCachingHTTPClient(),
		timeout:    defaultTimeout,
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewCachingHTTPClient 返回带 LRU 内存缓存的 http.Client，进程退出后不保留任何状态。
func NewCachingHTTPClient() *http.Client {
	store := lrucache.New(maxCacheSize, int64(maxCacheAge/time.Second))
	return httpcache.NewTransport(store).Client()
}

// GetJSON 获取并解码 JSON 文档。
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	body, err := c.get(ctx, url, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrapf(err, "remote: decode json from %s", url)
	}
	return nil
}

// GetXML 获取并解码 XML 文档。
func (c *Client) GetXML(ctx context.Context, url string, v any) error {
	body, err := c.get(ctx, url, "application/xml")
	if err != nil {
		return err
	}
	if err := xml.Unmarshal(body, v); err != nil {
		return errors.Wrapf(err, "remote: decode xml from %s", url)
	}
	return nil
}

func (c *Client) get(ctx context.Context, url, accept string) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "remote: build request")
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.userAgent)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "remote: request %s", url)
	}
	defer resp.Body.Close()

	logrus.WithFields(logrus.Fields{
		"code":     "remote_fetch",
		"url":      url,
		"status":   resp.StatusCode,
		"cached":   resp.Header.Get(httpcache.XFromCache) != "",
		"duration": time.Since(started).String(),
	}).Debug("Fetched remote document")

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestBytes))
	if err != nil {
		return nil, errors.Wrapf(err, "remote: read body of %s", url)
	}
	return body, nil
}

var _ Fetcher = (*Client)(nil)

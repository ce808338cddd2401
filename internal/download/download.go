// Package download 将远程文件流式写入本地磁盘，并通过通道报告进度与结果。
package download

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/liangyou/mcvm/internal/remote"
)

const (
	partSuffix       = ".part"
	defaultUserAgent = "mcvm/0.1"
	reportInterval   = 100 * time.Millisecond
)

// ErrChecksumMismatch 表示下载内容与目录提供的校验值不一致。
var ErrChecksumMismatch = errors.New("download: checksum mismatch")

// Progress 描述已下载字节数。Total 为 -1 表示总大小未知。
type Progress struct {
	Downloaded int64
	Total      int64
}

// Fraction 返回 0 到 1 之间的完成比例，总大小未知时返回 -1。
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return -1
	}
	f := float64(p.Downloaded) / float64(p.Total)
	if f > 1 {
		f = 1
	}
	return f
}

// Result 是一次下载的最终结果。失败时 Path 为空，未完成的 .part 文件保留在磁盘上。
type Result struct {
	Path string
	Size int64
	Err  error
}

// Request 描述一次下载。
type Request struct {
	URL          string
	Dest         string
	Checksum     string
	ChecksumType string // sha1、sha256 或 md5，Checksum 为空时不校验
	Size         int64  // 服务器未返回长度时用于显示进度
}

// HTTPClient 定义 Downloader 所需的 HTTP 客户端能力。
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Downloader 负责下载文件并进行校验。
type Downloader struct {
	httpClient HTTPClient
	userAgent  string
	interval   time.Duration
}

// Option 配置 Downloader。
type Option func(*Downloader)

// WithHTTPClient 指定自定义 HTTP 客户端。
func WithHTTPClient(client HTTPClient) Option {
	return func(d *Downloader) {
		if client != nil {
			d.httpClient = client
		}
	}
}

// WithUserAgent 设置请求头中的 User-Agent。
func WithUserAgent(ua string) Option {
	return func(d *Downloader) {
		if ua != "" {
			d.userAgent = ua
		}
	}
}

// WithReportInterval 设置进度上报的最小间隔，0 表示每次读取都上报。
func WithReportInterval(interval time.Duration) Option {
	return func(d *Downloader) {
		if interval >= 0 {
			d.interval = interval
		}
	}
}

// New 创建 Downloader。下载不使用响应缓存。
func New(opts ...Option) *Downloader {
	d := &Downloader{
		httpClient: http.DefaultClient,
		userAgent:  defaultUserAgent,
		interval:   reportInterval,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Job 是一次进行中的下载。Progress 在下载结束前关闭，随后 Done 发送唯一的结果。
type Job struct {
	progress chan Progress
	done     chan Result
}

// Progress 返回进度通道。消费方跟不上时只保留最新的进度。
func (j *Job) Progress() <-chan Progress {
	return j.progress
}

// Done 返回结果通道。
func (j *Job) Done() <-chan Result {
	return j.done
}

// Wait 丢弃进度并阻塞到下载结束。
func (j *Job) Wait() Result {
	for range j.progress {
	}
	return <-j.done
}

// Start 在后台开始下载。
func (d *Downloader) Start(ctx context.Context, req Request) *Job {
	job := &Job{
		progress: make(chan Progress, 1),
		done:     make(chan Result, 1),
	}
	go func() {
		path, size, err := d.run(ctx, req, job.report)
		close(job.progress)
		job.done <- Result{Path: path, Size: size, Err: err}
		close(job.done)
	}()
	return job
}

// Download 同步下载，onProgress 可以为 nil。
func (d *Downloader) Download(ctx context.Context, req Request, onProgress func(Progress)) (Result, error) {
	job := d.Start(ctx, req)
	for p := range job.Progress() {
		if onProgress != nil {
			onProgress(p)
		}
	}
	res := <-job.Done()
	return res, res.Err
}

// report 只由下载协程调用；通道已满时替换为最新的进度。
func (j *Job) report(p Progress) {
	select {
	case j.progress <- p:
		return
	default:
	}
	select {
	case <-j.progress:
	default:
	}
	select {
	case j.progress <- p:
	default:
	}
}

func (d *Downloader) run(ctx context.Context, req Request, report func(Progress)) (string, int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(req.Dest) == "" {
		return "", 0, errors.New("download: destination is required")
	}
	hasher, err := newHasher(req.ChecksumType, req.Checksum)
	if err != nil {
		return "", 0, err
	}
	log := logrus.WithFields(logrus.Fields{"url": req.URL, "dest": req.Dest})

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return "", 0, errors.Wrap(err, "download: build request")
	}
	httpReq.Header.Set("User-Agent", d.userAgent)

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return "", 0, errors.Wrap(err, "download: request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, &remote.StatusError{URL: req.URL, StatusCode: resp.StatusCode}
	}

	if dir := filepath.Dir(req.Dest); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", 0, errors.Wrap(err, "download: create dir")
		}
	}
	partPath := req.Dest + partSuffix
	file, err := os.Create(partPath)
	if err != nil {
		return "", 0, errors.Wrap(err, "download: create file")
	}
	defer file.Close()

	total := resp.ContentLength
	if total < 0 && req.Size > 0 {
		total = req.Size
	}
	if total < 0 {
		total = -1
	}
	report(Progress{Downloaded: 0, Total: total})

	var w io.Writer = file
	if hasher != nil {
		w = io.MultiWriter(file, hasher)
	}
	pr := &progressReader{r: resp.Body, total: total, report: report, interval: d.interval}
	written, err := io.Copy(w, pr)
	if err != nil {
		log.WithError(err).WithField("code", "download_interrupted").Warn("Download interrupted, partial file kept")
		return "", written, errors.Wrap(err, "download: write file")
	}
	report(Progress{Downloaded: written, Total: total})

	if err := file.Sync(); err != nil {
		return "", written, errors.Wrap(err, "download: sync file")
	}
	if err := file.Close(); err != nil {
		return "", written, errors.Wrap(err, "download: close file")
	}

	if hasher != nil {
		actual := hex.EncodeToString(hasher.Sum(nil))
		if !strings.EqualFold(actual, strings.TrimSpace(req.Checksum)) {
			return "", written, errors.Wrapf(ErrChecksumMismatch, "got %s want %s (%s)", actual, req.Checksum, req.ChecksumType)
		}
	}

	if err := os.Rename(partPath, req.Dest); err != nil {
		return "", written, errors.Wrap(err, "download: finalize file")
	}
	log.WithFields(logrus.Fields{"code": "download_complete", "bytes": written}).Info("Download complete")
	return req.Dest, written, nil
}

func newHasher(kind, checksum string) (hash.Hash, error) {
	if strings.TrimSpace(checksum) == "" {
		return nil, nil
	}
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "sha1":
		return sha1.New(), nil
	case "sha256", "":
		return sha256.New(), nil
	case "md5":
		return md5.New(), nil
	default:
		return nil, errors.Errorf("download: unsupported checksum type %q", kind)
	}
}

type progressReader struct {
	r        io.Reader
	total    int64
	read     int64
	report   func(Progress)
	interval time.Duration
	last     time.Time
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		if now := time.Now(); p.interval == 0 || now.Sub(p.last) >= p.interval {
			p.last = now
			p.report(Progress{Downloaded: p.read, Total: p.total})
		}
	}
	return n, err
}

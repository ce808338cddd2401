package models

import "time"

// Config 保存 mcvm 解析后的运行配置。
type Config struct {
	Mirror      string            // auto、official 或 bmclapi
	Timeout     time.Duration     // 单次请求超时
	CacheTTL    time.Duration     // 目录缓存时间
	UserAgent   string            // 请求头中的 User-Agent
	DownloadDir string            // 默认下载目录，为空时使用当前目录
	LogLevel    string            // logrus 日志级别
	Supplements map[string][]Hint // 按生态名称追加的补充条目
}

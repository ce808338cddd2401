// Package logging 配置全局 logrus 日志。
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const logFileName = "mcvm.log"

// Setup 设置日志级别与输出，level 为空时使用 warn。
func Setup(level string, out io.Writer) error {
	if level == "" {
		level = "warn"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return errors.Wrap(err, "logging: parse level")
	}
	if out == nil {
		out = os.Stderr
	}
	logrus.SetLevel(lvl)
	logrus.SetOutput(out)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
	return nil
}

// OpenFile 以追加方式打开用户缓存目录下的日志文件，供全屏界面使用，避免日志写乱屏幕。
func OpenFile() (io.WriteCloser, string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return nil, "", errors.Wrap(err, "logging: locate cache dir")
	}
	dir = filepath.Join(dir, "mcvm")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", errors.Wrap(err, "logging: create log dir")
	}
	path := filepath.Join(dir, logFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, "", errors.Wrap(err, "logging: open log file")
	}
	return f, path, nil
}

package download

import (
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const fallbackName = "download.bin"

// SuggestName 返回 URL 路径的最后一段作为默认文件名。
func SuggestName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fallbackName
	}
	// u.Path 已经解码，不能再次反转义。
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return fallbackName
	}
	return name
}

// ResolveDest 计算保存路径：dest 为空时保存到 dir，dest 是已存在的目录或以分隔符结尾时在其中使用 name。
func ResolveDest(dest, dir, name string) string {
	if dest == "" {
		if dir == "" {
			dir = "."
		}
		return filepath.Join(dir, name)
	}
	if strings.HasSuffix(dest, string(os.PathSeparator)) || strings.HasSuffix(dest, "/") {
		return filepath.Join(dest, name)
	}
	if info, err := os.Stat(dest); err == nil && info.IsDir() {
		return filepath.Join(dest, name)
	}
	return dest
}

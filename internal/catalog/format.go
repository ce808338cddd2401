package catalog

import (
	"fmt"
	"strings"

	"github.com/docker/go-units"

	"github.com/liangyou/mcvm/pkg/models"
)

// FormatEntry 格式化单行输出，包含类型、发布日期与大小（如有）。
func FormatEntry(e models.Entry) string {
	parts := []string{e.Label()}
	if e.Kind != "" {
		parts = append(parts, "("+e.Kind+")")
	}
	if !e.ReleaseTime.IsZero() {
		parts = append(parts, e.ReleaseTime.Format("2006-01-02"))
	}
	if e.Size > 0 {
		parts = append(parts, units.HumanSize(float64(e.Size)))
	}
	return strings.Join(parts, " ")
}

// FormatArtifact 格式化下载文件说明。
func FormatArtifact(a models.Artifact) string {
	name := a.FileName
	if name == "" {
		name = a.URL
	}
	line := fmt.Sprintf("%s %s -> %s", a.Name, a.Version, name)
	if a.Size > 0 {
		line += " [" + units.HumanSize(float64(a.Size)) + "]"
	}
	if a.Checksum != "" {
		line += fmt.Sprintf(" %s:%s", a.ChecksumType, a.Checksum)
	}
	return line
}

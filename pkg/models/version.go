package models

import "time"

// Entry 描述目录中的一条版本记录（游戏版本、加载器版本或可下载制品）。
type Entry struct {
	ID           string            `json:"id" yaml:"id"`                                         // 目录内唯一标识
	Version      string            `json:"version" yaml:"version"`                               // 用于排序与展示的版本号
	Kind         string            `json:"kind,omitempty" yaml:"kind,omitempty"`                 // release、snapshot、stable 等分类
	Stable       bool              `json:"stable" yaml:"stable"`                                 // 上游标记的稳定性
	FileName     string            `json:"fileName,omitempty" yaml:"fileName,omitempty"`         // 远程文件名
	Checksum     string            `json:"checksum,omitempty" yaml:"checksum,omitempty"`         // 上游提供的校验值
	ChecksumType string            `json:"checksumType,omitempty" yaml:"checksumType,omitempty"` // sha1、sha256 或 md5
	DownloadURL  string            `json:"url,omitempty" yaml:"url,omitempty"`                   // 元数据或制品地址
	Size         int64             `json:"size,omitempty" yaml:"size,omitempty"`                 // 制品大小，未知时为 0
	ReleaseTime  time.Time         `json:"releaseTime,omitempty" yaml:"releaseTime,omitempty"`   // 发布时间
	Source       string            `json:"source,omitempty" yaml:"source,omitempty"`             // 所属生态，例如 fabric
	Game         string            `json:"game,omitempty" yaml:"game,omitempty"`                 // 加载器条目对应的游戏版本
	Extra        map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`               // 透传字段
}

// Hint 是带有位置提示的补充条目，Above 指向应当紧随其后的条目 ID。
type Hint struct {
	Entry `yaml:",inline"`
	Above string `json:"above,omitempty" yaml:"above,omitempty"`
}

// Label 返回展示用的版本文本。
func (e Entry) Label() string {
	if e.Version != "" {
		return e.Version
	}
	return e.ID
}

// Artifact 描述最终下载的安装器或游戏文件。
type Artifact struct {
	Name         string `json:"name" yaml:"name"`
	Version      string `json:"version,omitempty" yaml:"version,omitempty"`
	URL          string `json:"url" yaml:"url"`
	FileName     string `json:"fileName" yaml:"fileName"`
	Checksum     string `json:"checksum,omitempty" yaml:"checksum,omitempty"`
	ChecksumType string `json:"checksumType,omitempty" yaml:"checksumType,omitempty"`
	Size         int64  `json:"size,omitempty" yaml:"size,omitempty"`
	Stable       bool   `json:"stable" yaml:"stable"`
	Note         string `json:"note,omitempty" yaml:"note,omitempty"` // 例如未找到稳定安装器时的说明
}

// Details 是选中条目后获取的详细信息。
type Details struct {
	Title     string     `json:"title" yaml:"title"`
	Lines     []string   `json:"lines" yaml:"lines"`
	Technical []string   `json:"technical,omitempty" yaml:"technical,omitempty"`
	Artifacts []Artifact `json:"artifacts,omitempty" yaml:"artifacts,omitempty"`
}

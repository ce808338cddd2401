// Package browser 保存目录浏览界面的不可变状态。
//
// 每个处理函数接收一个 ViewState 并返回新的 ViewState，从不修改入参。需要后台获取数据时，
// 处理函数同时返回一个带序号的 Request；结果回来时只有序号仍是该类请求的最新序号才会被采用。
package browser

import (
	"fmt"

	"github.com/liangyou/mcvm/internal/catalog"
	"github.com/liangyou/mcvm/internal/download"
	"github.com/liangyou/mcvm/pkg/models"
)

// Kind 区分后台请求的类别。
type Kind int

const (
	KindGames Kind = iota
	KindVariants
	KindDetails
	KindInstaller
	kindCount
)

func (k Kind) String() string {
	switch k {
	case KindGames:
		return "games"
	case KindVariants:
		return "variants"
	case KindDetails:
		return "details"
	case KindInstaller:
		return "installer"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Request 描述一次后台获取。
type Request struct {
	Kind    Kind
	Seq     uint64
	Source  string
	Game    string
	Variant models.Entry
}

// Screen 是当前展示的页面。
type Screen int

const (
	ScreenSources Screen = iota
	ScreenGames
	ScreenVariants
	ScreenDetails
	ScreenSave
	ScreenDownload
)

// DownloadState 描述进行中的下载。
type DownloadState struct {
	Active   bool
	Artifact models.Artifact
	Dest     string
	Progress download.Progress
}

// ViewState 是浏览界面的完整状态。
type ViewState struct {
	Screen      Screen
	Source      string
	SourceTitle string

	Games    []models.Entry
	Game     string
	Variants []models.Entry
	Variant  models.Entry
	Filter   string

	Details       models.Details
	DetailErr     string
	ShowTechnical bool

	Artifact models.Artifact
	SaveName string
	Download DownloadState

	// Dialog 非空时表示一条需要确认的阻塞消息。
	Dialog string
	Status string

	seq     uint64
	pending [kindCount]uint64
}

// New 返回初始状态。
func New() ViewState {
	return ViewState{Screen: ScreenSources}
}

// Pending 报告某类请求是否仍在进行。
func (s ViewState) Pending(k Kind) bool {
	return s.pending[k] != 0
}

// Busy 报告是否有任何请求或下载在进行。
func (s ViewState) Busy() bool {
	for _, seq := range s.pending {
		if seq != 0 {
			return true
		}
	}
	return s.Download.Active
}

// Blocked 报告是否有未确认的对话框。
func (s ViewState) Blocked() bool {
	return s.Dialog != ""
}

// CanSelectSource 报告是否可以切换生态。
func (s ViewState) CanSelectSource() bool {
	return !s.Blocked() && !s.Download.Active && !s.Pending(KindGames)
}

// CanSelectGame 报告是否可以选择游戏版本。
func (s ViewState) CanSelectGame() bool {
	return !s.Blocked() && !s.Download.Active && !s.Pending(KindVariants) && len(s.Games) > 0
}

// CanSelectVariant 报告是否可以选择变体。
func (s ViewState) CanSelectVariant() bool {
	return !s.Blocked() && !s.Download.Active && !s.Pending(KindDetails) && len(s.Variants) > 0
}

// CanDownload 报告下载按钮是否可用。
func (s ViewState) CanDownload() bool {
	return !s.Blocked() && !s.Download.Active && !s.Pending(KindInstaller) &&
		s.Screen == ScreenDetails && s.Game != ""
}

// VisibleGames 返回按当前过滤条件筛选后的游戏版本。
func (s ViewState) VisibleGames() []models.Entry {
	return s.visible(s.Games)
}

// VisibleVariants 返回按当前过滤条件筛选后的变体。
func (s ViewState) VisibleVariants() []models.Entry {
	return s.visible(s.Variants)
}

func (s ViewState) visible(list []models.Entry) []models.Entry {
	if s.Filter == "" {
		return list
	}
	out, err := catalog.Apply(list, catalog.Query{Filter: s.Filter})
	if err != nil {
		return list
	}
	return out
}

func (s ViewState) issue(k Kind, source, game string, variant models.Entry) (ViewState, Request) {
	s.seq++
	s.pending[k] = s.seq
	return s, Request{Kind: k, Seq: s.seq, Source: source, Game: game, Variant: variant}
}

// current 报告 req 是否仍是该类请求的最新一次。
func (s ViewState) current(req Request) bool {
	return req.Seq != 0 && s.pending[req.Kind] == req.Seq
}

func (s ViewState) settle(k Kind) ViewState {
	s.pending[k] = 0
	return s
}

package browser

import (
	"fmt"

	"github.com/liangyou/mcvm/internal/download"
	"github.com/liangyou/mcvm/pkg/models"
)

// SelectSource 切换生态并请求游戏版本列表。ok 为假时操作被忽略。
func (s ViewState) SelectSource(name, title string) (next ViewState, req Request, ok bool) {
	if !s.CanSelectSource() {
		return s, Request{}, false
	}
	s.Screen = ScreenGames
	s.Source, s.SourceTitle = name, title
	s.Games, s.Variants = nil, nil
	s.Game, s.Variant = "", models.Entry{}
	s.Details, s.DetailErr = models.Details{}, ""
	s.Filter, s.Status = "", ""
	s.pending = [kindCount]uint64{}
	s, req = s.issue(KindGames, name, "", models.Entry{})
	return s, req, true
}

// Refresh 重新请求当前页面的列表。
func (s ViewState) Refresh() (next ViewState, req Request, ok bool) {
	if s.Blocked() || s.Download.Active {
		return s, Request{}, false
	}
	switch s.Screen {
	case ScreenGames:
		if s.Pending(KindGames) {
			return s, Request{}, false
		}
		s, req = s.issue(KindGames, s.Source, "", models.Entry{})
		return s, req, true
	case ScreenVariants:
		if s.Pending(KindVariants) {
			return s, Request{}, false
		}
		s, req = s.issue(KindVariants, s.Source, s.Game, models.Entry{})
		return s, req, true
	}
	return s, Request{}, false
}

// ApplyGames 采用游戏版本列表结果，过期结果被丢弃。
func (s ViewState) ApplyGames(req Request, games []models.Entry, err error) ViewState {
	if !s.current(req) {
		return s
	}
	s = s.settle(KindGames)
	if err != nil {
		s.Dialog = fmt.Sprintf("Failed to load %s versions:\n%v", s.titleOrSource(), err)
		return s
	}
	s.Games = games
	s.Status = fmt.Sprintf("%d versions", len(games))
	return s
}

// SelectGame 选择游戏版本并请求其变体列表。
func (s ViewState) SelectGame(game string) (next ViewState, req Request, ok bool) {
	if !s.CanSelectGame() || game == "" {
		return s, Request{}, false
	}
	s.Screen = ScreenVariants
	s.Game = game
	s.Variants, s.Variant = nil, models.Entry{}
	s.Details, s.DetailErr = models.Details{}, ""
	s.Filter = ""
	s.pending[KindDetails], s.pending[KindInstaller] = 0, 0
	s, req = s.issue(KindVariants, s.Source, game, models.Entry{})
	return s, req, true
}

// ApplyVariants 采用变体列表结果。
func (s ViewState) ApplyVariants(req Request, variants []models.Entry, err error) ViewState {
	if !s.current(req) {
		return s
	}
	s = s.settle(KindVariants)
	if err != nil {
		s.Dialog = fmt.Sprintf("Failed to load %s versions for %s:\n%v", s.titleOrSource(), req.Game, err)
		return s
	}
	s.Variants = variants
	s.Status = fmt.Sprintf("%d builds for %s", len(variants), req.Game)
	return s
}

// SelectVariant 选择变体并请求详细信息。
func (s ViewState) SelectVariant(variant models.Entry) (next ViewState, req Request, ok bool) {
	if !s.CanSelectVariant() {
		return s, Request{}, false
	}
	s.Screen = ScreenDetails
	s.Variant = variant
	s.Details, s.DetailErr = models.Details{}, ""
	s.ShowTechnical = false
	s.pending[KindInstaller] = 0
	s, req = s.issue(KindDetails, s.Source, s.Game, variant)
	return s, req, true
}

// ApplyDetails 采用详细信息。失败只在详情区域显示，不弹出对话框。
func (s ViewState) ApplyDetails(req Request, details models.Details, err error) ViewState {
	if !s.current(req) {
		return s
	}
	s = s.settle(KindDetails)
	if err != nil {
		s.DetailErr = fmt.Sprintf("Could not load details: %v", err)
		return s
	}
	s.Details = details
	return s
}

// ToggleTechnical 切换技术细节视图。
func (s ViewState) ToggleTechnical() ViewState {
	if s.Screen == ScreenDetails && len(s.Details.Technical) > 0 {
		s.ShowTechnical = !s.ShowTechnical
	}
	return s
}

// RequestInstaller 请求解析所选条目的下载地址。
func (s ViewState) RequestInstaller() (next ViewState, req Request, ok bool) {
	if !s.CanDownload() {
		return s, Request{}, false
	}
	s, req = s.issue(KindInstaller, s.Source, s.Game, s.Variant)
	return s, req, true
}

// ApplyInstaller 采用解析结果并进入保存提示，默认文件名取自远程地址。
func (s ViewState) ApplyInstaller(req Request, artifact models.Artifact, err error) ViewState {
	if !s.current(req) {
		return s
	}
	s = s.settle(KindInstaller)
	if err != nil {
		s.Dialog = fmt.Sprintf("Could not find an installer:\n%v", err)
		return s
	}
	s.Artifact = artifact
	s.SaveName = artifact.FileName
	if s.SaveName == "" {
		s.SaveName = download.SuggestName(artifact.URL)
	}
	if artifact.Note != "" {
		s.Status = artifact.Note
	}
	s.Screen = ScreenSave
	return s
}

// CancelSave 取消保存提示，不显示任何消息。
func (s ViewState) CancelSave() ViewState {
	if s.Screen == ScreenSave {
		s.Screen = ScreenDetails
		s.Artifact = models.Artifact{}
		s.SaveName = ""
	}
	return s
}

// StartDownload 确认保存路径并进入下载页面。
func (s ViewState) StartDownload(dest string) (ViewState, bool) {
	if s.Screen != ScreenSave || dest == "" || s.Download.Active {
		return s, false
	}
	s.Screen = ScreenDownload
	s.Download = DownloadState{
		Active:   true,
		Artifact: s.Artifact,
		Dest:     dest,
		Progress: download.Progress{Total: -1},
	}
	s.Status = ""
	return s, true
}

// ApplyProgress 更新下载进度。
func (s ViewState) ApplyProgress(p download.Progress) ViewState {
	if s.Download.Active {
		s.Download.Progress = p
	}
	return s
}

// FinishDownload 结束下载。失败时弹出对话框，未完成的文件保留在磁盘上。
func (s ViewState) FinishDownload(res download.Result) ViewState {
	if !s.Download.Active {
		return s
	}
	s.Download.Active = false
	s.Screen = ScreenDetails
	if res.Err != nil {
		s.Dialog = fmt.Sprintf("Download failed:\n%v", res.Err)
		return s
	}
	s.Status = "Saved to " + res.Path
	return s
}

// Acknowledge 关闭对话框。
func (s ViewState) Acknowledge() ViewState {
	s.Dialog = ""
	return s
}

// SetFilter 设置当前列表的过滤文本。
func (s ViewState) SetFilter(text string) ViewState {
	if s.Screen == ScreenGames || s.Screen == ScreenVariants {
		s.Filter = text
	}
	return s
}

// Back 返回上一页，离开页面时其未完成的请求结果将被丢弃。
func (s ViewState) Back() ViewState {
	if s.Blocked() || s.Download.Active {
		return s
	}
	switch s.Screen {
	case ScreenSave:
		return s.CancelSave()
	case ScreenDetails:
		s.Screen = ScreenVariants
		s.pending[KindDetails], s.pending[KindInstaller] = 0, 0
		s.DetailErr = ""
	case ScreenVariants:
		s.Screen = ScreenGames
		s.pending[KindVariants] = 0
		s.Filter = ""
	case ScreenGames:
		s.Screen = ScreenSources
		s.pending = [kindCount]uint64{}
		s.Filter = ""
	}
	return s
}

func (s ViewState) titleOrSource() string {
	if s.SourceTitle != "" {
		return s.SourceTitle
	}
	return s.Source
}

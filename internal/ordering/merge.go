package ordering

import (
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/liangyou/mcvm/pkg/models"
)

// Merge 将补充条目合并进主列表。
//
// 结果以 primary 的副本开始。每一轮依次处理尚未放置的补充条目：没有 Above 的插入到最前面，
// Above 已放置的插入到该条目之前，其余留到下一轮。某一轮没有放置任何条目时停止，
// 剩余条目按原有相对顺序追加到末尾。ID 冲突时补充条目优先，输入不会被修改。
func Merge(primary []models.Entry, extra []models.Hint) []models.Entry {
	pending := dedupeHints(extra)
	overridden := make(map[string]struct{}, len(pending))
	for _, h := range pending {
		overridden[h.ID] = struct{}{}
	}

	result := make([]models.Entry, 0, len(primary)+len(pending))
	placed := make(map[string]struct{}, len(primary)+len(pending))
	for _, e := range primary {
		if _, ok := overridden[e.ID]; ok {
			continue
		}
		if _, dup := placed[e.ID]; dup {
			continue
		}
		result = append(result, e)
		placed[e.ID] = struct{}{}
	}

	for len(pending) > 0 {
		var deferred []models.Hint
		for _, h := range pending {
			switch {
			case h.Above == "":
				result = slices.Insert(result, 0, h.Entry)
			case isPlaced(placed, h.Above):
				result = slices.Insert(result, indexOf(result, h.Above), h.Entry)
			default:
				deferred = append(deferred, h)
				continue
			}
			placed[h.ID] = struct{}{}
		}
		if len(deferred) == len(pending) {
			break
		}
		pending = deferred
	}

	for _, h := range pending {
		logrus.WithFields(logrus.Fields{
			"code":  "merge_unresolved_anchor",
			"id":    h.ID,
			"above": h.Above,
		}).Debug("Appending entry with unresolved anchor")
		result = append(result, h.Entry)
	}
	return result
}

func isPlaced(placed map[string]struct{}, id string) bool {
	_, ok := placed[id]
	return ok
}

func indexOf(entries []models.Entry, id string) int {
	return slices.IndexFunc(entries, func(e models.Entry) bool { return e.ID == id })
}

// dedupeHints 保留每个 ID 的最后一次出现，位置取第一次出现处。
func dedupeHints(extra []models.Hint) []models.Hint {
	pos := make(map[string]int, len(extra))
	out := make([]models.Hint, 0, len(extra))
	for _, h := range extra {
		if i, ok := pos[h.ID]; ok {
			out[i] = h
			continue
		}
		pos[h.ID] = len(out)
		out = append(out, h)
	}
	return out
}

// Package ordering 提供版本号自然排序与带位置提示的列表合并。
package ordering

import (
	"slices"
	"strings"
)

// Token 是排序键中的一个元素：连续数字组成的整数，或单个非数字字符。
type Token struct {
	numeric bool
	text    string // 整数去掉前导零后的数字串，或原始字符
}

// IsNumeric 报告该元素是否为整数。
func (t Token) IsNumeric() bool {
	return t.numeric
}

// Text 返回元素文本，整数不含前导零。
func (t Token) Text() string {
	return t.text
}

func (t Token) compare(o Token) int {
	switch {
	case t.numeric && o.numeric:
		if len(t.text) != len(o.text) {
			return cmpInt(len(t.text), len(o.text))
		}
		return strings.Compare(t.text, o.text)
	case t.numeric:
		// 整数排在字符之前。
		return -1
	case o.numeric:
		return 1
	default:
		return strings.Compare(t.text, o.text)
	}
}

// SortKey 是版本字符串的可比较表示。
type SortKey []Token

// KeyOf 将版本字符串拆分为排序键，任意输入都不会失败。
func KeyOf(version string) SortKey {
	key := make(SortKey, 0, len(version))
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		digits := strings.TrimLeft(version[start:end], "0")
		if digits == "" {
			digits = "0"
		}
		key = append(key, Token{numeric: true, text: digits})
		start = -1
	}

	for i, r := range version {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
		key = append(key, Token{text: string(r)})
	}
	flush(len(version))
	return key
}

// Compare 逐个比较元素，较短的前缀排在前面。
func Compare(a, b SortKey) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if c := a[i].compare(b[i]); c != 0 {
			return c
		}
	}
	return cmpInt(len(a), len(b))
}

// Less 报告 k 是否排在 other 之前。
func (k SortKey) Less(other SortKey) bool {
	return Compare(k, other) < 0
}

// Equal 报告两个排序键是否相等。
func (k SortKey) Equal(other SortKey) bool {
	return Compare(k, other) == 0
}

func (k SortKey) String() string {
	parts := make([]string, len(k))
	for i, t := range k {
		if t.numeric {
			parts[i] = t.text
		} else {
			parts[i] = "'" + t.text + "'"
		}
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// CompareVersions 按自然顺序比较两个版本字符串，返回 1 表示 a>b。
func CompareVersions(a, b string) int {
	return Compare(KeyOf(a), KeyOf(b))
}

// SortDescending 按版本号从新到旧稳定排序，version 用于取出每个元素的版本字符串。
func SortDescending[T any](items []T, version func(T) string) {
	keys := make(map[string]SortKey, len(items))
	keyFor := func(item T) SortKey {
		v := version(item)
		k, ok := keys[v]
		if !ok {
			k = KeyOf(v)
			keys[v] = k
		}
		return k
	}
	slices.SortStableFunc(items, func(a, b T) int {
		return Compare(keyFor(b), keyFor(a))
	})
}

// SortStrings 返回按版本号从新到旧排序后的副本。
func SortStrings(versions []string) []string {
	sorted := slices.Clone(versions)
	SortDescending(sorted, func(s string) string { return s })
	return sorted
}

func cmpInt(a, b int) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

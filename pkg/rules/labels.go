package rules

import (
	"strings"

	"github.com/samber/lo"
)

// Normalize 去掉快捷键标记 & 并转为小写
func Normalize(label string) string {
	return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(label, "&", "")))
}

// LabelMatches 候选标签与实际标签规范化后相等，或任一方包含另一方
// 规范化后为空的标签不匹配任何内容
func LabelMatches(candidate, actual string) bool {
	c, a := Normalize(candidate), Normalize(actual)
	if c == "" || a == "" {
		return false
	}
	return c == a || strings.Contains(a, c) || strings.Contains(c, a)
}

// MatchesAny 实际标签是否匹配任一候选
func MatchesAny(candidates []string, actual string) bool {
	return lo.SomeBy(candidates, func(c string) bool {
		return LabelMatches(c, actual)
	})
}

// AnyLabel 标签集合中是否有匹配任一候选的
func AnyLabel(candidates, labels []string) bool {
	return lo.SomeBy(labels, func(l string) bool {
		return MatchesAny(candidates, l)
	})
}

// containsAny 文本是否包含任一标记，不区分大小写
func containsAny(text string, markers []string) bool {
	lower := strings.ToLower(text)
	return lo.SomeBy(markers, func(m string) bool {
		return strings.Contains(lower, strings.ToLower(m))
	})
}

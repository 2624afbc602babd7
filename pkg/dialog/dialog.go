// Package dialog 负责识别目标对话框并提取其控件快照
package dialog

import (
	"strings"

	"github.com/samber/lo"

	"github.com/zoeyai/popupguard/pkg/desktop"
)

// Role 控件角色
type Role int

const (
	RoleOther Role = iota
	RoleButton
	RoleStatic
)

func (r Role) String() string {
	switch r {
	case RoleButton:
		return "button"
	case RoleStatic:
		return "static"
	default:
		return "other"
	}
}

// ClassifyRole 按原生类名判断控件角色
func ClassifyRole(class string) Role {
	lower := strings.ToLower(class)
	switch {
	case strings.Contains(lower, strings.ToLower(desktop.ButtonClassMarker)):
		return RoleButton
	case strings.Contains(lower, "static"):
		return RoleStatic
	default:
		return RoleOther
	}
}

// Control 控件快照，创建后不再修改
type Control struct {
	Handle desktop.Handle `json:"handle"`
	Class  string         `json:"class"`
	Text   string         `json:"text"`
	Role   Role           `json:"role"`
}

// Dialog 对话框快照
type Dialog struct {
	Handle   desktop.Handle `json:"handle"`
	Title    string         `json:"title"`
	PID      uint32         `json:"pid"`
	Controls []Control      `json:"controls"`
}

// TextSeparator 合并文本的分隔符
const TextSeparator = " "

// Texts 按枚举顺序返回非空控件文本
func (d *Dialog) Texts() []string {
	out := make([]string, 0, len(d.Controls))
	for _, c := range d.Controls {
		if c.Text != "" {
			out = append(out, c.Text)
		}
	}
	return out
}

// Text 合并后的控件文本
func (d *Dialog) Text() string {
	return strings.Join(d.Texts(), TextSeparator)
}

// Buttons 按枚举顺序返回按钮控件
func (d *Dialog) Buttons() []Control {
	return lo.Filter(d.Controls, func(c Control, _ int) bool {
		return c.Role == RoleButton
	})
}

// ButtonLabels 返回非空按钮标签
func (d *Dialog) ButtonLabels() []string {
	return lo.FilterMap(d.Buttons(), func(c Control, _ int) (string, bool) {
		return c.Text, c.Text != ""
	})
}

// MergeText 合并控件文本与注入模块捕获的文本
// 捕获文本与控件无对应关系，只按内容去重
func MergeText(d *Dialog, captured []string) string {
	parts := d.Texts()
	seen := lo.SliceToMap(parts, func(s string) (string, struct{}) { return s, struct{}{} })
	for _, s := range captured {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		parts = append(parts, s)
	}
	return strings.Join(parts, TextSeparator)
}

package dialog

import (
	"fmt"

	"github.com/zoeyai/popupguard/pkg/desktop"
)

// Extractor 对话框内容提取器
type Extractor struct {
	desk desktop.Desktop
}

// NewExtractor 创建提取器
func NewExtractor(desk desktop.Desktop) *Extractor {
	return &Extractor{desk: desk}
}

// Extract 枚举直接子控件并解析文本
// 文本先取 GetWindowText，为空时再用 WM_GETTEXT 消息查询（自绘静态文本需要）
func (e *Extractor) Extract(win desktop.WindowInfo) (*Dialog, error) {
	children, err := e.desk.ChildWindows(win.Handle)
	if err != nil {
		return nil, fmt.Errorf("枚举子控件失败 %s: %w", win.Handle, err)
	}

	d := &Dialog{
		Handle:   win.Handle,
		Title:    win.Title,
		PID:      win.PID,
		Controls: make([]Control, 0, len(children)),
	}

	for _, c := range children {
		d.Controls = append(d.Controls, Control{
			Handle: c.Handle,
			Class:  c.Class,
			Text:   e.resolveText(c),
			Role:   ClassifyRole(c.Class),
		})
	}

	return d, nil
}

// resolveText 枚举时 Title 已是直接查询的结果
func (e *Extractor) resolveText(c desktop.WindowInfo) string {
	if c.Title != "" {
		return c.Title
	}
	return e.desk.MessageText(c.Handle)
}

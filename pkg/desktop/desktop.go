// Package desktop 提供顶层窗口与子控件的枚举、文本查询和按钮点击。
// 句柄只在窗口存活期间有效，调用方需容忍 ErrStaleHandle。
package desktop

import (
	"errors"
	"fmt"
)

// Handle 窗口句柄（不透明，仅本机有效）
type Handle uintptr

func (h Handle) String() string {
	return fmt.Sprintf("0x%X", uintptr(h))
}

// 系统通用对话框类名与按钮类名标记
const (
	DialogClass       = "#32770"
	ButtonClassMarker = "Button"
)

var (
	// ErrStaleHandle 句柄已不再对应存活的窗口
	ErrStaleHandle = errors.New("窗口句柄已失效")
	// ErrUnsupported 当前平台不支持
	ErrUnsupported = errors.New("当前平台不支持窗口操作")
)

// WindowInfo 窗口信息
type WindowInfo struct {
	Handle Handle `json:"handle"`
	Title  string `json:"title"`
	Class  string `json:"class"`
	PID    uint32 `json:"pid"`
}

// Desktop 窗口系统访问接口
type Desktop interface {
	// TopLevelWindows 按枚举顺序返回所有可见顶层窗口
	TopLevelWindows() ([]WindowInfo, error)
	// ChildWindows 返回 parent 的直接子控件（不递归），Title 为 GetWindowText 的结果
	ChildWindows(parent Handle) ([]WindowInfo, error)
	// MessageText 通过 WM_GETTEXTLENGTH/WM_GETTEXT 消息查询文本
	MessageText(h Handle) string
	// IsWindow 句柄是否仍对应存活窗口
	IsWindow(h Handle) bool
	// Click 向控件发送 BM_CLICK
	Click(h Handle) error
	// PressEnter 激活窗口并发送回车键
	PressEnter(h Handle) error
}

//go:build windows

package desktop

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/go-vgo/robotgo"
	"golang.org/x/sys/windows"
)

var (
	user32                   = windows.NewLazySystemDLL("user32.dll")
	procGetWindow            = user32.NewProc("GetWindow")
	procSendMessageTimeoutW  = user32.NewProc("SendMessageTimeoutW")
	procSetForegroundWindow  = user32.NewProc("SetForegroundWindow")
	procShowWindow           = user32.NewProc("ShowWindow")
	procBringWindowToTop     = user32.NewProc("BringWindowToTop")
	procAttachThreadInput    = user32.NewProc("AttachThreadInput")
	procGetWindowTextLengthW = user32.NewProc("GetWindowTextLengthW")
	procGetWindowTextW       = user32.NewProc("GetWindowTextW")
)

const (
	gwHwndNext = 2
	gwChild    = 5

	wmGetText       = 0x000D
	wmGetTextLength = 0x000E
	bmClick         = 0x00F5

	smtoAbortIfHung = 0x0002
	// 查询文本的超时，避免目标程序挂起时阻塞轮询
	textTimeoutMs  = 1000
	clickTimeoutMs = 2000

	classNameMax = 256
	swRestore    = 9
)

// NewCallback 创建的回调数量有上限，枚举回调只创建一次，由 enumMu 串行使用
var (
	enumMu     sync.Mutex
	enumResult []windows.HWND
	enumProc   = windows.NewCallback(func(hwnd windows.HWND, _ uintptr) uintptr {
		if !windows.IsWindowVisible(hwnd) {
			return 1
		}
		enumResult = append(enumResult, hwnd)
		return 1
	})
)

type win32Desktop struct{}

// New 创建 Win32 桌面访问实例
func New() (Desktop, error) {
	if err := user32.Load(); err != nil {
		return nil, fmt.Errorf("加载 user32.dll 失败: %w", err)
	}
	return &win32Desktop{}, nil
}

// TopLevelWindows 枚举可见顶层窗口
func (d *win32Desktop) TopLevelWindows() ([]WindowInfo, error) {
	enumMu.Lock()
	enumResult = make([]windows.HWND, 0, 128)
	err := windows.EnumWindows(enumProc, nil)
	handles := enumResult
	enumResult = nil
	enumMu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("枚举顶层窗口失败: %w", err)
	}

	out := make([]WindowInfo, 0, len(handles))
	for _, h := range handles {
		out = append(out, describe(h))
	}
	return out, nil
}

// ChildWindows 通过 GW_CHILD/GW_HWNDNEXT 遍历直接子控件
func (d *win32Desktop) ChildWindows(parent Handle) ([]WindowInfo, error) {
	if !windows.IsWindow(windows.HWND(parent)) {
		return nil, ErrStaleHandle
	}

	var out []WindowInfo
	child, _, _ := procGetWindow.Call(uintptr(parent), gwChild)
	for child != 0 {
		out = append(out, describe(windows.HWND(child)))
		child, _, _ = procGetWindow.Call(child, gwHwndNext)
	}
	return out, nil
}

func describe(h windows.HWND) WindowInfo {
	var pid uint32
	windows.GetWindowThreadProcessId(h, &pid)
	return WindowInfo{
		Handle: Handle(h),
		Title:  windowText(h),
		Class:  className(h),
		PID:    pid,
	}
}

func windowText(h windows.HWND) string {
	length, _, _ := procGetWindowTextLengthW.Call(uintptr(h))
	if length == 0 {
		return ""
	}
	buf := make([]uint16, length+1)
	n, _, _ := procGetWindowTextW.Call(uintptr(h), uintptr(unsafe.Pointer(&buf[0])), length+1)
	if n == 0 {
		return ""
	}
	return windows.UTF16ToString(buf[:n])
}

func className(h windows.HWND) string {
	buf := make([]uint16, classNameMax)
	n, err := windows.GetClassName(h, &buf[0], classNameMax)
	if err != nil || n <= 0 {
		return ""
	}
	return windows.UTF16ToString(buf[:n])
}

// sendMessage 带超时的 SendMessage
func sendMessage(h Handle, msg uint32, wParam, lParam uintptr, timeoutMs uint32) (uintptr, error) {
	var result uintptr
	ret, _, callErr := procSendMessageTimeoutW.Call(
		uintptr(h),
		uintptr(msg),
		wParam,
		lParam,
		smtoAbortIfHung,
		uintptr(timeoutMs),
		uintptr(unsafe.Pointer(&result)),
	)
	if ret == 0 {
		return 0, callErr
	}
	return result, nil
}

// MessageText 用于 GetWindowText 取不到文本的自绘控件
func (d *win32Desktop) MessageText(h Handle) string {
	length, err := sendMessage(h, wmGetTextLength, 0, 0, textTimeoutMs)
	if err != nil || length == 0 {
		return ""
	}

	buf := make([]uint16, length+1)
	copied, err := sendMessage(h, wmGetText, uintptr(len(buf)), uintptr(unsafe.Pointer(&buf[0])), textTimeoutMs)
	if err != nil || copied == 0 {
		return ""
	}
	if int(copied) < len(buf) {
		buf = buf[:copied]
	}
	return windows.UTF16ToString(buf)
}

func (d *win32Desktop) IsWindow(h Handle) bool {
	return windows.IsWindow(windows.HWND(h))
}

// Click 发送 BM_CLICK
// 按钮处理函数执行较久时 SendMessage 会超时，此时消息已送达，按成功处理
func (d *win32Desktop) Click(h Handle) error {
	if !windows.IsWindow(windows.HWND(h)) {
		return ErrStaleHandle
	}
	if _, err := sendMessage(h, bmClick, 0, 0, clickTimeoutMs); err != nil {
		// 点击后对话框已关闭
		if !windows.IsWindow(windows.HWND(h)) {
			return nil
		}
		if !errors.Is(err, windows.ERROR_TIMEOUT) {
			return fmt.Errorf("发送 BM_CLICK 失败 %s: %w", h, err)
		}
	}
	return nil
}

// PressEnter 将窗口置于前台后发送回车
func (d *win32Desktop) PressEnter(h Handle) error {
	if !windows.IsWindow(windows.HWND(h)) {
		return ErrStaleHandle
	}
	if err := activate(windows.HWND(h)); err != nil {
		return err
	}
	if err := robotgo.KeyTap("enter"); err != nil {
		return fmt.Errorf("发送回车失败: %w", err)
	}
	return nil
}

// activate 通过挂接输入线程绕过前台窗口切换限制
func activate(hwnd windows.HWND) error {
	foreground := windows.GetForegroundWindow()
	var foregroundThread uint32
	if foreground != 0 {
		foregroundThread, _ = windows.GetWindowThreadProcessId(foreground, nil)
	}

	currentThread := windows.GetCurrentThreadId()
	targetThread, _ := windows.GetWindowThreadProcessId(hwnd, nil)

	if foregroundThread != 0 && foregroundThread != currentThread {
		procAttachThreadInput.Call(uintptr(currentThread), uintptr(foregroundThread), 1)
		defer procAttachThreadInput.Call(uintptr(currentThread), uintptr(foregroundThread), 0)
	}
	if targetThread != 0 && targetThread != currentThread {
		procAttachThreadInput.Call(uintptr(currentThread), uintptr(targetThread), 1)
		defer procAttachThreadInput.Call(uintptr(currentThread), uintptr(targetThread), 0)
	}

	procShowWindow.Call(uintptr(hwnd), swRestore)
	procBringWindowToTop.Call(uintptr(hwnd))

	ret, _, _ := procSetForegroundWindow.Call(uintptr(hwnd))
	if ret == 0 {
		return fmt.Errorf("SetForegroundWindow 失败: %s", Handle(hwnd))
	}
	return nil
}

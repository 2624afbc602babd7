// Package desktoptest 提供内存中的 desktop.Desktop 实现，用于测试
package desktoptest

import (
	"sync"

	"github.com/zoeyai/popupguard/pkg/desktop"
)

type window struct {
	info     desktop.WindowInfo
	msgText  string
	visible  bool
	alive    bool
	parent   desktop.Handle
	children []desktop.Handle
}

var _ desktop.Desktop = (*Fake)(nil)

// Fake 可编程的桌面
type Fake struct {
	mu      sync.Mutex
	next    desktop.Handle
	order   []desktop.Handle
	windows map[desktop.Handle]*window

	clicks []desktop.Handle
	enters []desktop.Handle

	// OnClick 点击后回调，可用于模拟对话框关闭
	OnClick func(f *Fake, h desktop.Handle)
	// EnumCalls 顶层窗口枚举次数
	EnumCalls int
}

// New 创建空桌面
func New() *Fake {
	return &Fake{
		next:    0x1000,
		windows: make(map[desktop.Handle]*window),
	}
}

func (f *Fake) alloc() desktop.Handle {
	f.next += 0x10
	return f.next
}

// AddWindow 添加可见顶层窗口
func (f *Fake) AddWindow(title, class string, pid uint32) desktop.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()

	h := f.alloc()
	f.windows[h] = &window{
		info:    desktop.WindowInfo{Handle: h, Title: title, Class: class, PID: pid},
		visible: true,
		alive:   true,
	}
	f.order = append(f.order, h)
	return h
}

// AddDialog 添加 #32770 对话框
func (f *Fake) AddDialog(title string, pid uint32) desktop.Handle {
	return f.AddWindow(title, desktop.DialogClass, pid)
}

// AddControl 添加子控件，文本可由 GetWindowText 直接取得
func (f *Fake) AddControl(parent desktop.Handle, class, text string) desktop.Handle {
	return f.addChild(parent, class, text, text)
}

// AddOwnerDrawn 添加只能通过 WM_GETTEXT 取得文本的控件
func (f *Fake) AddOwnerDrawn(parent desktop.Handle, class, text string) desktop.Handle {
	return f.addChild(parent, class, "", text)
}

// AddButton 添加按钮
func (f *Fake) AddButton(parent desktop.Handle, label string) desktop.Handle {
	return f.AddControl(parent, "Button", label)
}

// AddStatic 添加静态文本
func (f *Fake) AddStatic(parent desktop.Handle, text string) desktop.Handle {
	return f.AddControl(parent, "Static", text)
}

func (f *Fake) addChild(parent desktop.Handle, class, direct, msg string) desktop.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.windows[parent]
	if !ok {
		panic("desktoptest: 父窗口不存在")
	}
	h := f.alloc()
	f.windows[h] = &window{
		info:    desktop.WindowInfo{Handle: h, Title: direct, Class: class, PID: p.info.PID},
		msgText: msg,
		visible: true,
		alive:   true,
		parent:  parent,
	}
	p.children = append(p.children, h)
	return h
}

// SetVisible 设置顶层窗口可见性
func (f *Fake) SetVisible(h desktop.Handle, visible bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.windows[h]; ok {
		w.visible = visible
	}
}

// CloseWindow 销毁窗口及其子控件
func (f *Fake) CloseWindow(h desktop.Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeLocked(h)
}

func (f *Fake) closeLocked(h desktop.Handle) {
	w, ok := f.windows[h]
	if !ok || !w.alive {
		return
	}
	w.alive = false
	for _, c := range w.children {
		f.closeLocked(c)
	}
}

// Clicks 返回点击过的控件，按点击顺序
func (f *Fake) Clicks() []desktop.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]desktop.Handle(nil), f.clicks...)
}

// Enters 返回收到回车的窗口
func (f *Fake) Enters() []desktop.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]desktop.Handle(nil), f.enters...)
}

// ParentOf 返回控件所属窗口
func (f *Fake) ParentOf(h desktop.Handle) desktop.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.windows[h]; ok {
		return w.parent
	}
	return 0
}

func (f *Fake) TopLevelWindows() ([]desktop.WindowInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.EnumCalls++
	var out []desktop.WindowInfo
	for _, h := range f.order {
		w := f.windows[h]
		if w.alive && w.visible {
			out = append(out, w.info)
		}
	}
	return out, nil
}

func (f *Fake) ChildWindows(parent desktop.Handle) ([]desktop.WindowInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.windows[parent]
	if !ok || !p.alive {
		return nil, desktop.ErrStaleHandle
	}
	out := make([]desktop.WindowInfo, 0, len(p.children))
	for _, c := range p.children {
		out = append(out, f.windows[c].info)
	}
	return out, nil
}

func (f *Fake) MessageText(h desktop.Handle) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.windows[h]; ok && w.alive {
		return w.msgText
	}
	return ""
}

func (f *Fake) IsWindow(h desktop.Handle) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[h]
	return ok && w.alive
}

func (f *Fake) Click(h desktop.Handle) error {
	f.mu.Lock()
	w, ok := f.windows[h]
	if !ok || !w.alive {
		f.mu.Unlock()
		return desktop.ErrStaleHandle
	}
	f.clicks = append(f.clicks, h)
	cb := f.OnClick
	f.mu.Unlock()

	if cb != nil {
		cb(f, h)
	}
	return nil
}

func (f *Fake) PressEnter(h desktop.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[h]
	if !ok || !w.alive {
		return desktop.ErrStaleHandle
	}
	f.enters = append(f.enters, h)
	return nil
}

// CloseParentOnClick 点击任一控件后关闭其所属对话框
func CloseParentOnClick(f *Fake, h desktop.Handle) {
	if p := f.ParentOf(h); p != 0 {
		f.CloseWindow(p)
	}
}

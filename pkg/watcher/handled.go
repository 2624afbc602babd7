package watcher

import "github.com/zoeyai/popupguard/pkg/desktop"

// HandledSet 已处理的对话框句柄
// 句柄在窗口销毁后可能被系统复用，因此每轮按存活状态回收
type HandledSet struct {
	handles map[desktop.Handle]struct{}
}

// NewHandledSet 创建空集合
func NewHandledSet() *HandledSet {
	return &HandledSet{handles: make(map[desktop.Handle]struct{})}
}

func (s *HandledSet) Add(h desktop.Handle) {
	s.handles[h] = struct{}{}
}

func (s *HandledSet) Contains(h desktop.Handle) bool {
	_, ok := s.handles[h]
	return ok
}

func (s *HandledSet) Len() int {
	return len(s.handles)
}

// Evict 移除 alive 返回 false 的句柄，返回移除数量
func (s *HandledSet) Evict(alive func(desktop.Handle) bool) int {
	n := 0
	for h := range s.handles {
		if !alive(h) {
			delete(s.handles, h)
			n++
		}
	}
	return n
}

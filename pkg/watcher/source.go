package watcher

// TextSource 注入模块捕获的文本
type TextSource interface {
	Read() ([]string, error)
	Clear() error
}

// NoCapture 共享通道不可用时的降级来源，只依赖控件文本
type NoCapture struct{}

func (NoCapture) Read() ([]string, error) { return nil, nil }

func (NoCapture) Clear() error { return nil }

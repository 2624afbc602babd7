//go:build !windows

package desktop

// New 非 Windows 平台不支持窗口句柄操作
func New() (Desktop, error) {
	return nil, ErrUnsupported
}

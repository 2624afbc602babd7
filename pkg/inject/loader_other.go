//go:build !windows

package inject

import (
	"fmt"
	"time"

	"github.com/zoeyai/popupguard/pkg/desktop"
)

// RemoteLoader 仅在 Windows 上可用
type RemoteLoader struct{}

// NewRemoteLoader 非 Windows 平台不支持远程加载
func NewRemoteLoader(dllPath string, _ time.Duration) (*RemoteLoader, error) {
	return nil, fmt.Errorf("加载 %s: %w", dllPath, desktop.ErrUnsupported)
}

func (l *RemoteLoader) Inject(pid uint32) error {
	return desktop.ErrUnsupported
}

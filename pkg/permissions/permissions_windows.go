//go:build windows

package permissions

import "golang.org/x/sys/windows"

// isElevated 当前进程令牌是否已提升
func isElevated() bool {
	return windows.GetCurrentProcessToken().IsElevated()
}

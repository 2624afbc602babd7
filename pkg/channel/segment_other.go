//go:build !windows

package channel

import "fmt"

// openSegment 命名共享内存仅在 Windows 上可用
func openSegment(name string, _ int) (Segment, error) {
	return nil, fmt.Errorf("%w: %s: 当前平台不支持", ErrChannelCreateFailed, name)
}

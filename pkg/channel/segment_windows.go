//go:build windows

package channel

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// fileMapping 页面文件支持的命名内存映射
type fileMapping struct {
	handle windows.Handle
	addr   uintptr
	data   []byte
}

// openSegment 创建命名映射；已存在时系统返回同一对象
func openSegment(name string, size int) (Segment, error) {
	name16, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChannelCreateFailed, err)
	}

	h, err := windows.CreateFileMapping(windows.InvalidHandle, nil, windows.PAGE_READWRITE, 0, uint32(size), name16)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrChannelCreateFailed, name, err)
	}

	addr, err := windows.MapViewOfFile(h, windows.FILE_MAP_READ|windows.FILE_MAP_WRITE, 0, 0, uintptr(size))
	if err != nil {
		windows.CloseHandle(h)
		return nil, fmt.Errorf("%w: %s: %v", ErrChannelMapFailed, name, err)
	}

	// 视图位于 Go 堆之外，地址在 UnmapViewOfFile 之前一直有效，只在此处转换一次
	data := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
	return &fileMapping{handle: h, addr: addr, data: data}, nil
}

func (m *fileMapping) Bytes() []byte {
	return m.data
}

func (m *fileMapping) Close() error {
	var firstErr error
	if m.addr != 0 {
		if err := windows.UnmapViewOfFile(m.addr); err != nil {
			firstErr = fmt.Errorf("解除映射失败: %w", err)
		}
		m.addr = 0
		m.data = nil
	}
	if m.handle != 0 {
		if err := windows.CloseHandle(m.handle); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("关闭映射句柄失败: %w", err)
		}
		m.handle = 0
	}
	return firstErr
}

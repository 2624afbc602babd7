//go:build windows

package inject

import (
	"fmt"
	"os"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32               = windows.NewLazySystemDLL("kernel32.dll")
	procVirtualAllocEx     = kernel32.NewProc("VirtualAllocEx")
	procVirtualFreeEx      = kernel32.NewProc("VirtualFreeEx")
	procCreateRemoteThread = kernel32.NewProc("CreateRemoteThread")
	procGetExitCodeThread  = kernel32.NewProc("GetExitCodeThread")
	procLoadLibraryW       = kernel32.NewProc("LoadLibraryW")
)

const (
	waitObject0 = 0x00000000
	waitTimeout = 0x00000102
)

// RemoteLoader 通过远程线程调用 LoadLibraryW 加载模块
// kernel32 在同一会话的各进程中基址相同，本进程解析到的入口地址可直接用于目标进程
type RemoteLoader struct {
	dllPath string
	timeout time.Duration
}

// NewRemoteLoader 创建加载器，模块文件必须存在
func NewRemoteLoader(dllPath string, timeout time.Duration) (*RemoteLoader, error) {
	if _, err := os.Stat(dllPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, dllPath)
	}
	if err := procLoadLibraryW.Find(); err != nil {
		return nil, fmt.Errorf("解析 LoadLibraryW 失败: %w", err)
	}
	return &RemoteLoader{dllPath: dllPath, timeout: timeout}, nil
}

// Inject 在目标进程中写入模块路径并启动加载线程
func (l *RemoteLoader) Inject(pid uint32) error {
	proc, err := windows.OpenProcess(windows.PROCESS_ALL_ACCESS, false, pid)
	if err != nil {
		return fmt.Errorf("%w: PID %d: %v", ErrProcessAccessDenied, pid, err)
	}
	defer windows.CloseHandle(proc)

	path16, err := windows.UTF16FromString(l.dllPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteWriteFailed, err)
	}
	size := uintptr(len(path16) * 2)

	remote, _, callErr := procVirtualAllocEx.Call(
		uintptr(proc), 0, size,
		windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE,
	)
	if remote == 0 {
		return fmt.Errorf("%w: %v", ErrRemoteAllocationFailed, callErr)
	}
	// 超时时远程线程可能仍在读取路径，此时不释放
	release := true
	defer func() {
		if release {
			procVirtualFreeEx.Call(uintptr(proc), remote, 0, windows.MEM_RELEASE)
		}
	}()

	var written uintptr
	if err := windows.WriteProcessMemory(proc, remote, (*byte)(unsafe.Pointer(&path16[0])), size, &written); err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteWriteFailed, err)
	}
	if written != size {
		return fmt.Errorf("%w: 写入 %d/%d 字节", ErrRemoteWriteFailed, written, size)
	}

	thread, _, callErr := procCreateRemoteThread.Call(
		uintptr(proc), 0, 0, procLoadLibraryW.Addr(), remote, 0, 0,
	)
	if thread == 0 {
		return fmt.Errorf("%w: %v", ErrRemoteThreadFailed, callErr)
	}
	defer windows.CloseHandle(windows.Handle(thread))

	event, err := windows.WaitForSingleObject(windows.Handle(thread), uint32(l.timeout.Milliseconds()))
	switch {
	case err != nil:
		return fmt.Errorf("%w: %v", ErrRemoteThreadFailed, err)
	case event == waitTimeout:
		release = false
		return fmt.Errorf("%w: %v", ErrInjectionTimeout, l.timeout)
	case event != waitObject0:
		return fmt.Errorf("%w: 等待结果 0x%X", ErrRemoteThreadFailed, event)
	}

	// 线程退出码是 LoadLibraryW 返回的模块句柄低 32 位，0 表示加载失败
	var exitCode uint32
	ret, _, callErr := procGetExitCodeThread.Call(uintptr(thread), uintptr(unsafe.Pointer(&exitCode)))
	if ret == 0 {
		return fmt.Errorf("%w: 读取线程退出码失败: %v", ErrModuleLoadFailed, callErr)
	}
	if exitCode == 0 {
		return fmt.Errorf("%w: PID %d", ErrModuleLoadFailed, pid)
	}
	return nil
}

// Package process 提供进程查询功能
package process

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/shirou/gopsutil/v4/process"
)

// ProcessInfo 进程信息
type ProcessInfo struct {
	PID  uint32 `json:"pid"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// FindByName 按可执行文件名查找进程（不区分大小写，精确匹配）
func FindByName(names ...string) ([]ProcessInfo, error) {
	if len(names) == 0 {
		return nil, nil
	}

	pids, err := process.Pids()
	if err != nil {
		return nil, fmt.Errorf("获取进程列表失败: %w", err)
	}

	wanted := lo.SliceToMap(names, func(n string) (string, struct{}) {
		return strings.ToLower(n), struct{}{}
	})

	var matches []ProcessInfo
	for _, pid := range pids {
		proc, err := process.NewProcess(pid)
		if err != nil {
			continue
		}

		procName, err := proc.Name()
		if err != nil {
			continue
		}

		if _, ok := wanted[strings.ToLower(procName)]; ok {
			exe, _ := proc.Exe()
			matches = append(matches, ProcessInfo{
				PID:  uint32(pid),
				Name: procName,
				Path: exe,
			})
		}
	}

	return matches, nil
}

// Name 按 PID 获取进程名称，失败时返回空串
func Name(pid uint32) string {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return ""
	}
	name, _ := proc.Name()
	return name
}

// IsRunning 检查进程是否正在运行
func IsRunning(pid uint32) bool {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return false
	}
	running, err := proc.IsRunning()
	if err != nil {
		return false
	}
	return running
}

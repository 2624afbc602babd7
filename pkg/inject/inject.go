// Package inject 将捕获模块加载到目标程序进程中
//
// 每个进程在其生命周期内只注入一次。注入失败的进程不记录，下一轮重试；
// 成功（以及按配置视为成功的超时）后永不重试，即使进程已退出也保留记录。
package inject

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/zoeyai/popupguard/internal/logger"
	"github.com/zoeyai/popupguard/pkg/desktop"
	"github.com/zoeyai/popupguard/pkg/process"
)

// 注入错误类型
var (
	ErrProcessAccessDenied    = errors.New("无法打开目标进程")
	ErrRemoteAllocationFailed = errors.New("目标进程内存分配失败")
	ErrRemoteWriteFailed      = errors.New("写入目标进程内存失败")
	ErrRemoteThreadFailed     = errors.New("创建远程线程失败")
	ErrInjectionTimeout       = errors.New("等待远程线程超时")
	ErrModuleLoadFailed       = errors.New("目标进程加载模块失败")
	ErrModuleNotFound         = errors.New("找不到捕获模块")
)

// Injector 把模块加载到指定进程，屏蔽调用约定和地址空间细节
type Injector interface {
	Inject(pid uint32) error
}

// ProcessSet 已注入的进程，只增不减
// 由轮询循环独占，不做并发保护
type ProcessSet struct {
	pids map[uint32]struct{}
}

// NewProcessSet 创建空集合
func NewProcessSet() *ProcessSet {
	return &ProcessSet{pids: make(map[uint32]struct{})}
}

func (s *ProcessSet) Add(pid uint32) {
	s.pids[pid] = struct{}{}
}

func (s *ProcessSet) Contains(pid uint32) bool {
	_, ok := s.pids[pid]
	return ok
}

func (s *ProcessSet) Len() int {
	return len(s.pids)
}

// PIDs 升序返回全部 PID
func (s *ProcessSet) PIDs() []uint32 {
	out := lo.Keys(s.pids)
	slices.Sort(out)
	return out
}

// Option 配置选项函数类型
type Option func(*Manager)

// WithProcessNames 额外按可执行文件名发现目标进程
func WithProcessNames(names ...string) Option {
	return func(m *Manager) {
		m.processNames = names
	}
}

// WithRetryOnTimeout 超时是否视为失败并重试
func WithRetryOnTimeout(retry bool) Option {
	return func(m *Manager) {
		m.retryOnTimeout = retry
	}
}

// WithProcessFinder 替换按名称查找进程的实现（测试用）
func WithProcessFinder(find func(names ...string) ([]process.ProcessInfo, error)) Option {
	return func(m *Manager) {
		m.findByName = find
	}
}

// Manager 记录注入状态并发现目标进程
type Manager struct {
	native         Injector
	desk           desktop.Desktop
	app            string
	processNames   []string
	retryOnTimeout bool
	findByName     func(names ...string) ([]process.ProcessInfo, error)
	injected       *ProcessSet
	self           uint32
}

// NewManager 创建注入管理器
func NewManager(native Injector, desk desktop.Desktop, app string, injected *ProcessSet, opts ...Option) *Manager {
	m := &Manager{
		native:     native,
		desk:       desk,
		app:        app,
		findByName: process.FindByName,
		injected:   injected,
		self:       uint32(os.Getpid()),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Injected 已注入集合
func (m *Manager) Injected() *ProcessSet {
	return m.injected
}

// Captures 该进程是否已加载捕获模块，只有这些进程的对话框能使用捕获文本
func (m *Manager) Captures(pid uint32) bool {
	return m.injected.Contains(pid)
}

// Inject 注入指定进程，已注入时直接返回成功
func (m *Manager) Inject(pid uint32) error {
	if m.injected.Contains(pid) {
		return nil
	}

	start := time.Now()
	err := m.native.Inject(pid)
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	name := process.Name(pid)

	switch {
	case err == nil:
		m.injected.Add(pid)
		logger.LogEvent("INJ", true, elapsed, fmt.Sprintf("PID %d %s", pid, name))
		return nil
	case errors.Is(err, ErrInjectionTimeout) && !m.retryOnTimeout:
		// 无法区分模块仍在加载还是已挂起，按成功记录
		m.injected.Add(pid)
		logger.Warn("PID %d %s 注入超时，按已注入处理", pid, name)
		return nil
	default:
		logger.LogEvent("INJ", false, elapsed, fmt.Sprintf("PID %d %s: %v", pid, name, err))
		return err
	}
}

// InjectTargetApplication 注入所有尚未注入的目标程序进程
// 目标进程来自标题包含程序名的可见窗口，以及按可执行文件名找到的进程
func (m *Manager) InjectTargetApplication() error {
	wins, err := m.desk.TopLevelWindows()
	if err != nil {
		return fmt.Errorf("枚举窗口失败: %w", err)
	}

	pids := lo.FilterMap(wins, func(w desktop.WindowInfo, _ int) (uint32, bool) {
		return w.PID, w.PID != 0 && strings.Contains(w.Title, m.app)
	})

	var errs []error
	if len(m.processNames) > 0 {
		procs, err := m.findByName(m.processNames...)
		if err != nil {
			errs = append(errs, err)
		}
		pids = append(pids, lo.Map(procs, func(p process.ProcessInfo, _ int) uint32 { return p.PID })...)
	}

	for _, pid := range lo.Uniq(pids) {
		if pid == m.self || m.injected.Contains(pid) {
			continue
		}
		logger.Info("发现 %s 进程: PID %d", m.app, pid)
		if err := m.Inject(pid); err != nil {
			errs = append(errs, fmt.Errorf("PID %d: %w", pid, err))
		}
	}

	return errors.Join(errs...)
}

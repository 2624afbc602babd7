package inject

import (
	"errors"
	"os"
	"reflect"
	"testing"

	"github.com/zoeyai/popupguard/pkg/desktop/desktoptest"
	"github.com/zoeyai/popupguard/pkg/process"
)

// scriptedInjector 按 PID 返回预设错误并记录调用
type scriptedInjector struct {
	errs  map[uint32]error
	calls []uint32
}

func (s *scriptedInjector) Inject(pid uint32) error {
	s.calls = append(s.calls, pid)
	return s.errs[pid]
}

func noProcesses(...string) ([]process.ProcessInfo, error) { return nil, nil }

func newManager(native Injector, opts ...Option) (*Manager, *desktoptest.Fake) {
	f := desktoptest.New()
	opts = append([]Option{WithProcessFinder(noProcesses)}, opts...)
	return NewManager(native, f, "CorelDRAW", NewProcessSet(), opts...), f
}

func TestInjectOnce(t *testing.T) {
	native := &scriptedInjector{}
	m, _ := newManager(native)

	for i := 0; i < 3; i++ {
		if err := m.Inject(42); err != nil {
			t.Fatalf("Inject 失败: %v", err)
		}
	}
	if len(native.calls) != 1 {
		t.Errorf("同一进程只应注入一次, 实际 %d 次", len(native.calls))
	}
	if !m.Injected().Contains(42) {
		t.Error("成功后应记录 PID")
	}
	if !m.Captures(42) {
		t.Error("已注入进程应可使用捕获文本")
	}
	if m.Captures(43) {
		t.Error("未注入进程不应使用捕获文本")
	}
}

func TestInjectFailureRetried(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"拒绝访问", ErrProcessAccessDenied},
		{"分配失败", ErrRemoteAllocationFailed},
		{"写入失败", ErrRemoteWriteFailed},
		{"线程失败", ErrRemoteThreadFailed},
		{"加载失败", ErrModuleLoadFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			native := &scriptedInjector{errs: map[uint32]error{7: tt.err}}
			m, _ := newManager(native)

			if err := m.Inject(7); !errors.Is(err, tt.err) {
				t.Fatalf("应返回 %v, 实际 %v", tt.err, err)
			}
			if m.Injected().Contains(7) {
				t.Error("失败时不应记录 PID")
			}

			delete(native.errs, 7)
			if err := m.Inject(7); err != nil {
				t.Fatalf("重试应成功: %v", err)
			}
			if len(native.calls) != 2 {
				t.Errorf("应重试一次, 实际调用 %d 次", len(native.calls))
			}
		})
	}
}

func TestInjectTimeoutPolicy(t *testing.T) {
	native := &scriptedInjector{errs: map[uint32]error{9: ErrInjectionTimeout}}

	m, _ := newManager(native)
	if err := m.Inject(9); err != nil {
		t.Fatalf("默认策略下超时按成功处理, 实际 %v", err)
	}
	if !m.Injected().Contains(9) {
		t.Error("默认策略下超时应记录 PID")
	}

	m, _ = newManager(native, WithRetryOnTimeout(true))
	if err := m.Inject(9); !errors.Is(err, ErrInjectionTimeout) {
		t.Fatalf("重试策略下应返回超时错误, 实际 %v", err)
	}
	if m.Injected().Contains(9) {
		t.Error("重试策略下超时不应记录 PID")
	}
	if m.Captures(9) {
		t.Error("注入未确认的进程不应使用捕获文本")
	}
}

func TestInjectTargetApplication(t *testing.T) {
	native := &scriptedInjector{errs: map[uint32]error{300: ErrProcessAccessDenied}}
	finder := func(names ...string) ([]process.ProcessInfo, error) {
		if !reflect.DeepEqual(names, []string{"CorelDRW.exe"}) {
			t.Errorf("查找名称错误: %v", names)
		}
		return []process.ProcessInfo{{PID: 100}, {PID: 400}}, nil
	}
	m, f := newManager(native, WithProcessNames("CorelDRW.exe"), WithProcessFinder(finder))

	f.AddWindow("CorelDRAW X7 - a.cdr", "CorelDRAW 17.0", 100)
	f.AddWindow("CorelDRAW X7", "#32770", 100)
	f.AddWindow("记事本", "Notepad", 200)
	f.AddWindow("CorelDRAW X7 (2)", "CorelDRAW 17.0", 300)
	f.AddWindow("popupguard CorelDRAW", "ConsoleWindowClass", uint32(os.Getpid()))

	err := m.InjectTargetApplication()
	if !errors.Is(err, ErrProcessAccessDenied) {
		t.Errorf("应汇总 PID 300 的错误, 实际 %v", err)
	}
	if want := []uint32{100, 300, 400}; !reflect.DeepEqual(native.calls, want) {
		t.Errorf("注入顺序 = %v, 期望 %v", native.calls, want)
	}
	if want := []uint32{100, 400}; !reflect.DeepEqual(m.Injected().PIDs(), want) {
		t.Errorf("已注入 = %v, 期望 %v", m.Injected().PIDs(), want)
	}

	// 第二轮只重试失败的进程
	native.calls = nil
	delete(native.errs, 300)
	if err := m.InjectTargetApplication(); err != nil {
		t.Fatalf("第二轮应成功: %v", err)
	}
	if want := []uint32{300}; !reflect.DeepEqual(native.calls, want) {
		t.Errorf("第二轮注入 = %v, 期望 %v", native.calls, want)
	}
}

func TestProcessSetNeverShrinks(t *testing.T) {
	s := NewProcessSet()
	s.Add(3)
	s.Add(1)
	s.Add(3)

	if s.Len() != 2 {
		t.Errorf("Len = %d, 期望 2", s.Len())
	}
	if !reflect.DeepEqual(s.PIDs(), []uint32{1, 3}) {
		t.Errorf("PIDs = %v", s.PIDs())
	}
}

// Package watcher 轮询目标程序的错误对话框并自动处理
//
// 每轮依次执行：注入新进程、枚举候选对话框、取出并清空通道文本、
// 匹配规则、执行动作、回收已销毁窗口的句柄。轮询在单个 goroutine 中进行，
// HandledSet 与已注入进程集合都只由该 goroutine 修改。
//
// 通道文本没有归属信息，只分给本轮新出现、且所属进程已加载捕获模块的对话框；
// 本轮没有这样的对话框时保留一轮，覆盖枚举之后才绘制的对话框。
package watcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/zoeyai/popupguard/internal/logger"
	"github.com/zoeyai/popupguard/pkg/desktop"
	"github.com/zoeyai/popupguard/pkg/dialog"
	"github.com/zoeyai/popupguard/pkg/rules"
)

// 默认时间参数
const (
	DefaultPollInterval = 500 * time.Millisecond
	DefaultCaptureDelay = 300 * time.Millisecond
)

// TargetInjector 把捕获模块注入尚未注入的目标进程
type TargetInjector interface {
	InjectTargetApplication() error
}

// ProcessScope 判断进程是否已加载捕获模块
// inject.Manager 实现了该接口
type ProcessScope interface {
	Captures(pid uint32) bool
}

// Actor 执行规则给出的动作
type Actor interface {
	Execute(d *dialog.Dialog, a rules.Action) error
}

// Option 配置选项函数类型
type Option func(*Watcher)

// WithInjector 每轮开始时注入目标进程
// inj 同时实现 ProcessScope 时，用它判断哪些对话框可以使用捕获文本
func WithInjector(inj TargetInjector) Option {
	return func(w *Watcher) {
		w.injector = inj
		if scope, ok := inj.(ProcessScope); ok {
			w.scope = scope.Captures
		}
	}
}

// WithProcessScope 指定可以使用捕获文本的进程
func WithProcessScope(captures func(pid uint32) bool) Option {
	return func(w *Watcher) {
		w.scope = captures
	}
}

// WithTextSource 设置捕获文本来源，默认 NoCapture
func WithTextSource(src TextSource) Option {
	return func(w *Watcher) {
		w.source = src
	}
}

// WithPollInterval 设置轮询间隔
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) {
		w.poll = d
	}
}

// WithCaptureDelay 发现新对话框后读取通道前的等待时间
func WithCaptureDelay(d time.Duration) Option {
	return func(w *Watcher) {
		w.captureDelay = d
	}
}

// WithWait 替换等待函数（测试用）
func WithWait(wait func(ctx context.Context, d time.Duration) error) Option {
	return func(w *Watcher) {
		w.wait = wait
	}
}

// Watcher 对话框轮询器
type Watcher struct {
	desk      desktop.Desktop
	extractor *dialog.Extractor
	policy    dialog.Policy
	engine    *rules.Engine
	actor     Actor
	injector  TargetInjector
	source    TextSource

	poll         time.Duration
	captureDelay time.Duration
	wait         func(ctx context.Context, d time.Duration) error

	// scope 为 false 的进程，其对话框不使用捕获文本，也不按正文关键字识别
	scope func(pid uint32) bool

	handled *HandledSet
	// seen 已识别为目标的对话框，只用于统计和避免重复日志
	seen *HandledSet
	// known 检查过的全部候选对话框，用于判断是否有新对话框
	known *HandledSet
	// captured 分给各对话框的通道文本
	captured map[desktop.Handle][]string
	// carry 上一轮取出但没有分给任何对话框的文本
	carry []string

	stats *Stats
}

// New 创建轮询器
func New(desk desktop.Desktop, policy dialog.Policy, engine *rules.Engine, actor Actor, opts ...Option) *Watcher {
	w := &Watcher{
		desk:         desk,
		extractor:    dialog.NewExtractor(desk),
		policy:       policy,
		engine:       engine,
		actor:        actor,
		source:       NoCapture{},
		poll:         DefaultPollInterval,
		captureDelay: DefaultCaptureDelay,
		wait:         sleepContext,
		scope:        func(uint32) bool { return false },
		handled:      NewHandledSet(),
		seen:         NewHandledSet(),
		known:        NewHandledSet(),
		captured:     make(map[desktop.Handle][]string),
		stats:        newStats(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Handled 已处理句柄集合
func (w *Watcher) Handled() *HandledSet {
	return w.handled
}

// Stats 返回统计快照
func (w *Watcher) Stats() Snapshot {
	return w.stats.Snapshot()
}

// Run 循环轮询直到 ctx 取消
func (w *Watcher) Run(ctx context.Context) error {
	logger.Info("开始监控 %s 对话框，间隔 %v", w.policy.App, w.poll)

	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := w.Tick(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Warn("轮询失败: %v", err)
		}
		if err := w.wait(ctx, w.poll); err != nil {
			return nil
		}
	}
}

// Tick 执行一轮扫描
func (w *Watcher) Tick(ctx context.Context) error {
	w.stats.update(func(s *Stats) { s.ticks++ })

	if w.injector != nil {
		if err := w.injector.InjectTargetApplication(); err != nil {
			n := countErrors(err)
			w.stats.update(func(s *Stats) { s.injectFailures += n })
			logger.Warn("注入失败: %v", err)
		}
	}

	wins, err := w.desk.TopLevelWindows()
	if err != nil {
		return fmt.Errorf("枚举窗口失败: %w", err)
	}

	candidates := lo.Filter(wins, func(win desktop.WindowInfo, _ int) bool {
		return dialog.IsCandidate(win) && !w.handled.Contains(win.Handle)
	})
	fresh := lo.Filter(candidates, func(win desktop.WindowInfo, _ int) bool {
		return !w.known.Contains(win.Handle)
	})

	// 给注入模块留出记录绘制文本的时间，只在出现新对话框时等待
	if len(fresh) > 0 && w.captureDelay > 0 {
		if err := w.wait(ctx, w.captureDelay); err != nil {
			return err
		}
	}

	w.attribute(fresh, w.drain())

	for _, win := range candidates {
		w.process(win)
	}

	w.handled.Evict(w.desk.IsWindow)
	w.seen.Evict(w.desk.IsWindow)
	w.known.Evict(w.desk.IsWindow)
	for h := range w.captured {
		if !w.desk.IsWindow(h) {
			delete(w.captured, h)
		}
	}
	return nil
}

// drain 取出并清空通道文本，连同上一轮保留的文本一起返回
// 本轮读到的文本作为下一轮的保留，未被分配时最多保留一轮
func (w *Watcher) drain() []string {
	prev := w.carry
	w.carry = nil

	read, err := w.source.Read()
	if err != nil {
		logger.LogEvent("CHAN", false, 0, err.Error())
		return prev
	}
	if len(read) > 0 {
		if err := w.source.Clear(); err != nil {
			logger.Debug("清空通道失败: %v", err)
		}
	}

	w.carry = read
	return append(prev, read...)
}

// attribute 把通道文本分给新出现且可使用捕获文本的对话框
func (w *Watcher) attribute(fresh []desktop.WindowInfo, texts []string) {
	assigned := false
	for _, win := range fresh {
		w.known.Add(win.Handle)
		if !w.scope(win.PID) {
			continue
		}
		w.captured[win.Handle] = texts
		assigned = true
	}
	if assigned {
		w.carry = nil
	}
	if len(texts) > 0 {
		logger.Debug("通道文本 %d 条, 新对话框 %d 个", len(texts), len(fresh))
	}
}

// process 处理单个候选对话框
func (w *Watcher) process(win desktop.WindowInfo) {
	d, err := w.extractor.Extract(win)
	if err != nil {
		if !errors.Is(err, desktop.ErrStaleHandle) {
			logger.Warn("提取对话框内容失败: %v", err)
		}
		return
	}

	// 其他进程的对话框只按标题识别，避免误点无关程序
	inScope := w.scope(d.PID)
	var captured []string
	if inScope {
		captured = w.captured[d.Handle]
	}
	text := dialog.MergeText(d, captured)

	matchText := text
	if !inScope {
		matchText = ""
	}
	if !w.policy.IsTarget(d.Title, matchText) {
		return
	}

	first := !w.seen.Contains(d.Handle)
	if first {
		w.seen.Add(d.Handle)
		w.stats.update(func(s *Stats) { s.seen++ })
		logger.Info("发现对话框 %s: %s", d.Handle, d.Title)
		logger.Debug("  文本: %s", text)
		logger.Debug("  按钮: %v (捕获 %d 条)", d.ButtonLabels(), len(captured))
	}

	decision, ok := w.engine.Evaluate(rules.Input{
		Title:   d.Title,
		Text:    text,
		Buttons: d.ButtonLabels(),
	})
	if !ok {
		if first {
			logger.Info("  未匹配任何规则，下轮重试")
		}
		return
	}

	start := time.Now()
	err = w.actor.Execute(d, decision.Action)
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	detail := fmt.Sprintf("%s %s %s", d.Handle, decision.Rule, decision.Action)

	if err != nil {
		logger.LogEvent("DLG", false, elapsed, fmt.Sprintf("%s: %v", detail, err))
		if !errors.Is(err, desktop.ErrStaleHandle) {
			w.stats.update(func(s *Stats) { s.failures++ })
		}
		return
	}

	logger.LogEvent("DLG", true, elapsed, detail)
	w.handled.Add(d.Handle)
	delete(w.captured, d.Handle)
	w.stats.update(func(s *Stats) {
		s.handled++
		s.ruleHits[decision.Rule]++
	})
}

// countErrors errors.Join 合并的错误按条计数
func countErrors(err error) int {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return len(joined.Unwrap())
	}
	return 1
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

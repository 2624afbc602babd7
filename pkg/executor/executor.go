// Package executor 对真实控件执行规则给出的动作
package executor

import (
	"errors"
	"fmt"
	"time"

	"github.com/zoeyai/popupguard/internal/logger"
	"github.com/zoeyai/popupguard/pkg/desktop"
	"github.com/zoeyai/popupguard/pkg/dialog"
	"github.com/zoeyai/popupguard/pkg/rules"
)

// ErrNoMatchingControl 没有控件匹配任一候选标签
var ErrNoMatchingControl = errors.New("未找到匹配的按钮")

// DefaultSettleDelay 每次点击后的等待时间
const DefaultSettleDelay = 200 * time.Millisecond

// Option 配置选项函数类型
type Option func(*Executor)

// WithSettleDelay 设置点击后等待时间
func WithSettleDelay(d time.Duration) Option {
	return func(e *Executor) {
		e.settle = d
	}
}

// WithKeyboardFallback 找不到按钮时对允许回车的动作发送回车
func WithKeyboardFallback(enabled bool) Option {
	return func(e *Executor) {
		e.keyboardFallback = enabled
	}
}

// WithSleep 替换等待函数（测试用）
func WithSleep(sleep func(time.Duration)) Option {
	return func(e *Executor) {
		e.sleep = sleep
	}
}

// Executor 动作执行器
type Executor struct {
	desk             desktop.Desktop
	settle           time.Duration
	keyboardFallback bool
	sleep            func(time.Duration)
}

// New 创建执行器
func New(desk desktop.Desktop, opts ...Option) *Executor {
	e := &Executor{
		desk:   desk,
		settle: DefaultSettleDelay,
		sleep:  time.Sleep,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute 执行动作
func (e *Executor) Execute(d *dialog.Dialog, a rules.Action) error {
	switch a.Kind {
	case rules.KindClick:
		return e.click(d, a)
	case rules.KindSelectThenClick:
		if err := e.Select(d, a.Options); err != nil {
			// 选项缺失不影响后续点击
			logger.Warn("  选择选项 %v 失败: %v", a.Options, err)
		}
		return e.click(d, a)
	default:
		return fmt.Errorf("未知动作类型: %d", a.Kind)
	}
}

func (e *Executor) click(d *dialog.Dialog, a rules.Action) error {
	err := e.ClickButton(d, a.Targets...)
	if errors.Is(err, ErrNoMatchingControl) && len(a.Fallback) > 0 {
		err = e.ClickButton(d, a.Fallback...)
	}
	if errors.Is(err, ErrNoMatchingControl) && a.AcceptsEnter && e.keyboardFallback {
		logger.Info("  >>> 未找到按钮，发送回车: %s", d.Handle)
		if err := e.desk.PressEnter(d.Handle); err != nil {
			return err
		}
		e.sleep(e.settle)
		return nil
	}
	return err
}

// ClickButton 按枚举顺序查找第一个匹配任一候选的按钮并点击
func (e *Executor) ClickButton(d *dialog.Dialog, candidates ...string) error {
	for _, c := range d.Buttons() {
		if !rules.MatchesAny(candidates, c.Text) {
			continue
		}
		logger.Info("  >>> 点击按钮: '%s'", c.Text)
		if err := e.desk.Click(c.Handle); err != nil {
			return fmt.Errorf("点击 '%s' 失败: %w", c.Text, err)
		}
		e.sleep(e.settle)
		return nil
	}
	return fmt.Errorf("%w: %v", ErrNoMatchingControl, candidates)
}

// Select 在全部控件中查找第一个匹配的选项并点击
func (e *Executor) Select(d *dialog.Dialog, options []string) error {
	for _, c := range d.Controls {
		if !rules.MatchesAny(options, c.Text) {
			continue
		}
		logger.Info("  >>> 选择: '%s'", c.Text)
		if err := e.desk.Click(c.Handle); err != nil {
			return fmt.Errorf("选择 '%s' 失败: %w", c.Text, err)
		}
		e.sleep(e.settle)
		return nil
	}
	return fmt.Errorf("%w: %v", ErrNoMatchingControl, options)
}

// Package rules 按固定优先级把对话框文本和按钮映射为处理动作
package rules

import (
	"fmt"
	"strings"
)

// Kind 动作类型
type Kind int

const (
	KindClick Kind = iota
	KindSelectThenClick
)

// Action 处理动作
type Action struct {
	Kind Kind
	// Options 先选中的选项（仅 KindSelectThenClick）
	Options []string
	// Targets 要点击的按钮候选
	Targets []string
	// Fallback Targets 无匹配时再尝试的候选
	Fallback []string
	// AcceptsEnter 找不到按钮时回车可以替代（确定类按钮）
	AcceptsEnter bool
}

// Click 点击任一候选按钮
func Click(targets ...string) Action {
	return Action{Kind: KindClick, Targets: targets}
}

// SelectThenClick 先选中选项，再点击按钮
func SelectThenClick(options []string, targets ...string) Action {
	return Action{Kind: KindSelectThenClick, Options: options, Targets: targets}
}

// OrElse 设置后备候选
func (a Action) OrElse(fallback ...string) Action {
	a.Fallback = fallback
	return a
}

// WithEnter 允许回车替代
func (a Action) WithEnter() Action {
	a.AcceptsEnter = true
	return a
}

func (a Action) String() string {
	var b strings.Builder
	if a.Kind == KindSelectThenClick {
		fmt.Fprintf(&b, "选择%v后", a.Options)
	}
	fmt.Fprintf(&b, "点击%v", a.Targets)
	if len(a.Fallback) > 0 {
		fmt.Fprintf(&b, "或%v", a.Fallback)
	}
	return b.String()
}

// feasible 按钮标签中是否存在可点击的目标
func (a Action) feasible(buttons []string, allowEnter bool) bool {
	if AnyLabel(a.Targets, buttons) || AnyLabel(a.Fallback, buttons) {
		return true
	}
	return allowEnter && a.AcceptsEnter
}

// Input 规则输入
type Input struct {
	Title string
	// Text 控件文本与捕获文本合并后的内容
	Text string
	// Buttons 按钮标签，按枚举顺序
	Buttons []string
}

// Rule 谓词与动作
type Rule struct {
	Name   string
	Match  func(in Input) bool
	Action Action
}

// Decision 匹配结果
type Decision struct {
	Rule   string
	Action Action
}

// Engine 规则引擎，第一条命中的规则生效
type Engine struct {
	rules      []Rule
	allowEnter bool
}

// NewEngine 按给定顺序创建引擎
func NewEngine(rules []Rule) *Engine {
	return &Engine{rules: rules}
}

// AllowEnter 开启后，可回车替代的动作在没有匹配按钮时也视为可执行
func (e *Engine) AllowEnter(allow bool) {
	e.allowEnter = allow
}

// Rules 返回规则列表
func (e *Engine) Rules() []Rule {
	return e.rules
}

// Evaluate 返回第一条谓词成立且动作可执行的规则
// 可执行指至少有一个按钮标签匹配动作的点击目标
func (e *Engine) Evaluate(in Input) (Decision, bool) {
	for _, r := range e.rules {
		if !r.Match(in) {
			continue
		}
		if !r.Action.feasible(in.Buttons, e.allowEnter) {
			continue
		}
		return Decision{Rule: r.Name, Action: r.Action}, true
	}
	return Decision{}, false
}

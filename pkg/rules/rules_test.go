package rules

import (
	"reflect"
	"testing"
)

func TestLabelMatches(t *testing.T) {
	tests := []struct {
		candidate string
		actual    string
		want      bool
	}{
		{"忽略", "忽略(&I)", true},
		{"忽略(&I)", "忽略", true},
		{"OK", "ok", true},
		{"&OK", "OK", true},
		{"Ignore", "Ignore All", true},
		{"曲线", "曲线(&C)", true},
		{"确定", "取消", false},
		{"OK", "", false},
		{"", "OK", false},
		{"&", "OK", false},
	}

	for _, tt := range tests {
		if got := LabelMatches(tt.candidate, tt.actual); got != tt.want {
			t.Errorf("LabelMatches(%q, %q) = %v, 期望 %v", tt.candidate, tt.actual, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("  &Ignore "); got != "ignore" {
		t.Errorf("Normalize = %q", got)
	}
}

func TestDefaultRules(t *testing.T) {
	engine := NewEngine(DefaultRules("CorelDRAW"))

	tests := []struct {
		name     string
		in       Input
		wantRule string
		wantOK   bool
	}{
		{
			name:     "无效轮廓点忽略",
			in:       Input{Title: "CorelDRAW X7", Text: "无效的轮廓 ID", Buttons: []string{"关于", "重试", "忽略(&I)"}},
			wantRule: RuleInvalidOutline,
			wantOK:   true,
		},
		{
			name:     "单个确定按钮优先于正文",
			in:       Input{Title: "CorelDRAW X7", Text: "无效的轮廓 ID", Buttons: []string{"确定"}},
			wantRule: RuleSingleOK,
			wantOK:   true,
		},
		{
			name:     "单个确定按钮无关键字",
			in:       Input{Title: "提示", Text: "处理完成", Buttons: []string{"OK"}},
			wantRule: RuleSingleOK,
			wantOK:   true,
		},
		{
			name:     "无效标头",
			in:       Input{Title: "CorelDRAW X7", Text: "无法打开文件 a.cdr 无效标头", Buttons: []string{"OK", "Cancel"}},
			wantRule: RuleInvalidHeader,
			wantOK:   true,
		},
		{
			name:     "无效标头只有忽略按钮",
			in:       Input{Title: "CorelDRAW X7", Text: "无法打开文件", Buttons: []string{"忽略", "取消"}},
			wantRule: RuleInvalidHeader,
			wantOK:   true,
		},
		{
			name:     "文件损坏",
			in:       Input{Title: "CorelDRAW X7", Text: "文件已损坏", Buttons: []string{"确定", "取消"}},
			wantRule: RuleCorrupted,
			wantOK:   true,
		},
		{
			name:     "PS/PRN 导入",
			in:       Input{Title: "导入", Text: "导入 PS/PRN 文本导入为", Buttons: []string{"曲线(&C)", "文本", "确定", "取消"}},
			wantRule: RuleImportCurves,
			wantOK:   true,
		},
		{
			name:     "通用错误点忽略",
			in:       Input{Title: "警告", Text: "发生错误", Buttons: []string{"重试", "忽略"}},
			wantRule: RuleIgnoreOnError,
			wantOK:   true,
		},
		{
			name:     "标题兜底",
			in:       Input{Title: "CorelDRAW X7", Text: "是否保存更改", Buttons: []string{"是(&Y)", "否(&N)", "取消"}},
			wantRule: RuleAppCatchAll,
			wantOK:   true,
		},
		{
			name:   "无匹配",
			in:     Input{Title: "另存为", Text: "文件名", Buttons: []string{"保存", "取消"}},
			wantOK: false,
		},
		{
			name:   "谓词成立但没有可点击按钮",
			in:     Input{Title: "提示", Text: "文件已损坏"},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := engine.Evaluate(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("Evaluate ok = %v, 期望 %v (规则 %q)", ok, tt.wantOK, d.Rule)
			}
			if ok && d.Rule != tt.wantRule {
				t.Errorf("命中规则 %q, 期望 %q", d.Rule, tt.wantRule)
			}
			t.Logf("%s -> %s %s", tt.name, d.Rule, d.Action)
		})
	}
}

func TestFirstMatchWins(t *testing.T) {
	hits := 0
	engine := NewEngine([]Rule{
		{Name: "first", Match: func(Input) bool { return true }, Action: Click("OK")},
		{Name: "second", Match: func(Input) bool { hits++; return true }, Action: Click("OK")},
	})

	d, ok := engine.Evaluate(Input{Buttons: []string{"OK"}})
	if !ok || d.Rule != "first" {
		t.Fatalf("应命中 first, 实际 %q", d.Rule)
	}
	if hits != 0 {
		t.Error("命中后不应继续评估后续规则")
	}
}

func TestAllowEnter(t *testing.T) {
	engine := NewEngine(DefaultRules("CorelDRAW"))
	in := Input{Title: "提示", Text: "文件已损坏"}

	if _, ok := engine.Evaluate(in); ok {
		t.Fatal("未开启回车时不应命中")
	}

	engine.AllowEnter(true)
	d, ok := engine.Evaluate(in)
	if !ok || d.Rule != RuleCorrupted {
		t.Fatalf("开启回车后应命中 %s, 实际 %q", RuleCorrupted, d.Rule)
	}
	if !d.Action.AcceptsEnter {
		t.Error("损坏规则的动作应允许回车")
	}
}

func TestActionBuilders(t *testing.T) {
	a := Click(OKLabels...).OrElse(IgnoreLabels...)
	if a.Kind != KindClick || !reflect.DeepEqual(a.Fallback, IgnoreLabels) {
		t.Errorf("OrElse 结果错误: %+v", a)
	}

	s := SelectThenClick(CurveLabels, OKLabels...)
	if s.Kind != KindSelectThenClick || !reflect.DeepEqual(s.Options, CurveLabels) {
		t.Errorf("SelectThenClick 结果错误: %+v", s)
	}
	t.Logf("%s / %s", a, s)
}

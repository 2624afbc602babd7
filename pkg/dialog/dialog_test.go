package dialog

import (
	"errors"
	"reflect"
	"testing"

	"github.com/zoeyai/popupguard/pkg/desktop"
	"github.com/zoeyai/popupguard/pkg/desktop/desktoptest"
)

func TestClassifyRole(t *testing.T) {
	tests := []struct {
		class string
		want  Role
	}{
		{"Button", RoleButton},
		{"AfxButton80u", RoleButton},
		{"Static", RoleStatic},
		{"Edit", RoleOther},
		{"CorelOwnerDrawn", RoleOther},
	}

	for _, tt := range tests {
		if got := ClassifyRole(tt.class); got != tt.want {
			t.Errorf("ClassifyRole(%q) = %s, 期望 %s", tt.class, got, tt.want)
		}
	}
}

func newErrorDialog(f *desktoptest.Fake) desktop.Handle {
	h := f.AddDialog("CorelDRAW X7", 100)
	f.AddStatic(h, "文件已损坏")
	f.AddOwnerDrawn(h, "Static", "无法打开文件 a.cdr")
	f.AddControl(h, "Static", "")
	f.AddButton(h, "确定")
	f.AddButton(h, "取消")
	return h
}

func TestExtract(t *testing.T) {
	f := desktoptest.New()
	h := newErrorDialog(f)
	e := NewExtractor(f)

	d, err := e.Extract(desktop.WindowInfo{Handle: h, Title: "CorelDRAW X7", PID: 100})
	if err != nil {
		t.Fatalf("Extract 失败: %v", err)
	}

	if len(d.Controls) != 5 {
		t.Fatalf("控件数量应为 5, 实际 %d", len(d.Controls))
	}
	if d.Controls[1].Text != "无法打开文件 a.cdr" {
		t.Errorf("自绘控件应通过消息查询取得文本, 实际 %q", d.Controls[1].Text)
	}
	if got, want := d.Text(), "文件已损坏 无法打开文件 a.cdr 确定 取消"; got != want {
		t.Errorf("合并文本 = %q, 期望 %q", got, want)
	}
	if got := d.ButtonLabels(); !reflect.DeepEqual(got, []string{"确定", "取消"}) {
		t.Errorf("按钮标签 = %v", got)
	}

	t.Logf("快照: %+v", d)
}

func TestExtractIdempotent(t *testing.T) {
	f := desktoptest.New()
	h := newErrorDialog(f)
	e := NewExtractor(f)
	win := desktop.WindowInfo{Handle: h, Title: "CorelDRAW X7"}

	first, err := e.Extract(win)
	if err != nil {
		t.Fatalf("第一次提取失败: %v", err)
	}
	second, err := e.Extract(win)
	if err != nil {
		t.Fatalf("第二次提取失败: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("两次提取结果不一致:\n%+v\n%+v", first, second)
	}
}

func TestExtractStaleHandle(t *testing.T) {
	f := desktoptest.New()
	h := newErrorDialog(f)
	f.CloseWindow(h)

	_, err := NewExtractor(f).Extract(desktop.WindowInfo{Handle: h})
	if !errors.Is(err, desktop.ErrStaleHandle) {
		t.Errorf("已关闭窗口应返回 ErrStaleHandle, 实际 %v", err)
	}
}

func TestMergeText(t *testing.T) {
	d := &Dialog{Controls: []Control{
		{Text: "确定", Role: RoleButton},
		{Text: ""},
	}}

	got := MergeText(d, []string{"无效的轮廓 ID", "确定", "无效的轮廓 ID", "忽略"})
	if want := "确定 无效的轮廓 ID 忽略"; got != want {
		t.Errorf("MergeText = %q, 期望 %q", got, want)
	}

	if got := MergeText(d, nil); got != "确定" {
		t.Errorf("无捕获文本时应只含控件文本, 实际 %q", got)
	}
}

func TestPolicy(t *testing.T) {
	p := NewPolicy("CorelDRAW")

	tests := []struct {
		name  string
		title string
		text  string
		want  bool
	}{
		{"标题命中", "CorelDRAW X7", "", true},
		{"正文命中", "提示", "无效的轮廓 ID", true},
		{"英文正文不区分大小写", "Warning", "File is CORRUPTED", true},
		{"PS/PRN", "导入", "PS/PRN 导入选项", true},
		{"无关对话框", "另存为", "文件名", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.IsTarget(tt.title, tt.text); got != tt.want {
				t.Errorf("IsTarget(%q, %q) = %v, 期望 %v", tt.title, tt.text, got, tt.want)
			}
		})
	}
}

func TestIsCandidate(t *testing.T) {
	if !IsCandidate(desktop.WindowInfo{Class: "#32770"}) {
		t.Error("#32770 应为候选")
	}
	if IsCandidate(desktop.WindowInfo{Class: "CorelDRAW 17.0"}) {
		t.Error("主窗口类不应为候选")
	}
}

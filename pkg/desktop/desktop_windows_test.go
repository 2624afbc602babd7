//go:build windows

package desktop

import (
	"strings"
	"testing"
)

func TestWindowTextOfTopLevel(t *testing.T) {
	d, err := New()
	if err != nil {
		t.Fatalf("New 失败: %v", err)
	}
	wins, err := d.TopLevelWindows()
	if err != nil {
		t.Fatalf("枚举窗口失败: %v", err)
	}

	titled := 0
	for _, w := range wins {
		if strings.ContainsRune(w.Title, 0) {
			t.Errorf("%s 标题不应包含结尾 0: %q", w.Handle, w.Title)
		}
		if w.Title != "" {
			titled++
		}
	}
	t.Logf("顶层窗口 %d 个, 有标题 %d 个", len(wins), titled)
}

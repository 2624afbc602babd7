package dialog

import (
	"strings"

	"github.com/samber/lo"

	"github.com/zoeyai/popupguard/pkg/desktop"
)

// DefaultKeywords 已知错误类别的正文关键字
// 部分对话框标题是通用的，只能靠正文识别
var DefaultKeywords = []string{
	"无效", "轮廓", "无法打开", "标头", "损坏", "PS/PRN", "错误", "失败",
	"invalid", "outline", "cannot open", "corrupt", "error",
}

// Policy 目标对话框识别策略
type Policy struct {
	App      string
	Keywords []string
}

// NewPolicy 使用默认关键字创建策略
func NewPolicy(app string) Policy {
	return Policy{App: app, Keywords: DefaultKeywords}
}

// IsCandidate 只有系统通用对话框类才可能是目标
func IsCandidate(w desktop.WindowInfo) bool {
	return w.Class == desktop.DialogClass
}

// IsTarget 标题包含目标程序名称，或正文包含任一关键字
func (p Policy) IsTarget(title, text string) bool {
	if p.App != "" && strings.Contains(title, p.App) {
		return true
	}
	lower := strings.ToLower(text)
	return lo.SomeBy(p.Keywords, func(k string) bool {
		return strings.Contains(lower, strings.ToLower(k))
	})
}

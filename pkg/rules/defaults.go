package rules

import "strings"

// 按钮标签
var (
	OKLabels     = []string{"确定", "OK"}
	YesLabels    = []string{"是", "Yes"}
	IgnoreLabels = []string{"忽略", "忽略(&I)", "Ignore"}
	CurveLabels  = []string{"曲线", "曲线(&C)", "Curves"}
)

// 正文标记
var (
	invalidMarkers       = []string{"无效", "invalid"}
	outlineMarkers       = []string{"轮廓", "outline", "contour"}
	invalidHeaderMarkers = []string{"无效标头", "invalid header", "无法打开", "cannot open", "can't open"}
	corruptedMarkers     = []string{"损坏", "corrupt"}
	importMarkers        = []string{"PS/PRN"}
	genericErrorMarkers  = []string{"错误", "无效", "失败", "error", "invalid", "fail"}
)

// 规则名称
const (
	RuleInvalidOutline = "invalid-outline"
	RuleSingleOK       = "single-ok"
	RuleInvalidHeader  = "invalid-header"
	RuleCorrupted      = "corrupted"
	RuleImportCurves   = "import-curves"
	RuleIgnoreOnError  = "ignore-on-error"
	RuleAppCatchAll    = "app-catch-all"
)

// DefaultRules 目标程序已知对话框的处理规则，顺序即优先级
func DefaultRules(app string) []Rule {
	okOrYes := append(append([]string{}, OKLabels...), YesLabels...)

	return []Rule{
		{
			Name: RuleInvalidOutline,
			Match: func(in Input) bool {
				return containsAny(in.Text, invalidMarkers) && containsAny(in.Text, outlineMarkers)
			},
			Action: Click(IgnoreLabels...),
		},
		{
			Name: RuleSingleOK,
			Match: func(in Input) bool {
				return len(in.Buttons) == 1 && MatchesAny(OKLabels, in.Buttons[0])
			},
			Action: Click(OKLabels...).WithEnter(),
		},
		{
			Name: RuleInvalidHeader,
			Match: func(in Input) bool {
				return containsAny(in.Text, invalidHeaderMarkers)
			},
			Action: Click(OKLabels...).OrElse(IgnoreLabels...).WithEnter(),
		},
		{
			Name: RuleCorrupted,
			Match: func(in Input) bool {
				return containsAny(in.Text, corruptedMarkers)
			},
			Action: Click(OKLabels...).WithEnter(),
		},
		{
			Name: RuleImportCurves,
			Match: func(in Input) bool {
				return containsAny(in.Text, importMarkers)
			},
			Action: SelectThenClick(CurveLabels, OKLabels...).WithEnter(),
		},
		{
			Name: RuleIgnoreOnError,
			Match: func(in Input) bool {
				return AnyLabel(IgnoreLabels, in.Buttons) && containsAny(in.Text, genericErrorMarkers)
			},
			Action: Click(IgnoreLabels...),
		},
		{
			Name: RuleAppCatchAll,
			Match: func(in Input) bool {
				return app != "" && strings.Contains(in.Title, app) && AnyLabel(okOrYes, in.Buttons)
			},
			Action: Click(okOrYes...),
		},
	}
}

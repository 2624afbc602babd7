// Package permissions 检查注入所需的进程权限
//
// 检查结果只用于启动提示，不阻止运行：目标进程与本进程权限相同时，
// 非提升权限也可能注入成功。
package permissions

import "strings"

// PermissionStatus 权限状态
type PermissionStatus struct {
	Elevated   bool `json:"elevated"`
	AllGranted bool `json:"all_granted"`
}

// CheckPermissions 检查所需权限
func CheckPermissions() *PermissionStatus {
	elevated := isElevated()
	return &PermissionStatus{
		Elevated:   elevated,
		AllGranted: elevated,
	}
}

// GetPermissionInstructions 获取权限说明
func GetPermissionInstructions(status *PermissionStatus) string {
	if status == nil || status.AllGranted {
		return ""
	}

	var b strings.Builder
	b.WriteString("当前进程未以管理员身份运行，注入目标进程可能失败。\n")
	b.WriteString("请右键程序选择\"以管理员身份运行\"，或在管理员终端中启动。")
	return b.String()
}

// EnsurePermissions 返回权限是否齐全及缺失时的说明
func EnsurePermissions() (bool, string) {
	status := CheckPermissions()
	return status.AllGranted, GetPermissionInstructions(status)
}

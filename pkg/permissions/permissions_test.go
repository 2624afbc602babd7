package permissions

import (
	"strings"
	"testing"
)

func TestCheckPermissions(t *testing.T) {
	status := CheckPermissions()
	t.Logf("elevated=%v", status.Elevated)

	if status.AllGranted != status.Elevated {
		t.Errorf("AllGranted 应与 Elevated 一致: %+v", status)
	}

	ok, msg := EnsurePermissions()
	if ok != status.AllGranted {
		t.Errorf("EnsurePermissions = %v, 期望 %v", ok, status.AllGranted)
	}
	if ok != (msg == "") {
		t.Errorf("权限齐全时不应有说明, 缺失时必须有说明: ok=%v msg=%q", ok, msg)
	}
}

func TestGetPermissionInstructions(t *testing.T) {
	tests := []struct {
		name   string
		status *PermissionStatus
		empty  bool
	}{
		{"nil", nil, true},
		{"已提升", &PermissionStatus{Elevated: true, AllGranted: true}, true},
		{"未提升", &PermissionStatus{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := GetPermissionInstructions(tt.status)
			if (msg == "") != tt.empty {
				t.Errorf("说明 = %q", msg)
			}
			if !tt.empty && !strings.Contains(msg, "管理员") {
				t.Errorf("说明应提示以管理员身份运行: %q", msg)
			}
		})
	}
}

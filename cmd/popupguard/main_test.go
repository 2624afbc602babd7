package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/zoeyai/popupguard/pkg/config"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		reset    bool
		save     bool
		wantApp  string
		wantFile bool
		wantErr  bool
	}{
		{name: "无配置文件用默认值", wantApp: "CorelDRAW"},
		{name: "读取已保存配置", content: `{"target_app": "Illustrator"}`, wantApp: "Illustrator", wantFile: true},
		{name: "重置后用默认值", content: `{"target_app": "Illustrator"}`, reset: true, wantApp: "CorelDRAW"},
		{name: "重置并保存默认值", content: `{"target_app": "Illustrator"}`, reset: true, save: true, wantApp: "CorelDRAW", wantFile: true},
		{name: "配置无效", content: `{"poll_interval_ms": -1}`, wantFile: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			if tt.content != "" {
				if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
					t.Fatalf("写入配置失败: %v", err)
				}
			}
			manager := config.NewManagerWithFile(path)

			cfg, err := loadConfig(manager, tt.reset, tt.save)
			if tt.wantErr {
				if err == nil {
					t.Fatal("应返回校验错误")
				}
				t.Logf("校验错误: %v", err)
			} else {
				if err != nil {
					t.Fatalf("loadConfig 失败: %v", err)
				}
				if cfg.TargetApp != tt.wantApp {
					t.Errorf("TargetApp = %s, 期望 %s", cfg.TargetApp, tt.wantApp)
				}
			}
			if manager.Exists() != tt.wantFile {
				t.Errorf("配置文件存在 = %v, 期望 %v", manager.Exists(), tt.wantFile)
			}
		})
	}
}

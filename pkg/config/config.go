package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// 默认值
const (
	DefaultTargetApp     = "CorelDRAW"
	DefaultSharedMemName = "CDRPopupHandlerSharedMem"
	DefaultHookDLL       = "gdi_hook.dll"
)

// WatcherConfig 弹窗监控配置
type WatcherConfig struct {
	// TargetApp 目标程序名称，出现在窗口标题中
	TargetApp string `json:"target_app"`
	// TargetProcessNames 目标进程可执行文件名，用于补充注入
	TargetProcessNames []string `json:"target_process_names"`
	// HookDLLPath 捕获模块路径，为空时取可执行文件同目录的 gdi_hook.dll
	HookDLLPath string `json:"hook_dll_path"`
	// SharedMemName 共享内存名称
	SharedMemName string `json:"shared_mem_name"`

	PollIntervalMs  int `json:"poll_interval_ms"`
	CaptureDelayMs  int `json:"capture_delay_ms"`
	SettleDelayMs   int `json:"settle_delay_ms"`
	InjectTimeoutMs int `json:"inject_timeout_ms"`

	// RetryOnTimeout 注入超时是否视为失败并在下一轮重试
	RetryOnTimeout bool `json:"retry_on_timeout"`
	// RequireChannel 共享内存创建失败时是否终止启动
	RequireChannel bool `json:"require_channel"`
	// KeyboardFallback 找不到确定按钮时是否发送回车
	KeyboardFallback bool `json:"keyboard_fallback"`

	// HealthAddr gRPC 健康检查监听地址，为空表示不启用
	HealthAddr string `json:"health_addr"`
	LogLevel   string `json:"log_level"`
	LogFile    string `json:"log_file"`
}

// DefaultWatcherConfig 默认监控配置
func DefaultWatcherConfig() *WatcherConfig {
	return &WatcherConfig{
		TargetApp:          DefaultTargetApp,
		TargetProcessNames: []string{"CorelDRW.exe"},
		SharedMemName:      DefaultSharedMemName,
		PollIntervalMs:     500,
		CaptureDelayMs:     300,
		SettleDelayMs:      200,
		InjectTimeoutMs:    5000,
		LogLevel:           "info",
	}
}

// Validate 校验配置
func (c *WatcherConfig) Validate() error {
	var errs []error
	if c.TargetApp == "" {
		errs = append(errs, errors.New("target_app 不能为空"))
	}
	if c.SharedMemName == "" {
		errs = append(errs, errors.New("shared_mem_name 不能为空"))
	}
	if c.PollIntervalMs <= 0 {
		errs = append(errs, fmt.Errorf("poll_interval_ms 必须大于 0: %d", c.PollIntervalMs))
	}
	if c.InjectTimeoutMs <= 0 {
		errs = append(errs, fmt.Errorf("inject_timeout_ms 必须大于 0: %d", c.InjectTimeoutMs))
	}
	if c.CaptureDelayMs < 0 || c.SettleDelayMs < 0 {
		errs = append(errs, errors.New("延迟不能为负数"))
	}
	return errors.Join(errs...)
}

// ResolveHookDLL 返回捕获模块的绝对路径
func (c *WatcherConfig) ResolveHookDLL() (string, error) {
	if c.HookDLLPath != "" {
		return filepath.Abs(c.HookDLLPath)
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("获取程序路径失败: %w", err)
	}
	return filepath.Join(filepath.Dir(exe), DefaultHookDLL), nil
}

func (c *WatcherConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

func (c *WatcherConfig) CaptureDelay() time.Duration {
	return time.Duration(c.CaptureDelayMs) * time.Millisecond
}

func (c *WatcherConfig) SettleDelay() time.Duration {
	return time.Duration(c.SettleDelayMs) * time.Millisecond
}

func (c *WatcherConfig) InjectTimeout() time.Duration {
	return time.Duration(c.InjectTimeoutMs) * time.Millisecond
}

// Manager 配置管理器
type Manager struct {
	configDir  string
	configFile string
	mu         sync.RWMutex
}

// NewManager 创建配置管理器
func NewManager() *Manager {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return NewManagerWithDir(filepath.Join(homeDir, ".popupguard"))
}

// NewManagerWithDir 使用指定目录创建配置管理器
func NewManagerWithDir(configDir string) *Manager {
	return &Manager{
		configDir:  configDir,
		configFile: filepath.Join(configDir, "config.json"),
	}
}

// NewManagerWithFile 使用指定配置文件创建配置管理器
func NewManagerWithFile(path string) *Manager {
	return &Manager{
		configDir:  filepath.Dir(path),
		configFile: path,
	}
}

// ensureDir 确保配置目录存在
func (m *Manager) ensureDir() error {
	return os.MkdirAll(m.configDir, 0755)
}

// Load 加载配置
// 文件不存在时返回默认配置；解析失败时返回默认配置和错误
func (m *Manager) Load() (*WatcherConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, err := os.Stat(m.configFile); os.IsNotExist(err) {
		return DefaultWatcherConfig(), nil
	}

	data, err := os.ReadFile(m.configFile)
	if err != nil {
		return DefaultWatcherConfig(), fmt.Errorf("读取配置文件失败: %w", err)
	}

	// 在默认值上覆盖，缺省字段保留默认
	config := DefaultWatcherConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return DefaultWatcherConfig(), fmt.Errorf("解析配置文件失败: %w", err)
	}

	return config, nil
}

// Save 保存配置
func (m *Manager) Save(config *WatcherConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureDir(); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.WriteFile(m.configFile, data, 0600); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}

	return nil
}

// Clear 清除配置
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := os.Stat(m.configFile); os.IsNotExist(err) {
		return nil
	}

	return os.Remove(m.configFile)
}

// GetConfigDir 获取配置目录
func (m *Manager) GetConfigDir() string {
	return m.configDir
}

// GetConfigFile 获取配置文件路径
func (m *Manager) GetConfigFile() string {
	return m.configFile
}

// Exists 检查配置文件是否存在
func (m *Manager) Exists() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, err := os.Stat(m.configFile)
	return err == nil
}

// 全局配置管理器
var defaultManager = NewManager()

// GetDefaultManager 获取默认配置管理器
func GetDefaultManager() *Manager {
	return defaultManager
}

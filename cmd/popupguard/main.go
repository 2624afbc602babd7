package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zoeyai/popupguard/internal/logger"
	"github.com/zoeyai/popupguard/pkg/channel"
	"github.com/zoeyai/popupguard/pkg/config"
	"github.com/zoeyai/popupguard/pkg/desktop"
	"github.com/zoeyai/popupguard/pkg/dialog"
	"github.com/zoeyai/popupguard/pkg/executor"
	"github.com/zoeyai/popupguard/pkg/health"
	"github.com/zoeyai/popupguard/pkg/inject"
	"github.com/zoeyai/popupguard/pkg/permissions"
	"github.com/zoeyai/popupguard/pkg/rules"
	"github.com/zoeyai/popupguard/pkg/watcher"
)

// 版本信息 (可通过 ldflags 注入)
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// 命令行参数
	var (
		configPath  = flag.String("config", "", "配置文件路径 (默认 ~/.popupguard/config.json)")
		saveConfig  = flag.Bool("save", false, "保存当前配置到本地")
		resetConfig = flag.Bool("reset", false, "删除配置文件后使用默认配置")
		showVersion = flag.Bool("version", false, "显示版本信息")
		showHelp    = flag.Bool("help", false, "显示帮助信息")
	)

	flag.Parse()

	if *showVersion {
		printVersion()
		return
	}

	if *showHelp {
		printHelp()
		return
	}

	manager := config.GetDefaultManager()
	if *configPath != "" {
		manager = config.NewManagerWithFile(*configPath)
	}

	cfg, err := loadConfig(manager, *resetConfig, *saveConfig)
	if err != nil {
		fmt.Printf("[ERROR] %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		logger.Error("%v", err)
		logger.Default().Close()
		os.Exit(1)
	}
	logger.Default().Close()
}

// loadConfig 按命令行选项重置、加载并保存配置
func loadConfig(manager *config.Manager, reset, save bool) (*config.WatcherConfig, error) {
	if reset {
		if err := manager.Clear(); err != nil {
			return nil, fmt.Errorf("删除配置文件失败: %w", err)
		}
		fmt.Printf("[INFO] 已删除配置文件 %s\n", manager.GetConfigFile())
	}

	if !manager.Exists() {
		fmt.Printf("[INFO] 未找到配置文件 %s，使用默认配置\n", manager.GetConfigFile())
	}
	cfg, err := manager.Load()
	if err != nil {
		fmt.Printf("[WARN] 加载配置失败，使用默认配置: %v\n", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置无效: %w", err)
	}

	if save {
		if err := manager.Save(cfg); err != nil {
			fmt.Printf("[WARN] 保存配置失败: %v\n", err)
		} else {
			fmt.Printf("[INFO] 配置已保存到 %s\n", manager.GetConfigFile())
		}
	}
	return cfg, nil
}

// run 初始化各组件并运行轮询，所有已获取的资源在返回前释放
func run(cfg *config.WatcherConfig) error {
	log := logger.Default()
	log.SetLevel(logger.ParseLevel(cfg.LogLevel))
	if cfg.LogFile != "" {
		if err := log.SetFile(true, cfg.LogFile); err != nil {
			fmt.Printf("[WARN] 打开日志文件失败: %v\n", err)
		}
	}

	fmt.Println("========================================")
	fmt.Printf("  PopupGuard v%s\n", Version)
	fmt.Println("========================================")
	fmt.Printf("目标程序: %s\n", cfg.TargetApp)
	fmt.Printf("轮询间隔: %v\n", cfg.PollInterval())
	fmt.Println()

	// 权限只做提示
	if ok, msg := permissions.EnsurePermissions(); !ok {
		logger.Warn("%s", msg)
	}

	desk, err := desktop.New()
	if err != nil {
		return fmt.Errorf("初始化窗口访问失败: %w", err)
	}

	var source watcher.TextSource = watcher.NoCapture{}
	ch, err := channel.Open(cfg.SharedMemName)
	switch {
	case err == nil:
		defer ch.Close()
		source = ch
		logger.Info("共享内存已就绪: %s", ch.Name())
	case cfg.RequireChannel:
		return fmt.Errorf("创建共享内存失败: %w", err)
	default:
		logger.Warn("创建共享内存失败，仅使用控件文本: %v", err)
	}

	opts := []watcher.Option{
		watcher.WithTextSource(source),
		watcher.WithPollInterval(cfg.PollInterval()),
		watcher.WithCaptureDelay(cfg.CaptureDelay()),
	}

	injected := inject.NewProcessSet()
	if injector, err := newInjector(cfg, desk, injected); err != nil {
		if cfg.RequireChannel {
			return err
		}
		logger.Warn("不注入捕获模块，仅使用控件文本: %v", err)
	} else {
		opts = append(opts, watcher.WithInjector(injector))
	}

	engine := rules.NewEngine(rules.DefaultRules(cfg.TargetApp))
	engine.AllowEnter(cfg.KeyboardFallback)
	exec := executor.New(desk,
		executor.WithSettleDelay(cfg.SettleDelay()),
		executor.WithKeyboardFallback(cfg.KeyboardFallback),
	)

	w := watcher.New(desk, dialog.NewPolicy(cfg.TargetApp), engine, exec, opts...)

	if cfg.HealthAddr != "" {
		hs := health.New(cfg.HealthAddr)
		if err := hs.Start(); err != nil {
			return err
		}
		defer hs.Stop()
		hs.SetServing(true)
		defer hs.SetServing(false)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("[INFO] 按 Ctrl+C 退出")
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	fmt.Println()
	printSummary(w.Stats(), injected)
	return nil
}

// newInjector 解析捕获模块路径并创建注入管理器
func newInjector(cfg *config.WatcherConfig, desk desktop.Desktop, injected *inject.ProcessSet) (*inject.Manager, error) {
	dllPath, err := cfg.ResolveHookDLL()
	if err != nil {
		return nil, err
	}
	loader, err := inject.NewRemoteLoader(dllPath, cfg.InjectTimeout())
	if err != nil {
		return nil, err
	}
	logger.Info("捕获模块: %s", dllPath)

	return inject.NewManager(loader, desk, cfg.TargetApp, injected,
		inject.WithProcessNames(cfg.TargetProcessNames...),
		inject.WithRetryOnTimeout(cfg.RetryOnTimeout),
	), nil
}

// printSummary 打印运行统计
func printSummary(s watcher.Snapshot, injected *inject.ProcessSet) {
	fmt.Println("========== 运行统计 ==========")
	fmt.Printf("轮询次数: %d\n", s.Ticks)
	fmt.Printf("识别对话框: %d\n", s.Seen)
	fmt.Printf("已处理对话框: %d\n", s.Handled)
	for _, name := range s.Rules() {
		fmt.Printf("  %-16s %d\n", name, s.RuleHits[name])
	}
	if s.Failures > 0 {
		fmt.Printf("执行失败: %d\n", s.Failures)
	}
	fmt.Printf("已注入进程: %d (失败 %d 次)\n", injected.Len(), s.InjectFailures)
	fmt.Println("==============================")
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("PopupGuard v%s\n", Version)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}

// printHelp 打印帮助信息
func printHelp() {
	fmt.Println("PopupGuard - CorelDRAW 错误对话框自动处理")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  popupguard [选项]")
	fmt.Println()
	fmt.Println("选项:")
	fmt.Println("  -config string  配置文件路径")
	fmt.Println("  -save           保存配置到本地")
	fmt.Println("  -reset          删除配置文件，恢复默认配置")
	fmt.Println("  -version        显示版本信息")
	fmt.Println("  -help           显示帮助信息")
	fmt.Println()
	fmt.Println("示例:")
	fmt.Println("  # 使用默认或已保存的配置运行")
	fmt.Println("  popupguard")
	fmt.Println()
	fmt.Println("  # 生成默认配置文件后按需修改")
	fmt.Println("  popupguard -save")
	fmt.Println()
	fmt.Println("建议以管理员身份运行，否则可能无法注入目标进程。")
	fmt.Printf("配置文件位置: %s\n", config.GetDefaultManager().GetConfigFile())
}

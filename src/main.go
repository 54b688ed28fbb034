package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"github.com/robfig/cron"
	"github.com/spf13/cobra"

	"IndicatorInsight/src/chart"
	"IndicatorInsight/src/config"
	"IndicatorInsight/src/datasource/file"
	"IndicatorInsight/src/pipeline"
	"IndicatorInsight/src/storage"
)

// app 命令行共享的状态
type app struct {
	configDir      string
	configFile     string
	dataConfigFile string
	dataDir        string
	outDir         string
	verbose        bool

	cfg    *config.Config
	dcfg   *config.DataConfig
	logger *storage.Logger
	out    io.Writer
	errOut io.Writer

	running sync.Mutex // 同一时刻只执行一次流程
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:               "indicators",
		Short:             "世界银行指标数据的清洗, 统计与出图",
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return a.setup() },
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.logger != nil {
				return a.logger.Close()
			}
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configDir, "config", "./config", "配置文件目录")
	flags.StringVar(&a.configFile, "config-file", "config.json", "应用配置文件名")
	flags.StringVar(&a.dataConfigFile, "data-config", "dataconfig.json", "数据配置文件名")
	flags.StringVar(&a.dataDir, "data-dir", "", "覆盖配置中的data_dir")
	flags.StringVar(&a.outDir, "out-dir", "", "覆盖配置中的output_dir")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "日志同时输出到stderr")

	root.AddCommand(a.runCmd(), a.statsCmd(), a.watchCmd(), a.scheduleCmd(), a.checkCmd())
	return root
}

// setup 加载配置并初始化日志
func (a *app) setup() error {
	cfg, dcfg, err := config.LoadConfig(a.configDir, a.configFile, a.dataConfigFile)
	if errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(a.errOut, "配置文件不存在(%v), 使用默认配置\n", err)
		cfg, dcfg = config.Default()
		err = nil
	}
	if err != nil {
		return err
	}
	if a.dataDir != "" {
		cfg.DataDir = a.dataDir
	}
	if a.outDir != "" {
		cfg.OutputDir = a.outDir
	}
	a.cfg, a.dcfg = cfg, dcfg

	logger, err := storage.NewLogger(cfg.LogName)
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	level, err := storage.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if a.verbose {
		ch := logger.Subscribe()
		go func() {
			for msg := range ch {
				fmt.Fprint(a.errOut, msg)
			}
		}()
	}
	logger.SetLevel(level)
	if err := logger.CheckRotate(cfg.LogMaxSize); err != nil {
		logger.Warning("日志轮转失败: " + err.Error())
	}
	a.logger = logger
	return nil
}

// signalContext 收到SIGINT/SIGTERM时取消, SIGHUP重新打开日志文件
func (a *app) signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	file.SetupSignalHandler(cancel)

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for {
			select {
			case <-hup:
				if err := a.logger.Reopen(a.cfg.LogName); err != nil {
					fmt.Fprintf(a.errOut, "重新打开日志失败: %v\n", err)
				}
			case <-ctx.Done():
				signal.Stop(hup)
				return
			}
		}
	}()
	return ctx, cancel
}

// runPipeline 执行一次完整流程
func (a *app) runPipeline(ctx context.Context) error {
	if !a.running.TryLock() {
		a.logger.Warning("上一次处理尚未结束, 本次跳过")
		return nil
	}
	defer a.running.Unlock()

	a.logger.Info("开始处理数据, 数据目录: " + a.cfg.DataDir)
	err := pipeline.New(a.cfg, a.dcfg, a.logger, a.out).Run(ctx)
	if err != nil {
		a.logger.Error("处理完成, 存在错误: " + err.Error())
	} else {
		a.logger.Info("处理完成, 输出目录: " + a.cfg.OutputDir)
	}
	if rerr := a.logger.CheckRotate(a.cfg.LogMaxSize); rerr != nil {
		a.logger.Warning("日志轮转失败: " + rerr.Error())
	}
	return err
}

func (a *app) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "加载全部指标, 输出统计结果并生成图表",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.signalContext()
			defer cancel()
			return a.runPipeline(ctx)
		},
	}
}

func (a *app) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "只输出统计结果",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.signalContext()
			defer cancel()

			p := pipeline.New(a.cfg, a.dcfg, a.logger, a.out)
			ds, err := p.Load(ctx)
			if err != nil {
				return err
			}
			if err := p.Report(ctx, ds); err != nil {
				return err
			}
			return ds.Errs()
		},
	}
}

func (a *app) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "监控数据目录, 指标文件变更后重新处理",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.signalContext()
			defer cancel()

			monitor, err := file.NewFileMonitor(a.cfg.DataDir, indicatorFiles(a.dcfg), a.cfg.Watch.Debounce.Std())
			if err != nil {
				return err
			}
			defer monitor.Close()

			_ = a.runPipeline(ctx)
			a.logger.Info(fmt.Sprintf("文件监控已启动(目录: %s)，按Ctrl+C退出", a.cfg.DataDir))
			return monitor.Watch(ctx, func(name string) {
				a.logger.Info("检测到文件变更: " + name)
				_ = a.runPipeline(ctx)
			})
		},
	}
}

func (a *app) scheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "按watch.schedule定时处理",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.signalContext()
			defer cancel()

			c := cron.New()
			spec := a.cfg.Watch.Schedule
			err := c.AddFunc(spec, func() {
				a.logger.Info(fmt.Sprintf("开始定时处理(%s)...", spec))
				_ = a.runPipeline(ctx)
			})
			if err != nil {
				return fmt.Errorf("创建定时任务失败: %w", err)
			}

			c.Start()
			defer c.Stop()
			a.logger.Info(fmt.Sprintf("定时任务已启动(%s)，按Ctrl+C退出", spec))
			<-ctx.Done()
			a.logger.Info("收到退出信号, 停止定时任务")
			return nil
		},
	}
}

func (a *app) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "校验配置并检查指标文件是否存在",
		RunE: func(cmd *cobra.Command, args []string) error {
			table := tablewriter.NewWriter(a.out)
			table.SetAutoFormatHeaders(false)
			table.SetHeader([]string{"Indicator", "File", "Status"})

			var missing []error
			for _, ind := range a.dcfg.Indicators {
				status := "ok"
				if _, err := os.Stat(filepath.Join(a.cfg.DataDir, ind.File)); err != nil {
					status = "missing"
					missing = append(missing, fmt.Errorf("%s: %w", ind.Key, file.ErrNotFound))
				}
				table.Append([]string{ind.Key, ind.File, status})
			}
			table.Render()

			for _, country := range a.dcfg.Countries {
				name := a.dcfg.PaletteFor(country)
				if _, err := chart.Palette(name); err != nil {
					missing = append(missing, fmt.Errorf("%s: %w (可选: %s)", country, err, strings.Join(chart.PaletteNames(), ", ")))
				}
			}
			return errors.Join(missing...)
		},
	}
}

// indicatorFiles 需要监控的文件名
func indicatorFiles(dcfg *config.DataConfig) []string {
	names := make([]string, 0, len(dcfg.Indicators))
	for _, ind := range dcfg.Indicators {
		names = append(names, ind.File)
	}
	return names
}

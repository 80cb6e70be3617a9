package cmd

import (
	"context"
	stderrors "errors"
	"os"
	"os/signal"
	"syscall"

	"fansync/pkg/monitor"
	"fansync/pkg/store"
	"fansync/pkg/util"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var monitorCfg *monitor.Config

func NewMonitorCommand() *cobra.Command {
	var configFilePath string
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "启动数据同步监控机器人",
		Long:  "接收飞书群聊事件按关键词触发任务，带每日定时调度、运行历史与 git 数据备份",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			monitorCfg, err = monitor.TryLoadFromDisk(configFilePath)
			if err != nil {
				return errors.Errorf("读取本地配置文件错误:%s", err.Error())
			}
			if monitorCfg == nil {
				return errors.Errorf("未找到配置文件: %s", configFilePath)
			}
			if errs := monitorCfg.Validate(); len(errs) > 0 {
				return errors.Errorf("本地配置文件验证错误:%s", stderrors.Join(errs...))
			}
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := startMonitor(monitorCfg, ctx); err != nil && !errors.Is(err, context.Canceled) {
				zap.S().Errorf("监控服务退出: %v", err)
			}
		},
	}
	cmd.PersistentFlags().StringVarP(&configFilePath, "config", "c", "./etc/monitor.yaml", "配置文件路径")
	return cmd
}

func startMonitor(cfg *monitor.Config, ctx context.Context) error {
	zap.S().Infof("***  %s %s ***", util.AppName, util.GetVersion().Version)

	runs, err := store.OpenRunStore(cfg.DataDir)
	if err != nil {
		zap.S().Fatalf("无法打开运行历史存储。%s", err.Error())
	}

	m := monitor.New(cfg, runs)
	webServer := monitor.NewServer(cfg, m)

	if err := m.StartDailySchedule(ctx); err != nil {
		zap.S().Fatalf("启动定时调度失败。%s", err.Error())
	}

	m.SendMessage("🤖 数据监测机器人已上线！\n现在可以在群聊中@我来触发数据同步任务。", "")
	zap.S().Infof("📱 事件回调服务监听 :%d，现在可以在群聊中@机器人来触发任务", cfg.Port)

	g, c := errgroup.WithContext(ctx)
	g.Go(func() error {
		return webServer.Run()
	})
	g.Go(func() error {
		<-c.Done()
		runs.Close()
		_ = webServer.GracefulShutdown(context.Background())
		return c.Err()
	})
	return g.Wait()
}

package cmd

import (
	"context"
	stderrors "errors"
	"os"
	"os/signal"
	"syscall"

	"fansync/pkg/notes"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var notesCfg *notes.Config

func NewNotesCommand() *cobra.Command {
	var configFilePath string
	var daemon bool
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "小红书笔记数据增量同步",
		Long:  "读取创作者中心导出文件，合并本地历史备份，并把变化增量写入飞书多维表格",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			notesCfg, err = notes.TryLoadFromDisk(configFilePath)
			if err != nil {
				return errors.Errorf("读取本地配置文件错误:%s", err.Error())
			}
			if notesCfg == nil {
				return errors.Errorf("未找到配置文件: %s", configFilePath)
			}
			if errs := notesCfg.Validate(); len(errs) > 0 {
				return errors.Errorf("本地配置文件验证错误:%s", stderrors.Join(errs...))
			}
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			if daemon {
				runNotesDaemon(notesCfg)
				return
			}
			runNotesOnce(notesCfg)
		},
	}
	cmd.PersistentFlags().StringVarP(&configFilePath, "config", "c", "./etc/notes.yaml", "配置文件路径")
	cmd.Flags().BoolVarP(&daemon, "daemon", "d", false, "常驻运行，按 schedule 配置定时同步")
	return cmd
}

// runNotesOnce 一次性运行：输出 STATUS 行并以对应状态码退出，供外层监控进程解析
func runNotesOnce(cfg *notes.Config) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := notes.NewSyncService(cfg)
	done := make(chan *notes.RunReport, 1)
	go func() {
		report, err := svc.Run(ctx)
		if err != nil {
			report = &notes.RunReport{Outcome: notes.OutcomeException, Detail: err.Error()}
		}
		done <- report
	}()

	select {
	case <-ctx.Done():
		report := &notes.RunReport{Outcome: notes.OutcomeUserInterrupted}
		report.Emit(os.Stdout)
		os.Exit(report.ExitCode())
	case report := <-done:
		report.Emit(os.Stdout)
		os.Exit(report.ExitCode())
	}
}

func runNotesDaemon(cfg *notes.Config) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := notes.NewSyncService(cfg)

	if cfg.Schedule != nil && cfg.Schedule.RunOnStart {
		zap.S().Info("启动时立即执行一次同步...")
		if report, err := svc.Run(ctx); err != nil {
			zap.S().Errorf("启动时同步被拒绝: %v", err)
		} else {
			zap.S().Infof("启动时同步完成: %s", report.Outcome.Token())
		}
	}

	if cfg.Schedule != nil && cfg.Schedule.Cron != "" {
		zap.S().Infof("使用 cron 表达式启动定时同步: %s", cfg.Schedule.Cron)
		if err := svc.StartCronSync(ctx); err != nil {
			zap.S().Errorf("启动 cron 定时同步失败: %v", err)
			return
		}
	} else {
		zap.S().Info("启动每日定时同步")
		if err := svc.StartDailySync(ctx); err != nil {
			zap.S().Errorf("启动每日定时同步失败: %v", err)
			return
		}
	}

	zap.S().Info("同步服务已启动，等待退出信号...")
	<-ctx.Done()
	zap.S().Info("接收到退出信号，正在关闭同步服务...")
}

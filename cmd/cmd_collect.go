package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fansync/pkg/collector"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var collectCfg *collector.Config

func NewCollectCommand() *cobra.Command {
	var configFilePath string
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "多平台粉丝数据采集",
		Long:  "逐平台采集账号粉丝数，写入飞书粉丝数据表并追加本地 CSV 备份",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			collectCfg, err = collector.TryLoadFromDisk(configFilePath)
			if err != nil {
				return errors.Errorf("读取本地配置文件错误:%s", err.Error())
			}
			if collectCfg == nil {
				return errors.Errorf("未找到配置文件: %s", configFilePath)
			}
			if errs := collectCfg.Validate(); len(errs) > 0 {
				return errors.Errorf("本地配置文件验证错误:%s", stderrors.Join(errs...))
			}
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			runCollectOnce(collectCfg)
		},
	}
	cmd.PersistentFlags().StringVarP(&configFilePath, "config", "c", "./etc/collect.yaml", "配置文件路径")
	return cmd
}

func runCollectOnce(cfg *collector.Config) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan *collector.Report, 1)
	go func() {
		done <- collector.NewService(cfg).Run(ctx)
	}()

	select {
	case <-ctx.Done():
		fmt.Println("STATUS:USER_INTERRUPTED")
		os.Exit(130)
	case report := <-done:
		report.Emit(os.Stdout)
		os.Exit(report.ExitCode())
	}
}

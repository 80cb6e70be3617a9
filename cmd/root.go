package cmd

import (
	"fansync/pkg/util"

	"github.com/spf13/cobra"
)

func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   util.AppName,
		Short: "多平台粉丝数据采集与飞书多维表格增量同步",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableNoDescFlag:   true,
			DisableDescriptions: true,
			HiddenDefaultCmd:    true,
		},
		Version: util.GetVersion().Version,
	}
	cmd.AddCommand(NewNotesCommand())
	cmd.AddCommand(NewCollectCommand())
	cmd.AddCommand(NewMonitorCommand())
	return cmd
}

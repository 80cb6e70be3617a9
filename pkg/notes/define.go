package notes

import (
	"fansync/pkg/feishu"
	"fansync/pkg/record"
)

type Config struct {
	Feishu  *feishu.Config `json:"feishu" yaml:"feishu"`   // 飞书开放平台配置
	TableID string         `json:"tableId" yaml:"tableId"` // 目标数据表 table_id

	DataCSVPath      string `json:"dataCsvPath" yaml:"dataCsvPath"`           // 本地历史备份 CSV 路径
	ExcelDir         string `json:"excelDir" yaml:"excelDir"`                 // 导出文件目录
	MaxExcelAgeHours int    `json:"maxExcelAgeHours" yaml:"maxExcelAgeHours"` // 导出文件有效期（小时）

	// ExportCommand 运行外部导出步骤的命令行，留空则跳过导出直接处理现有文件
	ExportCommand string `json:"exportCommand,omitempty" yaml:"exportCommand,omitempty"`
	// ExportTimeoutMinutes 导出步骤超时，默认 30 分钟
	ExportTimeoutMinutes int `json:"exportTimeoutMinutes,omitempty" yaml:"exportTimeoutMinutes,omitempty"`

	Schema   *record.Schema  `json:"schema,omitempty" yaml:"schema,omitempty"`
	Schedule *ScheduleConfig `json:"schedule,omitempty" yaml:"schedule,omitempty"`
}

type ScheduleConfig struct {
	RunOnStart bool   `json:"runOnStart" yaml:"runOnStart"`
	Cron       string `json:"cron,omitempty" yaml:"cron,omitempty"`
	// DailyTime 每日执行时刻（HH:MM，Asia/Shanghai），与 Cron 二选一
	DailyTime string `json:"dailyTime,omitempty" yaml:"dailyTime,omitempty"`
}

// MergeReport 本地历史合并的统计结果
type MergeReport struct {
	New     int
	Changed int
}

// PendingWrites 一次增量同步待执行的写操作集合，保持输入行序
type PendingWrites struct {
	Creates []record.Fields
	Updates []feishu.RecordUpdate
}

func (p PendingWrites) IsEmpty() bool {
	return len(p.Creates) == 0 && len(p.Updates) == 0
}

package notes

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"fansync/pkg/feishu"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ErrAlreadyRunning 同一张表的同步任务互斥，触发重叠时直接拒绝而不是排队
var ErrAlreadyRunning = errors.New("同步任务正在运行中，请稍后再试")

// SyncService 笔记数据增量同步服务：导出文件 → 本地历史合并 → 远端增量写入
type SyncService struct {
	cfg    *Config
	client *feishu.Client

	mu      sync.Mutex
	running bool
}

func NewSyncService(cfg *Config) *SyncService {
	return &SyncService{
		cfg:    cfg,
		client: feishu.NewClient(cfg.Feishu),
	}
}

// Run 执行一次完整同步。任何时刻最多一次在途运行，重叠触发返回 ErrAlreadyRunning。
// 除互斥拒绝外不返回 error，所有终态都落在 RunReport 里由调用方决定去留。
func (s *SyncService) Run(ctx context.Context) (*RunReport, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	zap.S().Info("🔍 开始处理小红书数据...")
	startTime := time.Now()
	report := s.run(ctx)
	zap.S().Infof("同步结束: %s, 耗时: %v", report.Outcome.Token(), time.Since(startTime))
	return report, nil
}

func (s *SyncService) run(ctx context.Context) *RunReport {
	report := &RunReport{}
	schema := s.cfg.schema()

	var exportWarning string
	if s.cfg.ExportCommand != "" {
		zap.S().Info("📥 ===== 第一步：导出最新数据 =====")
		if err := s.runExport(ctx); err != nil {
			zap.S().Warnf("⚠️ 数据导出失败，但继续处理现有数据: %v", err)
			exportWarning = err.Error()
		} else {
			zap.S().Info("✅ 数据导出完成！")
		}
	}

	zap.S().Info("📊 ===== 第二步：处理和上传数据 =====")

	maxAge := time.Duration(s.cfg.MaxExcelAgeHours) * time.Hour
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	workbook, err := FindLatestWorkbook(s.cfg.ExcelDir, maxAge)
	if err != nil {
		zap.S().Errorf("❌ 未找到有效的导出文件: %v", err)
		if exportWarning != "" {
			report.Outcome = OutcomeExportFailedAndNoRecentExcel
			report.Detail = exportWarning
		} else {
			report.Outcome = OutcomeNoRecentExcel
		}
		return report
	}

	columns, rows, err := ReadWorkbook(workbook)
	if err != nil {
		zap.S().Errorf("❌ 读取导出文件失败: %v", err)
	}
	if len(rows) == 0 {
		zap.S().Error("❌ 未读取到任何数据")
		if exportWarning != "" {
			report.Outcome = OutcomeExportFailedAndNoData
			report.Detail = exportWarning
		} else {
			report.Outcome = OutcomeNoData
		}
		return report
	}

	zap.S().Info("🔄 开始合并历史数据...")
	merged, _ := MergeHistory(LoadHistory(s.cfg.DataCSVPath), columns, rows, schema)

	if err := SaveHistory(s.cfg.DataCSVPath, merged); err != nil {
		zap.S().Errorf("❌ 保存CSV文件失败: %v", err)
		report.Outcome = OutcomeCSVSaveFailed
		return report
	}
	report.CSVPath = s.cfg.DataCSVPath
	report.Processed = len(merged.Rows)

	zap.S().Info("🚀 开始增量更新飞书多维表格...")

	if _, err := s.client.TenantAccessToken(); err != nil {
		zap.S().Errorf("❌ 无法获取飞书访问令牌，跳过飞书更新: %v", err)
		report.Outcome = OutcomeFeishuTokenFailed
		return report
	}

	existing, err := s.client.ListAllRecords(s.cfg.TableID, schema.UniqueKey)
	if err != nil {
		if s.cfg.Feishu.FailOpen {
			// 降级路径：按空表继续，存量记录会被重复新增
			zap.S().Warnf("⚠️ 拉取现有记录失败，按空表继续: %v", err)
			existing = map[string]feishu.RemoteRecord{}
		} else {
			zap.S().Errorf("❌ 拉取现有记录失败，中止本次增量同步: %v", err)
			return s.updateFailed(report, exportWarning)
		}
	}

	pending := Reconcile(merged.Rows, merged.Columns, existing, schema)
	report.Created = len(pending.Creates)
	report.Updated = len(pending.Updates)

	if err := s.client.BatchCreate(s.cfg.TableID, pending.Creates); err != nil {
		zap.S().Errorf("❌ 飞书数据增量更新失败: %v", err)
		return s.updateFailed(report, exportWarning)
	}
	if err := s.client.BatchUpdate(s.cfg.TableID, pending.Updates); err != nil {
		zap.S().Errorf("❌ 飞书数据增量更新失败: %v", err)
		return s.updateFailed(report, exportWarning)
	}

	zap.S().Info("🎉 数据已成功增量更新到飞书数据表")
	zap.S().Infof("📋 处理了 %d 条数据", report.Processed)
	zap.S().Infof("💾 本地备份文件: %s", report.CSVPath)

	if exportWarning != "" {
		report.Outcome = OutcomeSuccessWithExportWarning
		report.ExportWarning = exportWarning
	} else {
		report.Outcome = OutcomeSuccess
	}
	return report
}

func (s *SyncService) updateFailed(report *RunReport, exportWarning string) *RunReport {
	if exportWarning != "" {
		report.Outcome = OutcomeFeishuUpdateFailedWithExportWarning
		report.ExportWarning = exportWarning
	} else {
		report.Outcome = OutcomeFeishuUpdateFailed
	}
	return report
}

// runExport 运行外部导出命令，超时即杀死进程
func (s *SyncService) runExport(ctx context.Context) error {
	timeout := time.Duration(s.cfg.ExportTimeoutMinutes) * time.Minute
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	zap.S().Infof("🚀 开始运行数据导出命令: %s", s.cfg.ExportCommand)
	cmd := exec.CommandContext(execCtx, "sh", "-c", s.cfg.ExportCommand)
	output, err := cmd.CombinedOutput()
	if len(output) > 0 {
		zap.S().Debugf("导出命令输出:\n%s", string(output))
	}
	if execCtx.Err() == context.DeadlineExceeded {
		return errors.Errorf("导出命令超时 (%v)", timeout)
	}
	if err != nil {
		return errors.Wrap(err, "导出命令执行失败")
	}
	return nil
}

// StartDailySync 启动每日定时同步，按上海时间的固定时刻触发
func (s *SyncService) StartDailySync(ctx context.Context) error {
	hour, minute := 12, 0
	if s.cfg.Schedule != nil && s.cfg.Schedule.DailyTime != "" {
		parts := strings.SplitN(s.cfg.Schedule.DailyTime, ":", 2)
		if len(parts) != 2 {
			return fmt.Errorf("无效的每日时刻格式，应为 HH:MM: %s", s.cfg.Schedule.DailyTime)
		}
		h, err1 := strconv.Atoi(parts[0])
		m, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
			return fmt.Errorf("无效的每日时刻: %s", s.cfg.Schedule.DailyTime)
		}
		hour, minute = h, m
	}

	go func() {
		now := time.Now()
		loc, _ := time.LoadLocation("Asia/Shanghai")
		today := now.In(loc)
		next := time.Date(today.Year(), today.Month(), today.Day(), hour, minute, 0, 0, loc)
		if now.After(next) {
			next = next.Add(24 * time.Hour)
		}

		waitDuration := next.Sub(now)
		zap.S().Infof("同步任务将在 %v 后首次执行（%s）", waitDuration, next.Format("2006-01-02 15:04:05"))

		select {
		case <-time.After(waitDuration):
			s.runScheduled(ctx, "定时")
		case <-ctx.Done():
			return
		}

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.runScheduled(ctx, "定时")
			case <-ctx.Done():
				zap.S().Info("同步任务已停止")
				return
			}
		}
	}()

	return nil
}

// StartCronSync 启动基于 cron 表达式的定时同步
func (s *SyncService) StartCronSync(ctx context.Context) error {
	if s.cfg.Schedule == nil {
		return fmt.Errorf("缺少 schedule 配置")
	}
	expr := strings.TrimSpace(s.cfg.Schedule.Cron)
	if expr == "" {
		return fmt.Errorf("cron 表达式不能为空")
	}

	parts := strings.Fields(expr)
	var c *cron.Cron
	if len(parts) == 6 {
		c = cron.New(cron.WithSeconds())
	} else if len(parts) == 5 {
		c = cron.New()
	} else {
		return fmt.Errorf("无效的 cron 表达式格式，应为5位或6位: %s", expr)
	}

	entryID, err := c.AddFunc(expr, func() {
		s.runScheduled(ctx, "CRON")
	})
	if err != nil {
		return fmt.Errorf("解析 CRON 表达式失败: %w", err)
	}

	zap.S().Infof("CRON 任务已注册 (EntryID: %d, 表达式: %s)", entryID, expr)

	c.Start()
	zap.S().Info("CRON 调度器已启动")

	go func() {
		<-ctx.Done()
		zap.S().Info("接收到停止信号，正在停止 CRON 调度器...")
		stopCtx := c.Stop()
		<-stopCtx.Done()
		zap.S().Info("CRON 调度器已停止")
	}()

	return nil
}

func (s *SyncService) runScheduled(ctx context.Context, trigger string) {
	zap.S().Infof("%s 触发同步任务...", trigger)
	report, err := s.Run(ctx)
	if err != nil {
		zap.S().Warnf("%s 触发被拒绝: %v", trigger, err)
		return
	}
	if report.Success() {
		zap.S().Infof("%s 调度执行成功", trigger)
	} else {
		zap.S().Errorf("%s 调度执行失败: %s", trigger, report.Outcome.Token())
	}
}

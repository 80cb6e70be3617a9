package monitor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"fansync/pkg/feishu"
	"fansync/pkg/gitback"
	"fansync/pkg/store"

	"go.uber.org/zap"
)

const timeLayout = "2006-01-02 15:04:05"

// Monitor 任务监控器：以子进程方式运行数据同步任务，解析其 STATUS 输出，
// 把结果通知到群聊并落运行历史。同名任务互斥，重叠触发直接拒绝。
type Monitor struct {
	cfg    *Config
	client *feishu.Client
	runs   *store.RunStore
	backup *gitback.Backup

	flight *singleFlight
}

func New(cfg *Config, runs *store.RunStore) *Monitor {
	m := &Monitor{
		cfg:    cfg,
		client: feishu.NewClient(cfg.Feishu),
		runs:   runs,
		flight: newSingleFlight(),
	}
	if cfg.RepoDir != "" {
		m.backup = gitback.New(cfg.RepoDir)
	}
	return m
}

// SendMessage 发送群聊通知，chatID 为空时用配置的默认群聊。
// 通知失败只记日志，不影响任务本身。
func (m *Monitor) SendMessage(text, chatID string) {
	if chatID == "" {
		chatID = m.cfg.ChatID
	}
	if err := m.client.SendText(chatID, text); err != nil {
		zap.S().Errorf("❌ 发送消息异常: %v", err)
	}
}

// RunTask 运行一个任务并全程跟踪：开始/结束通知、STATUS 解析、
// 可选的 git 备份、运行历史落库。返回任务是否成功。
func (m *Monitor) RunTask(ctx context.Context, name, trigger, chatID string) bool {
	task, ok := m.cfg.Task(name)
	if !ok {
		zap.S().Errorf("❌ 未知任务: %s", name)
		return false
	}
	if !m.flight.acquire(name) {
		zap.S().Warnf("⚠️ 任务 %s 正在运行中，忽略本次触发 (%s)", name, trigger)
		m.SendMessage(fmt.Sprintf("⚠️ %s正在运行中，请稍后再试", task.Title), chatID)
		return false
	}
	defer m.flight.release(name)

	startTime := time.Now()
	zap.S().Infof("🚀 开始运行任务 %s: %s (触发方式: %s)", name, startTime.Format(timeLayout), trigger)
	m.SendMessage(fmt.Sprintf("🚀 %s开始运行\n开始时间: %s\n触发方式: %s",
		task.Title, startTime.Format(timeLayout), trigger), chatID)

	output, exitCode, timedOut := m.execute(ctx, task)
	endTime := time.Now()
	duration := endTime.Sub(startTime)
	status := lastStatusLine(output)

	rec := &store.RunRecord{
		Task:      name,
		Trigger:   trigger,
		StartedAt: startTime,
		Duration:  duration,
		Status:    status,
		ExitCode:  exitCode,
		Output:    truncate(output, 2000),
	}
	if err := m.runs.SaveRun(rec); err != nil {
		zap.S().Errorf("保存运行历史失败: %v", err)
	}
	m.runs.GC()

	if timedOut {
		timeout := task.TimeoutMinutes
		if timeout <= 0 {
			timeout = 30
		}
		zap.S().Errorf("⏰ 任务 %s 运行超时", name)
		m.SendMessage(fmt.Sprintf("⏰ %s超时！\n开始时间: %s\n触发方式: %s\n超时时间: %d分钟\n状态: 任务运行超时，已强制终止",
			task.Title, startTime.Format(timeLayout), trigger, timeout), chatID)
		return false
	}

	if exitCode != 0 {
		zap.S().Errorf("❌ 任务 %s 运行失败，退出代码: %d", name, exitCode)
		message := fmt.Sprintf("❌ %s失败！\n开始时间: %s\n结束时间: %s\n运行时长: %v\n触发方式: %s\n退出代码: %d",
			task.Title, startTime.Format(timeLayout), endTime.Format(timeLayout), duration.Round(time.Second), trigger, exitCode)
		if status != "" {
			message += "\n详细状态: " + status
		}
		m.SendMessage(message, chatID)
		return false
	}

	zap.S().Infof("✅ 任务 %s 运行成功", name)
	message := fmt.Sprintf("✅ %s成功完成！\n开始时间: %s\n结束时间: %s\n运行时长: %v\n触发方式: %s\n状态: 正常运行",
		task.Title, startTime.Format(timeLayout), endTime.Format(timeLayout), duration.Round(time.Second), trigger)
	if summary := processedSummary(output); summary != "" {
		message += "\n" + summary
	}
	if status != "" {
		message += "\n详细状态: " + status
	}
	if strings.Contains(output, "STATUS:WECHAT_FAILED") || strings.Contains(output, "微信公众号数据获取可能存在问题") {
		message += "\n⚠️ 注意：微信公众号登录状态可能异常，请检查登录状态"
	}
	m.SendMessage(message, chatID)

	if task.GitBackup && m.backup != nil {
		if result, err := m.backup.Run(ctx, task.Title, processedSummary(output)); err != nil {
			m.SendMessage(fmt.Sprintf("⚠️ Git备份失败: %v", err), chatID)
		} else {
			m.SendMessage("📁 "+result, chatID)
		}
	}
	return true
}

// execute 运行任务命令并收集输出
func (m *Monitor) execute(ctx context.Context, task TaskConfig) (output string, exitCode int, timedOut bool) {
	timeout := time.Duration(task.TimeoutMinutes) * time.Minute
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, "sh", "-c", task.Command)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	output = buf.String()

	if execCtx.Err() == context.DeadlineExceeded {
		return output, -1, true
	}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return output, exitErr.ExitCode(), false
		}
		return output, -1, false
	}
	return output, 0, false
}

// DispatchMessage 按关键词把群聊消息路由到任务，异步执行。
// 无命中关键词时回复帮助信息。
func (m *Monitor) DispatchMessage(ctx context.Context, text, chatID string) {
	for _, task := range m.cfg.Tasks {
		for _, keyword := range task.Keywords {
			if strings.Contains(text, keyword) {
				zap.S().Infof("📢 检测到关键词 %q，触发任务 %s", keyword, task.Name)
				m.SendMessage(fmt.Sprintf("📢 检测到相关关键词，开始执行%s任务...", task.Title), chatID)
				go m.RunTask(ctx, task.Name, fmt.Sprintf("群聊@触发(%s)", task.Title), chatID)
				return
			}
		}
	}

	var lines []string
	lines = append(lines, "🤖 请在@消息中包含以下关键词之一：")
	for _, task := range m.cfg.Tasks {
		if len(task.Keywords) > 0 {
			lines = append(lines, fmt.Sprintf("• %s - 执行%s", strings.Join(task.Keywords, "/"), task.Title))
		}
	}
	m.SendMessage(strings.Join(lines, "\n"), chatID)
	zap.S().Info("❌ 未检测到有效关键词")
}

// StartDailySchedule 启动每日定时触发
func (m *Monitor) StartDailySchedule(ctx context.Context) error {
	if m.cfg.Schedule == nil || m.cfg.Schedule.DailyTime == "" {
		zap.S().Info("未配置定时任务，跳过定时调度")
		return nil
	}
	taskName := m.cfg.Schedule.Task
	if _, ok := m.cfg.Task(taskName); !ok {
		return fmt.Errorf("定时任务 %q 不存在", taskName)
	}

	t, err := time.Parse("15:04", m.cfg.Schedule.DailyTime)
	if err != nil {
		return fmt.Errorf("无效的定时时刻格式，应为 HH:MM: %s", m.cfg.Schedule.DailyTime)
	}

	go func() {
		loc, _ := time.LoadLocation("Asia/Shanghai")
		for {
			now := time.Now().In(loc)
			next := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, loc)
			if !next.After(now) {
				next = next.Add(24 * time.Hour)
			}
			zap.S().Infof("🕘 定时任务将在 %s 触发", next.Format(timeLayout))

			select {
			case <-time.After(next.Sub(now)):
				zap.S().Info("🕘 每日定时任务触发")
				m.RunTask(ctx, taskName, fmt.Sprintf("每日定时监控(%s)", m.cfg.Schedule.DailyTime), "")
			case <-ctx.Done():
				zap.S().Info("🛑 定时调度已停止")
				return
			}
		}
	}()

	zap.S().Infof("✅ 每日定时监控已启动，运行时间: %s", m.cfg.Schedule.DailyTime)
	m.SendMessage(fmt.Sprintf("🕘 每日定时监控已启动\n运行时间: 每天 %s", m.cfg.Schedule.DailyTime), "")
	return nil
}

// RecentRuns 最近的运行历史
func (m *Monitor) RecentRuns(task string, limit int) ([]store.RunRecord, error) {
	if task != "" {
		return m.runs.RunsForTask(task, limit)
	}
	return m.runs.RecentRuns(limit)
}

func lastStatusLine(output string) string {
	var last string
	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(line, "STATUS:") {
			last = strings.TrimSpace(line)
		}
	}
	return last
}

// processedSummary 从任务输出里提取处理条数行
func processedSummary(output string) string {
	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(line, "PROCESSED_RECORDS:") {
			return "总共成功处理了 " + strings.TrimPrefix(strings.TrimSpace(line), "PROCESSED_RECORDS:") + " 条数据"
		}
	}
	return ""
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[len(runes)-max:])
}

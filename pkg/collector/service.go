package collector

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"fansync/pkg/feishu"
	"fansync/pkg/record"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Report 一次多平台采集的汇总结果
type Report struct {
	All          []Snapshot
	Successful   []Snapshot
	ErrorSummary map[string][]string // 平台 → 错误代码
	FeishuOK     bool
	CSVPath      string
}

func (r *Report) ExitCode() int {
	if len(r.Successful) > 0 {
		return 0
	}
	return 4
}

// Emit 输出供外层进程 grep 的状态行
func (r *Report) Emit(w io.Writer) {
	if len(r.Successful) > 0 {
		seen := make(map[string]struct{})
		var platforms []string
		for _, s := range r.Successful {
			if _, ok := seen[s.Platform]; ok {
				continue
			}
			seen[s.Platform] = struct{}{}
			platforms = append(platforms, s.Platform)
		}
		fmt.Fprintf(w, "STATUS:SUCCESS - 成功获取平台: %s\n", strings.Join(platforms, ", "))
		if _, hasWechat := seen[PlatformWechat]; !hasWechat {
			if _, failed := r.ErrorSummary["wechat"]; failed {
				fmt.Fprintln(w, "STATUS:WARNING - 微信公众号数据获取失败")
			}
		}
	} else {
		fmt.Fprintln(w, "STATUS:FAILED - 未获取到任何数据")
		if _, failed := r.ErrorSummary["wechat"]; failed {
			fmt.Fprintln(w, "STATUS:WECHAT_FAILED - 微信公众号登录状态异常或数据获取失败")
		}
	}
}

// Service 多平台粉丝数据采集服务。各平台严格串行执行，
// 单平台失败不影响其余平台，失败账号以零粉丝快照留档。
type Service struct {
	cfg    *Config
	client *feishu.Client
}

func NewService(cfg *Config) *Service {
	return &Service{
		cfg:    cfg,
		client: feishu.NewClient(cfg.Feishu),
	}
}

type namedCollector struct {
	collector Collector
	enabled   bool
	buildErr  error
	errPrefix string
}

func (s *Service) collectors() []namedCollector {
	build := func(c Collector, err error, enabled bool, prefix string) namedCollector {
		return namedCollector{collector: c, enabled: enabled, buildErr: err, errPrefix: prefix}
	}
	bilibili, errB := NewBilibili(s.cfg)
	youtube, errY := NewYoutube(s.cfg)
	redbook, errR := NewRedbook(s.cfg)
	douyin, errD := NewDouyin(s.cfg)
	weibo, errW := NewWeibo(s.cfg)
	wechat, errWX := NewWechat(s.cfg)
	zhihu, errZ := NewZhihu(s.cfg)
	return []namedCollector{
		build(bilibili, errB, len(s.cfg.BilibiliUIDs) > 0, "BILIBILI"),
		build(youtube, errY, len(s.cfg.YoutubeChannels) > 0, "YOUTUBE"),
		build(redbook, errR, len(s.cfg.RedbookUserIDs) > 0, "REDBOOK"),
		build(douyin, errD, len(s.cfg.DouyinUserIDs) > 0, "DOUYIN"),
		build(weibo, errW, len(s.cfg.WeiboUserIDs) > 0, "WEIBO"),
		build(wechat, errWX, s.cfg.WechatEnabled, "WECHAT"),
		build(zhihu, errZ, len(s.cfg.ZhihuUserSlugs) > 0, "ZHIHU"),
	}
}

// Run 执行一次完整采集：逐平台抓取、写入飞书、追加本地 CSV
func (s *Service) Run(ctx context.Context) *Report {
	zap.S().Info("🚀 开始获取多平台粉丝数据并写入飞书...")
	report := &Report{ErrorSummary: make(map[string][]string)}

	zap.S().Info("=== 开始获取各平台数据 ===")
	for _, nc := range s.collectors() {
		if !nc.enabled {
			continue
		}
		if nc.buildErr != nil {
			code := nc.errPrefix + "_003"
			zap.S().Errorf("❌ [%s] %s: %v", code, ErrorCodeMessages[code], nc.buildErr)
			report.ErrorSummary[nc.collector.Name()] = append(report.ErrorSummary[nc.collector.Name()], code)
			continue
		}
		snapshots, perr := nc.collector.Collect(ctx)
		report.All = append(report.All, snapshots...)
		if perr != nil {
			zap.S().Errorf("❌ [%s] %s", perr.Code, ErrorCodeMessages[perr.Code])
			if perr.Detail != "" {
				zap.S().Errorf("   详细信息: %s", perr.Detail)
			}
			report.ErrorSummary[nc.collector.Name()] = append(report.ErrorSummary[nc.collector.Name()], perr.Code)
		}
	}

	if len(report.All) == 0 {
		zap.S().Error("❌ 未获取到任何数据")
		for platform, codes := range report.ErrorSummary {
			zap.S().Errorf("   %s: %s", platform, strings.Join(codes, ", "))
		}
		return report
	}

	zap.S().Infof("📊 总共获取到 %d 条数据", len(report.All))
	for _, snapshot := range report.All {
		if snapshot.OK() {
			report.Successful = append(report.Successful, snapshot)
		}
	}
	s.logPlatformStats(report.Successful)

	zap.S().Info("=== 开始写入飞书 ===")
	if len(report.Successful) == 0 {
		zap.S().Warn("⚠️ 没有成功的数据可写入飞书")
	} else if err := s.writeFeishu(report.Successful); err != nil {
		zap.S().Errorf("❌ 写入飞书失败: %v", err)
	} else {
		report.FeishuOK = true
	}

	zap.S().Info("=== 开始保存到CSV ===")
	if err := s.appendCSV(report.All); err != nil {
		zap.S().Errorf("❌ 保存到CSV文件时出错: %v", err)
	} else {
		report.CSVPath = s.cfg.OutputCSV
	}

	zap.S().Info("=== 任务完成总结 ===")
	zap.S().Infof("📊 数据获取: 成功获取 %d 条记录", len(report.Successful))
	zap.S().Infof("🚀 飞书写入: %v", report.FeishuOK)
	return report
}

func (s *Service) logPlatformStats(successful []Snapshot) {
	type stat struct {
		count int
		fans  int64
	}
	stats := make(map[string]*stat)
	var order []string
	for _, snapshot := range successful {
		st, ok := stats[snapshot.Platform]
		if !ok {
			st = &stat{}
			stats[snapshot.Platform] = st
			order = append(order, snapshot.Platform)
		}
		st.count++
		st.fans += snapshot.Followers
	}
	sort.Strings(order)
	zap.S().Info("📈 各平台统计:")
	for _, platform := range order {
		zap.S().Infof("   %s: %d 个账号，总粉丝数 %d", platform, stats[platform].count, stats[platform].fans)
	}
}

// writeFeishu 把成功的快照批量写入粉丝数据表，日期列取写入时刻
func (s *Service) writeFeishu(successful []Snapshot) error {
	now := time.Now().UnixMilli()
	creates := make([]record.Fields, 0, len(successful))
	for _, snapshot := range successful {
		creates = append(creates, record.Fields{
			"日期":  record.Number(float64(now)),
			"账号名": record.Text(snapshot.Account),
			"平台":  record.Text(snapshot.Platform),
			"粉丝数": record.Number(float64(snapshot.Followers)),
		})
	}
	return s.client.BatchCreate(s.cfg.TableID, creates)
}

var csvColumns = []string{"日期", "账号名", "平台", "粉丝数"}

// appendCSV 追加写本地备份，含失败的零粉丝行，文件不存在时先写表头
func (s *Service) appendCSV(all []Snapshot) error {
	path := s.cfg.OutputCSV
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "创建输出目录失败")
		}
	}

	_, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrap(err, "打开CSV文件失败")
	}
	defer func() { _ = f.Close() }()

	writer := csv.NewWriter(f)
	if fresh {
		if _, err := f.WriteString("\uFEFF"); err != nil {
			return errors.Wrap(err, "写入CSV文件失败")
		}
		if err := writer.Write(csvColumns); err != nil {
			return errors.Wrap(err, "写入CSV表头失败")
		}
	}
	for _, snapshot := range all {
		row := []string{snapshot.Date, snapshot.Account, snapshot.Platform, strconv.FormatInt(snapshot.Followers, 10)}
		if err := writer.Write(row); err != nil {
			return errors.Wrap(err, "写入CSV数据失败")
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.Wrap(err, "写入CSV文件失败")
	}
	zap.S().Infof("✅ 数据已保存到 %s", path)
	return nil
}

// Validate 验证配置信息
func (c *Config) Validate() []error {
	var errs = make([]error, 0)
	if c.Feishu == nil {
		errs = append(errs, errors.New("缺少 feishu 配置"))
	} else if feishuErrs := c.Feishu.Validate(); len(feishuErrs) > 0 {
		errs = append(errs, feishuErrs...)
	}
	if c.TableID == "" {
		errs = append(errs, errors.New("缺少粉丝数据表 tableId"))
	}
	if c.OutputCSV == "" {
		errs = append(errs, errors.New("缺少输出文件 outputCsv"))
	}
	return errs
}

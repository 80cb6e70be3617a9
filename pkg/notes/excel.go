package notes

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"fansync/pkg/record"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ErrNoRecentWorkbook 目录里没有有效期内的导出文件
var ErrNoRecentWorkbook = errors.New("未找到有效期内的导出文件")

// FindLatestWorkbook 在目录中查找有效期内最新的 xlsx/xls 文件。
// 超过有效期的文件一律跳过，目录为空或全部过期时返回 ErrNoRecentWorkbook。
func FindLatestWorkbook(excelDir string, maxAge time.Duration) (string, error) {
	entries, err := os.ReadDir(excelDir)
	if err != nil {
		return "", errors.Wrapf(err, "导出目录不存在: %s", excelDir)
	}

	type candidate struct {
		path  string
		mtime time.Time
	}
	var candidates []candidate
	now := time.Now()

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".xlsx") && !strings.HasSuffix(name, ".xls") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		age := now.Sub(info.ModTime())
		if age > maxAge {
			zap.S().Warnf("⚠️ 文件过旧，跳过: %s (创建于 %.1f 小时前)", name, age.Hours())
			continue
		}
		zap.S().Infof("✅ 找到有效文件: %s (创建于 %.1f 小时前)", name, age.Hours())
		candidates = append(candidates, candidate{path: filepath.Join(excelDir, name), mtime: info.ModTime()})
	}

	if len(candidates) == 0 {
		return "", ErrNoRecentWorkbook
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].mtime.After(candidates[j].mtime)
	})
	latest := candidates[0]
	zap.S().Infof("📁 选择最新导出文件: %s", filepath.Base(latest.path))
	return latest.path, nil
}

// ReadWorkbook 读取导出文件的第一个工作表。
// 创作者中心导出格式的第一行是说明文字，第二行才是表头，数据从第三行开始；
// 整行皆空的行直接丢弃。
func ReadWorkbook(path string) ([]string, []record.Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "打开导出文件失败: %s", path)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, errors.Errorf("导出文件没有工作表: %s", path)
	}
	rawRows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, errors.Wrap(err, "读取工作表失败")
	}
	if len(rawRows) < 2 {
		return nil, nil, nil
	}

	var columns []string
	for _, cell := range rawRows[1] {
		col := strings.TrimSpace(cell)
		if col == "" {
			break
		}
		columns = append(columns, col)
	}
	if len(columns) == 0 {
		return nil, nil, errors.Errorf("导出文件表头为空: %s", path)
	}

	var rows []record.Row
	for _, rawRow := range rawRows[2:] {
		row := make(record.Row, len(columns))
		empty := true
		for i, col := range columns {
			var cell string
			if i < len(rawRow) {
				cell = rawRow[i]
			}
			v := record.FromCell(cell)
			if !v.IsEmpty() {
				empty = false
			}
			row[col] = v
		}
		if empty {
			continue
		}
		rows = append(rows, row)
	}

	zap.S().Infof("📊 读取到 %d 行数据，%d 列", len(rows), len(columns))
	return columns, rows, nil
}

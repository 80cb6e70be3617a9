package notes

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"fansync/pkg/record"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// History 本地历史备份：列清单加有序行集
type History struct {
	Columns []string
	Rows    []record.Row
}

func (h History) Empty() bool {
	return len(h.Rows) == 0
}

// LoadHistory 读取本地备份 CSV。文件不存在视为空历史，
// 读取失败只告警并按空历史继续，本地备份的缺失不应阻断同步。
func LoadHistory(csvPath string) History {
	data, err := os.ReadFile(csvPath)
	if err != nil {
		if os.IsNotExist(err) {
			zap.S().Info("📄 未找到现有CSV文件，将创建新文件")
		} else {
			zap.S().Warnf("⚠️ 读取现有CSV文件失败: %v，将创建新文件", err)
		}
		return History{}
	}

	content := strings.TrimPrefix(string(data), "\uFEFF")
	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil || len(records) == 0 {
		zap.S().Warnf("⚠️ 解析现有CSV文件失败: %v，将创建新文件", err)
		return History{}
	}

	columns := records[0]
	rows := make([]record.Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(record.Row, len(columns))
		for i, col := range columns {
			var cell string
			if i < len(rec) {
				cell = rec[i]
			}
			row[col] = record.FromCell(cell)
		}
		rows = append(rows, row)
	}

	zap.S().Infof("📖 读取到现有CSV数据: %d 条记录", len(rows))
	return History{Columns: columns, Rows: rows}
}

// MergeHistory 把新导出的行并入历史备份，按唯一键整行去重、后出现者胜。
// 这里的变更检测只用于报告，远端同步走独立的字段级比对，两者不可混用。
func MergeHistory(existing History, columns []string, fresh []record.Row, schema record.Schema) (History, MergeReport) {
	report := MergeReport{}

	if existing.Empty() {
		report.New = len(fresh)
		return History{Columns: columns, Rows: fresh}, report
	}

	freshKeys := make(map[string]struct{}, len(fresh))
	for _, row := range fresh {
		freshKeys[record.CivilKey(row.Get(schema.UniqueKey).AsString())] = struct{}{}
	}

	existingByKey := make(map[string]record.Row, len(existing.Rows))
	for _, row := range existing.Rows {
		existingByKey[record.CivilKey(row.Get(schema.UniqueKey).AsString())] = row
	}

	var changedKeys []string
	for _, row := range fresh {
		key := record.CivilKey(row.Get(schema.UniqueKey).AsString())
		old, ok := existingByKey[key]
		if !ok {
			report.New++
			continue
		}
		if rowDiffers(old, row, columns, schema) {
			report.Changed++
			changedKeys = append(changedKeys, key)
		}
	}

	// 拼接后按键去重保留最后一次出现，新数据总是覆盖旧数据
	merged := make([]record.Row, 0, len(existing.Rows)+len(fresh))
	for _, row := range existing.Rows {
		key := record.CivilKey(row.Get(schema.UniqueKey).AsString())
		if _, replaced := freshKeys[key]; replaced {
			continue
		}
		merged = append(merged, row)
	}
	seen := make(map[string]int, len(fresh))
	for _, row := range fresh {
		key := record.CivilKey(row.Get(schema.UniqueKey).AsString())
		if idx, dup := seen[key]; dup {
			merged[idx] = row
			continue
		}
		seen[key] = len(merged)
		merged = append(merged, row)
	}

	if len(changedKeys) > 0 {
		zap.S().Info("🔍 检测到数据变化的记录:")
		for _, key := range changedKeys {
			zap.S().Infof("  - %s", key)
		}
	}
	zap.S().Infof("📊 合并后数据: %d 条记录", len(merged))
	zap.S().Infof("📈 新增记录: %d 条", report.New)
	zap.S().Infof("🔄 真正更新记录: %d 条", report.Changed)

	return History{Columns: columns, Rows: merged}, report
}

// rowDiffers 整行比较非键字段：数值列按数值、其余按字符串
func rowDiffers(old, fresh record.Row, columns []string, schema record.Schema) bool {
	for _, col := range columns {
		if col == schema.UniqueKey {
			continue
		}
		oldVal, freshVal := old.Get(col), fresh.Get(col)
		if schema.IsNumeric(col) {
			if oldVal.AsInt() != freshVal.AsInt() {
				return true
			}
		} else if oldVal.AsString() != freshVal.AsString() {
			return true
		}
	}
	return false
}

// SaveHistory 把合并结果写回备份 CSV，带 UTF-8 BOM 以兼容表格软件直接打开
func SaveHistory(csvPath string, h History) error {
	if h.Empty() {
		return errors.New("没有数据可保存到CSV")
	}
	if dir := filepath.Dir(csvPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "创建备份目录失败")
		}
	}

	f, err := os.Create(csvPath)
	if err != nil {
		return errors.Wrap(err, "创建CSV文件失败")
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString("\uFEFF"); err != nil {
		return errors.Wrap(err, "写入CSV文件失败")
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(h.Columns); err != nil {
		return errors.Wrap(err, "写入CSV表头失败")
	}
	cells := make([]string, len(h.Columns))
	for _, row := range h.Rows {
		for i, col := range h.Columns {
			cells[i] = row.Get(col).AsString()
		}
		if err := writer.Write(cells); err != nil {
			return errors.Wrap(err, "写入CSV数据失败")
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.Wrap(err, "写入CSV文件失败")
	}

	zap.S().Infof("💾 数据已保存到本地CSV文件: %s", csvPath)
	return nil
}

package notes

import (
	"os"
	"path/filepath"
	"testing"

	"fansync/pkg/record"
)

func mkRow(key, title, reads string) record.Row {
	return record.Row{
		"首次发布时间": record.Text(key),
		"笔记标题":   record.Text(title),
		"阅读量":    record.Text(reads),
	}
}

func TestMergeHistoryEmptyExisting(t *testing.T) {
	fresh := []record.Row{
		mkRow("2025年07月20日17时37分34秒", "笔记A", "100"),
		mkRow("2025年07月21日10时00分00秒", "笔记B", "50"),
	}
	merged, report := MergeHistory(History{}, testColumns(), fresh, record.DefaultSchema())

	if report.New != 2 || report.Changed != 0 {
		t.Errorf("report = %+v, want New=2 Changed=0", report)
	}
	if len(merged.Rows) != 2 {
		t.Errorf("合并行数 = %d, want 2", len(merged.Rows))
	}
}

func TestMergeHistoryReplaceAndAppend(t *testing.T) {
	existing := History{
		Columns: testColumns(),
		Rows: []record.Row{
			mkRow("2025年07月18日09时00分00秒", "笔记A", "10"),
			mkRow("2025年07月19日09时00分00秒", "笔记B", "20"),
		},
	}
	fresh := []record.Row{
		mkRow("2025年07月19日09时00分00秒", "笔记B", "25"), // 键冲突且内容有变
		mkRow("2025年07月20日09时00分00秒", "笔记C", "30"), // 新键
	}

	merged, report := MergeHistory(existing, testColumns(), fresh, record.DefaultSchema())

	if report.New != 1 {
		t.Errorf("New = %d, want 1", report.New)
	}
	if report.Changed != 1 {
		t.Errorf("Changed = %d, want 1", report.Changed)
	}
	if len(merged.Rows) != 3 {
		t.Fatalf("合并行数 = %d, want 3", len(merged.Rows))
	}
	wantOrder := []string{"笔记A", "笔记B", "笔记C"}
	wantReads := []string{"10", "25", "30"}
	for i, row := range merged.Rows {
		if got := row.Get("笔记标题").AsString(); got != wantOrder[i] {
			t.Errorf("第 %d 行标题 = %q, want %q", i, got, wantOrder[i])
		}
		if got := row.Get("阅读量").AsString(); got != wantReads[i] {
			t.Errorf("第 %d 行阅读量 = %q, want %q", i, got, wantReads[i])
		}
	}
}

func TestMergeHistoryUnchangedRowNotCounted(t *testing.T) {
	existing := History{
		Columns: testColumns(),
		Rows:    []record.Row{mkRow("2025年07月18日09时00分00秒", "笔记A", "10")},
	}
	fresh := []record.Row{mkRow("2025年07月18日09时00分00秒", "笔记A", "10")}

	_, report := MergeHistory(existing, testColumns(), fresh, record.DefaultSchema())
	if report.New != 0 || report.Changed != 0 {
		t.Errorf("等值重提交不应计数: %+v", report)
	}
}

func TestMergeHistoryFreshDuplicateKeepsLast(t *testing.T) {
	fresh := []record.Row{
		mkRow("2025年07月18日09时00分00秒", "旧版", "10"),
		mkRow("2025年07月18日09时00分00秒", "新版", "12"),
	}
	existing := History{
		Columns: testColumns(),
		Rows:    []record.Row{mkRow("2025年07月17日09时00分00秒", "前置", "1")},
	}

	merged, _ := MergeHistory(existing, testColumns(), fresh, record.DefaultSchema())
	if len(merged.Rows) != 2 {
		t.Fatalf("合并行数 = %d, want 2", len(merged.Rows))
	}
	if got := merged.Rows[1].Get("笔记标题").AsString(); got != "新版" {
		t.Errorf("批内重复键应保留最后一条, got %q", got)
	}
}

func TestSaveAndLoadHistoryRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data", "notes.csv")

	h := History{
		Columns: testColumns(),
		Rows: []record.Row{
			mkRow("2025年07月20日17时37分34秒", "测试笔记", "100"),
			mkRow("2025年07月21日10时00分00秒", "第二篇", "50"),
		},
	}
	if err := SaveHistory(path, h); err != nil {
		t.Fatalf("SaveHistory: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取CSV: %v", err)
	}
	if len(data) < 3 || string(data[:3]) != "\xef\xbb\xbf" {
		t.Error("CSV文件应以UTF-8 BOM开头")
	}

	loaded := LoadHistory(path)
	if len(loaded.Columns) != len(h.Columns) {
		t.Fatalf("列数 = %d, want %d", len(loaded.Columns), len(h.Columns))
	}
	if len(loaded.Rows) != 2 {
		t.Fatalf("行数 = %d, want 2", len(loaded.Rows))
	}
	if got := loaded.Rows[0].Get("首次发布时间").AsString(); got != "2025年07月20日17时37分34秒" {
		t.Errorf("键列往返 = %q", got)
	}
	if got := loaded.Rows[1].Get("阅读量").AsString(); got != "50" {
		t.Errorf("数值列往返 = %q", got)
	}
}

func TestLoadHistoryMissingFile(t *testing.T) {
	h := LoadHistory(filepath.Join(t.TempDir(), "nope.csv"))
	if !h.Empty() {
		t.Errorf("缺失文件应返回空历史: %+v", h)
	}
}

func TestSaveHistoryRejectsEmpty(t *testing.T) {
	if err := SaveHistory(filepath.Join(t.TempDir(), "x.csv"), History{}); err == nil {
		t.Error("空数据应拒绝保存")
	}
}

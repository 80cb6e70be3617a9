package notes

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

func TestFindLatestWorkbook(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	write := func(name string, mtime time.Time) {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatal(err)
		}
	}
	write("old.xlsx", now.Add(-48*time.Hour))
	write("yesterday.xlsx", now.Add(-20*time.Hour))
	write("latest.xlsx", now.Add(-1*time.Hour))
	write("notes.txt", now)

	got, err := FindLatestWorkbook(dir, 24*time.Hour)
	if err != nil {
		t.Fatalf("FindLatestWorkbook: %v", err)
	}
	if filepath.Base(got) != "latest.xlsx" {
		t.Errorf("选择了 %q, want latest.xlsx", got)
	}
}

func TestFindLatestWorkbookAllExpired(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "old.xlsx")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	stale := time.Now().Add(-72 * time.Hour)
	if err := os.Chtimes(path, stale, stale); err != nil {
		t.Fatal(err)
	}

	_, err := FindLatestWorkbook(dir, 24*time.Hour)
	if !errors.Is(err, ErrNoRecentWorkbook) {
		t.Errorf("err = %v, want ErrNoRecentWorkbook", err)
	}
}

func TestFindLatestWorkbookMissingDir(t *testing.T) {
	if _, err := FindLatestWorkbook(filepath.Join(t.TempDir(), "nope"), time.Hour); err == nil {
		t.Error("目录缺失应报错")
	}
}

func TestReadWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"数据来源：创作者中心"},
		{"首次发布时间", "笔记标题", "阅读量"},
		{"2025年07月20日17时37分34秒", "测试笔记", "100"},
		{"", "", ""},
		{"2025年07月21日10时00分00秒", "第二篇", "50"},
	}
	for i, cells := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	columns, data, err := ReadWorkbook(path)
	if err != nil {
		t.Fatalf("ReadWorkbook: %v", err)
	}
	want := []string{"首次发布时间", "笔记标题", "阅读量"}
	if len(columns) != len(want) {
		t.Fatalf("列 = %v, want %v", columns, want)
	}
	for i, col := range want {
		if columns[i] != col {
			t.Errorf("列 %d = %q, want %q", i, columns[i], col)
		}
	}
	// 空行被丢弃
	if len(data) != 2 {
		t.Fatalf("行数 = %d, want 2", len(data))
	}
	if got := data[0].Get("阅读量").AsString(); got != "100" {
		t.Errorf("阅读量 = %q", got)
	}
	if got := data[1].Get("笔记标题").AsString(); got != "第二篇" {
		t.Errorf("笔记标题 = %q", got)
	}
}

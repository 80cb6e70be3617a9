package record

import (
	"strings"
	"testing"
)

func TestValueCoerce(t *testing.T) {
	tests := []struct {
		name     string
		in       Value
		wantInt  int64
		wantText string
	}{
		{"empty", Empty, 0, ""},
		{"integer number", Number(150), 150, "150"},
		{"float number", Number(1.5), 1, "1.5"},
		{"numeric text", Text("100"), 100, "100"},
		{"numeric text with spaces", Text(" 42 "), 42, " 42 "},
		{"non numeric text", Text("置顶"), 0, "置顶"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.AsInt(); got != tt.wantInt {
				t.Errorf("AsInt() = %d, want %d", got, tt.wantInt)
			}
			if got := tt.in.AsString(); got != tt.wantText {
				t.Errorf("AsString() = %q, want %q", got, tt.wantText)
			}
		})
	}
}

func TestValueTruncate(t *testing.T) {
	long := strings.Repeat("标", 1200)
	got := Text(long).Truncate(1000)
	if runes := []rune(got.AsString()); len(runes) != 1000 {
		t.Errorf("截断后长度 = %d, want 1000", len(runes))
	}
	if v := Number(12345).Truncate(2); v != Number(12345) {
		t.Errorf("数值不应被截断: %v", v)
	}
}

func TestNormalize(t *testing.T) {
	schema := DefaultSchema()
	columns := []string{"首次发布时间", "笔记标题", "阅读量", "点赞量"}

	tests := []struct {
		name string
		row  Row
		want Fields
	}{
		{
			name: "complete row",
			row: Row{
				"首次发布时间": Text("2025年07月20日17时37分34秒"),
				"笔记标题":   Text("测试笔记"),
				"阅读量":    Text("100"),
				"点赞量":    Text("8"),
			},
			want: Fields{
				"首次发布时间": Number(1753004254000),
				"笔记标题":   Text("测试笔记"),
				"阅读量":    Number(100),
				"点赞量":    Number(8),
			},
		},
		{
			name: "missing columns default",
			row:  Row{"首次发布时间": Text("2025年07月20日17时37分34秒")},
			want: Fields{
				"首次发布时间": Number(1753004254000),
				"笔记标题":   Text(""),
				"阅读量":    Number(0),
				"点赞量":    Number(0),
			},
		},
		{
			name: "dirty numeric text falls back to zero",
			row: Row{
				"首次发布时间": Text("2025年07月20日17时37分34秒"),
				"阅读量":    Text("暂无数据"),
			},
			want: Fields{
				"首次发布时间": Number(1753004254000),
				"笔记标题":   Text(""),
				"阅读量":    Number(0),
				"点赞量":    Number(0),
			},
		},
		{
			name: "unparseable key passes through",
			row:  Row{"首次发布时间": Text("置顶笔记")},
			want: Fields{
				"首次发布时间": Text("置顶笔记"),
				"笔记标题":   Text(""),
				"阅读量":    Number(0),
				"点赞量":    Number(0),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.row, columns, schema)
			if len(got) != len(tt.want) {
				t.Fatalf("字段数 = %d, want %d", len(got), len(tt.want))
			}
			for col, want := range tt.want {
				if got[col] != want {
					t.Errorf("字段 %q = %v, want %v", col, got[col], want)
				}
			}
		})
	}
}

func TestNormalizeTruncatesTextColumns(t *testing.T) {
	schema := Schema{UniqueKey: "首次发布时间", TextColumns: []string{"笔记标题"}, MaxTextLen: 10}
	row := Row{
		"首次发布时间": Text("2025年07月20日17时37分34秒"),
		"笔记标题":   Text(strings.Repeat("长", 30)),
	}
	got := Normalize(row, []string{"首次发布时间", "笔记标题"}, schema)
	if runes := []rune(got["笔记标题"].AsString()); len(runes) != 10 {
		t.Errorf("标题截断后长度 = %d, want 10", len(runes))
	}
}

func TestFieldsJSONMap(t *testing.T) {
	fields := Fields{
		"首次发布时间": Number(1753004254000),
		"笔记标题":   Text("测试"),
		"阅读量":    Number(100),
	}
	got := fields.JSONMap()
	if got["首次发布时间"] != int64(1753004254000) {
		t.Errorf("时间戳载荷 = %v, want 1753004254000", got["首次发布时间"])
	}
	if got["笔记标题"] != "测试" {
		t.Errorf("文本载荷 = %v", got["笔记标题"])
	}
	if got["阅读量"] != int64(100) {
		t.Errorf("数值载荷 = %v", got["阅读量"])
	}
}

package record

import (
	"testing"
)

func TestEncodeCivil(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Value
	}{
		{
			name: "full-width layout",
			in:   "2025年07月20日17时37分34秒",
			want: Number(1753004254000),
		},
		{
			name: "iso datetime fallback",
			in:   "2025-07-20 17:37:34",
			want: Number(1753004254000),
		},
		{
			name: "slash date fallback",
			in:   "2025/07/20",
			want: Number(1752940800000),
		},
		{
			name: "empty input",
			in:   "",
			want: Empty,
		},
		{
			name: "blank input",
			in:   "   ",
			want: Empty,
		},
		{
			name: "unparseable passes through as text",
			in:   "不是时间",
			want: Text("不是时间"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodeCivil(tt.in)
			if got != tt.want {
				t.Errorf("EncodeCivil(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecodeCivil(t *testing.T) {
	// 2025-07-20T09:37:34Z 是本地 17:37:34 的 UTC 形式
	got := DecodeCivil(1753004254000)
	want := "2025年07月20日17时37分34秒"
	if got != want {
		t.Errorf("DecodeCivil(1753004254000) = %q, want %q", got, want)
	}
}

func TestCivilRoundTrip(t *testing.T) {
	millis := []int64{
		1753004254000,
		0,
		1704038400000, // 2024-01-01 00:00:00 局部午夜附近
		1767196799000,
	}
	for _, m := range millis {
		text := DecodeCivil(m)
		back := EncodeCivil(text)
		if back.Kind() != KindNumber {
			t.Fatalf("EncodeCivil(DecodeCivil(%d)) 不是数值: %v", m, back)
		}
		if back.AsInt() != m {
			t.Errorf("往返失败: %d -> %q -> %d", m, text, back.AsInt())
		}
	}
}

func TestCivilKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already full-width", "2025年07月20日17时37分34秒", "2025年07月20日17时37分34秒"},
		{"reformatted from iso", "2025-07-20 17:37:34", "2025年07月20日17时37分34秒"},
		{"empty", "", ""},
		{"unparseable verbatim", "置顶笔记", "置顶笔记"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CivilKey(tt.in); got != tt.want {
				t.Errorf("CivilKey(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestKeyFromRemote(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"epoch millis", float64(1753004254000), "2025年07月20日17时37分34秒"},
		{"textual key verbatim", "2025年07月20日17时37分34秒", "2025年07月20日17时37分34秒"},
		{"nil", nil, ""},
		{"empty string", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KeyFromRemote(tt.in); got != tt.want {
				t.Errorf("KeyFromRemote(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
